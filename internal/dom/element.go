package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is a handle on an element node of a Document. The zero value is
// an invalid handle.
type Element struct {
	doc *Document
	n   *html.Node
}

// Valid reports whether e refers to a node.
func (e Element) Valid() bool { return e.doc != nil && e.n != nil }

// Node exposes the underlying node. Its address is the element's identity.
func (e Element) Node() *html.Node { return e.n }

// Document returns the owning document.
func (e Element) Document() *Document { return e.doc }

// Equal reports whether both handles refer to the same node.
func (e Element) Equal(o Element) bool { return e.n != nil && e.n == o.n }

// Tag returns the lowercase tag name.
func (e Element) Tag() string {
	if !e.Valid() {
		return ""
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	if e.n.Type != html.ElementNode {
		return ""
	}
	return e.n.Data
}

// Attr returns the attribute value or "".
func (e Element) Attr(name string) string {
	if !e.Valid() {
		return ""
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	for _, a := range e.n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether the attribute is present.
func (e Element) HasAttr(name string) bool {
	if !e.Valid() {
		return false
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	for _, a := range e.n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

// SetAttr sets or replaces an attribute.
func (e Element) SetAttr(name, value string) {
	if !e.Valid() {
		return
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for i, a := range e.n.Attr {
		if a.Key == name {
			e.n.Attr[i].Val = value
			return
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: name, Val: value})
}

// Text returns the element's visible text with whitespace collapsed.
func (e Element) Text() string {
	if !e.Valid() {
		return ""
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	var b strings.Builder
	collectText(e.n, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

// Parent returns the parent element.
func (e Element) Parent() (Element, bool) {
	if !e.Valid() {
		return Element{}, false
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	p := e.n.Parent
	if p == nil || p.Type != html.ElementNode {
		return Element{}, false
	}
	return e.doc.wrap(p), true
}

// Children returns the element children in order.
func (e Element) Children() []Element {
	if !e.Valid() {
		return nil
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	var out []Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

// ChildTexts returns the collapsed text of every child node (text nodes and
// elements) of e, skipping the subtree rooted at skip.
func (e Element) ChildTexts(skip Element) []string {
	if !e.Valid() {
		return nil
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	var out []string
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if skip.n != nil && (c == skip.n || isAncestor(c, skip.n)) {
			continue
		}
		var b strings.Builder
		collectText(c, &b)
		if t := strings.Join(strings.Fields(b.String()), " "); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// PathToRoot returns e followed by its element ancestors.
func (e Element) PathToRoot() []Element {
	var out []Element
	for cur, ok := e, e.Valid(); ok; cur, ok = cur.Parent() {
		out = append(out, cur)
	}
	return out
}

// Closest returns e or its nearest ancestor matching pred.
func (e Element) Closest(pred func(Element) bool) (Element, bool) {
	for _, el := range e.PathToRoot() {
		if pred(el) {
			return el, true
		}
	}
	return Element{}, false
}

// Contains reports whether o is e or a descendant of e.
func (e Element) Contains(o Element) bool {
	if !e.Valid() || !o.Valid() {
		return false
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.n == o.n || isAncestor(e.n, o.n)
}

// FindAll returns descendants of e (and e itself) matching pred, in document order.
func (e Element) FindAll(pred func(Element) bool) []Element {
	if !e.Valid() {
		return nil
	}
	e.doc.mu.RLock()
	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			nodes = append(nodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.n)
	e.doc.mu.RUnlock()

	var out []Element
	for _, n := range nodes {
		el := e.doc.wrap(n)
		if pred(el) {
			out = append(out, el)
		}
	}
	return out
}

// AddListener registers a bubble-phase listener on this element.
func (e Element) AddListener(t EventType, l Listener) {
	if e.Valid() {
		e.doc.addNodeListener(e.n, t, l)
	}
}

// AppendChild creates a child element with the given tag and attributes.
func (e Element) AppendChild(tag string, attrs map[string]string) Element {
	if !e.Valid() {
		return Element{}
	}
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for k, v := range attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: v})
	}
	e.doc.mu.Lock()
	e.n.AppendChild(n)
	e.doc.mu.Unlock()
	return e.doc.wrap(n)
}

// SetInnerHTML replaces e's children with the parsed fragment.
func (e Element) SetInnerHTML(fragment string) error {
	if !e.Valid() {
		return fmt.Errorf("dom: set inner html on invalid element")
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	nodes, err := html.ParseFragment(strings.NewReader(fragment), e.n)
	if err != nil {
		return fmt.Errorf("dom: parse fragment: %w", err)
	}
	for c := e.n.FirstChild; c != nil; {
		next := c.NextSibling
		e.n.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		e.n.AppendChild(n)
	}
	return nil
}

// Remove detaches e from its parent. Removing a detached element is a no-op.
func (e Element) Remove() {
	if !e.Valid() {
		return
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.n.Parent != nil {
		e.n.Parent.RemoveChild(e.n)
	}
}

// Attached reports whether e is still part of its document tree.
func (e Element) Attached() bool {
	if !e.Valid() {
		return false
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return isAncestor(e.doc.root, e.n)
}

// HTML renders e and its subtree.
func (e Element) HTML() string {
	if !e.Valid() {
		return ""
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	var b strings.Builder
	_ = html.Render(&b, e.n)
	return b.String()
}

func isAncestor(anc, n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == anc {
			return true
		}
	}
	return false
}

func collectText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
