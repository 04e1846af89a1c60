// Package dom models the host catalog page the pipeline runs against: an
// HTML tree parsed with x/net/html plus just enough of the browser event
// model (capture listeners, bubbling, default actions, synthetic clicks) to
// intercept and replay commit actions.
package dom

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed host page. It is safe for concurrent use; listeners
// are always called without internal locks held.
type Document struct {
	mu   sync.RWMutex
	root *html.Node

	lmu      sync.RWMutex
	capture  []Listener
	bubble   map[EventType][]Listener
	perNode  map[*html.Node]map[EventType][]Listener
	onSubmit func(form Element, values url.Values)
}

// Parse reads an HTML page.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return &Document{
		root:    root,
		bubble:  make(map[EventType][]Listener),
		perNode: make(map[*html.Node]map[EventType][]Listener),
	}, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func (d *Document) wrap(n *html.Node) Element {
	return Element{doc: d, n: n}
}

// Body returns the <body> element.
func (d *Document) Body() Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if n := findFirst(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Body }); n != nil {
		return d.wrap(n)
	}
	return d.wrap(d.root)
}

// AddCaptureListener registers a document-level capture-phase listener.
func (d *Document) AddCaptureListener(l Listener) {
	d.lmu.Lock()
	d.capture = append(d.capture, l)
	d.lmu.Unlock()
}

// AddListener registers a document-level bubble-phase listener.
func (d *Document) AddListener(t EventType, l Listener) {
	d.lmu.Lock()
	d.bubble[t] = append(d.bubble[t], l)
	d.lmu.Unlock()
}

// OnSubmit sets the handler invoked when a form is submitted as a default action.
func (d *Document) OnSubmit(fn func(form Element, values url.Values)) {
	d.lmu.Lock()
	d.onSubmit = fn
	d.lmu.Unlock()
}

func (d *Document) addNodeListener(n *html.Node, t EventType, l Listener) {
	d.lmu.Lock()
	defer d.lmu.Unlock()
	m := d.perNode[n]
	if m == nil {
		m = make(map[EventType][]Listener)
		d.perNode[n] = m
	}
	m[t] = append(m[t], l)
}

// Dispatch runs ev through the capture, target/bubble and default-action
// steps. It reports whether the default action was allowed to run.
func (d *Document) Dispatch(ev *Event) bool {
	d.lmu.RLock()
	capture := append([]Listener(nil), d.capture...)
	d.lmu.RUnlock()

	for _, l := range capture {
		l(ev)
		if ev.immediateStopped {
			break
		}
	}

	if !ev.propagationStopped {
		for _, el := range ev.Target.PathToRoot() {
			d.lmu.RLock()
			ls := append([]Listener(nil), d.perNode[el.n][ev.Type]...)
			d.lmu.RUnlock()
			if d.runStep(ev, ls) {
				break
			}
		}
	}

	if !ev.propagationStopped {
		d.lmu.RLock()
		ls := append([]Listener(nil), d.bubble[ev.Type]...)
		d.lmu.RUnlock()
		d.runStep(ev, ls)
	}

	if ev.defaultPrevented {
		return false
	}
	d.defaultAction(ev)
	return true
}

// runStep calls listeners and reports whether propagation was stopped.
func (d *Document) runStep(ev *Event, ls []Listener) bool {
	for _, l := range ls {
		l(ev)
		if ev.immediateStopped {
			break
		}
	}
	return ev.propagationStopped
}

// Click dispatches a synthetic click on el.
func (d *Document) Click(el Element) bool {
	ev := NewEvent(EventClick, el)
	ev.Synthetic = true
	return d.Dispatch(ev)
}

func (d *Document) defaultAction(ev *Event) {
	switch ev.Type {
	case EventClick:
		if isSubmitControl(ev.Target) {
			if form, ok := ev.Target.Closest(isForm); ok {
				d.submit(form)
			}
		}
	case EventKeyDown:
		if ev.Key == "Enter" && ev.Target.Tag() == "input" {
			if form, ok := ev.Target.Closest(isForm); ok {
				d.submit(form)
			}
		}
	}
}

func (d *Document) submit(form Element) {
	d.lmu.RLock()
	fn := d.onSubmit
	d.lmu.RUnlock()
	if fn == nil {
		return
	}

	values := url.Values{}
	for _, in := range form.FindAll(func(e Element) bool { return e.Tag() == "input" }) {
		if name := in.Attr("name"); name != "" {
			values.Add(name, in.Attr("value"))
		}
	}
	fn(form, values)
}

// FindAll returns every element in document order matching pred.
func (d *Document) FindAll(pred func(Element) bool) []Element {
	return d.wrap(d.root).FindAll(pred)
}

// ElementByID returns the element with the given id attribute.
func (d *Document) ElementByID(id string) (Element, bool) {
	found := d.FindAll(func(e Element) bool { return e.Attr("id") == id })
	if len(found) == 0 {
		return Element{}, false
	}
	return found[0], true
}

// HTML renders the whole document.
func (d *Document) HTML() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var b strings.Builder
	_ = html.Render(&b, d.root)
	return b.String()
}

func isForm(e Element) bool { return e.Tag() == "form" }

func isSubmitControl(e Element) bool {
	switch e.Tag() {
	case "button":
		t := strings.ToLower(e.Attr("type"))
		return t == "" || t == "submit"
	case "input":
		return strings.ToLower(e.Attr("type")) == "submit"
	}
	return false
}

func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findFirst(c, pred); f != nil {
			return f
		}
	}
	return nil
}
