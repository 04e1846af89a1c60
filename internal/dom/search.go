package dom

import (
	"strings"

	"github.com/ecoswap/backend/internal/domain"
)

var searchHints = []string{"search", "busca", "pesquis", "procur", "query"}

// SearchInput locates the host page's search field: an input of type
// search first, then a text input whose name, id, placeholder or label
// hints at searching.
func (d *Document) SearchInput() (Element, bool) {
	inputs := d.FindAll(func(e Element) bool { return e.Tag() == "input" })

	for _, in := range inputs {
		if strings.EqualFold(in.Attr("type"), "search") {
			return in, true
		}
	}
	for _, in := range inputs {
		t := strings.ToLower(in.Attr("type"))
		if t != "" && t != "text" {
			continue
		}
		if in.Attr("name") == "q" {
			return in, true
		}
		hay := strings.ToLower(strings.Join([]string{
			in.Attr("name"), in.Attr("id"), in.Attr("placeholder"), in.Attr("aria-label"),
		}, " "))
		for _, h := range searchHints {
			if strings.Contains(hay, h) {
				return in, true
			}
		}
	}
	return Element{}, false
}

// Search writes term into the search field and simulates pressing Enter.
// The Enter key submits the enclosing form as its default action.
func (d *Document) Search(term string) error {
	in, ok := d.SearchInput()
	if !ok {
		return domain.ErrNoSearchInput
	}
	in.SetAttr("value", term)

	ev := NewEvent(EventKeyDown, in)
	ev.Key = "Enter"
	ev.Synthetic = true
	d.Dispatch(ev)
	return nil
}

// Mount returns the singleton container with the given id under <body>,
// creating it if needed, and fills it with fragment.
func (d *Document) Mount(id, fragment string) (Element, error) {
	el, ok := d.ElementByID(id)
	if !ok {
		el = d.Body().AppendChild("div", map[string]string{"id": id})
	}
	if err := el.SetInnerHTML(fragment); err != nil {
		return Element{}, err
	}
	return el, nil
}

// Unmount removes the container with the given id, if present.
func (d *Document) Unmount(id string) {
	if el, ok := d.ElementByID(id); ok {
		el.Remove()
	}
}
