package dom

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoswap/backend/internal/domain"
)

const page = `<!doctype html>
<html><body>
<form id="search" action="/buscar">
  <input type="text" name="q" value="">
</form>
<table>
  <tr id="row1"><td>001</td><td>Copo plástico 200ml</td><td><button id="add1" type="button">Adicionar</button></td></tr>
</table>
<form id="checkout"><input name="sku" value="001"><button id="buy">Comprar</button></form>
<script>var ignored = "script text";</script>
</body></html>`

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := ParseString(s)
	require.NoError(t, err)
	return doc
}

func mustByID(t *testing.T, doc *Document, id string) Element {
	t.Helper()
	el, ok := doc.ElementByID(id)
	require.True(t, ok, "element #%s", id)
	return el
}

func TestDispatch_Order(t *testing.T) {
	doc := mustParse(t, page)
	btn := mustByID(t, doc, "add1")
	row := mustByID(t, doc, "row1")

	var order []string
	doc.AddListener(EventClick, func(ev *Event) { order = append(order, "document") })
	row.AddListener(EventClick, func(ev *Event) { order = append(order, "row") })
	btn.AddListener(EventClick, func(ev *Event) { order = append(order, "target") })
	doc.AddCaptureListener(func(ev *Event) { order = append(order, "capture") })

	allowed := doc.Click(btn)

	assert.True(t, allowed)
	assert.Equal(t, []string{"capture", "target", "row", "document"}, order)
}

func TestDispatch_CancelInCapture(t *testing.T) {
	doc := mustParse(t, page)
	btn := mustByID(t, doc, "buy")

	var submitted, bubbled, secondCapture bool
	doc.OnSubmit(func(Element, url.Values) { submitted = true })
	btn.AddListener(EventClick, func(*Event) { bubbled = true })
	doc.AddCaptureListener(func(ev *Event) { ev.Cancel() })
	doc.AddCaptureListener(func(*Event) { secondCapture = true })

	allowed := doc.Click(btn)

	assert.False(t, allowed)
	assert.False(t, submitted, "default action must not run")
	assert.False(t, bubbled, "host listeners must not run")
	assert.False(t, secondCapture, "later capture listeners must not run")
}

func TestDispatch_StopPropagationKeepsDefault(t *testing.T) {
	doc := mustParse(t, page)
	btn := mustByID(t, doc, "buy")

	var submitted url.Values
	var docBubble bool
	doc.OnSubmit(func(_ Element, v url.Values) { submitted = v })
	doc.AddListener(EventClick, func(*Event) { docBubble = true })
	btn.AddListener(EventClick, func(ev *Event) { ev.StopPropagation() })

	assert.True(t, doc.Click(btn))
	assert.False(t, docBubble)
	require.NotNil(t, submitted)
	assert.Equal(t, "001", submitted.Get("sku"))
}

func TestClick_SyntheticFlag(t *testing.T) {
	doc := mustParse(t, page)
	var synthetic bool
	doc.AddCaptureListener(func(ev *Event) { synthetic = ev.Synthetic })

	doc.Click(mustByID(t, doc, "add1"))
	assert.True(t, synthetic)
}

func TestClick_NonSubmitButtonDoesNotSubmit(t *testing.T) {
	doc := mustParse(t, `<form><button id="b" type="button">x</button></form>`)
	var submitted bool
	doc.OnSubmit(func(Element, url.Values) { submitted = true })

	doc.Click(mustByID(t, doc, "b"))
	assert.False(t, submitted)
}

func TestSearch(t *testing.T) {
	doc := mustParse(t, page)

	var form Element
	var values url.Values
	doc.OnSubmit(func(f Element, v url.Values) { form, values = f, v })

	require.NoError(t, doc.Search("copo biodegradavel"))

	assert.Equal(t, "search", form.Attr("id"))
	assert.Equal(t, "copo biodegradavel", values.Get("q"))
	in, ok := doc.SearchInput()
	require.True(t, ok)
	assert.Equal(t, "copo biodegradavel", in.Attr("value"))
}

func TestSearchInput_Heuristics(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"type search wins", `<input id="a" type="text" name="q"><input id="b" type="search">`, "b"},
		{"name q", `<input id="a" type="text" name="email"><input id="b" name="q">`, "b"},
		{"placeholder hint", `<input id="a" type="text" placeholder="Pesquisar produtos">`, "a"},
		{"id hint", `<input id="busca-topo" type="text">`, "busca-topo"},
		{"checkbox ignored", `<input id="a" type="checkbox" name="search">`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, "<body>"+tt.html+"</body>")
			in, ok := doc.SearchInput()
			if tt.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, in.Attr("id"))
		})
	}
}

func TestSearch_NoInput(t *testing.T) {
	doc := mustParse(t, `<body><p>nothing here</p></body>`)
	err := doc.Search("x")
	assert.True(t, errors.Is(err, domain.ErrNoSearchInput))
}

func TestMountUnmount(t *testing.T) {
	doc := mustParse(t, page)

	el, err := doc.Mount("overlay", `<div class="a">one</div>`)
	require.NoError(t, err)
	assert.True(t, el.Attached())

	again, err := doc.Mount("overlay", `<div class="b">two</div>`)
	require.NoError(t, err)
	assert.True(t, el.Equal(again), "mount must reuse the singleton container")
	assert.Len(t, doc.FindAll(func(e Element) bool { return e.Attr("id") == "overlay" }), 1)
	assert.Equal(t, "two", again.Text())

	doc.Unmount("overlay")
	_, ok := doc.ElementByID("overlay")
	assert.False(t, ok)
	assert.False(t, el.Attached())

	assert.NotPanics(t, func() { doc.Unmount("overlay") })
}

func TestElement_Text(t *testing.T) {
	doc := mustParse(t, page)
	body := doc.Body()

	text := body.Text()
	assert.Contains(t, text, "Copo plástico 200ml")
	assert.NotContains(t, text, "script text")
	assert.False(t, strings.Contains(text, "  "), "whitespace must be collapsed")
}

func TestElement_Navigation(t *testing.T) {
	doc := mustParse(t, page)
	btn := mustByID(t, doc, "add1")
	row := mustByID(t, doc, "row1")

	got, ok := btn.Closest(func(e Element) bool { return e.Tag() == "tr" })
	require.True(t, ok)
	assert.True(t, got.Equal(row))
	assert.True(t, row.Contains(btn))
	assert.False(t, btn.Contains(row))

	cells := row.Children()
	require.Len(t, cells, 3)
	assert.Equal(t, "001", cells[0].Text())

	texts := row.ChildTexts(cells[2])
	assert.Equal(t, []string{"001", "Copo plástico 200ml"}, texts)

	path := btn.PathToRoot()
	assert.Equal(t, "button", path[0].Tag())
	assert.Equal(t, "html", path[len(path)-1].Tag())
}

func TestElement_Attributes(t *testing.T) {
	doc := mustParse(t, page)
	btn := mustByID(t, doc, "add1")

	assert.True(t, btn.HasAttr("type"))
	assert.False(t, btn.HasAttr("disabled"))
	btn.SetAttr("data-x", "1")
	btn.SetAttr("data-x", "2")
	assert.Equal(t, "2", btn.Attr("data-x"))
	assert.Contains(t, btn.HTML(), `data-x="2"`)

	var zero Element
	assert.False(t, zero.Valid())
	assert.Equal(t, "", zero.Tag())
	assert.Nil(t, zero.Children())
}

func TestElement_AppendAndRemove(t *testing.T) {
	doc := mustParse(t, page)
	child := doc.Body().AppendChild("span", map[string]string{"id": "new"})

	got, ok := doc.ElementByID("new")
	require.True(t, ok)
	assert.True(t, got.Equal(child))

	child.Remove()
	assert.False(t, child.Attached())
	assert.NotPanics(t, child.Remove)
	assert.NotContains(t, doc.HTML(), `id="new"`)
}
