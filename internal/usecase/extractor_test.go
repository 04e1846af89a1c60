package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoswap/backend/internal/dom"
)

func extractByID(t *testing.T, page, id string) (code, description, material, fullText string) {
	t.Helper()
	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	control, ok := doc.ElementByID(id)
	require.True(t, ok)
	rec := NewItemExtractor().Extract(control)
	return rec.Code, rec.Description, rec.Material, rec.FullText
}

func TestExtract_TableRow(t *testing.T) {
	code, desc, material, full := extractByID(t, catalogPage, "add1")

	assert.Equal(t, "001", code)
	assert.Equal(t, "Copo plástico descartável 200ml", desc)
	assert.Equal(t, "poliestireno", material)
	assert.Equal(t, "001 copo plástico descartável 200ml poliestireno", full)
}

func TestExtract_EmptyDescriptionDoesNotBorrowNeighbours(t *testing.T) {
	_, desc, _, _ := extractByID(t, catalogPage, "add3")
	assert.Empty(t, desc)
}

func TestExtract_MaterialFallbackToLongCell(t *testing.T) {
	page := `<table><tr>
<td>A1</td><td>Sacola</td><td>curto</td><td>polietileno de baixa densidade</td><td><button id="b">Adicionar</button></td>
</tr></table>`
	code, desc, material, _ := extractByID(t, page, "b")

	assert.Equal(t, "A1", code)
	assert.Equal(t, "Sacola", desc)
	assert.Equal(t, "polietileno de baixa densidade", material)
}

func TestExtract_LabeledMaterialWins(t *testing.T) {
	page := `<table><tr>
<td>A1</td><td>Sacola</td><td>uma observação qualquer bem longa aqui</td><td>Materiais: algodão cru</td><td><button id="b">Adicionar</button></td>
</tr></table>`
	_, _, material, _ := extractByID(t, page, "b")
	assert.Equal(t, "algodão cru", material)
}

func TestExtract_ListItemWithClassCells(t *testing.T) {
	page := `<ul><li class="produto">
<span class="campo-codigo">X-9</span>
<span class="campo-descricao">Prato descartável de isopor</span>
<a id="b" href="#">Selecionar</a>
</li></ul>`
	code, desc, _, _ := extractByID(t, page, "b")

	assert.Equal(t, "X-9", code)
	assert.Equal(t, "Prato descartável de isopor", desc)
}

func TestExtract_GenericCardContainer(t *testing.T) {
	page := `<div class="grid"><div class="product-card">
<div>C-12</div><div>Garrafa plástica 500ml</div><div><button id="b">Comprar</button></div>
</div></div>`
	code, desc, _, _ := extractByID(t, page, "b")

	assert.Equal(t, "C-12", code)
	assert.Equal(t, "Garrafa plástica 500ml", desc)
}

func TestExtract_SiblingTextFallback(t *testing.T) {
	page := `<body><section><p>Oferta</p><p>Canudos plásticos coloridos 100 unidades</p><div><button id="b">Adicionar</button></div></section></body>`
	code, desc, _, _ := extractByID(t, page, "b")

	assert.Empty(t, code)
	assert.Equal(t, "Canudos plásticos coloridos 100 unidades", desc)
}

func TestExtract_ListItemTextNodeFallback(t *testing.T) {
	page := `<ul><li>Guardanapo de papel branco <button id="b">Adicionar</button></li><li>Outro produto muito longo aqui</li></ul>`
	_, desc, _, _ := extractByID(t, page, "b")
	assert.Equal(t, "Guardanapo de papel branco", desc)
}

func TestExtract_NothingUsable(t *testing.T) {
	tests := map[string]string{
		"lonely button": `<body><button id="b">Adicionar</button></body>`,
		"short texts":   `<body><div><span>R$ 5</span><button id="b">Adicionar</button></div></body>`,
		"label only":    `<body><div><p>Adicionar item</p><button id="b">Adicionar item</button></div></body>`,
	}
	for name, page := range tests {
		t.Run(name, func(t *testing.T) {
			_, desc, _, full := extractByID(t, page, "b")
			assert.Empty(t, desc)
			assert.Empty(t, full)
		})
	}
}

func TestExtract_InvalidControl(t *testing.T) {
	rec := NewItemExtractor().Extract(dom.Element{})
	assert.True(t, rec.Empty())
}
