package usecase

import (
	"regexp"
	"strings"

	"github.com/ecoswap/backend/internal/dom"
	"github.com/ecoswap/backend/internal/domain"
)

const (
	// minDescriptionLen is the shortest sibling text accepted as a description.
	minDescriptionLen = 10
	// minMaterialLen is the shortest unlabeled cell text taken as material.
	minMaterialLen = 20
	// maxFallbackDepth bounds how far up the sibling scan climbs.
	maxFallbackDepth = 3
)

var materialLabelRegex = regexp.MustCompile(`(?i)^\s*materia(l|is)\s*:\s*`)

var rowClassHints = []string{"row", "item", "product", "produto", "linha", "card"}

var cellClassHints = []string{"cell", "col", "celula", "field", "campo"}

// ItemExtractor builds ProductRecords from the neighborhood of a control.
type ItemExtractor struct{}

// NewItemExtractor returns an extractor.
func NewItemExtractor() *ItemExtractor {
	return &ItemExtractor{}
}

// Extract never fails; an empty Description means nothing usable was found.
func (x *ItemExtractor) Extract(control dom.Element) domain.ProductRecord {
	if !control.Valid() {
		return domain.ProductRecord{}
	}

	row, ok := findRow(control)
	if ok {
		if rec, ok := fromCells(row, control); ok {
			return rec
		}
	}
	return fromSiblings(control, row)
}

// findRow returns the nearest table row, list item or row-like container
// above the control.
func findRow(control dom.Element) (dom.Element, bool) {
	parent, ok := control.Parent()
	if !ok {
		return dom.Element{}, false
	}
	return parent.Closest(func(e dom.Element) bool {
		switch e.Tag() {
		case "tr", "li":
			return true
		case "body", "html", "table", "tbody", "ul", "ol":
			return false
		}
		return hasClassHint(e, rowClassHints)
	})
}

// cellsOf returns the cell-like children of row.
func cellsOf(row dom.Element) []dom.Element {
	children := row.Children()
	var cells []dom.Element
	for _, c := range children {
		switch c.Tag() {
		case "td", "th":
			cells = append(cells, c)
			continue
		}
		if hasClassHint(c, cellClassHints) {
			cells = append(cells, c)
		}
	}
	if len(cells) >= 2 {
		return cells
	}
	// Generic containers: every non-empty element child counts as a cell.
	cells = cells[:0]
	for _, c := range children {
		if c.Text() != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

func fromCells(row, control dom.Element) (domain.ProductRecord, bool) {
	var cells []dom.Element
	for _, c := range cellsOf(row) {
		if c.Contains(control) {
			continue
		}
		cells = append(cells, c)
	}
	if len(cells) < 2 {
		return domain.ProductRecord{}, false
	}

	code := cells[0].Text()
	description := cells[1].Text()
	if description == "" {
		return domain.ProductRecord{}, false
	}

	var material, fallback string
	for _, c := range cells[2:] {
		text := c.Text()
		if loc := materialLabelRegex.FindStringIndex(text); loc != nil {
			material = strings.TrimSpace(text[loc[1]:])
			break
		}
		if fallback == "" && len(text) >= minMaterialLen {
			fallback = text
		}
	}
	if material == "" {
		material = fallback
	}

	return domain.NewProductRecord(code, description, material), true
}

// fromSiblings keeps the longest text run near the control. The scan never
// climbs past limit, so a row without a description cannot borrow text from
// its neighbours.
func fromSiblings(control, limit dom.Element) domain.ProductRecord {
	label := ControlLabel(control)
	best := ""

	skip := control
	cur, ok := control.Parent()
	for depth := 0; ok && depth < maxFallbackDepth; depth++ {
		if cur.Tag() == "body" {
			break
		}
		for _, t := range cur.ChildTexts(skip) {
			if t == label {
				continue
			}
			if len(t) >= minDescriptionLen && len(t) > len(best) {
				best = t
			}
		}
		if best != "" || cur.Equal(limit) {
			break
		}
		skip = cur
		cur, ok = cur.Parent()
	}

	if best == "" {
		return domain.ProductRecord{}
	}
	return domain.NewProductRecord("", best, "")
}

func hasClassHint(e dom.Element, hints []string) bool {
	class := strings.ToLower(e.Attr("class"))
	if class == "" {
		return false
	}
	for _, h := range hints {
		if strings.Contains(class, h) {
			return true
		}
	}
	return false
}
