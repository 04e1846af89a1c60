package usecase

import (
	"strings"

	"github.com/ecoswap/backend/internal/dom"
	"github.com/ecoswap/backend/internal/domain"
)

// DefaultActionVerbs is the commit vocabulary, folded. A control is a commit
// action when a word of its short label starts with one of these verbs.
var DefaultActionVerbs = []string{
	"selecionar", "adicionar", "incluir", "confirmar", "comprar", "escolher", "inserir",
	"select", "add", "confirm", "buy", "choose", "include",
}

// maxLabelWords keeps long paragraphs that happen to contain a verb from
// being mistaken for a button.
const maxLabelWords = 6

// ActionVocabulary decides whether a control label denotes a commit action.
type ActionVocabulary struct {
	verbs []string
}

// NewActionVocabulary builds a vocabulary; nil verbs means DefaultActionVerbs.
func NewActionVocabulary(verbs []string) *ActionVocabulary {
	if len(verbs) == 0 {
		verbs = DefaultActionVerbs
	}
	folded := make([]string, 0, len(verbs))
	for _, v := range verbs {
		if f := domain.FoldText(v); f != "" {
			folded = append(folded, f)
		}
	}
	return &ActionVocabulary{verbs: folded}
}

// Matches reports whether label is a commit action label.
func (v *ActionVocabulary) Matches(label string) bool {
	folded := domain.FoldText(label)
	if folded == "" || len(strings.Fields(folded)) > maxLabelWords {
		return false
	}
	padded := paddedText(folded)
	for _, verb := range v.verbs {
		if hasTermPrefix(padded, verb) {
			return true
		}
	}
	return false
}

// IsActionable reports whether el looks like a button or link.
func IsActionable(el dom.Element) bool {
	switch el.Tag() {
	case "button", "a":
		return true
	case "input":
		switch strings.ToLower(el.Attr("type")) {
		case "button", "submit", "image":
			return true
		}
		return false
	}
	switch strings.ToLower(el.Attr("role")) {
	case "button", "link", "menuitem":
		return true
	}
	return el.HasAttr("onclick")
}

// FindActionableControl returns target or its nearest actionable ancestor.
func FindActionableControl(target dom.Element) (dom.Element, bool) {
	if !target.Valid() {
		return dom.Element{}, false
	}
	return target.Closest(IsActionable)
}

// ControlLabel returns the visible label of a control.
func ControlLabel(control dom.Element) string {
	if t := control.Text(); t != "" {
		return t
	}
	for _, attr := range []string{"value", "aria-label", "title", "alt"} {
		if v := strings.TrimSpace(control.Attr(attr)); v != "" {
			return v
		}
	}
	return ""
}
