package domain

import "strings"

// ProductRecord is the structured item pulled out of the host page around an
// intercepted control. Classification only ever reads FullText.
type ProductRecord struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Material    string `json:"material"`
	FullText    string `json:"fullText"`
}

// NewProductRecord builds a record and derives FullText from the other fields.
func NewProductRecord(code, description, material string) ProductRecord {
	code = strings.TrimSpace(code)
	description = strings.TrimSpace(description)
	material = strings.TrimSpace(material)

	parts := make([]string, 0, 3)
	for _, p := range []string{code, description, material} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	return ProductRecord{
		Code:        code,
		Description: description,
		Material:    material,
		FullText:    strings.ToLower(strings.Join(parts, " ")),
	}
}

// Empty reports whether extraction failed to find a usable description.
func (p ProductRecord) Empty() bool {
	return p.Description == ""
}
