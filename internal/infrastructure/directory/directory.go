// Package directory answers find_suppliers requests from a YAML supplier
// directory.
package directory

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ecoswap/backend/internal/domain"
)

//go:embed suppliers.yaml
var builtin []byte

// Entry is one supplier of the directory file.
type Entry struct {
	Name         string   `yaml:"name"`
	Website      string   `yaml:"website"`
	Alternatives []string `yaml:"alternatives"`
	Keywords     []string `yaml:"keywords"`
}

type file struct {
	Suppliers []Entry `yaml:"suppliers"`
}

// Directory is an immutable supplier index. It implements
// domain.SupplierFinder.
type Directory struct {
	entries []indexed
}

type indexed struct {
	Entry
	alternatives map[string]bool
	keywords     []string
}

// Builtin returns the directory shipped with the binary.
func Builtin() *Directory {
	d, err := Parse(bytes.NewReader(builtin))
	if err != nil {
		panic(fmt.Sprintf("directory: builtin suppliers: %v", err))
	}
	return d
}

// Load reads a directory file. An empty path yields the builtin directory.
func Load(path string) (*Directory, error) {
	if path == "" {
		return Builtin(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open supplier directory: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a directory from r. Entries without a name are rejected.
func Parse(r io.Reader) (*Directory, error) {
	var doc file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode supplier directory: %w", err)
	}

	d := &Directory{entries: make([]indexed, 0, len(doc.Suppliers))}
	for i, e := range doc.Suppliers {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return nil, fmt.Errorf("supplier directory: entry %d has no name", i)
		}
		e.Website = strings.TrimSpace(e.Website)

		ix := indexed{Entry: e, alternatives: make(map[string]bool, len(e.Alternatives))}
		for _, a := range e.Alternatives {
			if a = domain.FoldText(a); a != "" {
				ix.alternatives[a] = true
			}
		}
		for _, k := range e.Keywords {
			if k = domain.FoldText(k); k != "" {
				ix.keywords = append(ix.keywords, k)
			}
		}
		d.entries = append(d.entries, ix)
	}
	return d, nil
}

// Len returns the number of suppliers.
func (d *Directory) Len() int {
	return len(d.entries)
}

// FindSuppliers implements domain.SupplierFinder. Suppliers listing the
// alternative explicitly come first, then those ranked by keyword hits.
// Alternatives with no match are absent from the result.
func (d *Directory) FindSuppliers(ctx context.Context, alternatives []string) (map[string][]domain.Supplier, error) {
	if len(alternatives) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	out := make(map[string][]domain.Supplier, len(alternatives))
	for _, name := range alternatives {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if matches := d.match(name); len(matches) > 0 {
			out[name] = matches
		}
	}
	return out, nil
}

func (d *Directory) match(name string) []domain.Supplier {
	folded := domain.FoldText(name)
	if folded == "" {
		return nil
	}
	padded := " " + folded + " "

	type scored struct {
		entry *indexed
		score int
	}
	var hits []scored
	for i := range d.entries {
		e := &d.entries[i]
		score := 0
		if e.alternatives[folded] {
			score += 100
		}
		for _, k := range e.keywords {
			if strings.Contains(padded, " "+k+" ") {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{entry: e, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	suppliers := make([]domain.Supplier, 0, len(hits))
	for _, h := range hits {
		suppliers = append(suppliers, domain.Supplier{Name: h.entry.Name, Website: h.entry.Website})
	}
	return suppliers
}
