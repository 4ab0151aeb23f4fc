package wcag

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/wcag22.yaml
var defaultCatalog []byte

// document is the on-disk catalog shape.
type document struct {
	Metadata Metadata     `yaml:"metadata"`
	Criteria criteriaList `yaml:"criteria"`
}

// criteriaList accepts either a sequence of records or a mapping keyed by
// criterion number ({"1.1.1": {...}}), in which case the key fills Number.
type criteriaList []Criterion

func (l *criteriaList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.SequenceNode:
		var cs []Criterion
		if err := n.Decode(&cs); err != nil {
			return err
		}
		*l = cs
		return nil
	case yaml.MappingNode:
		cs := make([]Criterion, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			var c Criterion
			if err := n.Content[i+1].Decode(&c); err != nil {
				return fmt.Errorf("criterion %s: %w", n.Content[i].Value, err)
			}
			if c.Number == "" {
				c.Number = n.Content[i].Value
			}
			cs = append(cs, c)
		}
		*l = cs
		return nil
	}
	return fmt.Errorf("line %d: criteria must be a list or a mapping", n.Line)
}

// Load decodes a catalog document (YAML, or JSON as a YAML subset) and
// builds a Catalog from it.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("wcag: decode catalog: %w", err)
	}
	if len(doc.Criteria) == 0 {
		return nil, fmt.Errorf("wcag: catalog has no criteria")
	}
	return New(doc.Metadata, doc.Criteria)
}

// LoadFile reads a catalog document from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wcag: open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the embedded WCAG 2.2 catalog.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}
