package wcag

import (
	"slices"
	"strings"
)

// techniques maps coarse technique names to curated criterion numbers.
var techniques = map[string][]string{
	"images":     {"1.1.1", "1.4.5", "1.4.9"},
	"forms":      {"1.3.1", "3.3.1", "3.3.2", "3.3.3", "3.3.4", "4.1.2"},
	"color":      {"1.4.1", "1.4.3", "1.4.6", "1.4.11"},
	"keyboard":   {"2.1.1", "2.1.2", "2.1.4", "2.4.3", "2.4.7"},
	"headings":   {"1.3.1", "2.4.6", "2.4.10"},
	"links":      {"2.4.4", "2.4.9", "4.1.2"},
	"language":   {"3.1.1", "3.1.2"},
	"media":      {"1.2.1", "1.2.2", "1.2.3", "1.2.4", "1.2.5", "1.2.6", "1.2.7", "1.2.8", "1.2.9"},
	"timing":     {"2.2.1", "2.2.2", "2.2.3", "2.2.4", "2.2.5", "2.2.6"},
	"seizures":   {"2.3.1", "2.3.2", "2.3.3"},
	"navigation": {"2.4.1", "2.4.2", "2.4.5", "2.4.8", "3.2.3", "3.2.4"},
	"input":      {"1.3.5", "2.5.1", "2.5.2", "2.5.3", "2.5.4", "2.5.6", "3.3.7", "3.3.8"},
	"focus":      {"2.4.7", "2.4.11", "2.4.12", "2.4.13"},
}

// Techniques returns the known technique names, sorted.
func Techniques() []string {
	out := make([]string, 0, len(techniques))
	for k := range techniques {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// TechniqueNumbers returns the curated criterion numbers for a technique.
func TechniqueNumbers(name string) ([]string, bool) {
	ns, ok := techniques[strings.ToLower(strings.TrimSpace(name))]
	return slices.Clone(ns), ok
}

// ForTechnique returns the catalog criteria curated for a technique, in
// mapping order. Numbers the catalog does not carry are skipped.
func (c *Catalog) ForTechnique(name string) ([]Criterion, error) {
	ns, ok := TechniqueNumbers(name)
	if !ok {
		return nil, &ValidationError{Field: "technique", Value: name, Allowed: Techniques()}
	}
	out := []Criterion{}
	for _, n := range ns {
		if i, ok := c.byNumber[n]; ok {
			out = append(out, c.ordered[i].clone())
		}
	}
	return out, nil
}

// SortByLevel orders cs by level (A first), then by number.
func SortByLevel(cs []Criterion) {
	slices.SortStableFunc(cs, func(x, y Criterion) int {
		if x.Level != y.Level {
			return int(x.Level) - int(y.Level)
		}
		return CompareNumbers(x.Number, y.Number)
	})
}
