// Package wcag holds the WCAG success-criteria catalog: an immutable,
// indexed registry built once from external data and read concurrently for
// the lifetime of the process.
//
// Usage:
//
//	cat, err := wcag.Default()
//	c, err := cat.Lookup("1.4.3")
//	aa, err := cat.List("AA", "all")
package wcag

import (
	"fmt"
	"slices"
	"strings"
)

// Criterion is one numbered WCAG success criterion.
type Criterion struct {
	Number      string    `json:"number" yaml:"number"`
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Level       Level     `json:"level" yaml:"level"`
	Version     string    `json:"version" yaml:"version"`
	Description string    `json:"description" yaml:"description"`
	Principle   Principle `json:"principle" yaml:"principle"`
	Guideline   string    `json:"guideline" yaml:"guideline"`
	Exceptions  []string  `json:"exceptions" yaml:"exceptions,omitempty"`
}

func (c Criterion) clone() Criterion {
	c.Exceptions = slices.Clone(c.Exceptions)
	if c.Exceptions == nil {
		c.Exceptions = []string{}
	}
	return c
}

// Metadata describes the catalog source.
type Metadata struct {
	Title         string   `json:"title" yaml:"title"`
	Source        string   `json:"source" yaml:"source"`
	Versions      []string `json:"versions" yaml:"versions"`
	TotalCriteria int      `json:"total_criteria" yaml:"-"`
}

// Catalog is the read-only criteria registry. It is never mutated after New
// returns, so concurrent readers need no locking.
type Catalog struct {
	meta        Metadata
	ordered     []Criterion
	byNumber    map[string]int
	byLevel     map[Level][]int
	byPrinciple map[Principle][]int
}

// New builds a Catalog from records. Numbers must be well-formed and unique;
// level and principle must be set.
func New(meta Metadata, records []Criterion) (*Catalog, error) {
	ordered := make([]Criterion, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		if _, err := parseNumber(r.Number); err != nil {
			return nil, fmt.Errorf("wcag: record %d: %w", i, err)
		}
		if seen[r.Number] {
			return nil, fmt.Errorf("wcag: duplicate criterion %s", r.Number)
		}
		if !r.Level.Valid() {
			return nil, fmt.Errorf("wcag: criterion %s: missing level", r.Number)
		}
		if !r.Principle.Valid() {
			return nil, fmt.Errorf("wcag: criterion %s: missing principle", r.Number)
		}
		seen[r.Number] = true
		ordered = append(ordered, r.clone())
	}
	SortCriteria(ordered)

	c := &Catalog{
		meta:        meta,
		ordered:     ordered,
		byNumber:    make(map[string]int, len(ordered)),
		byLevel:     make(map[Level][]int, 3),
		byPrinciple: make(map[Principle][]int, 4),
	}
	c.meta.Versions = slices.Clone(meta.Versions)
	c.meta.TotalCriteria = len(ordered)
	for i, cr := range ordered {
		c.byNumber[cr.Number] = i
		c.byLevel[cr.Level] = append(c.byLevel[cr.Level], i)
		c.byPrinciple[cr.Principle] = append(c.byPrinciple[cr.Principle], i)
	}
	return c, nil
}

func (c *Catalog) pick(idx []int) []Criterion {
	out := make([]Criterion, len(idx))
	for i, j := range idx {
		out[i] = c.ordered[j].clone()
	}
	return out
}

// Len returns the number of criteria.
func (c *Catalog) Len() int { return len(c.ordered) }

// Metadata returns the catalog metadata.
func (c *Catalog) Metadata() Metadata {
	m := c.meta
	m.Versions = slices.Clone(m.Versions)
	return m
}

// Has reports whether number exists in the catalog.
func (c *Catalog) Has(number string) bool {
	_, ok := c.byNumber[number]
	return ok
}

// Lookup returns the criterion with the given number.
func (c *Catalog) Lookup(number string) (Criterion, error) {
	i, ok := c.byNumber[strings.TrimSpace(number)]
	if !ok {
		return Criterion{}, &NotFoundError{Number: number}
	}
	return c.ordered[i].clone(), nil
}

// All returns every criterion in ascending number order.
func (c *Catalog) All() []Criterion {
	out := make([]Criterion, len(c.ordered))
	for i, cr := range c.ordered {
		out[i] = cr.clone()
	}
	return out
}

// ByLevel returns the criteria at exactly level l.
func (c *Catalog) ByLevel(l Level) []Criterion {
	return c.pick(c.byLevel[l])
}

// ByPrinciple returns the criteria under principle p.
func (c *Catalog) ByPrinciple(p Principle) []Criterion {
	return c.pick(c.byPrinciple[p])
}

// Required returns the cumulative set of criteria a target level must meet:
// A for A, A+AA for AA, everything for AAA.
func (c *Catalog) Required(target Level) []Criterion {
	var out []Criterion
	for _, cr := range c.ordered {
		if target.Includes(cr.Level) {
			out = append(out, cr.clone())
		}
	}
	return out
}

// List filters by level and principle. Either argument may be "all" (or
// empty) to disable that filter.
func (c *Catalog) List(level, principle string) ([]Criterion, error) {
	var (
		lvl  Level
		prin Principle
		err  error
	)
	if !isAll(level) {
		if lvl, err = ParseLevel(level); err != nil {
			return nil, err
		}
	}
	if !isAll(principle) {
		if prin, err = ParsePrinciple(principle); err != nil {
			return nil, err
		}
	}

	out := []Criterion{}
	for _, cr := range c.ordered {
		if lvl != 0 && cr.Level != lvl {
			continue
		}
		if prin != 0 && cr.Principle != prin {
			continue
		}
		out = append(out, cr.clone())
	}
	return out, nil
}

func isAll(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "all")
}

// Search returns every criterion whose title, description or guideline
// contains term, case-insensitively. Results are unranked, in number order.
func (c *Catalog) Search(term string) []Criterion {
	needle := strings.ToLower(strings.TrimSpace(term))
	out := []Criterion{}
	for _, cr := range c.ordered {
		if strings.Contains(strings.ToLower(cr.Title), needle) ||
			strings.Contains(strings.ToLower(cr.Description), needle) ||
			strings.Contains(strings.ToLower(cr.Guideline), needle) {
			out = append(out, cr.clone())
		}
	}
	return out
}

// GuidelinesFor returns the distinct guideline names under p, sorted.
func (c *Catalog) GuidelinesFor(p Principle) []string {
	seen := map[string]bool{}
	var out []string
	for _, i := range c.byPrinciple[p] {
		g := c.ordered[i].Guideline
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	slices.Sort(out)
	return out
}
