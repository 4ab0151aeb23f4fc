// Package markup turns HTML into the flat, document-ordered element
// sequence the rule engine inspects.
package markup

import (
	"encoding/json"
	"html"
	"maps"
	"slices"
	"strings"
)

// Attributes is an immutable, case-insensitive attribute map. A missing
// key and a key with an empty value are distinct states.
type Attributes struct {
	m map[string]string
}

// NewAttributes copies kv, folding names to lower case. When two names
// fold to the same key, the lexically first original name wins.
func NewAttributes(kv map[string]string) Attributes {
	if len(kv) == 0 {
		return Attributes{}
	}
	names := slices.Sorted(maps.Keys(kv))
	m := make(map[string]string, len(kv))
	for _, k := range names {
		lk := strings.ToLower(strings.TrimSpace(k))
		if lk == "" {
			continue
		}
		if _, ok := m[lk]; !ok {
			m[lk] = kv[k]
		}
	}
	return Attributes{m: m}
}

// Get returns the value of name and whether it is present.
func (a Attributes) Get(name string) (string, bool) {
	v, ok := a.m[strings.ToLower(name)]
	return v, ok
}

// Has reports whether name is present, even with an empty value.
func (a Attributes) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Value returns the value of name, or "" when absent.
func (a Attributes) Value(name string) string {
	v, _ := a.Get(name)
	return v
}

// NonBlank reports whether name is present with a non-whitespace value.
func (a Attributes) NonBlank(name string) bool {
	v, ok := a.Get(name)
	return ok && strings.TrimSpace(v) != ""
}

func (a Attributes) Len() int { return len(a.m) }

// Names returns the attribute names, sorted.
func (a Attributes) Names() []string {
	return slices.Sorted(maps.Keys(a.m))
}

// Map returns a copy of the underlying map.
func (a Attributes) Map() map[string]string {
	return maps.Clone(a.m)
}

func (a Attributes) MarshalJSON() ([]byte, error) {
	if a.m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a.m)
}

func (a *Attributes) UnmarshalJSON(b []byte) error {
	var kv map[string]string
	if err := json.Unmarshal(b, &kv); err != nil {
		return err
	}
	*a = NewAttributes(kv)
	return nil
}

// Element is one markup node.
type Element struct {
	Tag   string     `json:"tag"`
	Attrs Attributes `json:"attributes"`
	Text  string     `json:"text,omitempty"`
}

// NewElement builds an Element with a lower-cased tag.
func NewElement(tag string, attrs map[string]string, text string) Element {
	return Element{
		Tag:   strings.ToLower(strings.TrimSpace(tag)),
		Attrs: NewAttributes(attrs),
		Text:  text,
	}
}

func (e *Element) UnmarshalJSON(b []byte) error {
	type raw Element
	var r raw
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	r.Tag = strings.ToLower(strings.TrimSpace(r.Tag))
	*e = Element(r)
	return nil
}

const snapshotText = 80

// Snapshot renders e as a short, stable tag string with attributes sorted
// by name, e.g. `<img alt="" src="x.png">`.
func (e Element) Snapshot() string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(e.Tag)
	for _, k := range e.Attrs.Names() {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(e.Attrs.m[k]))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	if t := strings.TrimSpace(e.Text); t != "" {
		if r := []rune(t); len(r) > snapshotText {
			t = string(r[:snapshotText]) + "..."
		}
		b.WriteString(html.EscapeString(t))
		b.WriteString("</")
		b.WriteString(e.Tag)
		b.WriteByte('>')
	}
	return b.String()
}
