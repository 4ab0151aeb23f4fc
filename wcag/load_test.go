package wcag

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if cat.Len() != 86 {
		t.Fatalf("Len = %d, want 86", cat.Len())
	}
	if n := len(cat.ByLevel(LevelA)); n != 31 {
		t.Fatalf("level A = %d", n)
	}
	if n := len(cat.Required(LevelAA)); n != 55 {
		t.Fatalf("required AA = %d", n)
	}
	if cat.Metadata().TotalCriteria != 86 {
		t.Fatalf("metadata total = %d", cat.Metadata().TotalCriteria)
	}

	c, err := cat.Lookup("1.4.3")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if c.Level != LevelAA || c.Principle != Perceivable || len(c.Exceptions) != 3 {
		t.Fatalf("1.4.3 = %+v", c)
	}

	// every technique number resolves
	for _, name := range Techniques() {
		ns, _ := TechniqueNumbers(name)
		got, err := cat.ForTechnique(name)
		if err != nil {
			t.Fatalf("ForTechnique(%s): %v", name, err)
		}
		if len(got) != len(ns) {
			t.Fatalf("technique %s: %d of %d criteria resolved", name, len(got), len(ns))
		}
	}
}

func TestDefault_SortedListing(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	all := numbers(cat.All())
	if !slices.IsSortedFunc(all, CompareNumbers) {
		t.Fatalf("All() not in numeric order")
	}
	i9 := slices.Index(all, "1.4.9")
	i10 := slices.Index(all, "1.4.10")
	if i9 < 0 || i10 != i9+1 {
		t.Fatalf("1.4.10 should directly follow 1.4.9: %d %d", i9, i10)
	}
}

func TestLoad_MappingForm(t *testing.T) {
	doc := `{"metadata": {"total_criteria": 2, "versions": ["2.0"]},
"criteria": {
  "2.4.7": {"id": "focus-visible", "title": "Focus Visible", "level": "AA", "version": "2.0",
            "description": "d", "principle": "Operable", "guideline": "2.4 Navigable"},
  "1.1.1": {"id": "non-text-content", "title": "Non-text Content", "level": "A", "version": "2.0",
            "description": "d", "principle": "Perceivable", "guideline": "1.1 Text Alternatives",
            "exceptions": ["x"]}
}}`
	cat, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := numbers(cat.All()); !slices.Equal(got, []string{"1.1.1", "2.4.7"}) {
		t.Fatalf("All = %v", got)
	}
}

func TestLoad_BadLevel(t *testing.T) {
	doc := "criteria:\n  - number: \"1.1.1\"\n    level: Z\n    principle: Robust\n"
	_, err := Load(strings.NewReader(doc))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.yaml")
	doc := "criteria:\n  - number: \"3.1.1\"\n    title: Language of Page\n    level: A\n    principle: Understandable\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cat, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !cat.Has("3.1.1") {
		t.Fatalf("missing 3.1.1")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestForTechnique_Unknown(t *testing.T) {
	cat := smallCatalog(t)
	_, err := cat.ForTechnique("widgets")
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "technique" {
		t.Fatalf("expected technique ValidationError, got %v", err)
	}
}

func TestReferences(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	q := QuickReference(cat)
	if !strings.Contains(q, "## Level AA (Standard)") || !strings.Contains(q, "**1.4.3 Contrast (Minimum)**") {
		t.Fatalf("quick reference missing sections:\n%s", q[:200])
	}
	p := ByPrincipleReference(cat)
	if !strings.Contains(p, "## Robust") || !strings.Contains(p, "### 4.1 Compatible") {
		t.Fatalf("by-principle reference missing sections")
	}
	if strings.Index(p, "## Perceivable") > strings.Index(p, "## Operable") {
		t.Fatalf("principles out of order")
	}
}
