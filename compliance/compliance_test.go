package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/a11y/markup"
	"github.com/hazyhaar/a11y/rules"
	"github.com/hazyhaar/a11y/wcag"
)

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	cat, err := wcag.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	ev, err := New(cat, rules.NewEngine(rules.Config{Workers: 2}),
		WithIDGenerator(func() string { return "rpt_test" }),
		WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ev
}

func parse(t *testing.T, src string) []markup.Element {
	t.Helper()
	doc, err := markup.ParseString(src)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return doc.Elements
}

const cleanPage = `<!DOCTYPE html><html lang="en"><head><title>Ok</title></head><body>
<h1>Title</h1><h2>Section</h2><img src="a.png" alt="A chart">
<label for="q">Search</label><input id="q" type="search">
<p><a href="/pricing">Pricing details</a></p></body></html>`

func TestEvaluate_CleanPagePasses(t *testing.T) {
	ev := newEvaluator(t)
	r, err := ev.Evaluate(context.Background(), parse(t, cleanPage), "AA", Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if r.CompliancePercentage != 100.0 || r.Status != StatusPass || len(r.Violations) != 0 {
		t.Fatalf("report = %+v", r)
	}
	if r.ID != "rpt_test" || r.CreatedAt.Year() != 2026 {
		t.Fatalf("id/created = %s %v", r.ID, r.CreatedAt)
	}
	if r.RequiredCriteria != 55 || len(r.Required) != 55 {
		t.Fatalf("required = %d", r.RequiredCriteria)
	}
}

func TestEvaluate_Violations(t *testing.T) {
	ev := newEvaluator(t)
	src := `<html><body><h1>a</h1><h3>b</h3><img src="x"><img src="y"><a href="/">here</a></body></html>`
	r, err := ev.Evaluate(context.Background(), parse(t, src), "A", Options{IncludeSuggestions: true, Source: "page.html"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if r.Status != StatusFail || r.Source != "page.html" {
		t.Fatalf("status/source = %s %q", r.Status, r.Source)
	}
	// 1.1.1 x2, 1.3.1, 2.4.4, 3.1.1; touch-target advisory is not charged.
	if want := []string{"1.1.1", "1.3.1", "2.4.4", "3.1.1"}; !slices.Equal(r.ViolatedCriteria, want) {
		t.Fatalf("violated = %v, want %v", r.ViolatedCriteria, want)
	}
	if r.TotalViolations != 5 {
		t.Fatalf("violations = %d", r.TotalViolations)
	}
	for i := 1; i < len(r.Violations); i++ {
		if wcag.CompareNumbers(r.Violations[i-1].Criterion, r.Violations[i].Criterion) > 0 {
			t.Fatalf("violations not ordered by criterion")
		}
	}
	if r.Violations[0].Suggestion == "" || r.Violations[0].Title != "Non-text Content" {
		t.Fatalf("first violation = %+v", r.Violations[0])
	}
	// 31 level-A criteria, 4 violated.
	if r.CompliancePercentage != 87.1 {
		t.Fatalf("percentage = %v", r.CompliancePercentage)
	}
	if !strings.Contains(r.Summary, "Fails WCAG A with 4") {
		t.Fatalf("summary = %q", r.Summary)
	}
}

func TestEvaluate_SuggestionsOptional(t *testing.T) {
	ev := newEvaluator(t)
	r, err := ev.Evaluate(context.Background(), parse(t, `<img src="x">`), "A", Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(r.Violations) != 1 || r.Violations[0].Suggestion != "" {
		t.Fatalf("violations = %+v", r.Violations)
	}
}

func TestEvaluate_RequiredSetsNest(t *testing.T) {
	ev := newEvaluator(t)
	els := parse(t, cleanPage)
	var prev []string
	for _, lvl := range []string{"A", "AA", "AAA"} {
		r, err := ev.Evaluate(context.Background(), els, lvl, Options{})
		if err != nil {
			t.Fatalf("Evaluate(%s): %v", lvl, err)
		}
		for _, n := range prev {
			if !slices.Contains(r.Required, n) {
				t.Fatalf("%s required set lacks %s", lvl, n)
			}
		}
		prev = r.Required
	}
}

func TestEvaluate_InvalidTarget(t *testing.T) {
	ev := newEvaluator(t)
	_, err := ev.Evaluate(context.Background(), nil, "AAAA", Options{})
	var ve *wcag.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestNew_CatalogInconsistency(t *testing.T) {
	cat, err := wcag.New(wcag.Metadata{}, []wcag.Criterion{
		{Number: "1.1.1", Level: wcag.LevelA, Principle: wcag.Perceivable},
	})
	if err != nil {
		t.Fatalf("wcag.New: %v", err)
	}
	_, err = New(cat, nil)
	var ce *CatalogInconsistencyError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CatalogInconsistencyError, got %v", err)
	}
	if _, ok := ce.Missing[rules.HTMLNoLang]; !ok {
		t.Fatalf("missing = %v", ce.Missing)
	}
	if _, ok := ce.Missing[rules.ImgAltMissing]; ok {
		t.Fatalf("1.1.1 is present and should not be reported")
	}
}

func TestAggregate_EmptyRequiredIsFull(t *testing.T) {
	cat, err := wcag.New(wcag.Metadata{}, []wcag.Criterion{
		{Number: "1.1.1", Level: wcag.LevelAA, Principle: wcag.Perceivable},
	})
	if err != nil {
		t.Fatalf("wcag.New: %v", err)
	}
	r := Aggregate(cat, nil, wcag.LevelA, Options{})
	if r.CompliancePercentage != 100 || r.RequiredCriteria != 0 || !r.Passed() {
		t.Fatalf("report = %+v", r)
	}
}

func TestAggregate_UsesCanonicalTable(t *testing.T) {
	cat, err := wcag.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	// An issue carrying a wrong criterion is still charged to its rule's.
	is := rules.Check([]markup.Element{markup.NewElement("img", nil, "")})[0]
	is.Criterion = "4.1.3"
	r := Aggregate(cat, []rules.Issue{is}, wcag.LevelA, Options{})
	if !slices.Equal(r.ViolatedCriteria, []string{"1.1.1"}) {
		t.Fatalf("violated = %v", r.ViolatedCriteria)
	}
}

func TestReport_JSON(t *testing.T) {
	ev := newEvaluator(t)
	r, err := ev.Evaluate(context.Background(), parse(t, `<img src="x">`), "aa", Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{`"target_level":"AA"`, `"compliance_status":"FAIL"`, `"severity":"error"`, `"criterion_level":"A"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("json missing %s: %s", want, s)
		}
	}
}
