// Package compliance maps rule-engine issues onto WCAG criteria and scores
// a page against a target conformance level.
package compliance

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/hazyhaar/a11y/idgen"
	"github.com/hazyhaar/a11y/markup"
	"github.com/hazyhaar/a11y/rules"
	"github.com/hazyhaar/a11y/wcag"
)

// CatalogInconsistencyError reports rules whose canonical criterion is
// absent from the catalog. It is a startup failure.
type CatalogInconsistencyError struct {
	// Missing maps rule id to the unresolved criterion number.
	Missing map[rules.RuleID]string
}

func (e *CatalogInconsistencyError) Error() string {
	ids := make([]string, 0, len(e.Missing))
	for id, n := range e.Missing {
		ids = append(ids, fmt.Sprintf("%s->%s", id, n))
	}
	slices.Sort(ids)
	return fmt.Sprintf("compliance: catalog lacks criteria referenced by rules: %s", strings.Join(ids, ", "))
}

// Verify checks that every rule definition resolves in cat.
func Verify(cat *wcag.Catalog) error {
	missing := map[rules.RuleID]string{}
	for _, d := range rules.Definitions() {
		if !cat.Has(d.Criterion) {
			missing[d.ID] = d.Criterion
		}
	}
	if len(missing) > 0 {
		return &CatalogInconsistencyError{Missing: missing}
	}
	return nil
}

// Status is the overall verdict.
type Status uint8

const (
	StatusFail Status = iota
	StatusPass
)

func (s Status) String() string {
	if s == StatusPass {
		return "PASS"
	}
	return "FAIL"
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "PASS":
		*s = StatusPass
	case "FAIL":
		*s = StatusFail
	default:
		return fmt.Errorf("compliance: invalid status %q", b)
	}
	return nil
}

// Violation is one issue charged against a required criterion.
type Violation struct {
	Criterion  string         `json:"criterion"`
	Title      string         `json:"criterion_title"`
	Level      wcag.Level     `json:"criterion_level"`
	RuleID     rules.RuleID   `json:"rule_id"`
	Message    string         `json:"issue"`
	Severity   rules.Severity `json:"severity"`
	Element    string         `json:"element,omitempty"`
	Suggestion string         `json:"suggestion,omitempty"`
}

// Report is the compliance result for one document.
type Report struct {
	ID                   string      `json:"id,omitempty"`
	TargetLevel          wcag.Level  `json:"target_level"`
	Status               Status      `json:"compliance_status"`
	CompliancePercentage float64     `json:"compliance_percentage"`
	RequiredCriteria     int         `json:"total_required_criteria"`
	Required             []string    `json:"required_criteria"`
	ViolatedCriteria     []string    `json:"violated_criteria"`
	TotalViolations      int         `json:"total_violations"`
	Violations           []Violation `json:"violations"`
	Summary              string      `json:"summary"`
	Source               string      `json:"source,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
}

// Passed reports whether the report has no violations.
func (r *Report) Passed() bool { return r.Status == StatusPass }

// Options tune a single evaluation.
type Options struct {
	// IncludeSuggestions copies remediation text into violations.
	IncludeSuggestions bool
	// Source labels the evaluated document (URL, file name).
	Source string
	// StyleRules feed the focus-visibility check.
	StyleRules []string
}

// Aggregate scores issues against target using cat. Issues are grouped
// through the canonical rule table, never through Issue.Criterion.
// Advisories (info) are reminders and are not charged.
func Aggregate(cat *wcag.Catalog, issues []rules.Issue, target wcag.Level, opts Options) *Report {
	required := cat.Required(target)
	reqSet := make(map[string]wcag.Criterion, len(required))
	reqNums := make([]string, len(required))
	for i, c := range required {
		reqSet[c.Number] = c
		reqNums[i] = c.Number
	}

	violations := []Violation{}
	for _, is := range issues {
		d, ok := rules.Lookup(is.RuleID)
		if !ok || d.Severity == rules.SeverityInfo {
			continue
		}
		c, ok := reqSet[d.Criterion]
		if !ok {
			continue
		}
		v := Violation{
			Criterion: c.Number,
			Title:     c.Title,
			Level:     c.Level,
			RuleID:    is.RuleID,
			Message:   is.Message,
			Severity:  d.Severity,
			Element:   is.Snapshot,
		}
		if opts.IncludeSuggestions {
			v.Suggestion = is.Suggestion
		}
		violations = append(violations, v)
	}
	slices.SortStableFunc(violations, func(a, b Violation) int {
		return wcag.CompareNumbers(a.Criterion, b.Criterion)
	})

	violated := []string{}
	for _, v := range violations {
		if len(violated) == 0 || violated[len(violated)-1] != v.Criterion {
			violated = append(violated, v.Criterion)
		}
	}

	pct := 100.0
	if n := len(required); n > 0 {
		pct = math.Round(float64(n-len(violated))/float64(n)*1000) / 10
	}

	r := &Report{
		TargetLevel:          target,
		Status:               StatusFail,
		CompliancePercentage: pct,
		RequiredCriteria:     len(required),
		Required:             reqNums,
		ViolatedCriteria:     violated,
		TotalViolations:      len(violations),
		Violations:           violations,
		Source:               opts.Source,
	}
	if len(violations) == 0 {
		r.Status = StatusPass
		r.Summary = fmt.Sprintf("Passes WCAG %s with 0 criteria violations", target)
	} else {
		r.Summary = fmt.Sprintf("Fails WCAG %s with %d criteria violations", target, len(violated))
	}
	return r
}

// Evaluator runs the rule engine and aggregates against a catalog that
// was verified at construction.
type Evaluator struct {
	cat    *wcag.Catalog
	engine *rules.Engine
	newID  idgen.Generator
	now    func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithIDGenerator sets the report ID generator (default: "rpt_" + UUIDv7).
func WithIDGenerator(g idgen.Generator) Option {
	return func(e *Evaluator) { e.newID = g }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// New builds an Evaluator. It fails with *CatalogInconsistencyError when
// a rule's criterion is missing from cat.
func New(cat *wcag.Catalog, engine *rules.Engine, opts ...Option) (*Evaluator, error) {
	if cat == nil {
		return nil, fmt.Errorf("compliance: nil catalog")
	}
	if err := Verify(cat); err != nil {
		return nil, err
	}
	if engine == nil {
		engine = rules.NewEngine(rules.Config{})
	}
	e := &Evaluator{
		cat:    cat,
		engine: engine,
		newID:  idgen.Prefixed("rpt_", idgen.Default),
		now:    time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Catalog returns the evaluator's catalog.
func (e *Evaluator) Catalog() *wcag.Catalog { return e.cat }

// Evaluate checks elements against target ("A", "AA" or "AAA").
func (e *Evaluator) Evaluate(ctx context.Context, elements []markup.Element, target string, opts Options) (*Report, error) {
	lvl, err := wcag.ParseLevel(target)
	if err != nil {
		return nil, err
	}
	issues, err := e.engine.Run(ctx, rules.Input{Elements: elements, StyleRules: opts.StyleRules})
	if err != nil {
		return nil, fmt.Errorf("compliance: run rules: %w", err)
	}
	r := Aggregate(e.cat, issues, lvl, opts)
	r.ID = e.newID()
	r.CreatedAt = e.now().UTC()
	return r, nil
}
