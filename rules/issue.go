// Package rules holds the accessibility rule engine: independent
// per-element checkers, the sequential heading-hierarchy pass, the
// style-text focus check and the contrast reminder.
//
// Severity, level and criterion of every Issue come from one canonical
// table (Definitions). Checkers only pick the rule and the message.
package rules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hazyhaar/a11y/markup"
	"github.com/hazyhaar/a11y/wcag"
)

// Severity is fixed per rule kind.
type Severity uint8

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInfo
)

func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return SeverityError, nil
	case "warning":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	}
	return 0, &wcag.ValidationError{Field: "severity", Value: s, Allowed: []string{"error", "warning", "info"}}
}

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	}
	return fmt.Sprintf("Severity(%d)", uint8(s))
}

func (s Severity) MarshalText() ([]byte, error) {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("rules: cannot marshal invalid severity %d", uint8(s))
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// RuleID names a rule kind.
type RuleID string

const (
	ImgAltMissing       RuleID = "img-alt-missing"
	ImgAltEmpty         RuleID = "img-alt-empty"
	FormNoLabel         RuleID = "form-no-label"
	LinkNoText          RuleID = "link-no-text"
	LinkGenericText     RuleID = "link-generic-text"
	HTMLNoLang          RuleID = "html-no-lang"
	ARIAInvalidRole     RuleID = "aria-invalid-role"
	KeyboardNoAccess    RuleID = "keyboard-no-access"
	TouchTargetSize     RuleID = "touch-target-size"
	HeadingNoH1         RuleID = "heading-no-h1"
	HeadingSkippedLevel RuleID = "heading-skipped-level"
	FocusNotVisible     RuleID = "focus-not-visible"
	ColorContrastCheck  RuleID = "color-contrast-check"
)

// Definition is one row of the canonical rule table.
type Definition struct {
	ID         RuleID     `json:"rule_id"`
	Severity   Severity   `json:"severity"`
	Level      wcag.Level `json:"wcag_level"`
	Criterion  string     `json:"wcag_criteria"`
	Scope      string     `json:"scope"`
	Summary    string     `json:"summary"`
	Suggestion string     `json:"suggestion"`
}

var definitions = []Definition{
	{ImgAltMissing, SeverityError, wcag.LevelA, "1.1.1", "element",
		"Image missing alt attribute",
		"Add an alt attribute to describe the image. Use alt=\"\" for decorative images."},
	{ImgAltEmpty, SeverityWarning, wcag.LevelA, "1.1.1", "element",
		"Image has empty alt text",
		"If decorative, add role=\"presentation\". Otherwise, provide descriptive alt text."},
	{FormNoLabel, SeverityError, wcag.LevelA, "3.3.2", "element",
		"Form control missing label",
		"Add a label element with a for attribute, or use aria-label/aria-labelledby"},
	{LinkNoText, SeverityError, wcag.LevelA, "2.4.4", "element",
		"Link has no accessible text",
		"Add link text or an aria-label attribute"},
	{LinkGenericText, SeverityWarning, wcag.LevelA, "2.4.4", "element",
		"Link text is not descriptive",
		"Use descriptive link text that explains the destination"},
	{HTMLNoLang, SeverityError, wcag.LevelA, "3.1.1", "element",
		"HTML element missing lang attribute",
		"Add a lang attribute to specify the page language (e.g. lang=\"en\")"},
	{ARIAInvalidRole, SeverityError, wcag.LevelA, "4.1.2", "element",
		"Invalid ARIA role",
		"Use a valid role from the WAI-ARIA specification"},
	{KeyboardNoAccess, SeverityError, wcag.LevelA, "2.1.1", "element",
		"Clickable element not keyboard accessible",
		"Add tabindex=\"0\" and keyboard event handlers, or use a button element"},
	{TouchTargetSize, SeverityInfo, wcag.LevelAAA, "2.5.5", "element",
		"Verify touch target is at least 44x44 CSS pixels",
		"Ensure interactive elements are large enough for touch interaction"},
	{HeadingNoH1, SeverityWarning, wcag.LevelA, "1.3.1", "document",
		"Page should start with an h1 heading",
		"Add an h1 as the main page heading"},
	{HeadingSkippedLevel, SeverityError, wcag.LevelA, "1.3.1", "document",
		"Heading level skipped",
		"Do not skip heading levels"},
	{FocusNotVisible, SeverityWarning, wcag.LevelAA, "2.4.7", "document",
		"Focus indicator may be removed without alternative",
		"Provide visible focus indicators using border, box-shadow, or background changes"},
	{ColorContrastCheck, SeverityInfo, wcag.LevelAA, "1.4.3", "document",
		"Color contrast should be checked",
		"Ensure contrast ratio is at least 4.5:1 for normal text, 3:1 for large text"},
}

var byID = func() map[RuleID]Definition {
	m := make(map[RuleID]Definition, len(definitions))
	for _, d := range definitions {
		m[d.ID] = d
	}
	return m
}()

// Definitions returns the rule table in engine order.
func Definitions() []Definition {
	return slices.Clone(definitions)
}

// Lookup returns the definition of id.
func Lookup(id RuleID) (Definition, bool) {
	d, ok := byID[id]
	return d, ok
}

// CriterionFor returns the canonical criterion number for id.
func CriterionFor(id RuleID) (string, bool) {
	d, ok := byID[id]
	return d.Criterion, ok
}

// Issue is one rule violation instance.
type Issue struct {
	RuleID     RuleID          `json:"rule_id"`
	Severity   Severity        `json:"severity"`
	Level      wcag.Level      `json:"wcag_level"`
	Criterion  string          `json:"wcag_criteria"`
	Message    string          `json:"message"`
	Element    *markup.Element `json:"-"`
	Snapshot   string          `json:"element,omitempty"`
	Suggestion string          `json:"suggestion,omitempty"`
}

// newIssue builds an Issue for id. An empty message or suggestion falls
// back to the table text. Unknown ids are a programming error.
func newIssue(id RuleID, el *markup.Element, message, suggestion string) Issue {
	d, ok := byID[id]
	if !ok {
		panic(fmt.Sprintf("rules: unknown rule %q", id))
	}
	if message == "" {
		message = d.Summary
	}
	if suggestion == "" {
		suggestion = d.Suggestion
	}
	is := Issue{
		RuleID:     id,
		Severity:   d.Severity,
		Level:      d.Level,
		Criterion:  d.Criterion,
		Message:    message,
		Suggestion: suggestion,
	}
	if el != nil {
		cp := *el
		is.Element = &cp
		is.Snapshot = cp.Snapshot()
	}
	return is
}

// Summary counts issues by severity.
type Summary struct {
	Total    int `json:"total"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// Summarize counts issues per severity.
func Summarize(issues []Issue) Summary {
	s := Summary{Total: len(issues)}
	for _, is := range issues {
		switch is.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		case SeverityInfo:
			s.Info++
		}
	}
	return s
}

// ErrorsOnly drops warnings and advisories.
func ErrorsOnly(issues []Issue) []Issue {
	out := make([]Issue, 0, len(issues))
	for _, is := range issues {
		if is.Severity == SeverityError {
			out = append(out, is)
		}
	}
	return out
}
