package a11y

import (
	"bytes"
	"embed"
	"html/template"
	"slices"
	"strings"
	texttemplate "text/template"

	"github.com/hazyhaar/a11y/wcag"
)

//go:embed resources
var resources embed.FS

func resource(name string) string {
	b, err := resources.ReadFile("resources/" + name)
	if err != nil {
		panic("a11y: missing embedded resource " + name)
	}
	return string(b)
}

// ARIAPatterns is the markdown catalogue of common ARIA patterns.
func ARIAPatterns() string { return resource("aria-patterns.md") }

// TestingChecklist is the markdown manual-testing checklist.
func TestingChecklist() string { return resource("testing-checklist.md") }

// QuickReference is the catalog as markdown grouped by level.
func (s *Service) QuickReference() string { return wcag.QuickReference(s.cat) }

// PrincipleReference is the catalog as markdown grouped by principle.
func (s *Service) PrincipleReference() string { return wcag.ByPrincipleReference(s.cat) }

var auditPrompt = texttemplate.Must(texttemplate.New("audit").Parse(resource("audit-prompt.tmpl")))

// AuditPrompt renders the audit instructions for a kind of page.
func (s *Service) AuditPrompt(pageType string) string {
	pageType = pageTypeOrDefault(pageType)
	version := "2.2"
	if vs := s.cat.Metadata().Versions; len(vs) > 0 {
		version = vs[len(vs)-1]
	}
	var buf bytes.Buffer
	auditPrompt.Execute(&buf, struct{ PageType, Version string }{pageType, version})
	return buf.String()
}

func pageTypeOrDefault(pageType string) string {
	if pt := strings.TrimSpace(pageType); pt != "" {
		return pt
	}
	return "website"
}

// ARIASuggestion is the advice for one kind of widget.
type ARIASuggestion struct {
	ElementType   string   `json:"element_type"`
	Context       string   `json:"context,omitempty"`
	Attributes    []string `json:"attributes,omitempty"`
	Example       string   `json:"example,omitempty"`
	BestPractices []string `json:"best_practices,omitempty"`
	Message       string   `json:"message,omitempty"`
	GeneralTips   []string `json:"general_tips,omitempty"`
}

var ariaSuggestions = map[string]ARIASuggestion{
	"button": {
		Attributes: []string{"aria-label", "aria-pressed", "aria-expanded"},
		Example:    `<button aria-label="Close dialog" aria-pressed="false">X</button>`,
		BestPractices: []string{
			"Use aria-label when button text isn't descriptive enough",
			"Add aria-pressed for toggle buttons",
			"Include aria-expanded for buttons that control collapsible content",
		},
	},
	"navigation": {
		Attributes: []string{"role='navigation'", "aria-label"},
		Example:    `<nav aria-label="Main navigation">...</nav>`,
		BestPractices: []string{
			"Label navigation regions to distinguish between multiple nav elements",
			"Use landmarks to help screen reader users navigate",
		},
	},
	"form": {
		Attributes: []string{"aria-label", "aria-labelledby", "aria-describedby", "aria-required", "aria-invalid"},
		Example:    `<input aria-label="Email address" aria-required="true" aria-invalid="false">`,
		BestPractices: []string{
			"Always associate labels with form controls",
			"Use aria-describedby for additional help text",
			"Mark required fields with aria-required",
			"Indicate validation states with aria-invalid",
		},
	},
	"modal": {
		Attributes: []string{"role='dialog'", "aria-modal='true'", "aria-labelledby", "aria-describedby"},
		Example:    `<div role="dialog" aria-modal="true" aria-labelledby="modal-title">...</div>`,
		BestPractices: []string{
			"Trap focus within modal when open",
			"Provide a clear title with aria-labelledby",
			"Return focus to trigger element when closed",
		},
	},
	"alert": {
		Attributes: []string{"role='alert'", "aria-live='assertive'", "aria-atomic='true'"},
		Example:    `<div role="alert" aria-live="assertive">Error: Invalid email format</div>`,
		BestPractices: []string{
			"Use for important, time-sensitive information",
			"Keep messages concise and actionable",
			"Consider using role='status' for less urgent updates",
		},
	},
}

// ARIAElementTypes lists the widget kinds SuggestARIA knows, sorted.
func ARIAElementTypes() []string {
	out := make([]string, 0, len(ariaSuggestions))
	for k := range ariaSuggestions {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// SuggestARIA returns attribute advice for a widget kind. Unknown kinds get
// general tips rather than an error.
func SuggestARIA(elementType, usage string) *ARIASuggestion {
	s, ok := ariaSuggestions[strings.ToLower(strings.TrimSpace(elementType))]
	if !ok {
		return &ARIASuggestion{
			ElementType: elementType,
			Context:     usage,
			Message:     "No specific suggestions for '" + elementType + "'",
			GeneralTips: []string{
				"Use semantic HTML elements when possible",
				"Add ARIA only when necessary to enhance accessibility",
				"Test with screen readers to verify implementation",
			},
		}
	}
	s.ElementType = elementType
	s.Context = usage
	s.Attributes = slices.Clone(s.Attributes)
	s.BestPractices = slices.Clone(s.BestPractices)
	return &s
}

// FormField describes one control of a generated form.
type FormField struct {
	Name     string `json:"name" validate:"required"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

func (f FormField) ID() string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(f.Name)), " ", "-")
}

var formTemplate = template.Must(template.New("form").Parse(
	`<form aria-label="{{.Title}}">
  <h2 id="form-title">{{.Title}}</h2>
{{range .Fields}}  <div class="form-field">
    <label for="{{.ID}}">
      {{.Name}}
{{- if .Required}}
      <span aria-label="required">*</span>
{{- end}}
    </label>
{{if eq .Type "textarea"}}    <textarea id="{{.ID}}" name="{{.ID}}"{{template "aria" .}}></textarea>
{{else}}    <input type="{{.Type}}" id="{{.ID}}" name="{{.ID}}"{{template "aria" .}}>
{{end}}{{if $.ARIA}}    <span id="{{.ID}}-error" role="alert" aria-live="polite"></span>
{{end}}  </div>
{{end}}  <button type="submit">Submit</button>
</form>
{{define "aria"}}{{if .ARIA}}{{if .Required}} aria-required="true"{{end}} aria-describedby="{{.ID}}-error"{{end}}{{end}}`))

type formField struct {
	FormField
	ARIA bool
}

// GenerateForm renders an accessible form skeleton: every control has a
// label, required fields are marked and, with includeARIA, each control is
// wired to a live error region. Field values are HTML-escaped.
func GenerateForm(fields []FormField, title string, includeARIA bool) (string, error) {
	if strings.TrimSpace(title) == "" {
		title = "Form"
	}
	data := struct {
		Title  string
		ARIA   bool
		Fields []formField
	}{Title: title, ARIA: includeARIA}
	for _, f := range fields {
		if f.Name == "" {
			f.Name = "field"
		}
		if f.Type == "" {
			f.Type = "text"
		}
		data.Fields = append(data.Fields, formField{FormField: f, ARIA: includeARIA})
	}
	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
