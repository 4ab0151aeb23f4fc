package a11y

import (
	"strings"
	"testing"
)

func TestSuggestARIAKnown(t *testing.T) {
	s := SuggestARIA(" Modal ", "checkout confirmation")
	if s.ElementType != " Modal " || s.Context != "checkout confirmation" {
		t.Fatalf("echo = %+v", s)
	}
	if len(s.Attributes) == 0 || s.Example == "" || s.Message != "" {
		t.Fatalf("suggestion = %+v", s)
	}

	// Callers must not be able to mutate the shared table.
	s.Attributes[0] = "changed"
	if again := SuggestARIA("modal", ""); again.Attributes[0] == "changed" {
		t.Fatal("suggestion table was mutated")
	}
}

func TestSuggestARIAUnknown(t *testing.T) {
	s := SuggestARIA("carousel", "")
	if len(s.GeneralTips) != 3 || !strings.Contains(s.Message, "carousel") {
		t.Fatalf("suggestion = %+v", s)
	}
}

func TestARIAElementTypes(t *testing.T) {
	got := strings.Join(ARIAElementTypes(), ",")
	if got != "alert,button,form,modal,navigation" {
		t.Fatalf("types = %s", got)
	}
}

func TestGenerateForm(t *testing.T) {
	html, err := GenerateForm([]FormField{
		{Name: "First Name", Required: true},
		{Name: "Comments", Type: "textarea"},
	}, "", true)
	if err != nil {
		t.Fatalf("GenerateForm: %v", err)
	}
	for _, want := range []string{
		`aria-label="Form"`,
		`<label for="first-name">`,
		`type="text" id="first-name"`,
		`aria-required="true"`,
		`<textarea id="comments"`,
		`id="comments-error" role="alert"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %s in:\n%s", want, html)
		}
	}
}

func TestGenerateFormWithoutARIA(t *testing.T) {
	html, err := GenerateForm([]FormField{{Name: "Email", Type: "email", Required: true}}, "Signup", false)
	if err != nil {
		t.Fatalf("GenerateForm: %v", err)
	}
	if strings.Contains(html, "aria-required") || strings.Contains(html, "aria-describedby") {
		t.Fatalf("unexpected ARIA:\n%s", html)
	}
	if !strings.Contains(html, `<label for="email">`) {
		t.Fatalf("label missing:\n%s", html)
	}
}

func TestGenerateFormEscapes(t *testing.T) {
	html, err := GenerateForm([]FormField{{Name: `<script>x</script>`}}, `"><b>`, true)
	if err != nil {
		t.Fatalf("GenerateForm: %v", err)
	}
	if strings.Contains(html, "<script>") || strings.Contains(html, `"><b>`) {
		t.Fatalf("unescaped input:\n%s", html)
	}
}

func TestAuditPrompt(t *testing.T) {
	s := newTestService(t)
	p := s.AuditPrompt("")
	if !strings.Contains(p, "this website") {
		t.Fatalf("default page type missing:\n%s", p)
	}
	if !strings.Contains(s.AuditPrompt("blog"), "this blog") {
		t.Fatal("page type not substituted")
	}
	if strings.Contains(p, "{{") {
		t.Fatal("template not executed")
	}
}

func TestStaticResources(t *testing.T) {
	if !strings.HasPrefix(ARIAPatterns(), "#") || !strings.HasPrefix(TestingChecklist(), "#") {
		t.Fatal("resources should be markdown documents")
	}
}

func TestReferences(t *testing.T) {
	s := newTestService(t)
	q := s.QuickReference()
	for _, want := range []string{"## Level A (Minimum)", "## Level AA (Standard)", "## Level AAA (Enhanced)", "**1.1.1 "} {
		if !strings.Contains(q, want) {
			t.Errorf("quick reference lacks %q", want)
		}
	}
	p := s.PrincipleReference()
	if strings.Index(p, "## Perceivable") > strings.Index(p, "## Robust") {
		t.Fatal("principles out of order")
	}
	if !strings.Contains(p, "(Level AA)") {
		t.Fatal("levels missing")
	}
}
