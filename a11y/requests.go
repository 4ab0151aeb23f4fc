package a11y

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hazyhaar/a11y/markup"
	"github.com/hazyhaar/a11y/wcag"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("wcaglevel", func(fl validator.FieldLevel) bool {
		_, err := wcag.ParseLevel(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("criterion", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		parts := strings.Split(s, ".")
		if len(parts) < 2 {
			return false
		}
		for _, p := range parts {
			if p == "" || strings.Trim(p, "0123456789") != "" {
				return false
			}
		}
		return true
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// RequestError reports the first field of a request that failed validation.
type RequestError struct {
	Field string
	Rule  string
	Param string
}

func (e *RequestError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("a11y: invalid request: %s fails %s=%s", e.Field, e.Rule, e.Param)
	}
	return fmt.Sprintf("a11y: invalid request: %s fails %s", e.Field, e.Rule)
}

// Validate checks a request struct against its validate tags.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &RequestError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()}
	}
	return err
}

// CheckHTMLRequest is the input of the HTML check.
type CheckHTMLRequest struct {
	HTML             string `json:"html" validate:"required,max=2097152"`
	IncludeWarnings  *bool  `json:"include_warnings,omitempty"`
	IncludeReminders bool   `json:"include_reminders,omitempty"`
}

func (r *CheckHTMLRequest) warnings() bool {
	return r.IncludeWarnings == nil || *r.IncludeWarnings
}

// ElementsRequest runs the rules over pre-parsed elements.
type ElementsRequest struct {
	Elements []markup.Element `json:"elements" validate:"max=100000"`
	Level    string           `json:"target_level,omitempty" validate:"omitempty,wcaglevel"`
}

// ContrastRequest is the input of the contrast check.
type ContrastRequest struct {
	Foreground string  `json:"foreground" validate:"required"`
	Background string  `json:"background" validate:"required"`
	FontSize   float64 `json:"font_size,omitempty" validate:"gte=0,lte=1000"`
	Bold       bool    `json:"is_bold,omitempty"`
}

// CriterionRequest names one criterion.
type CriterionRequest struct {
	Number string `json:"criterion_number" validate:"required,criterion"`
}

// SearchRequest is a catalog search.
type SearchRequest struct {
	Term string `json:"search_term" validate:"required,max=200"`
}

// ListRequest filters the catalog.
type ListRequest struct {
	Level     string `json:"level,omitempty"`
	Principle string `json:"principle,omitempty"`
}

// GuidanceRequest asks for the criteria of an element type.
type GuidanceRequest struct {
	ElementType string `json:"element_type" validate:"required"`
	Context     string `json:"context,omitempty" validate:"max=1000"`
}

// ComplianceRequest scores markup against a level.
type ComplianceRequest struct {
	HTML               string `json:"html" validate:"required,max=2097152"`
	TargetLevel        string `json:"target_level,omitempty" validate:"omitempty,wcaglevel"`
	IncludeSuggestions *bool  `json:"include_suggestions,omitempty"`
	Source             string `json:"source,omitempty" validate:"max=2048"`
}

func (r *ComplianceRequest) suggestions() bool {
	return r.IncludeSuggestions == nil || *r.IncludeSuggestions
}

// AuditRequest audits a live URL.
type AuditRequest struct {
	URL                string `json:"url" validate:"required,http_url"`
	TargetLevel        string `json:"target_level,omitempty" validate:"omitempty,wcaglevel"`
	IncludeSuggestions *bool  `json:"include_suggestions,omitempty"`
	Async              bool   `json:"async,omitempty"`
}

// IDRequest names a stored object.
type IDRequest struct {
	ID string `json:"id" validate:"required"`
}

// ListReportsRequest pages the report history.
type ListReportsRequest struct {
	Limit int `json:"limit,omitempty" validate:"gte=0,lte=500"`
}

// ARIARequest asks for ARIA advice.
type ARIARequest struct {
	ElementType string `json:"element_type" validate:"required"`
	Context     string `json:"context,omitempty"`
}

// FormRequest generates an accessible form.
type FormRequest struct {
	Fields      []FormField `json:"fields" validate:"required,min=1,max=100,dive"`
	Title       string      `json:"form_title,omitempty" validate:"max=200"`
	IncludeARIA *bool       `json:"include_aria,omitempty"`
}
