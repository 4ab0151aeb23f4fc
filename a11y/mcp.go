package a11y

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/a11y/kit"
)

// RegisterMCP registers the audit tools, reference resources and the audit
// prompt on srv.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	for _, t := range s.mcpTools() {
		kit.RegisterMCPTool(srv, t.tool, s.endpoint(t.op), t.decode)
	}
	s.registerResources(srv)
	s.registerPrompt(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func boolean(desc string) map[string]any {
	return map[string]any{"type": "boolean", "description": desc}
}

func enum(desc string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": desc, "enum": values}
}

type mcpTool struct {
	op     string
	tool   *mcp.Tool
	decode func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error)
}

func (s *Service) mcpTools() []mcpTool {
	levels := []string{"A", "AA", "AAA"}
	return []mcpTool{
		{opCheckHTML, &mcp.Tool{
			Name:        "a11y_check_html",
			Description: "Check an HTML fragment or page for common accessibility problems.",
			InputSchema: inputSchema(map[string]any{
				"html":              str("HTML to check"),
				"include_warnings":  boolean("Include warnings and advisories (default true)"),
				"include_reminders": boolean("Add the colour-contrast reminder advisory"),
			}, []string{"html"}),
		}, kit.DecodeArgs[CheckHTMLRequest]()},

		{opCheckContrast, &mcp.Tool{
			Name:        "a11y_check_contrast",
			Description: "Compute the WCAG contrast ratio of two colors and the AA/AAA verdicts.",
			InputSchema: inputSchema(map[string]any{
				"foreground": str("Foreground color as #RRGGBB"),
				"background": str("Background color as #RRGGBB"),
				"font_size":  map[string]any{"type": "number", "description": "Font size in px (default 16)"},
				"is_bold":    boolean("Whether the text is bold"),
			}, []string{"foreground", "background"}),
		}, kit.DecodeArgs[ContrastRequest]()},

		{opGetCriterion, &mcp.Tool{
			Name:        "a11y_get_criterion",
			Description: "Look up one WCAG success criterion by number, e.g. 1.4.3.",
			InputSchema: inputSchema(map[string]any{
				"criterion_number": str("Criterion number"),
			}, []string{"criterion_number"}),
		}, kit.DecodeArgs[CriterionRequest]()},

		{opSearchCriteria, &mcp.Tool{
			Name:        "a11y_search_criteria",
			Description: "Search WCAG criteria titles, descriptions and guidelines.",
			InputSchema: inputSchema(map[string]any{
				"search_term": str("Text to search for"),
			}, []string{"search_term"}),
		}, kit.DecodeArgs[SearchRequest]()},

		{opListCriteria, &mcp.Tool{
			Name:        "a11y_list_criteria",
			Description: "List WCAG criteria filtered by level and principle.",
			InputSchema: inputSchema(map[string]any{
				"level":     enum("Conformance level", "A", "AA", "AAA", "all"),
				"principle": enum("Principle", "Perceivable", "Operable", "Understandable", "Robust", "all"),
			}, nil),
		}, kit.DecodeArgs[ListRequest]()},

		{opGuidance, &mcp.Tool{
			Name:        "a11y_guidance",
			Description: "Return the WCAG criteria and techniques that apply to an element type.",
			InputSchema: inputSchema(map[string]any{
				"element_type": str("Element or technique, e.g. images, forms, color"),
				"context":      str("How the element is used"),
			}, []string{"element_type"}),
		}, kit.DecodeArgs[GuidanceRequest]()},

		{opValidate, &mcp.Tool{
			Name:        "a11y_validate_compliance",
			Description: "Score HTML against a WCAG conformance level and list the violated criteria.",
			InputSchema: inputSchema(map[string]any{
				"html":                str("HTML to evaluate"),
				"target_level":        enum("Target level (default from configuration)", levels...),
				"include_suggestions": boolean("Attach fix suggestions (default true)"),
				"source":              str("Where the markup came from, stored with the report"),
			}, []string{"html"}),
		}, kit.DecodeArgs[ComplianceRequest]()},

		{opAuditURL, &mcp.Tool{
			Name:        "a11y_audit_url",
			Description: "Fetch a web page and score it against a WCAG level. With async the audit is queued and a job is returned.",
			InputSchema: inputSchema(map[string]any{
				"url":                 str("http or https URL"),
				"target_level":        enum("Target level", levels...),
				"include_suggestions": boolean("Attach fix suggestions (default true)"),
				"async":               boolean("Queue the audit instead of waiting"),
			}, []string{"url"}),
		}, kit.DecodeArgs[AuditRequest]()},

		{opGetAudit, &mcp.Tool{
			Name:        "a11y_get_audit",
			Description: "Return the state of a queued URL audit.",
			InputSchema: inputSchema(map[string]any{"id": str("Audit job ID")}, []string{"id"}),
		}, kit.DecodeArgs[IDRequest]()},

		{opGetReport, &mcp.Tool{
			Name:        "a11y_get_report",
			Description: "Return a stored compliance report.",
			InputSchema: inputSchema(map[string]any{"id": str("Report ID")}, []string{"id"}),
		}, kit.DecodeArgs[IDRequest]()},

		{opListReports, &mcp.Tool{
			Name:        "a11y_list_reports",
			Description: "List stored compliance reports, newest first.",
			InputSchema: inputSchema(map[string]any{
				"limit": map[string]any{"type": "integer", "description": "Maximum reports (default 50)"},
			}, nil),
		}, kit.DecodeArgs[ListReportsRequest]()},

		{opViolationStats, &mcp.Tool{
			Name:        "a11y_violation_stats",
			Description: "Count stored violations per criterion across all reports.",
			InputSchema: inputSchema(map[string]any{}, nil),
		}, kit.DecodeArgs[struct{}]()},

		{opSuggestARIA, &mcp.Tool{
			Name:        "a11y_suggest_aria",
			Description: "Suggest ARIA roles and attributes for a UI element.",
			InputSchema: inputSchema(map[string]any{
				"element_type": str("button, navigation, form, modal or alert"),
				"context":      str("How the element is used"),
			}, []string{"element_type"}),
		}, kit.DecodeArgs[ARIARequest]()},

		{opGenerateForm, &mcp.Tool{
			Name:        "a11y_generate_form",
			Description: "Generate an accessible HTML form from field definitions.",
			InputSchema: inputSchema(map[string]any{
				"fields": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name":     str("Field label"),
							"type":     str("Input type (default text)"),
							"required": boolean("Whether the field is required"),
						},
						"required": []string{"name"},
					},
				},
				"form_title":   str("Form legend"),
				"include_aria": boolean("Add ARIA attributes (default true)"),
			}, []string{"fields"}),
		}, kit.DecodeArgs[FormRequest]()},
	}
}

const (
	uriQuickRef   = "accessibility://wcag-quick-ref"
	uriPrinciples = "accessibility://wcag-by-principle"
	uriARIA       = "accessibility://aria-patterns"
	uriChecklist  = "accessibility://testing-checklist"
)

func (s *Service) registerResources(srv *mcp.Server) {
	add := func(uri, name, desc string, body func() string) {
		srv.AddResource(&mcp.Resource{
			URI:         uri,
			Name:        name,
			Description: desc,
			MIMEType:    "text/markdown",
		}, func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: "text/markdown", Text: body()}},
			}, nil
		})
	}
	add(uriQuickRef, "wcag-quick-ref", "WCAG criteria grouped by conformance level", s.QuickReference)
	add(uriPrinciples, "wcag-by-principle", "WCAG criteria grouped by principle and guideline", s.PrincipleReference)
	add(uriARIA, "aria-patterns", "Common ARIA design patterns with markup", ARIAPatterns)
	add(uriChecklist, "testing-checklist", "Manual and automated accessibility testing checklist", TestingChecklist)
}

func (s *Service) registerPrompt(srv *mcp.Server) {
	srv.AddPrompt(&mcp.Prompt{
		Name:        "accessibility_audit",
		Description: "Step-by-step instructions for auditing a page for WCAG conformance.",
		Arguments: []*mcp.PromptArgument{
			{Name: "page_type", Description: "Kind of page, e.g. checkout, blog, dashboard"},
		},
	}, func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		pageType := req.Params.Arguments["page_type"]
		return &mcp.GetPromptResult{
			Description: "Accessibility audit of a " + pageTypeOrDefault(pageType),
			Messages: []*mcp.PromptMessage{
				{Role: "user", Content: &mcp.TextContent{Text: s.AuditPrompt(pageType)}},
			},
		}, nil
	})
}
