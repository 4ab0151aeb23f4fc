package a11y

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "a11y-test", Version: "0.1.0"}

func mcpSession(t *testing.T, s *Service) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	s.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) (string, bool) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text, res.IsError
}

func mustCall(t *testing.T, session *mcp.ClientSession, name string, args any, out any) {
	t.Helper()
	text, isErr := callTool(t, session, name, args)
	if isErr {
		t.Fatalf("%s: tool error %s", name, text)
	}
	if out != nil {
		if err := json.Unmarshal([]byte(text), out); err != nil {
			t.Fatalf("%s: unmarshal %q: %v", name, text, err)
		}
	}
}

func TestMCPListTools(t *testing.T) {
	session := mcpSession(t, newTestService(t))
	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{
		"a11y_check_html", "a11y_check_contrast", "a11y_get_criterion", "a11y_search_criteria",
		"a11y_list_criteria", "a11y_guidance", "a11y_validate_compliance", "a11y_audit_url",
		"a11y_get_report", "a11y_list_reports", "a11y_suggest_aria", "a11y_generate_form",
	} {
		if !names[want] {
			t.Errorf("missing tool %s", want)
		}
	}
}

func TestMCPCheckHTML(t *testing.T) {
	session := mcpSession(t, newTestService(t))
	var res CheckResult
	mustCall(t, session, "a11y_check_html", map[string]any{"html": brokenPage, "include_warnings": false}, &res)
	if len(res.Errors) == 0 || len(res.Warnings) != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestMCPContrast(t *testing.T) {
	session := mcpSession(t, newTestService(t))
	var res struct {
		Ratio float64 `json:"contrast_ratio"`
		Grade string  `json:"overall_grade"`
	}
	mustCall(t, session, "a11y_check_contrast", map[string]any{"foreground": "#000000", "background": "#FFFFFF"}, &res)
	if res.Ratio != 21 || res.Grade == "" {
		t.Fatalf("result = %+v", res)
	}

	text, isErr := callTool(t, session, "a11y_check_contrast", map[string]any{"foreground": "red", "background": "#FFFFFF"})
	if !isErr || !strings.Contains(text, "invalid colour") {
		t.Fatalf("bad colour: %v %s", isErr, text)
	}
}

func TestMCPCriteriaTools(t *testing.T) {
	session := mcpSession(t, newTestService(t))

	var d CriterionDetail
	mustCall(t, session, "a11y_get_criterion", map[string]any{"criterion_number": "2.4.7"}, &d)
	if d.Number != "2.4.7" || d.Title == "" {
		t.Fatalf("detail = %+v", d)
	}

	if text, isErr := callTool(t, session, "a11y_get_criterion", map[string]any{"criterion_number": "7.7.7"}); !isErr {
		t.Fatalf("expected error, got %s", text)
	}

	var sr SearchResult
	mustCall(t, session, "a11y_search_criteria", map[string]any{"search_term": "captions"}, &sr)
	if sr.TotalResults == 0 {
		t.Fatalf("search = %+v", sr)
	}

	var lr ListResult
	mustCall(t, session, "a11y_list_criteria", map[string]any{"level": "AA"}, &lr)
	if lr.Filters.Principle != "all" || lr.TotalCriteria == 0 {
		t.Fatalf("list = %+v", lr)
	}

	var g GuidanceResult
	mustCall(t, session, "a11y_guidance", map[string]any{"element_type": "keyboard"}, &g)
	if g.ApplicableCriteria == 0 {
		t.Fatalf("guidance = %+v", g)
	}
}

func TestMCPValidateAndReports(t *testing.T) {
	session := mcpSession(t, newStoredService(t))

	var rep struct {
		ID       string   `json:"id"`
		Status   string   `json:"compliance_status"`
		Violated []string `json:"violated_criteria"`
	}
	mustCall(t, session, "a11y_validate_compliance", map[string]any{"html": brokenPage, "target_level": "A"}, &rep)
	if rep.Status != "FAIL" || len(rep.Violated) == 0 {
		t.Fatalf("report = %+v", rep)
	}

	var got struct {
		ID string `json:"id"`
	}
	mustCall(t, session, "a11y_get_report", map[string]any{"id": rep.ID}, &got)
	if got.ID != rep.ID {
		t.Fatalf("got %q", got.ID)
	}

	var rows []map[string]any
	mustCall(t, session, "a11y_list_reports", map[string]any{}, &rows)
	if len(rows) != 1 {
		t.Fatalf("rows = %v", rows)
	}

	var stats []ViolationStat
	mustCall(t, session, "a11y_violation_stats", map[string]any{}, &stats)
	if len(stats) == 0 {
		t.Fatal("no stats")
	}

	if text, isErr := callTool(t, session, "a11y_validate_compliance", map[string]any{"html": "<p>x</p>", "target_level": "B"}); !isErr {
		t.Fatalf("level B accepted: %s", text)
	}
}

func TestMCPAuditAsync(t *testing.T) {
	session := mcpSession(t, newStoredService(t))
	var job struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	mustCall(t, session, "a11y_audit_url", map[string]any{"url": "https://example.org/", "async": true}, &job)
	if job.Status != "queued" {
		t.Fatalf("job = %+v", job)
	}
	var again struct {
		ID string `json:"id"`
	}
	mustCall(t, session, "a11y_get_audit", map[string]any{"id": job.ID}, &again)
	if again.ID != job.ID {
		t.Fatalf("audit = %+v", again)
	}
}

func TestMCPAriaAndForm(t *testing.T) {
	session := mcpSession(t, newTestService(t))

	var sug ARIASuggestion
	mustCall(t, session, "a11y_suggest_aria", map[string]any{"element_type": "Navigation", "context": "site header"}, &sug)
	if len(sug.Attributes) == 0 {
		t.Fatalf("suggestion = %+v", sug)
	}

	var form struct {
		HTML string `json:"html"`
	}
	mustCall(t, session, "a11y_generate_form", map[string]any{
		"fields":     []map[string]any{{"name": "Full name", "required": true}, {"name": "Email", "type": "email"}},
		"form_title": "Contact",
	}, &form)
	for _, want := range []string{`for="full-name"`, `type="email"`, `aria-required="true"`, "Contact"} {
		if !strings.Contains(form.HTML, want) {
			t.Errorf("form lacks %s:\n%s", want, form.HTML)
		}
	}
}

func TestMCPResources(t *testing.T) {
	session := mcpSession(t, newTestService(t))
	ctx := context.Background()

	for uri, want := range map[string]string{
		uriQuickRef:   "## Level AA (Standard)",
		uriPrinciples: "## Perceivable",
		uriARIA:       "aria-",
		uriChecklist:  "#",
	} {
		res, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: uri})
		if err != nil {
			t.Fatalf("ReadResource(%s): %v", uri, err)
		}
		if len(res.Contents) != 1 || !strings.Contains(res.Contents[0].Text, want) {
			t.Fatalf("%s: want %q in content", uri, want)
		}
	}
}

func TestMCPAuditPrompt(t *testing.T) {
	session := mcpSession(t, newTestService(t))
	res, err := session.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name:      "accessibility_audit",
		Arguments: map[string]string{"page_type": "checkout"},
	})
	if err != nil {
		t.Fatalf("GetPrompt: %v", err)
	}
	if len(res.Messages) != 1 {
		t.Fatalf("messages = %d", len(res.Messages))
	}
	tc, ok := res.Messages[0].Content.(*mcp.TextContent)
	if !ok || !strings.Contains(tc.Text, "checkout") {
		t.Fatalf("prompt = %+v", res.Messages[0].Content)
	}
}
