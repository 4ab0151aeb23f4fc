package a11y

import (
	"context"
	"fmt"

	"github.com/hazyhaar/a11y/compliance"
	"github.com/hazyhaar/a11y/kit"
	"github.com/hazyhaar/a11y/rules"
)

// Operation names, shared by the MCP tools, HTTP routes, logs and metrics.
const (
	opCheckHTML      = "check_html"
	opRunChecks      = "run_checks"
	opCheckContrast  = "check_contrast"
	opGetCriterion   = "get_criterion"
	opSearchCriteria = "search_criteria"
	opListCriteria   = "list_criteria"
	opGuidance       = "guidance"
	opValidate       = "validate_compliance"
	opEvaluateElems  = "evaluate_elements"
	opAuditURL       = "audit_url"
	opGetAudit       = "get_audit"
	opGetReport      = "get_report"
	opListReports    = "list_reports"
	opDeleteReport   = "delete_report"
	opViolationStats = "violation_stats"
	opSuggestARIA    = "suggest_aria"
	opGenerateForm   = "generate_form"
)

// RunChecksResult is the outcome of a rule pass over pre-parsed elements.
type RunChecksResult struct {
	Issues  []rules.Issue `json:"issues"`
	Summary rules.Summary `json:"summary"`
}

// validating rejects requests whose validate tags fail before they reach
// the operation.
func validating(next kit.Endpoint) kit.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		if req != nil {
			if err := Validate(req); err != nil {
				return nil, err
			}
		}
		return next(ctx, req)
	}
}

func (s *Service) wrap(op string, fn kit.Endpoint) kit.Endpoint {
	return kit.Chain(
		kit.Logging(s.logger, op),
		kit.Observe(op, s.metrics.Observe),
		validating,
	)(fn)
}

// endpoint returns the middleware-wrapped operation op.
func (s *Service) endpoint(op string) kit.Endpoint {
	ep, ok := s.endpoints[op]
	if !ok {
		panic(fmt.Sprintf("a11y: unknown operation %q", op))
	}
	return ep
}

func (s *Service) buildEndpoints() {
	raw := map[string]kit.Endpoint{
		opCheckHTML: func(ctx context.Context, req any) (any, error) {
			r := req.(*CheckHTMLRequest)
			return s.CheckHTML(ctx, r.HTML, CheckOptions{IncludeWarnings: r.warnings(), ContrastReminder: r.IncludeReminders})
		},
		opRunChecks: func(ctx context.Context, req any) (any, error) {
			r := req.(*ElementsRequest)
			issues, err := s.RunChecks(ctx, r.Elements)
			if err != nil {
				return nil, err
			}
			if issues == nil {
				issues = []rules.Issue{}
			}
			return &RunChecksResult{Issues: issues, Summary: rules.Summarize(issues)}, nil
		},
		opCheckContrast: func(_ context.Context, req any) (any, error) {
			r := req.(*ContrastRequest)
			return s.CheckContrast(r.Foreground, r.Background, r.FontSize, r.Bold)
		},
		opGetCriterion: func(_ context.Context, req any) (any, error) {
			return s.LookupCriterion(req.(*CriterionRequest).Number)
		},
		opSearchCriteria: func(_ context.Context, req any) (any, error) {
			return s.SearchCriteria(req.(*SearchRequest).Term), nil
		},
		opListCriteria: func(_ context.Context, req any) (any, error) {
			r := req.(*ListRequest)
			return s.ListCriteria(r.Level, r.Principle)
		},
		opGuidance: func(_ context.Context, req any) (any, error) {
			r := req.(*GuidanceRequest)
			return s.Guidance(r.ElementType, r.Context)
		},
		opValidate: func(ctx context.Context, req any) (any, error) {
			r := req.(*ComplianceRequest)
			return s.EvaluateHTML(ctx, r.HTML, r.TargetLevel, r.suggestions(), r.Source)
		},
		opEvaluateElems: func(ctx context.Context, req any) (any, error) {
			r := req.(*ElementsRequest)
			return s.EvaluateCompliance(ctx, r.Elements, r.Level, compliance.Options{IncludeSuggestions: true})
		},
		opAuditURL: func(ctx context.Context, req any) (any, error) {
			r := req.(*AuditRequest)
			if r.Async {
				return s.EnqueueAudit(ctx, r.URL, r.TargetLevel)
			}
			return s.AuditURL(ctx, r.URL, r.TargetLevel, r.IncludeSuggestions == nil || *r.IncludeSuggestions)
		},
		opGetAudit: func(ctx context.Context, req any) (any, error) {
			return s.AuditJob(ctx, req.(*IDRequest).ID)
		},
		opGetReport: func(ctx context.Context, req any) (any, error) {
			return s.Report(ctx, req.(*IDRequest).ID)
		},
		opListReports: func(ctx context.Context, req any) (any, error) {
			return s.Reports(ctx, req.(*ListReportsRequest).Limit)
		},
		opDeleteReport: func(ctx context.Context, req any) (any, error) {
			id := req.(*IDRequest).ID
			if err := s.DeleteReport(ctx, id); err != nil {
				return nil, err
			}
			return map[string]any{"deleted": id}, nil
		},
		opViolationStats: func(ctx context.Context, _ any) (any, error) {
			return s.ViolationStats(ctx)
		},
		opSuggestARIA: func(_ context.Context, req any) (any, error) {
			r := req.(*ARIARequest)
			return SuggestARIA(r.ElementType, r.Context), nil
		},
		opGenerateForm: func(_ context.Context, req any) (any, error) {
			r := req.(*FormRequest)
			html, err := GenerateForm(r.Fields, r.Title, r.IncludeARIA == nil || *r.IncludeARIA)
			if err != nil {
				return nil, err
			}
			return map[string]string{"html": html}, nil
		},
	}
	s.endpoints = make(map[string]kit.Endpoint, len(raw))
	for op, fn := range raw {
		s.endpoints[op] = s.wrap(op, fn)
	}
}
