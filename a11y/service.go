// Package a11y is the accessibility audit service: it wires the criteria
// catalog, rule engine, contrast calculator and compliance aggregator behind
// one Service and exposes it over MCP and HTTP.
//
// Usage:
//
//	svc, err := a11y.Open(cfg, logger)
//	defer svc.Close()
//	svc.Start(ctx)            // queued URL audits
//	svc.RegisterMCP(mcpServer)
//	http.ListenAndServe(cfg.Addr, svc.Handler())
package a11y

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hazyhaar/a11y/a11y/internal/fetch"
	"github.com/hazyhaar/a11y/a11y/internal/queue"
	"github.com/hazyhaar/a11y/a11y/internal/store"
	"github.com/hazyhaar/a11y/compliance"
	"github.com/hazyhaar/a11y/contrast"
	"github.com/hazyhaar/a11y/kit"
	"github.com/hazyhaar/a11y/markup"
	"github.com/hazyhaar/a11y/rules"
	"github.com/hazyhaar/a11y/shield"
	"github.com/hazyhaar/a11y/wcag"
)

// ErrNoStore is returned by persistence operations on a Service built
// without a database.
var ErrNoStore = errors.New("a11y: no report store configured")

// NotFoundError is returned when a stored report or audit job is absent.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("a11y: %s %s not found", e.Kind, e.ID)
}

// Service is the audit service.
type Service struct {
	cfg      Config
	cat      *wcag.Catalog
	engine   *rules.Engine
	eval     *compliance.Evaluator
	store    *store.Store
	queue    *queue.Queue
	fetcher  *fetch.Fetcher
	browser  *fetch.Browser
	metrics  *Metrics
	registry *prometheus.Registry
	logger   *slog.Logger

	endpoints map[string]kit.Endpoint
	limiter   *shield.RateLimiter
}

// Option configures a Service.
type Option func(*Service)

// WithCatalog uses cat instead of loading cfg.CatalogPath or the embedded catalog.
func WithCatalog(cat *wcag.Catalog) Option {
	return func(s *Service) { s.cat = cat }
}

// WithStore enables report persistence and queued audits on st.
func WithStore(st *store.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithFetcher replaces the URL fetcher.
func WithFetcher(f *fetch.Fetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithRegistry registers metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Service) { s.registry = reg }
}

// New builds a Service without persistence unless WithStore is given. The
// catalog integrity check runs here; a catalog that lacks a rule's criterion
// is a fatal *compliance.CatalogInconsistencyError.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{cfg: cfg, logger: logger}
	for _, o := range opts {
		o(s)
	}

	if s.cat == nil {
		cat, err := loadCatalog(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		s.cat = cat
	}
	if _, err := wcag.ParseLevel(cfg.DefaultLevel); err != nil {
		return nil, fmt.Errorf("a11y: default_level: %w", err)
	}

	engCfg := cfg.Engine
	if engCfg.Logger == nil {
		engCfg.Logger = logger
	}
	s.engine = rules.NewEngine(engCfg)

	eval, err := compliance.New(s.cat, s.engine)
	if err != nil {
		return nil, err
	}
	s.eval = eval

	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = NewMetrics(s.registry)

	if s.fetcher == nil {
		fopts := []fetch.Option{
			fetch.WithTimeout(cfg.Fetch.Timeout),
			fetch.WithUserAgent(cfg.Fetch.UserAgent),
			fetch.WithLogger(logger),
			fetch.AllowPrivate(cfg.Fetch.AllowPrivate),
		}
		if cfg.Fetch.RenderJS {
			s.browser = fetch.NewBrowser(fetch.BrowserConfig{
				RemoteURL:  cfg.Fetch.ChromeURL,
				NavTimeout: cfg.Fetch.Timeout,
				Logger:     logger,
			})
			fopts = append(fopts, fetch.WithRenderer(s.browser))
		}
		s.fetcher = fetch.New(fopts...)
	}

	if s.store != nil {
		s.queue = queue.New(s.store.DB, queue.Options{
			Name:        "audits",
			MaxAttempts: auditMaxAttempts,
			Logger:      logger,
		})
		if err := s.queue.EnsureTable(context.Background()); err != nil {
			return nil, fmt.Errorf("a11y: audit queue: %w", err)
		}
	}

	s.buildEndpoints()
	s.limiter = shield.NewRateLimiter(cfg.AuditRate)

	logger.Info("a11y: service ready",
		"criteria", s.cat.Len(), "catalog", s.cat.Metadata().Title, "persistence", s.store != nil)
	return s, nil
}

// Open opens the report database at cfg.DBPath and builds a Service on it.
func Open(cfg Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	cfg.defaults()
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	s, err := New(cfg, logger, append(opts, WithStore(st))...)
	if err != nil {
		st.Close()
		return nil, err
	}
	return s, nil
}

func loadCatalog(path string) (*wcag.Catalog, error) {
	if path == "" {
		return wcag.Default()
	}
	return wcag.LoadFile(path)
}

// Start runs the audit queue consumer and the rate limiter GC until ctx is
// done. Without a store only the GC runs.
func (s *Service) Start(ctx context.Context) {
	s.limiter.StartGC(ctx.Done())
	if s.queue == nil {
		return
	}
	go s.queue.Run(ctx, s.handleAuditJob)
}

// Close releases the browser and the database.
func (s *Service) Close() error {
	var errs []error
	if s.browser != nil {
		errs = append(errs, s.browser.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}

// Catalog returns the loaded catalog.
func (s *Service) Catalog() *wcag.Catalog { return s.cat }

// Registry returns the metrics registry served on /metrics.
func (s *Service) Registry() *prometheus.Registry { return s.registry }

// RunChecks runs the full rule engine over elements.
func (s *Service) RunChecks(ctx context.Context, elements []markup.Element) ([]rules.Issue, error) {
	issues, err := s.engine.Run(ctx, rules.Input{Elements: elements})
	if err != nil {
		return nil, err
	}
	s.metrics.recordIssues(issues)
	return issues, nil
}

// CheckContrast evaluates a foreground/background pair.
func (s *Service) CheckContrast(fg, bg string, fontSize float64, bold bool) (*contrast.Result, error) {
	if fontSize <= 0 {
		fontSize = 16
	}
	return contrast.Evaluate(fg, bg, fontSize, bold)
}

// CriterionDetail is a criterion with its conformance note.
type CriterionDetail struct {
	wcag.Criterion
	Conformance string `json:"conformance"`
}

// LookupCriterion returns one criterion by number.
func (s *Service) LookupCriterion(number string) (*CriterionDetail, error) {
	c, err := s.cat.Lookup(number)
	if err != nil {
		return nil, err
	}
	return &CriterionDetail{Criterion: c, Conformance: c.Level.Conformance()}, nil
}

// SearchLimit caps the criteria returned by SearchCriteria.
const SearchLimit = 20

// CriterionBrief is the search listing of a criterion.
type CriterionBrief struct {
	Number           string         `json:"number"`
	Title            string         `json:"title"`
	Level            wcag.Level     `json:"level"`
	Version          string         `json:"version"`
	Principle        wcag.Principle `json:"principle"`
	Guideline        string         `json:"guideline"`
	BriefDescription string         `json:"brief_description"`
}

// SearchResult is the outcome of SearchCriteria.
type SearchResult struct {
	SearchTerm   string           `json:"search_term"`
	TotalResults int              `json:"total_results"`
	Showing      int              `json:"showing"`
	Results      []CriterionBrief `json:"results"`
	Message      string           `json:"message,omitempty"`
}

// SearchCriteria returns the first SearchLimit matches and the total count.
// No match is an empty result, not an error.
func (s *Service) SearchCriteria(term string) *SearchResult {
	all := s.cat.Search(term)
	res := &SearchResult{SearchTerm: term, TotalResults: len(all), Results: []CriterionBrief{}}
	if len(all) == 0 {
		res.Message = "No criteria found matching the search term"
		return res
	}
	for _, c := range all[:min(len(all), SearchLimit)] {
		res.Results = append(res.Results, CriterionBrief{
			Number:           c.Number,
			Title:            c.Title,
			Level:            c.Level,
			Version:          c.Version,
			Principle:        c.Principle,
			Guideline:        c.Guideline,
			BriefDescription: brief(c.Description, 200),
		})
	}
	res.Showing = len(res.Results)
	return res
}

func brief(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// CriterionSummary is the list view of a criterion.
type CriterionSummary struct {
	Number    string         `json:"number"`
	Title     string         `json:"title"`
	Level     wcag.Level     `json:"level"`
	Version   string         `json:"version"`
	Principle wcag.Principle `json:"principle"`
	Guideline string         `json:"guideline"`
}

// ListResult is the outcome of ListCriteria.
type ListResult struct {
	Filters struct {
		Level     string `json:"level"`
		Principle string `json:"principle"`
	} `json:"filters"`
	TotalCriteria int                `json:"total_criteria"`
	Criteria      []CriterionSummary `json:"criteria"`
}

// ListCriteria filters the catalog by level and principle ("all" disables a
// filter). Results are in ascending criterion order.
func (s *Service) ListCriteria(level, principle string) (*ListResult, error) {
	if strings.TrimSpace(level) == "" {
		level = "all"
	}
	if strings.TrimSpace(principle) == "" {
		principle = "all"
	}
	cs, err := s.cat.List(level, principle)
	if err != nil {
		return nil, err
	}
	res := &ListResult{TotalCriteria: len(cs), Criteria: make([]CriterionSummary, len(cs))}
	res.Filters.Level = level
	res.Filters.Principle = principle
	for i, c := range cs {
		res.Criteria[i] = CriterionSummary{
			Number:    c.Number,
			Title:     c.Title,
			Level:     c.Level,
			Version:   c.Version,
			Principle: c.Principle,
			Guideline: c.Guideline,
		}
	}
	return res, nil
}

// EvaluateCompliance scores elements against target ("A", "AA" or "AAA").
// An empty target uses the configured default level.
func (s *Service) EvaluateCompliance(ctx context.Context, elements []markup.Element, target string, opts compliance.Options) (*compliance.Report, error) {
	if strings.TrimSpace(target) == "" {
		target = s.cfg.DefaultLevel
	}
	r, err := s.eval.Evaluate(ctx, elements, target, opts)
	if err != nil {
		return nil, err
	}
	s.metrics.recordReport(r)
	return r, nil
}

// CheckResult groups the issues of an HTML check by severity.
type CheckResult struct {
	TotalIssues int           `json:"total_issues"`
	Errors      []rules.Issue `json:"errors"`
	Warnings    []rules.Issue `json:"warnings"`
	Info        []rules.Issue `json:"info"`
	Summary     rules.Summary `json:"summary"`
}

// CheckOptions tune CheckHTML.
type CheckOptions struct {
	// IncludeWarnings keeps warnings and advisories; false keeps errors only.
	IncludeWarnings bool
	// ContrastReminder appends the color-contrast-check advisory.
	ContrastReminder bool
}

// CheckHTML parses src and runs every rule, including the focus check over
// its style sheets.
func (s *Service) CheckHTML(ctx context.Context, src string, opts CheckOptions) (*CheckResult, error) {
	doc, err := markup.ParseString(src)
	if err != nil {
		return nil, err
	}
	issues, err := s.engine.Run(ctx, rules.Input{
		Elements:         doc.Elements,
		StyleRules:       doc.StyleRules,
		ContrastReminder: opts.ContrastReminder,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.recordIssues(issues)
	if !opts.IncludeWarnings {
		issues = rules.ErrorsOnly(issues)
	}

	res := &CheckResult{
		TotalIssues: len(issues),
		Errors:      []rules.Issue{},
		Warnings:    []rules.Issue{},
		Info:        []rules.Issue{},
		Summary:     rules.Summarize(issues),
	}
	for _, is := range issues {
		switch is.Severity {
		case rules.SeverityError:
			res.Errors = append(res.Errors, is)
		case rules.SeverityWarning:
			res.Warnings = append(res.Warnings, is)
		case rules.SeverityInfo:
			res.Info = append(res.Info, is)
		}
	}
	return res, nil
}

// EvaluateHTML parses src, scores it and stores the report when a store is
// configured.
func (s *Service) EvaluateHTML(ctx context.Context, src, target string, includeSuggestions bool, source string) (*compliance.Report, error) {
	doc, err := markup.ParseString(src)
	if err != nil {
		return nil, err
	}
	r, err := s.EvaluateCompliance(ctx, doc.Elements, target, compliance.Options{
		IncludeSuggestions: includeSuggestions,
		Source:             source,
		StyleRules:         doc.StyleRules,
	})
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) save(ctx context.Context, r *compliance.Report) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.InsertReport(ctx, r); err != nil {
		return err
	}
	s.logger.Info("a11y: report stored", "id", r.ID, "status", r.Status.String(),
		"percentage", r.CompliancePercentage, "source", r.Source)
	return nil
}

// GuidanceEntry is one criterion applicable to a technique.
type GuidanceEntry struct {
	Number                 string     `json:"number"`
	Title                  string     `json:"title"`
	Level                  wcag.Level `json:"level"`
	Description            string     `json:"description"`
	Guideline              string     `json:"guideline"`
	ImplementationPriority string     `json:"implementation_priority"`
}

// GuidanceResult lists the criteria for an element type.
type GuidanceResult struct {
	ElementType        string          `json:"element_type"`
	Context            string          `json:"context,omitempty"`
	ApplicableCriteria int             `json:"applicable_criteria"`
	Guidance           []GuidanceEntry `json:"guidance"`
	Summary            string          `json:"summary"`
}

// Guidance returns the curated criteria for a technique (images, forms,
// color...), A first. Unknown techniques are a *wcag.ValidationError.
func (s *Service) Guidance(technique, usage string) (*GuidanceResult, error) {
	cs, err := s.cat.ForTechnique(strings.ToLower(strings.TrimSpace(technique)))
	if err != nil {
		return nil, err
	}
	wcag.SortByLevel(cs)
	res := &GuidanceResult{
		ElementType:        technique,
		Context:            usage,
		ApplicableCriteria: len(cs),
		Guidance:           make([]GuidanceEntry, len(cs)),
		Summary:            fmt.Sprintf("Found %d WCAG criteria applicable to %s", len(cs), technique),
	}
	for i, c := range cs {
		res.Guidance[i] = GuidanceEntry{
			Number:                 c.Number,
			Title:                  c.Title,
			Level:                  c.Level,
			Description:            c.Description,
			Guideline:              c.Guideline,
			ImplementationPriority: c.Level.Priority(),
		}
	}
	return res, nil
}
