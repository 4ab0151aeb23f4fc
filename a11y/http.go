package a11y

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazyhaar/a11y/a11y/internal/fetch"
	"github.com/hazyhaar/a11y/compliance"
	"github.com/hazyhaar/a11y/contrast"
	"github.com/hazyhaar/a11y/shield"
	"github.com/hazyhaar/a11y/wcag"
)

// Handler returns the JSON API, the health probe and the metrics endpoint.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	for _, mw := range shield.APIStack(s.logger, s.cfg.MaxBody) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]any{"status": "ok", "criteria": s.cat.Len()})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/check", s.handleBody(opCheckHTML, decodeJSON[CheckHTMLRequest]))
		r.Post("/check/elements", s.handleBody(opRunChecks, decodeJSON[ElementsRequest]))
		r.Post("/contrast", s.handleBody(opCheckContrast, decodeJSON[ContrastRequest]))

		r.Get("/criteria", s.handleBody(opListCriteria, func(r *http.Request) (any, error) {
			q := r.URL.Query()
			return &ListRequest{Level: q.Get("level"), Principle: q.Get("principle")}, nil
		}))
		r.Get("/criteria/search", s.handleBody(opSearchCriteria, func(r *http.Request) (any, error) {
			return &SearchRequest{Term: r.URL.Query().Get("q")}, nil
		}))
		r.Get("/criteria/{number}", s.handleBody(opGetCriterion, func(r *http.Request) (any, error) {
			return &CriterionRequest{Number: chi.URLParam(r, "number")}, nil
		}))
		r.Get("/guidance/{technique}", s.handleBody(opGuidance, func(r *http.Request) (any, error) {
			return &GuidanceRequest{ElementType: chi.URLParam(r, "technique"), Context: r.URL.Query().Get("context")}, nil
		}))

		r.Post("/compliance", s.handleBody(opValidate, decodeJSON[ComplianceRequest]))
		r.Post("/compliance/elements", s.handleBody(opEvaluateElems, decodeJSON[ElementsRequest]))
		r.With(s.limiter.Middleware).Post("/audit", s.handleAudit)
		r.Get("/audits/{id}", s.handleBody(opGetAudit, idParam))

		r.Get("/reports", s.handleBody(opListReports, func(r *http.Request) (any, error) {
			limit := 0
			if v := r.URL.Query().Get("limit"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					return nil, &RequestError{Field: "limit", Rule: "number"}
				}
				limit = n
			}
			return &ListReportsRequest{Limit: limit}, nil
		}))
		r.Get("/reports/{id}", s.handleReport)
		r.Delete("/reports/{id}", s.handleBody(opDeleteReport, idParam))

		r.Get("/stats/violations", s.handleBody(opViolationStats, func(*http.Request) (any, error) {
			return nil, nil
		}))
		r.Post("/aria", s.handleBody(opSuggestARIA, decodeJSON[ARIARequest]))
		r.Post("/forms", s.handleBody(opGenerateForm, decodeJSON[FormRequest]))
	})
	return r
}

func decodeJSON[T any](r *http.Request) (any, error) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, &RequestError{Field: "body", Rule: "json", Param: err.Error()}
	}
	return &v, nil
}

func idParam(r *http.Request) (any, error) {
	return &IDRequest{ID: chi.URLParam(r, "id")}, nil
}

// handleBody decodes a request, runs op and writes its result as JSON.
func (s *Service) handleBody(op string, decode func(*http.Request) (any, error)) http.HandlerFunc {
	ep := s.endpoint(op)
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decode(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp, err := ep(r.Context(), req)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, 200, resp)
	}
}

func (s *Service) handleAudit(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[AuditRequest](r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.endpoint(opAuditURL)(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	code := 200
	if req.(*AuditRequest).Async {
		code = http.StatusAccepted
	}
	writeJSON(w, code, resp)
}

// handleReport serves a stored report as JSON, a standalone HTML page or
// markdown, selected by ?format=.
func (s *Service) handleReport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	switch format {
	case "", "json", "html", "md", "markdown":
	default:
		s.writeError(w, r, &wcag.ValidationError{Field: "format", Value: format, Allowed: []string{"json", "html", "md"}})
		return
	}
	resp, err := s.endpoint(opGetReport)(r.Context(), &IDRequest{ID: chi.URLParam(r, "id")})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rep := resp.(*compliance.Report)

	switch format {
	case "html":
		page, err := RenderHTML(rep)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	case "md", "markdown":
		md, err := RenderMarkdown(rep)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		io.WriteString(w, md)
	default:
		writeJSON(w, 200, rep)
	}
}

// statusFor maps an operation error to its HTTP status.
func statusFor(err error) int {
	var (
		reqErr    *RequestError
		valErr    *wcag.ValidationError
		parseErr  *contrast.ParseError
		wcagNF    *wcag.NotFoundError
		notFound  *NotFoundError
		statusErr *fetch.StatusError
		addrErr   *fetch.AddressError
		tooLarge  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &reqErr), errors.As(err, &valErr), errors.As(err, &parseErr), errors.As(err, &addrErr):
		return http.StatusBadRequest
	case errors.As(err, &wcagNF), errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrNoStore):
		return http.StatusServiceUnavailable
	case errors.As(err, &statusErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= 500 {
		shield.GetLogger(r.Context()).Error("a11y: request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
