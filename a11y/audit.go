package a11y

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/hazyhaar/a11y/a11y/internal/queue"
	"github.com/hazyhaar/a11y/a11y/internal/store"
	"github.com/hazyhaar/a11y/compliance"
	"github.com/hazyhaar/a11y/idgen"
	"github.com/hazyhaar/a11y/wcag"
)

var newAuditID = idgen.Prefixed("aud_", idgen.Default)

const auditMaxAttempts = 3

func validateURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &wcag.ValidationError{Field: "url", Value: raw, Allowed: []string{"http://...", "https://..."}}
	}
	return u.String(), nil
}

func (s *Service) targetOrDefault(target string) (wcag.Level, error) {
	if strings.TrimSpace(target) == "" {
		target = s.cfg.DefaultLevel
	}
	return wcag.ParseLevel(target)
}

// AuditURL fetches pageURL, scores it against target and stores the report.
func (s *Service) AuditURL(ctx context.Context, pageURL, target string, includeSuggestions bool) (*compliance.Report, error) {
	u, err := validateURL(pageURL)
	if err != nil {
		return nil, err
	}
	if _, err := s.targetOrDefault(target); err != nil {
		return nil, err
	}
	page, err := s.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	if !page.Sufficient {
		s.logger.Warn("a11y: page looks like a script shell", "url", u, "rendered", page.Rendered)
	}
	return s.EvaluateHTML(ctx, string(page.Body), target, includeSuggestions, page.FinalURL)
}

type auditPayload struct {
	URL    string `json:"url"`
	Target string `json:"target"`
}

// EnqueueAudit records a URL audit and queues it for the background
// consumer started by Start.
func (s *Service) EnqueueAudit(ctx context.Context, pageURL, target string) (*store.AuditJob, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	u, err := validateURL(pageURL)
	if err != nil {
		return nil, err
	}
	lvl, err := s.targetOrDefault(target)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(auditPayload{URL: u, Target: lvl.String()})
	if err != nil {
		return nil, fmt.Errorf("a11y: encode audit job: %w", err)
	}
	j := &store.AuditJob{ID: newAuditID(), URL: u, TargetLevel: lvl.String()}
	if err := s.store.InsertAuditJob(ctx, j); err != nil {
		return nil, err
	}
	if err := s.queue.Publish(ctx, j.ID, payload); err != nil {
		return nil, fmt.Errorf("a11y: queue audit: %w", err)
	}
	s.logger.Info("a11y: audit queued", "id", j.ID, "url", u, "target", j.TargetLevel)
	return j, nil
}

// AuditJob returns a queued audit by id.
func (s *Service) AuditJob(ctx context.Context, id string) (*store.AuditJob, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	if _, err := idgen.ParsePrefixed("aud_", id); err != nil {
		return nil, &wcag.ValidationError{Field: "audit id", Value: id, Allowed: []string{"aud_<uuid>"}}
	}
	j, err := s.store.GetAuditJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, &NotFoundError{Kind: "audit", ID: id}
	}
	return j, nil
}

func (s *Service) handleAuditJob(ctx context.Context, job *queue.Job) error {
	var p auditPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		s.logger.Error("a11y: bad audit payload, dropping", "id", job.ID, "error", err)
		return s.store.UpdateAuditJob(ctx, job.ID, store.AuditFailed, "", err.Error(), job.Attempts)
	}
	if err := s.store.UpdateAuditJob(ctx, job.ID, store.AuditRunning, "", "", job.Attempts); err != nil {
		return err
	}

	r, err := s.AuditURL(ctx, p.URL, p.Target, true)
	if err != nil {
		status := store.AuditQueued
		if job.Attempts >= auditMaxAttempts {
			status = store.AuditFailed
		}
		if uerr := s.store.UpdateAuditJob(ctx, job.ID, status, "", err.Error(), job.Attempts); uerr != nil {
			s.logger.Warn("a11y: update audit job", "id", job.ID, "error", uerr)
		}
		if status == store.AuditFailed {
			return nil
		}
		return err
	}
	return s.store.UpdateAuditJob(ctx, job.ID, store.AuditDone, r.ID, "", job.Attempts)
}

// Report returns a stored report by id.
func (s *Service) Report(ctx context.Context, id string) (*compliance.Report, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	if _, err := idgen.ParsePrefixed("rpt_", id); err != nil {
		return nil, &wcag.ValidationError{Field: "report id", Value: id, Allowed: []string{"rpt_<uuid>"}}
	}
	r, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &NotFoundError{Kind: "report", ID: id}
	}
	return r, nil
}

// Reports lists stored reports, newest first.
func (s *Service) Reports(ctx context.Context, limit int) ([]*store.ReportRow, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	rows, err := s.store.ListReports(ctx, limit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*store.ReportRow{}
	}
	return rows, nil
}

// DeleteReport removes a stored report.
func (s *Service) DeleteReport(ctx context.Context, id string) error {
	if _, err := s.Report(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteReport(ctx, id)
}

// ViolationStat is the number of stored violations against one criterion.
type ViolationStat struct {
	Criterion string     `json:"criterion"`
	Title     string     `json:"title"`
	Level     wcag.Level `json:"level,omitzero"`
	Count     int        `json:"count"`
}

// ViolationStats aggregates stored violations per criterion, most frequent first.
func (s *Service) ViolationStats(ctx context.Context) ([]ViolationStat, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	counts, err := s.store.CriterionCounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ViolationStat, 0, len(counts))
	for _, c := range counts {
		st := ViolationStat{Criterion: c.Criterion, Count: c.Count}
		if cr, err := s.cat.Lookup(c.Criterion); err == nil {
			st.Title = cr.Title
			st.Level = cr.Level
		}
		out = append(out, st)
	}
	return out, nil
}
