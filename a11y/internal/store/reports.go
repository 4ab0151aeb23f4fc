package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/a11y/compliance"
	"github.com/hazyhaar/a11y/dbopen"
)

// ReportRow is the listing view of a stored report.
type ReportRow struct {
	ID                   string    `json:"id"`
	TargetLevel          string    `json:"target_level"`
	Status               string    `json:"compliance_status"`
	CompliancePercentage float64   `json:"compliance_percentage"`
	RequiredCriteria     int       `json:"total_required_criteria"`
	ViolatedCriteria     int       `json:"violated_criteria"`
	TotalViolations      int       `json:"total_violations"`
	Source               string    `json:"source,omitempty"`
	Summary              string    `json:"summary"`
	CreatedAt            time.Time `json:"created_at"`
}

// CriterionCount is the number of stored violations against one criterion.
type CriterionCount struct {
	Criterion string `json:"criterion"`
	Count     int    `json:"count"`
}

// InsertReport stores r and its violations in one transaction.
func (s *Store) InsertReport(ctx context.Context, r *compliance.Report) error {
	if r.ID == "" {
		return errors.New("store: report has no id")
	}
	blob, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("store: encode report: %w", err)
	}
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reports (id, target_level, status, compliance_percentage,
				required_criteria, violated_criteria, total_violations,
				source, summary, report_json, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.TargetLevel.String(), r.Status.String(), r.CompliancePercentage,
			r.RequiredCriteria, len(r.ViolatedCriteria), r.TotalViolations,
			r.Source, r.Summary, string(blob), r.CreatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("store: insert report: %w", err)
		}
		for i, v := range r.Violations {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO report_violations (report_id, seq, criterion, rule_id, severity, message)
				VALUES (?, ?, ?, ?, ?, ?)`,
				r.ID, i, v.Criterion, string(v.RuleID), v.Severity.String(), v.Message,
			)
			if err != nil {
				return fmt.Errorf("store: insert violation: %w", err)
			}
		}
		return nil
	})
}

// GetReport returns the stored report, or nil if id is unknown.
func (s *Store) GetReport(ctx context.Context, id string) (*compliance.Report, error) {
	var blob string
	err := s.DB.QueryRowContext(ctx,
		`SELECT report_json FROM reports WHERE id = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get report: %w", err)
	}
	var r compliance.Report
	if err := json.Unmarshal([]byte(blob), &r); err != nil {
		return nil, fmt.Errorf("store: decode report %s: %w", id, err)
	}
	return &r, nil
}

// ListReports returns the most recent reports first. limit <= 0 means 50.
func (s *Store) ListReports(ctx context.Context, limit int) ([]*ReportRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, target_level, status, compliance_percentage, required_criteria,
			violated_criteria, total_violations, source, summary, created_at
		FROM reports ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list reports: %w", err)
	}
	defer rows.Close()

	var out []*ReportRow
	for rows.Next() {
		var (
			r  ReportRow
			ts int64
		)
		if err := rows.Scan(&r.ID, &r.TargetLevel, &r.Status, &r.CompliancePercentage,
			&r.RequiredCriteria, &r.ViolatedCriteria, &r.TotalViolations,
			&r.Source, &r.Summary, &ts); err != nil {
			return nil, fmt.Errorf("store: scan report: %w", err)
		}
		r.CreatedAt = time.UnixMilli(ts).UTC()
		out = append(out, &r)
	}
	return out, rows.Err()
}

// DeleteReport removes a report and its violations. Unknown ids are not an error.
func (s *Store) DeleteReport(ctx context.Context, id string) error {
	_, err := dbopen.Exec(ctx, s.DB, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete report: %w", err)
	}
	return nil
}

// CriterionCounts returns violation totals per criterion across all stored
// reports, most violated first.
func (s *Store) CriterionCounts(ctx context.Context) ([]CriterionCount, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT criterion, COUNT(*) AS n FROM report_violations
		GROUP BY criterion ORDER BY n DESC, criterion ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: criterion counts: %w", err)
	}
	defer rows.Close()

	var out []CriterionCount
	for rows.Next() {
		var c CriterionCount
		if err := rows.Scan(&c.Criterion, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
