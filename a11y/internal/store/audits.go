package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hazyhaar/a11y/dbopen"
)

// Audit job states.
const (
	AuditQueued  = "queued"
	AuditRunning = "running"
	AuditDone    = "done"
	AuditFailed  = "failed"
)

// AuditJob tracks one queued URL audit.
type AuditJob struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	TargetLevel string    `json:"target_level"`
	Status      string    `json:"status"`
	ReportID    string    `json:"report_id,omitempty"`
	Error       string    `json:"error,omitempty"`
	Attempts    int       `json:"attempts"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InsertAuditJob records a new job in the queued state.
func (s *Store) InsertAuditJob(ctx context.Context, j *AuditJob) error {
	now := time.Now().UTC()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = j.CreatedAt
	if j.Status == "" {
		j.Status = AuditQueued
	}
	_, err := dbopen.Exec(ctx, s.DB, `
		INSERT INTO audit_jobs (id, url, target_level, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		j.ID, j.URL, j.TargetLevel, j.Status, j.CreatedAt.UnixMilli(), j.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("store: insert audit job: %w", err)
	}
	return nil
}

// UpdateAuditJob moves a job to status and records its outcome.
func (s *Store) UpdateAuditJob(ctx context.Context, id, status, reportID, errMsg string, attempts int) error {
	_, err := dbopen.Exec(ctx, s.DB, `
		UPDATE audit_jobs
		SET status = ?, report_id = ?, error = ?, attempts = ?, updated_at = ?
		WHERE id = ?`,
		status, reportID, errMsg, attempts, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("store: update audit job: %w", err)
	}
	return nil
}

// GetAuditJob returns the job, or nil if id is unknown.
func (s *Store) GetAuditJob(ctx context.Context, id string) (*AuditJob, error) {
	var (
		j        AuditJob
		cre, upd int64
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, url, target_level, status, report_id, error, attempts, created_at, updated_at
		FROM audit_jobs WHERE id = ?`, id).
		Scan(&j.ID, &j.URL, &j.TargetLevel, &j.Status, &j.ReportID, &j.Error, &j.Attempts, &cre, &upd)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get audit job: %w", err)
	}
	j.CreatedAt = time.UnixMilli(cre).UTC()
	j.UpdatedAt = time.UnixMilli(upd).UTC()
	return &j, nil
}
