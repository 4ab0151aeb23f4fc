// Package queue is a visibility-timeout job queue stored in SQLite. A claimed
// job is hidden for the visibility window; it is deleted on Ack and becomes
// claimable again on Nack or when the window lapses without an Ack.
//
// URL audits run through it so slow fetches and browser renders happen off
// the request path and survive a restart.
package queue

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"
)

// Schema creates the job table. New applies it through EnsureTable.
const Schema = `
CREATE TABLE IF NOT EXISTS queue_jobs (
	id         TEXT PRIMARY KEY,
	queue      TEXT NOT NULL DEFAULT '',
	payload    BLOB,
	visible_at INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	attempts   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_queue_visible ON queue_jobs (queue, visible_at);
`

// Job is one claimed row.
type Job struct {
	ID        string
	Payload   []byte
	Attempts  int
	CreatedAt time.Time
}

// Options configures a Queue.
type Options struct {
	// Name separates logical queues sharing the table.
	Name string
	// Visibility is how long a claimed job stays hidden. Default: 2m.
	Visibility time.Duration
	// PollInterval is the Run loop period. Default: 1s.
	PollInterval time.Duration
	// RetryDelay hides a failed job before its next delivery. Default: 30s.
	RetryDelay time.Duration
	// MaxAttempts drops a job once it has been delivered this many times.
	// 0 means unlimited.
	MaxAttempts int
	Logger      *slog.Logger
}

func (o *Options) defaults() {
	if o.Visibility <= 0 {
		o.Visibility = 2 * time.Minute
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Queue is the handle on one logical queue.
type Queue struct {
	db   *sql.DB
	opts Options
	now  func() time.Time
}

// New returns a handle. Call EnsureTable once before use.
func New(db *sql.DB, opts Options) *Queue {
	opts.defaults()
	return &Queue{db: db, opts: opts, now: time.Now}
}

// EnsureTable creates the job table if needed.
func (q *Queue) EnsureTable(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, Schema)
	return err
}

// Publish adds an immediately visible job.
func (q *Queue) Publish(ctx context.Context, id string, payload []byte) error {
	now := q.now().UnixMilli()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO queue_jobs (id, queue, payload, visible_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, q.opts.Name, payload, now, now,
	)
	return err
}

// Claim hides and returns the oldest visible job, or nil when none is visible.
func (q *Queue) Claim(ctx context.Context) (*Job, error) {
	now := q.now()
	var (
		j      Job
		create int64
	)
	err := q.db.QueryRowContext(ctx, `
		UPDATE queue_jobs
		SET visible_at = ?, attempts = attempts + 1
		WHERE id = (
			SELECT id FROM queue_jobs
			WHERE queue = ? AND visible_at <= ?
			ORDER BY visible_at ASC, created_at ASC
			LIMIT 1
		)
		RETURNING id, payload, created_at, attempts`,
		now.Add(q.opts.Visibility).UnixMilli(), q.opts.Name, now.UnixMilli(),
	).Scan(&j.ID, &j.Payload, &create, &j.Attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	j.CreatedAt = time.UnixMilli(create)
	return &j, nil
}

// Ack deletes a processed job.
func (q *Queue) Ack(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM queue_jobs WHERE id = ? AND queue = ?`, id, q.opts.Name)
	return err
}

// Nack makes a job visible again at once.
func (q *Queue) Nack(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE queue_jobs SET visible_at = 0 WHERE id = ? AND queue = ?`, id, q.opts.Name)
	return err
}

// Retry hides a job for delay before it can be claimed again.
func (q *Queue) Retry(ctx context.Context, id string, delay time.Duration) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE queue_jobs SET visible_at = ? WHERE id = ? AND queue = ?`,
		q.now().Add(delay).UnixMilli(), id, q.opts.Name)
	return err
}

// Len counts visible and hidden jobs.
func (q *Queue) Len(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue_jobs WHERE queue = ?`, q.opts.Name).Scan(&n)
	return n, err
}

// Handler processes a job. nil acks it; an error schedules a retry after
// RetryDelay.
type Handler func(ctx context.Context, job *Job) error

// Run drains visible jobs every PollInterval until ctx is done.
func (q *Queue) Run(ctx context.Context, handler Handler) {
	log := q.opts.Logger
	log.Info("queue: consumer started", "queue", q.opts.Name, "visibility", q.opts.Visibility)

	t := time.NewTicker(q.opts.PollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("queue: consumer stopped", "queue", q.opts.Name)
			return
		case <-t.C:
			q.Drain(ctx, handler)
		}
	}
}

// Drain processes jobs until none is visible. It returns the number handled.
func (q *Queue) Drain(ctx context.Context, handler Handler) int {
	log := q.opts.Logger
	n := 0
	for ctx.Err() == nil {
		job, err := q.Claim(ctx)
		if err != nil {
			log.Warn("queue: claim failed", "queue", q.opts.Name, "error", err)
			return n
		}
		if job == nil {
			return n
		}
		n++

		if q.opts.MaxAttempts > 0 && job.Attempts > q.opts.MaxAttempts {
			log.Warn("queue: dropping job after max attempts",
				"queue", q.opts.Name, "id", job.ID, "attempts", job.Attempts)
			_ = q.Ack(ctx, job.ID)
			continue
		}
		if err := handler(ctx, job); err != nil {
			log.Warn("queue: handler failed, retrying later",
				"queue", q.opts.Name, "id", job.ID, "attempts", job.Attempts, "error", err)
			_ = q.Retry(context.WithoutCancel(ctx), job.ID, q.opts.RetryDelay)
			continue
		}
		_ = q.Ack(context.WithoutCancel(ctx), job.ID)
	}
	return n
}
