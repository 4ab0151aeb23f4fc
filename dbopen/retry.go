package dbopen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrBusy wraps the last error of an operation that stayed busy through
// every attempt.
var ErrBusy = errors.New("dbopen: database busy")

const busyAttempts = 3

// busyBackoff is the base wait; attempt n waits n*busyBackoff.
var busyBackoff = 100 * time.Millisecond

var busyMarkers = []string{"SQLITE_BUSY", "database is locked", "database table is locked"}

// IsBusy reports whether err is an SQLite lock conflict worth retrying.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBusy) {
		return true
	}
	msg := err.Error()
	for _, m := range busyMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// retryBusy calls fn until it succeeds, fails with a non-busy error, or
// runs out of attempts. Exhaustion is reported as ErrBusy.
func retryBusy(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= busyAttempts; attempt++ {
		if err = fn(); err == nil || !IsBusy(err) {
			return err
		}
		if attempt == busyAttempts {
			break
		}
		t := time.NewTimer(time.Duration(attempt) * busyBackoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("dbopen: %s: %w", op, ctx.Err())
		case <-t.C:
		}
	}
	return fmt.Errorf("dbopen: %s: %w after %d attempts: %w", op, ErrBusy, busyAttempts, err)
}

// RunTx runs fn in a transaction, retrying the whole transaction while
// SQLite reports a lock conflict. fn's own error is returned unwrapped.
func RunTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	return retryBusy(ctx, "tx", func() error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("dbopen: begin tx: %w", err)
		}
		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("dbopen: commit: %w", err)
		}
		return nil
	})
}

// Exec runs a single statement with the same busy retry as RunTx.
func Exec(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := retryBusy(ctx, "exec", func() error {
		var err error
		res, err = db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
