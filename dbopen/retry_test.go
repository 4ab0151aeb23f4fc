package dbopen

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
)

func TestRetryBusy_Exhausted(t *testing.T) {
	busyBackoff = time.Millisecond
	t.Cleanup(func() { busyBackoff = 100 * time.Millisecond })

	calls := 0
	locked := errors.New("database is locked (5) (SQLITE_BUSY)")
	err := retryBusy(context.Background(), "exec", func() error {
		calls++
		return locked
	})
	if calls != busyAttempts {
		t.Fatalf("calls = %d, want %d", calls, busyAttempts)
	}
	if !errors.Is(err, ErrBusy) || !errors.Is(err, locked) {
		t.Fatalf("err = %v, want ErrBusy wrapping the driver error", err)
	}
	if !IsBusy(err) {
		t.Fatal("IsBusy should hold for an exhausted retry")
	}
}

func TestRetryBusy_RecoversAndStopsOnOtherErrors(t *testing.T) {
	busyBackoff = time.Millisecond
	t.Cleanup(func() { busyBackoff = 100 * time.Millisecond })

	calls := 0
	err := retryBusy(context.Background(), "tx", func() error {
		calls++
		if calls == 1 {
			return errors.New("SQLITE_BUSY")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("err = %v calls = %d, want nil after 2", err, calls)
	}

	calls = 0
	boom := errors.New("constraint failed")
	err = retryBusy(context.Background(), "tx", func() error {
		calls++
		return boom
	})
	if err != boom || calls != 1 {
		t.Fatalf("err = %v calls = %d, want boom once", err, calls)
	}
}

func TestRunTx_BusyCallbackReportsErrBusy(t *testing.T) {
	busyBackoff = time.Millisecond
	t.Cleanup(func() { busyBackoff = 100 * time.Millisecond })

	db := OpenMemory(t)
	calls := 0
	err := RunTx(context.Background(), db, func(*sql.Tx) error {
		calls++
		return errors.New("database table is locked")
	})
	if !errors.Is(err, ErrBusy) || calls != busyAttempts {
		t.Fatalf("err = %v calls = %d", err, calls)
	}
}

func TestRetryBusy_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retryBusy(ctx, "exec", func() error { return errors.New("SQLITE_BUSY") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
