package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func wantStatus(t *testing.T, l *MigrationLimiter, active, available int) {
	t.Helper()
	got := l.Status()
	want := MigrationLimiterStatus{Active: active, Available: available, MaxConcurrent: l.MaxConcurrent()}
	if got != want {
		t.Errorf("Status() = %+v, want %+v", got, want)
	}
}

func TestMigrationLimiter_SlotAccounting(t *testing.T) {
	l := NewMigrationLimiter(2, time.Second)
	ctx := context.Background()
	wantStatus(t, l, 0, 2)

	for i := 0; i < 2; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("Acquire #%d: %v", i+1, err)
		}
	}
	wantStatus(t, l, 2, 0)
	if l.TryAcquire() {
		t.Fatal("TryAcquire succeeded on a full limiter")
	}

	l.Release()
	wantStatus(t, l, 1, 1)
	if !l.TryAcquire() {
		t.Fatal("TryAcquire failed with a free slot")
	}
	l.Release()
	l.Release()
	wantStatus(t, l, 0, 2)
}

func TestMigrationLimiter_Defaults(t *testing.T) {
	l := NewMigrationLimiter(0, 0)
	if l.MaxConcurrent() != DefaultMaxConcurrentMigrations {
		t.Errorf("MaxConcurrent() = %d, want %d", l.MaxConcurrent(), DefaultMaxConcurrentMigrations)
	}
	if l.maxWait != DefaultMaxWaitTime {
		t.Errorf("maxWait = %v, want %v", l.maxWait, DefaultMaxWaitTime)
	}
}

func TestMigrationLimiter_AcquireErrors(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		wantErr error
	}{
		{"wait expires", context.Background(), ErrTooManyMigrations},
		{"caller cancelled", cancelled, context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewMigrationLimiter(1, 50*time.Millisecond)
			if !l.TryAcquire() {
				t.Fatal("TryAcquire failed on an empty limiter")
			}
			defer l.Release()

			err := l.Acquire(tt.ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Acquire() error = %v, want %v", err, tt.wantErr)
			}
			if got := l.ActiveCount(); got != 1 {
				t.Errorf("ActiveCount() = %d after failed Acquire, want 1", got)
			}
		})
	}
}

func TestMigrationLimiter_BoundsConcurrency(t *testing.T) {
	const limit = 3
	l := NewMigrationLimiter(limit, 5*time.Second)

	var running, peak atomic.Int32
	var g errgroup.Group
	for i := 0; i < 12; i++ {
		g.Go(func() error {
			if err := l.Acquire(context.Background()); err != nil {
				return err
			}
			defer l.Release()

			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if p := peak.Load(); p > limit {
		t.Errorf("peak concurrency = %d, want <= %d", p, limit)
	}
	wantStatus(t, l, 0, limit)
}

func TestMigrationLimiter_WaitForDrain(t *testing.T) {
	t.Run("returns once idle", func(t *testing.T) {
		l := NewMigrationLimiter(1, time.Second)
		if !l.TryAcquire() {
			t.Fatal("TryAcquire failed")
		}
		released := make(chan struct{})
		go func() {
			time.Sleep(20 * time.Millisecond)
			l.Release()
			close(released)
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.WaitForDrain(ctx); err != nil {
			t.Errorf("WaitForDrain() error = %v", err)
		}
		<-released
	})

	t.Run("gives up with the context", func(t *testing.T) {
		l := NewMigrationLimiter(1, time.Second)
		if !l.TryAcquire() {
			t.Fatal("TryAcquire failed")
		}
		defer l.Release()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		if err := l.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("WaitForDrain() error = %v, want deadline exceeded", err)
		}
	})
}
