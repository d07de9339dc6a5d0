package core

// limiter.go bounds how many migrations the HTTP front end runs at once.
//
// Slots are taken from a weighted semaphore. When all slots are occupied,
// new requests wait up to maxWait before failing with ErrTooManyMigrations.
// WaitForDrain blocks until every active migration has finished and is used
// during graceful shutdown.

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyMigrations is returned when all slots are occupied and the wait
// timeout expires. Clients should retry after a short delay.
var ErrTooManyMigrations = errors.New("too many migrations in progress, please try again later")

// DefaultMaxConcurrentMigrations is the default limit for parallel migrations.
const DefaultMaxConcurrentMigrations = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// MigrationLimiter controls concurrent migration processing.
type MigrationLimiter struct {
	sem     *semaphore.Weighted
	max     int
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewMigrationLimiter creates a limiter that allows at most maxConcurrent
// simultaneous migrations. Requests that cannot acquire a slot within
// maxWait receive ErrTooManyMigrations.
func NewMigrationLimiter(maxConcurrent int, maxWait time.Duration) *MigrationLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentMigrations
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &MigrationLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     maxConcurrent,
		maxWait: maxWait,
	}
}

// Acquire waits for a slot.
// The caller MUST call Release() when the migration completes (use defer).
func (l *MigrationLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		// Distinguish caller cancellation from our own timeout
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyMigrations
	}

	l.mu.Lock()
	l.active++
	l.mu.Unlock()
	return nil
}

// TryAcquire takes a slot without blocking and reports whether it did.
func (l *MigrationLimiter) TryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.mu.Lock()
	l.active++
	l.mu.Unlock()
	return true
}

// Release returns a previously acquired slot.
// Must be called exactly once for each successful Acquire/TryAcquire.
func (l *MigrationLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	l.sem.Release(1)
}

// ActiveCount returns the number of running migrations.
func (l *MigrationLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the maximum allowed concurrent migrations.
func (l *MigrationLimiter) MaxConcurrent() int {
	return l.max
}

// Available returns the number of free slots.
func (l *MigrationLimiter) Available() int {
	return l.max - l.ActiveCount()
}

// WaitForDrain blocks until all active migrations complete or ctx is done.
func (l *MigrationLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// MigrationLimiterStatus is a snapshot of the limiter's state.
type MigrationLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *MigrationLimiter) Status() MigrationLimiterStatus {
	active := l.ActiveCount()
	return MigrationLimiterStatus{
		Active:        active,
		Available:     l.max - active,
		MaxConcurrent: l.max,
	}
}
