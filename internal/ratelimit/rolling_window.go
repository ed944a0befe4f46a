/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raulk/clock"

	"github.com/acronis/phrase-migrate/lrucache"
)

// RollingWindowLimiter keeps the exact log of admission timestamps.
// A request is allowed only if fewer than Rate.Count admissions happened in the trailing Rate.Duration.
// Timestamps that left the window are pruned on every check, so the log never exceeds Rate.Count entries.
type RollingWindowLimiter struct {
	maxRate Rate
	clock   clock.Clock
	getLog  func(key string) *admissionLog
}

// NewRollingWindowLimiter creates a new rolling window rate limiter that uses the wall clock.
func NewRollingWindowLimiter(maxRate Rate, maxKeys int) (*RollingWindowLimiter, error) {
	return NewRollingWindowLimiterWithClock(maxRate, maxKeys, nil)
}

// NewRollingWindowLimiterWithClock creates a new rolling window rate limiter with the given clock.
func NewRollingWindowLimiterWithClock(maxRate Rate, maxKeys int, clk clock.Clock) (*RollingWindowLimiter, error) {
	if maxRate.Count <= 0 || maxRate.Duration <= 0 {
		return nil, fmt.Errorf("invalid rate %s, count and duration must be positive", maxRate)
	}
	if clk == nil {
		clk = clock.New()
	}
	if maxKeys == 0 {
		al := newAdmissionLog(maxRate.Count)
		return &RollingWindowLimiter{
			maxRate: maxRate,
			clock:   clk,
			getLog:  func(string) *admissionLog { return al },
		}, nil
	}

	store, err := lrucache.New[string, *admissionLog](maxKeys, nil)
	if err != nil {
		return nil, fmt.Errorf("new LRU in-memory store for keys: %w", err)
	}
	return &RollingWindowLimiter{
		maxRate: maxRate,
		clock:   clk,
		getLog: func(key string) *admissionLog {
			al, _ := store.GetOrAdd(key, func() *admissionLog { return newAdmissionLog(maxRate.Count) })
			return al
		},
	}, nil
}

// Allow checks if the request should be allowed and records the admission if so.
func (l *RollingWindowLimiter) Allow(_ context.Context, key string) (allow bool, retryAfter time.Duration, err error) {
	allow, retryAfter = l.getLog(key).admit(l.clock.Now(), l.maxRate)
	return allow, retryAfter, nil
}

// InWindow returns the number of admissions in the trailing window for the key.
func (l *RollingWindowLimiter) InWindow(key string) int {
	return l.getLog(key).count(l.clock.Now(), l.maxRate.Duration)
}

// admissionLog is a ring buffer of timestamps in admission order.
type admissionLog struct {
	mu    sync.Mutex
	times []time.Time
	head  int
	size  int
}

func newAdmissionLog(capacity int) *admissionLog {
	return &admissionLog{times: make([]time.Time, capacity)}
}

func (al *admissionLog) admit(now time.Time, maxRate Rate) (bool, time.Duration) {
	al.mu.Lock()
	defer al.mu.Unlock()

	al.prune(now, maxRate.Duration)
	if al.size >= len(al.times) {
		return false, al.times[al.head].Add(maxRate.Duration).Sub(now)
	}
	al.times[(al.head+al.size)%len(al.times)] = now
	al.size++
	return true, 0
}

func (al *admissionLog) count(now time.Time, window time.Duration) int {
	al.mu.Lock()
	defer al.mu.Unlock()
	al.prune(now, window)
	return al.size
}

// prune drops timestamps not newer than now-window.
func (al *admissionLog) prune(now time.Time, window time.Duration) {
	windowStart := now.Add(-window)
	for al.size > 0 && !al.times[al.head].After(windowStart) {
		al.times[al.head] = time.Time{}
		al.head = (al.head + 1) % len(al.times)
		al.size--
	}
}
