/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/RussellLuo/slidingwindow"

	"github.com/acronis/phrase-migrate/lrucache"
)

// SlidingWindowLimiter implements sliding window rate limiting algorithm.
// It approximates the trailing window by weighting the previous fixed window,
// so short bursts at window boundaries may exceed the rate slightly.
type SlidingWindowLimiter struct {
	getLimiter func(key string) *slidingwindow.Limiter
	maxRate    Rate
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
func NewSlidingWindowLimiter(maxRate Rate, maxKeys int) (*SlidingWindowLimiter, error) {
	if maxKeys == 0 {
		lim := newLocalSlidingWindow(maxRate)
		return &SlidingWindowLimiter{
			maxRate:    maxRate,
			getLimiter: func(_ string) *slidingwindow.Limiter { return lim },
		}, nil
	}

	store, err := lrucache.New[string, *slidingwindow.Limiter](maxKeys, nil)
	if err != nil {
		return nil, fmt.Errorf("new LRU in-memory store for keys: %w", err)
	}
	return &SlidingWindowLimiter{
		maxRate: maxRate,
		getLimiter: func(key string) *slidingwindow.Limiter {
			lim, _ := store.GetOrAdd(key, func() *slidingwindow.Limiter { return newLocalSlidingWindow(maxRate) })
			return lim
		},
	}, nil
}

func newLocalSlidingWindow(maxRate Rate) *slidingwindow.Limiter {
	// Local windows never fail to sync.
	lim, _ := slidingwindow.NewLimiter(maxRate.Duration, int64(maxRate.Count),
		func() (slidingwindow.Window, slidingwindow.StopFunc) { return slidingwindow.NewLocalWindow() })
	return lim
}

// Allow checks if the request should be allowed based on the rate limit.
func (l *SlidingWindowLimiter) Allow(_ context.Context, key string) (allow bool, retryAfter time.Duration, err error) {
	if l.getLimiter(key).Allow() {
		return true, 0, nil
	}
	now := time.Now()
	retryAfter = now.Truncate(l.maxRate.Duration).Add(l.maxRate.Duration).Sub(now)
	return false, retryAfter, nil
}
