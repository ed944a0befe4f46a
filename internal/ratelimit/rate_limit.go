/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/raulk/clock"
)

// Rate describes the frequency of requests.
type Rate struct {
	Count    int
	Duration time.Duration
}

func (r Rate) String() string {
	return fmt.Sprintf("%d/%s", r.Count, r.Duration)
}

// Limiter interface defines the rate limiting contract.
// A positive answer consumes one unit of the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (allow bool, retryAfter time.Duration, err error)
}

// Algorithm is a rate limiting algorithm.
type Algorithm string

// Rate limiting algorithms.
const (
	AlgorithmRollingLog    Algorithm = "rolling_log"
	AlgorithmSlidingWindow Algorithm = "sliding_window"
	AlgorithmLeakyBucket   Algorithm = "leaky_bucket"
)

// Algorithms lists all supported algorithms.
var Algorithms = []Algorithm{AlgorithmRollingLog, AlgorithmSlidingWindow, AlgorithmLeakyBucket}

// Opts are the optional parameters of NewLimiter.
type Opts struct {
	// MaxKeys bounds the number of keys with independent state. Zero means a single global state.
	MaxKeys int

	// Clock is used by the rolling log limiter. Defaults to the wall clock.
	Clock clock.Clock
}

// NewLimiter creates a limiter of the given algorithm.
func NewLimiter(alg Algorithm, maxRate Rate, opts Opts) (Limiter, error) {
	if maxRate.Count <= 0 || maxRate.Duration <= 0 {
		return nil, fmt.Errorf("invalid rate %s, count and duration must be positive", maxRate)
	}
	switch alg {
	case AlgorithmRollingLog, "":
		return NewRollingWindowLimiterWithClock(maxRate, opts.MaxKeys, opts.Clock)
	case AlgorithmSlidingWindow:
		return NewSlidingWindowLimiter(maxRate, opts.MaxKeys)
	case AlgorithmLeakyBucket:
		// GCRA admits maxBurst+1 requests at once.
		return NewLeakyBucketLimiter(maxRate, maxRate.Count-1, opts.MaxKeys)
	default:
		return nil, fmt.Errorf("unknown rate limiting algorithm %q", alg)
	}
}
