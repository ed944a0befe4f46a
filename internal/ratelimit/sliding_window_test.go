/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type SlidingWindowLimiterTestSuite struct {
	suite.Suite
}

func TestSlidingWindowLimiter(t *testing.T) {
	suite.Run(t, new(SlidingWindowLimiterTestSuite))
}

func (ts *SlidingWindowLimiterTestSuite) TestAllowSequential() {
	limiter, err := NewSlidingWindowLimiter(Rate{Count: 2, Duration: time.Second}, 0)
	ts.Require().NoError(err)

	for i := 0; i < 2; i++ {
		allow, retryAfter, err := limiter.Allow(context.Background(), "")
		ts.NoError(err)
		ts.True(allow)
		ts.Zero(retryAfter)
	}

	allow, retryAfter, err := limiter.Allow(context.Background(), "")
	ts.NoError(err)
	ts.False(allow)
	ts.Greater(retryAfter, time.Duration(0))
	ts.LessOrEqual(retryAfter, time.Second)
}

func (ts *SlidingWindowLimiterTestSuite) TestPerKeyState() {
	limiter, err := NewSlidingWindowLimiter(Rate{Count: 1, Duration: time.Minute}, 10)
	ts.Require().NoError(err)

	ctx := context.Background()
	allow, _, err := limiter.Allow(ctx, "a")
	ts.NoError(err)
	ts.True(allow)
	allow, _, err = limiter.Allow(ctx, "b")
	ts.NoError(err)
	ts.True(allow)
	allow, _, err = limiter.Allow(ctx, "a")
	ts.NoError(err)
	ts.False(allow)
}
