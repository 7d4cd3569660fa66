package http

import (
	"context"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"time"
)

// RateLimiter counts requests per client in fixed windows that start with
// the client's first request.
type RateLimiter struct {
	limiter *limiter.Limiter
}

// RateDecision is the outcome of one Allow call.
type RateDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// NewRateLimiter returns nil, which allows everything, when either bound
// is not positive.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	if max <= 0 || window <= 0 {
		return nil
	}

	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          "shop_api",
		CleanUpInterval: window,
	})
	return &RateLimiter{
		limiter: limiter.New(store, limiter.Rate{Period: window, Limit: int64(max)}),
	}
}

// Allow records one request from key.
func (l *RateLimiter) Allow(ctx context.Context, key string) (RateDecision, error) {
	if l == nil {
		return RateDecision{Allowed: true}, nil
	}

	lc, err := l.limiter.Get(ctx, key)
	if err != nil {
		return RateDecision{}, err
	}
	return RateDecision{
		Allowed:   !lc.Reached,
		Limit:     int(lc.Limit),
		Remaining: int(lc.Remaining),
		Reset:     time.Unix(lc.Reset, 0),
	}, nil
}
