package utils

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// GeminiLimiter spreads outbound model calls so a burst of sessions cannot
// exhaust the project quota. Both the image and the chat client share it.
type GeminiLimiter struct {
	limiter *rate.Limiter
}

// NewGeminiLimiter allows perMinute calls per minute with a burst of one
// minute's worth. A non-positive perMinute disables limiting.
func NewGeminiLimiter(perMinute int) *GeminiLimiter {
	if perMinute <= 0 {
		return &GeminiLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	every := time.Minute / time.Duration(perMinute)
	return &GeminiLimiter{limiter: rate.NewLimiter(rate.Every(every), perMinute)}
}

// Wait blocks until a call may proceed or ctx is done.
func (g *GeminiLimiter) Wait(ctx context.Context) error {
	if g == nil {
		return nil
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}
