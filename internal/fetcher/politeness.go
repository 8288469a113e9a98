package fetcher

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/trivia-archive/internal/metrics"
)

// politeness enforces a minimum interval between network requests. The
// initial token is spent at construction so the very first request waits too.
type politeness struct {
	limiter *rate.Limiter
}

func newPoliteness(interval time.Duration) *politeness {
	if interval <= 0 {
		return &politeness{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	l := rate.NewLimiter(rate.Every(interval), 1)
	l.Allow()
	return &politeness{limiter: l}
}

func (p *politeness) wait(ctx context.Context) error {
	start := time.Now()
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if d := time.Since(start); d > time.Millisecond {
		metrics.ObservePolitenessWait(d)
	}
	return nil
}
