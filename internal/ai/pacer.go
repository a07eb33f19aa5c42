package ai

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer admits one outbound model call at a time at a fixed cadence. A single
// instance is shared by every caller in the process.
type Pacer interface {
	Wait(ctx context.Context) error
}

type ratePacer struct {
	limiter *rate.Limiter
}

func NewRatePacer(interval time.Duration) Pacer {
	if interval <= 0 {
		return NopPacer{}
	}
	return &ratePacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (p *ratePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

type NopPacer struct{}

func (NopPacer) Wait(ctx context.Context) error {
	return ctx.Err()
}
