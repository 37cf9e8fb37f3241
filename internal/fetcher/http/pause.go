package httpfetcher

import (
	"context"
	"fmt"
	"time"
)

// pauseController sleeps between attempts. notify, when non-nil, receives the
// remaining wait at every progress tick.
type pauseController interface {
	Pause(ctx context.Context, delay time.Duration, notify func(remaining time.Duration)) error
}

type timerPauseController struct {
	interval time.Duration
}

func (p *timerPauseController) Pause(ctx context.Context, delay time.Duration, notify func(time.Duration)) error {
	if delay <= 0 {
		return nil
	}
	deadline := time.Now().Add(delay)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	var ticks <-chan time.Time
	if notify != nil && p.interval > 0 && p.interval < delay {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("pause interrupted: %w", ctx.Err())
		case <-timer.C:
			return nil
		case <-ticks:
			notify(time.Until(deadline))
		}
	}
}
