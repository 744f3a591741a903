package chain

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Retry re-runs RPC work that failed transiently. Delays double after every
// failed attempt and are capped at MaxBackoff when it is set.
type Retry struct {
	MaxRetries int
	Backoff    time.Duration
	MaxBackoff time.Duration
	Logger     *zap.Logger
}

// Do calls fn until it succeeds, the attempts run out or ctx is done.
func (r Retry) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	retries := r.MaxRetries
	if retries < 0 {
		retries = 0
	}
	delay := r.Backoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= retries {
			return err
		}
		logger.Warn("rpc retry",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if r.MaxBackoff > 0 && delay > r.MaxBackoff {
			delay = r.MaxBackoff
		}
	}
}
