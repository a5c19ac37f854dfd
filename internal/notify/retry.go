package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultAttempts = 3
	DefaultBackoff  = 2 * time.Second
)

// Retry re-sends through Next up to Attempts times. ErrDisabled is final.
type Retry struct {
	Next     Notifier
	Attempts int
	Backoff  time.Duration
	Log      *zap.Logger
}

func (r Retry) Send(ctx context.Context, subject, body string) error {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	var err error
	for i := 1; i <= attempts; i++ {
		if err = r.Next.Send(ctx, subject, body); err == nil || errors.Is(err, ErrDisabled) {
			return err
		}
		if r.Log != nil {
			r.Log.Debug("notify_attempt_failed", zap.Int("attempt", i), zap.Error(err))
		}
		if i < attempts {
			if werr := wait(ctx, r.Backoff); werr != nil {
				return werr
			}
		}
	}
	return err
}

// Verifier checks channel credentials.
type Verifier interface {
	Verify(ctx context.Context) error
}

// Handshake calls v.Verify up to attempts times with backoff between tries.
func Handshake(ctx context.Context, v Verifier, attempts int, backoff time.Duration) error {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	var err error
	for i := 1; i <= attempts; i++ {
		if err = v.Verify(ctx); err == nil {
			return nil
		}
		if i < attempts {
			if werr := wait(ctx, backoff); werr != nil {
				return werr
			}
		}
	}
	return err
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
