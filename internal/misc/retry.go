package misc

import (
	"context"
	"time"
)

// Backoff is a bounded capped-exponential retry policy: Attempts is the
// total number of tries (first call included), waits double from Base and
// never exceed Cap.
type Backoff struct {
	Attempts int
	Base     time.Duration
	Cap      time.Duration
}

var DefaultBackoff = Backoff{
	Attempts: 3,
	Base:     1 * time.Second,
	Cap:      5 * time.Second,
}

func (b Backoff) delay(attempt int) time.Duration {
	d := b.Base << attempt
	if d > b.Cap || d <= 0 {
		return b.Cap
	}
	return d
}

// Retry runs op up to b.Attempts times, sleeping between tries. It stops
// early when op succeeds, when isRetryable rejects the error, or when ctx
// is done (the context error wins in that case).
func Retry(ctx context.Context, b Backoff, isRetryable func(error) bool, op func() error) error {
	if b.Attempts < 1 {
		b.Attempts = 1
	}
	var err error
	for i := 0; ; i++ {
		if err = op(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if i >= b.Attempts-1 || !isRetryable(err) {
			return err
		}
		t := time.NewTimer(b.delay(i))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
