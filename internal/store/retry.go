package store

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

const (
	defaultRetryAttempts = 8
	defaultMaxElapsed    = 2 * time.Second
	defaultInitial       = 10 * time.Millisecond
)

// RetryPolicy bounds how long a backend keeps retrying lost races.
type RetryPolicy struct {
	MaxAttempts int
	MaxElapsed  time.Duration
	Initial     time.Duration
	// OnRetry is called before each retry, e.g. to count contention.
	OnRetry func(backend string)
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultRetryAttempts
	}
	if p.MaxElapsed <= 0 {
		p.MaxElapsed = defaultMaxElapsed
	}
	if p.Initial <= 0 {
		p.Initial = defaultInitial
	}
	return p
}

func (p RetryPolicy) backoff(ctx context.Context) backoff.BackOff {
	p = p.withDefaults()
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.Initial
	eb.MaxElapsedTime = p.MaxElapsed
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(p.MaxAttempts-1)), ctx)
}

// retry runs op until it succeeds, fails with something other than a lost
// race, or the policy gives up. Giving up yields a transient *Error.
func (p RetryPolicy) retry(ctx context.Context, backend, op string, fn func() error) error {
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		err := fn()
		if err == nil || errors.Is(err, errConflict) {
			return err
		}
		return backoff.Permanent(err)
	}, p.backoff(ctx), func(err error, wait time.Duration) {
		log.Debug().Str("backend", backend).Str("op", op).Int("attempt", attempt).Dur("wait", wait).Msg("store retry")
		if p.OnRetry != nil {
			p.OnRetry(backend)
		}
	})
	if errors.Is(err, errConflict) {
		log.Warn().Str("backend", backend).Str("op", op).Int("attempts", attempt).Msg("store retries exhausted")
		return &Error{Backend: backend, Op: op, Transient: true, Err: err}
	}
	return err
}
