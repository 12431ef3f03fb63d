package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// RetryPolicy acota los reintentos ante domain.ErrConcurrencyConflict.
type RetryPolicy struct {
	MaxAttempts         int
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	RandomizationFactor float64
}

// DefaultRetryPolicy hasta 5 intentos con backoff exponencial y jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:         5,
		InitialInterval:     10 * time.Millisecond,
		MaxInterval:         200 * time.Millisecond,
		RandomizationFactor: 0.5,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.RandomizationFactor = p.RandomizationFactor
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// Do ejecuta op y reintenta solo conflictos de concurrencia; cualquier otro error sale de inmediato.
// notify (opcional) se invoca antes de cada espera.
func (p RetryPolicy) Do(ctx context.Context, op func() error, notify func(err error, wait time.Duration)) error {
	attempt := func() error {
		err := op()
		if err == nil || errors.Is(err, domain.ErrConcurrencyConflict) {
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.RetryNotify(attempt, p.backOff(ctx), notify)
}
