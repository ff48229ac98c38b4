// Package retry runs upstream calls with a per-attempt timeout and a small
// number of jittered exponential backoff retries for transient failures.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/eddogola/comic-gen/internal/providers"
)

// Policy bounds a single upstream call
type Policy struct {
	MaxRetries      int
	InitialInterval time.Duration
	CallTimeout     time.Duration
}

// Do calls op until it succeeds, fails permanently, or the policy is exhausted.
// Each attempt gets its own context bounded by CallTimeout. Cancellation of ctx
// stops retrying immediately.
func Do[T any](ctx context.Context, p Policy, name string, op func(ctx context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	b.MaxElapsedTime = 0

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)

	attempt := 0
	return backoff.RetryWithData(func() (T, error) {
		attempt++
		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if p.CallTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.CallTimeout)
		}
		defer cancel()

		res, err := op(attemptCtx)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil || !Transient(err) {
			return res, backoff.Permanent(err)
		}
		slog.Warn("Transient upstream failure", "call", name, "attempt", attempt, "err", err)
		return res, err
	}, bo)
}

// Transient reports whether err is worth retrying: rate limiting, server
// errors, network errors and per-attempt timeouts.
func Transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var se *providers.StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error
	return errors.As(err, &ne)
}
