package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpillora/backoff"

	domainerrors "github.com/digitalrsvp/rsvp-server/internal/errors"
	"github.com/digitalrsvp/rsvp-server/internal/store"
)

// retryDelay bounds the pause before the single retry of a read.
var retryDelay = backoff.Backoff{
	Min:    50 * time.Millisecond,
	Max:    500 * time.Millisecond,
	Factor: 2,
	Jitter: true,
}

// readWithRetry runs an idempotent store read and retries it once when the
// store reports a transport failure. Writes must not go through here: a
// retried insert could create a duplicate guest.
func readWithRetry[T any](ctx context.Context, logger *slog.Logger, op string, read func(context.Context) (T, error)) (T, error) {
	v, err := read(ctx)
	if !store.IsTransient(err) {
		return v, err
	}

	delay := retryDelay
	wait := delay.Duration()
	logger.WarnContext(ctx, "store unavailable, retrying read", "op", op, "delay", wait, "error", err)

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-timer.C:
	}

	return read(ctx)
}

// storeError translates a store error into a domain error.
// what names the missing resource in NotFound messages ("event", "guest").
func storeError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("%s not found", what)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExists(what + " already exists")
	case errors.Is(err, store.ErrInvalidField):
		return domainerrors.Validation(err.Error())
	case store.IsTransient(err):
		return domainerrors.Unavailable(err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
