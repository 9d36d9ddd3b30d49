package tasks

import (
	"cmp"
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plx/internal/auth"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds retries of remote session calls.
type RetryPolicy struct {
	MaxAttempts int           // total attempts including the first; <= 1 disables retry
	BaseDelay   time.Duration // first backoff, doubled each attempt
	MaxDelay    time.Duration // cap on a single backoff
}

var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second}

func (p RetryPolicy) backoff() retry.Backoff {
	b := retry.NewExponential(cmp.Or(p.BaseDelay, DefaultRetryPolicy.BaseDelay))
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}
	return retry.WithMaxRetries(uint64(max(p.MaxAttempts-1, 0)), b)
}

// RetryOption configures [WithRetry].
type RetryOption func(*retrying)

// WithUpdates reports each retry on updates without blocking.
func WithUpdates(updates chan<- Update) RetryOption {
	return func(r *retrying) { r.updates = updates }
}

func WithRetryLogger(l *log.Logger) RetryOption {
	return func(r *retrying) { r.logger = shared.WithLogger(l, "component", "retry") }
}

type retrying struct {
	auth.Provider
	policy  RetryPolicy
	updates chan<- Update
	logger  *log.Logger
}

// WithRetry wraps p so that verify, refresh and login calls failing with
// [shared.ErrServiceUnavailable] are retried under policy. Rejections and every other
// error are returned at once.
func WithRetry(p auth.Provider, policy RetryPolicy, opts ...RetryOption) auth.Provider {
	r := &retrying{Provider: p, policy: policy}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// do runs fn under the policy's backoff. Retry updates are sent from inside the backoff, so
// the reported wait is the one go-retry is about to sleep.
func (r *retrying) do(ctx context.Context, op string, fn func(context.Context) error) error {
	var (
		attempt int
		lastErr error
	)

	b := r.policy.backoff()
	reporting := retry.BackoffFunc(func() (time.Duration, bool) {
		wait, stop := b.Next()
		if !stop {
			if r.logger != nil {
				r.logger.Warn("retrying", "op", op, "attempt", attempt, "wait", wait, "error", lastErr)
			}
			send(r.updates, retryUpdate(op, attempt, wait, lastErr))
		}
		return wait, stop
	})

	return retry.Do(ctx, reporting, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil || !errors.Is(err, shared.ErrServiceUnavailable) {
			return err
		}
		lastErr = err
		return retry.RetryableError(err)
	})
}

func (r *retrying) VerifyIdentity(ctx context.Context, accessToken string) (auth.Verification, error) {
	var v auth.Verification
	err := r.do(ctx, "verify", func(ctx context.Context) error {
		var err error
		v, err = r.Provider.VerifyIdentity(ctx, accessToken)
		return err
	})
	return v, err
}

func (r *retrying) RefreshAccessToken(ctx context.Context, identityID string) (auth.RefreshResult, error) {
	var res auth.RefreshResult
	err := r.do(ctx, "refresh", func(ctx context.Context) error {
		var err error
		res, err = r.Provider.RefreshAccessToken(ctx, identityID)
		return err
	})
	return res, err
}

func (r *retrying) BeginExternalLogin(ctx context.Context) (string, error) {
	var target string
	err := r.do(ctx, "login", func(ctx context.Context) error {
		var err error
		target, err = r.Provider.BeginExternalLogin(ctx)
		return err
	})
	return target, err
}
