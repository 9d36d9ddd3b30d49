package tasks

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plx/internal/auth"
	"github.com/desertthunder/plx/internal/shared"
)

// Checker runs one session check. [auth.Controller] implements it.
type Checker interface {
	CheckAuth(ctx context.Context) auth.Snapshot
}

// Revalidator re-checks the session on a fixed interval so server-side revocation is noticed
// while the process runs.
type Revalidator struct {
	checker  Checker
	interval time.Duration
	logger   *log.Logger
}

func NewRevalidator(checker Checker, interval time.Duration, logger *log.Logger) *Revalidator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Revalidator{checker: checker, interval: interval, logger: shared.WithLogger(logger, "component", "revalidate")}
}

// Run checks immediately and then every interval until ctx is done. Progress goes to
// updates without blocking; a nil channel is allowed.
//
// With stopWhenSignedOut set, Run returns [shared.ErrNotAuthenticated] after the first check
// that ends unauthenticated. A check cut short by ctx is not treated as a sign-out.
func (r *Revalidator) Run(ctx context.Context, updates chan<- Update, stopWhenSignedOut bool) error {
	if r.interval <= 0 {
		return errors.New("revalidation interval must be positive")
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for n := 1; ; n++ {
		send(updates, checkUpdate(n))
		snap := r.checker.CheckAuth(ctx)
		send(updates, checkedUpdate(n, snap))
		r.logger.Debug("revalidated", "check", n, "status", snap.Status)

		if err := ctx.Err(); err != nil {
			send(updates, stoppedUpdate(err))
			return err
		}

		if stopWhenSignedOut && snap.Status == auth.StatusUnauthenticated {
			send(updates, stoppedUpdate(shared.ErrNotAuthenticated))
			return shared.ErrNotAuthenticated
		}

		select {
		case <-ctx.Done():
			send(updates, stoppedUpdate(ctx.Err()))
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
