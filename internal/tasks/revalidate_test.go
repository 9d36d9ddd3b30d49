package tasks_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/plx/internal/auth"
	"github.com/desertthunder/plx/internal/session"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/desertthunder/plx/internal/tasks"
	th "github.com/desertthunder/plx/internal/testing"
	"github.com/desertthunder/plx/internal/vault"
)

type countingChecker struct {
	calls atomic.Int32
	snap  auth.Snapshot
}

func (c *countingChecker) CheckAuth(context.Context) auth.Snapshot {
	c.calls.Add(1)
	return c.snap
}

func TestRevalidator(t *testing.T) {
	t.Run("checks until canceled", func(t *testing.T) {
		checker := &countingChecker{snap: auth.Snapshot{Status: auth.StatusAuthenticated, IdentityID: "user42"}}
		updates := make(chan tasks.Update, 100)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := tasks.NewRevalidator(checker, 5*time.Millisecond, nil).Run(ctx, updates, false)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
		if n := checker.calls.Load(); n < 2 {
			t.Errorf("expected repeated checks, got %d", n)
		}

		close(updates)
		var last tasks.Update
		var checked int
		for u := range updates {
			if u.Phase == tasks.PhaseChecked {
				checked++
				if u.Snapshot.IdentityID != "user42" {
					t.Errorf("unexpected snapshot %+v", u.Snapshot)
				}
			}
			last = u
		}
		if checked == 0 {
			t.Error("expected checked updates")
		}
		if last.Phase != tasks.PhaseStopped {
			t.Errorf("expected final stopped update, got %v", last.Phase)
		}
	})

	t.Run("nil channel", func(t *testing.T) {
		checker := &countingChecker{snap: auth.Snapshot{Status: auth.StatusAuthenticated}}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := tasks.NewRevalidator(checker, time.Millisecond, nil).Run(ctx, nil, false); !errors.Is(err, context.Canceled) {
			t.Errorf("expected canceled, got %v", err)
		}
		if checker.calls.Load() != 1 {
			t.Errorf("expected the initial check, got %d", checker.calls.Load())
		}
	})

	t.Run("cancel during check is not a sign-out", func(t *testing.T) {
		checker := &countingChecker{snap: auth.Snapshot{Status: auth.StatusUnauthenticated}}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := tasks.NewRevalidator(checker, time.Millisecond, nil).Run(ctx, nil, true)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected canceled, got %v", err)
		}
	})

	t.Run("slow reader does not block", func(t *testing.T) {
		checker := &countingChecker{snap: auth.Snapshot{Status: auth.StatusAuthenticated}}
		updates := make(chan tasks.Update)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- tasks.NewRevalidator(checker, time.Millisecond, nil).Run(ctx, updates, false) }()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("revalidator blocked on an unread channel")
		}
	})

	t.Run("invalid interval", func(t *testing.T) {
		if err := tasks.NewRevalidator(&countingChecker{}, 0, nil).Run(context.Background(), nil, false); err == nil {
			t.Error("expected error for zero interval")
		}
	})

	t.Run("stops when signed out", func(t *testing.T) {
		store := session.NewStore(session.NewMemoryStorage(), mustVault(t))
		fake := &th.FakeProvider{}
		ctrl, err := auth.New(auth.Options{Store: store, Verifier: fake, Refresher: fake})
		if err != nil {
			t.Fatal(err)
		}

		err = tasks.NewRevalidator(ctrl, time.Hour, nil).Run(context.Background(), nil, true)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("revocation is noticed", func(t *testing.T) {
		store := session.NewStore(session.NewMemoryStorage(), mustVault(t))
		fake := &th.FakeProvider{
			Verifications: []th.Verify{th.Valid("user42"), th.Rejected()},
			Refreshes:     []th.Refresh{th.Declined()},
		}
		ctrl, err := auth.New(auth.Options{Store: store, Verifier: fake, Refresher: fake})
		if err != nil {
			t.Fatal(err)
		}
		if err := ctrl.Login(context.Background(), "T1", "user42"); err != nil {
			t.Fatal(err)
		}

		updates := make(chan tasks.Update, 10)
		err = tasks.NewRevalidator(ctrl, time.Millisecond, nil).Run(context.Background(), updates, true)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
		if v, _ := fake.Counts(); v != 2 {
			t.Errorf("expected 2 verifications, got %d", v)
		}
		if store.Load(context.Background()) != nil {
			t.Error("expected the revoked session to be cleared")
		}
	})
}

func TestPhaseString(t *testing.T) {
	tt := map[tasks.Phase]string{
		tasks.PhaseCheck:   "check",
		tasks.PhaseChecked: "checked",
		tasks.PhaseRetry:   "retry",
		tasks.PhaseStopped: "stopped",
		tasks.Phase(99):    "",
	}
	for phase, want := range tt {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}

func mustVault(t *testing.T) *vault.Vault {
	t.Helper()
	v, err := vault.New([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatal(err)
	}
	return v
}
