package auth

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plx/internal/session"
	"github.com/desertthunder/plx/internal/shared"
	"golang.org/x/sync/singleflight"
)

const (
	refreshKey = "refresh"

	// DefaultRefreshTimeout bounds one shared refresh request.
	DefaultRefreshTimeout = 30 * time.Second
)

// Verification is the identity provider's answer to "who am I".
type Verification struct {
	Valid      bool
	IdentityID string
}

// RefreshResult carries a replacement access token.
type RefreshResult struct {
	Success     bool
	AccessToken string
}

// Verifier checks an access token against the identity provider.
//
// A token the provider rejects is reported as Valid=false with a nil error. Errors are
// reserved for failures to get an answer at all.
type Verifier interface {
	VerifyIdentity(ctx context.Context, accessToken string) (Verification, error)
}

// Refresher exchanges an identity for a fresh access token.
type Refresher interface {
	RefreshAccessToken(ctx context.Context, identityID string) (RefreshResult, error)
}

// LoginStarter returns the URL that begins the external authorization flow.
type LoginStarter interface {
	BeginExternalLogin(ctx context.Context) (string, error)
}

// Provider is a remote collaborator that does all three.
type Provider interface {
	Verifier
	Refresher
	LoginStarter
}

// SessionStore is the persistence the controller needs. [session.Store] implements it.
type SessionStore interface {
	Save(ctx context.Context, rec session.Record) (session.Record, error)
	Load(ctx context.Context) *session.Record
	Clear(ctx context.Context) error
}

// Options are the collaborators of a [Controller]. LoginStarter and Logger are optional.
type Options struct {
	Store        SessionStore
	Verifier     Verifier
	Refresher    Refresher
	LoginStarter LoginStarter
	Logger       *log.Logger

	// RefreshTimeout bounds a refresh request; zero means [DefaultRefreshTimeout].
	RefreshTimeout time.Duration
}

// Controller is the session state machine.
type Controller struct {
	store     SessionStore
	verifier  Verifier
	refresher Refresher
	starter   LoginStarter
	logger    *log.Logger

	refreshTimeout time.Duration

	mu     sync.RWMutex
	snap   Snapshot
	subs   map[int]chan Snapshot
	nextID int

	group singleflight.Group
}

// New builds a controller in [StatusUnknown].
func New(opts Options) (*Controller, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: session store", shared.ErrMissingArgument)
	}
	if opts.Verifier == nil {
		return nil, fmt.Errorf("%w: verifier", shared.ErrMissingArgument)
	}
	if opts.Refresher == nil {
		return nil, fmt.Errorf("%w: refresher", shared.ErrMissingArgument)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Controller{
		store:     opts.Store,
		verifier:  opts.Verifier,
		refresher: opts.Refresher,
		starter:   opts.LoginStarter,
		logger:    shared.WithLogger(logger, "component", "auth"),
		subs:      make(map[int]chan Snapshot),

		refreshTimeout: cmp.Or(opts.RefreshTimeout, DefaultRefreshTimeout),
	}, nil
}

// Snapshot returns the current published state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Subscribe returns a channel that receives every snapshot published after the call.
//
// Delivery never blocks the controller: a subscriber whose buffer is full misses
// that snapshot. cancel closes the channel and is safe to call more than once.
func (c *Controller) Subscribe(buffer int) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, max(buffer, 1))

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (c *Controller) publish(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap = s
	for _, ch := range c.subs {
		select {
		case ch <- s:
		default:
		}
	}
	c.logger.Debug("state", "status", s.Status, "identity", s.IdentityID)
}

// CheckAuth loads the stored session, verifies it remotely and falls back to a refresh.
//
// It ends in [StatusAuthenticated] or [StatusUnauthenticated] and returns that snapshot.
// If ctx ends first, the stored session is left alone and the snapshot from before the
// call is restored.
func (c *Controller) CheckAuth(ctx context.Context) Snapshot {
	prev := c.Snapshot()
	c.publish(Snapshot{Status: StatusVerifying, IdentityID: prev.IdentityID})

	rec := c.store.Load(ctx)
	if ctx.Err() != nil {
		return c.abandon(ctx, prev)
	}
	if rec == nil {
		return c.settle(Snapshot{Status: StatusUnauthenticated})
	}

	v, err := c.verifier.VerifyIdentity(ctx, rec.AccessToken)
	if ctx.Err() != nil {
		return c.abandon(ctx, prev)
	}
	switch {
	case err != nil:
		c.logger.Warn("verify failed", "error", err)
	case !v.Valid:
		c.logger.Info("token rejected", "identity", rec.IdentityID)
	case v.IdentityID != "" && v.IdentityID != rec.IdentityID:
		c.logger.Warn("verified identity does not match session", "identity", rec.IdentityID)
	default:
		return c.settle(Snapshot{Status: StatusAuthenticated, IdentityID: rec.IdentityID})
	}

	c.publish(Snapshot{Status: StatusRefreshing, IdentityID: prev.IdentityID})

	if err := c.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return c.abandon(ctx, prev)
		}
		c.logger.Warn("refresh failed, clearing session", "error", err)
		if err := c.store.Clear(ctx); err != nil {
			c.logger.Error("clear session", "error", err)
		}
		return c.settle(Snapshot{Status: StatusUnauthenticated})
	}

	return c.settle(Snapshot{Status: StatusAuthenticated, IdentityID: rec.IdentityID})
}

func (c *Controller) abandon(ctx context.Context, prev Snapshot) Snapshot {
	c.logger.Info("session check abandoned", "error", context.Cause(ctx))
	return c.settle(prev)
}

func (c *Controller) settle(s Snapshot) Snapshot {
	c.publish(s)
	return s
}

// Login persists credentials handed back by an external authorization flow.
func (c *Controller) Login(ctx context.Context, accessToken, identityID string) error {
	if accessToken == "" || identityID == "" {
		return fmt.Errorf("%w: access token and identity are required", shared.ErrInvalidCredentials)
	}

	c.group.Forget(refreshKey)

	if _, err := c.store.Save(ctx, session.Record{IdentityID: identityID, AccessToken: accessToken}); err != nil {
		c.publish(Snapshot{Status: StatusUnauthenticated})
		return err
	}

	c.logger.Info("logged in", "identity", identityID)
	c.publish(Snapshot{Status: StatusAuthenticated, IdentityID: identityID})
	return nil
}

// Refresh replaces the stored access token using the stored identity.
//
// Refresh does not publish a state. Overlapping calls share one remote request and its
// result. The shared request runs detached from any single caller, bounded by the refresh
// timeout, so a caller that gives up only stops waiting: it gets ctx's error while the
// others still get the outcome.
func (c *Controller) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	flight := c.group.DoChan(refreshKey, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()
		return nil, c.refresh(fctx)
	})

	select {
	case res := <-flight:
		if res.Shared {
			c.logger.Debug("shared in-flight refresh")
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) refresh(ctx context.Context) error {
	rec := c.store.Load(ctx)
	if rec == nil || rec.IdentityID == "" {
		return shared.ErrNoSession
	}

	res, err := c.refresher.RefreshAccessToken(ctx, rec.IdentityID)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	if !res.Success || res.AccessToken == "" {
		return fmt.Errorf("%w: provider declined", shared.ErrRefreshFailed)
	}

	if _, err := c.store.Save(ctx, session.Record{IdentityID: rec.IdentityID, AccessToken: res.AccessToken}); err != nil {
		return err
	}

	c.logger.Info("token refreshed", "identity", rec.IdentityID)
	return nil
}

// Logout clears the stored session and always ends in [StatusUnauthenticated].
func (c *Controller) Logout(ctx context.Context) {
	c.group.Forget(refreshKey)

	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error("clear session on logout", "error", err)
	}

	c.logger.Info("logged out")
	c.publish(Snapshot{Status: StatusUnauthenticated})
}

// BeginLogin asks the login starter where the external authorization flow begins.
// Navigation is left to the caller.
func (c *Controller) BeginLogin(ctx context.Context) (string, error) {
	if c.starter == nil {
		return "", fmt.Errorf("%w: no login starter configured", shared.ErrNotImplemented)
	}

	target, err := c.starter.BeginExternalLogin(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if target == "" {
		return "", errors.New("login starter returned an empty redirect")
	}
	return target, nil
}
