package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/plx/internal/auth"
	"github.com/desertthunder/plx/internal/repositories"
	"github.com/desertthunder/plx/internal/services"
	"github.com/desertthunder/plx/internal/session"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/desertthunder/plx/internal/tasks"
	"github.com/desertthunder/plx/internal/vault"
	"github.com/redis/go-redis/v9"
)

// provider assembles an [auth.Provider] from separately chosen collaborators.
type provider struct {
	auth.Verifier
	auth.Refresher
	auth.LoginStarter
}

// session returns the controller, building the storage slot, vault and remote
// collaborators from the configuration on first use.
func (r *Runner) session(ctx context.Context) (*auth.Controller, error) {
	if r.controller != nil {
		return r.controller, nil
	}

	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	cfg := r.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ttl, _ := cfg.Session.Lifetime()
	timeout, _ := cfg.Backend.RequestTimeout()

	storage, err := r.openStorage(ctx)
	if err != nil {
		return nil, err
	}

	v, err := vault.New([]byte(cfg.Session.Key))
	if err != nil {
		return nil, err
	}

	store := session.NewStore(storage, v, session.WithTTL(ttl), session.WithLogger(r.logger))

	client := *r.httpClient
	client.Timeout = timeout
	backend := services.NewBackendService(cfg.Backend.BaseURL, &client, cfg.Backend.RateLimit)

	remote := provider{Verifier: backend, Refresher: backend, LoginStarter: backend}
	if cfg.Session.Verifier == "spotify" {
		remote.Verifier = services.NewSpotifyService(cfg.Credentials.Spotify.BaseURL, &client)
	}
	retrying := tasks.WithRetry(remote, tasks.DefaultRetryPolicy, tasks.WithRetryLogger(r.logger))

	ctrl, err := auth.New(auth.Options{
		Store:        store,
		Verifier:     retrying,
		Refresher:    retrying,
		LoginStarter: retrying,
		Logger:       r.logger,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("session ready", "storage", cfg.Session.Storage, "verifier", cfg.Session.Verifier, "ttl", ttl)

	r.controller = ctrl
	if r.playlists == nil {
		r.playlists = backend
	}
	if r.exchanger == nil {
		r.exchanger = backend
	}
	if r.enricher == nil {
		r.enricher = backend
	}
	return ctrl, nil
}

// openStorage builds the slot named by session.storage.
func (r *Runner) openStorage(ctx context.Context) (session.Storage, error) {
	cfg := r.config

	switch cfg.Session.Storage {
	case "sqlite":
		db, err := shared.OpenMigrated(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open session database: %w", err)
		}
		r.closers = append(r.closers, db.Close)
		return repositories.NewSlotRepository(db), nil

	case "redis":
		ttl, _ := cfg.Session.Lifetime()
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		r.closers = append(r.closers, client.Close)

		slot := repositories.NewRedisSlot(client, cfg.Redis.Prefix, ttl)
		if err := slot.Ping(ctx); err != nil {
			return nil, fmt.Errorf("%w: redis at %s: %v", shared.ErrServiceUnavailable, cfg.Redis.Addr, err)
		}
		return slot, nil

	default:
		return session.NewFileStorage(shared.ExpandHome(cfg.Session.Path)), nil
	}
}
