package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/plx/internal/auth"
	"github.com/desertthunder/plx/internal/formatter"
	"github.com/desertthunder/plx/internal/server"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/desertthunder/plx/internal/tasks"
	"github.com/urfave/cli/v3"
)

const loginTimeout = 2 * time.Minute

// AuthLogin runs the external authorization flow.
//
// It asks the backend for the authorization URL, opens the browser and waits on a local
// callback server for the backend to redirect back with the account's identity, which is
// then exchanged for an access token and stored.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.session(ctx)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start callback server on %s: %w", addr, err)
	}

	open := shared.OpenBrowser
	if cmd.Bool("no-browser") {
		open = func(string) error { return errors.New("browser disabled") }
	}

	identityID, err := r.login(ctx, ctrl, listener, open, loginTimeout)
	if err != nil {
		return err
	}

	r.writePlainln("✓ Logged in as %s", identityID)
	return nil
}

// login serves the callback on listener until one result arrives or timeout passes.
func (r *Runner) login(ctx context.Context, ctrl *auth.Controller, listener net.Listener, open func(string) error, timeout time.Duration) (string, error) {
	target, err := ctrl.BeginLogin(ctx)
	if err != nil {
		listener.Close()
		return "", err
	}

	callback := server.NewCallbackHandler()
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(callback)

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting callback server", "addr", listener.Addr())
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := open(target); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", target)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.CallbackResult
	select {
	case result = <-callback.Result():
	case err := <-serverErrors:
		return "", fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return "", fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if err := result.Error(); err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	if r.exchanger == nil {
		return "", fmt.Errorf("%w: no identity exchanger configured", shared.ErrNotImplemented)
	}

	token, err := r.exchanger.ExchangeIdentity(ctx, result.IdentityID)
	if err != nil {
		return "", err
	}

	if err := ctrl.Login(ctx, token, result.IdentityID); err != nil {
		return "", err
	}
	return result.IdentityID, nil
}

// AuthStatus runs a full session check and prints the resulting state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.session(ctx)
	if err != nil {
		return err
	}

	snap := ctrl.CheckAuth(ctx)

	format := formatter.FormatText
	if cmd.Bool("json") {
		format = formatter.FormatJSON
	}
	return formatter.WriteSnapshot(r.output, format, snap)
}

// AuthRefresh replaces the stored access token without verifying it first.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.session(ctx)
	if err != nil {
		return err
	}

	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Access token refreshed\n")
}

// AuthLogout clears the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.session(ctx)
	if err != nil {
		return err
	}

	ctrl.Logout(ctx)
	return r.writePlain("✓ Logged out\n")
}

// AuthWatch re-checks the session on an interval and prints every check until interrupted.
func (r *Runner) AuthWatch(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.session(ctx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return r.watch(ctx, ctrl, cmd.Duration("interval"), cmd.Bool("exit-on-signout"))
}

func (r *Runner) watch(ctx context.Context, checker tasks.Checker, interval time.Duration, exitOnSignout bool) error {
	updates := make(chan tasks.Update, 16)
	done := make(chan error, 1)

	go func() {
		done <- tasks.NewRevalidator(checker, interval, r.logger).Run(ctx, updates, exitOnSignout)
		close(updates)
	}()

	r.writePlainHeader(fmt.Sprintf("Watching session every %s", interval))
	for u := range updates {
		if u.Phase == tasks.PhaseChecked {
			r.writePlain("%s  %s\n", time.Now().Format(time.TimeOnly), u.Message)
		}
	}

	err := <-done
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
