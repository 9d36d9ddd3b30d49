package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/plx/internal/auth"
	"github.com/desertthunder/plx/internal/formatter"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Playlists lists the signed-in account's playlists. The session is checked first, so an
// expired token is refreshed before the listing.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	snap, err := r.signedIn(ctx)
	if err != nil {
		return err
	}

	if r.playlists == nil {
		return fmt.Errorf("%w: no playlist source configured", shared.ErrNotImplemented)
	}

	r.logger.Info("listing playlists", "identity", snap.IdentityID)

	playlists, err := r.playlists.GetPlaylists(ctx, snap.IdentityID)
	if err != nil {
		return err
	}

	if limit := int(cmd.Int("limit")); limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if path := cmd.String("output"); path != "" {
		written, err := formatter.WritePlaylistsFile(format, playlists, path)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %d playlists to %s\n", len(playlists), written)
	}

	return formatter.WritePlaylists(r.output, format, playlists)
}

// signedIn checks the session and fails unless it ends up authenticated.
func (r *Runner) signedIn(ctx context.Context) (auth.Snapshot, error) {
	ctrl, err := r.session(ctx)
	if err != nil {
		return auth.Snapshot{}, err
	}

	snap := ctrl.CheckAuth(ctx)
	if !snap.Authenticated() {
		return snap, fmt.Errorf("%w: run 'plx auth login' first", shared.ErrNotAuthenticated)
	}
	return snap, nil
}
