package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/plx/internal/formatter"
	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/urfave/cli/v3"
)

// enrichment returns the backend's enrichment endpoints once the session is authenticated.
func (r *Runner) enrichment(ctx context.Context) (string, error) {
	snap, err := r.signedIn(ctx)
	if err != nil {
		return "", err
	}
	if r.enricher == nil {
		return "", fmt.Errorf("%w: no enrichment backend configured", shared.ErrNotImplemented)
	}
	return snap.IdentityID, nil
}

func playlistArg(cmd *cli.Command) (string, error) {
	id := cmd.Args().First()
	if id == "" {
		return "", fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	return id, nil
}

// PlaylistTracks prints one page of a playlist's tracks.
//
// A playlist the backend has not imported yet is imported first. With --wait the page is
// polled until the import finishes.
func (r *Runner) PlaylistTracks(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	playlistID, err := playlistArg(cmd)
	if err != nil {
		return err
	}

	identity, err := r.enrichment(ctx)
	if err != nil {
		return err
	}

	playlist, err := r.enricher.GetPlaylist(ctx, identity, playlistID)
	if err != nil {
		return err
	}

	offset, limit := int(cmd.Int("offset")), int(cmd.Int("limit"))
	page, err := r.enricher.GetPlaylistTracks(ctx, identity, playlistID, offset, limit)
	if err != nil {
		return err
	}

	if len(page.Tracks) == 0 && !page.Fetching && playlist.TrackCount > 0 && offset == 0 {
		r.logger.Info("importing playlist tracks", "playlist", playlistID, "tracks", playlist.TrackCount)
		if err := r.enricher.FetchTracks(ctx, identity, playlistID); err != nil {
			return err
		}
		page.Fetching = true
	}

	if page.Fetching && cmd.Bool("wait") {
		if page, err = r.waitForTracks(ctx, identity, playlistID, offset, limit); err != nil {
			return err
		}
	}

	if page.Fetching && format == formatter.FormatText {
		if err := r.writePlain("Tracks are still being imported, run again or pass --wait.\n"); err != nil {
			return err
		}
	}
	return formatter.WriteTracks(r.output, format, playlist.Name, page)
}

// waitForTracks polls the track page until the backend stops importing or ctx ends.
func (r *Runner) waitForTracks(ctx context.Context, identity, playlistID string, offset, limit int) (models.TrackPage, error) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return models.TrackPage{}, ctx.Err()
		case <-ticker.C:
		}

		page, err := r.enricher.GetPlaylistTracks(ctx, identity, playlistID, offset, limit)
		if err != nil {
			return models.TrackPage{}, err
		}
		if !page.Fetching {
			return page, nil
		}
		r.logger.Debug("tracks still importing", "playlist", playlistID)
	}
}

// PlaylistEnhance spends credits to enrich tracks named by --track, or every unenriched
// track with --all. The cost is checked against the account's credits before the request.
func (r *Runner) PlaylistEnhance(ctx context.Context, cmd *cli.Command) error {
	playlistID, err := playlistArg(cmd)
	if err != nil {
		return err
	}

	trackIDs := cmd.StringSlice("track")
	all := cmd.Bool("all")
	if len(trackIDs) == 0 && !all {
		return fmt.Errorf("%w: pass --track or --all", shared.ErrMissingArgument)
	}

	identity, err := r.enrichment(ctx)
	if err != nil {
		return err
	}

	pending, credits, err := r.unenriched(ctx, identity, playlistID)
	if err != nil {
		return err
	}
	if all {
		trackIDs = pending
	}
	if len(trackIDs) == 0 {
		return r.writePlain("Nothing to enhance, every track is already enriched.\n")
	}

	cost := models.EnhanceCost(len(trackIDs))
	if cost > credits {
		return fmt.Errorf("%w: %d tracks need %d credits, %d left", shared.ErrInsufficientCredits, len(trackIDs), cost, credits)
	}

	r.logger.Info("enhancing tracks", "playlist", playlistID, "tracks", len(trackIDs), "cost", cost)

	message, err := r.enricher.EnhanceTracks(ctx, identity, playlistID, trackIDs)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s (%d credits)\n", message, cost)
}

const enhancePageSize = 50

// unenriched walks every track page and returns the unenriched IDs with the credit balance.
func (r *Runner) unenriched(ctx context.Context, identity, playlistID string) ([]string, int, error) {
	var ids []string
	for offset := 0; ; offset += enhancePageSize {
		page, err := r.enricher.GetPlaylistTracks(ctx, identity, playlistID, offset, enhancePageSize)
		if err != nil {
			return nil, 0, err
		}
		ids = append(ids, page.Unenriched()...)
		if !page.HasMore || len(page.Tracks) == 0 {
			return ids, page.Credits, nil
		}
	}
}

// Profile prints the signed-in account with its remaining credits.
func (r *Runner) Profile(ctx context.Context, cmd *cli.Command) error {
	identity, err := r.enrichment(ctx)
	if err != nil {
		return err
	}

	profile, err := r.enricher.Profile(ctx, identity)
	if err != nil {
		return err
	}

	format := formatter.FormatText
	if cmd.Bool("json") {
		format = formatter.FormatJSON
	}
	return formatter.WriteProfile(r.output, format, profile)
}
