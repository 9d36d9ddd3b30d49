// package services implements the remote collaborators of the session controller
//
// Enrichment backend, Spotify Web API
package services

import (
	"context"

	"github.com/desertthunder/plx/internal/auth"
	"github.com/desertthunder/plx/internal/models"
)

// PlaylistSource lists the playlists of a Spotify account.
type PlaylistSource interface {
	GetPlaylists(ctx context.Context, identityID string) ([]models.Playlist, error)
}

// IdentityExchanger turns the identity delivered to the login callback into an access token.
type IdentityExchanger interface {
	ExchangeIdentity(ctx context.Context, identityID string) (string, error)
}

// Enricher covers the metered enrichment endpoints of the backend: playlist tracks, the
// enhance operation that spends credits, and the account profile that holds them.
type Enricher interface {
	GetPlaylist(ctx context.Context, identityID, playlistID string) (models.Playlist, error)
	FetchTracks(ctx context.Context, identityID, playlistID string) error
	GetPlaylistTracks(ctx context.Context, identityID, playlistID string, offset, limit int) (models.TrackPage, error)
	EnhanceTracks(ctx context.Context, identityID, playlistID string, trackIDs []string) (string, error)
	Profile(ctx context.Context, identityID string) (models.Profile, error)
}

var (
	_ auth.Provider     = (*BackendService)(nil)
	_ auth.Verifier     = (*SpotifyService)(nil)
	_ PlaylistSource    = (*BackendService)(nil)
	_ IdentityExchanger = (*BackendService)(nil)
	_ Enricher          = (*BackendService)(nil)
)
