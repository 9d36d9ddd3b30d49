// Spotify Web API client
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/plx/internal/auth"
	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
	"golang.org/x/oauth2"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string                `json:"id"`
	DisplayName string                `json:"display_name"`
	Email       string                `json:"email"`
	Country     string                `json:"country"`
	Product     string                `json:"product"` // premium, free, etc.
	Followers   followers             `json:"followers"`
	Images      []models.SpotifyImage `json:"images"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items    []models.SpotifyPlaylist `json:"items"`
	Total    int                      `json:"total"`
	Limit    int                      `json:"limit"`
	Offset   int                      `json:"offset"`
	Next     *string                  `json:"next"`
	Previous *string                  `json:"previous"`
}

// SpotifyService calls the Spotify Web API directly with a bearer token.
//
// Tokens are attached by an [oauth2.StaticTokenSource]; the backend owns refresh, so the
// source never renews on its own.
type SpotifyService struct {
	baseURL string
	client  *http.Client
	token   string
}

// NewSpotifyService creates a client for baseURL (defaults to the public API). client is the
// transport the oauth2 client wraps.
func NewSpotifyService(baseURL string, client *http.Client) *SpotifyService {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SpotifyService{baseURL: baseURL, client: client}
}

// WithToken returns a copy of s that authenticates as accessToken.
func (s *SpotifyService) WithToken(accessToken string) *SpotifyService {
	c := *s
	c.token = accessToken
	return &c
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated GET against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, token, endpoint string, result any) error {
	if token == "" {
		return shared.ErrNotAuthenticated
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: spotify returned %d", shared.ErrNotAuthenticated, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: spotify returned %d", shared.ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify returned %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, s.token, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyIdentity resolves accessToken to a Spotify user via GET /me.
func (s *SpotifyService) VerifyIdentity(ctx context.Context, accessToken string) (auth.Verification, error) {
	user, err := s.WithToken(accessToken).UserProfile(ctx)
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return auth.Verification{Valid: false}, nil
	}
	if err != nil {
		return auth.Verification{}, err
	}
	return auth.Verification{Valid: user.ID != "", IdentityID: user.ID}, nil
}

// UserPlaylists retrieves the current user's playlists with pagination.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, s.token, endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// GetPlaylists retrieves all playlists for the authenticated user.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var all []models.Playlist
	limit := 50
	offset := 0

	for {
		response, err := s.UserPlaylists(ctx, limit, offset)
		if err != nil {
			return nil, err
		}

		for _, sp := range response.Items {
			all = append(all, sp.Playlist())
		}

		if response.Next == nil || len(response.Items) == 0 {
			break
		}
		offset += limit
	}

	return all, nil
}
