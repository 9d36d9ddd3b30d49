// Enrichment backend client
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/plx/internal/auth"
	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
)

// BackendService talks to the enrichment backend, which owns the Spotify refresh tokens.
//
// A 401/403 or a body with success=false is a rejection and is reported without an error.
// Transport failures and 5xx responses wrap [shared.ErrServiceUnavailable].
type BackendService struct {
	api *APIService
}

// NewBackendService builds a backend client. Redirects are never followed so that the
// login endpoint's Location can be handed to the caller.
func NewBackendService(baseURL string, client *http.Client, rps float64) *BackendService {
	c := &http.Client{}
	if client != nil {
		*c = *client
	}
	c.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	return &BackendService{api: NewAPIService(baseURL, c, rps)}
}

type whoAmIResponse struct {
	Success       bool   `json:"success"`
	SpotifyUserID string `json:"spotify_user_id"`
	Message       string `json:"message"`
}

type refreshRequest struct {
	SpotifyUserID string `json:"spotify_user_id"`
}

type refreshResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"access_token"`
	Message     string `json:"message"`
}

type loginResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

type userResponse struct {
	Success  bool                  `json:"success"`
	Message  string                `json:"message"`
	UserData models.ProfileDetails `json:"user_data"`
}

type playlistsResponse struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Details []models.PlaylistDetails `json:"details"`
}

type playlistResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    models.PlaylistDetails `json:"data"`
}

type trackPageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Tracks      []models.TrackDetails `json:"tracks"`
		UserCredits int                   `json:"user_credits"`
		HasMore     bool                  `json:"has_more"`
		IsFetching  bool                  `json:"is_fetching"`
	} `json:"data"`
}

type enhanceRequest struct {
	TrackIDs      []string `json:"track_ids"`
	SpotifyUserID string   `json:"spotify_user_id"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func unexpected(resp *APIResponse, path string) error {
	return fmt.Errorf("%w: %s returned %d", shared.ErrAPIRequest, path, resp.StatusCode)
}

// VerifyIdentity asks the backend who the bearer of accessToken is.
func (b *BackendService) VerifyIdentity(ctx context.Context, accessToken string) (auth.Verification, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+accessToken)

	resp, err := b.api.Get(ctx, "/auth/me", header)
	if err != nil {
		return auth.Verification{}, err
	}
	if resp.Rejected() {
		return auth.Verification{Valid: false}, nil
	}
	if !resp.OK() {
		return auth.Verification{}, unexpected(resp, "/auth/me")
	}

	var body whoAmIResponse
	if err := resp.Decode(&body); err != nil {
		return auth.Verification{}, err
	}

	return auth.Verification{Valid: body.Success, IdentityID: body.SpotifyUserID}, nil
}

// RefreshAccessToken asks the backend to mint a new access token for identityID.
func (b *BackendService) RefreshAccessToken(ctx context.Context, identityID string) (auth.RefreshResult, error) {
	resp, err := b.api.PostJSON(ctx, "/refresh-token", refreshRequest{SpotifyUserID: identityID})
	if err != nil {
		return auth.RefreshResult{}, err
	}
	if resp.Rejected() {
		return auth.RefreshResult{Success: false}, nil
	}
	if !resp.OK() {
		return auth.RefreshResult{}, unexpected(resp, "/refresh-token")
	}

	var body refreshResponse
	if err := resp.Decode(&body); err != nil {
		return auth.RefreshResult{}, err
	}

	return auth.RefreshResult{Success: body.Success && body.AccessToken != "", AccessToken: body.AccessToken}, nil
}

// BeginExternalLogin returns the authorization URL the backend's /login points at.
//
// The backend may answer with a redirect or with {"redirectUrl": ...}.
func (b *BackendService) BeginExternalLogin(ctx context.Context) (string, error) {
	resp, err := b.api.Get(ctx, "/login", nil)
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		if loc := resp.Headers.Get("Location"); loc != "" {
			return loc, nil
		}
		return "", fmt.Errorf("%w: redirect without location", shared.ErrAPIRequest)
	}
	if !resp.OK() {
		return "", unexpected(resp, "/login")
	}

	var body loginResponse
	if err := resp.Decode(&body); err != nil {
		return "", err
	}
	if body.RedirectURL == "" {
		return "", fmt.Errorf("%w: missing redirectUrl", shared.ErrAPIRequest)
	}
	return body.RedirectURL, nil
}

// ExchangeIdentity fetches the access token the backend holds for identityID.
// It completes the callback half of the login flow.
func (b *BackendService) ExchangeIdentity(ctx context.Context, identityID string) (string, error) {
	if identityID == "" {
		return "", fmt.Errorf("%w: spotify_user_id", shared.ErrMissingArgument)
	}

	path := "/me?" + url.Values{"spotify_user_id": {identityID}}.Encode()
	resp, err := b.api.Get(ctx, path, nil)
	if err != nil {
		return "", err
	}
	if resp.Rejected() {
		return "", shared.ErrInvalidCredentials
	}
	if !resp.OK() {
		return "", unexpected(resp, "/me")
	}

	var body userResponse
	if err := resp.Decode(&body); err != nil {
		return "", err
	}
	if !body.Success || body.UserData.AccessToken == "" {
		msg := body.Message
		if msg == "" {
			msg = "no access token for user"
		}
		return "", fmt.Errorf("%w: %s", shared.ErrAuthFailed, msg)
	}
	return body.UserData.AccessToken, nil
}

// GetPlaylists lists the playlists the backend has stored for identityID.
func (b *BackendService) GetPlaylists(ctx context.Context, identityID string) ([]models.Playlist, error) {
	if identityID == "" {
		return nil, fmt.Errorf("%w: spotify_user_id", shared.ErrMissingArgument)
	}

	path := "/me/playlists?" + url.Values{"spotify_user_id": {identityID}}.Encode()
	resp, err := b.api.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	if resp.Rejected() {
		return nil, shared.ErrNotAuthenticated
	}
	if !resp.OK() {
		return nil, unexpected(resp, "/me/playlists")
	}

	var body playlistsResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	if !body.Success {
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, body.Message)
	}

	playlists := make([]models.Playlist, 0, len(body.Details))
	for _, d := range body.Details {
		playlists = append(playlists, d.Playlist())
	}
	return playlists, nil
}

// GetPlaylist returns one stored playlist of identityID.
func (b *BackendService) GetPlaylist(ctx context.Context, identityID, playlistID string) (models.Playlist, error) {
	path, err := playlistPath(identityID, playlistID, "", nil)
	if err != nil {
		return models.Playlist{}, err
	}

	var body playlistResponse
	if err := b.getJSON(ctx, path, &body); err != nil {
		return models.Playlist{}, err
	}
	if !body.Success {
		return models.Playlist{}, failed(body.Message)
	}
	return body.Data.Playlist(), nil
}

// FetchTracks asks the backend to import the playlist's tracks from Spotify. The import
// runs in the background; [BackendService.GetPlaylistTracks] reports it as Fetching.
func (b *BackendService) FetchTracks(ctx context.Context, identityID, playlistID string) error {
	path, err := playlistPath(identityID, playlistID, "/fetch-tracks", nil)
	if err != nil {
		return err
	}

	resp, err := b.api.Post(ctx, path, nil, nil)
	if err != nil {
		return err
	}
	if err := check(resp, "/fetch-tracks"); err != nil {
		return err
	}

	if len(resp.Body) == 0 {
		return nil
	}
	var body statusResponse
	if err := resp.Decode(&body); err != nil {
		return err
	}
	if !body.Success && body.Message != "" {
		return failed(body.Message)
	}
	return nil
}

// GetPlaylistTracks returns up to limit tracks starting at offset, with the account's credits.
func (b *BackendService) GetPlaylistTracks(ctx context.Context, identityID, playlistID string, offset, limit int) (models.TrackPage, error) {
	if offset < 0 || limit <= 0 {
		return models.TrackPage{}, fmt.Errorf("%w: offset %d, limit %d", shared.ErrInvalidArgument, offset, limit)
	}

	query := url.Values{"offset": {strconv.Itoa(offset)}, "limit": {strconv.Itoa(limit)}}
	path, err := playlistPath(identityID, playlistID, "/tracks/details", query)
	if err != nil {
		return models.TrackPage{}, err
	}

	var body trackPageResponse
	if err := b.getJSON(ctx, path, &body); err != nil {
		return models.TrackPage{}, err
	}
	if !body.Success {
		return models.TrackPage{}, failed(body.Message)
	}

	page := models.TrackPage{
		Tracks:   make([]models.Track, 0, len(body.Data.Tracks)),
		Credits:  body.Data.UserCredits,
		HasMore:  body.Data.HasMore,
		Fetching: body.Data.IsFetching,
	}
	for _, d := range body.Data.Tracks {
		page.Tracks = append(page.Tracks, d.Track())
	}
	return page, nil
}

// EnhanceTracks spends credits to enrich trackIDs of a playlist and returns the backend's message.
//
// A 402 from the backend wraps [shared.ErrInsufficientCredits].
func (b *BackendService) EnhanceTracks(ctx context.Context, identityID, playlistID string, trackIDs []string) (string, error) {
	if len(trackIDs) == 0 {
		return "", fmt.Errorf("%w: track ids", shared.ErrMissingArgument)
	}
	if identityID == "" {
		return "", fmt.Errorf("%w: spotify_user_id", shared.ErrMissingArgument)
	}
	if playlistID == "" {
		return "", fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	path := "/me/playlists/" + url.PathEscape(playlistID) + "/enhance"
	resp, err := b.api.PostJSON(ctx, path, enhanceRequest{TrackIDs: trackIDs, SpotifyUserID: identityID})
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusPaymentRequired {
		return "", fmt.Errorf("%w: %d tracks need %d credits", shared.ErrInsufficientCredits, len(trackIDs), models.EnhanceCost(len(trackIDs)))
	}
	if err := check(resp, "/enhance"); err != nil {
		return "", err
	}

	var body statusResponse
	if err := resp.Decode(&body); err != nil {
		return "", err
	}
	if !body.Success {
		return "", failed(body.Message)
	}
	return body.Message, nil
}

// Profile returns the account the backend stores for identityID, including its credits.
func (b *BackendService) Profile(ctx context.Context, identityID string) (models.Profile, error) {
	if identityID == "" {
		return models.Profile{}, fmt.Errorf("%w: spotify_user_id", shared.ErrMissingArgument)
	}

	var body userResponse
	path := "/me?" + url.Values{"spotify_user_id": {identityID}}.Encode()
	if err := b.getJSON(ctx, path, &body); err != nil {
		return models.Profile{}, err
	}
	if !body.Success {
		return models.Profile{}, failed(body.Message)
	}

	profile := body.UserData.Profile()
	if profile.ID == "" {
		profile.ID = identityID
	}
	return profile, nil
}

func (b *BackendService) getJSON(ctx context.Context, path string, out any) error {
	resp, err := b.api.Get(ctx, path, nil)
	if err != nil {
		return err
	}
	if err := check(resp, path); err != nil {
		return err
	}
	return resp.Decode(out)
}

// check maps statuses shared by the account endpoints to sentinel errors.
func check(resp *APIResponse, path string) error {
	switch {
	case resp.Rejected():
		return shared.ErrNotAuthenticated
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrNotFound, path)
	case !resp.OK():
		return unexpected(resp, path)
	}
	return nil
}

func failed(message string) error {
	if message == "" {
		message = "backend reported failure"
	}
	return fmt.Errorf("%w: %s", shared.ErrAPIRequest, message)
}

// playlistPath builds /me/playlists/{id}{suffix}?spotify_user_id=...
func playlistPath(identityID, playlistID, suffix string, query url.Values) (string, error) {
	if identityID == "" {
		return "", fmt.Errorf("%w: spotify_user_id", shared.ErrMissingArgument)
	}
	if playlistID == "" {
		return "", fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("spotify_user_id", identityID)
	return "/me/playlists/" + url.PathEscape(playlistID) + suffix + "?" + query.Encode(), nil
}

// IsUnavailable reports whether err is a transient service failure worth retrying.
func IsUnavailable(err error) bool {
	return errors.Is(err, shared.ErrServiceUnavailable)
}
