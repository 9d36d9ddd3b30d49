// Package services implements the remote collaborators the session controller depends on.
//
// # Backend
//
// [BackendService] talks to the enrichment backend, which brokers Spotify authorization and
// holds the refresh tokens. It satisfies [auth.Provider]:
//   - GET /auth/me : verify a bearer token
//   - POST /refresh-token : mint a new access token for a spotify_user_id
//   - GET /login : where the external login begins (redirect or {"redirectUrl"})
//
// It also completes the callback (GET /me) and lists stored playlists (GET /me/playlists).
// Requests share one [rate.Limiter] through [APIService].
//
// # Enrichment
//
// The metered side of the backend is the [Enricher] interface:
//   - GET /me/playlists/{id} : one stored playlist
//   - POST /me/playlists/{id}/fetch-tracks : start importing the playlist's tracks
//   - GET /me/playlists/{id}/tracks/details : a page of tracks and the account's credits
//   - POST /me/playlists/{id}/enhance : spend credits on {track_ids, spotify_user_id}
//   - GET /me : the profile, including its credits
//
// # Spotify
//
// [SpotifyService] calls the Web API directly with a static [oauth2.TokenSource]. It can
// stand in as the [auth.Verifier] (GET /v1/me) when session.verifier = "spotify".
//
// # Error Handling
//
// Rejections (401/403, success=false) are answers, not errors: the verifier reports
// Valid=false and the refresher Success=false. Errors use the shared sentinels:
//   - [shared.ErrServiceUnavailable] : transport failure or 5xx, safe to retry
//   - [shared.ErrAPIRequest] : any other unexpected status or undecodable body
//   - [shared.ErrNotAuthenticated] : the resource API refused the token
//   - [shared.ErrNotFound] : unknown playlist
//   - [shared.ErrInsufficientCredits] : enhance refused with 402
package services
