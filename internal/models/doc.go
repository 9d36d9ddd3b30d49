// Package models defines the playlist, track and profile entities shared by the services,
// formatter and cmd packages.
//
// [Playlist], [Track] and [Profile] are display models. [PlaylistDetails], [TrackDetails] and
// [ProfileDetails] are the enrichment backend's wire shapes and [SpotifyPlaylist] is the
// Spotify Web API's; each converts into its display model.
//
// # Credits
//
// Enrichment is metered: [EnhanceCost] gives the credits a batch of tracks takes, one credit
// per [TracksPerCredit] tracks, rounded up.
package models
