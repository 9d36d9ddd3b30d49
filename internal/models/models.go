// package models defines the playlist, track and profile data model
package models

import (
	"strings"
	"time"
)

// TracksPerCredit is how many tracks one enrichment credit covers.
const TracksPerCredit = 10

// Playlist is a playlist as shown to the user, independent of where it was fetched from.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	OwnerID     string `json:"owner_id,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
	Enriched    bool   `json:"enriched"`
	ImageURL    string `json:"image_url,omitempty"`
	URL         string `json:"url,omitempty"`
}

// PlaylistDetails is one entry of the backend's /me/playlists "details" array.
type PlaylistDetails struct {
	OwnerSpotifyID      string  `json:"owner_spotify_id"`
	PlaylistName        string  `json:"playlist_name"`
	PlaylistTracksCount int     `json:"playlist_tracks_count"`
	PlaylistDP          *string `json:"playlist_dp"`
	PlaylistSpotifyID   string  `json:"playlist_spotify_id"`
	ExternalURL         string  `json:"external_url_playlist"`
	IsPublic            bool    `json:"is_public"`
	Description         string  `json:"playlist_description"`
	IsEnriched          bool    `json:"is_enriched"`
}

func (d PlaylistDetails) Playlist() Playlist {
	p := Playlist{
		ID:          d.PlaylistSpotifyID,
		Name:        d.PlaylistName,
		Description: d.Description,
		OwnerID:     d.OwnerSpotifyID,
		TrackCount:  d.PlaylistTracksCount,
		Public:      d.IsPublic,
		Enriched:    d.IsEnriched,
		URL:         d.ExternalURL,
	}
	if d.PlaylistDP != nil {
		p.ImageURL = *d.PlaylistDP
	}
	return p
}

// SpotifyImage is an image resource in Spotify Web API responses.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyPlaylist is the simplified playlist object returned by GET /me/playlists.
type SpotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"owner"`
	Public *bool `json:"public"`
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
	Images       []SpotifyImage `json:"images"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

func (s SpotifyPlaylist) Playlist() Playlist {
	p := Playlist{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		OwnerID:     s.Owner.ID,
		TrackCount:  s.Tracks.Total,
		Public:      s.Public != nil && *s.Public,
		URL:         s.ExternalURLs.Spotify,
	}
	if len(s.Images) > 0 {
		p.ImageURL = s.Images[0].URL
	}
	return p
}

// Track is one playlist entry as shown to the user.
type Track struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album,omitempty"`
	URL         string   `json:"url,omitempty"`
	PreviewURL  string   `json:"preview_url,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Language    string   `json:"language,omitempty"`
	Enriched    bool     `json:"enriched"`
	Contributor string   `json:"contributor,omitempty"`
}

// TrackDetails is one entry of the backend's tracks/details "tracks" array.
//
// language arrives as a string or a list depending on the backend version.
type TrackDetails struct {
	TrackID     string   `json:"track_id"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	AlbumName   string   `json:"album_name"`
	AlbumImage  string   `json:"album_image"`
	ExternalURL string   `json:"external_url"`
	PreviewURL  *string  `json:"preview_url"`
	Genre       []string `json:"genre"`
	Language    any      `json:"language"`
	IsEnriched  bool     `json:"is_enriched"`
	Contributor *string  `json:"contributor"`
}

func (d TrackDetails) Track() Track {
	t := Track{
		ID:       d.TrackID,
		Name:     d.Name,
		Artists:  d.Artists,
		Album:    d.AlbumName,
		URL:      d.ExternalURL,
		Genres:   d.Genre,
		Enriched: d.IsEnriched,
	}
	if d.PreviewURL != nil {
		t.PreviewURL = *d.PreviewURL
	}
	if d.Contributor != nil {
		t.Contributor = *d.Contributor
	}

	switch lang := d.Language.(type) {
	case string:
		t.Language = lang
	case []any:
		parts := make([]string, 0, len(lang))
		for _, l := range lang {
			if s, ok := l.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		t.Language = strings.Join(parts, ", ")
	}
	return t
}

// TrackPage is one page of a playlist's tracks plus the account's remaining credits.
type TrackPage struct {
	Tracks   []Track `json:"tracks"`
	Credits  int     `json:"credits"`
	HasMore  bool    `json:"has_more"`
	Fetching bool    `json:"fetching"` // the backend is still importing tracks from Spotify
}

// Unenriched returns the IDs of tracks that have not been enriched yet.
func (p TrackPage) Unenriched() []string {
	var ids []string
	for _, t := range p.Tracks {
		if !t.Enriched {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// EnhanceCost is the number of credits enriching n tracks takes.
func EnhanceCost(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + TracksPerCredit - 1) / TracksPerCredit
}

// Profile is the signed-in account as the backend knows it.
type Profile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	Country     string    `json:"country,omitempty"`
	PictureURL  string    `json:"picture_url,omitempty"`
	Credits     int       `json:"credits"`
	MemberSince time.Time `json:"member_since,omitzero"`
}

// ProfileDetails is the backend's /me "user_data" object.
type ProfileDetails struct {
	SpotifyUserID  string  `json:"spotify_user_id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	Country        string  `json:"country"`
	ProfilePicture *string `json:"profile_picture"`
	CreatedAt      string  `json:"created_at"`
	Credits        int     `json:"credits"`
	AccessToken    string  `json:"access_token"`
}

var createdAtLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999"}

func (d ProfileDetails) Profile() Profile {
	p := Profile{
		ID:       d.SpotifyUserID,
		Username: d.Username,
		Email:    d.Email,
		Country:  d.Country,
		Credits:  d.Credits,
	}
	if d.ProfilePicture != nil {
		p.PictureURL = *d.ProfilePicture
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, d.CreatedAt); err == nil {
			p.MemberSince = t.UTC()
			break
		}
	}
	return p
}
