package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/plx/internal/shared"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *BackendService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewBackendService(server.URL, nil, 0)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestBackendVerifyIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("sends bearer token", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/auth/me" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer T1" {
				t.Errorf("expected bearer header, got %q", got)
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "spotify_user_id": "user42"})
		})

		v, err := b.VerifyIdentity(ctx, "T1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !v.Valid || v.IdentityID != "user42" {
			t.Errorf("unexpected verification %+v", v)
		}
	})

	tt := []struct {
		name      string
		status    int
		body      any
		wantValid bool
		wantErr   error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized},
		{name: "forbidden", status: http.StatusForbidden},
		{name: "success false", status: http.StatusOK, body: map[string]any{"success": false}},
		{name: "server error", status: http.StatusInternalServerError, wantErr: shared.ErrServiceUnavailable},
		{name: "not found", status: http.StatusNotFound, wantErr: shared.ErrAPIRequest},
		{name: "garbage", status: http.StatusOK, body: "not an object", wantErr: shared.ErrAPIRequest},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, tc.body)
			})

			v, err := b.VerifyIdentity(ctx, "T1")
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("rejections are not errors, got %v", err)
			}
			if v.Valid != tc.wantValid {
				t.Errorf("Valid = %v, want %v", v.Valid, tc.wantValid)
			}
		})
	}
}

func TestBackendRefreshAccessToken(t *testing.T) {
	ctx := context.Background()

	t.Run("posts identity", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/refresh-token" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["spotify_user_id"] != "user42" {
				t.Errorf("expected spotify_user_id in body, got %v", body)
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "access_token": "T2"})
		})

		res, err := b.RefreshAccessToken(ctx, "user42")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Success || res.AccessToken != "T2" {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("declined", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "user not found"})
		})

		res, err := b.RefreshAccessToken(ctx, "user42")
		if err != nil || res.Success {
			t.Errorf("expected declined without error, got %+v, %v", res, err)
		}
	})

	t.Run("success without token", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		})

		if res, _ := b.RefreshAccessToken(ctx, "user42"); res.Success {
			t.Error("a refresh without a token is not a success")
		}
	})

	t.Run("rejected", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		res, err := b.RefreshAccessToken(ctx, "user42")
		if err != nil || res.Success {
			t.Errorf("expected rejection without error, got %+v, %v", res, err)
		}
	})

	t.Run("unavailable", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		if _, err := b.RefreshAccessToken(ctx, "user42"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestBackendBeginExternalLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("redirect", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "https://accounts.spotify.com/authorize?client_id=abc", http.StatusTemporaryRedirect)
		})

		target, err := b.BeginExternalLogin(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if target != "https://accounts.spotify.com/authorize?client_id=abc" {
			t.Errorf("unexpected target %q", target)
		}
	})

	t.Run("json body", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"redirectUrl": "https://accounts.spotify.com/authorize"})
		})

		target, err := b.BeginExternalLogin(ctx)
		if err != nil || target != "https://accounts.spotify.com/authorize" {
			t.Errorf("BeginExternalLogin() = %q, %v", target, err)
		}
	})

	t.Run("missing url", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{})
		})

		if _, err := b.BeginExternalLogin(ctx); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestBackendExchangeIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("returns token", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me" || r.URL.Query().Get("spotify_user_id") != "user42" {
				t.Errorf("unexpected request %s", r.URL)
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"success":   true,
				"user_data": map[string]string{"access_token": "T1"},
			})
		})

		token, err := b.ExchangeIdentity(ctx, "user42")
		if err != nil || token != "T1" {
			t.Errorf("ExchangeIdentity() = %q, %v", token, err)
		}
	})

	t.Run("user not found", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"message": "User data not found."})
		})

		if _, err := b.ExchangeIdentity(ctx, "user42"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("missing identity", func(t *testing.T) {
		b := NewBackendService("http://127.0.0.1:1", nil, 0)
		if _, err := b.ExchangeIdentity(ctx, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestBackendGetPlaylists(t *testing.T) {
	ctx := context.Background()

	t.Run("maps details", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/playlists" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"details": []map[string]any{
					{"playlist_spotify_id": "pl1", "playlist_name": "Late Night", "playlist_tracks_count": 31, "is_enriched": true},
					{"playlist_spotify_id": "pl2", "playlist_name": "Road Trip", "playlist_tracks_count": 12},
				},
			})
		})

		playlists, err := b.GetPlaylists(ctx, "user42")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(playlists) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(playlists))
		}
		if playlists[0].Name != "Late Night" || !playlists[0].Enriched {
			t.Errorf("unexpected first playlist %+v", playlists[0])
		}
	})

	t.Run("failure message", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "User not found"})
		})

		if _, err := b.GetPlaylists(ctx, "user42"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		if _, err := b.GetPlaylists(ctx, "user42"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestBackendGetPlaylist(t *testing.T) {
	ctx := context.Background()

	t.Run("escapes id and maps data", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.EscapedPath() != "/me/playlists/pl%2F1" {
				t.Errorf("unexpected path %s", r.URL.EscapedPath())
			}
			if got := r.URL.Query().Get("spotify_user_id"); got != "user42" {
				t.Errorf("expected identity in query, got %q", got)
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data":    map[string]any{"playlist_spotify_id": "pl/1", "playlist_name": "Late Night", "playlist_tracks_count": 31},
			})
		})

		pl, err := b.GetPlaylist(ctx, "user42", "pl/1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pl.ID != "pl/1" || pl.TrackCount != 31 {
			t.Errorf("unexpected playlist %+v", pl)
		}
	})

	t.Run("not found", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		if _, err := b.GetPlaylist(ctx, "user42", "missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("missing arguments", func(t *testing.T) {
		b := NewBackendService("http://127.0.0.1:1", nil, 0)
		if _, err := b.GetPlaylist(ctx, "", "pl1"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := b.GetPlaylist(ctx, "user42", ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestBackendFetchTracks(t *testing.T) {
	ctx := context.Background()

	t.Run("posts without body", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/me/playlists/pl1/fetch-tracks" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "started"})
		})

		if err := b.FetchTracks(ctx, "user42", "pl1"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("empty accepted response", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})

		if err := b.FetchTracks(ctx, "user42", "pl1"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unavailable", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		if err := b.FetchTracks(ctx, "user42", "pl1"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestBackendGetPlaylistTracks(t *testing.T) {
	ctx := context.Background()

	t.Run("pages and maps tracks", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/playlists/pl1/tracks/details" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("offset") != "20" || q.Get("limit") != "10" || q.Get("spotify_user_id") != "user42" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data": map[string]any{
					"tracks": []map[string]any{
						{"track_id": "t1", "name": "Nightcall", "artists": []string{"Kavinsky"}, "is_enriched": true, "genre": []string{"synthwave"}},
						{"track_id": "t2", "name": "Odd Look", "artists": []string{"Kavinsky", "The Weeknd"}},
					},
					"user_credits": 4,
					"has_more":     true,
					"is_fetching":  false,
				},
			})
		})

		page, err := b.GetPlaylistTracks(ctx, "user42", "pl1", 20, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Tracks) != 2 || page.Credits != 4 || !page.HasMore || page.Fetching {
			t.Errorf("unexpected page %+v", page)
		}
		if ids := page.Unenriched(); len(ids) != 1 || ids[0] != "t2" {
			t.Errorf("unexpected unenriched %v", ids)
		}
	})

	t.Run("still fetching", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"tracks": []any{}, "is_fetching": true}})
		})

		page, err := b.GetPlaylistTracks(ctx, "user42", "pl1", 0, 50)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !page.Fetching || len(page.Tracks) != 0 {
			t.Errorf("unexpected page %+v", page)
		}
	})

	t.Run("invalid paging", func(t *testing.T) {
		b := NewBackendService("http://127.0.0.1:1", nil, 0)
		if _, err := b.GetPlaylistTracks(ctx, "user42", "pl1", -1, 10); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := b.GetPlaylistTracks(ctx, "user42", "pl1", 0, 0); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestBackendEnhanceTracks(t *testing.T) {
	ctx := context.Background()

	t.Run("posts track ids and identity", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/me/playlists/pl1/enhance" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var body struct {
				TrackIDs      []string `json:"track_ids"`
				SpotifyUserID string   `json:"spotify_user_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(body.TrackIDs) != 2 || body.SpotifyUserID != "user42" {
				t.Errorf("unexpected body %+v", body)
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Enhanced 2 tracks"})
		})

		msg, err := b.EnhanceTracks(ctx, "user42", "pl1", []string{"t1", "t2"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg != "Enhanced 2 tracks" {
			t.Errorf("unexpected message %q", msg)
		}
	})

	t.Run("out of credits", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusPaymentRequired)
		})

		if _, err := b.EnhanceTracks(ctx, "user42", "pl1", []string{"t1"}); !errors.Is(err, shared.ErrInsufficientCredits) {
			t.Errorf("expected ErrInsufficientCredits, got %v", err)
		}
	})

	t.Run("declined with message", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Tracks already enriched"})
		})

		if _, err := b.EnhanceTracks(ctx, "user42", "pl1", []string{"t1"}); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("no tracks", func(t *testing.T) {
		b := NewBackendService("http://127.0.0.1:1", nil, 0)
		if _, err := b.EnhanceTracks(ctx, "user42", "pl1", nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestBackendProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("maps user data", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me" || r.URL.Query().Get("spotify_user_id") != "user42" {
				t.Errorf("unexpected request %s", r.URL)
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"user_data": map[string]any{
					"username":     "Ada",
					"email":        "ada@example.com",
					"country":      "GB",
					"credits":      12,
					"created_at":   "2024-06-01T10:00:00Z",
					"access_token": "T1",
				},
			})
		})

		p, err := b.Profile(ctx, "user42")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ID != "user42" || p.Username != "Ada" || p.Credits != 12 || p.MemberSince.Year() != 2024 {
			t.Errorf("unexpected profile %+v", p)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "User data not found."})
		})

		if _, err := b.Profile(ctx, "user42"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestIsUnavailable(t *testing.T) {
	if !IsUnavailable(shared.ErrServiceUnavailable) {
		t.Error("expected ErrServiceUnavailable to be retryable")
	}
	if IsUnavailable(shared.ErrAPIRequest) {
		t.Error("expected ErrAPIRequest not to be retryable")
	}
}
