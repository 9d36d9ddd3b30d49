// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/plx/internal/auth"
	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
)

// FakeProvider is a scriptable [auth.Provider].
//
// Verify and Refresh answers are consumed in order; once a script runs out the last
// answer repeats. An empty script answers valid / refreshed with "fresh-token".
type FakeProvider struct {
	mu sync.Mutex

	Verifications  []Verify
	Refreshes      []Refresh
	LoginURL       string
	LoginErr       error
	Playlists      []models.Playlist
	ExchangeTokens map[string]string

	// Enrichment answers. The first FetchingPolls track pages report Fetching.
	Tracks        []models.Track
	Credits       int
	FetchingPolls int
	EnhanceErr    error
	Account       models.Profile
	Enhanced      [][]string // track ids passed to EnhanceTracks
	FetchCalls    int
	PageCalls     int

	VerifyCalls  int
	RefreshCalls int
	Tokens       []string // tokens passed to VerifyIdentity
	Identities   []string // identities passed to RefreshAccessToken

	// Gate, when set, is received from before each refresh answer.
	Gate chan struct{}
}

// Verify is one scripted VerifyIdentity answer.
type Verify struct {
	Result auth.Verification
	Err    error
}

// Refresh is one scripted RefreshAccessToken answer.
type Refresh struct {
	Result auth.RefreshResult
	Err    error
}

func Valid(identityID string) Verify {
	return Verify{Result: auth.Verification{Valid: true, IdentityID: identityID}}
}

func Rejected() Verify {
	return Verify{Result: auth.Verification{Valid: false}}
}

func VerifyError(err error) Verify {
	return Verify{Err: err}
}

func Refreshed(token string) Refresh {
	return Refresh{Result: auth.RefreshResult{Success: true, AccessToken: token}}
}

func Declined() Refresh {
	return Refresh{Result: auth.RefreshResult{Success: false}}
}

func RefreshError(err error) Refresh {
	return Refresh{Err: err}
}

func pick[T any](script []T, i int, fallback T) T {
	if len(script) == 0 {
		return fallback
	}
	if i >= len(script) {
		return script[len(script)-1]
	}
	return script[i]
}

func (f *FakeProvider) VerifyIdentity(ctx context.Context, accessToken string) (auth.Verification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := pick(f.Verifications, f.VerifyCalls, Valid(""))
	f.VerifyCalls++
	f.Tokens = append(f.Tokens, accessToken)
	return v.Result, v.Err
}

func (f *FakeProvider) RefreshAccessToken(ctx context.Context, identityID string) (auth.RefreshResult, error) {
	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return auth.RefreshResult{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	r := pick(f.Refreshes, f.RefreshCalls, Refreshed("fresh-token"))
	f.RefreshCalls++
	f.Identities = append(f.Identities, identityID)
	return r.Result, r.Err
}

func (f *FakeProvider) BeginExternalLogin(ctx context.Context) (string, error) {
	if f.LoginErr != nil {
		return "", f.LoginErr
	}
	if f.LoginURL == "" {
		return "https://accounts.example.com/authorize", nil
	}
	return f.LoginURL, nil
}

func (f *FakeProvider) GetPlaylists(ctx context.Context, identityID string) ([]models.Playlist, error) {
	return f.Playlists, nil
}

func (f *FakeProvider) ExchangeIdentity(ctx context.Context, identityID string) (string, error) {
	if token, ok := f.ExchangeTokens[identityID]; ok {
		return token, nil
	}
	return "", errors.New("unknown identity")
}

func (f *FakeProvider) GetPlaylist(ctx context.Context, identityID, playlistID string) (models.Playlist, error) {
	for _, p := range f.Playlists {
		if p.ID == playlistID {
			return p, nil
		}
	}
	return models.Playlist{}, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, playlistID)
}

func (f *FakeProvider) FetchTracks(ctx context.Context, identityID, playlistID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FetchCalls++
	return nil
}

func (f *FakeProvider) GetPlaylistTracks(ctx context.Context, identityID, playlistID string, offset, limit int) (models.TrackPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.PageCalls++
	if f.PageCalls <= f.FetchingPolls {
		return models.TrackPage{Tracks: []models.Track{}, Credits: f.Credits, Fetching: true}, nil
	}

	start := min(offset, len(f.Tracks))
	end := min(start+limit, len(f.Tracks))
	return models.TrackPage{
		Tracks:  f.Tracks[start:end],
		Credits: f.Credits,
		HasMore: end < len(f.Tracks),
	}, nil
}

func (f *FakeProvider) EnhanceTracks(ctx context.Context, identityID, playlistID string, trackIDs []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.EnhanceErr != nil {
		return "", f.EnhanceErr
	}
	f.Enhanced = append(f.Enhanced, trackIDs)
	f.Credits -= models.EnhanceCost(len(trackIDs))
	return fmt.Sprintf("Enhanced %d tracks", len(trackIDs)), nil
}

func (f *FakeProvider) Profile(ctx context.Context, identityID string) (models.Profile, error) {
	p := f.Account
	if p.ID == "" {
		p.ID = identityID
	}
	return p, nil
}

// Counts returns the verify and refresh call counts.
func (f *FakeProvider) Counts() (verify, refresh int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.VerifyCalls, f.RefreshCalls
}

// FailingStorage is a session storage slot whose every operation fails with Err.
type FailingStorage struct {
	Err error
}

func (s FailingStorage) Get(context.Context, string) (string, bool, error) { return "", false, s.Err }
func (s FailingStorage) Set(context.Context, string, string) error         { return s.Err }
func (s FailingStorage) Delete(context.Context, string) error              { return s.Err }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
