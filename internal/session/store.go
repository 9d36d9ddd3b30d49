package session

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/desertthunder/plx/internal/vault"
)

const (
	// StorageKey is the single slot the session blob lives under.
	StorageKey = "spotify_auth_data"
	// DefaultTTL is how long a saved record stays usable.
	DefaultTTL = time.Hour
)

// Cipher seals records into blobs and back. [vault.Vault] implements it.
type Cipher interface {
	Encrypt(v any) (vault.Blob, error)
	Decrypt(b vault.Blob, v any) error
}

// Store is the only component that reads or writes session data in [Storage].
type Store struct {
	storage Storage
	cipher  Cipher
	key     string
	ttl     time.Duration
	now     func() time.Time
	logger  *log.Logger
}

// StoreOption configures a [Store].
type StoreOption func(*Store)

// WithTTL sets how long a saved record stays usable. Non-positive values keep [DefaultTTL].
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces the time source used to stamp and age records.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger for decrypt and eviction events.
func WithLogger(l *log.Logger) StoreOption {
	return func(s *Store) { s.logger = shared.WithLogger(l, "component", "session") }
}

// WithKey stores the blob under key instead of [StorageKey]. An empty key is ignored.
func WithKey(key string) StoreOption {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// NewStore returns a store that seals records with cipher and keeps them in storage.
func NewStore(storage Storage, cipher Cipher, opts ...StoreOption) *Store {
	s := &Store{
		storage: storage,
		cipher:  cipher,
		key:     StorageKey,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured session lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// Save stamps rec with the current time, encrypts it and overwrites the stored blob.
//
// An encryption failure leaves storage untouched. Both encryption and write failures wrap
// [shared.ErrSaveFailed].
func (s *Store) Save(ctx context.Context, rec Record) (Record, error) {
	rec.SavedAt = s.now().UnixMilli()

	blob, err := s.cipher.Encrypt(rec)
	if err != nil {
		s.logger.Error("encrypt session", "error", err)
		return Record{}, fmt.Errorf("%w: %v", shared.ErrSaveFailed, err)
	}

	if err := s.storage.Set(ctx, s.key, string(blob)); err != nil {
		s.logger.Error("write session", "error", err)
		return Record{}, fmt.Errorf("%w: %v", shared.ErrSaveFailed, err)
	}

	s.logger.Debug("session saved", "identity", rec.IdentityID)
	return rec, nil
}

// Load returns the stored record, or nil when there is no usable one.
//
// Unreadable or incomplete entries are left in place. A stale entry is deleted before
// returning nil.
func (s *Store) Load(ctx context.Context) *Record {
	value, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("read session", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var rec Record
	if err := s.cipher.Decrypt(vault.Blob(value), &rec); err != nil {
		s.logger.Warn("discarding unreadable session", "error", err)
		return nil
	}

	if !rec.Complete() {
		s.logger.Warn("discarding incomplete session")
		return nil
	}

	if rec.Stale(s.now(), s.ttl) {
		s.logger.Info("session expired", "identity", rec.IdentityID, "saved_at", rec.SavedTime())
		if err := s.storage.Delete(ctx, s.key); err != nil {
			s.logger.Warn("evict expired session", "error", err)
		}
		return nil
	}

	return &rec
}

// Clear removes the stored blob. Clearing an empty slot is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.storage.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
