package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// MinSecretLength is the shortest secret (256 bits) [New] accepts.
	MinSecretLength = 32

	keySize   = 32
	nonceSize = 12
)

var hkdfInfo = []byte("plx/session-vault/v1")

var (
	// ErrSecretTooShort is returned by [New] for a secret under [MinSecretLength] bytes.
	ErrSecretTooShort = errors.New("vault secret too short")
	// ErrEncrypt wraps serialization and nonce failures. No blob is returned with it.
	ErrEncrypt = errors.New("vault encrypt failed")
	// ErrDecrypt wraps every reason a blob could not be opened: bad encoding, truncation,
	// a tag mismatch or an unparsable payload.
	ErrDecrypt = errors.New("vault decrypt failed")
)

// Blob is the encoded form of an encrypted value.
type Blob string

// Vault encrypts and decrypts JSON-serializable values with a key derived from a fixed secret.
//
// A Vault is safe for concurrent use.
type Vault struct {
	aead  cipher.AEAD
	nonce io.Reader
}

// Option configures a [Vault].
type Option func(*Vault)

// WithRandom replaces the nonce source. Tests use it to force nonce failures.
func WithRandom(r io.Reader) Option {
	return func(v *Vault) { v.nonce = r }
}

// New derives an AES-256 key from secret with HKDF-SHA256 and returns a ready [Vault].
func New(secret []byte, opts ...Option) (*Vault, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrSecretTooShort, MinSecretLength, len(secret))
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, hkdfInfo), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, err
	}

	v := &Vault{aead: aead, nonce: rand.Reader}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Encrypt serializes value to JSON and seals it under a fresh random nonce.
func (v *Vault) Encrypt(value any) (Blob, error) {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncrypt, err)
	}

	buf := make([]byte, nonceSize, nonceSize+len(plaintext)+v.aead.Overhead())
	if _, err := io.ReadFull(v.nonce, buf); err != nil {
		return "", fmt.Errorf("%w: nonce: %v", ErrEncrypt, err)
	}

	sealed := v.aead.Seal(buf, buf[:nonceSize], plaintext, nil)
	return Blob(base64.StdEncoding.EncodeToString(sealed)), nil
}

// Decrypt opens blob and unmarshals the plaintext into out.
//
// Every failure, from bad base64 to a tag mismatch, wraps [ErrDecrypt].
func (v *Vault) Decrypt(blob Blob, out any) error {
	raw, err := base64.StdEncoding.DecodeString(string(blob))
	if err != nil {
		return fmt.Errorf("%w: decode: %v", ErrDecrypt, err)
	}

	if len(raw) < nonceSize+v.aead.Overhead() {
		return fmt.Errorf("%w: blob truncated", ErrDecrypt)
	}

	plaintext, err := v.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("%w: parse: %v", ErrDecrypt, err)
	}
	return nil
}
