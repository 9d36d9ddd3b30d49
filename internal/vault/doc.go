// Package vault seals session records into opaque, tamper-evident text blobs.
//
// A blob is base64(nonce || ciphertext || tag) produced by AES-256-GCM under a key derived
// from the configured secret with HKDF-SHA256. Every [Vault.Encrypt] draws a fresh 96-bit
// nonce, so sealing the same record twice yields different blobs.
//
// Nothing outside this package reads the layout. A blob that fails to decode, is truncated,
// was sealed under another secret or has been altered in any byte is reported as
// [ErrDecrypt]; callers treat that the same as having no data.
package vault
