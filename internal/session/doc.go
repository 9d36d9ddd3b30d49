// Package session persists the single encrypted session record and decides when it has
// gone stale.
//
// # Storage
//
// A [Store] owns one key ([StorageKey] unless configured otherwise) in a [Storage] slot.
// [MemoryStorage] and [FileStorage] live here; the SQLite and Redis slots live in the
// repositories package.
//
// # Lifetime
//
// [Store.Load] returns nil for an absent, undecryptable or incomplete record, and deletes
// a record older than the store's TTL before returning nil. Corrupt entries are left in
// place for the next [Store.Save] to overwrite.
package session
