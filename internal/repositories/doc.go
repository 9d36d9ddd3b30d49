// Package repositories implements durable storage slots for the encrypted session blob.
//
// Both implementations satisfy [session.Storage]:
//   - [SlotRepository] : a key/value table in the local SQLite database (session_slots)
//   - [RedisSlot] : keys under a prefix in a Redis instance the host already runs
//
// Slots store opaque strings. They never see plaintext session data; encryption happens in
// [session.Store] before a value reaches them.
package repositories
