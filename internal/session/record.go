package session

import "time"

// Record is the only persisted session entity.
type Record struct {
	IdentityID  string `json:"identity_id"`
	AccessToken string `json:"access_token"`
	SavedAt     int64  `json:"saved_at"` // epoch ms of the last write
}

// Complete reports whether every required field is present.
func (r Record) Complete() bool {
	return r.IdentityID != "" && r.AccessToken != "" && r.SavedAt > 0
}

// Stale reports whether more than ttl has passed since the record was written.
func (r Record) Stale(now time.Time, ttl time.Duration) bool {
	return now.UnixMilli()-r.SavedAt > ttl.Milliseconds()
}

// SavedTime returns SavedAt as a [time.Time].
func (r Record) SavedTime() time.Time {
	return time.UnixMilli(r.SavedAt)
}
