// package repositories provides session storage slots backed by SQLite and Redis.
package repositories

import (
	"github.com/desertthunder/plx/internal/session"
)

var (
	_ session.Storage = (*SlotRepository)(nil)
	_ session.Storage = (*RedisSlot)(nil)
)
