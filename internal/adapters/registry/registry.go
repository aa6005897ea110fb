// Package registry is the time-windowed store of per-user preference entries.
package registry

import (
	"time"

	"github.com/ericggul/moodscape/internal/domain/env"
)

// Entry is one decision round's preference record. A user may own several
// entries; only those inside the active window count toward aggregation.
type Entry struct {
	ID        string
	UserID    string
	Params    env.Environment
	CreatedAt time.Time
}

// Store provides append, windowed read, and purge access to preferences.
type Store interface {
	// Persist appends an entry.
	Persist(entry Entry)

	// ActiveEntries returns all entries with now-CreatedAt <= window, in
	// insertion order.
	ActiveEntries(now time.Time) []Entry

	// Remove purges every entry for the user. Used on explicit departure;
	// the only expiry besides the time window.
	Remove(userID string)

	// Clear drops everything. Used by the reset coordinator.
	Clear()

	// Len returns the number of stored (not necessarily active) entries.
	Len() int
}
