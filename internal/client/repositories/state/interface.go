package state

import (
	"context"

	"github.com/smolnikov/tripsync/internal/client/models"
)

// Repository persists the last-known dataset snapshot and the pending
// operation queue across process restarts.
//
// Durability is best effort: Save failures degrade durability, not
// correctness, because the in-memory state stays authoritative for the
// running session.
type Repository interface {
	// Save persists both the snapshot and the queue. Implementations write
	// the two inside a single transaction, so a crash leaves at most stale
	// data, never a torn pair.
	Save(ctx context.Context, snap models.Snapshot, queue []models.QueueEntry) error

	// Load returns the last saved snapshot and queue. On first run it
	// returns common.ErrNothingStored (with the queue still populated if one
	// was saved). Malformed stored data degrades to empty defaults rather
	// than failing the caller.
	Load(ctx context.Context) (models.Snapshot, []models.QueueEntry, error)
}
