// Package state stores the dataset snapshot and sync queue as two versioned
// rows of a SQLite key/value table. The version suffix in the keys lets a
// schema change invalidate old data without a migration.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/smolnikov/tripsync/internal/client/models"
	"github.com/smolnikov/tripsync/internal/common"
	"github.com/smolnikov/tripsync/internal/dbx"
)

const (
	keySnapshot = "tripdata_v1"
	keyQueue    = "syncqueue_v1"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Save upserts both rows inside one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, snap models.Snapshot, queue []models.QueueEntry) error {
	snapData, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if queue == nil {
		queue = []models.QueueEntry{}
	}
	queueData, err := json.Marshal(queue)
	if err != nil {
		return fmt.Errorf("failed to marshal queue: %w", err)
	}

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, kv := range []struct {
			key   string
			value []byte
		}{{keySnapshot, snapData}, {keyQueue, queueData}} {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO state (key, value) VALUES (?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value
			`, kv.key, kv.value)
			if err != nil {
				return fmt.Errorf("failed to set state[%s]: %w", kv.key, err)
			}
		}
		return nil
	})
}

// Load reads both rows. A missing snapshot row means first run
// (common.ErrNothingStored); a queue saved before that is still returned so
// pending operations survive a snapshot-version bump. Rows that fail to
// unmarshal are treated as absent.
func (r *SQLiteRepository) Load(ctx context.Context) (models.Snapshot, []models.QueueEntry, error) {
	queue := []models.QueueEntry{}
	if data, ok := r.get(ctx, keyQueue); ok {
		if err := json.Unmarshal(data, &queue); err != nil {
			queue = []models.QueueEntry{}
		}
	}

	data, ok := r.get(ctx, keySnapshot)
	if !ok {
		return models.EmptySnapshot(), queue, common.ErrNothingStored
	}

	snap := models.EmptySnapshot()
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.EmptySnapshot(), queue, common.ErrNothingStored
	}
	return snap, queue, nil
}

func (r *SQLiteRepository) get(ctx context.Context, key string) ([]byte, bool) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) || err != nil {
		return nil, false
	}
	return value, true
}
