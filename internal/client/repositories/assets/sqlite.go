// Package assets implements the binary asset cache on a SQLite blob table.
package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/smolnikov/tripsync/internal/common"
	"github.com/smolnikov/tripsync/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx, `SELECT content FROM assets WHERE key = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("asset %s: %w", key, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset[%s]: %w", key, err)
	}
	return blob, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, key string, blob []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO assets (key, content) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET content = excluded.content
	`, key, blob)
	if err != nil {
		return fmt.Errorf("failed to put asset[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete asset[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, key string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM assets WHERE key = ?`, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check asset[%s]: %w", key, err)
	}
	return true, nil
}

// Rename copies the blob to newKey and removes oldKey inside one transaction.
func (r *SQLiteRepository) Rename(ctx context.Context, oldKey, newKey string) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO assets (key, content)
			SELECT ?, content FROM assets WHERE key = ?
			ON CONFLICT(key) DO UPDATE SET content = excluded.content
		`, newKey, oldKey)
		if err != nil {
			return fmt.Errorf("failed to rename asset[%s]: %w", oldKey, err)
		}
		ra, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if ra == 0 {
			return fmt.Errorf("asset %s: %w", oldKey, common.ErrNotFound)
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM assets WHERE key = ?`, oldKey)
		if err != nil {
			return fmt.Errorf("failed to remove old asset[%s]: %w", oldKey, err)
		}
		return nil
	})
}
