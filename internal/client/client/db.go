// Package client wires the local sqlite database and its repositories.
package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/smolnikov/tripsync/internal/client/migrations"
	"github.com/smolnikov/tripsync/internal/client/repositories/assets"
	"github.com/smolnikov/tripsync/internal/client/repositories/state"
)

type Repositories struct {
	State  state.Repository
	Assets assets.Repository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the sqlite database at dsn, applies
// pending migrations and returns the repositories. The caller owns the
// returned *sql.DB and must close it.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, *Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	repos := &Repositories{
		State:  state.NewSQLiteRepository(db),
		Assets: assets.NewSQLiteRepository(db),
	}
	return db, repos, nil
}
