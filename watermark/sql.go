package watermark

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const sqlStateTable = "archiver_state"

// SQL persists properties in a single key/value table, backed by
// either sqlite or postgres.
type SQL struct {
	db     *sqlx.DB
	driver string
}

// NewSQL opens a database and ensures the state table exists. Driver
// must be "sqlite" or "postgres".
func NewSQL(driver, dsn string) (*SQL, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("watermark: open %s db: %w", driver, err)
	}

	if driver == "sqlite" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("watermark: enable WAL: %w", err)
		}
	}

	schema := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value TEXT NOT NULL)",
		sqlStateTable,
	)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("watermark: create state table: %w", err)
	}

	return &SQL{db: db, driver: driver}, nil
}

func (s *SQL) rebind(query string) string {
	return s.db.Rebind(query)
}

func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	query := s.rebind(fmt.Sprintf("SELECT value FROM %s WHERE key = ?", sqlStateTable))
	err := s.db.GetContext(ctx, &value, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("watermark: read %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	query := s.rebind(fmt.Sprintf(
		"INSERT INTO %s (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		sqlStateTable,
	))
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("watermark: write %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	query := s.rebind(fmt.Sprintf("DELETE FROM %s WHERE key = ?", sqlStateTable))
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("watermark: delete %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}
