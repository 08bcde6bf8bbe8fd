package store

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one schema step. Steps are applied in order inside a single
// transaction together with the version bump, so a partially applied step is
// never recorded as done.
type migration struct {
	version int
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS grid_readings (
				country TEXT NOT NULL CHECK(country IN ('SE', 'NO', 'FI', 'DK')),
				timestamp DATETIME NOT NULL,
				production REAL NOT NULL DEFAULT 0,
				consumption REAL NOT NULL DEFAULT 0,
				import_value REAL NOT NULL DEFAULT 0,
				export_value REAL NOT NULL DEFAULT 0,
				nuclear REAL NOT NULL DEFAULT 0,
				hydro REAL NOT NULL DEFAULT 0,
				wind REAL NOT NULL DEFAULT 0,
				thermal REAL NOT NULL DEFAULT 0,
				not_specified REAL NOT NULL DEFAULT 0,
				PRIMARY KEY (country, timestamp)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_grid_ts ON grid_readings(timestamp)`,
		},
	},
	{
		version: 2,
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS price_readings (
				zone TEXT NOT NULL,
				timestamp DATETIME NOT NULL,
				price REAL NOT NULL,
				PRIMARY KEY (zone, timestamp)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_price_ts ON price_readings(timestamp)`,
		},
	},
}

// Migrate brings the database to the latest schema version. A failure here is
// fatal to startup; the caller must not serve traffic against an unknown shape.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return &StoreError{Op: "migrate", Err: err}
	}

	current, err := currentVersion(ctx, db)
	if err != nil {
		return &StoreError{Op: "migrate", Err: err}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(ctx, db, m, current); err != nil {
			return &StoreError{Op: "migrate", Err: fmt.Errorf("version %d: %w", m.version, err)}
		}
		current = m.version
	}
	return nil
}

func currentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return 0, err
		}
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func applyMigration(ctx context.Context, db *sql.DB, m migration, from int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE schema_version SET version = ? WHERE version = ?`, m.version, from); err != nil {
		return err
	}
	return tx.Commit()
}

// SchemaVersion reports the applied migration level.
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	version, err := currentVersion(ctx, db)
	if err != nil {
		return 0, &StoreError{Op: "schema_version", Err: err}
	}
	return version, nil
}
