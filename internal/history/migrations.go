package history

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a schema migration
type Migration struct {
	Version     int
	Description string
	Up          func(*sql.Tx) error
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Create schema_version table",
		Up:          migration001Up,
	},
	{
		Version:     2,
		Description: "Create sessions table",
		Up:          migration002Up,
	},
}

// RunMigrations applies all pending migrations in order
func (db *DB) RunMigrations() error {
	current, err := db.GetVersion()
	if err != nil {
		// schema_version does not exist yet
		current = 0
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		err := db.ExecTx(func(tx *sql.Tx) error {
			if err := m.Up(tx); err != nil {
				return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
			}
			_, err := tx.Exec(
				"INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
				m.Version, time.Now())
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func migration001Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

func migration002Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			duration_ms INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			frames_captured INTEGER NOT NULL,
			frames_accepted INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			output_path TEXT,
			error TEXT
		)
	`)
	return err
}
