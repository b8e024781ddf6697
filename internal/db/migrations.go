package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: lookup index for inbox listing (newest first per user).
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_created
	     ON notifications(user_id, created_at DESC)`,
	// Migration 2: lookup index for a user's custody records.
	`CREATE INDEX IF NOT EXISTS idx_assignments_user
	     ON assignments(user_id)`,
}

// Migrate ensures the schema exists and runs all migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
