package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Connection pragmas the store relies on. foreign_keys enforces the
// user/item references; WAL and busy_timeout keep concurrent lifecycle
// transactions from tripping over SQLITE_BUSY.
var pragmas = []string{
	"journal_mode = WAL",
	"busy_timeout = 5000",
	"foreign_keys = ON",
	"synchronous = NORMAL",
}

// Open opens the SQLite database at path, creating it if needed, and applies
// the connection pragmas.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec("PRAGMA " + pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return conn, nil
}
