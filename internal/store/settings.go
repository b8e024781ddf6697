package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// Setting keys for the persisted signing secrets.
const (
	settingAccessSecret  = "jwt_access_secret"
	settingRefreshSecret = "jwt_refresh_secret"
)

// GetAuthSecrets retrieves the access and refresh token signing secrets,
// generating and storing them on first use.
func GetAuthSecrets(ctx context.Context, db *sql.DB) (access, refresh string, err error) {
	access, err = getOrCreateSecret(ctx, db, settingAccessSecret)
	if err != nil {
		return "", "", err
	}
	refresh, err = getOrCreateSecret(ctx, db, settingRefreshSecret)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// getOrCreateSecret returns the stored secret for key, generating one if none
// exists. Uses INSERT OR IGNORE + re-SELECT to avoid a TOCTOU race on
// concurrent startup.
func getOrCreateSecret(ctx context.Context, db *sql.DB, key string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		key, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	// Always read back (either our insert or the existing value).
	var secret string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}

	return secret, nil
}
