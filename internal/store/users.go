package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkoblar/inventar/internal/model"
)

const userColumns = `id, first_name, last_name, email, password_hash, role, refresh_token, created_at, updated_at`

// CreateUser creates a new user.
func CreateUser(ctx context.Context, db *sql.DB, firstName, lastName, email, passwordHash, role string) (*model.User, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (first_name, last_name, email, password_hash, role) VALUES (?, ?, ?, ?, ?)`,
		firstName, lastName, email, passwordHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID, or nil if it does not exist.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	return scanUserRow(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByEmail returns a user by email, or nil if it does not exist.
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	return scanUserRow(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// SetRefreshToken stores a user's refresh token. An empty token clears it.
func SetRefreshToken(ctx context.Context, db *sql.DB, id int64, token string) error {
	var value any
	if token != "" {
		value = token
	}
	_, err := db.ExecContext(ctx,
		`UPDATE users SET refresh_token = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		value, id,
	)
	if err != nil {
		return fmt.Errorf("setting refresh token: %w", err)
	}
	return nil
}

func scanUserRow(row *sql.Row) (*model.User, error) {
	u := &model.User{}
	var refreshToken sql.NullString
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role, &refreshToken, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	u.RefreshToken = refreshToken.String
	return u, nil
}
