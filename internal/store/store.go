package store

import (
	"context"
	"database/sql"
	"errors"
)

// Business-rule errors surfaced by the store. Handlers match these with
// errors.Is to pick the HTTP status.
var (
	ErrItemNotFound       = errors.New("item not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrOutOfStock         = errors.New("item out of stock")
	ErrAlreadyRequested   = errors.New("item already requested")
	ErrAlreadyAssigned    = errors.New("item already assigned")
	ErrNoActiveAssignment = errors.New("no active assignment")
)

// dbtx is satisfied by both *sql.DB and *sql.Tx, so helpers can run inside or
// outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
