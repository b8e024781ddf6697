package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkoblar/inventar/internal/model"
)

// GetPendingRequest returns the pending request for a (user, item) pair, or
// nil if there is none.
func GetPendingRequest(ctx context.Context, db *sql.DB, userID, itemID int64) (*model.Request, error) {
	return getPendingRequest(ctx, db, userID, itemID)
}

func getPendingRequest(ctx context.Context, q dbtx, userID, itemID int64) (*model.Request, error) {
	r := &model.Request{}
	err := q.QueryRowContext(ctx,
		`SELECT id, user_id, item_id, request_date, status
		 FROM requests WHERE user_id = ? AND item_id = ? AND status = ?`,
		userID, itemID, model.RequestStatusPending,
	).Scan(&r.ID, &r.UserID, &r.ItemID, &r.RequestDate, &r.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting pending request: %w", err)
	}
	return r, nil
}

// ListUserRequests returns a user's requests, newest first, expanded with the
// item name.
func ListUserRequests(ctx context.Context, db *sql.DB, userID int64) ([]model.Request, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.item_id, r.request_date, r.status,
		        u.first_name || ' ' || u.last_name AS user_name, i.name
		 FROM requests r
		 JOIN users u ON u.id = r.user_id
		 JOIN items i ON i.id = r.item_id
		 WHERE r.user_id = ?
		 ORDER BY r.request_date DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing user requests: %w", err)
	}
	defer rows.Close()

	var requests []model.Request
	for rows.Next() {
		var r model.Request
		if err := rows.Scan(&r.ID, &r.UserID, &r.ItemID, &r.RequestDate, &r.Status, &r.UserName, &r.ItemName); err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}
