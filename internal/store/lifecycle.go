package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkoblar/inventar/internal/model"
)

// The lifecycle engine: every custody transition runs as a single transaction
// spanning the item's quantity, the assignment ledger, the request queue, and
// the affected inboxes, so a failure mid-command cannot desynchronize stock
// from custody state.

// AssignItem gives a user custody of one unit of an item.
//
// If the user already holds the item, only the expected return date is
// restated: quantity is untouched and no request is consumed. Otherwise one
// unit of stock is claimed, any pending request by the user for the item is
// fulfilled (deleted), a ledger entry is created, and the user is notified.
func AssignItem(ctx context.Context, db *sql.DB, itemID, userID int64, returnDate *time.Time) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := loadItemAndUser(ctx, tx, itemID, userID)
	if err != nil {
		return nil, err
	}

	existing, err := getAssignment(ctx, tx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		// Restating a deadline on existing custody is a no-op on stock.
		_, err = tx.ExecContext(ctx,
			`UPDATE assignments SET return_date = ? WHERE id = ?`,
			returnDate, existing.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("updating return date: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("committing assignment: %w", err)
		}
		return GetItem(ctx, db, itemID)
	}

	if item.Quantity < 1 {
		return nil, ErrInsufficientStock
	}

	// A pending request for this pair is fulfilled by the assignment.
	_, err = tx.ExecContext(ctx,
		`DELETE FROM requests WHERE user_id = ? AND item_id = ? AND status = ?`,
		userID, itemID, model.RequestStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("fulfilling request: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET quantity = quantity - 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("decrementing stock: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO assignments (user_id, item_id, return_date) VALUES (?, ?, ?)`,
		userID, itemID, returnDate,
	)
	if err != nil {
		return nil, fmt.Errorf("creating assignment: %w", err)
	}

	if err := appendNotification(ctx, tx, userID,
		"Assigned a new item: "+item.Name, model.NotificationTypeAssignment); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing assignment: %w", err)
	}

	return GetItem(ctx, db, itemID)
}

// ReturnItem ends a user's custody of an item, restoring one unit of stock.
func ReturnItem(ctx context.Context, db *sql.DB, itemID, userID int64) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := loadItemAndUser(ctx, tx, itemID, userID)
	if err != nil {
		return nil, err
	}

	assignment, err := getAssignment(ctx, tx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, ErrNoActiveAssignment
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, assignment.ID)
	if err != nil {
		return nil, fmt.Errorf("deleting assignment: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET quantity = quantity + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("incrementing stock: %w", err)
	}

	if err := appendNotification(ctx, tx, userID,
		"You have returned "+item.Name+".", model.NotificationTypeOther); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing return: %w", err)
	}

	return GetItem(ctx, db, itemID)
}

// ReassignItem transfers custody of an item from one user to another.
//
// The current holder's ledger entry is removed and both parties are notified.
// If the new holder does not already hold the item, a fresh entry is created
// and quantity goes up by one: the transfer compensates the original assign's
// decrement, so the net effect matches a return with custody handed over.
func ReassignItem(ctx context.Context, db *sql.DB, itemID, fromUserID, toUserID int64, returnDate *time.Time) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := loadItemAndUser(ctx, tx, itemID, fromUserID)
	if err != nil {
		return nil, err
	}
	if err := userExists(ctx, tx, toUserID); err != nil {
		return nil, err
	}

	current, err := getAssignment(ctx, tx, fromUserID, itemID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNoActiveAssignment
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, current.ID)
	if err != nil {
		return nil, fmt.Errorf("deleting assignment: %w", err)
	}

	existing, err := getAssignment(ctx, tx, toUserID, itemID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO assignments (user_id, item_id, return_date) VALUES (?, ?, ?)`,
			toUserID, itemID, returnDate,
		)
		if err != nil {
			return nil, fmt.Errorf("creating assignment: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE items SET quantity = quantity + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			itemID,
		)
		if err != nil {
			return nil, fmt.Errorf("incrementing stock: %w", err)
		}

		if err := appendNotification(ctx, tx, toUserID,
			"Assigned a new item: "+item.Name, model.NotificationTypeAssignment); err != nil {
			return nil, err
		}
	}

	if err := appendNotification(ctx, tx, fromUserID,
		"Your assignment for "+item.Name+" has been removed.", model.NotificationTypeOther); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reassignment: %w", err)
	}

	return GetItem(ctx, db, itemID)
}

// RequestItem queues a pending request for a user to be assigned an item.
// A request reserves nothing: stock is untouched until fulfillment.
func RequestItem(ctx context.Context, db *sql.DB, itemID, userID int64) (*model.Request, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := loadItemAndUser(ctx, tx, itemID, userID)
	if err != nil {
		return nil, err
	}

	if item.Quantity <= 0 {
		return nil, ErrOutOfStock
	}

	pending, err := getPendingRequest(ctx, tx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, ErrAlreadyRequested
	}

	assignment, err := getAssignment(ctx, tx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if assignment != nil {
		return nil, ErrAlreadyAssigned
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO requests (user_id, item_id) VALUES (?, ?)`,
		userID, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing request: %w", err)
	}

	id, _ := result.LastInsertId()
	return GetPendingRequestByID(ctx, db, id)
}

// GetPendingRequestByID returns a request by ID, or nil if it does not exist.
func GetPendingRequestByID(ctx context.Context, db *sql.DB, id int64) (*model.Request, error) {
	r := &model.Request{}
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, item_id, request_date, status FROM requests WHERE id = ?`, id,
	).Scan(&r.ID, &r.UserID, &r.ItemID, &r.RequestDate, &r.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting request: %w", err)
	}
	return r, nil
}

// loadItemAndUser fetches the item and verifies the user exists, translating
// absence into the business-rule errors.
func loadItemAndUser(ctx context.Context, q dbtx, itemID, userID int64) (*model.Item, error) {
	item, err := getItem(ctx, q, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if err := userExists(ctx, q, userID); err != nil {
		return nil, err
	}
	return item, nil
}

func userExists(ctx context.Context, q dbtx, userID int64) error {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM users WHERE id = ?`, userID).Scan(&id)
	if err == sql.ErrNoRows {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("checking user: %w", err)
	}
	return nil
}
