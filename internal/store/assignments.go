package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkoblar/inventar/internal/model"
)

// GetAssignment returns the assignment for a (user, item) pair, or nil if the
// user holds no custody of the item.
func GetAssignment(ctx context.Context, db *sql.DB, userID, itemID int64) (*model.Assignment, error) {
	return getAssignment(ctx, db, userID, itemID)
}

func getAssignment(ctx context.Context, q dbtx, userID, itemID int64) (*model.Assignment, error) {
	a := &model.Assignment{}
	err := q.QueryRowContext(ctx,
		`SELECT id, user_id, item_id, assigned_date, return_date
		 FROM assignments WHERE user_id = ? AND item_id = ?`,
		userID, itemID,
	).Scan(&a.ID, &a.UserID, &a.ItemID, &a.AssignedDate, &a.ReturnDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting assignment: %w", err)
	}
	return a, nil
}

// ListUserAssignments returns a user's custody records, expanded with the
// holder's display fields and the item's descriptive fields.
func ListUserAssignments(ctx context.Context, db *sql.DB, userID int64) ([]model.Assignment, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT a.id, a.user_id, a.item_id, a.assigned_date, a.return_date,
		        u.first_name || ' ' || u.last_name AS user_name, u.email,
		        i.name, i.description, i.model, i.category
		 FROM assignments a
		 JOIN users u ON u.id = a.user_id
		 JOIN items i ON i.id = a.item_id
		 WHERE a.user_id = ?
		 ORDER BY a.assigned_date DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing user assignments: %w", err)
	}
	defer rows.Close()

	return scanAssignments(rows)
}

// ListItemAssignments returns all custody records for an item.
func ListItemAssignments(ctx context.Context, db *sql.DB, itemID int64) ([]model.Assignment, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT a.id, a.user_id, a.item_id, a.assigned_date, a.return_date,
		        u.first_name || ' ' || u.last_name AS user_name, u.email,
		        i.name, i.description, i.model, i.category
		 FROM assignments a
		 JOIN users u ON u.id = a.user_id
		 JOIN items i ON i.id = a.item_id
		 WHERE a.item_id = ?
		 ORDER BY a.assigned_date DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item assignments: %w", err)
	}
	defer rows.Close()

	return scanAssignments(rows)
}

func scanAssignments(rows *sql.Rows) ([]model.Assignment, error) {
	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		var description, mdl, category sql.NullString
		if err := rows.Scan(&a.ID, &a.UserID, &a.ItemID, &a.AssignedDate, &a.ReturnDate,
			&a.UserName, &a.UserEmail,
			&a.ItemName, &description, &mdl, &category); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		a.ItemDescription = description.String
		a.ItemModel = mdl.String
		a.ItemCategory = category.String
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}
