package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkoblar/inventar/internal/model"
)

// AppendNotification adds a notification to a user's inbox, unless the user
// has disabled that notification type.
func AppendNotification(ctx context.Context, db *sql.DB, userID int64, message, ntype string) error {
	return appendNotification(ctx, db, userID, message, ntype)
}

func appendNotification(ctx context.Context, q dbtx, userID int64, message, ntype string) error {
	enabled, err := notificationEnabled(ctx, q, userID, ntype)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO notifications (user_id, message, type) VALUES (?, ?, ?)`,
		userID, message, ntype,
	)
	if err != nil {
		return fmt.Errorf("appending notification: %w", err)
	}
	return nil
}

// notificationEnabled checks the user's preference for a notification type.
// Types without an explicit preference row are enabled.
func notificationEnabled(ctx context.Context, q dbtx, userID int64, ntype string) (bool, error) {
	var enabled bool
	err := q.QueryRowContext(ctx,
		`SELECT enabled FROM notification_prefs WHERE user_id = ? AND type = ?`,
		userID, ntype,
	).Scan(&enabled)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking notification preference: %w", err)
	}
	return enabled, nil
}

// ListNotifications returns a user's inbox, newest first.
func ListNotifications(ctx context.Context, db *sql.DB, userID int64) ([]model.Notification, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, message, type, read, created_at
		 FROM notifications WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// SetNotificationPref sets whether a notification type is delivered to the user.
func SetNotificationPref(ctx context.Context, db *sql.DB, userID int64, ntype string, enabled bool) error {
	if !model.ValidNotificationType(ntype) {
		return fmt.Errorf("unknown notification type: %s", ntype)
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO notification_prefs (user_id, type, enabled) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, type) DO UPDATE SET enabled = excluded.enabled`,
		userID, ntype, enabled,
	)
	if err != nil {
		return fmt.Errorf("setting notification preference: %w", err)
	}
	return nil
}
