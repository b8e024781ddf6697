package model

import "time"

// Notification is one entry in a user's inbox. The lifecycle engine only ever
// appends; read-state toggling belongs to the consuming frontend.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification types.
const (
	NotificationTypeAssignment = "assignment"
	NotificationTypeRequest    = "request"
	NotificationTypeOther      = "other"
)

// ValidNotificationType reports whether t is a known notification type.
func ValidNotificationType(t string) bool {
	return t == NotificationTypeAssignment || t == NotificationTypeRequest || t == NotificationTypeOther
}
