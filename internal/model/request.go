package model

import "time"

// Request is a pending ask by a user to be assigned an item. A request is
// deleted, not status-flipped, once an assignment fulfills it.
type Request struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	ItemID      int64     `json:"item_id"`
	RequestDate time.Time `json:"request_date"`
	Status      string    `json:"status"`

	// Joined fields (not always populated).
	UserName string `json:"user_name,omitempty"`
	ItemName string `json:"item_name,omitempty"`
}

// Request statuses.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)
