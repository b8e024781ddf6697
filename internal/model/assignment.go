package model

import "time"

// Assignment is a custody record binding one user to one item unit.
// At most one assignment exists per (user, item) pair.
type Assignment struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	ItemID       int64      `json:"item_id"`
	AssignedDate time.Time  `json:"assigned_date"`
	ReturnDate   *time.Time `json:"return_date,omitempty"`

	// Joined fields (not always populated).
	UserName        string `json:"user_name,omitempty"`
	UserEmail       string `json:"user_email,omitempty"`
	ItemName        string `json:"item_name,omitempty"`
	ItemDescription string `json:"item_description,omitempty"`
	ItemModel       string `json:"item_model,omitempty"`
	ItemCategory    string `json:"item_category,omitempty"`
}
