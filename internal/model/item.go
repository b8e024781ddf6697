package model

import (
	"fmt"
	"time"
)

// Item represents a catalog entry with a stock count. Quantity is the number
// of units not currently held under any assignment.
type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Model       string    `json:"model,omitempty"`
	Category    string    `json:"category,omitempty"`
	Quantity    int       `json:"quantity"`
	ImageMime   string    `json:"image_mime,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemInput carries the writable item fields. Nil pointers mean "leave as is"
// on update; Validate checks whatever is present before anything is written.
type ItemInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Model       *string `json:"model"`
	Category    *string `json:"category"`
	Quantity    *int    `json:"quantity"`
}

// Validate checks the populated fields of an item input. requireAll
// additionally demands that name and quantity are present (item creation).
func (in *ItemInput) Validate(requireAll bool) error {
	if requireAll {
		if in.Name == nil {
			return fmt.Errorf("name is required")
		}
		if in.Quantity == nil {
			return fmt.Errorf("quantity is required")
		}
	}
	if in.Name != nil && *in.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	return nil
}

// Apply overlays the populated input fields onto an item.
func (in *ItemInput) Apply(item *Item) {
	if in.Name != nil {
		item.Name = *in.Name
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Model != nil {
		item.Model = *in.Model
	}
	if in.Category != nil {
		item.Category = *in.Category
	}
	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
}
