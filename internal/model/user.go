package model

import (
	"fmt"
	"time"
)

// User represents an account in the identity directory.
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Roles.
const (
	RoleEmployee    = "employee"
	RoleStorekeeper = "storekeeper"
)

// ValidRole reports whether role is a known role name.
func ValidRole(role string) bool {
	return role == RoleEmployee || role == RoleStorekeeper
}

// DisplayName returns the user's full name.
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// ValidatePassword checks minimum password requirements.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}
