package model

import (
	"errors"
	"time"
)

// User represents an authentication user.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	BaseID       *int64     `json:"baseId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

// Roles.
const (
	RoleAdmin            = "admin"
	RoleBaseCommander    = "base_commander"
	RoleLogisticsOfficer = "logistics_officer"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleBaseCommander, RoleLogisticsOfficer:
		return true
	}
	return false
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:            3,
		RoleBaseCommander:    2,
		RoleLogisticsOfficer: 1,
	}
	return levels[role] >= levels[minimum] && levels[minimum] > 0
}

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// Actor is the verified identity a request acts as. It is built from the
// request's token and passed explicitly into every mutating store call.
type Actor struct {
	UserID   int64
	Username string
	Role     string
	BaseID   *int64
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CommandsBase reports whether the actor is a base commander of baseID.
func (a Actor) CommandsBase(baseID int64) bool {
	return a.Role == RoleBaseCommander && a.BaseID != nil && *a.BaseID == baseID
}

// HomeBase reports whether baseID is the actor's assigned base.
func (a Actor) HomeBase(baseID int64) bool {
	return a.BaseID != nil && *a.BaseID == baseID
}
