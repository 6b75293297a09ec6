package model

import (
	"time"
)

// Role is the closed set of authorization roles. Checks are exact-match:
// admin does not implicitly satisfy an editor-only route.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	IsVerified     bool      `json:"isVerified"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
