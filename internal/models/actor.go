package models

import "github.com/google/uuid"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Actor is the authenticated principal an operation runs on behalf of.
type Actor struct {
	UserID uuid.UUID
	Role   string
	Email  string
	Name   string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func (a Actor) Owns(ownerID uuid.UUID) bool {
	return a.UserID != uuid.Nil && a.UserID == ownerID
}
