package model

import "time"

// Role identifies what a user may do on the marketplace.
type Role string

const (
	RoleClient Role = "client"
	RoleWriter Role = "writer"
	RoleAdmin  Role = "admin"
)

// Valid reports whether the role is known.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleWriter, RoleAdmin:
		return true
	}
	return false
}

// UserStatus tells whether an account may act.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	Status       UserStatus
	CreatedAt    time.Time
}

// Active reports whether the account is allowed to act.
func (u *User) Active() bool {
	return u.Status == UserStatusActive
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID int64
	Role   Role
}

// Is reports whether the actor is the given user.
func (a Actor) Is(userID int64) bool {
	return a.UserID == userID
}
