package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserDeactivated = errors.New("user account is deactivated")
	ErrLastAdmin       = errors.New("cannot demote or deactivate the last admin")
	ErrAdminSelfChange = errors.New("admins cannot change their own role or status")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("unauthorized")
)

type RoleID int

const (
	RoleAdmin   RoleID = 1
	RoleManager RoleID = 2
	RoleUser    RoleID = 3
)

func (r RoleID) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleManager:
		return "manager"
	default:
		return "user"
	}
}

type User struct {
	ID                 int64
	Email              string
	Name               string
	RoleID             RoleID
	IsActive           bool
	EmailNotifications bool
	CreatedAt          time.Time
	LastLoginAt        *time.Time
}

func (u *User) IsAdmin() bool { return u.RoleID == RoleAdmin }

// IsManager reports whether the user holds manager-level privileges.
// Admins always do.
func (u *User) IsManager() bool { return u.RoleID == RoleAdmin || u.RoleID == RoleManager }
