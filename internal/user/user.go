package user

import (
	"errors"
	"time"
)

// Role controls which routes a user may call.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// User is an account that can check in and out.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	ErrEmailAlreadyExists = errors.New("user: email already exists")
	ErrInvalidCredentials = errors.New("user: invalid credentials")
	ErrNotFound           = errors.New("user: not found")
	ErrInvalidEmail       = errors.New("user: email is invalid")
	ErrInvalidName        = errors.New("user: name is required")
	ErrWeakPassword       = errors.New("user: password must be at least 8 characters")
	ErrInvalidRole        = errors.New("user: role must be employee or admin")
	ErrInvalidPageSize    = errors.New("user: invalid page size")
	ErrInvalidPageToken   = errors.New("user: invalid page token")
)
