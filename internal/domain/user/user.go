package user

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
)

// ErrUnauthorized is returned when a user cannot be resolved or lacks the
// capability required for an operation.
var ErrUnauthorized = errors.New("unauthorized")

// Role is the capability level of a user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStuff    Role = "stuff"
	RoleVendor   Role = "vendor"
	RoleCustomer Role = "customer"
)

// User is an authenticated account.
type User struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// HasRole reports whether the user's role is one of roles.
func (u *User) HasRole(roles ...Role) bool {
	return slices.Contains(roles, u.Role)
}

// Repository provides user lookup. GetByID returns ErrUnauthorized when no
// user with the given id exists.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}
