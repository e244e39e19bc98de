// Package directory resolves users and the administrator recipient set.
// User records are owned by the upstream account service; this package only
// reads them.
package directory

import (
	"context"

	pkgerrors "workpulse/pkg/errors"
)

// Role values mirror the upstream account service.
const (
	RoleAdmin    = "ADMIN"
	RoleEmployee = "EMPLOYEE"
)

// User is the subset of the account record the pipeline needs.
type User struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// ErrNotFound keeps directory 404s consistent across implementations.
var ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "user not found")

// Store looks up users for recipient resolution.
type Store interface {
	Get(ctx context.Context, id string) (*User, error)
	Admins(ctx context.Context) ([]User, error)
}
