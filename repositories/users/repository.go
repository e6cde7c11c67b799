// Package users implements the persistence boundary for platform
// accounts. Unique-key lookups return common.ErrNotFound for zero
// matches and common.ErrDuplicateRecord when more than one row matches,
// which signals a broken uniqueness invariant rather than a normal miss.
package users

import (
	"context"

	"github.com/cfpio/identity/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error

	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByFullname(ctx context.Context, fullname string) (*models.User, error)
	FindByConfirmationToken(ctx context.Context, token string) (*models.User, error)

	FindAll(ctx context.Context) ([]*models.User, error)
	FindAllAdmins(ctx context.Context) ([]*models.User, error)
	CountAdmins(ctx context.Context) (int64, error)

	// ClaimAdminBootstrap atomically claims the one-time first-admin
	// marker for the given user. It reports whether this call took the
	// claim; at most one call ever does.
	ClaimAdminBootstrap(ctx context.Context, userID string) (bool, error)
}
