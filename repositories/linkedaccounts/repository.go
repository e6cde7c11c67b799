// Package linkedaccounts manages the set of external identities attached
// to users. Resolution queries join against users so callers get the
// owning account in one step.
package linkedaccounts

import (
	"context"

	"github.com/cfpio/identity/models"
)

type Repository interface {
	// Add attaches the linked account to the user recorded in
	// acc.UserID.
	Add(ctx context.Context, acc *models.LinkedAccount) error

	ListByUser(ctx context.Context, userID string) ([]models.LinkedAccount, error)

	// FindByProviderKey returns the user's linked account for the given
	// provider, or common.ErrNotFound.
	FindByProviderKey(ctx context.Context, userID, providerKey string) (*models.LinkedAccount, error)

	// UpdateProviderUserID rewrites the provider-scoped id of one
	// linked account. Used to keep the password provider's record equal
	// to the current password hash.
	UpdateProviderUserID(ctx context.Context, accountID, providerUserID string) error

	// ResolveUser returns the user owning a linked account that matches
	// the identity. requireValidated restricts the match to confirmed
	// users. common.ErrNotFound when nobody owns the identity;
	// common.ErrDuplicateRecord when more than one user does.
	ResolveUser(ctx context.Context, identity models.ExternalIdentity, requireValidated bool) (*models.User, error)
}
