package models

import (
	"github.com/google/uuid"

	"github.com/cfpio/identity/common"
)

// LinkedAccount binds one external identity to exactly one local user.
// For the password provider, ProviderUserID equals the user's current
// password hash; AuthService keeps the two synchronized.
type LinkedAccount struct {
	ID             string
	UserID         string
	ProviderKey    string
	ProviderUserID string
}

// NewLinkedAccount builds a linked account value from an external
// identity descriptor. It is not yet attached to any user.
func NewLinkedAccount(identity ExternalIdentity) LinkedAccount {
	return LinkedAccount{
		ID:             uuid.NewString(),
		ProviderKey:    identity.ProviderKey,
		ProviderUserID: identity.ProviderUserID,
	}
}

// CopyLinkedAccount clones an existing linked account into a fresh,
// unattached value. Used by merge, which copies accounts by value rather
// than moving ownership.
func CopyLinkedAccount(acc LinkedAccount) LinkedAccount {
	return LinkedAccount{
		ID:             uuid.NewString(),
		ProviderKey:    acc.ProviderKey,
		ProviderUserID: acc.ProviderUserID,
	}
}

// ExternalIdentity is the (provider key, provider-scoped id) pair an
// authentication provider presents for a principal. Email and Name are
// optional claims some providers carry.
type ExternalIdentity struct {
	ProviderKey    string
	ProviderUserID string
	Email          string
	Name           string
}

// IsPassword reports whether the identity comes from the built-in
// email/password provider. For those identities ProviderUserID carries
// the credential material (the password hash).
func (id ExternalIdentity) IsPassword() bool {
	return id.ProviderKey == common.PasswordProviderKey
}
