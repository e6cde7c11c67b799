// Package services contains the business logic of the identity core:
// password authentication, account creation and linking, merging, and
// the confirmation workflow.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cfpio/identity/common"
	"github.com/cfpio/identity/cryptox"
	"github.com/cfpio/identity/dbx"
	"github.com/cfpio/identity/models"
	"github.com/cfpio/identity/repositories/repomanager"
)

// AuthService verifies password credentials and keeps the password
// provider's linked account synchronized with the stored hash.
type AuthService struct {
	db        *sql.DB
	repos     repomanager.RepositoryManager
	decoyHash string
}

// NewAuthService constructs an AuthService. The decoy hash is burned on
// lookups that miss, so an unknown email costs the same verification
// work as a wrong password.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager) (*AuthService, error) {
	decoy, err := cryptox.HashPassword("decoy")
	if err != nil {
		return nil, fmt.Errorf("init decoy hash: %w", err)
	}
	return &AuthService{db: db, repos: m, decoyHash: decoy}, nil
}

// Authenticate fetches the user by email and verifies clearPassword
// against the stored hash. Unknown email and wrong password are both
// reported as common.ErrAuthenticationFailed; callers cannot tell the
// cases apart.
func (s *AuthService) Authenticate(ctx context.Context, email, clearPassword string) (*models.User, error) {
	repo := s.repos.Users(s.db)

	user, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// equalize work with the found path
			_, _ = cryptox.VerifyPassword(clearPassword, s.decoyHash)
			return nil, common.ErrAuthenticationFailed
		}
		return nil, err
	}

	ok, err := cryptox.VerifyPassword(clearPassword, user.PasswordHash)
	if err != nil {
		// no usable password credential on this account
		_, _ = cryptox.VerifyPassword(clearPassword, s.decoyHash)
		return nil, common.ErrAuthenticationFailed
	}
	if !ok {
		return nil, common.ErrAuthenticationFailed
	}

	return user, nil
}

// ChangePassword computes a fresh salted hash for newPassword, assigns
// it to the user, and rewrites the password provider's linked account so
// the two representations never diverge. Both writes commit in one
// transaction.
func (s *AuthService) ChangePassword(ctx context.Context, user *models.User, newPassword string) error {
	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	updated := *user
	updated.PasswordHash = hash

	var syncedAccountID string
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Users(tx).Update(ctx, &updated); err != nil {
			return err
		}

		acc, err := s.repos.LinkedAccounts(tx).FindByProviderKey(ctx, user.ID, common.PasswordProviderKey)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				// the user signs in through external providers only
				return nil
			}
			return err
		}

		syncedAccountID = acc.ID
		return s.repos.LinkedAccounts(tx).UpdateProviderUserID(ctx, acc.ID, hash)
	})
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	for i := range user.LinkedAccounts {
		if user.LinkedAccounts[i].ID == syncedAccountID {
			user.LinkedAccounts[i].ProviderUserID = hash
		}
	}

	return nil
}
