package services

import (
	"context"
	"database/sql"

	"github.com/cfpio/identity/dbx"
	"github.com/cfpio/identity/models"
	"github.com/cfpio/identity/repositories/repomanager"
)

// ConfirmationService moves an account from unconfirmed to confirmed.
// Confirmation is terminal: the token is consumed and the account never
// transitions back on its own.
type ConfirmationService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewConfirmationService(db *sql.DB, m repomanager.RepositoryManager) *ConfirmationService {
	return &ConfirmationService{db: db, repos: m}
}

// Confirm validates the account: it clears the confirmation token, sets
// the validated flag, and, when the platform has no administrator yet,
// promotes this user. The promotion rides on a singleton marker row
// claimed with a single insert, so concurrent first confirmations
// cannot both promote. Returns false without touching anything when
// user is nil.
func (s *ConfirmationService) Confirm(ctx context.Context, user *models.User) (bool, error) {
	if user == nil {
		return false, nil
	}

	confirmed := *user

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		count, err := repo.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if count == 0 {
			claimed, err := repo.ClaimAdminBootstrap(ctx, confirmed.ID)
			if err != nil {
				return err
			}
			if claimed {
				confirmed.Admin = true
			}
		}

		confirmed.ConfirmationToken = ""
		confirmed.Validated = true

		return repo.Update(ctx, &confirmed)
	})
	if err != nil {
		return false, err
	}

	*user = confirmed
	return true, nil
}
