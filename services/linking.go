package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cfpio/identity/common"
	"github.com/cfpio/identity/dbx"
	"github.com/cfpio/identity/models"
	"github.com/cfpio/identity/repositories/repomanager"
)

// LinkingService decides what an external identity maps to: a new
// account, an additional linked account on an existing one, or a merge
// of two accounts.
type LinkingService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewLinkingService(db *sql.DB, m repomanager.RepositoryManager) *LinkingService {
	return &LinkingService{db: db, repos: m}
}

// Create builds a new unconfirmed user from an external identity and
// attaches one linked account built from it. Password-based identities
// carry their credential material in the provider-scoped id; those users
// also get a fresh confirmation token. An identity already bound to any
// user, validated or not, is rejected with common.ErrIdentityInUse.
func (s *LinkingService) Create(ctx context.Context, identity models.ExternalIdentity) (*models.User, error) {
	if err := s.checkIdentityFree(ctx, identity); err != nil {
		return nil, err
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Validated: false,
		CreatedAt: time.Now().UTC(),
	}

	if identity.Email != "" {
		user.Email = identity.Email
	}
	if identity.Name != "" {
		user.Fullname = identity.Name
	}
	if identity.IsPassword() {
		user.PasswordHash = identity.ProviderUserID

		token, err := common.MakeRandHexString(16)
		if err != nil {
			return nil, err
		}
		user.ConfirmationToken = token
	}

	acc := models.NewLinkedAccount(identity)
	acc.UserID = user.ID

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		return s.repos.LinkedAccounts(tx).Add(ctx, &acc)
	})
	if err != nil {
		return nil, err
	}

	user.LinkedAccounts = []models.LinkedAccount{acc}
	return user, nil
}

// AddLinkedAccount resolves the user owning existingIdentity and appends
// a linked account built from newIdentity. The owner must resolve, and
// the new identity must not already be bound to anyone.
func (s *LinkingService) AddLinkedAccount(ctx context.Context, existingIdentity, newIdentity models.ExternalIdentity) (*models.User, error) {
	owner, err := s.repos.LinkedAccounts(s.db).ResolveUser(ctx, existingIdentity, true)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, err
	}

	if err := s.checkIdentityFree(ctx, newIdentity); err != nil {
		return nil, err
	}

	acc := models.NewLinkedAccount(newIdentity)
	acc.UserID = owner.ID
	if err := s.repos.LinkedAccounts(s.db).Add(ctx, &acc); err != nil {
		return nil, err
	}

	owner.LinkedAccounts = append(owner.LinkedAccounts, acc)
	return owner, nil
}

// Merge combines two accounts: every linked account of the source user
// is copied, by value, onto the target user, and the source is
// deactivated. All writes commit in one transaction; a partial merge
// never becomes visible.
func (s *LinkingService) Merge(ctx context.Context, targetIdentity, sourceIdentity models.ExternalIdentity) (*models.User, error) {
	registry := s.repos.LinkedAccounts(s.db)

	target, err := registry.ResolveUser(ctx, targetIdentity, true)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, err
	}

	source, err := registry.ResolveUser(ctx, sourceIdentity, true)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, err
	}

	if target.ID == source.ID {
		return nil, common.ErrMergeConflict
	}

	copies := make([]models.LinkedAccount, 0, len(source.LinkedAccounts))
	for _, acc := range source.LinkedAccounts {
		cp := models.CopyLinkedAccount(acc)
		cp.UserID = target.ID
		copies = append(copies, cp)
	}

	deactivated := *source
	deactivated.Validated = false

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		laRepo := s.repos.LinkedAccounts(tx)
		for i := range copies {
			if err := laRepo.Add(ctx, &copies[i]); err != nil {
				return err
			}
		}

		usersRepo := s.repos.Users(tx)
		if err := usersRepo.Update(ctx, &deactivated); err != nil {
			return err
		}
		return usersRepo.Update(ctx, target)
	})
	if err != nil {
		return nil, err
	}

	target.LinkedAccounts = append(target.LinkedAccounts, copies...)
	source.Validated = false
	return target, nil
}

// Providers returns the distinct provider keys currently linked to the
// user, read from the store.
func (s *LinkingService) Providers(ctx context.Context, user *models.User) (map[string]struct{}, error) {
	list, err := s.repos.LinkedAccounts(s.db).ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	providers := make(map[string]struct{}, len(list))
	for _, acc := range list {
		providers[acc.ProviderKey] = struct{}{}
	}
	return providers, nil
}

// checkIdentityFree enforces that a (provider key, provider-scoped id)
// pair resolves to at most one user, regardless of validation state.
func (s *LinkingService) checkIdentityFree(ctx context.Context, identity models.ExternalIdentity) error {
	_, err := s.repos.LinkedAccounts(s.db).ResolveUser(ctx, identity, false)
	if err == nil {
		return common.ErrIdentityInUse
	}
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}
