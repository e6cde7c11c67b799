package linkedaccounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cfpio/identity/common"
	"github.com/cfpio/identity/dbx"
	"github.com/cfpio/identity/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, acc *models.LinkedAccount) error {
	query :=
		`INSERT INTO linked_accounts (id, user_id, provider_key, provider_user_id)
		 VALUES ($1, $2, $3, $4)
		 `

	_, err := r.db.ExecContext(ctx, query, acc.ID, acc.UserID, acc.ProviderKey, acc.ProviderUserID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.LinkedAccount, error) {
	query :=
		`SELECT id, user_id, provider_key, provider_user_id FROM linked_accounts
		 WHERE user_id = $1 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []models.LinkedAccount
	for rows.Next() {
		var acc models.LinkedAccount
		if err := rows.Scan(&acc.ID, &acc.UserID, &acc.ProviderKey, &acc.ProviderUserID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}

func (r *PostgresRepository) FindByProviderKey(ctx context.Context, userID, providerKey string) (*models.LinkedAccount, error) {
	query :=
		`SELECT id, user_id, provider_key, provider_user_id FROM linked_accounts
		 WHERE user_id = $1 AND provider_key = $2 ORDER BY id LIMIT 1
		 `

	acc := &models.LinkedAccount{}
	err := r.db.QueryRowContext(ctx, query, userID, providerKey).
		Scan(&acc.ID, &acc.UserID, &acc.ProviderKey, &acc.ProviderUserID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return acc, nil
}

func (r *PostgresRepository) UpdateProviderUserID(ctx context.Context, accountID, providerUserID string) error {
	query :=
		`UPDATE linked_accounts SET provider_user_id = $1
		 WHERE id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, providerUserID, accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) ResolveUser(ctx context.Context, identity models.ExternalIdentity, requireValidated bool) (*models.User, error) {
	query :=
		`SELECT DISTINCT u.id, u.email, u.fullname, u.password_hash, u.confirmation_token, u.validated, u.admin, u.description,
		 u.notif_on_my_talk, u.notif_admin_on_all_talk, u.notif_admin_on_talk_with_comment, u.created_at
		 FROM users u
		 JOIN linked_accounts la ON la.user_id = u.id
		 WHERE la.provider_key = $1 AND la.provider_user_id = $2
		 `
	if requireValidated {
		query += `AND u.validated = TRUE
		 `
	}
	query += `LIMIT 2`

	rows, err := r.db.QueryContext(ctx, query, identity.ProviderKey, identity.ProviderUserID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var found []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, common.ErrNotFound
	case 1:
		if err := r.loadLinkedAccounts(ctx, found[0]); err != nil {
			return nil, err
		}
		return found[0], nil
	default:
		return nil, common.ErrDuplicateRecord
	}
}

func (r *PostgresRepository) loadLinkedAccounts(ctx context.Context, user *models.User) error {
	list, err := r.ListByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	user.LinkedAccounts = list
	return nil
}

func scanUser(rows *sql.Rows) (*models.User, error) {
	var (
		user                              models.User
		createdAt                         int64
		notifMine, notifAll, notifComment sql.NullBool
	)

	err := rows.Scan(&user.ID, &user.Email, &user.Fullname, &user.PasswordHash, &user.ConfirmationToken,
		&user.Validated, &user.Admin, &user.Description,
		&notifMine, &notifAll, &notifComment, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if notifMine.Valid {
		user.NotifOnMyTalk = &notifMine.Bool
	}
	if notifAll.Valid {
		user.NotifAdminOnAllTalk = &notifAll.Bool
	}
	if notifComment.Valid {
		user.NotifAdminOnTalkWithComment = &notifComment.Bool
	}
	user.CreatedAt = time.Unix(createdAt, 0).UTC()

	return &user, nil
}
