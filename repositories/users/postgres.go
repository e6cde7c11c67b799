package users

import (
	"context"
	"database/sql"
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

const userColumns = `id, email, fullname, password_hash, confirmation_token, validated, admin, description,
notif_on_my_talk, notif_admin_on_all_talk, notif_admin_on_talk_with_comment, created_at`

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (id, email, fullname, password_hash, confirmation_token, validated, admin, description,
		 notif_on_my_talk, notif_admin_on_all_talk, notif_admin_on_talk_with_comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Fullname, user.PasswordHash, user.ConfirmationToken,
		user.Validated, user.Admin, user.Description,
		user.NotifOnMyTalk, user.NotifAdminOnAllTalk, user.NotifAdminOnTalkWithComment,
		user.CreatedAt.Unix())

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET email = $1, fullname = $2, password_hash = $3, confirmation_token = $4,
		 validated = $5, admin = $6, description = $7,
		 notif_on_my_talk = $8, notif_admin_on_all_talk = $9, notif_admin_on_talk_with_comment = $10
		 WHERE id = $11
		 `

	res, err := r.db.ExecContext(ctx, query,
		user.Email, user.Fullname, user.PasswordHash, user.ConfirmationToken,
		user.Validated, user.Admin, user.Description,
		user.NotifOnMyTalk, user.NotifAdminOnAllTalk, user.NotifAdminOnTalkWithComment,
		user.ID)

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

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findUnique(ctx, "id", id)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUnique(ctx, "email", email)
}

func (r *PostgresRepository) FindByFullname(ctx context.Context, fullname string) (*models.User, error) {
	return r.findUnique(ctx, "fullname", fullname)
}

func (r *PostgresRepository) FindByConfirmationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrNotFound
	}
	return r.findUnique(ctx, "confirmation_token", token)
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`
	return r.findList(ctx, query)
}

func (r *PostgresRepository) FindAllAdmins(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE admin = TRUE ORDER BY created_at, id`
	return r.findList(ctx, query)
}

func (r *PostgresRepository) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE admin = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) ClaimAdminBootstrap(ctx context.Context, userID string) (bool, error) {
	query :=
		`INSERT INTO admin_bootstrap (singleton, user_id, claimed_at)
		 VALUES (TRUE, $1, $2)
		 ON CONFLICT DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query, userID, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return affected == 1, nil
}

// findUnique runs a single-column equality lookup and enforces the
// at-most-one-row contract.
func (r *PostgresRepository) findUnique(ctx context.Context, column, value string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1 LIMIT 2`

	rows, err := r.db.QueryContext(ctx, query, value)
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

func (r *PostgresRepository) findList(ctx context.Context, query string) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	for _, user := range list {
		if err := r.loadLinkedAccounts(ctx, user); err != nil {
			return nil, err
		}
	}

	return list, nil
}

func (r *PostgresRepository) loadLinkedAccounts(ctx context.Context, user *models.User) error {
	query :=
		`SELECT id, user_id, provider_key, provider_user_id FROM linked_accounts
		 WHERE user_id = $1 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, user.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var acc models.LinkedAccount
		if err := rows.Scan(&acc.ID, &acc.UserID, &acc.ProviderKey, &acc.ProviderUserID); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		user.LinkedAccounts = append(user.LinkedAccounts, acc)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

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
