package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/cfpio/identity/common"
	"github.com/cfpio/identity/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var userCols = []string{
	"id", "email", "fullname", "password_hash", "confirmation_token", "validated", "admin", "description",
	"notif_on_my_talk", "notif_admin_on_all_talk", "notif_admin_on_talk_with_comment", "created_at",
}

func addUserRow(rows *sqlmock.Rows, id, email, fullname string) *sqlmock.Rows {
	return rows.AddRow(id, email, fullname, "hash", "token", false, false, "",
		nil, nil, nil, int64(1700000000))
}

func expectLinkedAccounts(mock sqlmock.Sqlmock, userID string, accRows *sqlmock.Rows) {
	q := `(?s)^SELECT\s+id,\s*user_id,\s*provider_key,\s*provider_user_id\s+FROM\s+linked_accounts\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+id\s*$`
	mock.ExpectQuery(q).WithArgs(userID).WillReturnRows(accRows)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*fullname,.*VALUES\s*\(\$1,.*\$12\)\s*$`

	created := time.Unix(1700000000, 0).UTC()
	mock.ExpectExec(q).
		WithArgs("u-1", "a@x.com", "Alice", "hash", "token", false, false, "",
			nil, nil, nil, created.Unix()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &models.User{
		ID: "u-1", Email: "a@x.com", Fullname: "Alice",
		PasswordHash: "hash", ConfirmationToken: "token", CreatedAt: created,
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.User{ID: "u-1"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s+LIMIT\s+2\s*$`
	rows := addUserRow(sqlmock.NewRows(userCols), "u-1", "a@x.com", "Alice")
	mock.ExpectQuery(q).WithArgs("a@x.com").WillReturnRows(rows)

	accRows := sqlmock.NewRows([]string{"id", "user_id", "provider_key", "provider_user_id"}).
		AddRow("la-1", "u-1", common.PasswordProviderKey, "hash")
	expectLinkedAccounts(mock, "u-1", accRows)

	got, err := repo.FindByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if got.ID != "u-1" || got.Email != "a@x.com" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if len(got.LinkedAccounts) != 1 || got.LinkedAccounts[0].ProviderKey != common.PasswordProviderKey {
		t.Fatalf("linked accounts not loaded: %+v", got.LinkedAccounts)
	}
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+.*\s+FROM\s+users\s+WHERE\s+email`).
		WithArgs("ghost@x.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.FindByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestFindByEmail_DuplicateRecord(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(userCols)
	addUserRow(rows, "u-1", "a@x.com", "Alice")
	addUserRow(rows, "u-2", "a@x.com", "Alicia")
	mock.ExpectQuery(`(?s)^SELECT\s+.*\s+FROM\s+users\s+WHERE\s+email`).
		WithArgs("a@x.com").
		WillReturnRows(rows)

	_, err := repo.FindByEmail(context.Background(), "a@x.com")
	if !errors.Is(err, common.ErrDuplicateRecord) {
		t.Fatalf("want common.ErrDuplicateRecord, got %v", err)
	}
}

func TestFindByConfirmationToken_EmptyToken(t *testing.T) {
	repo, _, db := newRepoWithMock(t)
	defer db.Close()

	// Confirmed users all carry an empty token; looking it up must not
	// match them.
	_, err := repo.FindByConfirmationToken(context.Background(), "")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+.*WHERE\s+id\s*=\s*\$11\s*$`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.User{ID: "missing"})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestCountAdmins(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+users\s+WHERE\s+admin\s*=\s*TRUE\s*$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := repo.CountAdmins(context.Background())
	if err != nil {
		t.Fatalf("CountAdmins error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 admins, got %d", n)
	}
}

func TestClaimAdminBootstrap_Claimed(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+admin_bootstrap\s+.*ON\s+CONFLICT\s+DO\s+NOTHING\s*$`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	claimed, err := repo.ClaimAdminBootstrap(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("ClaimAdminBootstrap error: %v", err)
	}
	if !claimed {
		t.Fatalf("expected claim to succeed")
	}
}

func TestClaimAdminBootstrap_AlreadyClaimed(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+admin_bootstrap\s+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := repo.ClaimAdminBootstrap(context.Background(), "u-2")
	if err != nil {
		t.Fatalf("ClaimAdminBootstrap error: %v", err)
	}
	if claimed {
		t.Fatalf("marker already claimed, expected false")
	}
}

func TestFindAllAdmins_LoadsLinkedAccounts(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(userCols)
	addUserRow(rows, "u-1", "a@x.com", "Alice")
	mock.ExpectQuery(`(?s)^SELECT\s+.*\s+FROM\s+users\s+WHERE\s+admin\s*=\s*TRUE\s+ORDER\s+BY`).
		WillReturnRows(rows)
	expectLinkedAccounts(mock, "u-1",
		sqlmock.NewRows([]string{"id", "user_id", "provider_key", "provider_user_id"}))

	admins, err := repo.FindAllAdmins(context.Background())
	if err != nil {
		t.Fatalf("FindAllAdmins error: %v", err)
	}
	if len(admins) != 1 || admins[0].ID != "u-1" {
		t.Fatalf("unexpected admins: %+v", admins)
	}
}
