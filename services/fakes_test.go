package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/cfpio/identity/common"
	"github.com/cfpio/identity/dbx"
	"github.com/cfpio/identity/models"
	dynamicfieldsrepo "github.com/cfpio/identity/repositories/dynamicfields"
	"github.com/cfpio/identity/repositories/linkedaccounts"
	"github.com/cfpio/identity/repositories/users"
)

// newTxDB returns a sqlmock-backed *sql.DB used only for transaction
// scripting; all data access goes through the fake repositories.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func identityKey(providerKey, providerUserID string) string {
	return providerKey + "\x00" + providerUserID
}

// --- users repository fake ---

type fakeUsersRepo struct {
	byEmail map[string]*models.User

	adminCount    int64
	claimTaken    bool
	claimCalls    int
	claimedUserID string

	created []models.User
	updated []models.User

	createErr error
	updateErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, user *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *user)
	return nil
}

func (f *fakeUsersRepo) Update(ctx context.Context, user *models.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, *user)
	return nil
}

func (f *fakeUsersRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) FindByFullname(ctx context.Context, fullname string) (*models.User, error) {
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) FindByConfirmationToken(ctx context.Context, token string) (*models.User, error) {
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) FindAll(ctx context.Context) ([]*models.User, error) {
	return nil, nil
}

func (f *fakeUsersRepo) FindAllAdmins(ctx context.Context) ([]*models.User, error) {
	return nil, nil
}

func (f *fakeUsersRepo) CountAdmins(ctx context.Context) (int64, error) {
	return f.adminCount, nil
}

func (f *fakeUsersRepo) ClaimAdminBootstrap(ctx context.Context, userID string) (bool, error) {
	f.claimCalls++
	if f.claimTaken {
		return false, nil
	}
	f.claimTaken = true
	f.claimedUserID = userID
	return true, nil
}

// --- linked accounts repository fake ---

type fakeAccountsRepo struct {
	// resolvable maps identity key -> owning user; validatedOnly lists
	// the keys that only resolve when requireValidated is false.
	resolvable  map[string]*models.User
	unvalidated map[string]bool

	byProvider map[string]*models.LinkedAccount // userID+providerKey

	added      []models.LinkedAccount
	addErrAt   int // fail the n-th Add (1-based), 0 = never
	addErr     error
	listOut    []models.LinkedAccount
	listErr    error
	syncedID   string
	syncedHash string
}

func (f *fakeAccountsRepo) Add(ctx context.Context, acc *models.LinkedAccount) error {
	if f.addErrAt > 0 && len(f.added)+1 == f.addErrAt {
		return f.addErr
	}
	f.added = append(f.added, *acc)
	return nil
}

func (f *fakeAccountsRepo) ListByUser(ctx context.Context, userID string) ([]models.LinkedAccount, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

func (f *fakeAccountsRepo) FindByProviderKey(ctx context.Context, userID, providerKey string) (*models.LinkedAccount, error) {
	if acc, ok := f.byProvider[identityKey(userID, providerKey)]; ok {
		cp := *acc
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeAccountsRepo) UpdateProviderUserID(ctx context.Context, accountID, providerUserID string) error {
	f.syncedID = accountID
	f.syncedHash = providerUserID
	return nil
}

func (f *fakeAccountsRepo) ResolveUser(ctx context.Context, identity models.ExternalIdentity, requireValidated bool) (*models.User, error) {
	key := identityKey(identity.ProviderKey, identity.ProviderUserID)
	user, ok := f.resolvable[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	if requireValidated && f.unvalidated[key] {
		return nil, common.ErrNotFound
	}
	cp := *user
	cp.LinkedAccounts = append([]models.LinkedAccount(nil), user.LinkedAccounts...)
	return &cp, nil
}

// --- dynamic field values repository fake ---

type fakeFieldsRepo struct {
	values   []models.DynamicFieldValue
	upserted []models.DynamicFieldValue
}

func (f *fakeFieldsRepo) ListByUser(ctx context.Context, userID string) ([]models.DynamicFieldValue, error) {
	return f.values, nil
}

func (f *fakeFieldsRepo) Upsert(ctx context.Context, userID string, value models.DynamicFieldValue) error {
	f.upserted = append(f.upserted, value)
	return nil
}

// --- repository manager fake ---

type fakeRepos struct {
	users    *fakeUsersRepo
	accounts *fakeAccountsRepo
	fields   *fakeFieldsRepo
}

func newFakeRepos() *fakeRepos {
	return &fakeRepos{
		users:    &fakeUsersRepo{byEmail: map[string]*models.User{}},
		accounts: &fakeAccountsRepo{resolvable: map[string]*models.User{}, unvalidated: map[string]bool{}, byProvider: map[string]*models.LinkedAccount{}},
		fields:   &fakeFieldsRepo{},
	}
}

func (f *fakeRepos) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (f *fakeRepos) Users(db dbx.DBTX) users.Repository { return f.users }

func (f *fakeRepos) LinkedAccounts(db dbx.DBTX) linkedaccounts.Repository { return f.accounts }

func (f *fakeRepos) DynamicFields(db dbx.DBTX) dynamicfieldsrepo.Repository { return f.fields }
