package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/cfpio/identity/dbx"
	"github.com/cfpio/identity/migrations"
	"github.com/cfpio/identity/repositories/dynamicfields"
	"github.com/cfpio/identity/repositories/linkedaccounts"
	"github.com/cfpio/identity/repositories/users"
)

var _ RepositoryManager = (*PostgresRepositoryManager)(nil)

type PostgresRepositoryManager struct {
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) LinkedAccounts(db dbx.DBTX) linkedaccounts.Repository {
	return linkedaccounts.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) DynamicFields(db dbx.DBTX) dynamicfields.Repository {
	return dynamicfields.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}
