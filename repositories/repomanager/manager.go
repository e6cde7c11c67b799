// Package repomanager hands out repositories bound to a database handle,
// so services can run several repositories against the same transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/cfpio/identity/dbx"
	"github.com/cfpio/identity/repositories/dynamicfields"
	"github.com/cfpio/identity/repositories/linkedaccounts"
	"github.com/cfpio/identity/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	LinkedAccounts(db dbx.DBTX) linkedaccounts.Repository
	DynamicFields(db dbx.DBTX) dynamicfields.Repository
}
