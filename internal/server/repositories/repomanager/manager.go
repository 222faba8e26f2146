package repomanager

import (
	"context"
	"database/sql"

	"github.com/dkovalev/accountd/internal/dbx"
	"github.com/dkovalev/accountd/internal/server/repositories/users"
)

// RepositoryManager vends repository instances bound to an arbitrary DBTX
// (plain connection or transaction) and exposes a schema migration hook.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
