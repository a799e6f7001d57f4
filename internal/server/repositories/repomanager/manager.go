// Package repomanager wires repositories to a shared database handle and
// owns schema migrations. Repositories are constructed over dbx.DBTX so the
// same constructors serve both plain connections and transactions.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/okulikov/authd/internal/dbx"
	"github.com/okulikov/authd/internal/server/repositories/sessions"
	"github.com/okulikov/authd/internal/server/repositories/users"
)

type RepositoryManager interface {
	Conn() *sql.DB
	RunMigrations(ctx context.Context) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Close() error
}
