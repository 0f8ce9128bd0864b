package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophledger/internal/server/docstore"
	"github.com/dmitrijs2005/gophledger/internal/server/identity"
)

// RepositoryManager vends the store adapters bound to a database handle
// and applies the schema.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Identities(db *sql.DB) identity.Source
	Documents(db *sql.DB) docstore.Store
}
