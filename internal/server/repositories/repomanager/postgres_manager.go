// Package repomanager provides the PostgreSQL RepositoryManager, wiring
// adapter constructors and goose migrations together.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/gophledger/internal/dbx"
	"github.com/dmitrijs2005/gophledger/internal/server/docstore"
	"github.com/dmitrijs2005/gophledger/internal/server/identity"
	"github.com/dmitrijs2005/gophledger/internal/server/migrations"
)

// DriverName is the database/sql driver registered by pgx.
const DriverName = "pgx"

type PostgresRepositoryManager struct{}

// Identities returns an identity.Source reading the identities table.
func (m *PostgresRepositoryManager) Identities(db *sql.DB) identity.Source {
	return identity.NewPostgresSource(db, DriverName)
}

// Documents returns a docstore.Store over the documents table.
func (m *PostgresRepositoryManager) Documents(db *sql.DB) docstore.Store {
	return docstore.NewPostgresStore(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}

var openDB = sql.Open

// Open connects to dsn through pgx and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := openDB(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", dbx.Classify(err))
	}
	return db, nil
}
