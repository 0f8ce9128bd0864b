package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophledger/internal/server/docstore"
	"github.com/dmitrijs2005/gophledger/internal/server/identity"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestFactories_ReturnConcreteAdapters(t *testing.T) {
	db, _ := newDB(t)

	m := NewPostgresRepositoryManager()

	assert.IsType(t, &identity.PostgresSource{}, m.Identities(db))
	assert.IsType(t, &docstore.PostgresStore{}, m.Documents(db))
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		return nil
	}
	t.Cleanup(func() { gooseUpContext = orig })

	m := &PostgresRepositoryManager{}
	require.NoError(t, m.RunMigrations(context.Background(), db))
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	t.Cleanup(func() { gooseUpContext = orig })

	m := &PostgresRepositoryManager{}
	err := m.RunMigrations(context.Background(), db)
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}

func TestOpen(t *testing.T) {
	db, mock := newDB(t)

	orig := openDB
	openDB = func(driver, dsn string) (*sql.DB, error) {
		if driver != DriverName {
			return nil, errors.New("unexpected driver " + driver)
		}
		return db, nil
	}
	t.Cleanup(func() { openDB = orig })

	mock.ExpectPing()
	got, err := Open(context.Background(), "postgres://x")
	require.NoError(t, err)
	assert.Same(t, db, got)
}

func TestOpen_PingFails(t *testing.T) {
	db, mock := newDB(t)

	orig := openDB
	openDB = func(string, string) (*sql.DB, error) { return db, nil }
	t.Cleanup(func() { openDB = orig })

	mock.ExpectPing().WillReturnError(errors.New("refused"))
	_, err := Open(context.Background(), "postgres://x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping db")
}
