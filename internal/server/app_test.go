package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophledger/internal/logging"
	"github.com/dmitrijs2005/gophledger/internal/server/config"
	"github.com/dmitrijs2005/gophledger/internal/server/docstore"
	"github.com/dmitrijs2005/gophledger/internal/server/identity"
	"github.com/dmitrijs2005/gophledger/internal/server/models"
	"github.com/dmitrijs2005/gophledger/internal/server/services"
)

// memoryManager vends in-memory adapters.
type memoryManager struct {
	ids          *identity.MemorySource
	docs         *docstore.MemoryStore
	migrationErr error
	migrated     bool
}

func (m *memoryManager) RunMigrations(context.Context, *sql.DB) error {
	m.migrated = true
	return m.migrationErr
}
func (m *memoryManager) Identities(*sql.DB) identity.Source { return m.ids }
func (m *memoryManager) Documents(*sql.DB) docstore.Store   { return m.docs }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AdminHTTPAddr = "127.0.0.1:0"
	cfg.EndpointAddrGRPC = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func TestNewBackend_WiresServices(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectClose()

	rm := &memoryManager{ids: identity.NewMemorySource(models.IdentityRecord{UID: "a"}), docs: docstore.NewMemoryStore()}
	b, err := NewBackend(context.Background(), testConfig(), logging.Nop{}, db, rm)
	require.NoError(t, err)
	assert.True(t, rm.migrated)

	report, err := b.Suite.Reconcile(context.Background(), services.ReconcileOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Synced)

	require.NoError(t, b.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewBackend_MigrationError(t *testing.T) {
	db, _ := newMockDB(t)
	t.Cleanup(func() { _ = db.Close() })

	rm := &memoryManager{migrationErr: errors.New("boom")}
	_, err := NewBackend(context.Background(), testConfig(), logging.Nop{}, db, rm)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectClose()

	cfg := testConfig()
	rm := &memoryManager{ids: identity.NewMemorySource(), docs: docstore.NewMemoryStore()}
	b, err := NewBackend(context.Background(), cfg, logging.Nop{}, db, rm)
	require.NoError(t, err)

	app := NewAppWithBackend(cfg, logging.Nop{}, b)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(150 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApp_RunStopsWhenServerFails(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectClose()

	cfg := testConfig()
	cfg.EndpointAddrGRPC = "127.0.0.1:99999"
	rm := &memoryManager{ids: identity.NewMemorySource(), docs: docstore.NewMemoryStore()}
	b, err := NewBackend(context.Background(), cfg, logging.Nop{}, db, rm)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- NewAppWithBackend(cfg, logging.Nop{}, b).Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app kept running after gRPC listen failure")
	}
}
