package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dmitrijs2005/gophledger/internal/common"
	"github.com/dmitrijs2005/gophledger/internal/logging"
	"github.com/dmitrijs2005/gophledger/internal/server/auth"
	"github.com/dmitrijs2005/gophledger/internal/server/docstore"
	"github.com/dmitrijs2005/gophledger/internal/server/identity"
	"github.com/dmitrijs2005/gophledger/internal/server/models"
	"github.com/dmitrijs2005/gophledger/internal/server/services"
)

const testSecret = "grpc-secret"

// failingDeletes makes BatchDelete fail for one collection.
type failingDeletes struct {
	docstore.Store
	collection string
}

func (f *failingDeletes) BatchDelete(ctx context.Context, collection string, ids []string) (int, error) {
	if collection == f.collection {
		return 0, fmt.Errorf("%w: timeout", common.ErrTransientStore)
	}
	return f.Store.BatchDelete(ctx, collection, ids)
}

type harness struct {
	ids    *identity.MemorySource
	docs   *docstore.MemoryStore
	client *AdminClient
}

func start(t *testing.T, store func(docstore.Store) docstore.Store, token string) *harness {
	t.Helper()

	h := &harness{ids: identity.NewMemorySource(), docs: docstore.NewMemoryStore()}
	var docs docstore.Store = h.docs
	if store != nil {
		docs = store(h.docs)
	}
	settings := services.Settings{
		IdentityPageSize:     10,
		WriteConcurrency:     2,
		FreeUnitsSeed:        1,
		DependentCollections: []string{"specs"},
		OwnerField:           "userId",
	}
	suite := services.NewSuite(h.ids, docs, nil, settings, logging.Nop{})
	srv := NewGRPCServer("", logging.Nop{}, suite, 1, testSecret)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	client, err := NewAdminClient("passthrough:///bufnet", token,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	h.client = client

	t.Cleanup(func() {
		_ = client.Close()
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return h
}

func adminToken(t *testing.T) string {
	t.Helper()
	tok, err := auth.GenerateToken("ops", []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return tok
}

func TestClient_PingWithoutToken(t *testing.T) {
	h := start(t, nil, "")
	require.NoError(t, h.client.Ping(context.Background()))
}

func TestClient_Unauthenticated(t *testing.T) {
	h := start(t, nil, "")
	_, err := h.client.Reconcile(context.Background(), services.ReconcileOptions{})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestClient_ReconcileAndAudit(t *testing.T) {
	h := start(t, nil, adminToken(t))
	ctx := context.Background()
	h.ids.Put(models.IdentityRecord{UID: "a", Email: "a@example.com", CreatedAt: time.Now().UTC()})
	require.NoError(t, h.docs.Set(ctx, "specs", "s1", map[string]any{"userId": "ghost"}, false))

	report, err := h.client.Reconcile(ctx, services.ReconcileOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, 1, report.LedgersCreated)
	want := []models.DependentRecord{{Collection: "specs", ID: "s1", OwnerUID: "ghost"}}
	if diff := cmp.Diff(want, report.DataWithoutIdentity); diff != "" {
		t.Errorf("data without identity (-want +got):\n%s", diff)
	}

	audit, err := h.client.Audit(ctx, services.ReconcileOptions{RepairData: true})
	require.NoError(t, err)
	require.NotNil(t, audit.Repairs)
	assert.Equal(t, 1, audit.Repairs.DependentsDeleted["specs"])
	assert.Empty(t, audit.IdentityWithoutProfile)
}

func TestClient_ResetAndLedger(t *testing.T) {
	h := start(t, nil, adminToken(t))
	ctx := context.Background()
	require.NoError(t, h.docs.Set(ctx, models.CollectionEntitlements, "a", map[string]any{"unlimited": true, "preservedBalance": 9}, false))

	report, err := h.client.ResetAllEntitlements(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Baseline)
	assert.Equal(t, 1, report.Succeeded)
	assert.True(t, report.Outcomes["a"].OK)

	decision, err := h.client.Check(ctx, "a")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, int64(2), decision.Ledger.UnitsAvailable)

	res, err := h.client.ConsumeUnit(ctx, "a")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, int64(1), res.Ledger.UnitsAvailable)

	_, err = h.client.Check(ctx, "nobody")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = h.client.ResetAllEntitlements(ctx, -1)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestClient_DeleteUser(t *testing.T) {
	h := start(t, nil, adminToken(t))
	ctx := context.Background()
	h.ids.Put(models.IdentityRecord{UID: "a"})
	require.NoError(t, h.docs.Set(ctx, models.CollectionUsers, "a", map[string]any{"email": "a@example.com"}, false))

	res, err := h.client.DeleteUser(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted[models.CollectionUsers])

	res, err = h.client.DeleteUser(ctx, "a")
	require.NoError(t, err)
	assert.True(t, res.IdentityAlreadyAbsent)

	_, err = h.client.DeleteUser(ctx, "")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestClient_PartialDeleteCarriesResult(t *testing.T) {
	h := start(t, func(s docstore.Store) docstore.Store {
		return &failingDeletes{Store: s, collection: "specs"}
	}, adminToken(t))
	ctx := context.Background()
	h.ids.Put(models.IdentityRecord{UID: "a"})
	require.NoError(t, h.docs.Set(ctx, "specs", "s1", map[string]any{"userId": "a"}, false))

	res, err := h.client.DeleteUser(ctx, "a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrPartialDelete))
	require.NotNil(t, res)
	assert.Equal(t, []string{"specs"}, res.Residue)
	assert.Equal(t, "a", res.UID)
}
