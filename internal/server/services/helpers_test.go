package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophledger/internal/common"
	"github.com/dmitrijs2005/gophledger/internal/server/docstore"
	"github.com/dmitrijs2005/gophledger/internal/server/identity"
	"github.com/dmitrijs2005/gophledger/internal/server/models"
)

var testNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func testEnv() runEnv {
	return runEnv{
		now:   func() time.Time { return testNow },
		runID: func() string { return "run-1" },
	}
}

func testSettings() Settings {
	return Settings{
		IdentityPageSize:     10,
		WriteConcurrency:     4,
		FreeUnitsSeed:        1,
		DependentCollections: []string{"specs", "apps", "marketResearch", "userTools"},
		OwnerField:           "userId",
	}
}

func ident(uid string) models.IdentityRecord {
	return models.IdentityRecord{
		UID:         uid,
		Email:       uid + "@example.com",
		DisplayName: "User " + uid,
		CreatedAt:   testNow.Add(-24 * time.Hour),
	}
}

func put(t *testing.T, s docstore.Store, coll, id string, fields map[string]any) {
	t.Helper()
	require.NoError(t, s.Set(context.Background(), coll, id, fields, false))
}

func owned(uid string) map[string]any {
	return map[string]any{"userId": uid, "title": "doc of " + uid}
}

// faultyStore wraps a Store and fails selected calls.
type faultyStore struct {
	docstore.Store

	mu          sync.Mutex
	writeFail   map[string]error // by document id, any BatchWrite touching it
	listFail    map[string]error // by collection
	deleteFail  map[string]error // BatchDelete by collection
	queryFail   map[string]error // by collection
	inFlight    int
	maxInFlight int
	writeDelay  time.Duration
}

func newFaultyStore(s docstore.Store) *faultyStore {
	return &faultyStore{
		Store:      s,
		writeFail:  map[string]error{},
		listFail:   map[string]error{},
		deleteFail: map[string]error{},
		queryFail:  map[string]error{},
	}
}

func transient(what string) error {
	return fmt.Errorf("%w: %s", common.ErrTransientStore, what)
}

func (f *faultyStore) BatchWrite(ctx context.Context, ops []docstore.WriteOp) error {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	var err error
	for _, op := range ops {
		if e, ok := f.writeFail[op.ID]; ok {
			err = e
		}
	}
	delay := f.writeDelay
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return err
	}
	return f.Store.BatchWrite(ctx, ops)
}

func (f *faultyStore) List(ctx context.Context, coll string) ([]docstore.Document, error) {
	if err, ok := f.listFail[coll]; ok {
		return nil, err
	}
	return f.Store.List(ctx, coll)
}

func (f *faultyStore) BatchDelete(ctx context.Context, coll string, ids []string) (int, error) {
	if err, ok := f.deleteFail[coll]; ok {
		return 0, err
	}
	return f.Store.BatchDelete(ctx, coll, ids)
}

func (f *faultyStore) Query(ctx context.Context, coll, field, value string) ([]docstore.Document, error) {
	if err, ok := f.queryFail[coll]; ok {
		return nil, err
	}
	return f.Store.Query(ctx, coll, field, value)
}

// faultySource wraps an identity Source.
type faultySource struct {
	identity.Source
	listErr   error
	deleteErr error
}

func (f *faultySource) List(ctx context.Context, token string, size int) (identity.Page, error) {
	if f.listErr != nil {
		return identity.Page{}, f.listErr
	}
	return f.Source.List(ctx, token, size)
}

func (f *faultySource) Delete(ctx context.Context, uid string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Source.Delete(ctx, uid)
}

type fakeObjects struct {
	prefixes []string
	n        int
	err      error
}

func (f *fakeObjects) DeletePrefix(_ context.Context, prefix string) (int, error) {
	f.prefixes = append(f.prefixes, prefix)
	return f.n, f.err
}
