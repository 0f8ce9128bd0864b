package identity

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/gophledger/internal/common"
	"github.com/dmitrijs2005/gophledger/internal/server/models"
)

// MemorySource is an in-process Source. It paginates the same way as the
// Postgres source and is used by tests and local runs.
type MemorySource struct {
	mu      sync.RWMutex
	records map[string]models.IdentityRecord
}

func NewMemorySource(records ...models.IdentityRecord) *MemorySource {
	s := &MemorySource{records: make(map[string]models.IdentityRecord, len(records))}
	for _, r := range records {
		s.records[r.UID] = r
	}
	return s
}

// Put adds or replaces an identity.
func (s *MemorySource) Put(rec models.IdentityRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.UID] = rec
}

func (s *MemorySource) List(ctx context.Context, pageToken string, pageSize int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	pageSize = normalizePageSize(pageSize)

	s.mu.RLock()
	defer s.mu.RUnlock()

	uids := make([]string, 0, len(s.records))
	for uid := range s.records {
		if uid > pageToken {
			uids = append(uids, uid)
		}
	}
	sort.Strings(uids)

	page := Page{}
	if len(uids) > pageSize {
		uids = uids[:pageSize]
	}
	for _, uid := range uids {
		page.Records = append(page.Records, s.records[uid])
	}
	if len(uids) == pageSize {
		page.NextPageToken = uids[len(uids)-1]
	}
	return page, nil
}

func (s *MemorySource) Get(ctx context.Context, uid string) (models.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[uid]
	if !ok {
		return models.IdentityRecord{}, common.ErrorNotFound
	}
	return rec, nil
}

func (s *MemorySource) Delete(ctx context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[uid]; !ok {
		return common.ErrorNotFound
	}
	delete(s.records, uid)
	return nil
}
