package docstore

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/dmitrijs2005/gophledger/internal/common"
)

// MemoryStore is an in-process Store with the same write semantics as
// PostgresStore. Values are normalized through JSON on write.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[string]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[string]map[string]any{}}
}

func (s *MemoryStore) collection(name string) map[string]map[string]any {
	c, ok := s.data[name]
	if !ok {
		c = map[string]map[string]any{}
		s.data[name] = c
	}
	return c
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fields, ok := s.data[collection][id]
	if !ok {
		return Document{}, common.ErrorNotFound
	}
	return Document{ID: id, Fields: maps.Clone(fields)}, nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	return s.BatchWrite(ctx, []WriteOp{Set(collection, id, fields, merge)})
}

func (s *MemoryStore) Query(ctx context.Context, collection, field, value string) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var docs []Document
	for id, fields := range s.data[collection] {
		if v, ok := textValue(fields[field]); ok && v == value {
			docs = append(docs, Document{ID: id, Fields: maps.Clone(fields)})
		}
	}
	sortDocs(docs)
	return docs, nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]Document, 0, len(s.data[collection]))
	for id, fields := range s.data[collection] {
		docs = append(docs, Document{ID: id, Fields: maps.Clone(fields)})
	}
	sortDocs(docs)
	return docs, nil
}

func (s *MemoryStore) BatchDelete(ctx context.Context, collection string, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.data[collection]
	n := 0
	for _, id := range ids {
		if _, ok := c[id]; ok {
			delete(c, id)
			n++
		}
	}
	return n, nil
}

// BatchWrite validates and encodes every op before touching state, so a
// bad op leaves the store unchanged.
func (s *MemoryStore) BatchWrite(ctx context.Context, ops []WriteOp) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bodies := make([]map[string]any, len(ops))
	for i, op := range ops {
		if op.Kind < OpSet || op.Kind > OpDelete {
			return fmt.Errorf("%w: unknown write kind %d", common.ErrInvalidArgument, op.Kind)
		}
		if op.Kind == OpDelete {
			continue
		}
		body, err := normalize(op.Fields)
		if err != nil {
			return err
		}
		bodies[i] = body
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, op := range ops {
		c := s.collection(op.Collection)
		cur, exists := c[op.ID]
		switch op.Kind {
		case OpSet:
			if op.Merge && exists {
				maps.Copy(cur, bodies[i])
			} else {
				c[op.ID] = bodies[i]
			}
		case OpCreate:
			if !exists {
				c[op.ID] = bodies[i]
			}
		case OpUpdate:
			if exists {
				maps.Copy(cur, bodies[i])
			}
		case OpDelete:
			delete(c, op.ID)
		}
	}
	return nil
}

func (s *MemoryStore) Transform(ctx context.Context, collection, id string, fn TransformFunc) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.data[collection][id]
	if !ok {
		return Document{}, common.ErrorNotFound
	}
	fields, err := fn(Document{ID: id, Fields: maps.Clone(cur)})
	if err != nil {
		return Document{}, err
	}
	body, err := normalize(fields)
	if err != nil {
		return Document{}, err
	}
	s.data[collection][id] = body
	return Document{ID: id, Fields: maps.Clone(body)}, nil
}

func sortDocs(docs []Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
}
