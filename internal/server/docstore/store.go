// Package docstore adapts the document store holding profiles, ledgers,
// subscriptions and dependent records. Documents are JSON objects keyed by
// (collection, id).
package docstore

import "context"

// Document is a stored JSON object. Numbers decode as json.Number.
type Document struct {
	ID     string
	Fields map[string]any
}

type OpKind int

const (
	// OpSet upserts. With Merge the top-level fields are merged into the
	// stored document, otherwise the body is replaced.
	OpSet OpKind = iota
	// OpCreate inserts only if the document is absent.
	OpCreate
	// OpUpdate merges into an existing document; absent documents are left
	// absent.
	OpUpdate
	// OpDelete removes the document; absent documents are not an error.
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpSet:
		return "set"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// WriteOp is one write inside a BatchWrite.
type WriteOp struct {
	Kind       OpKind
	Collection string
	ID         string
	Fields     map[string]any
	Merge      bool
}

func Set(collection, id string, fields map[string]any, merge bool) WriteOp {
	return WriteOp{Kind: OpSet, Collection: collection, ID: id, Fields: fields, Merge: merge}
}

func Create(collection, id string, fields map[string]any) WriteOp {
	return WriteOp{Kind: OpCreate, Collection: collection, ID: id, Fields: fields}
}

func Update(collection, id string, fields map[string]any) WriteOp {
	return WriteOp{Kind: OpUpdate, Collection: collection, ID: id, Fields: fields}
}

func Delete(collection, id string) WriteOp {
	return WriteOp{Kind: OpDelete, Collection: collection, ID: id}
}

// TransformFunc receives the current document and returns the complete
// new body. Returning an error aborts the transform without writing.
type TransformFunc func(doc Document) (map[string]any, error)

// Store is the document store as consumed by the engine.
//
// Get and Transform return common.ErrorNotFound for absent documents.
// Connectivity failures are tagged with common.ErrTransientStore.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error
	// Query returns documents whose top-level field has the given text value.
	Query(ctx context.Context, collection, field, value string) ([]Document, error)
	// List returns every document in the collection ordered by id.
	List(ctx context.Context, collection string) ([]Document, error)
	// BatchDelete removes ids in one all-or-nothing call and reports how
	// many existed.
	BatchDelete(ctx context.Context, collection string, ids []string) (int, error)
	// BatchWrite applies ops atomically: all of them or none.
	BatchWrite(ctx context.Context, ops []WriteOp) error
	// Transform atomically reads, modifies and rewrites one document.
	Transform(ctx context.Context, collection, id string, fn TransformFunc) (Document, error)
}

// IDs returns the ids of docs in order.
func IDs(docs []Document) []string {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids
}
