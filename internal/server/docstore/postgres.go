package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/dmitrijs2005/gophledger/internal/common"
	"github.com/dmitrijs2005/gophledger/internal/dbx"
)

const (
	upsertMergeSQL = `INSERT INTO documents (collection, id, data)
		 VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (collection, id)
		 DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = now()`

	upsertReplaceSQL = `INSERT INTO documents (collection, id, data)
		 VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (collection, id)
		 DO UPDATE SET data = EXCLUDED.data, updated_at = now()`

	createSQL = `INSERT INTO documents (collection, id, data)
		 VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (collection, id) DO NOTHING`

	updateMergeSQL = `UPDATE documents SET data = data || $3::jsonb, updated_at = now()
		 WHERE collection = $1 AND id = $2`

	deleteSQL = `DELETE FROM documents WHERE collection = $1 AND id = $2`
)

// PostgresStore keeps documents in a single JSONB table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	return getDocument(ctx, s.db, collection, id, false)
}

func getDocument(ctx context.Context, db dbx.DBTX, collection, id string, forUpdate bool) (Document, error) {
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var data []byte
	err := db.QueryRowContext(ctx, query, collection, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, common.ErrorNotFound
		}
		return Document{}, dbx.Classify(err)
	}

	fields, err := decode(data)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Fields: fields}, nil
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	return applyOp(ctx, s.db, Set(collection, id, fields, merge))
}

func applyOp(ctx context.Context, db dbx.DBTX, op WriteOp) error {
	var query string
	switch op.Kind {
	case OpSet:
		query = upsertReplaceSQL
		if op.Merge {
			query = upsertMergeSQL
		}
	case OpCreate:
		query = createSQL
	case OpUpdate:
		query = updateMergeSQL
	case OpDelete:
		if _, err := db.ExecContext(ctx, deleteSQL, op.Collection, op.ID); err != nil {
			return dbx.Classify(err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown write kind %d", common.ErrInvalidArgument, op.Kind)
	}

	data, err := encode(op.Fields)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, query, op.Collection, op.ID, data); err != nil {
		return dbx.Classify(err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, collection, field, value string) ([]Document, error) {
	query := `SELECT id, data FROM documents
		 WHERE collection = $1 AND data->>$2 = $3
		 ORDER BY id`
	return s.selectDocuments(ctx, query, collection, field, value)
}

func (s *PostgresStore) List(ctx context.Context, collection string) ([]Document, error) {
	query := `SELECT id, data FROM documents
		 WHERE collection = $1
		 ORDER BY id`
	return s.selectDocuments(ctx, query, collection)
}

func (s *PostgresStore) selectDocuments(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.Classify(err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, dbx.Classify(err)
		}
		fields, err := decode(data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Classify(err)
	}
	return docs, nil
}

func (s *PostgresStore) BatchDelete(ctx context.Context, collection string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = ANY($2)`,
		collection, pq.Array(ids))
	if err != nil {
		return 0, dbx.Classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbx.Classify(err)
	}
	return int(n), nil
}

func (s *PostgresStore) BatchWrite(ctx context.Context, ops []WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, op := range ops {
			if err := applyOp(ctx, tx, op); err != nil {
				return fmt.Errorf("%s %s/%s: %w", op.Kind, op.Collection, op.ID, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) Transform(ctx context.Context, collection, id string, fn TransformFunc) (Document, error) {
	var out Document
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		doc, err := getDocument(ctx, tx, collection, id, true)
		if err != nil {
			return err
		}
		fields, err := fn(doc)
		if err != nil {
			return err
		}
		data, err := encode(fields)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE documents SET data = $3::jsonb, updated_at = now() WHERE collection = $1 AND id = $2`,
			collection, id, data); err != nil {
			return dbx.Classify(err)
		}
		out = Document{ID: id}
		out.Fields, err = decode([]byte(data))
		return err
	})
	if err != nil {
		return Document{}, err
	}
	return out, nil
}
