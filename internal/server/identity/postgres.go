package identity

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/dmitrijs2005/gophledger/internal/common"
	"github.com/dmitrijs2005/gophledger/internal/dbx"
	"github.com/dmitrijs2005/gophledger/internal/server/models"
)

const selectIdentity = `SELECT uid, COALESCE(email, '') AS email, COALESCE(display_name, '') AS display_name,
		email_verified, disabled, created_at, last_sign_in_at
	 FROM identities`

// PostgresSource reads identities from the identities table. Pages are
// keyset-paginated by uid; the page token is the last uid returned.
type PostgresSource struct {
	db sqlx.ExtContext
}

func NewPostgresSource(db *sql.DB, driverName string) *PostgresSource {
	return &PostgresSource{db: sqlx.NewDb(db, driverName)}
}

func (s *PostgresSource) List(ctx context.Context, pageToken string, pageSize int) (Page, error) {
	pageSize = normalizePageSize(pageSize)

	query := selectIdentity + `
	 WHERE uid > $1
	 ORDER BY uid
	 LIMIT $2`

	var records []models.IdentityRecord
	if err := sqlx.SelectContext(ctx, s.db, &records, query, pageToken, pageSize); err != nil {
		return Page{}, dbx.Classify(err)
	}

	page := Page{Records: records}
	if len(records) == pageSize {
		page.NextPageToken = records[len(records)-1].UID
	}
	return page, nil
}

func (s *PostgresSource) Get(ctx context.Context, uid string) (models.IdentityRecord, error) {
	query := selectIdentity + `
	 WHERE uid = $1`

	var rec models.IdentityRecord
	if err := sqlx.GetContext(ctx, s.db, &rec, query, uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.IdentityRecord{}, common.ErrorNotFound
		}
		return models.IdentityRecord{}, dbx.Classify(err)
	}
	return rec, nil
}

func (s *PostgresSource) Delete(ctx context.Context, uid string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM identities WHERE uid = $1`, uid)
	if err != nil {
		return dbx.Classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbx.Classify(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
