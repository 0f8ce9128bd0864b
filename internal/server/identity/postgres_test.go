package identity

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophledger/internal/common"
)

var identityCols = []string{"uid", "email", "display_name", "email_verified", "disabled", "created_at", "last_sign_in_at"}

func newSourceWithMock(t *testing.T) (*PostgresSource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresSource(db, "sqlmock"), mock
}

func TestPostgresSource_List_FullPageReturnsToken(t *testing.T) {
	src, mock := newSourceWithMock(t)
	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	q := `(?s)^SELECT\s+uid,.*FROM\s+identities\s+WHERE\s+uid\s*>\s*\$1\s+ORDER\s+BY\s+uid\s+LIMIT\s+\$2$`
	mock.ExpectQuery(q).
		WithArgs("", 2).
		WillReturnRows(sqlmock.NewRows(identityCols).
			AddRow("a", "a@example.com", "A", true, false, created, created).
			AddRow("b", "", "", false, true, created, nil))

	page, err := src.List(context.Background(), "", 2)
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "b", page.NextPageToken)
	assert.Equal(t, "a@example.com", page.Records[0].Email)
	require.NotNil(t, page.Records[0].LastSignInAt)
	assert.Nil(t, page.Records[1].LastSignInAt)
	assert.True(t, page.Records[1].Disabled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_List_ShortPageEndsListing(t *testing.T) {
	src, mock := newSourceWithMock(t)

	mock.ExpectQuery(`FROM\s+identities`).
		WithArgs("b", MaxPageSize).
		WillReturnRows(sqlmock.NewRows(identityCols).
			AddRow("c", "c@example.com", "C", false, false, time.Now(), nil))

	page, err := src.List(context.Background(), "b", 0)
	require.NoError(t, err)
	assert.Len(t, page.Records, 1)
	assert.Empty(t, page.NextPageToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_List_TransientError(t *testing.T) {
	src, mock := newSourceWithMock(t)

	mock.ExpectQuery(`FROM\s+identities`).WillReturnError(sql.ErrConnDone)

	_, err := src.List(context.Background(), "", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTransientStore)
}

func TestPostgresSource_Get(t *testing.T) {
	src, mock := newSourceWithMock(t)

	q := `(?s)^SELECT\s+uid,.*FROM\s+identities\s+WHERE\s+uid\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs("a").
		WillReturnRows(sqlmock.NewRows(identityCols).
			AddRow("a", "a@example.com", "A", true, false, time.Now(), nil))
	mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q).WithArgs("x").WillReturnError(errors.New("syntax"))

	rec, err := src.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "A", rec.DisplayName)

	_, err = src.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = src.Get(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgresSource_Delete(t *testing.T) {
	src, mock := newSourceWithMock(t)

	q := `^DELETE\s+FROM\s+identities\s+WHERE\s+uid\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("a").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("a").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, src.Delete(context.Background(), "a"))
	assert.ErrorIs(t, src.Delete(context.Background(), "a"), common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
