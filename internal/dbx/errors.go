package dbx

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/gophledger/internal/common"
)

// IsTransient reports whether err looks like a connectivity or timeout
// failure that a caller may retry, as opposed to a query or data error.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	return pgconn.SafeToRetry(err) || pgconn.Timeout(err)
}

// Classify wraps err as "db error" and tags connectivity failures with
// common.ErrTransientStore so callers can tell them apart with errors.Is.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) {
		return fmt.Errorf("%w: db error: %w", common.ErrTransientStore, err)
	}
	return fmt.Errorf("db error: %w", err)
}
