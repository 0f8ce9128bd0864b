// Package identity adapts the identity provider: paginated enumeration,
// lookup and deletion of identity records. The engine never writes
// identities except to delete them.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophledger/internal/server/models"
)

// MaxPageSize is the provider-side ceiling on records per page.
const MaxPageSize = 1000

// ErrRepeatedPageToken reports a provider that handed back the token it
// was just given, which would otherwise never end the listing.
var ErrRepeatedPageToken = errors.New("identity provider repeated page token")

// Page is one slice of the identity listing. An empty NextPageToken means
// the listing is complete.
type Page struct {
	Records       []models.IdentityRecord
	NextPageToken string
}

// Source is the identity provider as consumed by the engine.
//
// Get and Delete return common.ErrorNotFound when the uid does not exist.
// Connectivity failures are tagged with common.ErrTransientStore.
type Source interface {
	List(ctx context.Context, pageToken string, pageSize int) (Page, error)
	Get(ctx context.Context, uid string) (models.IdentityRecord, error)
	Delete(ctx context.Context, uid string) error
}

// ListAll follows continuation tokens until the provider reports the end
// of the listing. Pages are requested one after another.
func ListAll(ctx context.Context, src Source, pageSize int) ([]models.IdentityRecord, error) {
	var (
		all   []models.IdentityRecord
		token string
	)
	for {
		page, err := src.List(ctx, token, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		if page.NextPageToken == "" {
			return all, nil
		}
		if page.NextPageToken == token {
			return nil, fmt.Errorf("%w: %q after %d records", ErrRepeatedPageToken, token, len(all))
		}
		token = page.NextPageToken
	}
}

func normalizePageSize(n int) int {
	if n <= 0 || n > MaxPageSize {
		return MaxPageSize
	}
	return n
}
