package services

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// forEachUID runs fn for every uid with at most limit calls in flight. fn
// records its own outcome; nothing it does stops the other uids.
func forEachUID(ctx context.Context, uids []string, limit int, fn func(ctx context.Context, uid string)) {
	var g errgroup.Group
	g.SetLimit(limit)
	for _, uid := range uids {
		g.Go(func() error {
			fn(ctx, uid)
			return nil
		})
	}
	_ = g.Wait()
}
