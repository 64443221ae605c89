// pgstruct-mcp: structural health diagnostics for PostgreSQL clusters
// SPDX-License-Identifier: MIT
//
// Per-node query fanout across the cluster.

package fanout

import (
	"context"

	"pgstruct-mcp/internal/db"

	"golang.org/x/sync/errgroup"
)

// Fanout runs fn concurrently across nodes and returns results in node order.
// The first error cancels the remaining calls and is returned alone.
func Fanout[T any](ctx context.Context, nodes []*db.Node, fn func(context.Context, *db.Node) (T, error)) ([]T, error) {
	return FanoutN(ctx, 0, nodes, fn)
}

// FanoutN is Fanout with at most limit calls in flight; limit <= 0 means no limit
// and limit 1 runs the nodes one after another.
func FanoutN[T any](ctx context.Context, limit int, nodes []*db.Node, fn func(context.Context, *db.Node) (T, error)) ([]T, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	results := make([]T, len(nodes))
	for i, node := range nodes {
		i, node := i, node
		g.Go(func() error {
			r, err := fn(ctx, node)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
