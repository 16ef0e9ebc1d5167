package pathfind

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// scoreIndexed runs fn for every index in [0, n) on at most workers
// goroutines. Results land in an indexed buffer, so the caller sees them in
// input order regardless of completion order. Entries for which fn returned
// false are dropped. The only error is the context's.
func scoreIndexed[T any](ctx context.Context, workers, n int, fn func(ctx context.Context, i int) (T, bool)) ([]T, error) {
	if n == 0 {
		return nil, ctx.Err()
	}
	type slot struct {
		val T
		ok  bool
	}
	slots := make([]slot, n)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			v, ok := fn(gCtx, i)
			slots[i] = slot{val: v, ok: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]T, 0, n)
	for _, s := range slots {
		if s.ok {
			out = append(out, s.val)
		}
	}
	return out, nil
}
