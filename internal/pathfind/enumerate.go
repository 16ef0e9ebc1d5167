package pathfind

import (
	"context"
	"errors"
)

// ErrTooManyPaths reports that exhaustive enumeration hit one of its
// ceilings. It is a signal to switch strategy, not a failure.
var ErrTooManyPaths = errors.New("too many paths")

// AllPaths lists every walk from start to end whose length, anchors
// excluded, lies in [minLength, maxLength]. Walks are grown breadth-first
// and never re-enter the start anchor unless it is also the end. It
// returns ErrTooManyPaths once more than ExhaustiveMaxFinalPaths walks are
// found or a round holds more than ExhaustiveMaxWorkingPaths.
func (f *Finder) AllPaths(ctx context.Context, start, end, minLength, maxLength int) ([]Path, error) {
	first := f.graph.Successors(start)
	if len(first) == 0 {
		return nil, nil
	}
	depth := anchorDepth(f.graph, start, end)

	working := make([]Path, 0, len(first))
	for _, ref := range first {
		working = append(working, Path{ref})
	}
	var final []Path
	for len(working) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := make([]Path, 0, len(working))
		for _, p := range working {
			last := p[len(p)-1]
			if last == end {
				candidate := p[:len(p)-1]
				if f.graph.PathLength(candidate) >= minLength {
					final = append(final, candidate)
					if len(final) > f.cfg.ExhaustiveMaxFinalPaths {
						return nil, ErrTooManyPaths
					}
				}
				continue
			}
			if f.graph.PathLength(p) > maxLength {
				continue
			}
			for _, ref := range f.graph.Successors(last) {
				if ref == start && start != end {
					continue
				}
				if p.Count(ref) < f.graph.MaxPathSegmentCount(ref, depth) {
					next = append(next, p.extend(ref))
				}
			}
		}
		if len(working) > f.cfg.ExhaustiveMaxWorkingPaths {
			return nil, ErrTooManyPaths
		}
		working = next
	}
	return final, nil
}
