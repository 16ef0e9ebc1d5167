package pathfind

import (
	"context"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/align"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/sequence"
)

// progressiveQuery carries what both frontiers share during one
// progressive search.
type progressiveQuery struct {
	depth     float64
	maxLength int
	scheme    align.Scheme
	expected  float64
	completed map[string]Path
}

// frontier is one direction of the bidirectional search. Paths always start
// with the frontier's sentinel: the start anchor going forward, the negated
// end anchor going backward.
type frontier struct {
	paths   []Path
	target  string
	reverse bool
}

// ProgressiveFind searches from both anchors at once and records a path
// whenever the two searches meet. Oversized frontiers are culled against
// the consensus (and its reverse complement for the backward frontier).
// The result is sorted by path key so repeated runs agree.
func (f *Finder) ProgressiveFind(ctx context.Context, start, end, minLength, maxLength int, consensus string, scheme align.Scheme, expected float64) ([]Path, error) {
	q := &progressiveQuery{
		depth:     anchorDepth(f.graph, start, end),
		maxLength: maxLength,
		scheme:    scheme,
		expected:  expected,
		completed: make(map[string]Path),
	}
	forward := &frontier{paths: []Path{{start}}, target: consensus}
	backward := &frontier{paths: []Path{{-end}}, target: sequence.ReverseComplement(consensus), reverse: true}

	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		forward.paths, err = f.advance(ctx, q, forward, backward)
		if err != nil {
			return nil, err
		}
		if len(forward.paths) == 0 {
			break
		}
		backward.paths, err = f.advance(ctx, q, backward, forward)
		if err != nil {
			return nil, err
		}
		if len(backward.paths) == 0 {
			break
		}
		f.logger.Debug("progressive round finished",
			"round", round,
			"forward_paths", len(forward.paths),
			"reverse_paths", len(backward.paths),
			"completed", len(q.completed),
		)
	}

	keys := make([]string, 0, len(q.completed))
	for k := range q.completed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Path
	for _, k := range keys {
		full := q.completed[k]
		inner := full[1 : len(full)-1]
		length := f.graph.PathLength(inner)
		if length < minLength || length > maxLength {
			continue
		}
		if !f.admissible(inner, start, end, q.depth) {
			continue
		}
		out = append(out, inner)
	}
	return out, nil
}

// admissible rejects joined paths that pass through an anchor or overuse a
// segment. Each half honours the repetition cap on its own, but the join
// can push a segment over it.
func (f *Finder) admissible(p Path, start, end int, depth float64) bool {
	if p.Contains(start) || p.Contains(end) {
		return false
	}
	for _, ref := range p {
		if p.Count(ref) > f.graph.MaxPathSegmentCount(ref, depth) {
			return false
		}
	}
	return true
}

func (f *Finder) shortestLength(paths []Path) int {
	shortest := -1
	for _, p := range paths {
		if l := f.graph.PathLength(p[1:]); shortest < 0 || l < shortest {
			shortest = l
		}
	}
	return max(shortest, 0)
}

// advance grows fr one segment at a time, shortest paths first, until it is
// empty or holds more than ProgressiveMaxWorkingPaths; in the latter case it
// is culled before being returned. Extensions that land on a segment the
// opposite frontier has reached are joined into completed paths.
func (f *Finder) advance(ctx context.Context, q *progressiveQuery, fr, opposite *frontier) ([]Path, error) {
	dict := buildFrontierDict(opposite.paths)
	lengthCap := q.maxLength - f.shortestLength(opposite.paths)
	limit := f.cfg.ProgressiveMaxWorkingPaths

	working := fr.paths
	for len(working) > 0 && len(working) <= limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		shortest := -1
		for _, p := range working {
			if l := f.graph.PathLength(p); shortest < 0 || l < shortest {
				shortest = l
			}
		}

		next := make([]Path, 0, len(working))
		for _, p := range working {
			if f.graph.PathLength(p) > shortest {
				next = append(next, p)
				continue
			}
			for _, ref := range f.graph.Successors(p[len(p)-1]) {
				if p.Count(ref) >= f.graph.MaxPathSegmentCount(ref, q.depth) {
					continue
				}
				for _, suffix := range dict[ref] {
					complete := join(p, suffix)
					if fr.reverse {
						complete = complete.Reverse()
					}
					q.completed[complete.Key()] = complete
				}
				extended := p.extend(ref)
				if f.graph.PathLength(extended[1:]) <= lengthCap {
					next = append(next, extended)
				}
			}
		}
		working = next
	}

	if len(working) > limit {
		return f.cull(ctx, working, fr.target, q.scheme, q.expected)
	}
	return working, nil
}
