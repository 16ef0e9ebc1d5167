package pathfind

import (
	"context"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/align"
)

type scoredPath struct {
	path  Path
	score float64
}

// cull shrinks an oversized frontier to the paths that best follow target.
// Paths keep their sentinel, which is not part of target. The shared prefix
// is aligned once to find where the paths diverge in target, then each
// path's remainder, cut to the shortest path's length, is aligned from
// there. An empty result means the frontier has left the true route.
func (f *Finder) cull(ctx context.Context, paths []Path, target string, scheme align.Scheme, expected float64) ([]Path, error) {
	before := len(paths)

	common := commonPrefix(paths)
	if len(common) > 0 {
		common = common[1:]
	}
	commonSeq := f.graph.PathSequence(common)
	if trim := f.cfg.CullCommonTrim; len(commonSeq) > trim {
		commonSeq = commonSeq[:len(commonSeq)-trim]
	} else {
		commonSeq = ""
	}
	pathStart, seqStart := len(commonSeq), 0
	if commonSeq != "" {
		if res, ok := f.aligner.Path(ctx, commonSeq, target, scheme, f.cfg.RankBandWidth); ok {
			seqStart = min(res.SeqBEnd, len(target))
		}
	}
	remaining := target[seqStart:]

	shortest := -1
	for _, p := range paths {
		if l := f.graph.PathLength(p[1:]); shortest < 0 || l < shortest {
			shortest = l
		}
	}

	scored, err := scoreIndexed(ctx, f.cfg.Workers, len(paths), func(ctx context.Context, i int) (scoredPath, bool) {
		seq := f.graph.PathSequence(paths[i][1:])
		if pathStart >= shortest || shortest > len(seq) {
			return scoredPath{}, false
		}
		res, ok := f.aligner.Path(ctx, seq[pathStart:shortest], remaining, scheme, f.cfg.CullBandWidth)
		if !ok {
			return scoredPath{}, false
		}
		return scoredPath{path: paths[i], score: res.ScaledScore}, true
	})
	if err != nil {
		return nil, err
	}
	if len(scored) == 0 {
		f.logger.Debug("cull found no alignable paths", "paths", before)
		return nil, nil
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	best := scored[0].score
	if best < f.cfg.CullAbortFraction*expected {
		f.logger.Debug("cull abandoned frontier", "best_score", best, "expected", expected)
		return nil, nil
	}

	maxSurvivors := f.cfg.ProgressiveMaxWorkingPaths / 2
	fraction := f.cfg.ProgressiveScoreFraction
	var survivors []Path
	for {
		survivors = survivors[:0]
		for _, sp := range scored {
			if sp.score >= best*fraction {
				survivors = append(survivors, sp.path)
			}
		}
		if len(survivors) <= maxSurvivors || 1-fraction < 1e-9 {
			break
		}
		fraction = 1 - (1-fraction)/2
	}
	if len(survivors) > maxSurvivors {
		survivors = survivors[:maxSurvivors]
	}
	if len(survivors) == before {
		survivors = survivors[:len(survivors)/2]
	}

	f.logger.Debug("frontier culled",
		"before", before,
		"after", len(survivors),
		"best_score", best,
		"fraction", fraction,
	)
	return survivors, nil
}

// commonPrefix returns the longest run of leading references every path
// shares.
func commonPrefix(paths []Path) Path {
	if len(paths) == 0 {
		return nil
	}
	shortest := len(paths[0])
	for _, p := range paths[1:] {
		shortest = min(shortest, len(p))
	}
	n := 0
	for ; n < shortest; n++ {
		ref := paths[0][n]
		same := true
		for _, p := range paths[1:] {
			if p[n] != ref {
				same = false
				break
			}
		}
		if !same {
			break
		}
	}
	return paths[0][:n]
}
