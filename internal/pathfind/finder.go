// Package pathfind resolves a repeat region of an assembly graph: given two
// anchor segments, a target length and optionally a consensus read
// sequence spanning the gap, it finds the connecting paths that best
// explain the evidence.
//
// Exhaustive enumeration is tried first. When the graph around the repeat
// is too tangled for that, a bidirectional search guided by alignments to
// the consensus takes over. Either way the surviving paths are scored
// against the consensus and ranked.
package pathfind

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/align"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/sequence"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/tracing"
)

// Query describes one repeat to resolve.
type Query struct {
	Start        int
	End          int
	TargetLength int
	// Consensus spans the gap between the anchors, overlaps excluded. Empty
	// when the anchors overlap directly.
	Consensus string
	Scheme    align.Scheme
	// ExpectedScaledScore is the scaled score a correct path should reach
	// given the read error rate.
	ExpectedScaledScore float64
}

// Candidate is one scored path. It is never modified after ranking.
type Candidate struct {
	Path              Path    `json:"path"`
	Length            int     `json:"length"`
	RawScore          float64 `json:"raw_score"`
	LengthDiscrepancy int     `json:"length_discrepancy"`
	ScaledScore       float64 `json:"scaled_score"`
}

// Finder runs queries against one graph. It holds no per-query state and is
// safe for concurrent use.
type Finder struct {
	graph   Graph
	aligner align.Aligner
	cfg     config.PathFindingConfig
	logger  *slog.Logger
}

func NewFinder(g Graph, aligner align.Aligner, cfg config.PathFindingConfig) *Finder {
	return &Finder{
		graph:   g,
		aligner: aligner,
		cfg:     cfg,
		logger:  slog.Default().With("component", "pathfind"),
	}
}

// LengthWindow returns the path lengths considered for a target length.
func (f *Finder) LengthWindow(target int) (minLength, maxLength int) {
	minLength = int(math.Round(float64(target) * f.cfg.MinRelativeLength))
	maxLength = int(math.Round(float64(target) * f.cfg.MaxRelativeLength))
	return minLength, maxLength
}

// BestPaths returns the ranked candidates for q and whether the progressive
// search had to be used. An empty list means the repeat was not resolved;
// the only errors come from ctx.
func (f *Finder) BestPaths(ctx context.Context, q Query) ([]Candidate, bool, error) {
	minLength, maxLength := f.LengthWindow(q.TargetLength)
	target := f.padConsensus(q)

	enumCtx, span := tracing.StartChildSpan(ctx, "pathfind.enumerate")
	paths, err := f.AllPaths(enumCtx, q.Start, q.End, minLength, maxLength)
	span.SetAttr("paths", len(paths))
	span.End()

	progressive := false
	switch {
	case errors.Is(err, ErrTooManyPaths):
		progressive = true
		f.logger.Debug("exhaustive enumeration intractable, switching to progressive search",
			"start", q.Start, "end", q.End, "target_length", q.TargetLength)
		progCtx, span := tracing.StartChildSpan(ctx, "pathfind.progressive")
		paths, err = f.ProgressiveFind(progCtx, q.Start, q.End, minLength, maxLength, target, q.Scheme, q.ExpectedScaledScore)
		span.SetAttr("paths", len(paths))
		span.End()
		if err != nil {
			return nil, progressive, fmt.Errorf("progressive search: %w", err)
		}
	case err != nil:
		return nil, progressive, fmt.Errorf("enumerating paths: %w", err)
	}

	scoreCtx, span := tracing.StartChildSpan(ctx, "pathfind.score")
	defer span.End()
	candidates, err := f.rank(scoreCtx, paths, q, target)
	if err != nil {
		return nil, progressive, fmt.Errorf("scoring paths: %w", err)
	}
	span.SetAttr("candidates", len(candidates))
	return candidates, progressive, nil
}

// padConsensus adds the anchors' overlapping ends to the consensus so it
// spans the same bases as a path sequence.
func (f *Finder) padConsensus(q Query) string {
	if q.Consensus == "" {
		return ""
	}
	overlap := f.graph.Overlap()
	startSeq := f.graph.SegmentSequence(q.Start)
	endSeq := f.graph.SegmentSequence(q.End)
	head := startSeq[len(startSeq)-min(overlap, len(startSeq)):]
	tail := endSeq[:min(overlap, len(endSeq))]
	return head + q.Consensus + tail
}

func (f *Finder) rank(ctx context.Context, paths []Path, q Query, target string) ([]Candidate, error) {
	sort.SliceStable(paths, func(i, j int) bool {
		return abs(q.TargetLength-f.graph.PathLength(paths[i])) < abs(q.TargetLength-f.graph.PathLength(paths[j]))
	})

	candidates, err := scoreIndexed(ctx, f.cfg.Workers, len(paths), func(ctx context.Context, i int) (Candidate, bool) {
		p := paths[i]
		length := f.graph.PathLength(p)
		c := Candidate{Path: p, Length: length, LengthDiscrepancy: abs(length - q.TargetLength)}
		if target == "" {
			c.RawScore = sequence.Agreement(float64(length), float64(q.TargetLength)) * 100
			c.ScaledScore = 100
			return c, true
		}
		res, ok := f.aligner.Global(ctx, target, f.graph.PathSequence(p), q.Scheme, f.cfg.RankBandWidth)
		if !ok {
			return Candidate{}, false
		}
		c.RawScore = float64(res.RawScore)
		c.ScaledScore = res.ScaledScore
		return c, true
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.RawScore != b.RawScore {
			return a.RawScore > b.RawScore
		}
		if a.LengthDiscrepancy != b.LengthDiscrepancy {
			return a.LengthDiscrepancy < b.LengthDiscrepancy
		}
		return a.ScaledScore > b.ScaledScore
	})
	return retain(candidates, f.cfg.RetainFraction), nil
}

// retain drops candidates whose scaled score falls below fraction of the
// top-ranked candidate's scaled score. candidates must already be ranked.
func retain(candidates []Candidate, fraction float64) []Candidate {
	if len(candidates) == 0 {
		return candidates
	}
	threshold := candidates[0].ScaledScore * fraction
	out := candidates[:0]
	for _, c := range candidates {
		if c.ScaledScore >= threshold {
			out = append(out, c)
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
