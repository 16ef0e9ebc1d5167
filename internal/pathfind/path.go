package pathfind

import (
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/graph"
)

// Path is an ordered walk of signed segment references.
type Path []int

// Reverse returns the same walk read from the other strand: order reversed
// and each reference negated.
func (p Path) Reverse() Path {
	out := make(Path, len(p))
	for i, ref := range p {
		out[len(p)-1-i] = -ref
	}
	return out
}

// Count returns how often the segment behind ref occurs on either strand.
func (p Path) Count(ref int) int {
	n := 0
	for _, r := range p {
		if r == ref || r == -ref {
			n++
		}
	}
	return n
}

// Contains reports whether the signed reference ref occurs in p.
func (p Path) Contains(ref int) bool {
	for _, r := range p {
		if r == ref {
			return true
		}
	}
	return false
}

// Key is a comparable form of the path for sets and deterministic ordering.
func (p Path) Key() string {
	var b strings.Builder
	for i, ref := range p {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(ref))
	}
	return b.String()
}

func (p Path) String() string {
	return "[" + p.Key() + "]"
}

// extend returns a copy of p with ref appended. Frontier paths share
// prefixes, so appending in place would corrupt siblings.
func (p Path) extend(ref int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = ref
	return out
}

func join(prefix, suffix Path) Path {
	out := make(Path, 0, len(prefix)+len(suffix))
	out = append(out, prefix...)
	return append(out, suffix...)
}

// Graph is what the search needs from an assembly graph.
type Graph interface {
	Segment(ref int) (graph.Segment, bool)
	Successors(ref int) []int
	SegmentSequence(ref int) string
	PathLength(path []int) int
	PathSequence(path []int) string
	Overlap() int
	MaxPathSegmentCount(ref int, referenceDepth float64) int
}

// anchorDepth is the single-copy depth estimate for a query: the anchors'
// depths averaged with their overlap-free lengths as weights.
func anchorDepth(g Graph, start, end int) float64 {
	s, _ := g.Segment(start)
	e, _ := g.Segment(end)
	ws := float64(s.LengthNoOverlap(g.Overlap()))
	we := float64(e.LengthNoOverlap(g.Overlap()))
	if ws+we == 0 {
		return (s.Depth + e.Depth) / 2
	}
	return (s.Depth*ws + e.Depth*we) / (ws + we)
}

// frontierDict maps the first segment of each reversed frontier path to
// those reversed paths. A hit on a key means the opposite search has
// reached that segment.
type frontierDict map[int][]Path

func buildFrontierDict(paths []Path) frontierDict {
	dict := make(frontierDict, len(paths))
	for _, p := range paths {
		r := p.Reverse()
		dict[r[0]] = append(dict[r[0]], r)
	}
	return dict
}
