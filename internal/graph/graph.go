// Package graph is an in-memory assembly graph: numbered segments with
// sequence and depth, strand-aware forward links and a uniform overlap.
//
// Segments are addressed by signed references. A positive reference is the
// segment on its forward strand, the negation is the same segment read as
// its reverse complement. Links are stored symmetrically, so adding a->b
// also makes -b reachable from -a.
package graph

import (
	"fmt"
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/sequence"
	apperrors "github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/errors"
)

const (
	minSegmentCount = 2
	copyMultiplier  = 2
)

// Segment is one node of the assembly graph, stored on its forward strand.
type Segment struct {
	Number   int
	Sequence string
	Depth    float64
}

// Length returns the segment length in bases.
func (s Segment) Length() int {
	return len(s.Sequence)
}

// LengthNoOverlap returns the length left once both overlaps are removed.
func (s Segment) LengthNoOverlap(overlap int) int {
	return max(0, len(s.Sequence)-2*overlap)
}

// Graph holds segments and their links. It is not safe for concurrent
// mutation; once built it is only read.
type Graph struct {
	segments map[int]*Segment
	links    map[int][]int
	overlap  int
}

// New creates an empty graph whose links all overlap by the given number of
// bases.
func New(overlap int) *Graph {
	return &Graph{
		segments: make(map[int]*Segment),
		links:    make(map[int][]int),
		overlap:  overlap,
	}
}

// AddSegment registers a segment under a positive number.
func (g *Graph) AddSegment(number int, seq string, depth float64) error {
	if number <= 0 {
		return fmt.Errorf("segment number %d: %w", number, apperrors.ErrInvalidInput)
	}
	if _, exists := g.segments[number]; exists {
		return fmt.Errorf("duplicate segment %d: %w", number, apperrors.ErrGraphFormat)
	}
	if len(seq) < g.overlap {
		return fmt.Errorf("segment %d shorter (%d) than overlap %d: %w", number, len(seq), g.overlap, apperrors.ErrGraphFormat)
	}
	g.segments[number] = &Segment{Number: number, Sequence: seq, Depth: depth}
	return nil
}

// AddLink connects from to to, and -to to -from. Repeated links are ignored.
func (g *Graph) AddLink(from, to int) error {
	for _, ref := range []int{from, to} {
		if _, ok := g.segments[abs(ref)]; !ok {
			return fmt.Errorf("link %d -> %d references segment %d: %w", from, to, abs(ref), apperrors.ErrSegmentNotFound)
		}
	}
	g.addDirected(from, to)
	g.addDirected(-to, -from)
	return nil
}

func (g *Graph) addDirected(from, to int) {
	for _, existing := range g.links[from] {
		if existing == to {
			return
		}
	}
	g.links[from] = append(g.links[from], to)
}

// Segment returns the segment behind a signed reference.
func (g *Graph) Segment(ref int) (Segment, bool) {
	seg, ok := g.segments[abs(ref)]
	if !ok {
		return Segment{}, false
	}
	return *seg, true
}

// Successors returns the references directly reachable from ref, in the
// order their links were added. The slice must not be modified.
func (g *Graph) Successors(ref int) []int {
	return g.links[ref]
}

// Overlap returns the overlap shared by every link.
func (g *Graph) Overlap() int {
	return g.overlap
}

// SegmentCount returns the number of segments.
func (g *Graph) SegmentCount() int {
	return len(g.segments)
}

// LinkCount returns the number of directed links, counting both strands.
func (g *Graph) LinkCount() int {
	n := 0
	for _, succ := range g.links {
		n += len(succ)
	}
	return n
}

// Numbers returns every segment number in ascending order.
func (g *Graph) Numbers() []int {
	numbers := make([]int, 0, len(g.segments))
	for n := range g.segments {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

// SegmentSequence returns the sequence of ref on its strand.
func (g *Graph) SegmentSequence(ref int) string {
	seg, ok := g.segments[abs(ref)]
	if !ok {
		return ""
	}
	if ref < 0 {
		return sequence.ReverseComplement(seg.Sequence)
	}
	return seg.Sequence
}

// PathLength returns the number of bases spelled by path: every segment's
// length minus one overlap per junction.
func (g *Graph) PathLength(path []int) int {
	if len(path) == 0 {
		return 0
	}
	total := 0
	for _, ref := range path {
		if seg, ok := g.segments[abs(ref)]; ok {
			total += len(seg.Sequence)
		}
	}
	return total - (len(path)-1)*g.overlap
}

// PathSequence spells path: the first segment whole, each later one with its
// leading overlap removed.
func (g *Graph) PathSequence(path []int) string {
	if len(path) == 0 {
		return ""
	}
	buf := make([]byte, 0, g.PathLength(path))
	for i, ref := range path {
		seq := g.SegmentSequence(ref)
		if i > 0 {
			seq = seq[min(g.overlap, len(seq)):]
		}
		buf = append(buf, seq...)
	}
	return string(buf)
}

// MaxPathSegmentCount returns how many times the segment behind ref may
// appear in one path, given the depth expected for a single-copy segment.
// A segment at twice the reference depth is likely a two-copy repeat and is
// allowed 2*2 traversals; anything at or below single copy gets the floor.
func (g *Graph) MaxPathSegmentCount(ref int, referenceDepth float64) int {
	seg, ok := g.segments[abs(ref)]
	if !ok {
		return 0
	}
	if referenceDepth <= 0 || seg.Depth <= 0 {
		return minSegmentCount
	}
	copies := int(math.Round(seg.Depth / referenceDepth))
	return max(minSegmentCount, copyMultiplier*copies)
}

func abs(ref int) int {
	if ref < 0 {
		return -ref
	}
	return ref
}
