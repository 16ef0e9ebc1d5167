package graph

import (
	"errors"
	"strings"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/errors"
)

func buildLinear(t *testing.T) *Graph {
	t.Helper()
	g := New(2)
	mustAdd(t, g, 1, "AACCGG", 10)
	mustAdd(t, g, 2, "GGTTAA", 20)
	mustAdd(t, g, 3, "AACCCC", 10)
	if err := g.AddLink(1, 2); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if err := g.AddLink(2, 3); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	return g
}

func mustAdd(t *testing.T, g *Graph, n int, seq string, depth float64) {
	t.Helper()
	if err := g.AddSegment(n, seq, depth); err != nil {
		t.Fatalf("AddSegment(%d): %v", n, err)
	}
}

func TestLinksAreSymmetric(t *testing.T) {
	g := buildLinear(t)
	if got := g.Successors(1); len(got) != 1 || got[0] != 2 {
		t.Errorf("Successors(1) = %v, want [2]", got)
	}
	if got := g.Successors(-2); len(got) != 1 || got[0] != -1 {
		t.Errorf("Successors(-2) = %v, want [-1]", got)
	}
	if got := g.Successors(3); len(got) != 0 {
		t.Errorf("Successors(3) = %v, want none", got)
	}
	if err := g.AddLink(1, 2); err != nil {
		t.Fatalf("repeated AddLink: %v", err)
	}
	if g.LinkCount() != 4 {
		t.Errorf("LinkCount = %d, want 4", g.LinkCount())
	}
}

func TestAddLinkUnknownSegment(t *testing.T) {
	g := buildLinear(t)
	err := g.AddLink(1, 9)
	if !errors.Is(err, apperrors.ErrSegmentNotFound) {
		t.Errorf("expected ErrSegmentNotFound, got %v", err)
	}
}

func TestPathLengthAndSequence(t *testing.T) {
	g := buildLinear(t)
	tests := []struct {
		path    []int
		wantLen int
		wantSeq string
	}{
		{nil, 0, ""},
		{[]int{2}, 6, "GGTTAA"},
		{[]int{1, 2, 3}, 14, "AACCGGTTAACCCC"},
		{[]int{-3, -2, -1}, 14, "GGGGTTAACCGGTT"},
	}
	for _, tt := range tests {
		if got := g.PathLength(tt.path); got != tt.wantLen {
			t.Errorf("PathLength(%v) = %d, want %d", tt.path, got, tt.wantLen)
		}
		if got := g.PathSequence(tt.path); got != tt.wantSeq {
			t.Errorf("PathSequence(%v) = %q, want %q", tt.path, got, tt.wantSeq)
		}
		if got := len(g.PathSequence(tt.path)); got != g.PathLength(tt.path) {
			t.Errorf("sequence length %d disagrees with PathLength %d", got, g.PathLength(tt.path))
		}
	}
}

func TestMaxPathSegmentCount(t *testing.T) {
	g := New(0)
	mustAdd(t, g, 1, "ACGT", 10)
	mustAdd(t, g, 2, "ACGT", 2)
	mustAdd(t, g, 3, "ACGT", 31)
	mustAdd(t, g, 4, "ACGT", 0)
	tests := []struct {
		ref   int
		depth float64
		want  int
	}{
		{1, 10, 2},
		{-1, 10, 2},
		{2, 10, 2},
		{3, 10, 6},
		{-3, 10, 6},
		{4, 10, 2},
		{1, 0, 2},
		{99, 10, 0},
	}
	for _, tt := range tests {
		if got := g.MaxPathSegmentCount(tt.ref, tt.depth); got != tt.want {
			t.Errorf("MaxPathSegmentCount(%d, %v) = %d, want %d", tt.ref, tt.depth, got, tt.want)
		}
	}
}

func TestLoadGFA(t *testing.T) {
	gfa := strings.Join([]string{
		"H\tVN:Z:1.0",
		"S\t1\tAACCGG\tDP:f:10.5",
		"S\t2\tGGTTAA\tKC:i:60",
		"S\t3\tAACCCC",
		"L\t1\t+\t2\t+\t2M",
		"L\t2\t+\t3\t+\t2M",
		"L\t3\t-\t3\t-\t2M",
		"",
	}, "\n")
	g, err := LoadGFA(strings.NewReader(gfa))
	if err != nil {
		t.Fatalf("LoadGFA: %v", err)
	}
	if g.Overlap() != 2 {
		t.Errorf("Overlap = %d, want 2", g.Overlap())
	}
	if g.SegmentCount() != 3 {
		t.Errorf("SegmentCount = %d, want 3", g.SegmentCount())
	}
	seg, _ := g.Segment(-1)
	if seg.Depth != 10.5 {
		t.Errorf("segment 1 depth = %v, want 10.5", seg.Depth)
	}
	seg, _ = g.Segment(2)
	if seg.Depth != 10 {
		t.Errorf("segment 2 depth = %v, want 10", seg.Depth)
	}
	seg, _ = g.Segment(3)
	if seg.Depth != 1 {
		t.Errorf("segment 3 default depth = %v, want 1", seg.Depth)
	}
	if got := g.Successors(-3); len(got) != 1 || got[0] != -3 {
		t.Errorf("Successors(-3) = %v, want [-3]", got)
	}
	if got := g.Successors(3); len(got) != 1 || got[0] != 3 {
		t.Errorf("Successors(3) = %v, want [3]", got)
	}
}

func TestLoadGFAErrors(t *testing.T) {
	tests := []struct {
		name string
		gfa  string
	}{
		{"named segment", "S\tcontig_1\tACGT\n"},
		{"missing sequence", "S\t1\t*\n"},
		{"bad orientation", "S\t1\tACGT\nS\t2\tACGT\nL\t1\tx\t2\t+\t0M\n"},
		{"mixed overlaps", "S\t1\tACGT\nS\t2\tACGT\nL\t1\t+\t2\t+\t1M\nL\t2\t+\t1\t+\t2M\n"},
		{"cigar", "S\t1\tACGT\nS\t2\tACGT\nL\t1\t+\t2\t+\t1M1I\n"},
		{"duplicate", "S\t1\tACGT\nS\t1\tACGT\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadGFA(strings.NewReader(tt.gfa))
			if !errors.Is(err, apperrors.ErrGraphFormat) {
				t.Errorf("expected ErrGraphFormat, got %v", err)
			}
		})
	}
}

func TestLoadGFAUnknownLinkTarget(t *testing.T) {
	_, err := LoadGFA(strings.NewReader("S\t1\tACGT\nL\t1\t+\t2\t+\t0M\n"))
	if !errors.Is(err, apperrors.ErrSegmentNotFound) {
		t.Errorf("expected ErrSegmentNotFound, got %v", err)
	}
}
