package benchmark

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/align"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/graph"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/pathfind"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/config"
)

func randomSeq(r *rand.Rand, n int) string {
	const bases = "ACGT"
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(bases[r.Intn(4)])
	}
	return sb.String()
}

// mutate applies roughly one substitution every `every` bases.
func mutate(r *rand.Rand, seq string, every int) string {
	b := []byte(seq)
	for i := range b {
		if r.Intn(every) == 0 {
			b[i] = "ACGT"[r.Intn(4)]
		}
	}
	return string(b)
}

// BenchmarkBandedGlobal measures end-to-end alignment of a noisy copy for
// several sequence lengths and band widths.
func BenchmarkBandedGlobal(b *testing.B) {
	r := rand.New(rand.NewSource(1))
	aligner := align.NewBanded()
	ctx := context.Background()
	for _, n := range []int{500, 2000, 8000} {
		for _, band := range []int{50, 500} {
			a := randomSeq(r, n)
			noisy := mutate(r, a, 20)
			b.Run(fmt.Sprintf("len_%d/band_%d", n, band), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, ok := aligner.Global(ctx, a, noisy, align.DefaultScheme, band); !ok {
						b.Fatal("alignment failed")
					}
				}
			})
		}
	}
}

// BenchmarkBandedPath measures prefix alignment against a longer target.
func BenchmarkBandedPath(b *testing.B) {
	r := rand.New(rand.NewSource(2))
	aligner := align.NewBanded()
	ctx := context.Background()
	target := randomSeq(r, 4000)
	prefix := mutate(r, target[:1500], 20)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, ok := aligner.Path(ctx, prefix, target, align.DefaultScheme, 500); !ok {
			b.Fatal("alignment failed")
		}
	}
}

// bubbleChain builds start -> {a,b} -> junction -> ... -> end with the given
// number of bubbles; every bubble doubles the number of paths.
func bubbleChain(b *testing.B, r *rand.Rand, bubbles, segLen int) (*graph.Graph, int, int, string) {
	b.Helper()
	g := graph.New(0)
	next := 1
	add := func() int {
		n := next
		next++
		if err := g.AddSegment(n, randomSeq(r, segLen), 10); err != nil {
			b.Fatalf("AddSegment: %v", err)
		}
		return n
	}
	link := func(from, to int) {
		if err := g.AddLink(from, to); err != nil {
			b.Fatalf("AddLink: %v", err)
		}
	}
	start := add()
	junction := start
	var truth []int
	for i := 0; i < bubbles; i++ {
		left, right, join := add(), add(), add()
		link(junction, left)
		link(junction, right)
		link(left, join)
		link(right, join)
		truth = append(truth, left, join)
		junction = join
	}
	end := truth[len(truth)-1]
	consensus := g.PathSequence(truth[:len(truth)-1])
	return g, start, end, mutate(r, consensus, 25)
}

// BenchmarkBestPaths compares exhaustive enumeration with the progressive
// fallback on the same bubble chain.
func BenchmarkBestPaths(b *testing.B) {
	r := rand.New(rand.NewSource(3))
	ctx := context.Background()
	for _, bubbles := range []int{4, 8} {
		g, start, end, consensus := bubbleChain(b, r, bubbles, 60)
		target := len(consensus)
		q := pathfind.Query{
			Start:               start,
			End:                 end,
			TargetLength:        target,
			Consensus:           consensus,
			Scheme:              align.DefaultScheme,
			ExpectedScaledScore: 70,
		}

		exhaustive := config.DefaultPathFinding()
		progressive := config.DefaultPathFinding()
		progressive.ExhaustiveMaxWorkingPaths = 1
		progressive.ProgressiveMaxWorkingPaths = 8

		for _, tc := range []struct {
			name string
			cfg  config.PathFindingConfig
		}{
			{"exhaustive", exhaustive},
			{"progressive", progressive},
		} {
			finder := pathfind.NewFinder(g, align.NewBanded(), tc.cfg)
			b.Run(fmt.Sprintf("bubbles_%d/%s", bubbles, tc.name), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, _, err := finder.BestPaths(ctx, q); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
