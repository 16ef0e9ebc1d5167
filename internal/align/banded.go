package align

import (
	"context"
	"math"
)

const negInf = math.MinInt / 4

// Banded is an affine-gap dynamic-programming aligner restricted to cells
// within band of the main diagonal. It keeps two rows per matrix, so memory
// is linear in the length of b.
type Banded struct{}

// NewBanded returns the in-process oracle.
func NewBanded() *Banded {
	return &Banded{}
}

func (Banded) Global(ctx context.Context, a, b string, scheme Scheme, band int) (Result, bool) {
	return align(ctx, a, b, scheme, band, ModeGlobal)
}

func (Banded) Path(ctx context.Context, a, b string, scheme Scheme, band int) (Result, bool) {
	return align(ctx, a, b, scheme, band, ModePath)
}

type dpRow struct {
	m, x, y []int
	lo, hi  int
}

func newRow(width int) *dpRow {
	return &dpRow{m: make([]int, width), x: make([]int, width), y: make([]int, width)}
}

func (r *dpRow) at(j int) (m, x, y int) {
	if j < r.lo || j > r.hi {
		return negInf, negInf, negInf
	}
	return r.m[j], r.x[j], r.y[j]
}

func align(ctx context.Context, a, b string, scheme Scheme, band int, mode Mode) (Result, bool) {
	if ctx.Err() != nil {
		return Result{}, false
	}
	n, m := len(a), len(b)
	if n == 0 || m == 0 || band < 0 {
		return Result{}, false
	}
	switch mode {
	case ModeGlobal:
		if abs(n-m) > band {
			return Result{}, false
		}
	case ModePath:
		if n-band > m {
			return Result{}, false
		}
	}

	prev, cur := newRow(m+1), newRow(m+1)
	prev.lo, prev.hi = 0, min(m, band)
	prev.m[0], prev.x[0], prev.y[0] = 0, negInf, negInf
	for j := 1; j <= prev.hi; j++ {
		prev.m[j], prev.x[j] = negInf, negInf
		prev.y[j] = scheme.GapOpen + (j-1)*scheme.GapExtend
	}

	for i := 1; i <= n; i++ {
		if i%512 == 0 && ctx.Err() != nil {
			return Result{}, false
		}
		cur.lo, cur.hi = max(0, i-band), min(m, i+band)
		ai := upper(a[i-1])
		for j := cur.lo; j <= cur.hi; j++ {
			mv, xv, yv := negInf, negInf, negInf
			if j > 0 {
				pm, px, py := prev.at(j - 1)
				if best := max3(pm, px, py); best > negInf {
					if ai == upper(b[j-1]) {
						mv = best + scheme.Match
					} else {
						mv = best + scheme.Mismatch
					}
				}
			}
			if pm, px, py := prev.at(j); max3(pm, px, py) > negInf {
				xv = max3(pm+scheme.GapOpen, py+scheme.GapOpen, px+scheme.GapExtend)
			}
			if j > cur.lo {
				cm, cx, cy := cur.m[j-1], cur.x[j-1], cur.y[j-1]
				if max3(cm, cx, cy) > negInf {
					yv = max3(cm+scheme.GapOpen, cx+scheme.GapOpen, cy+scheme.GapExtend)
				}
			}
			cur.m[j], cur.x[j], cur.y[j] = clamp(mv), clamp(xv), clamp(yv)
		}
		prev, cur = cur, prev
	}

	score, end := negInf, -1
	switch mode {
	case ModeGlobal:
		pm, px, py := prev.at(m)
		score, end = max3(pm, px, py), m
	case ModePath:
		for j := prev.lo; j <= prev.hi; j++ {
			if s := max3(prev.m[j], prev.x[j], prev.y[j]); s > score {
				score, end = s, j
			}
		}
	}
	if score <= negInf || end <= 0 {
		return Result{}, false
	}
	return Result{
		RawScore:    score,
		ScaledScore: scaled(score, scheme, max(n, end)),
		SeqBEnd:     end,
	}, true
}

func scaled(raw int, scheme Scheme, length int) float64 {
	if scheme.Match <= 0 || length <= 0 || raw <= 0 {
		return 0
	}
	return math.Min(100, 100*float64(raw)/float64(scheme.Match*length))
}

func clamp(v int) int {
	if v < negInf {
		return negInf
	}
	return v
}

func max3(a, b, c int) int {
	return max(a, max(b, c))
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
