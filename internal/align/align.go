// Package align is the alignment oracle used to score candidate paths
// against a consensus read sequence.
//
// The path search only depends on the Aligner interface. Banded is the
// in-process implementation; Cached and Instrumented decorate any Aligner
// with a Redis-backed result cache and Prometheus counters.
package align

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Scheme is the affine scoring scheme handed to the oracle. The first base
// of a gap scores GapOpen, every further base GapExtend.
type Scheme struct {
	Match     int `json:"match"`
	Mismatch  int `json:"mismatch"`
	GapOpen   int `json:"gap_open"`
	GapExtend int `json:"gap_extend"`
}

// DefaultScheme mirrors long-read defaults: 3,-6,-5,-2.
var DefaultScheme = Scheme{Match: 3, Mismatch: -6, GapOpen: -5, GapExtend: -2}

// ParseScheme reads "match,mismatch,gapOpen,gapExtend".
func ParseScheme(s string) (Scheme, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 4 {
		return Scheme{}, fmt.Errorf("scoring scheme %q: want match,mismatch,gapOpen,gapExtend", s)
	}
	values := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Scheme{}, fmt.Errorf("scoring scheme %q: %w", s, err)
		}
		values[i] = v
	}
	scheme := Scheme{Match: values[0], Mismatch: values[1], GapOpen: values[2], GapExtend: values[3]}
	if scheme.Match <= 0 {
		return Scheme{}, fmt.Errorf("scoring scheme %q: match score must be positive", s)
	}
	if scheme.Mismatch > 0 || scheme.GapOpen > 0 || scheme.GapExtend > 0 {
		return Scheme{}, fmt.Errorf("scoring scheme %q: penalties must not be positive", s)
	}
	return scheme, nil
}

func (s Scheme) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", s.Match, s.Mismatch, s.GapOpen, s.GapExtend)
}

// Result is one alignment outcome.
type Result struct {
	RawScore int `json:"raw_score"`
	// ScaledScore is the raw score as a percentage of a perfect alignment of
	// the same length, so it can be compared across candidates.
	ScaledScore float64 `json:"scaled_score"`
	// SeqBEnd is how many bases of the second sequence the alignment used.
	SeqBEnd int `json:"seq_b_end"`
}

// Aligner scores one sequence against another. A false return means no
// valid alignment exists within the band; callers treat it as a final
// verdict for that pair.
type Aligner interface {
	// Global aligns a and b end to end.
	Global(ctx context.Context, a, b string, scheme Scheme, band int) (Result, bool)
	// Path aligns all of a against a prefix of b, leaving the tail of b
	// free, and reports where in b the alignment ended.
	Path(ctx context.Context, a, b string, scheme Scheme, band int) (Result, bool)
}

// Mode names the two alignment flavours for keys and metric labels.
type Mode string

const (
	ModeGlobal Mode = "global"
	ModePath   Mode = "path"
)
