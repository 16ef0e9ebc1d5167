package graph

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/errors"
)

const maxGFALine = 256 * 1024 * 1024

type gfaLink struct {
	line     int
	from, to int
}

// LoadGFAFile reads a GFA v1 file from disk.
func LoadGFAFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening graph %s: %w", path, err)
	}
	defer f.Close()
	g, err := LoadGFA(f)
	if err != nil {
		return nil, fmt.Errorf("loading graph %s: %w", path, err)
	}
	return g, nil
}

// LoadGFA parses S and L records of a GFA v1 stream. Segment names must be
// positive integers. Depth comes from a DP:f tag, or KC:i divided by the
// segment length, and defaults to 1. Every link must carry the same
// "<n>M" overlap.
func LoadGFA(r io.Reader) (*Graph, error) {
	type rawSegment struct {
		number int
		seq    string
		depth  float64
	}
	var (
		segments []rawSegment
		links    []gfaLink
		overlap  = -1
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxGFALine)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Split(line, "\t")
		switch fields[0] {
		case "S":
			if len(fields) < 3 {
				return nil, formatErr(lineNo, "segment record needs name and sequence")
			}
			number, err := strconv.Atoi(fields[1])
			if err != nil || number <= 0 {
				return nil, formatErr(lineNo, "segment name %q is not a positive integer", fields[1])
			}
			seq := fields[2]
			if seq == "*" || seq == "" {
				return nil, formatErr(lineNo, "segment %d has no sequence", number)
			}
			segments = append(segments, rawSegment{
				number: number,
				seq:    seq,
				depth:  parseDepth(fields[3:], len(seq)),
			})
		case "L":
			if len(fields) < 6 {
				return nil, formatErr(lineNo, "link record needs six fields")
			}
			from, err := signedRef(fields[1], fields[2])
			if err != nil {
				return nil, formatErr(lineNo, "%v", err)
			}
			to, err := signedRef(fields[3], fields[4])
			if err != nil {
				return nil, formatErr(lineNo, "%v", err)
			}
			linkOverlap, err := parseOverlap(fields[5])
			if err != nil {
				return nil, formatErr(lineNo, "%v", err)
			}
			if overlap >= 0 && linkOverlap != overlap {
				return nil, formatErr(lineNo, "overlap %d differs from %d used by earlier links", linkOverlap, overlap)
			}
			overlap = linkOverlap
			links = append(links, gfaLink{line: lineNo, from: from, to: to})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading gfa: %w", err)
	}

	g := New(max(overlap, 0))
	for _, s := range segments {
		if err := g.AddSegment(s.number, s.seq, s.depth); err != nil {
			return nil, err
		}
	}
	for _, l := range links {
		if err := g.AddLink(l.from, l.to); err != nil {
			return nil, fmt.Errorf("line %d: %w", l.line, err)
		}
	}
	return g, nil
}

func signedRef(name, orientation string) (int, error) {
	number, err := strconv.Atoi(name)
	if err != nil || number <= 0 {
		return 0, fmt.Errorf("segment name %q is not a positive integer", name)
	}
	switch orientation {
	case "+":
		return number, nil
	case "-":
		return -number, nil
	}
	return 0, fmt.Errorf("orientation %q is not + or -", orientation)
}

func parseOverlap(cigar string) (int, error) {
	if cigar == "*" {
		return 0, nil
	}
	if !strings.HasSuffix(cigar, "M") {
		return 0, fmt.Errorf("overlap %q is not a plain match CIGAR", cigar)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(cigar, "M"))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("overlap %q is not a plain match CIGAR", cigar)
	}
	return n, nil
}

func parseDepth(tags []string, length int) float64 {
	for _, tag := range tags {
		switch {
		case strings.HasPrefix(tag, "DP:f:"), strings.HasPrefix(tag, "dp:f:"):
			if v, err := strconv.ParseFloat(tag[5:], 64); err == nil {
				return v
			}
		case strings.HasPrefix(tag, "KC:i:"):
			if v, err := strconv.ParseFloat(tag[5:], 64); err == nil && length > 0 {
				return v / float64(length)
			}
		}
	}
	return 1.0
}

func formatErr(line int, format string, args ...any) error {
	return fmt.Errorf("line %d: %s: %w", line, fmt.Sprintf(format, args...), apperrors.ErrGraphFormat)
}
