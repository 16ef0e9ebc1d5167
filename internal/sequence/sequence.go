// Package sequence holds small nucleotide helpers shared by the graph,
// the aligner and the path search.
package sequence

import "strings"

var complement = [256]byte{}

func init() {
	for i := range complement {
		complement[i] = 'N'
	}
	pairs := []string{"AT", "CG", "RY", "KM", "BV", "DH", "SS", "WW", "NN"}
	for _, p := range pairs {
		a, b := p[0], p[1]
		complement[a], complement[b] = b, a
		lowerA, lowerB := a+'a'-'A', b+'a'-'A'
		complement[lowerA], complement[lowerB] = lowerB, lowerA
	}
	complement['-'] = '-'
}

// ReverseComplement returns the reverse complement of a DNA sequence.
// Unknown characters become N; IUPAC ambiguity codes and case are kept.
func ReverseComplement(seq string) string {
	n := len(seq)
	var sb strings.Builder
	sb.Grow(n)
	for i := n - 1; i >= 0; i-- {
		sb.WriteByte(complement[seq[i]])
	}
	return sb.String()
}

// Agreement returns how closely two numbers agree, from 0 (opposite signs)
// to 1 (equal).
func Agreement(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 1
	}
	if a < 0 && b < 0 {
		a, b = -a, -b
	}
	if a*b < 0 {
		return 0
	}
	if a > b {
		a, b = b, a
	}
	if b == 0 {
		return 0
	}
	return a / b
}

// Valid reports whether seq holds only nucleotide or IUPAC ambiguity codes,
// in either case.
func Valid(seq string) bool {
	for i := 0; i < len(seq); i++ {
		c := seq[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c == 'N' || (complement[c] != 'N' && c != '-') {
			continue
		}
		return false
	}
	return true
}
