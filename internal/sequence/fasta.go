package sequence

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Record is one FASTA entry.
type Record struct {
	ID       string
	Sequence string
}

// ReadFASTA parses every record in r. The ID is the header up to the first
// whitespace; sequence lines are joined and upper-cased.
func ReadFASTA(r io.Reader) ([]Record, error) {
	var records []Record
	var seq strings.Builder
	flush := func() {
		if len(records) > 0 {
			records[len(records)-1].Sequence = strings.ToUpper(seq.String())
		}
		seq.Reset()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || strings.HasPrefix(line, ";"):
			continue
		case strings.HasPrefix(line, ">"):
			flush()
			id := strings.TrimPrefix(line, ">")
			if fields := strings.Fields(id); len(fields) > 0 {
				id = fields[0]
			}
			records = append(records, Record{ID: id})
		default:
			if len(records) == 0 {
				return nil, fmt.Errorf("fasta line %d: sequence before first header", lineNum)
			}
			seq.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading fasta: %w", err)
	}
	flush()
	for _, rec := range records {
		if !Valid(rec.Sequence) {
			return nil, fmt.Errorf("fasta record %q: non-nucleotide characters", rec.ID)
		}
	}
	return records, nil
}
