package sequence

import (
	"strings"
	"testing"
)

func TestReadFASTA(t *testing.T) {
	in := `; comment
>consensus_1 len=12
acgtac
GTACGT

>second
NNACGT
`
	records, err := ReadFASTA(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadFASTA: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "consensus_1" || records[0].Sequence != "ACGTACGTACGT" {
		t.Errorf("record 0 = %+v", records[0])
	}
	if records[1].ID != "second" || records[1].Sequence != "NNACGT" {
		t.Errorf("record 1 = %+v", records[1])
	}
}

func TestReadFASTAErrors(t *testing.T) {
	for _, in := range []string{"ACGT\n>late\nACGT\n", ">bad\nACXGT\n"} {
		if _, err := ReadFASTA(strings.NewReader(in)); err == nil {
			t.Errorf("ReadFASTA(%q): expected error", in)
		}
	}
}
