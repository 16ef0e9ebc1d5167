package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/resolver"
)

const bubbleGFA = "H\tVN:Z:1.0\n" +
	"S\t1\tACACACACAC\tDP:f:10\n" +
	"S\t2\tGTGTGTGTGTGTGTGTGTGT\tDP:f:10\n" +
	"S\t3\tCACACACACA\tDP:f:10\n" +
	"S\t4\tTTGTTGTTGTTGTTGTTGTTGTTGA\tDP:f:10\n" +
	"L\t1\t+\t2\t+\t0M\n" +
	"L\t2\t+\t3\t+\t0M\n" +
	"L\t1\t+\t4\t+\t0M\n" +
	"L\t4\t+\t3\t+\t0M\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveJSON(t *testing.T) {
	gfa := writeFile(t, "bubble.gfa", bubbleGFA)
	out, err := run(t, "resolve", gfa, "--start", "1", "--end", "3", "--target", "20", "--json")
	if err != nil {
		t.Fatalf("resolve: %v\n%s", err, out)
	}
	var resp resolver.Response
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if !resp.Resolved || resp.Candidates[0].Path.Key() != "2" {
		t.Errorf("response = %+v", resp)
	}
}

func TestResolveTable(t *testing.T) {
	gfa := writeFile(t, "bubble.gfa", bubbleGFA)
	out, err := run(t, "resolve", gfa, "--start", "1", "--end", "3", "--target", "20")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, want := range []string{"PATH", "[2]", "[4]", "2 candidate(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestResolveWithConsensusFASTA(t *testing.T) {
	gfa := writeFile(t, "bubble.gfa", bubbleGFA)
	fasta := writeFile(t, "bridge.fa", ">bridge\nGTGTGTGTGT\nGTGTGTGTGT\n")
	out, err := run(t, "resolve", gfa, "--start", "1", "--end", "3", "--target", "20",
		"--consensus-fasta", fasta, "--json")
	if err != nil {
		t.Fatalf("resolve: %v\n%s", err, out)
	}
	var resp resolver.Response
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Path.Key() != "2" {
		t.Errorf("candidates = %+v, want [2] first", resp.Candidates)
	}
}

func TestResolveMissingFlags(t *testing.T) {
	gfa := writeFile(t, "bubble.gfa", bubbleGFA)
	if _, err := run(t, "resolve", gfa, "--start", "1"); err == nil {
		t.Error("expected required-flag error")
	}
}

func TestInfo(t *testing.T) {
	gfa := writeFile(t, "bubble.gfa", bubbleGFA)
	out, err := run(t, "info", gfa)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if !strings.Contains(out, "segments\t4") || !strings.Contains(out, "overlap\t0") {
		t.Errorf("info output = %q", out)
	}
}

func TestInfoListsSegments(t *testing.T) {
	gfa := writeFile(t, "bubble.gfa", bubbleGFA)
	out, err := run(t, "info", gfa, "--segments")
	if err != nil {
		t.Fatalf("info --segments: %v", err)
	}
	for _, want := range []string{"1\t10\t10.00\n", "2\t20\t10.00\n", "4\t25\t10.00\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("info --segments output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "2\t20\t") > strings.Index(out, "3\t10\t") {
		t.Errorf("segments not in ascending order:\n%s", out)
	}
}
