package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/align"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/graph"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/resolver"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/sequence"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

type resolveOptions struct {
	req            resolver.Request
	consensusFASTA string
	record         string
	jsonOutput     bool
}

func newResolveCmd(global *globalOptions) *cobra.Command {
	opts := &resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve GRAPH.gfa",
		Short: "Find the best paths between two anchor segments",
		Example: `  pathfind resolve asm.gfa --start 12 --end -7 --target 4200
  pathfind resolve asm.gfa --start 12 --end -7 --target 4200 --consensus-fasta bridge.fa --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global.configPath)
			if err != nil {
				return err
			}
			g, err := graph.LoadGFAFile(args[0])
			if err != nil {
				return err
			}
			if opts.consensusFASTA != "" {
				seq, err := readConsensus(opts.consensusFASTA, opts.record)
				if err != nil {
					return err
				}
				opts.req.Consensus = seq
			}
			svc, err := resolver.NewService(g, align.NewBanded(), cfg, nil)
			if err != nil {
				return err
			}
			resp, err := svc.Resolve(cmd.Context(), opts.req)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			printTable(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.req.StartSegment, "start", 0, "start anchor (signed segment number)")
	f.IntVar(&opts.req.EndSegment, "end", 0, "end anchor (signed segment number)")
	f.IntVar(&opts.req.TargetLength, "target", 0, "target path length in bases")
	f.StringVar(&opts.req.Consensus, "consensus", "", "consensus sequence spanning the gap")
	f.StringVar(&opts.consensusFASTA, "consensus-fasta", "", "read the consensus from a FASTA file")
	f.StringVar(&opts.record, "record", "", "FASTA record ID to use (default: first record)")
	f.StringVar(&opts.req.ScoringScheme, "scheme", "", "scoring scheme match,mismatch,gapOpen,gapExtend")
	f.Float64Var(&opts.req.ExpectedScaledScore, "expected", 0, "expected scaled score of a correct path")
	f.BoolVar(&opts.jsonOutput, "json", false, "print the response as JSON")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	cmd.MarkFlagRequired("target")
	cmd.MarkFlagsMutuallyExclusive("consensus", "consensus-fasta")
	return cmd
}

func readConsensus(path, id string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening consensus: %w", err)
	}
	defer file.Close()
	records, err := sequence.ReadFASTA(file)
	if err != nil {
		return "", err
	}
	for _, rec := range records {
		if id == "" || rec.ID == id {
			return rec.Sequence, nil
		}
	}
	if id == "" {
		return "", fmt.Errorf("%s holds no FASTA records", path)
	}
	return "", fmt.Errorf("record %q not found in %s", id, path)
}

func printTable(w io.Writer, resp *resolver.Response) {
	if !resp.Resolved {
		fmt.Fprintf(w, "unresolved (%s search, %d ms)\n", resp.Strategy, resp.LatencyMs)
		return
	}
	header := lipgloss.NewStyle().Bold(true)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "PATH", "LENGTH", "RAW", "SCALED", "LENGTH DIFF").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for i, c := range resp.Candidates {
		t.Row(
			strconv.Itoa(i+1),
			c.Path.String(),
			strconv.Itoa(c.Length),
			strconv.FormatFloat(c.RawScore, 'f', 1, 64),
			strconv.FormatFloat(c.ScaledScore, 'f', 2, 64),
			strconv.Itoa(c.LengthDiscrepancy),
		)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d candidate(s), %s search, %d ms\n", len(resp.Candidates), resp.Strategy, resp.LatencyMs)
}
