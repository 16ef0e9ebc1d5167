package main

import (
	"fmt"
	"os"

	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/graph"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/logger"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "pathfind",
		Short:         "Resolve repeats in an assembly graph",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetupWriter(os.Stderr, opts.logLevel, "text")
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newResolveCmd(opts), newInfoCmd())
	return root
}

func newInfoCmd() *cobra.Command {
	var listSegments bool
	cmd := &cobra.Command{
		Use:   "info GRAPH.gfa",
		Short: "Print segment, link and overlap counts for a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graph.LoadGFAFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "segments\t%d\nlinks\t%d\noverlap\t%d\n",
				g.SegmentCount(), g.LinkCount(), g.Overlap())
			if !listSegments {
				return nil
			}
			fmt.Fprintln(out, "\nsegment\tlength\tdepth")
			for _, n := range g.Numbers() {
				seg, _ := g.Segment(n)
				fmt.Fprintf(out, "%d\t%d\t%.2f\n", n, seg.Length(), seg.Depth)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&listSegments, "segments", false, "also list every segment with its length and depth")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
