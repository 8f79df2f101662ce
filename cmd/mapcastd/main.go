// Package main is the entry point for the mapcastd map engine daemon.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	root := &cobra.Command{
		Use:   "mapcastd",
		Short: "Map rendering and sync engine",
		Long: `mapcastd hosts map views: fixed-size palette canvases drawn by a
renderer pipeline and streamed to connected viewers over websockets.`,
		SilenceUsage: true,
	}
	opts.bind(root)

	root.AddCommand(
		newServeCmd(&opts),
		newRenderCmd(&opts),
		newMapsCmd(&opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mapcastd %s\n", version)
			fmt.Fprintf(out, "Commit: %s\n", commit)
			fmt.Fprintf(out, "Built: %s\n", date)
		},
	}
}
