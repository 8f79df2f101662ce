package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/mapcast/internal/canvas"
	"github.com/dshills/mapcast/internal/logging"
	"github.com/dshills/mapcast/internal/palette"
	"github.com/dshills/mapcast/internal/settings"
	"github.com/dshills/mapcast/internal/storage"
	"github.com/dshills/mapcast/internal/view"
)

func newMapsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "maps",
		Short: "List the maps persisted in the storage directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			if cfg.Storage.Dir == "" {
				return fmt.Errorf("maps needs storage.dir")
			}

			store := storage.New(listFactory,
				storage.WithDir(cfg.Storage.Dir),
				storage.WithCanvasSize(cfg.Engine.CanvasSize, cfg.Engine.CanvasSize),
				storage.WithLogger(logging.Nop()),
			)
			views, err := store.Load()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSIZE\tSCALE\tCENTER\tAUTO")
			for _, v := range views {
				printMap(tw, v)
			}
			return tw.Flush()
		},
	}
}

func printMap(tw *tabwriter.Writer, v *view.View) {
	s := v.Settings()
	fmt.Fprintf(tw, "%s\t%dx%d\t%s\t%d,%d\t%t\n",
		v.ID(), v.Width(), v.Height(), s.Scale.Ratio(), s.CenterX, s.CenterZ, s.AutomaticUpdates)
}

// listFactory builds bare views for listing; nothing is drawn.
func listFactory(id string, width, height int, s settings.Settings) (*view.View, error) {
	c, err := canvas.New(width, height, palette.Default())
	if err != nil {
		return nil, err
	}
	return view.New(id, c, s, view.WithLogger(logging.Nop()))
}
