package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/mapcast/internal/engine"
)

func newRenderCmd(opts *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "render <map-id>",
		Short: "Redraw a stored map and write it as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			if cfg.Storage.Dir == "" {
				return fmt.Errorf("render needs storage.dir")
			}
			eng, err := engine.New(cfg.EngineConfig(), newLogger(cfg))
			if err != nil {
				return err
			}
			defer eng.Close()

			v, ok := eng.GetMap(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", engine.ErrUnknownMap, args[0])
			}
			failures, err := v.Redraw()
			if err != nil {
				return err
			}
			for _, f := range failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", f)
			}
			img, err := v.Image()
			if err != nil {
				return err
			}

			if output == "" {
				output = args[0] + ".png"
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := png.Encode(f, img); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d)\n", output, img.Bounds().Dx(), img.Bounds().Dy())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG file (default <map-id>.png)")
	return cmd
}
