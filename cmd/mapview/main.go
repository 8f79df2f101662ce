// Package main is mapview, a terminal viewer for mapcastd maps.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/mapcast/internal/client"
	"github.com/dshills/mapcast/internal/logging"
	"github.com/dshills/mapcast/internal/protocol"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:          "mapview <map-id>",
		Short:        "Watch a mapcastd map in the terminal",
		Long:         "Keys: r requests a full resync, q or Esc quits.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return view(ctx, wsURL(server, args[0]))
		},
	}
	cmd.Flags().StringVarP(&server, "server", "s", "ws://localhost:8080", "mapcastd base URL")
	return cmd
}

// wsURL builds the websocket endpoint of a map from a base URL.
func wsURL(base, mapID string) string {
	base = strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case !strings.Contains(base, "://"):
		base = "ws://" + base
	}
	return base + "/ws/" + mapID
}

// redrawEvent wakes the event loop after a frame was applied.
type redrawEvent struct {
	tcell.EventTime
	err error
}

func view(ctx context.Context, url string) error {
	log := logging.Nop()
	conn, err := client.Dial(ctx, url, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	screen, err := client.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Shutdown()

	m := conn.Mirror()
	post := func(err error) {
		ev := &redrawEvent{err: err}
		ev.SetEventNow()
		screen.PostEvent(ev)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		err := conn.Run(runCtx, func(protocol.Type) { post(nil) })
		if err == nil {
			err = errors.New("connection closed")
		}
		post(err)
	}()

	for {
		switch ev := screen.PollEvent().(type) {
		case *redrawEvent:
			if ev.err != nil {
				if errors.Is(ev.err, context.Canceled) {
					return nil
				}
				return ev.err
			}
			w, h := m.Size()
			st := m.Stats()
			screen.SetStatus(" %s %dx%d  updates %d  full %d  palette v%d  r:resync q:quit ",
				m.ViewID(), w, h, st.Updates, st.FullUpdates, m.PaletteVersion())
			screen.Draw(m)
		case *tcell.EventResize:
			screen.Draw(m)
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC, ev.Rune() == 'q':
				return nil
			case ev.Rune() == 'r':
				if err := conn.Resync(); err != nil {
					return err
				}
			}
		case nil:
			return nil
		}
	}
}
