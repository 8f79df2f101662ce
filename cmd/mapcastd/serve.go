package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/mapcast/internal/config"
	"github.com/dshills/mapcast/internal/engine"
	"github.com/dshills/mapcast/internal/logging"
	"github.com/dshills/mapcast/internal/transport"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine and serve viewers over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts, cfg)
		},
	}
	f := cmd.Flags()
	f.String("addr", "", "HTTP listen address")
	f.String("allowed-origins", "", "comma separated websocket/CORS origins")
	f.Duration("tick-interval", 0, "automatic update interval")
	f.Int("rows-per-tick", 0, "rows sent per automatic update")
	f.Int("queue-size", 0, "frames buffered per viewer")
	return cmd
}

func serve(ctx context.Context, opts *globalOptions, cfg config.Config) error {
	log := newLogger(cfg)

	eng, err := engine.New(cfg.EngineConfig(), log)
	if err != nil {
		return err
	}
	defer eng.Close()

	if opts.configPath != "" {
		w := config.NewWatcher(opts.source(), cfg, log)
		w.OnChange(func(old, cur config.Config) { applyLive(eng, log, old, cur) })
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("config watcher stopped: %v", err)
			}
		}()
	}

	srv := transport.NewServer(eng.Hub(), eng, cfg.ServerConfig(), log)
	httpSrv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		log.Info("listening on %s", cfg.Server.Address)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errCh:
		log.Error("serve: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := httpSrv.Shutdown(shutdownCtx); serr != nil {
		log.Warn("http shutdown: %v", serr)
	}
	return err
}

// applyLive applies the settings that can change without a restart.
func applyLive(eng *engine.Engine, log *logging.Logger, old, cur config.Config) {
	if old.Log.Level != cur.Log.Level {
		log.SetLevel(cur.LogLevel())
		log.Info("log level now %s", cur.LogLevel())
	}
	if old.Engine.TickInterval != cur.Engine.TickInterval {
		eng.SetTickInterval(cur.Engine.TickInterval.Std())
	}
	if old.Engine.RowsPerTick != cur.Engine.RowsPerTick {
		eng.SetRowsPerTick(cur.Engine.RowsPerTick)
	}
}
