package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dshills/mapcast/internal/config"
	"github.com/dshills/mapcast/internal/logging"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	envFile    string
}

func (o *globalOptions) bind(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "configuration file (.toml, .yaml)")
	pf.StringVar(&o.envFile, "env-file", ".env", "dotenv file with MAPCAST_* variables")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("storage-dir", "", "directory for persisted map settings")
	pf.String("scripts-dir", "", "directory of *.lua renderers")
	pf.Int("canvas-size", 0, "canvas width and height in pixels")
	pf.String("matcher", "", "color matcher (euclidean, shaded, lab)")
	pf.String("default-fill", "", "default renderer fill: palette name, #rrggbb or none")
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"log-level":       "log.level",
	"storage-dir":     "storage.dir",
	"scripts-dir":     "scripts.dir",
	"canvas-size":     "engine.canvas_size",
	"matcher":         "engine.matcher",
	"default-fill":    "engine.default_fill",
	"addr":            "server.address",
	"allowed-origins": "server.allowed_origins",
	"tick-interval":   "engine.tick_interval",
	"rows-per-tick":   "engine.rows_per_tick",
	"queue-size":      "transport.send_queue_size",
}

// loadConfig loads every configuration layer and applies the flags the
// user set on top.
func (o *globalOptions) loadConfig(flags *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(o.source())
	if err != nil {
		return config.Config{}, err
	}
	if err := applyFlags(&cfg, flags); err != nil {
		return config.Config{}, err
	}
	return cfg, cfg.Validate()
}

func (o *globalOptions) source() config.Source {
	return config.Source{File: o.configPath, EnvFile: o.envFile}
}

func applyFlags(cfg *config.Config, flags *pflag.FlagSet) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = cfg.Set(key, f.Value.String())
	})
	return err
}

func newLogger(cfg config.Config) *logging.Logger {
	lc := logging.DefaultConfig()
	lc.Level = cfg.LogLevel()
	log := logging.New(lc)
	logging.SetDefault(log)
	return log
}
