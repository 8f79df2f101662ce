package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/mapcast/internal/engine"
	"github.com/dshills/mapcast/internal/logging"
	"github.com/dshills/mapcast/internal/palette"
	"github.com/dshills/mapcast/internal/transport"
)

// DefaultAddress is the default HTTP listen address.
const DefaultAddress = ":8080"

// Config is the daemon configuration.
type Config struct {
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Engine    EngineConfig    `toml:"engine" yaml:"engine"`
	Storage   StorageConfig   `toml:"storage" yaml:"storage"`
	Transport TransportConfig `toml:"transport" yaml:"transport"`
	Log       LogConfig       `toml:"log" yaml:"log"`
	Scripts   ScriptsConfig   `toml:"scripts" yaml:"scripts"`
}

// ServerConfig holds the [server] section.
type ServerConfig struct {
	Address        string   `toml:"address" yaml:"address"`
	AllowedOrigins []string `toml:"allowed_origins" yaml:"allowed_origins"`
}

// EngineConfig holds the [engine] section.
type EngineConfig struct {
	TickInterval Duration `toml:"tick_interval" yaml:"tick_interval"`
	RowsPerTick  int      `toml:"rows_per_tick" yaml:"rows_per_tick"`
	CanvasSize   int      `toml:"canvas_size" yaml:"canvas_size"`
	Matcher      string   `toml:"matcher" yaml:"matcher"`
	DefaultFill  string   `toml:"default_fill" yaml:"default_fill"`
}

// StorageConfig holds the [storage] section.
type StorageConfig struct {
	// Dir persists map settings. Empty keeps maps in memory only.
	Dir string `toml:"dir" yaml:"dir"`
}

// TransportConfig holds the [transport] section.
type TransportConfig struct {
	SendQueueSize int      `toml:"send_queue_size" yaml:"send_queue_size"`
	WriteTimeout  Duration `toml:"write_timeout" yaml:"write_timeout"`
}

// LogConfig holds the [log] section.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// ScriptsConfig holds the [scripts] section.
type ScriptsConfig struct {
	Dir              string `toml:"dir" yaml:"dir"`
	InstructionLimit int64  `toml:"instruction_limit" yaml:"instruction_limit"`
}

// Default returns the built-in defaults.
func Default() Config {
	ec := engine.DefaultConfig()
	sc := transport.DefaultServerConfig()
	return Config{
		Server: ServerConfig{
			Address:        DefaultAddress,
			AllowedOrigins: sc.AllowedOrigins,
		},
		Engine: EngineConfig{
			TickInterval: Duration(ec.TickInterval),
			RowsPerTick:  ec.RowsPerTick,
			CanvasSize:   ec.CanvasSize,
			Matcher:      ec.Matcher,
			DefaultFill:  ec.DefaultFill,
		},
		Transport: TransportConfig{
			SendQueueSize: ec.SendQueueSize,
			WriteTimeout:  Duration(sc.WriteTimeout),
		},
		Log: LogConfig{Level: "info"},
		Scripts: ScriptsConfig{
			InstructionLimit: ec.InstructionLimit,
		},
	}
}

// Validate checks every setting.
func (c Config) Validate() error {
	switch {
	case c.Server.Address == "":
		return invalid("server.address", c.Server.Address, "must not be empty")
	case c.Engine.TickInterval <= 0:
		return invalid("engine.tick_interval", c.Engine.TickInterval.String(), "must be positive")
	case c.Engine.RowsPerTick <= 0:
		return invalid("engine.rows_per_tick", fmt.Sprint(c.Engine.RowsPerTick), "must be positive")
	case c.Engine.CanvasSize <= 0 || c.Engine.CanvasSize > 1<<12:
		return invalid("engine.canvas_size", fmt.Sprint(c.Engine.CanvasSize), "must be in 1..4096")
	case c.Transport.SendQueueSize <= 0:
		return invalid("transport.send_queue_size", fmt.Sprint(c.Transport.SendQueueSize), "must be positive")
	case c.Transport.WriteTimeout <= 0:
		return invalid("transport.write_timeout", c.Transport.WriteTimeout.String(), "must be positive")
	case c.Scripts.InstructionLimit < 0:
		return invalid("scripts.instruction_limit", fmt.Sprint(c.Scripts.InstructionLimit), "must not be negative")
	}

	switch strings.ToLower(c.Engine.Matcher) {
	case palette.MatchEuclidean, palette.MatchShaded, palette.MatchLab:
	default:
		return invalid("engine.matcher", c.Engine.Matcher, "want euclidean, shaded or lab")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("log.level", c.Log.Level, "want debug, info, warn or error")
	}
	return nil
}

func invalid(key, value, msg string) error {
	return &KeyError{Key: key, Value: value, Err: fmt.Errorf("%w: %s", ErrInvalidValue, msg)}
}

// EngineConfig converts the settings into an engine configuration.
func (c Config) EngineConfig() engine.Config {
	ec := engine.DefaultConfig()
	ec.TickInterval = c.Engine.TickInterval.Std()
	ec.RowsPerTick = c.Engine.RowsPerTick
	ec.CanvasSize = c.Engine.CanvasSize
	ec.Matcher = c.Engine.Matcher
	ec.DefaultFill = c.Engine.DefaultFill
	ec.StorageDir = c.Storage.Dir
	ec.SendQueueSize = c.Transport.SendQueueSize
	ec.ScriptsDir = c.Scripts.Dir
	if c.Scripts.InstructionLimit > 0 {
		ec.InstructionLimit = c.Scripts.InstructionLimit
	}
	return ec
}

// ServerConfig converts the settings into an HTTP server configuration.
func (c Config) ServerConfig() transport.ServerConfig {
	sc := transport.DefaultServerConfig()
	sc.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	sc.WriteTimeout = c.Transport.WriteTimeout.Std()
	return sc
}

// LogLevel returns the parsed log level.
func (c Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}

// Duration is a time.Duration read from text such as "50ms".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String returns the duration text.
func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	*d = Duration(v)
	return nil
}
