package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/dshills/mapcast/internal/logging"
	"github.com/dshills/mapcast/internal/maperr"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Engine.TickInterval.Std() != 50*time.Millisecond {
		t.Errorf("tick interval = %s", cfg.Engine.TickInterval)
	}
	if cfg.Engine.DefaultFill != "GRASS" || cfg.Engine.CanvasSize != 128 {
		t.Errorf("engine = %+v", cfg.Engine)
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mapcast.toml", `
[server]
address = "127.0.0.1:9000"
allowed_origins = ["https://maps.example"]

[engine]
tick_interval = "20ms"
rows_per_tick = 4
matcher = "lab"

[storage]
dir = "/var/lib/mapcast"
`)

	cfg, err := Load(Source{File: path, LookupEnv: noEnv})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != "127.0.0.1:9000" {
		t.Errorf("address = %q", cfg.Server.Address)
	}
	if !slices.Equal(cfg.Server.AllowedOrigins, []string{"https://maps.example"}) {
		t.Errorf("origins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Engine.TickInterval.Std() != 20*time.Millisecond || cfg.Engine.RowsPerTick != 4 {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Engine.CanvasSize != 128 {
		t.Errorf("unset canvas_size = %d, want default", cfg.Engine.CanvasSize)
	}

	ec := cfg.EngineConfig()
	if ec.StorageDir != "/var/lib/mapcast" || ec.Matcher != "lab" || ec.TickInterval != 20*time.Millisecond {
		t.Errorf("EngineConfig() = %+v", ec)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mapcast.yaml", `
engine:
  canvas_size: 64
  default_fill: "#4040ff"
transport:
  write_timeout: 3s
log:
  level: debug
`)

	cfg, err := Load(Source{File: path, LookupEnv: noEnv})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.CanvasSize != 64 || cfg.Engine.DefaultFill != "#4040ff" {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.ServerConfig().WriteTimeout != 3*time.Second {
		t.Errorf("write timeout = %s", cfg.ServerConfig().WriteTimeout)
	}
	if cfg.LogLevel() != logging.LevelDebug {
		t.Errorf("log level = %v", cfg.LogLevel())
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(Source{File: filepath.Join(t.TempDir(), "none.toml"), LookupEnv: noEnv})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != DefaultAddress {
		t.Errorf("address = %q", cfg.Server.Address)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
		want    error
	}{
		{"unknown toml key", "a.toml", "[engine]\ncolour = 3\n", nil},
		{"bad toml", "b.toml", "[engine\n", nil},
		{"unknown yaml key", "c.yaml", "engine:\n  colour: 3\n", nil},
		{"bad duration", "d.toml", "[engine]\ntick_interval = \"soon\"\n", nil},
		{"bad format", "e.ini", "x=1", ErrUnsupportedFormat},
		{"invalid value", "f.toml", "[engine]\nrows_per_tick = 0\n", ErrInvalidValue},
		{"bad matcher", "g.yaml", "engine:\n  matcher: psychic\n", maperr.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			_, err := Load(Source{File: path, LookupEnv: noEnv})
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.toml", "[server]\naddress = \n")
	_, err := LoadFile(path, Default())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("LoadFile() error = %v, want ParseError", err)
	}
	if pe.Line < 1 || pe.Path != path {
		t.Errorf("ParseError = %+v", pe)
	}
}

func TestLayerPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "mapcast.toml", `
[engine]
rows_per_tick = 4
canvas_size = 64
matcher = "shaded"
`)
	envFile := writeFile(t, dir, ".env", `
MAPCAST_ENGINE_CANVAS_SIZE=32
MAPCAST_ENGINE_MATCHER=lab
`)
	env := envMap(map[string]string{
		"MAPCAST_ENGINE_MATCHER":        "euclidean",
		"MAPCAST_SERVER_ALLOWED_ORIGINS": "https://a.example, https://b.example",
	})

	cfg, err := Load(Source{File: file, EnvFile: envFile, LookupEnv: env})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.RowsPerTick != 4 {
		t.Errorf("rows_per_tick = %d, want file value 4", cfg.Engine.RowsPerTick)
	}
	if cfg.Engine.CanvasSize != 32 {
		t.Errorf("canvas_size = %d, want .env value 32", cfg.Engine.CanvasSize)
	}
	if cfg.Engine.Matcher != "euclidean" {
		t.Errorf("matcher = %q, want environment value", cfg.Engine.Matcher)
	}
	if want := []string{"https://a.example", "https://b.example"}; !slices.Equal(cfg.Server.AllowedOrigins, want) {
		t.Errorf("origins = %v, want %v", cfg.Server.AllowedOrigins, want)
	}

	if err := cfg.Set("engine.rows_per_tick", "8"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if cfg.Engine.RowsPerTick != 8 {
		t.Errorf("rows_per_tick = %d after Set", cfg.Engine.RowsPerTick)
	}
}

func TestBadEnvValue(t *testing.T) {
	_, err := Load(Source{LookupEnv: envMap(map[string]string{"MAPCAST_ENGINE_ROWS_PER_TICK": "many"})})
	var ke *KeyError
	if !errors.As(err, &ke) {
		t.Fatalf("Load() error = %v, want KeyError", err)
	}
	if ke.Key != "engine.rows_per_tick" || ke.Source != "environment" {
		t.Errorf("KeyError = %+v", ke)
	}
}

func TestSet(t *testing.T) {
	cfg := Default()
	if err := cfg.Set("nope.key", "1"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Set(unknown) error = %v", err)
	}
	if err := cfg.Set("scripts.instruction_limit", "42"); err != nil || cfg.Scripts.InstructionLimit != 42 {
		t.Errorf("Set(instruction_limit) = %v, limit %d", err, cfg.Scripts.InstructionLimit)
	}
	if err := cfg.Set("LOG.LEVEL", "WARN"); err != nil || cfg.Log.Level != "warn" {
		t.Errorf("Set(log.level) = %v, level %q", err, cfg.Log.Level)
	}
	for _, key := range Keys() {
		if EnvName(DefaultEnvPrefix, key) == "" {
			t.Errorf("EnvName(%q) empty", key)
		}
	}
	if got := EnvName("MAPCAST_", "transport.send_queue_size"); got != "MAPCAST_TRANSPORT_SEND_QUEUE_SIZE" {
		t.Errorf("EnvName() = %q", got)
	}
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mapcast.toml", "[engine]\ntick_interval = \"50ms\"\n")
	src := Source{File: path, LookupEnv: noEnv}

	cfg, err := Load(src)
	if err != nil {
		t.Fatal(err)
	}
	w := NewWatcher(src, cfg, logging.Nop())
	w.SetDebounce(10 * time.Millisecond)

	changes := make(chan Config, 4)
	w.OnChange(func(_, cur Config) { changes <- cur })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, dir, "mapcast.toml", "[engine]\ntick_interval = \"5ms\"\n[log]\nlevel = \"debug\"\n")

	select {
	case cur := <-changes:
		if cur.Engine.TickInterval.Std() != 5*time.Millisecond || cur.Log.Level != "debug" {
			t.Errorf("reloaded = %+v", cur)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reload")
	}
	if w.Current().Engine.TickInterval.Std() != 5*time.Millisecond {
		t.Errorf("Current() not updated")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v", err)
	}
}

func TestWatcherKeepsConfigOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mapcast.toml", "[engine]\nrows_per_tick = 4\n")
	src := Source{File: path, LookupEnv: noEnv}
	cfg, _ := Load(src)
	w := NewWatcher(src, cfg, logging.Nop())

	called := false
	w.OnChange(func(_, _ Config) { called = true })

	writeFile(t, dir, "mapcast.toml", "[engine]\nrows_per_tick = -1\n")
	if w.Reload() {
		t.Error("Reload() = true for invalid config")
	}
	if called || w.Current().Engine.RowsPerTick != 4 {
		t.Errorf("config replaced by invalid reload")
	}
}
