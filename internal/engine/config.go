package engine

import (
	"time"

	"github.com/dshills/mapcast/internal/palette"
	"github.com/dshills/mapcast/internal/transport"
	"github.com/dshills/mapcast/internal/view"
)

// Default configuration values.
const (
	DefaultTickInterval     = 50 * time.Millisecond
	DefaultCanvasSize       = 128
	DefaultFill             = "GRASS"
	DefaultInstructionLimit = 1_000_000
	DefaultScriptTimeout    = 250 * time.Millisecond
)

// Config configures an Engine.
type Config struct {
	TickInterval time.Duration
	RowsPerTick  int
	CanvasSize   int

	// Matcher selects color matching: euclidean, shaded or lab.
	Matcher string

	// DefaultFill is the default rendering: a palette name, a #rrggbb
	// color, or empty for none.
	DefaultFill string

	// StorageDir persists map settings when set.
	StorageDir string

	SendQueueSize int

	// ScriptsDir holds *.lua renderers added to every view.
	ScriptsDir       string
	InstructionLimit int64
	ScriptTimeout    time.Duration
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval:     DefaultTickInterval,
		RowsPerTick:      view.DefaultRowsPerTick,
		CanvasSize:       DefaultCanvasSize,
		Matcher:          palette.MatchEuclidean,
		DefaultFill:      DefaultFill,
		SendQueueSize:    transport.DefaultQueueSize,
		InstructionLimit: DefaultInstructionLimit,
		ScriptTimeout:    DefaultScriptTimeout,
	}
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.RowsPerTick <= 0 {
		c.RowsPerTick = def.RowsPerTick
	}
	if c.CanvasSize <= 0 {
		c.CanvasSize = def.CanvasSize
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = def.SendQueueSize
	}
	if c.InstructionLimit <= 0 {
		c.InstructionLimit = def.InstructionLimit
	}
	if c.ScriptTimeout <= 0 {
		c.ScriptTimeout = def.ScriptTimeout
	}
	return c
}
