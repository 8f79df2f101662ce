package view

import (
	"github.com/dshills/mapcast/internal/logging"
	"github.com/dshills/mapcast/internal/render"
)

// DefaultRowsPerTick bounds the rows an automatic update sends per tick.
const DefaultRowsPerTick = 16

// Option configures a View during creation.
type Option func(*View)

// WithLogger sets the view logger.
func WithLogger(l *logging.Logger) Option {
	return func(v *View) {
		if l != nil {
			v.log = l
		}
	}
}

// WithSender sets where updates are delivered.
func WithSender(s Sender) Option {
	return func(v *View) {
		if s != nil {
			v.sender = s
		}
	}
}

// WithDefaultRenderer sets the renderer that pre-fills the canvas on every
// redraw while the settings enable the default renderer.
func WithDefaultRenderer(r render.Renderer) Option {
	return func(v *View) {
		v.base = r
	}
}

// WithRowsPerTick sets the automatic update row budget.
func WithRowsPerTick(n int) Option {
	return func(v *View) {
		if n > 0 {
			v.rowsPerTick = n
		}
	}
}
