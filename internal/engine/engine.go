package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/mapcast/internal/canvas"
	"github.com/dshills/mapcast/internal/handshake"
	"github.com/dshills/mapcast/internal/logging"
	"github.com/dshills/mapcast/internal/palette"
	"github.com/dshills/mapcast/internal/protocol"
	"github.com/dshills/mapcast/internal/render"
	"github.com/dshills/mapcast/internal/script"
	"github.com/dshills/mapcast/internal/settings"
	"github.com/dshills/mapcast/internal/storage"
	"github.com/dshills/mapcast/internal/transport"
	"github.com/dshills/mapcast/internal/view"
)

// Engine is one running map engine instance.
type Engine struct {
	cfg Config

	palette   *palette.Palette
	matcher   palette.Matcher
	base      render.Renderer
	hub       *transport.Hub
	store     *storage.Store
	handshake *handshake.Coordinator

	scriptsMu sync.RWMutex
	scripts   []*script.Renderer

	tickInterval atomic.Int64
	rowsPerTick  atomic.Int64
	intervalCh   chan time.Duration

	running atomic.Bool
	closed  atomic.Bool
	log     *logging.Logger
}

// New creates an engine and restores persisted maps. Scripts are loaded
// from cfg.ScriptsDir when set; scripts that fail to load are logged and
// skipped.
func New(cfg Config, log *logging.Logger) (*Engine, error) {
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:        cfg,
		palette:    palette.Default(),
		intervalCh: make(chan time.Duration, 1),
		log:        logging.OrDefault(log).WithComponent("engine"),
	}
	e.tickInterval.Store(int64(cfg.TickInterval))
	e.rowsPerTick.Store(int64(cfg.RowsPerTick))

	m, err := palette.NewMatcher(e.palette, cfg.Matcher)
	if err != nil {
		return nil, err
	}
	e.matcher = m

	if e.base, err = e.defaultRenderer(cfg.DefaultFill); err != nil {
		return nil, err
	}

	e.hub = transport.NewHub(e.palette, cfg.SendQueueSize, log)

	opts := []storage.Option{
		storage.WithCanvasSize(cfg.CanvasSize, cfg.CanvasSize),
		storage.WithLogger(log),
	}
	if cfg.StorageDir != "" {
		opts = append(opts, storage.WithDir(cfg.StorageDir))
	}
	e.store = storage.New(e.newView, opts...)
	e.handshake = handshake.New(e.store, log)

	if cfg.ScriptsDir != "" {
		if err := e.LoadScripts(cfg.ScriptsDir); err != nil {
			return nil, err
		}
	}

	restored, err := e.store.Load()
	if err != nil {
		return nil, err
	}
	for _, v := range restored {
		if err := v.Activate(); err != nil {
			e.log.Warn("activate %s: %v", v.ID(), err)
		}
	}
	return e, nil
}

// defaultRenderer resolves the default fill.
func (e *Engine) defaultRenderer(fill string) (render.Renderer, error) {
	fill = strings.TrimSpace(fill)
	switch {
	case fill == "" || strings.EqualFold(fill, "none"):
		return nil, nil
	case strings.HasPrefix(fill, "#"):
		rgb, err := palette.ColorFromHex(fill)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadFill, err)
		}
		return &render.Fill{Color: e.matcher.Match(rgb)}, nil
	default:
		c, ok := e.palette.Named(strings.ToUpper(fill))
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrBadFill, fill)
		}
		return &render.Fill{Color: c}, nil
	}
}

// newView is the store factory.
func (e *Engine) newView(id string, width, height int, s settings.Settings) (*view.View, error) {
	c, err := canvas.New(width, height, e.palette, canvas.WithMatcher(e.matcher))
	if err != nil {
		return nil, err
	}
	v, err := view.New(id, c, s,
		view.WithSender(e.hub),
		view.WithLogger(e.log),
		view.WithDefaultRenderer(e.base),
		view.WithRowsPerTick(int(e.rowsPerTick.Load())),
	)
	if err != nil {
		return nil, err
	}

	pl, err := v.Pipeline()
	if err != nil {
		return nil, err
	}
	e.scriptsMu.RLock()
	for _, r := range e.scripts {
		pl.Add(r)
	}
	e.scriptsMu.RUnlock()
	return v, nil
}

// LoadScripts loads every *.lua file in dir and adds the renderers to all
// current and future views.
func (e *Engine) LoadScripts(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			e.log.Warn("scripts dir %s does not exist", dir)
			return nil
		}
		return err
	}
	loaded, failed, err := script.LoadDir(dir, e.palette,
		script.WithOperationLimit(e.cfg.InstructionLimit),
		script.WithExecutionTimeout(e.cfg.ScriptTimeout),
	)
	if err != nil {
		return err
	}
	for name, ferr := range failed {
		e.log.Warn("script %s: %v", name, ferr)
	}

	e.scriptsMu.Lock()
	e.scripts = append(e.scripts, loaded...)
	e.scriptsMu.Unlock()

	for _, v := range e.store.Maps() {
		pl, err := v.Pipeline()
		if err != nil {
			continue
		}
		for _, r := range loaded {
			pl.Add(r)
		}
	}
	e.log.Info("loaded %d scripts from %s", len(loaded), dir)
	return nil
}

// Palette returns the engine palette.
func (e *Engine) Palette() *palette.Palette { return e.palette }

// Matcher returns the color matcher.
func (e *Engine) Matcher() palette.Matcher { return e.matcher }

// Hub returns the viewer hub.
func (e *Engine) Hub() *transport.Hub { return e.hub }

// Store returns the map store.
func (e *Engine) Store() *storage.Store { return e.store }

// Handshake returns the initialization coordinator, for registering hooks.
func (e *Engine) Handshake() *handshake.Coordinator { return e.handshake }

// CreateMap runs the initialization handshake for a blank item and returns
// the attached view.
func (e *Engine) CreateMap(ctx context.Context, itemKey string, s settings.Settings) (*view.View, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	a, err := e.handshake.Initialize(ctx, handshake.Item{Key: itemKey}, s)
	if err != nil {
		return nil, err
	}
	return a.View, nil
}

// GetMap returns the view with the given id.
func (e *Engine) GetMap(id string) (*view.View, bool) {
	return e.store.GetMap(id)
}

// Maps returns every view in creation order.
func (e *Engine) Maps() []*view.View {
	return e.store.Maps()
}

// DeleteMap deletes a view and disconnects its viewers.
func (e *Engine) DeleteMap(id string) bool {
	if !e.store.DeleteMap(id) {
		return false
	}
	e.hub.CloseView(id, protocol.CodeNotFound, "map deleted")
	return true
}

// SaveMap persists the live settings of a view.
func (e *Engine) SaveMap(id string) error {
	return e.store.Save(id)
}

// TickInterval returns the automatic update interval.
func (e *Engine) TickInterval() time.Duration {
	return time.Duration(e.tickInterval.Load())
}

// SetTickInterval changes the automatic update interval, taking effect on
// the next tick.
func (e *Engine) SetTickInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	e.tickInterval.Store(int64(d))
	select {
	case e.intervalCh <- d:
	default:
		<-e.intervalCh
		e.intervalCh <- d
	}
}

// SetRowsPerTick changes the row budget of every view.
func (e *Engine) SetRowsPerTick(n int) {
	if n <= 0 {
		return
	}
	e.rowsPerTick.Store(int64(n))
	for _, v := range e.store.Maps() {
		v.SetRowsPerTick(n)
	}
}

// Run performs automatic updates until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	ticker := time.NewTicker(e.TickInterval())
	defer ticker.Stop()
	e.log.Info("running, tick %s", e.TickInterval())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d := <-e.intervalCh:
			ticker.Reset(d)
			e.log.Info("tick interval now %s", d)
		case <-ticker.C:
			e.Tick()
		}
	}
}

// TickStats summarizes one engine tick.
type TickStats struct {
	Views    int
	Sent     int
	Failures int
	Resyncs  int
	Pending  int
}

// Tick runs one automatic update over every active view, then sends full
// updates to viewers that dropped frames.
func (e *Engine) Tick() TickStats {
	var st TickStats
	for _, v := range e.store.Maps() {
		if v.State() != view.StateActive {
			continue
		}
		st.Views++
		res, err := v.Tick()
		if err != nil {
			continue
		}
		if !res.Rect.IsEmpty() {
			st.Sent++
		}
		if res.Pending {
			st.Pending++
		}
		st.Failures += len(res.Failures)
	}

	for _, viewer := range e.hub.TakeResyncs() {
		v, ok := e.store.GetMap(viewer.ViewID)
		if !ok {
			continue
		}
		v.Attach(func(full *protocol.Update) error {
			if e.hub.Resync(viewer, full) {
				st.Resyncs++
			}
			return nil
		})
	}
	return st
}

// Close stops delivery and releases the Lua renderers.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.hub.Close()

	e.scriptsMu.Lock()
	defer e.scriptsMu.Unlock()
	var errs []error
	for _, r := range e.scripts {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.scripts = nil
	return errors.Join(errs...)
}
