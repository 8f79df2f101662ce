// Package handshake runs the two-phase initialization that attaches a map
// view to a blank host item.
//
// Phase one asks every BeforeCreate hook, in registration order, whether
// default creation may go ahead. The first hook that does not proceed
// decides: Suppress supplies a view of its own, Cancel aborts with nothing
// created. Phase two runs after the view is active and attached; AfterAttach
// hooks observe the transaction and may substitute a different view for the
// final item.
package handshake

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/mapcast/internal/logging"
	"github.com/dshills/mapcast/internal/maperr"
	"github.com/dshills/mapcast/internal/settings"
	"github.com/dshills/mapcast/internal/view"
)

// Errors returned by Initialize.
var (
	ErrCancelled       = fmt.Errorf("initialization cancelled: %w", maperr.ErrInvalidState)
	ErrAlreadyAttached = fmt.Errorf("item already has a map: %w", maperr.ErrInvalidState)
	ErrNoView          = fmt.Errorf("suppressing hook supplied no view: %w", maperr.ErrInvalidArgument)
	ErrCreateFailed    = fmt.Errorf("map creation failed: %w", maperr.ErrNotFound)
)

// Request describes an initialization about to happen.
type Request struct {
	Item     Item
	Settings settings.Settings
}

// BeforeCreateHook decides whether default creation goes ahead.
type BeforeCreateHook func(ctx context.Context, req Request) BeforeCreateResult

// AfterAttachHook observes an attachment. Returning a non-nil view replaces
// the view on the final item.
type AfterAttachHook func(ctx context.Context, a Attachment) *view.View

// Creator creates views. *storage.Store implements it.
type Creator interface {
	CreateMap(s settings.Settings) (*view.View, bool)
}

// Coordinator runs initialization handshakes.
type Coordinator struct {
	mu      sync.RWMutex
	before  []BeforeCreateHook
	after   []AfterAttachHook
	creator Creator
	log     *logging.Logger
}

// New creates a coordinator that creates default views with creator.
func New(creator Creator, log *logging.Logger) *Coordinator {
	return &Coordinator{
		creator: creator,
		log:     logging.OrDefault(log).WithComponent("handshake"),
	}
}

// OnBeforeCreate registers a phase one hook.
func (c *Coordinator) OnBeforeCreate(h BeforeCreateHook) {
	c.mu.Lock()
	c.before = append(c.before, h)
	c.mu.Unlock()
}

// OnAfterAttach registers a phase two hook.
func (c *Coordinator) OnAfterAttach(h AfterAttachHook) {
	c.mu.Lock()
	c.after = append(c.after, h)
	c.mu.Unlock()
}

// Initialize attaches a view to a blank item.
func (c *Coordinator) Initialize(ctx context.Context, item Item, s settings.Settings) (Attachment, error) {
	if !item.Blank() {
		return Attachment{}, fmt.Errorf("%w: %s has %s", ErrAlreadyAttached, item.Key, item.MapID)
	}

	c.mu.RLock()
	before := append([]BeforeCreateHook(nil), c.before...)
	after := append([]AfterAttachHook(nil), c.after...)
	c.mu.RUnlock()

	log := c.log.WithField("item", item.Key)
	req := Request{Item: item, Settings: s}

	decision := Proceed()
	for _, h := range before {
		if err := ctx.Err(); err != nil {
			return Attachment{}, err
		}
		if r := h(ctx, req); r.Decision != DecisionProceed {
			decision = r
			break
		}
	}

	var v *view.View
	switch decision.Decision {
	case DecisionCancel:
		log.Debug("cancelled: %s", decision.Reason)
		return Attachment{}, ErrCancelled
	case DecisionSuppress:
		if decision.View == nil {
			return Attachment{}, ErrNoView
		}
		v = decision.View
	default:
		if err := ctx.Err(); err != nil {
			return Attachment{}, err
		}
		created, ok := c.creator.CreateMap(s)
		if !ok {
			return Attachment{}, ErrCreateFailed
		}
		v = created
	}

	if err := attach(v); err != nil {
		return Attachment{}, err
	}

	a := Attachment{
		View:        v,
		Transaction: Transaction{Original: item, Final: Item{Key: item.Key, MapID: v.ID()}},
		Suppressed:  decision.Decision == DecisionSuppress,
	}
	log.Debug("attached %s", v.ID())

	for _, h := range after {
		r := h(ctx, a)
		if r == nil || r == a.View {
			continue
		}
		if err := attach(r); err != nil {
			log.Warn("ignoring replacement %s: %v", r.ID(), err)
			continue
		}
		a.View = r
		a.Transaction.Final.MapID = r.ID()
		a.Overridden = true
	}
	return a, nil
}

// attach activates v unless it is already active.
func attach(v *view.View) error {
	if err := v.Activate(); err != nil && !errors.Is(err, view.ErrAlreadyActive) {
		return err
	}
	return nil
}
