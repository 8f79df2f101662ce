package handshake

import (
	"github.com/dshills/mapcast/internal/view"
)

// Decision is the outcome of a BeforeCreate hook.
type Decision uint8

const (
	// DecisionProceed lets default creation go ahead.
	DecisionProceed Decision = iota
	// DecisionSuppress skips default creation; the hook supplies the view.
	DecisionSuppress
	// DecisionCancel aborts initialization. No view is created and no
	// AfterAttach hook runs.
	DecisionCancel
)

// String returns a string representation of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionProceed:
		return "proceed"
	case DecisionSuppress:
		return "suppress"
	case DecisionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// BeforeCreateResult is returned by a BeforeCreate hook.
type BeforeCreateResult struct {
	Decision Decision
	View     *view.View // set when Decision is DecisionSuppress
	Reason   string     // optional, logged on cancel
}

// Proceed continues with default creation.
func Proceed() BeforeCreateResult {
	return BeforeCreateResult{Decision: DecisionProceed}
}

// Suppress replaces default creation with v.
func Suppress(v *view.View) BeforeCreateResult {
	return BeforeCreateResult{Decision: DecisionSuppress, View: v}
}

// Cancel aborts initialization.
func Cancel(reason string) BeforeCreateResult {
	return BeforeCreateResult{Decision: DecisionCancel, Reason: reason}
}

// Item is the host object a view is attached to. A blank item has no MapID.
type Item struct {
	Key   string
	MapID string
}

// Blank reports whether no view is attached to the item.
func (i Item) Blank() bool { return i.MapID == "" }

// Transaction pairs the item as requested with the item after attachment.
type Transaction struct {
	Original Item
	Final    Item
}

// Attachment is what AfterAttach hooks observe and what Initialize returns.
type Attachment struct {
	View        *view.View
	Transaction Transaction
	Suppressed  bool // View was supplied by a BeforeCreate hook
	Overridden  bool // View was replaced by an AfterAttach hook
}
