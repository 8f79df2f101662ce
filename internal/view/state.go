package view

// State is the lifecycle state of a view.
type State int

// View states.
const (
	// StateUninitialized - View is built but not yet attached.
	StateUninitialized State = iota

	// StateActive - View accepts drawing, cursor changes and updates.
	StateActive

	// StateDeleted - View was deleted; its canvas is released.
	StateDeleted
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
