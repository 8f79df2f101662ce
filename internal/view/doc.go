// Package view implements the map view aggregate and its update controller.
//
// A View ties one canvas, one cursor registry and one renderer pipeline to a
// string identity and a live settings copy. Views move through
// Uninitialized, Active and Deleted; only Active views accept drawing,
// cursor changes and update distribution, and every operation on a Deleted
// view fails with maperr.ErrNotFound.
//
// Updates leave the view through a Sender. Manual SendUpdate calls ship
// exactly the requested rectangle. Tick performs automatic updates: redraw,
// diff against the last automatically sent snapshot, and send a bounded
// number of dirty rows. The two tracks do not affect each other.
package view
