// Package canvas implements the fixed-size pixel surface a map is drawn on.
//
// A Canvas stores one palette index per pixel, defaulting to AIR. Mutations
// are bounds checked; image blits clip silently and text drawing stops before
// the first glyph that would cross the canvas edge.
//
// Canvas methods are safe to call concurrently. Reads used for update
// serialization (Snapshot, Region, ToImage) hold a read lock for their
// duration, so they never observe a half-applied primitive.
package canvas
