// Package render composes independent drawing contributors onto a canvas.
//
// A Pipeline holds an ordered list of Renderers. Redraw runs them in list
// order against the same canvas, index 0 first, so later renderers paint over
// earlier ones. A renderer that fails or panics is reported and skipped; the
// renderers after it still run.
//
// Built-in renderers cover solid fills, images, text and grouped renderers.
// Renderers supplied at runtime by scripts live in package script.
package render
