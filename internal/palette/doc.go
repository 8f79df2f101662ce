// Package palette implements the constrained, shade-aware color table maps are
// drawn with.
//
// A Palette owns a closed set of named base colors fixed at construction and a
// lazily grown table of shaded variants. Every MapColor it hands out carries a
// palette index that stays valid for the lifetime of the Palette, so indices
// already sent to viewers never change meaning.
//
// Index layout:
//
//	0                 AIR (transparent, never matched)
//	1 .. len(bases)-1 named base colors in declaration order, shade Base
//	len(bases) ..     shaded variants, in the order they were first requested
//
// Shading multiplies the raw base RGB per channel:
//
//	Dark   180/255
//	Base   220/255   (the shade named entries carry)
//	Light  255/255
//	Darker 135/255
//
// Palettes are safe for concurrent use. Shade lookups are interned under a
// lock so concurrent first requests for the same (base, shade) pair produce a
// single index.
package palette
