// Package script runs renderers written in Lua.
//
// A script defines a global function render(canvas) and may require the
// "map" module for palette access:
//
//	local map = require("map")
//
//	function render(canvas)
//	    local red = map.color("RED")
//	    for x = 0, canvas:width() - 1 do
//	        canvas:set(x, 0, red)
//	    end
//	    canvas:text(2, 4, "hello", map.shade(red, "dark"))
//	end
//
// # Canvas methods
//
//	canvas:width(), canvas:height()
//	canvas:get(x, y)                 palette index at (x, y)
//	canvas:set(x, y, index)
//	canvas:set_rgb(x, y, r, g, b)    matched through the canvas matcher
//	canvas:fill(index)
//	canvas:rect(x, y, w, h, index)   clipped
//	canvas:text(x, y, str, index)    default font
//
// # map module
//
//	map.color(name)        index of a named color, or nil
//	map.shade(index, s)    index of a shaded variant; s is dark|base|light|darker
//	map.nearest(r, g, b)   index of the nearest named color
//	map.rgb(index)         r, g, b of an index
//
// # Sandbox
//
// Scripts run with only the base, table, string and math libraries. dofile,
// loadfile and load are removed and require only resolves "map" and the
// built-in safe modules. Every render call has a wall-clock timeout and a
// budget of canvas operations.
package script
