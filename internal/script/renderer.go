package script

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/mapcast/internal/canvas"
	"github.com/dshills/mapcast/internal/font"
	"github.com/dshills/mapcast/internal/palette"
)

const canvasTypeName = "mapcast.canvas"

// Renderer is a render.Renderer backed by a Lua script.
type Renderer struct {
	mu      sync.Mutex
	name    string
	state   *State
	palette *palette.Palette
}

// Load compiles code into a renderer. The chunk runs once at load time and
// must define a global render function.
func Load(name, code string, p *palette.Palette, opts ...StateOption) (*Renderer, error) {
	r := newRenderer(name, p, opts...)
	if err := r.state.DoString(code); err != nil {
		r.state.Close()
		return nil, fmt.Errorf("load script %s: %w", name, err)
	}
	if !r.state.HasFunction("render") {
		r.state.Close()
		return nil, fmt.Errorf("load script %s: %w", name, ErrNoRenderFunc)
	}
	return r, nil
}

// LoadFile compiles a script file. The renderer is named after the file.
func LoadFile(path string, p *palette.Palette, opts ...StateOption) (*Renderer, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Load(name, string(code), p, opts...)
}

// LoadDir compiles every *.lua file in dir, in name order. Scripts that fail
// to load are returned in the error map and skipped.
func LoadDir(dir string, p *palette.Palette, opts ...StateOption) ([]*Renderer, map[string]error, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(matches)

	var out []*Renderer
	failed := make(map[string]error)
	for _, path := range matches {
		r, err := LoadFile(path, p, opts...)
		if err != nil {
			failed[path] = err
			continue
		}
		out = append(out, r)
	}
	return out, failed, nil
}

func newRenderer(name string, p *palette.Palette, opts ...StateOption) *Renderer {
	r := &Renderer{
		name:    name,
		state:   NewState(opts...),
		palette: p,
	}
	r.installCanvasType()
	r.state.RegisterModule("map", r.mapModule())
	return r
}

// Name implements render.Named.
func (r *Renderer) Name() string {
	return "lua:" + r.name
}

// Render implements render.Renderer by calling the script's render function.
func (r *Renderer) Render(c *canvas.Canvas) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.IsClosed() {
		return ErrStateClosed
	}
	ud := r.state.L.NewUserData()
	ud.Value = c
	r.state.L.SetMetatable(ud, r.state.L.GetTypeMetatable(canvasTypeName))

	if _, err := r.state.Call("render", ud); err != nil {
		return fmt.Errorf("script %s: %w", r.name, err)
	}
	return nil
}

// Close releases the Lua state.
func (r *Renderer) Close() error {
	return r.state.Close()
}

func (r *Renderer) checkCanvas(L *lua.LState) *canvas.Canvas {
	ud := L.CheckUserData(1)
	c, ok := ud.Value.(*canvas.Canvas)
	if !ok {
		L.ArgError(1, "canvas expected")
		return nil
	}
	return c
}

func (r *Renderer) checkColor(L *lua.LState, n int) palette.MapColor {
	idx := L.CheckInt(n)
	c, err := r.palette.ByIndex(idx)
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return c
}

func checkByte(L *lua.LState, n int) uint8 {
	v := L.CheckInt(n)
	if v < 0 || v > 255 {
		L.ArgError(n, "channel must be 0..255")
	}
	return uint8(v)
}

func (r *Renderer) installCanvasType() {
	L := r.state.L
	sb := r.state.Sandbox()
	mt := L.NewTypeMetatable(canvasTypeName)

	methods := map[string]lua.LGFunction{
		"width": func(L *lua.LState) int {
			L.Push(lua.LNumber(r.checkCanvas(L).Width()))
			return 1
		},
		"height": func(L *lua.LState) int {
			L.Push(lua.LNumber(r.checkCanvas(L).Height()))
			return 1
		},
		"get": func(L *lua.LState) int {
			c := r.checkCanvas(L)
			sb.CountOperation(L, 1)
			idx, err := c.Index(L.CheckInt(2), L.CheckInt(3))
			if err != nil {
				L.RaiseError("%v", err)
			}
			L.Push(lua.LNumber(idx))
			return 1
		},
		"set": func(L *lua.LState) int {
			c := r.checkCanvas(L)
			sb.CountOperation(L, 1)
			if err := c.SetPixel(L.CheckInt(2), L.CheckInt(3), r.checkColor(L, 4)); err != nil {
				L.RaiseError("%v", err)
			}
			return 0
		},
		"set_rgb": func(L *lua.LState) int {
			c := r.checkCanvas(L)
			sb.CountOperation(L, 1)
			rgb := palette.RGB(checkByte(L, 4), checkByte(L, 5), checkByte(L, 6))
			if err := c.SetPixelMatched(L.CheckInt(2), L.CheckInt(3), rgb); err != nil {
				L.RaiseError("%v", err)
			}
			return 0
		},
		"fill": func(L *lua.LState) int {
			c := r.checkCanvas(L)
			sb.CountOperation(L, int64(c.Width()*c.Height()))
			c.Fill(r.checkColor(L, 2))
			return 0
		},
		"rect": func(L *lua.LState) int {
			c := r.checkCanvas(L)
			x, y := L.CheckInt(2), L.CheckInt(3)
			w, h := L.CheckInt(4), L.CheckInt(5)
			col := r.checkColor(L, 6)
			rect := image.Rect(x, y, x+w, y+h).Intersect(c.Bounds())
			sb.CountOperation(L, int64(rect.Dx()*rect.Dy()))
			c.FillRect(rect, col)
			return 0
		},
		"text": func(L *lua.LState) int {
			c := r.checkCanvas(L)
			text := L.CheckString(4)
			sb.CountOperation(L, int64(len(text)))
			if err := c.DrawText(L.CheckInt(2), L.CheckInt(3), text, font.Default(), r.checkColor(L, 5)); err != nil {
				L.RaiseError("%v", err)
			}
			return 0
		},
	}
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), methods))
}

func (r *Renderer) mapModule() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"color": func(L *lua.LState) int {
			c, ok := r.palette.Named(strings.ToUpper(L.CheckString(1)))
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LNumber(c.Index()))
			return 1
		},
		"shade": func(L *lua.LState) int {
			base := r.checkColor(L, 1)
			s, ok := parseShade(L.CheckString(2))
			if !ok {
				L.ArgError(2, "shade must be dark, base, light or darker")
			}
			L.Push(lua.LNumber(r.palette.Shade(base, s).Index()))
			return 1
		},
		"nearest": func(L *lua.LState) int {
			rgb := palette.RGB(checkByte(L, 1), checkByte(L, 2), checkByte(L, 3))
			L.Push(lua.LNumber(r.palette.Nearest(rgb).Index()))
			return 1
		},
		"rgb": func(L *lua.LState) int {
			c := r.checkColor(L, 1).Color()
			L.Push(lua.LNumber(c.R))
			L.Push(lua.LNumber(c.G))
			L.Push(lua.LNumber(c.B))
			return 3
		},
	}
}

func parseShade(name string) (palette.Shade, bool) {
	for _, s := range palette.Shades() {
		if strings.EqualFold(s.String(), name) {
			return s, true
		}
	}
	return 0, false
}
