package render

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/dshills/mapcast/internal/canvas"
	"github.com/dshills/mapcast/internal/logging"
	"github.com/dshills/mapcast/internal/maperr"
)

// Pipeline is an ordered list of renderers.
type Pipeline struct {
	mu        sync.RWMutex
	renderers []Renderer
	log       *logging.Logger
}

// NewPipeline creates an empty pipeline. A nil logger uses the default.
func NewPipeline(log *logging.Logger) *Pipeline {
	return &Pipeline{log: logging.OrDefault(log).WithComponent("pipeline")}
}

// Add appends r as the new top layer.
func (p *Pipeline) Add(r Renderer) {
	p.mu.Lock()
	p.renderers = append(p.renderers, r)
	p.mu.Unlock()
}

// AddBase prepends r as the new bottom layer.
func (p *Pipeline) AddBase(r Renderer) {
	p.mu.Lock()
	p.renderers = append([]Renderer{r}, p.renderers...)
	p.mu.Unlock()
}

// Insert places r at index, shifting later renderers up. Index may equal the
// current length.
func (p *Pipeline) Insert(index int, r Renderer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index > len(p.renderers) {
		return maperr.NewIndexError("insertRenderer", index, len(p.renderers))
	}
	p.renderers = append(p.renderers, nil)
	copy(p.renderers[index+1:], p.renderers[index:])
	p.renderers[index] = r
	return nil
}

// Remove removes the first occurrence of r and reports whether it was found.
// Renderers of non-comparable types, such as Func and Group, never match;
// use RemoveAt for them.
func (p *Pipeline) Remove(r Renderer) bool {
	if r == nil || !reflect.TypeOf(r).Comparable() {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.renderers {
		if reflect.TypeOf(existing) != reflect.TypeOf(r) {
			continue
		}
		if existing == r {
			p.renderers = append(p.renderers[:i], p.renderers[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAt removes and returns the renderer at index.
func (p *Pipeline) RemoveAt(index int) (Renderer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.renderers) {
		return nil, maperr.NewIndexError("removeRenderer", index, len(p.renderers))
	}
	r := p.renderers[index]
	p.renderers = append(p.renderers[:index], p.renderers[index+1:]...)
	return r, nil
}

// Clear removes every renderer.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	p.renderers = nil
	p.mu.Unlock()
}

// Renderers returns a copy of the renderer list in paint order.
func (p *Pipeline) Renderers() []Renderer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Renderer, len(p.renderers))
	copy(out, p.renderers)
	return out
}

// Len returns the number of renderers.
func (p *Pipeline) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.renderers)
}

// Redraw paints c. When base is non-nil it runs first; then every renderer
// runs in list order. Failures are logged and returned as a report but never
// stop the run. Base failures are reported with index -1.
func (p *Pipeline) Redraw(c *canvas.Canvas, base Renderer) []*maperr.RendererError {
	var failures []*maperr.RendererError

	if base != nil {
		if rerr := p.runOne(c, -1, base); rerr != nil {
			failures = append(failures, rerr)
		}
	}
	for i, r := range p.Renderers() {
		if rerr := p.runOne(c, i, r); rerr != nil {
			failures = append(failures, rerr)
		}
	}
	return failures
}

func (p *Pipeline) runOne(c *canvas.Canvas, index int, r Renderer) (rerr *maperr.RendererError) {
	defer func() {
		if v := recover(); v != nil {
			rerr = &maperr.RendererError{Index: index, Name: NameOf(r), Panic: v}
		}
		if rerr != nil {
			p.log.WithField("renderer", rerr.Name).WithField("index", index).Warn("%v", rerr)
		}
	}()

	if err := r.Render(c); err != nil {
		return &maperr.RendererError{Index: index, Name: NameOf(r), Err: err}
	}
	return nil
}

// String implements fmt.Stringer.
func (p *Pipeline) String() string {
	return fmt.Sprintf("Pipeline(%d renderers)", p.Len())
}
