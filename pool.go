package prender

import (
	"fmt"
	"sync"
)

// Pool manages a fixed-size set of pre-warmed Renderers so concurrent HTTP
// handlers never contend on a single engine context.
type Pool struct {
	renderers chan *Renderer
	size      int
	mu        sync.Mutex
}

// NewPool creates and warms size renderers with the same configuration. If
// any renderer fails to initialize, the ones already created are closed and
// the error is returned.
func NewPool(size int, cfg Config) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}
	p := &Pool{
		renderers: make(chan *Renderer, size),
		size:      size,
	}

	for i := 0; i < size; i++ {
		r, err := New(cfg)
		if err != nil {
			p.Dispose()
			return nil, fmt.Errorf("creating pool renderer %d: %w", i, err)
		}
		p.renderers <- r
	}

	return p, nil
}

// Render acquires a renderer, runs the render, and returns the renderer to
// the pool. Blocks while all renderers are busy.
func (p *Pool) Render(component string, props map[string]any, opts RenderOptions) (string, error) {
	r, err := p.get()
	if err != nil {
		return "", err
	}
	defer p.put(r)
	return r.Render(component, props, opts)
}

// get acquires a renderer from the pool. Blocks until one is available.
func (p *Pool) get() (*Renderer, error) {
	r, ok := <-p.renderers
	if !ok {
		return nil, fmt.Errorf("renderer pool is closed")
	}
	return r, nil
}

// put returns a renderer to the pool.
func (p *Pool) put(r *Renderer) {
	select {
	case p.renderers <- r:
	default:
		// Pool full (shouldn't happen), close the renderer.
		r.Close()
	}
}

// Dispose closes all renderers currently in the pool.
func (p *Pool) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		select {
		case r := <-p.renderers:
			r.Close()
		default:
			return
		}
	}
}
