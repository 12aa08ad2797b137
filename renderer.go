package prender

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/quenby/prender/internal/core"
)

// Renderer runs request→document render cycles on one engine handle (one
// runtime, one context). The context is shared across renders, so renders
// are serialized; for concurrent hosts use a Pool, which gives each worker
// its own Renderer.
type Renderer struct {
	cfg      Config
	rt       core.JSRuntime
	compiler *componentCompiler // development mode only
	bundleJS string             // production mode only
	assets   AssetRefs

	mu       sync.Mutex
	injected bool // rendering runtime evaluated in the context
	bundled  bool // server bundle evaluated in the context
	closed   bool
}

// New creates a Renderer. Engine initialization failure is
// ErrEngineUnavailable and fatal; production mode without a build artifact
// is BundleMissingError.
func New(cfg Config) (*Renderer, error) {
	cfg = cfg.withDefaults()
	r := &Renderer{cfg: cfg}

	if cfg.Mode == ModeProduction {
		script, assets, err := loadBundle(cfg.BundlePath, cfg.ManifestPath)
		if err != nil {
			return nil, err
		}
		r.bundleJS = script
		r.assets = assets
	} else {
		r.compiler = newComponentCompiler(cfg.AppDir)
	}

	rt, err := newBackend(core.EngineConfig{MemoryLimitMB: cfg.MemoryLimitMB})
	if err != nil {
		return nil, err
	}
	r.rt = rt
	return r, nil
}

// Render produces a complete HTML document for one component (development
// mode) or route path (production mode) with the given props. It never
// returns partial output: the result is a full document or an error. In
// development mode script errors become a rendered error page; in
// production they propagate to the caller.
func (r *Renderer) Render(component string, props map[string]any, opts RenderOptions) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return "", core.ErrHandleDestroyed
	}

	if !r.injected {
		if err := injectRenderRuntime(r.rt); err != nil {
			return "", fmt.Errorf("injecting render runtime: %w", err)
		}
		r.injected = true
	}

	// The context carries hook counters across renders; clear them first.
	if err := r.rt.Eval(hookResetJS, "prender/hook-reset.js"); err != nil {
		return "", fmt.Errorf("resetting hook state: %w", err)
	}

	if props == nil {
		props = map[string]any{}
	}
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("serializing props: %w", err)
	}

	var script, label string
	if r.cfg.Mode == ModeProduction {
		if !r.bundled {
			if err := r.rt.Eval(r.bundleJS, "prender/bundle.server.js"); err != nil {
				return "", fmt.Errorf("loading server bundle: %w", err)
			}
			r.bundled = true
		}
		script = bundleRenderScript(component, propsJSON)
		label = "prender/render:" + component
	} else {
		compiled, err := r.compiler.compile(component)
		if err != nil {
			return "", err
		}
		script = componentRenderScript(compiled, component, propsJSON)
		label = component
	}

	markup, err := r.rt.EvalString(script, label)
	r.rt.RunMicrotasks()
	if err != nil {
		var scriptErr *core.ScriptError
		if errors.As(err, &scriptErr) && r.cfg.Mode != ModeProduction {
			return assembleErrorDocument(scriptErr), nil
		}
		return "", err
	}

	return assembleDocument(markup, propsJSON, component, opts, r.assets, r.cfg.Mode)
}

// CompileCount reports how many component transforms have run. Always zero
// in production mode.
func (r *Renderer) CompileCount() int64 {
	if r.compiler == nil {
		return 0
	}
	return r.compiler.compileCount()
}

// Close destroys the engine handle. Repeated calls are no-ops; the renderer
// must not be used afterwards.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.rt.Destroy()
}

// componentRenderScript builds the per-request execution script for a
// compiled component: assign props to the well-known global, evaluate the
// compiled IIFE, invoke the tree walker on the component's element tree.
func componentRenderScript(compiled, id string, propsJSON []byte) string {
	return fmt.Sprintf(`(function() {
globalThis.__PRENDER_PROPS__ = JSON.parse(%s);
%s
var mod = %s;
var component = mod && mod.default;
if (typeof component !== 'function') {
	throw new TypeError('no default export in component ' + %s);
}
return __prender_renderToString(__prender_h(component, globalThis.__PRENDER_PROPS__));
})()`, jsEscape(string(propsJSON)), compiled, componentGlobal, jsEscape(id))
}

// bundleRenderScript builds the per-request execution script for bundle
// mode. The bundle's default export dispatches by route path and returns
// the element tree for the matching page.
func bundleRenderScript(path string, propsJSON []byte) string {
	quotedPath := jsEscape(path)
	return fmt.Sprintf(`(function() {
globalThis.__PRENDER_PROPS__ = JSON.parse(%s);
globalThis.__PRENDER_PATH__ = %s;
var entry = %s && %s.default;
if (typeof entry !== 'function') {
	throw new TypeError('server bundle has no render entry point');
}
return __prender_renderToString(entry(%s, globalThis.__PRENDER_PROPS__));
})()`, jsEscape(string(propsJSON)), quotedPath, bundleGlobal, bundleGlobal, quotedPath)
}
