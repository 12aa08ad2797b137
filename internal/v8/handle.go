//go:build v8

// Package v8 implements the engine handle on V8 via tommie/v8go. Selected
// by the `v8` build tag; the default backend is QuickJS.
package v8

import (
	"errors"
	"fmt"

	v8 "github.com/tommie/v8go"

	"github.com/quenby/prender/internal/core"
)

// Handle owns one V8 isolate and one context.
type Handle struct {
	iso       *v8.Isolate
	ctx       *v8.Context
	destroyed bool
}

var _ core.JSRuntime = (*Handle)(nil)

// New allocates an isolate and one context.
func New(cfg core.EngineConfig) (h *Handle, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: creating isolate: %v", core.ErrEngineUnavailable, p)
		}
	}()
	var iso *v8.Isolate
	if cfg.MemoryLimitMB > 0 {
		heapSize := uint64(cfg.MemoryLimitMB) * 1024 * 1024
		iso = v8.NewIsolate(v8.WithResourceConstraints(heapSize/2, heapSize))
	} else {
		iso = v8.NewIsolate()
	}
	ctx := v8.NewContext(iso)
	return &Handle{iso: iso, ctx: ctx}, nil
}

// run executes source and maps V8 JS errors to the shared ScriptError.
func (h *Handle) run(source, label string) (*v8.Value, error) {
	if h.destroyed {
		return nil, core.ErrHandleDestroyed
	}
	val, err := h.ctx.RunScript(source, label)
	if err != nil {
		var jsErr *v8.JSError
		if errors.As(err, &jsErr) {
			return nil, &core.ScriptError{Label: label, Message: jsErr.Message}
		}
		return nil, &core.ScriptError{Label: label, Message: err.Error()}
	}
	return val, nil
}

// Eval evaluates JavaScript and discards the result.
func (h *Handle) Eval(source, label string) error {
	_, err := h.run(source, label)
	return err
}

// EvalString evaluates JavaScript and returns the result as a Go string.
// Null and undefined decode to "".
func (h *Handle) EvalString(source, label string) (string, error) {
	val, err := h.run(source, label)
	if err != nil {
		return "", err
	}
	if val == nil || val.IsNull() || val.IsUndefined() {
		return "", nil
	}
	return val.String(), nil
}

// EvalBool evaluates JavaScript and returns the result as a Go bool.
func (h *Handle) EvalBool(source, label string) (bool, error) {
	val, err := h.run(source, label)
	if err != nil {
		return false, err
	}
	if val == nil || !val.IsBoolean() {
		return false, fmt.Errorf("expected bool result")
	}
	return val.Boolean(), nil
}

// RunMicrotasks pumps V8's microtask queue.
func (h *Handle) RunMicrotasks() {
	if h.destroyed {
		return
	}
	h.ctx.PerformMicrotaskCheckpoint()
}

// Destroy releases the context then the isolate, exactly once.
func (h *Handle) Destroy() {
	if h.destroyed {
		return
	}
	h.destroyed = true
	h.ctx.Close()
	h.iso.Dispose()
}
