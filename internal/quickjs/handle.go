//go:build !v8

// Package quickjs implements the engine handle and value marshaller on the
// QuickJS engine provided by modernc.org/libquickjs. The high-level
// modernc.org/quickjs VM owns the runtime and context lifecycle; evaluation
// and value decoding go through the C ABI directly so that the tagged
// JSValue representation, exception state, and reference counts stay under
// host control.
package quickjs

import (
	"fmt"
	"reflect"
	"sync/atomic"
	"unsafe"

	"github.com/quenby/prender/internal/core"
	"modernc.org/libc"
	lib "modernc.org/libquickjs"
	"modernc.org/quickjs"
)

// Handle owns one QuickJS runtime and one execution context. Nothing
// created under the context may outlive the handle. A handle is not safe
// for concurrent use; callers serialize renders or hold one handle per
// worker.
type Handle struct {
	vm  *quickjs.VM
	tls *libc.TLS // cached from VM internals for direct C API access
	ctx uintptr   // JSContext
	rt  uintptr   // JSRuntime, used by the pending-job pump

	// useFallback routes evaluation through the high-level VM wrapper when
	// direct C API extraction fails (e.g. the unexported struct layout of
	// modernc.org/quickjs changed). Slower, and value accounting is inert.
	useFallback bool

	destroyed bool
	live      atomic.Int64 // engine-owned values currently held by the host
}

var _ core.JSRuntime = (*Handle)(nil)
var _ core.ValueAccountant = (*Handle)(nil)

// New allocates a runtime and one context. Any failure here is
// core.ErrEngineUnavailable: the process cannot render without an engine.
func New(cfg core.EngineConfig) (*Handle, error) {
	vm, err := quickjs.NewVM()
	if err != nil {
		return nil, fmt.Errorf("%w: creating VM: %v", core.ErrEngineUnavailable, err)
	}

	if cfg.MemoryLimitMB > 0 {
		vm.SetMemoryLimit(uintptr(cfg.MemoryLimitMB) * 1024 * 1024)
	}

	h := &Handle{vm: vm}
	if err := h.extractVMInternals(); err != nil {
		h.useFallback = true
		return h, nil
	}

	// Smoke-test the extracted pointers with a trivial C API round trip.
	glob := lib.XJS_GetGlobalObject(h.tls, h.ctx)
	lib.XFreeValue(h.tls, h.ctx, glob)

	return h, nil
}

// extractVMInternals uses reflect+unsafe to cache the VM's tls, context and
// runtime pointers.
//
// VM struct layout (modernc.org/quickjs@v0.17.1):
//
//	type VM struct {
//	    cContext uintptr
//	    ...
//	    runtime  *runtime
//	}
//
//	type runtime struct {
//	    cRuntime uintptr
//	    tls      *libc.TLS
//	}
func (h *Handle) extractVMInternals() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic extracting VM internals: %v", p)
		}
	}()

	vmPtr := uintptr(unsafe.Pointer(h.vm))

	// cContext is the first field of VM (offset 0).
	h.ctx = *(*uintptr)(unsafe.Pointer(vmPtr))
	if h.ctx == 0 {
		return fmt.Errorf("JSContext is nil")
	}

	vmVal := reflect.ValueOf(h.vm).Elem()
	rtField := vmVal.FieldByName("runtime")
	if !rtField.IsValid() || rtField.IsNil() {
		return fmt.Errorf("quickjs.VM missing 'runtime' field")
	}
	rtVal := reflect.NewAt(rtField.Type().Elem(), unsafe.Pointer(rtField.Pointer())).Elem()

	cRuntimeField := rtVal.FieldByName("cRuntime")
	if !cRuntimeField.IsValid() {
		return fmt.Errorf("runtime missing 'cRuntime' field")
	}
	h.rt = uintptr(cRuntimeField.Uint())
	if h.rt == 0 {
		return fmt.Errorf("JSRuntime is nil")
	}

	tlsField := rtVal.FieldByName("tls")
	if !tlsField.IsValid() || tlsField.IsNil() {
		return fmt.Errorf("runtime missing 'tls' field")
	}
	h.tls = (*libc.TLS)(unsafe.Pointer(tlsField.Pointer()))

	return nil
}

// EvalValue executes script text under the context and returns the raw
// tagged result. It never decodes: exception checking and conversion belong
// to the marshaller. The caller owns the returned value and must release it
// exactly once (decode does this on every path).
func (h *Handle) EvalValue(source, label string) (*Value, error) {
	if h.destroyed {
		return nil, core.ErrHandleDestroyed
	}
	if h.useFallback {
		return nil, fmt.Errorf("raw eval unavailable in fallback mode")
	}

	csrc, err := libc.CString(source)
	if err != nil {
		return nil, fmt.Errorf("allocating eval source: %w", err)
	}
	defer libc.Xfree(h.tls, csrc)

	clabel, err := libc.CString(label)
	if err != nil {
		return nil, fmt.Errorf("allocating eval label: %w", err)
	}
	defer libc.Xfree(h.tls, clabel)

	raw := lib.XJS_Eval(h.tls, h.ctx, csrc, lib.Tsize_t(len(source)), clabel, evalFlagGlobal)
	return h.acquire(raw), nil
}

// Eval evaluates JavaScript and discards the result.
func (h *Handle) Eval(source, label string) error {
	if h.useFallback {
		_, err := h.fallbackEval(source, label)
		return err
	}
	v, err := h.EvalValue(source, label)
	if err != nil {
		return err
	}
	_, err = h.decode(v, label)
	return err
}

// EvalString evaluates JavaScript and returns the result as a Go string.
// Null and undefined decode to "".
func (h *Handle) EvalString(source, label string) (string, error) {
	if h.useFallback {
		return h.fallbackEval(source, label)
	}
	v, err := h.EvalValue(source, label)
	if err != nil {
		return "", err
	}
	res, err := h.decode(v, label)
	if err != nil {
		return "", err
	}
	switch t := res.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	default:
		return fmt.Sprint(t), nil
	}
}

// EvalBool evaluates JavaScript and returns the result as a Go bool.
func (h *Handle) EvalBool(source, label string) (bool, error) {
	if h.useFallback {
		s, err := h.fallbackEval(source, label)
		if err != nil {
			return false, err
		}
		return s == "true", nil
	}
	v, err := h.EvalValue(source, label)
	if err != nil {
		return false, err
	}
	res, err := h.decode(v, label)
	if err != nil {
		return false, err
	}
	b, ok := res.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", res)
	}
	return b, nil
}

// fallbackEval evaluates through the high-level wrapper. Engine exceptions
// surface as wrapper errors and are mapped to the same ScriptError the
// direct path produces.
func (h *Handle) fallbackEval(source, label string) (string, error) {
	if h.destroyed {
		return "", core.ErrHandleDestroyed
	}
	res, err := h.vm.Eval(source, quickjs.EvalGlobal)
	if err != nil {
		return "", &core.ScriptError{Label: label, Message: err.Error()}
	}
	if res == nil {
		return "", nil
	}
	if s, ok := res.(string); ok {
		return s, nil
	}
	return fmt.Sprint(res), nil
}

// RunMicrotasks drains the engine's pending-job queue (Promise callbacks
// scheduled during a render). The polyfills run callbacks inline, so this
// only catches engine-internal jobs.
func (h *Handle) RunMicrotasks() {
	if h.destroyed || h.useFallback {
		return
	}
	for lib.XJS_ExecutePendingJob(h.tls, h.rt, 0) > 0 {
	}
}

// LiveValues reports how many engine-owned values the host currently holds.
// A balanced marshaller returns this to its pre-call baseline after every
// decode. Always zero in fallback mode.
func (h *Handle) LiveValues() int64 {
	return h.live.Load()
}

// Destroy releases the context then the runtime, in that order, exactly
// once. Repeated calls are no-ops.
func (h *Handle) Destroy() {
	if h.destroyed {
		return
	}
	h.destroyed = true
	// vm.Close frees the JSContext before the JSRuntime.
	h.vm.Close()
}
