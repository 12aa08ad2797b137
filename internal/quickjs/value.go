//go:build !v8

package quickjs

import (
	"unsafe"

	"github.com/quenby/prender/internal/core"
	lib "modernc.org/libquickjs"
)

// JS_TAG_* discriminants and eval flags mirrored from quickjs.h. The
// generated bindings export functions, not the value-tag enum, so the
// values are pinned here.
const (
	tagString    int64 = -7
	tagObject    int64 = -1
	tagInt       int64 = 0
	tagBool      int64 = 1
	tagNull      int64 = 2
	tagUndefined int64 = 3
	tagException int64 = 6
	tagFloat64   int64 = 7

	evalFlagGlobal = 0 // JS_EVAL_TYPE_GLOBAL
)

// Value is an engine-owned tagged result of one evaluation. QuickJS
// reference-counts its heap values: a missed release is a permanent leak,
// a double release corrupts engine state. Release is therefore idempotent
// and every decode path releases exactly once, error paths included.
type Value struct {
	h        *Handle
	raw      lib.TJSValue
	released bool
}

// JSValue layout (modernc.org/libquickjs, 64-bit, no NaN boxing):
//
//	struct JSValue {
//	    JSValueUnion u;   // 8 bytes: int32 / float64 / heap pointer
//	    int64_t      tag; // JS_TAG_* discriminant at offset 8
//	}

func (v *Value) tag() int64 {
	return *(*int64)(unsafe.Pointer(uintptr(unsafe.Pointer(&v.raw)) + 8))
}

func (v *Value) int32() int32 {
	return *(*int32)(unsafe.Pointer(&v.raw))
}

func (v *Value) float64() float64 {
	return *(*float64)(unsafe.Pointer(&v.raw))
}

// Release returns the value's reference to the engine. Safe to call more
// than once; only the first call frees.
func (v *Value) Release() {
	if v.released || v.h.destroyed {
		v.released = true
		return
	}
	v.released = true
	lib.XFreeValue(v.h.tls, v.h.ctx, v.raw)
	v.h.live.Add(-1)
}

// acquire wraps a raw JSValue the engine just handed us and counts it.
func (h *Handle) acquire(raw lib.TJSValue) *Value {
	h.live.Add(1)
	return &Value{h: h, raw: raw}
}

// decode converts a tagged value to its host-native form: int32, bool,
// float64, nil (null/undefined), or string (everything else, coerced). The
// exception discriminant is checked first and becomes a *core.ScriptError.
// decode consumes v on every path.
func (h *Handle) decode(v *Value, label string) (any, error) {
	defer v.Release()

	switch v.tag() {
	case tagException:
		return nil, h.exception(label)
	case tagInt:
		return v.int32(), nil
	case tagBool:
		return v.int32() != 0, nil
	case tagNull, tagUndefined:
		return nil, nil
	case tagFloat64:
		return v.float64(), nil
	default:
		// Strings, objects, functions, symbols: coerce through the
		// engine's string conversion.
		return h.coerceString(v)
	}
}

// exception retrieves the pending exception, coerces it to a string and
// releases it. Falls back to a generic message when coercion itself yields
// nothing.
func (h *Handle) exception(label string) error {
	exc := h.acquire(lib.XJS_GetException(h.tls, h.ctx))
	defer exc.Release()

	msg, err := h.coerceString(exc)
	if err != nil || msg == "" {
		msg = "uncaught exception"
	}
	return &core.ScriptError{Label: label, Message: msg}
}

// coerceString converts any value to a Go string via JS_ToCStringLen2. The
// result is copied by its reported length, never NUL-scanned: embedded NUL
// bytes are valid in engine strings. Does not release v.
func (h *Handle) coerceString(v *Value) (string, error) {
	var n lib.Tsize_t
	p := lib.XJS_ToCStringLen2(h.tls, h.ctx, uintptr(unsafe.Pointer(&n)), v.raw, 0)
	if p == 0 {
		// Coercion threw. Clear the pending exception so the context
		// stays consistent, then report that no string was produced.
		pending := h.acquire(lib.XJS_GetException(h.tls, h.ctx))
		pending.Release()
		return "", nil
	}
	var s string
	if n > 0 {
		s = string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
	}
	lib.XJS_FreeCString(h.tls, h.ctx, p)
	return s, nil
}
