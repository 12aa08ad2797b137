package core

// JSRuntime abstracts the JavaScript engine (QuickJS or V8) behind a common
// interface so the render pipeline does not depend on a concrete backend.
// Exactly one runtime+context pair backs each instance; implementations are
// not safe for concurrent use and callers must serialize access.
type JSRuntime interface {
	// Eval evaluates JavaScript source under the context and discards the
	// result. label is used only as the diagnostic filename in stack traces.
	Eval(source, label string) error

	// EvalString evaluates JavaScript and returns the result as a Go
	// string. Non-string results are coerced through the engine's string
	// conversion; null and undefined decode to "".
	EvalString(source, label string) (string, error)

	// EvalBool evaluates JavaScript and returns the result as a Go bool.
	EvalBool(source, label string) (bool, error)

	// RunMicrotasks pumps the engine's pending-job queue. The injected
	// polyfills make scheduling synchronous, so this is a safety net for
	// engine-internal jobs, not a real event loop.
	RunMicrotasks()

	// Destroy releases the context then the runtime, exactly once.
	// Repeated calls are no-ops. The runtime must not be used afterwards.
	Destroy()
}

// ValueAccountant is an optional interface backends can provide to expose
// how many engine-owned values the host currently holds. A correct
// marshaller returns this to its pre-call baseline after every decode,
// success or failure.
type ValueAccountant interface {
	LiveValues() int64
}
