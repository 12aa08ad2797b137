package core

import (
	"errors"
	"fmt"
)

// ErrEngineUnavailable is returned when the embedded JavaScript engine
// cannot be initialized. It is fatal: a process that cannot bring up a
// runtime and context cannot render anything.
var ErrEngineUnavailable = errors.New("javascript engine unavailable")

// ErrHandleDestroyed is returned when an engine handle is used after
// Destroy. This is a caller bug, surfaced as an error instead of a crash.
var ErrHandleDestroyed = errors.New("engine handle used after destroy")

// ComponentNotFoundError reports that a component identifier resolved to no
// source file after trying every supported extension.
type ComponentNotFoundError struct {
	ID    string
	Tried []string
}

func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component %q not found (tried %v)", e.ID, e.Tried)
}

// ScriptError carries the string-coerced message of a JavaScript exception
// raised during compilation-time or render-time evaluation.
type ScriptError struct {
	Label   string // diagnostic filename passed to eval
	Message string // coerced exception text
}

func (e *ScriptError) Error() string {
	if e.Label == "" {
		return "script error: " + e.Message
	}
	return fmt.Sprintf("script error in %s: %s", e.Label, e.Message)
}

// BundleMissingError reports that bundle mode was requested without a build
// artifact present. The message tells the operator which step to run.
type BundleMissingError struct {
	Path string
}

func (e *BundleMissingError) Error() string {
	return fmt.Sprintf("server bundle not found at %s: run `prender build` to produce it", e.Path)
}
