package prender

import "github.com/quenby/prender/internal/core"

// Type aliases re-exporting internal/core types so downstream code can use
// prender.ScriptError etc. without importing the internal package directly.

type ScriptError = core.ScriptError
type ComponentNotFoundError = core.ComponentNotFoundError
type BundleMissingError = core.BundleMissingError

// Errors re-exported from core.
var (
	ErrEngineUnavailable = core.ErrEngineUnavailable
	ErrRendererClosed    = core.ErrHandleDestroyed
)
