//go:build !v8

package prender

import (
	"github.com/quenby/prender/internal/core"
	"github.com/quenby/prender/internal/quickjs"
)

func newBackend(cfg core.EngineConfig) (core.JSRuntime, error) {
	return quickjs.New(cfg)
}
