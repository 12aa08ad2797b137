//go:build v8

package prender

import (
	"github.com/quenby/prender/internal/core"
	v8 "github.com/quenby/prender/internal/v8"
)

func newBackend(cfg core.EngineConfig) (core.JSRuntime, error) {
	return v8.New(cfg)
}
