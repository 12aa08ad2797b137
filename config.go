package prender

import "path/filepath"

// Mode selects how components are compiled and how script errors surface.
type Mode string

const (
	// ModeDevelopment compiles components per request with mtime-based
	// cache invalidation and renders script errors as in-page error
	// documents.
	ModeDevelopment Mode = "development"

	// ModeProduction loads a prebuilt server bundle once and propagates
	// script errors to the caller.
	ModeProduction Mode = "production"
)

// Config holds renderer configuration.
type Config struct {
	Mode Mode

	// AppDir is the component source root (development mode).
	AppDir string

	// BundlePath is the prebuilt server bundle (production mode).
	BundlePath string

	// ManifestPath is the JSON asset manifest written by the build step.
	// When the file is absent the default /bundle.js and /bundle.css asset
	// paths are used instead.
	ManifestPath string

	// MemoryLimitMB caps the engine heap. 0 means engine default.
	MemoryLimitMB int
}

func (c Config) withDefaults() Config {
	if c.Mode == "" {
		c.Mode = ModeDevelopment
	}
	if c.AppDir == "" {
		c.AppDir = "."
	}
	if c.BundlePath == "" {
		c.BundlePath = filepath.Join("dist", "bundle.server.js")
	}
	if c.ManifestPath == "" {
		c.ManifestPath = filepath.Join("dist", "manifest.json")
	}
	return c
}
