package core

// EngineConfig holds construction-time settings for a JS engine backend.
type EngineConfig struct {
	MemoryLimitMB int // per-runtime heap limit, 0 = engine default
}
