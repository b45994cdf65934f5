package stress

import (
	"runtime"

	"github.com/df07/go-shape-kernel/pkg/core"
)

// DefaultMaxFailureRate is the largest fraction of spawned rays that may
// re-hit their own shape before a run is considered failed
const DefaultMaxFailureRate = 1e-4

// Config controls a stress run
type Config struct {
	Seeds      int   // Shape instances per case, one per seed
	RaysPerHit int   // Outgoing direction/target pairs traced from each hit
	NumWorkers int   // Parallel workers per case (0 = use CPU count)
	FirstSeed  int64 // Seed of the first instance; seeds are consecutive
	Logger     core.Logger
}

// DefaultConfig returns the full-strength configuration
func DefaultConfig() Config {
	return Config{
		Seeds:      1000,
		RaysPerHit: 10000,
		NumWorkers: runtime.NumCPU(),
		FirstSeed:  0,
		Logger:     core.NopLogger{},
	}
}

// MergeConfig fills every unset field of cfg from DefaultConfig
func MergeConfig(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Seeds <= 0 {
		cfg.Seeds = defaults.Seeds
	}
	if cfg.RaysPerHit <= 0 {
		cfg.RaysPerHit = defaults.RaysPerHit
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = defaults.NumWorkers
	}
	if cfg.Logger == nil {
		cfg.Logger = defaults.Logger
	}
	return cfg
}
