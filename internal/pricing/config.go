package pricing

import (
	"fmt"
	"math"
)

// Defaults for the lattice step-count policy and the finite-difference bumps.
const (
	DefaultMinSteps     = 200
	DefaultMaxSteps     = 20000
	DefaultStepsPerYear = 365.0

	DefaultSpotBumpPct = 0.01
	DefaultVolBump     = 0.01
	DefaultRateBump    = 0.01
	DefaultTimeBump    = 1.0 / 365.0
	DefaultMinTime     = 1e-6
)

// Bumps are the perturbation sizes used by the finite-difference layer.
type Bumps struct {
	SpotPct float64 `yaml:"spot_pct" json:"spot_pct"` // fraction of spot, central differences
	Vol     float64 `yaml:"vol" json:"vol"`           // absolute vol points, forward difference
	Rate    float64 `yaml:"rate" json:"rate"`         // absolute rate, forward difference
	Time    float64 `yaml:"time" json:"time"`         // years, backward difference
	MinTime float64 `yaml:"min_time" json:"min_time"` // floor for time - Time
}

// Config holds every numeric tunable of the pricing package.
//
// The lattice uses N = max(MinSteps, round(StepsPerYear × time)) steps. Cost
// grows with N², so this is the accuracy/performance dial. Contracts that
// would need more than MaxSteps are rejected; zero means DefaultMaxSteps.
type Config struct {
	MinSteps       int     `yaml:"min_steps" json:"min_steps"`
	MaxSteps       int     `yaml:"max_steps" json:"max_steps"`
	StepsPerYear   float64 `yaml:"steps_per_year" json:"steps_per_year"`
	Bumps          Bumps   `yaml:"bumps" json:"bumps"`
	ParallelGreeks bool    `yaml:"parallel_greeks" json:"parallel_greeks"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MinSteps:     DefaultMinSteps,
		MaxSteps:     DefaultMaxSteps,
		StepsPerYear: DefaultStepsPerYear,
		Bumps:        DefaultBumps(),
	}
}

func DefaultBumps() Bumps {
	return Bumps{
		SpotPct: DefaultSpotBumpPct,
		Vol:     DefaultVolBump,
		Rate:    DefaultRateBump,
		Time:    DefaultTimeBump,
		MinTime: DefaultMinTime,
	}
}

// Validate rejects configurations that would make the lattice or the
// finite differences meaningless.
func (c Config) Validate() error {
	if c.MinSteps < 1 {
		return fmt.Errorf("%w: min_steps must be at least 1, got %d", ErrInvalidConfig, c.MinSteps)
	}
	if c.MaxSteps != 0 && c.MaxSteps < c.MinSteps {
		return fmt.Errorf("%w: max_steps must be 0 or at least min_steps (%d), got %d", ErrInvalidConfig, c.MinSteps, c.MaxSteps)
	}
	if !positive(c.StepsPerYear) && c.StepsPerYear != 0 {
		return fmt.Errorf("%w: steps_per_year must be >= 0, got %v", ErrInvalidConfig, c.StepsPerYear)
	}
	return c.Bumps.Validate()
}

func (b Bumps) Validate() error {
	bumps := []struct {
		name  string
		value float64
	}{
		{"spot_pct", b.SpotPct},
		{"vol", b.Vol},
		{"rate", b.Rate},
		{"time", b.Time},
		{"min_time", b.MinTime},
	}
	for _, bump := range bumps {
		if !positive(bump.value) {
			return fmt.Errorf("%w: bump %s must be positive and finite, got %v", ErrInvalidConfig, bump.name, bump.value)
		}
	}
	if b.SpotPct >= 1 {
		return fmt.Errorf("%w: bump spot_pct must be below 1, got %v", ErrInvalidConfig, b.SpotPct)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
