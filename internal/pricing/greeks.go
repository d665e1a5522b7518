package pricing

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// PriceFunc is any pricer: the closed form, a lattice, or a test double.
type PriceFunc func(Params, OptionType) (float64, error)

// FiniteDifference derives Greeks from repeated evaluations of a pricer.
//
// One Greeks call costs a baseline price plus five perturbed prices. For the
// lattice this is the only source of American Greeks.
type FiniteDifference struct {
	Bumps Bumps
	// Parallel evaluates the six prices concurrently. Each evaluation is
	// independent, so the result is identical to the sequential path.
	Parallel bool
}

// NewFiniteDifference uses the bumps and parallelism of cfg.
func NewFiniteDifference(cfg Config) FiniteDifference {
	return FiniteDifference{Bumps: cfg.Bumps, Parallel: cfg.ParallelGreeks}
}

// Greeks computes delta and gamma by central differences in spot, vega and
// rho by forward differences, and theta by a backward difference in time
// (floored at Bumps.MinTime) reported as the per-year decay.
func (fd FiniteDifference) Greeks(price PriceFunc, p Params, t OptionType) (Greeks, error) {
	_, g, err := fd.PriceAndGreeks(price, p, t)
	return g, err
}

// PriceAndGreeks is Greeks that also returns the baseline price, so callers
// needing both pay for six evaluations instead of seven.
func (fd FiniteDifference) PriceAndGreeks(price PriceFunc, p Params, t OptionType) (float64, Greeks, error) {
	if err := validate(p, t); err != nil {
		return 0, Greeks{}, err
	}

	b := fd.Bumps
	hS := p.Spot * b.SpotPct
	if hS == 0 || hS*hS == 0 {
		return 0, Greeks{}, fmt.Errorf("%w: spot bump %v underflows for spot %v", ErrNonFinite, hS, p.Spot)
	}
	scenarios := [...]Params{
		p,
		p.WithSpot(p.Spot + hS),
		p.WithSpot(p.Spot - hS),
		p.WithVol(p.Vol + b.Vol),
		p.WithRate(p.Rate + b.Rate),
		p.WithTime(math.Max(p.Time-b.Time, b.MinTime)),
	}

	var prices [len(scenarios)]float64
	if fd.Parallel {
		var g errgroup.Group
		for i := range scenarios {
			i := i
			g.Go(func() error {
				v, err := price(scenarios[i], t)
				prices[i] = v
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return 0, Greeks{}, err
		}
	} else {
		for i, s := range scenarios {
			v, err := price(s, t)
			if err != nil {
				return 0, Greeks{}, err
			}
			prices[i] = v
		}
	}

	base, upS, downS, upVol, upRate, downT := prices[0], prices[1], prices[2], prices[3], prices[4], prices[5]
	g := Greeks{
		Delta: (upS - downS) / (2 * hS),
		Gamma: (upS - 2*base + downS) / (hS * hS),
		Theta: (downT - base) / b.Time,
		Vega:  (upVol - base) / b.Vol,
		Rho:   (upRate - base) / b.Rate,
	}

	named := []struct {
		name  string
		value float64
	}{
		{"price", base},
		{"delta", g.Delta},
		{"gamma", g.Gamma},
		{"theta", g.Theta},
		{"vega", g.Vega},
		{"rho", g.Rho},
	}
	for _, v := range named {
		if _, err := finite(v.value); err != nil {
			return 0, Greeks{}, fmt.Errorf("finite-difference %s: %w", v.name, err)
		}
	}
	return base, g, nil
}
