package pricing

import (
	"fmt"
	"math"

	"github.com/contactkeval/option-calc/internal/logger"
)

// Exercise selects whether the lattice checks for early exercise.
type Exercise int

const (
	American Exercise = iota // early exercise allowed at every node
	European                 // continuation value only
)

func (e Exercise) String() string {
	if e == European {
		return "european"
	}
	return "american"
}

// Lattice prices options on a Cox-Ross-Rubinstein binomial tree.
//
// A Lattice is immutable after construction; Price allocates its own node
// buffer on every call, so one Lattice may be shared between goroutines.
type Lattice struct {
	minSteps     int
	maxSteps     int
	stepsPerYear float64
	exercise     Exercise
}

// NewLattice builds an American-exercise lattice using the step-count policy
// of cfg.
func NewLattice(cfg Config) *Lattice {
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Lattice{
		minSteps:     cfg.MinSteps,
		maxSteps:     maxSteps,
		stepsPerYear: cfg.StepsPerYear,
		exercise:     American,
	}
}

// WithExercise returns a copy of the lattice using exercise style e.
func (l *Lattice) WithExercise(e Exercise) *Lattice {
	cp := *l
	cp.exercise = e
	return &cp
}

// Exercise reports whether the lattice allows early exercise.
func (l *Lattice) Exercise() Exercise {
	return l.exercise
}

// Steps is the number of time steps used for a contract expiring in time
// years: max(minSteps, round(stepsPerYear × time)). A count above the
// configured maximum is reported as ErrInvalidParams.
func (l *Lattice) Steps(time float64) (int, error) {
	n := math.Round(l.stepsPerYear * time)
	if math.IsNaN(n) || n > float64(l.maxSteps) {
		return 0, fmt.Errorf("%w: time %v needs %v lattice steps, above the maximum of %d",
			ErrInvalidParams, time, n, l.maxSteps)
	}
	if int(n) < l.minSteps {
		return l.minSteps, nil
	}
	return int(n), nil
}

// Price values the option with the step count chosen by Steps.
func (l *Lattice) Price(p Params, t OptionType) (float64, error) {
	if err := validate(p, t); err != nil {
		return 0, err
	}
	n, err := l.Steps(p.Time)
	if err != nil {
		return 0, err
	}
	return l.price(p, t, n)
}

// PriceSteps values the option on a tree with exactly n steps, bypassing the
// step-count policy but not the maximum.
func (l *Lattice) PriceSteps(p Params, t OptionType, n int) (float64, error) {
	if err := validate(p, t); err != nil {
		return 0, err
	}
	if n < 1 || n > l.maxSteps {
		return 0, fmt.Errorf("%w: lattice steps must be within [1,%d], got %d", ErrInvalidParams, l.maxSteps, n)
	}
	return l.price(p, t, n)
}

func (l *Lattice) price(p Params, t OptionType, n int) (float64, error) {
	dt := p.Time / float64(n)
	u := math.Exp(p.Vol * math.Sqrt(dt))
	d := 1 / u
	prob := (math.Exp((p.Rate-p.Dividend)*dt) - d) / (u - d)
	disc := math.Exp(-p.Rate * dt)

	logger.Tracef("lattice %s %s: steps=%d u=%.8f d=%.8f p=%.8f", l.exercise, t, n, u, d, prob)

	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return 0, fmt.Errorf("%w: p=%v (steps=%d, vol=%v, rate=%v, dividend=%v)",
			ErrProbabilityOutOfRange, prob, n, p.Vol, p.Rate, p.Dividend)
	}

	// values[i] holds the option value at the node with i down-moves in the
	// current layer; each backward step overwrites it in place.
	values := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		s := p.Spot * math.Pow(u, float64(n-i)) * math.Pow(d, float64(i))
		values[i] = t.payoff(s, p.Strike)
	}

	for step := n; step > 0; step-- {
		for i := 0; i < step; i++ {
			cont := disc * (prob*values[i] + (1-prob)*values[i+1])
			if l.exercise == European {
				values[i] = cont
				continue
			}
			s := p.Spot * math.Pow(u, float64(step-1-i)) * math.Pow(d, float64(i))
			values[i] = math.Max(t.payoff(s, p.Strike), cont)
		}
	}

	if _, err := finite(values[0]); err != nil {
		return 0, fmt.Errorf("lattice with %d steps: %w", n, err)
	}
	return values[0], nil
}
