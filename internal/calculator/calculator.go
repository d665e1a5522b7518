// Package calculator is the application layer shared by the CLI and the
// HTTP API: it resolves models by name, prices single requests and books of
// contracts, and produces convergence studies.
package calculator

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/contactkeval/option-calc/internal/logger"
	"github.com/contactkeval/option-calc/internal/pricing"
)

// Request asks for the price and Greeks of one contract under one model.
type Request struct {
	ID     string             `json:"id,omitempty"`
	Model  string             `json:"model"`
	Type   pricing.OptionType `json:"type"`
	Params pricing.Params     `json:"params"`
}

// Quote is a fully priced request.
type Quote struct {
	ID     string             `json:"id,omitempty"`
	Model  string             `json:"model"`
	Type   pricing.OptionType `json:"type"`
	Params pricing.Params     `json:"params"`
	Price  float64            `json:"price"`
	Greeks pricing.Greeks     `json:"greeks"`
	Steps  int                `json:"steps,omitempty"` // lattice steps; 0 for closed form
}

// Result is one row of a batch: either a Quote or the error that row hit.
type Result struct {
	Request Request
	Quote   Quote
	Err     error
}

// ConvergencePoint compares the European-exercise lattice with the closed
// form at one step count.
type ConvergencePoint struct {
	Steps        int     `json:"steps"`
	Lattice      float64 `json:"lattice"`
	BlackScholes float64 `json:"black_scholes"`
	AbsError     float64 `json:"abs_error"`
}

type Calculator struct {
	cfg     pricing.Config
	workers int
}

// New validates cfg and returns a Calculator that prices batches with at
// most workers goroutines.
func New(cfg pricing.Config, workers int) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}
	return &Calculator{cfg: cfg, workers: workers}, nil
}

func (c *Calculator) Config() pricing.Config {
	return c.cfg
}

// Quote prices a single request.
func (c *Calculator) Quote(ctx context.Context, req Request) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}

	model, err := pricing.NewModel(req.Model, c.cfg)
	if err != nil {
		return Quote{}, err
	}

	start := time.Now()
	price, greeks, err := model.PriceAndGreeks(req.Params, req.Type)
	if err != nil {
		return Quote{}, fmt.Errorf("%s %s: %w", model.Name(), req.Type, err)
	}

	q := Quote{
		ID:     req.ID,
		Model:  model.Name(),
		Type:   req.Type,
		Params: req.Params,
		Price:  price,
		Greeks: greeks,
	}
	fields := logger.Fields{
		"id":      req.ID,
		"model":   q.Model,
		"type":    q.Type,
		"price":   q.Price,
		"elapsed": time.Since(start),
	}
	if crr, ok := model.(pricing.CRR); ok {
		// already priced with this many steps, so it cannot fail here
		q.Steps, _ = crr.Steps(req.Params)
		fields["steps"] = q.Steps
		fields["exercise"] = crr.Lattice.Exercise().String()
	}
	logger.WithFields(fields).Debug("quote")
	return q, nil
}

// Batch prices every request concurrently and returns results in input
// order. A failing row records its error and does not stop the others; only
// context cancellation fails the whole batch.
func (c *Calculator) Batch(ctx context.Context, reqs []Request) ([]Result, error) {
	results := make([]Result, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := range reqs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			q, err := c.Quote(ctx, reqs[i])
			results[i] = Result{Request: reqs[i], Quote: q, Err: err}
			if err != nil {
				logger.Warnf("batch row %d (%s): %v", i, reqs[i].ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.Infof("priced %d contracts (%d failed) with %d workers", len(reqs), failed, c.workers)
	return results, nil
}

// Converge prices p on European-exercise lattices of each size in steps and
// reports the distance to the closed-form price.
func (c *Calculator) Converge(p pricing.Params, t pricing.OptionType, steps []int) ([]ConvergencePoint, error) {
	bs, err := pricing.BlackScholesPrice(p, t)
	if err != nil {
		return nil, err
	}

	lattice := pricing.NewLattice(c.cfg).WithExercise(pricing.European)
	points := make([]ConvergencePoint, 0, len(steps))
	for _, n := range steps {
		price, err := lattice.PriceSteps(p, t, n)
		if err != nil {
			return nil, fmt.Errorf("%d steps: %w", n, err)
		}
		points = append(points, ConvergencePoint{
			Steps:        n,
			Lattice:      price,
			BlackScholes: bs,
			AbsError:     math.Abs(price - bs),
		})
	}
	return points, nil
}
