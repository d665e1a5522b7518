package calculator

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-calc/internal/logger"
	"github.com/contactkeval/option-calc/internal/pricing"
)

var atm = pricing.Params{Spot: 100, Strike: 100, Rate: 0.05, Dividend: 0.02, Vol: 0.2, Time: 0.5}

func newCalc(t *testing.T, workers int) *Calculator {
	t.Helper()
	c, err := New(pricing.DefaultConfig(), workers)
	require.NoError(t, err)
	return c
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := pricing.DefaultConfig()
	cfg.MinSteps = 0
	_, err := New(cfg, 4)
	assert.ErrorIs(t, err, pricing.ErrInvalidConfig)

	c, err := New(pricing.DefaultConfig(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, c.workers, "worker count is floored at one")
}

func TestQuoteBlackScholes(t *testing.T) {
	c := newCalc(t, 1)
	q, err := c.Quote(context.Background(), Request{ID: "a", Model: "bs", Type: pricing.Call, Params: atm})
	require.NoError(t, err)

	assert.Equal(t, "a", q.ID)
	assert.Equal(t, pricing.ModelBlackScholes, q.Model)
	assert.InDelta(t, 6.30763, q.Price, 1e-4)
	assert.Zero(t, q.Steps)
	assert.Greater(t, q.Greeks.Delta, 0.0)
}

func TestQuoteAmericanPut(t *testing.T) {
	c := newCalc(t, 1)
	q, err := c.Quote(context.Background(), Request{Model: "american", Type: pricing.Put, Params: atm})
	require.NoError(t, err)

	assert.Equal(t, pricing.ModelCRR, q.Model)
	assert.Equal(t, 200, q.Steps)
	assert.InDelta(t, 4.973093, q.Price, 1e-5)
	assert.InDelta(t, 0.051055, q.Greeks.Gamma, 1e-4)
	assert.Less(t, q.Greeks.Delta, 0.0)
}

func TestQuoteLogsLatticeShape(t *testing.T) {
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)
	prev := logger.GetLevel()
	require.NoError(t, logger.SetLevel("debug"))
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
		_ = logger.SetLevel(prev)
	})

	c := newCalc(t, 1)
	_, err := c.Quote(context.Background(), Request{Model: "crr", Type: pricing.Put, Params: atm})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "exercise=american")
	assert.Contains(t, buf.String(), "steps=200")

	buf.Reset()
	_, err = c.Quote(context.Background(), Request{Model: "bs", Type: pricing.Put, Params: atm})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "exercise=")
}

func TestQuoteErrors(t *testing.T) {
	c := newCalc(t, 1)
	ctx := context.Background()

	_, err := c.Quote(ctx, Request{Model: "trinomial", Type: pricing.Call, Params: atm})
	assert.ErrorIs(t, err, pricing.ErrUnknownModel)

	_, err = c.Quote(ctx, Request{Model: "crr", Type: pricing.Call, Params: atm.WithVol(-1)})
	assert.ErrorIs(t, err, pricing.ErrInvalidParams)

	_, err = c.Quote(ctx, Request{Model: "crr", Type: pricing.Put, Params: atm.WithTime(1e13)})
	assert.ErrorIs(t, err, pricing.ErrInvalidParams)

	_, err = c.Quote(ctx, Request{Model: "crr", Type: pricing.Put, Params: atm.WithSpot(1e-160)})
	assert.ErrorIs(t, err, pricing.ErrNonFinite)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = c.Quote(cancelled, Request{Model: "crr", Type: pricing.Call, Params: atm})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatchPreservesOrderAndRowErrors(t *testing.T) {
	c := newCalc(t, 3)
	reqs := []Request{
		{ID: "1", Model: "crr", Type: pricing.Put, Params: atm},
		{ID: "2", Model: "nope", Type: pricing.Put, Params: atm},
		{ID: "3", Model: "bs", Type: pricing.Call, Params: atm},
		{ID: "4", Model: "crr", Type: pricing.Call, Params: atm.WithSpot(0)},
		{ID: "5", Model: "bs", Type: pricing.Put, Params: atm},
	}

	results, err := c.Batch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, len(reqs))

	for i, r := range results {
		assert.Equal(t, reqs[i].ID, r.Request.ID)
	}
	assert.NoError(t, results[0].Err)
	assert.InDelta(t, 4.973093, results[0].Quote.Price, 1e-5)
	assert.ErrorIs(t, results[1].Err, pricing.ErrUnknownModel)
	assert.NoError(t, results[2].Err)
	assert.InDelta(t, 6.30763, results[2].Quote.Price, 1e-4)
	assert.ErrorIs(t, results[3].Err, pricing.ErrInvalidParams)
	assert.InDelta(t, 4.83364, results[4].Quote.Price, 1e-4)
}

func TestBatchMatchesSequentialQuotes(t *testing.T) {
	c := newCalc(t, 4)
	ctx := context.Background()

	var reqs []Request
	for _, spot := range []float64{80, 90, 100, 110, 120} {
		for _, typ := range []pricing.OptionType{pricing.Call, pricing.Put} {
			reqs = append(reqs, Request{Model: "crr", Type: typ, Params: atm.WithSpot(spot)})
		}
	}

	results, err := c.Batch(ctx, reqs)
	require.NoError(t, err)
	for i, r := range results {
		want, err := c.Quote(ctx, reqs[i])
		require.NoError(t, err)
		assert.Equal(t, want, r.Quote)
	}
}

func TestBatchCancelled(t *testing.T) {
	c := newCalc(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Batch(ctx, []Request{{Model: "bs", Type: pricing.Call, Params: atm}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvergeErrorShrinks(t *testing.T) {
	c := newCalc(t, 1)
	points, err := c.Converge(atm, pricing.Call, []int{50, 100, 200, 400, 800})
	require.NoError(t, err)
	require.Len(t, points, 5)

	for i, pt := range points {
		assert.InDelta(t, 6.30763, pt.BlackScholes, 1e-4)
		if i > 0 {
			assert.Less(t, pt.AbsError, points[i-1].AbsError, "steps=%d", pt.Steps)
		}
	}
	assert.Less(t, points[4].AbsError, 0.005)
}

func TestConvergeRejectsBadSteps(t *testing.T) {
	c := newCalc(t, 1)
	_, err := c.Converge(atm, pricing.Put, []int{100, 0})
	assert.ErrorIs(t, err, pricing.ErrInvalidParams)

	_, err = c.Converge(atm.WithTime(0), pricing.Put, []int{100})
	assert.ErrorIs(t, err, pricing.ErrInvalidParams)
}
