package data

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/contactkeval/option-calc/internal/pricing"
)

// SyntheticContracts generates a reproducible book of n contracts around a
// random spot. The same seed always yields the same book. Models alternate
// between the lattice and the closed form so both are exercised.
func SyntheticContracts(n int, seed int64) []Contract {
	rng := rand.New(rand.NewSource(seed))
	spot := 50.0 + float64(rng.Intn(150))

	models := []string{pricing.ModelCRR, pricing.ModelBlackScholes}
	out := make([]Contract, 0, n)
	for i := 0; i < n; i++ {
		typ := pricing.Call
		if rng.Intn(2) == 1 {
			typ = pricing.Put
		}
		// strikes within roughly +/-20% of spot on a 2.5 grid
		strike := math.Round(spot*(0.8+0.4*rng.Float64())/2.5) * 2.5
		out = append(out, Contract{
			ID:       fmt.Sprintf("syn-%04d", i+1),
			Model:    models[i%len(models)],
			Type:     string(typ),
			Spot:     round(spot, 2),
			Strike:   math.Max(strike, 2.5),
			Rate:     round(0.01+0.05*rng.Float64(), 4),
			Dividend: round(0.03*rng.Float64(), 4),
			Vol:      round(0.1+0.5*rng.Float64(), 4),
			Time:     round(1.0/12+1.9*rng.Float64(), 4),
		})
		// random walk the underlying so the book is not a single-spot chain
		spot = math.Max(1, spot+rng.NormFloat64()*0.01*spot)
	}
	return out
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
