package pricing

import (
	"math"
)

// BlackScholesPrice calculates the price of a European option using the
// Black-Scholes-Merton model with a continuous dividend yield.
//
// Parameters:
//   - p: contract and market state (spot, strike, rate, dividend, vol, time)
//   - t: Call or Put
//
// Returns:
//
//	The theoretical price of the option, or ErrInvalidParams when p fails
//	validation.
func BlackScholesPrice(p Params, t OptionType) (float64, error) {
	if err := validate(p, t); err != nil {
		return 0, err
	}

	d1, d2 := d1d2(p)
	discS := p.Spot * math.Exp(-p.Dividend*p.Time)
	discK := p.Strike * math.Exp(-p.Rate*p.Time)

	var price float64
	if t == Call {
		price = discS*NormCDF(d1) - discK*NormCDF(d2)
	} else {
		price = discK*NormCDF(-d2) - discS*NormCDF(-d1)
	}
	return finite(price)
}

// BlackScholesGreeks returns the closed-form sensitivities of the European
// price. Theta is per year, Vega and Rho are per unit move in vol and rate.
func BlackScholesGreeks(p Params, t OptionType) (Greeks, error) {
	if err := validate(p, t); err != nil {
		return Greeks{}, err
	}

	d1, d2 := d1d2(p)
	sqrtT := math.Sqrt(p.Time)
	qDisc := math.Exp(-p.Dividend * p.Time)
	rDisc := math.Exp(-p.Rate * p.Time)
	pdf := NormPDF(d1)

	g := Greeks{
		Gamma: qDisc * pdf / (p.Spot * p.Vol * sqrtT),
		Vega:  p.Spot * qDisc * sqrtT * pdf,
	}
	decay := -p.Spot * pdf * p.Vol * qDisc / (2 * sqrtT)

	if t == Call {
		g.Delta = qDisc * NormCDF(d1)
		g.Theta = decay - p.Rate*p.Strike*rDisc*NormCDF(d2) + p.Dividend*p.Spot*qDisc*NormCDF(d1)
		g.Rho = p.Strike * p.Time * rDisc * NormCDF(d2)
	} else {
		g.Delta = qDisc * (NormCDF(d1) - 1)
		g.Theta = decay + p.Rate*p.Strike*rDisc*NormCDF(-d2) - p.Dividend*p.Spot*qDisc*NormCDF(-d1)
		g.Rho = -p.Strike * p.Time * rDisc * NormCDF(-d2)
	}

	for _, v := range []float64{g.Delta, g.Gamma, g.Theta, g.Vega, g.Rho} {
		if _, err := finite(v); err != nil {
			return Greeks{}, err
		}
	}
	return g, nil
}

func d1d2(p Params) (float64, float64) {
	volSqrtT := p.Vol * math.Sqrt(p.Time)
	d1 := (math.Log(p.Spot/p.Strike) + (p.Rate-p.Dividend+0.5*p.Vol*p.Vol)*p.Time) / volSqrtT
	return d1, d1 - volSqrtT
}

func finite(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNonFinite
	}
	return v, nil
}
