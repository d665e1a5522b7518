package pricing

import (
	"fmt"
	"math"
	"strings"
)

// OptionType selects the payoff direction of a contract.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType accepts "call"/"put" and the single-letter forms "c"/"p",
// case-insensitively.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return "", fmt.Errorf("%w: unknown option type %q", ErrInvalidParams, s)
}

// Valid reports whether t is one of Call or Put.
func (t OptionType) Valid() bool {
	return t == Call || t == Put
}

// payoff is the intrinsic value of the contract at underlying price s.
func (t OptionType) payoff(s, strike float64) float64 {
	if t == Call {
		return math.Max(s-strike, 0)
	}
	return math.Max(strike-s, 0)
}

// Params describes one option contract and the market state it is priced in.
//
// Rate, Dividend and Vol are annualised decimals (0.05 = 5%), Time is in years.
// Params is a value type: perturbations return modified copies.
type Params struct {
	Spot     float64 `json:"spot"`
	Strike   float64 `json:"strike"`
	Rate     float64 `json:"rate"`
	Dividend float64 `json:"dividend"`
	Vol      float64 `json:"vol"`
	Time     float64 `json:"time"`
}

// Validate checks that every field is finite, that Spot, Strike, Vol and
// Time are strictly positive and that Dividend is not negative.
func (p Params) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"spot", p.Spot},
		{"strike", p.Strike},
		{"rate", p.Rate},
		{"dividend", p.Dividend},
		{"vol", p.Vol},
		{"time", p.Time},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not finite (%v)", ErrInvalidParams, f.name, f.value)
		}
	}

	switch {
	case p.Spot <= 0:
		return fmt.Errorf("%w: spot must be positive, got %v", ErrInvalidParams, p.Spot)
	case p.Strike <= 0:
		return fmt.Errorf("%w: strike must be positive, got %v", ErrInvalidParams, p.Strike)
	case p.Vol <= 0:
		return fmt.Errorf("%w: vol must be positive, got %v", ErrInvalidParams, p.Vol)
	case p.Time <= 0:
		return fmt.Errorf("%w: time must be positive, got %v", ErrInvalidParams, p.Time)
	case p.Dividend < 0:
		return fmt.Errorf("%w: dividend must not be negative, got %v", ErrInvalidParams, p.Dividend)
	}
	return nil
}

func (p Params) WithSpot(spot float64) Params {
	p.Spot = spot
	return p
}

func (p Params) WithVol(vol float64) Params {
	p.Vol = vol
	return p
}

func (p Params) WithRate(rate float64) Params {
	p.Rate = rate
	return p
}

func (p Params) WithTime(time float64) Params {
	p.Time = time
	return p
}

// Greeks holds the first and second order sensitivities of an option price.
// Theta is the per-year decay rate, Vega and Rho are per unit (1.00) move.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

func validate(p Params, t OptionType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: unknown option type %q", ErrInvalidParams, string(t))
	}
	return p.Validate()
}
