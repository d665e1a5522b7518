package pricing

import (
	"fmt"
	"sort"
	"strings"
)

// Model pairs a pricer with the way its Greeks are obtained.
type Model interface {
	Name() string
	Price(p Params, t OptionType) (float64, error)
	Greeks(p Params, t OptionType) (Greeks, error)
	// PriceAndGreeks returns both at the cost of the Greeks alone.
	PriceAndGreeks(p Params, t OptionType) (float64, Greeks, error)
}

const (
	ModelBlackScholes = "black-scholes"
	ModelCRR          = "crr"
)

var modelAliases = map[string]string{
	ModelBlackScholes: ModelBlackScholes,
	"bs":              ModelBlackScholes,
	"european":        ModelBlackScholes,
	ModelCRR:          ModelCRR,
	"binomial":        ModelCRR,
	"american":        ModelCRR,
}

// ModelNames lists the accepted model names, aliases included.
func ModelNames() []string {
	names := make([]string, 0, len(modelAliases))
	for name := range modelAliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewModel resolves name (or one of its aliases) to a Model configured with cfg.
func NewModel(name string, cfg Config) (Model, error) {
	switch modelAliases[strings.ToLower(strings.TrimSpace(name))] {
	case ModelBlackScholes:
		return BlackScholes{}, nil
	case ModelCRR:
		return NewCRR(cfg), nil
	}
	return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownModel, name, strings.Join(ModelNames(), ", "))
}

// BlackScholes is the European closed-form model with analytic Greeks.
type BlackScholes struct{}

func (BlackScholes) Name() string { return ModelBlackScholes }

func (BlackScholes) Price(p Params, t OptionType) (float64, error) {
	return BlackScholesPrice(p, t)
}

func (BlackScholes) Greeks(p Params, t OptionType) (Greeks, error) {
	return BlackScholesGreeks(p, t)
}

func (BlackScholes) PriceAndGreeks(p Params, t OptionType) (float64, Greeks, error) {
	price, err := BlackScholesPrice(p, t)
	if err != nil {
		return 0, Greeks{}, err
	}
	g, err := BlackScholesGreeks(p, t)
	if err != nil {
		return 0, Greeks{}, err
	}
	return price, g, nil
}

// CRR is the American binomial model; its Greeks are finite differences over
// full lattice re-evaluations.
type CRR struct {
	Lattice *Lattice
	FD      FiniteDifference
}

func NewCRR(cfg Config) CRR {
	return CRR{Lattice: NewLattice(cfg), FD: NewFiniteDifference(cfg)}
}

func (CRR) Name() string { return ModelCRR }

func (m CRR) Price(p Params, t OptionType) (float64, error) {
	return m.Lattice.Price(p, t)
}

func (m CRR) Greeks(p Params, t OptionType) (Greeks, error) {
	return m.FD.Greeks(m.Lattice.Price, p, t)
}

// PriceAndGreeks takes the price from the finite-difference baseline, so a
// full quote costs six lattice evaluations.
func (m CRR) PriceAndGreeks(p Params, t OptionType) (float64, Greeks, error) {
	return m.FD.PriceAndGreeks(m.Lattice.Price, p, t)
}

// Steps reports the lattice size used for p.
func (m CRR) Steps(p Params) (int, error) {
	return m.Lattice.Steps(p.Time)
}
