// Package pricing values vanilla equity options and their Greeks.
//
// Two models share one data model (Params, OptionType, Greeks):
//
//   - BlackScholesPrice / BlackScholesGreeks: closed-form European pricing
//     with analytic sensitivities.
//   - Lattice: a Cox-Ross-Rubinstein binomial tree for American exercise,
//     with an early-exercise check at every node.
//
// FiniteDifference turns any PriceFunc into Greeks by bumping spot, vol, rate
// and time. Every function here is pure: no state survives a call, and all
// entry points are safe for concurrent use.
//
// Example usage:
//
//	p := pricing.Params{Spot: 100, Strike: 100, Rate: 0.05, Dividend: 0.02, Vol: 0.2, Time: 0.5}
//	crr := pricing.NewCRR(pricing.DefaultConfig())
//	price, err := crr.Price(p, pricing.Put)
//	greeks, err := crr.Greeks(p, pricing.Put)
package pricing
