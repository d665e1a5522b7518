package pricing

import "errors"

// Every message is prefixed with "pricing:" so failures are easy to grep in logs.
// Callers match these with errors.Is; functions wrap them with the offending values.
var (
	// ErrInvalidParams is returned before any computation when a contract has a
	// non-finite field, a non-positive spot/strike/vol/time, a negative dividend
	// or an unknown option type.
	ErrInvalidParams = errors.New("pricing: invalid option parameters")

	// ErrProbabilityOutOfRange is returned by the lattice when the risk-neutral
	// up-probability falls outside [0,1]. The tree would still produce a number,
	// but it is not a probability-weighted expectation.
	ErrProbabilityOutOfRange = errors.New("pricing: risk-neutral probability outside [0,1]")

	// ErrNonFinite signals an overflow or NaN in an intermediate or final value.
	ErrNonFinite = errors.New("pricing: non-finite result")

	// ErrUnknownModel is returned by NewModel for an unregistered model name.
	ErrUnknownModel = errors.New("pricing: unknown model")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("pricing: invalid configuration")
)
