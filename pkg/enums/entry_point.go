package enums

import "fmt"

// EntryPoint names the storefront flow that triggered a limiter evaluation.
type EntryPoint string

const (
	EntryPointAddToCart      EntryPoint = "add_to_cart"
	EntryPointCart           EntryPoint = "cart"
	EntryPointQuantityChange EntryPoint = "quantity_change"
	EntryPointQuantityArgs   EntryPoint = "quantity_args"
)

var validEntryPoints = []EntryPoint{
	EntryPointAddToCart,
	EntryPointCart,
	EntryPointQuantityChange,
	EntryPointQuantityArgs,
}

// String implements fmt.Stringer.
func (e EntryPoint) String() string {
	return string(e)
}

// IsValid reports whether the value is known.
func (e EntryPoint) IsValid() bool {
	for _, candidate := range validEntryPoints {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEntryPoint converts raw input into an EntryPoint.
func ParseEntryPoint(value string) (EntryPoint, error) {
	for _, candidate := range validEntryPoints {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entry point %q", value)
}

// Outcome is the result label recorded for a limiter evaluation.
type Outcome string

const (
	OutcomeAllowed   Outcome = "allowed"
	OutcomeRejected  Outcome = "rejected"
	OutcomeCorrected Outcome = "corrected"
	OutcomeError     Outcome = "error"
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	return string(o)
}
