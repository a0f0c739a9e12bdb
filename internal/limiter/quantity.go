package limiter

import "math"

// MaxQuantity is the largest quantity accepted for a single cart request.
const MaxQuantity = 1_000_000

// Normalize clamps requested up to minimum, then rounds up to the next
// multiple of step. The result can exceed a minimum that is not step aligned.
// Near math.MaxInt it saturates at the largest multiple of step that fits.
func Normalize(requested, minimum, step int) int {
	step = effectiveStep(step)
	qty := requested
	if qty < minimum {
		qty = minimum
	}
	if rem := qty % step; rem != 0 {
		switch {
		case qty < 0:
			qty -= rem
		case qty > math.MaxInt-(step-rem):
			qty -= rem
		default:
			qty += step - rem
		}
	}
	return qty
}

// AddQuantities sums quantities, saturating at math.MaxInt.
func AddQuantities(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// CanDecrementBelow reports whether one more step down keeps current at or above minimum.
func CanDecrementBelow(current, minimum, step int) bool {
	return current-effectiveStep(step) >= minimum
}

// EnforcedMinimum is the product page floor once the cart already holds inCart units.
func EnforcedMinimum(minPerVariation, inCart int) int {
	if floor := minPerVariation - inCart; floor > 1 {
		return floor
	}
	return 1
}

// StepConforms reports whether qty is a whole multiple of step.
func StepConforms(qty, step int) bool {
	return qty%effectiveStep(step) == 0
}

func effectiveStep(step int) int {
	if step < 1 {
		return 1
	}
	return step
}
