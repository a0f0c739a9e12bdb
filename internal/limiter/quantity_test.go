package limiter

import (
	"math"
	"testing"
)

func TestNormalizeExamples(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		minimum   int
		step      int
		want      int
	}{
		{name: "below minimum clamps", requested: 3, minimum: 5, step: 5, want: 5},
		{name: "aligned passes through", requested: 10, minimum: 5, step: 5, want: 10},
		{name: "rounds up to step", requested: 7, minimum: 5, step: 5, want: 10},
		{name: "unaligned minimum rounds past floor", requested: 1, minimum: 7, step: 5, want: 10},
		{name: "step one is a no-op", requested: 13, minimum: 5, step: 1, want: 13},
		{name: "zero step treated as one", requested: 6, minimum: 5, step: 0, want: 6},
		{name: "negative step treated as one", requested: 2, minimum: 4, step: -3, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.requested, tt.minimum, tt.step); got != tt.want {
				t.Fatalf("Normalize(%d, %d, %d) = %d, want %d", tt.requested, tt.minimum, tt.step, got, tt.want)
			}
		})
	}
}

func TestNormalizeProperties(t *testing.T) {
	for step := 1; step <= 7; step++ {
		for minimum := 1; minimum <= 25; minimum++ {
			for requested := -5; requested <= 60; requested++ {
				got := Normalize(requested, minimum, step)
				if got < minimum {
					t.Fatalf("Normalize(%d, %d, %d) = %d below minimum", requested, minimum, step, got)
				}
				if got%step != 0 {
					t.Fatalf("Normalize(%d, %d, %d) = %d not a multiple of step", requested, minimum, step, got)
				}
				if again := Normalize(got, minimum, step); again != got {
					t.Fatalf("Normalize not idempotent for (%d, %d, %d): %d then %d", requested, minimum, step, got, again)
				}
				if requested >= minimum && requested%step == 0 && got != requested {
					t.Fatalf("compliant quantity %d changed to %d (min=%d step=%d)", requested, got, minimum, step)
				}
			}
		}
	}
}

func TestNormalizeSaturatesNearMaxInt(t *testing.T) {
	for _, tt := range []struct{ requested, minimum, step int }{
		{requested: math.MaxInt, minimum: 5, step: 5},
		{requested: math.MaxInt - 1, minimum: 20, step: 7},
		{requested: math.MaxInt, minimum: 1, step: 1},
		{requested: 3, minimum: math.MaxInt - 10, step: 4},
	} {
		got := Normalize(tt.requested, tt.minimum, tt.step)
		if got <= 0 || got%tt.step != 0 {
			t.Fatalf("Normalize(%d, %d, %d) = %d, want a positive multiple of step", tt.requested, tt.minimum, tt.step, got)
		}
		if tt.requested >= tt.minimum && got < tt.requested-tt.step {
			t.Fatalf("Normalize(%d, %d, %d) = %d drifted more than one step from the request", tt.requested, tt.minimum, tt.step, got)
		}
		if tt.requested >= tt.minimum && got < tt.minimum {
			t.Fatalf("Normalize(%d, %d, %d) = %d below minimum", tt.requested, tt.minimum, tt.step, got)
		}
	}
}

func TestAddQuantitiesSaturates(t *testing.T) {
	if got := AddQuantities(math.MaxInt-1, 5); got != math.MaxInt {
		t.Fatalf("expected saturation at MaxInt, got %d", got)
	}
	if got := AddQuantities(10, 5); got != 15 {
		t.Fatalf("expected 15, got %d", got)
	}
	if got := AddQuantities(10, -3); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}

func TestCanDecrementBelow(t *testing.T) {
	for step := 1; step <= 6; step++ {
		for minimum := 1; minimum <= 20; minimum++ {
			for current := 0; current <= 40; current++ {
				got := CanDecrementBelow(current, minimum, step)
				if current-step < minimum && got {
					t.Fatalf("CanDecrementBelow(%d, %d, %d) should be false", current, minimum, step)
				}
				if current-step >= minimum && !got {
					t.Fatalf("CanDecrementBelow(%d, %d, %d) should be true", current, minimum, step)
				}
			}
		}
	}

	if CanDecrementBelow(5, 5, 5) {
		t.Fatal("minus control must be disabled at the floor")
	}
	if !CanDecrementBelow(10, 5, 5) {
		t.Fatal("minus control must be enabled one step above the floor")
	}
}

func TestEnforcedMinimum(t *testing.T) {
	tests := []struct {
		min, inCart, want int
	}{
		{min: 5, inCart: 0, want: 5},
		{min: 5, inCart: 3, want: 2},
		{min: 5, inCart: 4, want: 1},
		{min: 5, inCart: 5, want: 1},
		{min: 5, inCart: 12, want: 1},
		{min: 1, inCart: 0, want: 1},
	}
	for _, tt := range tests {
		if got := EnforcedMinimum(tt.min, tt.inCart); got != tt.want {
			t.Fatalf("EnforcedMinimum(%d, %d) = %d, want %d", tt.min, tt.inCart, got, tt.want)
		}
	}
}

func TestStepConforms(t *testing.T) {
	if StepConforms(7, 5) {
		t.Fatal("7 is not a multiple of 5")
	}
	if !StepConforms(0, 5) || !StepConforms(15, 5) {
		t.Fatal("0 and 15 are multiples of 5")
	}
	if !StepConforms(7, 0) {
		t.Fatal("zero step accepts everything")
	}
}
