package heatmap

import (
	"errors"
	"math"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func TestDecayUnityAtZero(t *testing.T) {
	configs := []DecayConfig{
		{Function: DecayExponential, Rate: fptr(0.5)},
		{Function: DecayLinearCutoff, Cutoff: 10},
		{Function: DecayPower, Exponent: 2},
	}
	for _, cfg := range configs {
		fn, err := NewDecay(cfg)
		if err != nil {
			t.Fatalf("%s: %v", cfg.Function, err)
		}
		if got := fn(0); math.Abs(got-1) > 1e-12 {
			t.Errorf("%s(0) = %v, want 1", cfg.Function, got)
		}
	}
}

func TestDecayMonotonicNonIncreasing(t *testing.T) {
	configs := []DecayConfig{
		{Function: DecayExponential, Rate: fptr(0.3)},
		{Function: DecayLinearCutoff, Cutoff: 5},
		{Function: DecayPower, Exponent: 1.5},
	}
	for _, cfg := range configs {
		fn, err := NewDecay(cfg)
		if err != nil {
			t.Fatalf("%s: %v", cfg.Function, err)
		}
		prev := fn(0)
		for d := 0.5; d <= 50; d += 0.5 {
			cur := fn(d)
			if cur > prev {
				t.Fatalf("%s increased from %v to %v at d=%v", cfg.Function, prev, cur, d)
			}
			if cur < 0 || cur > 1 {
				t.Fatalf("%s(%v) = %v outside [0,1]", cfg.Function, d, cur)
			}
			prev = cur
		}
	}
}

func TestLinearCutoffZeroBeyondCutoff(t *testing.T) {
	fn, err := NewDecay(DecayConfig{Function: DecayLinearCutoff, Cutoff: 3})
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range []float64{3, 3.0001, 10, 1e6} {
		if got := fn(d); got != 0 {
			t.Errorf("linear_cutoff(%v) = %v, want exactly 0", d, got)
		}
	}
	if got := fn(1.5); got != 0.5 {
		t.Errorf("linear_cutoff(1.5) = %v, want 0.5", got)
	}
}

func TestDecayNegativeDistanceClamped(t *testing.T) {
	fn, err := NewDecay(DecayConfig{Function: DecayPower, Exponent: 2})
	if err != nil {
		t.Fatal(err)
	}
	if got := fn(-5); got != 1 {
		t.Errorf("power(-5) = %v, want 1 (clamped to d=0)", got)
	}
}

func TestDecayInvalidParameters(t *testing.T) {
	cases := []DecayConfig{
		{Function: DecayExponential, Rate: fptr(-1)},
		{Function: DecayExponential, Rate: fptr(0)},
		{Function: DecayLinearCutoff, Cutoff: 0},
		{Function: DecayLinearCutoff, Cutoff: -2},
		{Function: DecayPower, Exponent: 0},
		{Function: "sigmoid"},
	}
	for _, cfg := range cases {
		_, err := NewDecay(cfg)
		var perr *InvalidParameterError
		if !errors.As(err, &perr) {
			t.Errorf("NewDecay(%+v) err = %v, want InvalidParameterError", cfg, err)
		}
	}
}

func TestDecaySupport(t *testing.T) {
	if s := (DecayConfig{Function: DecayLinearCutoff, Cutoff: 7}).Support(); s != 7 {
		t.Errorf("linear cutoff support = %v, want 7", s)
	}
	if s := (DecayConfig{Function: DecayExponential, Rate: fptr(1)}).Support(); s != 0 {
		t.Errorf("exponential support = %v, want 0 (infinite)", s)
	}
}

func TestExponentialOmittedRateDefaults(t *testing.T) {
	fn, err := NewDecay(DecayConfig{Function: DecayExponential})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := fn(1), math.Exp(-0.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("default rate decay(1) = %v, want %v", got, want)
	}
}
