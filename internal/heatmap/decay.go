package heatmap

import "math"

// Decay function names accepted in DecayConfig.Function.
const (
	DecayExponential  = "exponential"
	DecayLinearCutoff = "linear_cutoff"
	DecayPower        = "power"
)

// DecayConfig selects a distance-decay function and its parameters.
// Distances are in kilometers.
type DecayConfig struct {
	Function string `json:"function" yaml:"function" enum:"exponential,linear_cutoff,power" default:"exponential" doc:"Decay function applied to cell-to-feature distance"`
	// Rate must be > 0 when set. Nil selects the default, which is why
	// this is a pointer: an explicit zero is a mistake worth rejecting.
	Rate     *float64 `json:"rate,omitempty" yaml:"rate,omitempty" doc:"Exponential decay rate per km, > 0 (exponential only; default 0.5)"`
	Cutoff   float64  `json:"cutoff,omitempty" yaml:"cutoff,omitempty" doc:"Distance in km beyond which weight is zero (linear_cutoff only)"`
	Exponent float64  `json:"exponent,omitempty" yaml:"exponent,omitempty" doc:"Power-law exponent (power only)"`
}

// DecayFunc maps a distance in kilometers to a weight in [0, 1]. All
// functions are monotonically non-increasing and return 1 at distance 0.
type DecayFunc func(km float64) float64

// Support returns the radius in kilometers beyond which the configured
// decay is exactly zero, or 0 if the decay never reaches zero. A finite
// support lets the rasterizer prune features with a spatial index.
func (c DecayConfig) Support() float64 {
	if c.Function == DecayLinearCutoff {
		return c.Cutoff
	}
	return 0
}

// NewDecay validates the config and returns the decay function.
// Negative distances cannot occur geometrically but are clamped to zero
// so a caller bug can never produce a weight above 1.
func NewDecay(c DecayConfig) (DecayFunc, error) {
	switch c.Function {
	case DecayExponential, "", "exp":
		rate := defaultDecayRate
		if c.Rate != nil {
			if *c.Rate <= 0 {
				return nil, &InvalidParameterError{Param: "rate", Reason: "must be > 0"}
			}
			rate = *c.Rate
		}
		return func(km float64) float64 {
			return math.Exp(-rate * math.Max(km, 0))
		}, nil

	case DecayLinearCutoff, "linear":
		if c.Cutoff <= 0 {
			return nil, &InvalidParameterError{Param: "cutoff", Reason: "must be > 0"}
		}
		cutoff := c.Cutoff
		return func(km float64) float64 {
			return math.Max(0, 1-math.Max(km, 0)/cutoff)
		}, nil

	case DecayPower, "inverse":
		if c.Exponent <= 0 {
			return nil, &InvalidParameterError{Param: "exponent", Reason: "must be > 0"}
		}
		exp := c.Exponent
		return func(km float64) float64 {
			return 1 / math.Pow(1+math.Max(km, 0), exp)
		}, nil
	}
	return nil, &InvalidParameterError{Param: "function", Reason: "unknown decay function " + c.Function}
}

// defaultDecayRate keeps an unparameterized exponential layer useful at
// metro scale: weight halves roughly every 1.4 km.
const defaultDecayRate = 0.5
