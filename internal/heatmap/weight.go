package heatmap

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// scorer resolves a feature's properties to a scalar multiplier: 0 when
// the feature is filtered out, otherwise 1/divisor from the weight table.
type scorer struct {
	filter         *FilterConfig
	weightProperty string
	weights        map[string]float64
}

func newScorer(c ProcessingConfig) scorer {
	return scorer{
		filter:         c.Filter,
		weightProperty: c.WeightProperty,
		weights:        c.Weights,
	}
}

// include reports whether the feature survives the filter. A missing
// property on a filtered feature is a non-match, not an error.
func (s scorer) include(props geojson.Properties) bool {
	if s.filter == nil {
		return true
	}
	val, ok := props[s.filter.Property]
	if !ok {
		return false
	}
	op := s.filter.Operator
	if op == "" {
		op = OpEq
	}
	return compare(val, op, s.filter.Value)
}

// multiplier returns the contribution multiplier for a surviving
// feature. Values absent from the weight table divide by 1.
func (s scorer) multiplier(props geojson.Properties) float64 {
	if s.weightProperty == "" || len(s.weights) == 0 {
		return 1
	}
	val, ok := props[s.weightProperty]
	if !ok {
		return 1
	}
	div, ok := s.weights[stringify(val)]
	if !ok {
		return 1
	}
	return 1 / div
}

// compare evaluates `a <op> b`, preferring numeric comparison when both
// sides parse as numbers and falling back to string comparison.
func compare(a any, op string, b any) bool {
	if op == OpContains {
		return strings.Contains(stringify(a), stringify(b))
	}

	na, aNum := toFloat(a)
	nb, bNum := toFloat(b)
	if aNum && bNum {
		switch op {
		case OpEq:
			return na == nb
		case OpNeq:
			return na != nb
		case OpLt:
			return na < nb
		case OpLte:
			return na <= nb
		case OpGt:
			return na > nb
		case OpGte:
			return na >= nb
		}
		return false
	}

	sa, sb := stringify(a), stringify(b)
	switch op {
	case OpEq:
		return sa == sb
	case OpNeq:
		return sa != sb
	case OpLt:
		return sa < sb
	case OpLte:
		return sa <= sb
	case OpGt:
		return sa > sb
	case OpGte:
		return sa >= sb
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}
