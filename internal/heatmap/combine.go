package heatmap

// CombineMode selects the cell-wise algebra for merging grids.
type CombineMode string

const (
	CombineAdditive       CombineMode = "additive"
	CombineMultiplicative CombineMode = "multiplicative"
	CombineSubtractive    CombineMode = "subtractive"
	CombineWeighted       CombineMode = "weighted"
)

// Combine merges two or more same-shaped grids cell-wise into a new
// grid. It is a pure function: input grids are never mutated.
//
//	additive:       sum of all grids
//	multiplicative: product of all grids
//	subtractive:    first grid minus the sum of the rest
//	weighted:       sum of weight_i * grid_i; weights default to 1/N
//
// A single grid is allowed (additive identity). Any resolution or
// extent mismatch is a ShapeMismatchError with no partial result.
func Combine(grids []*Grid, mode CombineMode, weights []float64) (*Grid, error) {
	if len(grids) == 0 {
		return nil, &InvalidParameterError{Param: "grids", Reason: "at least one grid is required"}
	}
	ref := grids[0]
	if err := ref.Valid(); err != nil {
		return nil, err
	}
	for i, g := range grids[1:] {
		if err := g.Valid(); err != nil {
			return nil, err
		}
		if !ref.SameShape(g) {
			return nil, &ShapeMismatchError{Index: i + 1, Want: ref.Shape(), Got: g.Shape()}
		}
	}

	switch mode {
	case CombineWeighted:
		if weights == nil {
			weights = make([]float64, len(grids))
			for i := range weights {
				weights[i] = 1 / float64(len(grids))
			}
		}
		if len(weights) != len(grids) {
			return nil, &InvalidParameterError{Param: "weights", Reason: "must match the number of grids"}
		}
	case CombineAdditive, CombineMultiplicative, CombineSubtractive:
	default:
		return nil, &InvalidParameterError{Param: "mode", Reason: "unknown combine mode " + string(mode)}
	}

	out := &Grid{Rows: ref.Rows, Cols: ref.Cols, BBox: ref.BBox, Values: make([]float64, len(ref.Values))}
	for i := range out.Values {
		switch mode {
		case CombineAdditive:
			sum := 0.0
			for _, g := range grids {
				sum += g.Values[i]
			}
			out.Values[i] = sum
		case CombineMultiplicative:
			prod := 1.0
			for _, g := range grids {
				prod *= g.Values[i]
			}
			out.Values[i] = prod
		case CombineSubtractive:
			v := grids[0].Values[i]
			for _, g := range grids[1:] {
				v -= g.Values[i]
			}
			out.Values[i] = v
		case CombineWeighted:
			sum := 0.0
			for j, g := range grids {
				sum += weights[j] * g.Values[i]
			}
			out.Values[i] = sum
		}
	}
	return out, nil
}
