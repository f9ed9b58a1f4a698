package heatmap

import "fmt"

// GeometryError reports a malformed or unsupported feature geometry.
// It is recovered locally: the feature is skipped and the pass continues.
type GeometryError struct {
	Feature int
	Reason  string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("feature %d: %s", e.Feature, e.Reason)
}

// InvalidParameterError reports an out-of-domain configuration value,
// such as a non-positive decay rate. It aborts the whole request.
type InvalidParameterError struct {
	Param  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Reason)
}

// InvalidGridError reports a degenerate bounding box or non-positive
// resolution. It aborts the whole request.
type InvalidGridError struct {
	Reason string
}

func (e *InvalidGridError) Error() string {
	return "invalid grid: " + e.Reason
}

// ShapeMismatchError reports grids with incompatible shapes passed to
// Combine. No partial result is produced.
type ShapeMismatchError struct {
	Index int
	Want  string
	Got   string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("grid %d shape %s does not match %s", e.Index, e.Got, e.Want)
}
