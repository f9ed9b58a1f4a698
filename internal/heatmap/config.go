package heatmap

import "fmt"

// Polygon treatment modes.
const (
	PolygonMask     = "mask"
	PolygonCentroid = "centroid"
	PolygonBoundary = "boundary"
)

// Mask modes control which side of a mask polygon is suppressed.
const (
	MaskExcludeInside  = "exclude_inside"
	MaskExcludeOutside = "exclude_outside"
)

// Filter comparison operators.
const (
	OpEq       = "=="
	OpNeq      = "!="
	OpLt       = "<"
	OpLte      = "<="
	OpGt       = ">"
	OpGte      = ">="
	OpContains = "contains"
)

// FilterConfig is a single predicate over feature properties. Features
// whose property is missing or does not match are excluded from the pass.
type FilterConfig struct {
	Property string `json:"property" yaml:"property" required:"true" doc:"Property name to filter on" example:"region"`
	Operator string `json:"operator" yaml:"operator" enum:"==,!=,<,<=,>,>=,contains" default:"==" doc:"Comparison operator"`
	Value    any    `json:"value" yaml:"value" doc:"Comparison value (number or string)"`
}

// BoundingBox is an axis-aligned WGS84 extent in degrees.
type BoundingBox struct {
	West  float64 `json:"west" yaml:"west" doc:"Western longitude" example:"150"`
	South float64 `json:"south" yaml:"south" doc:"Southern latitude" example:"-34"`
	East  float64 `json:"east" yaml:"east" doc:"Eastern longitude" example:"152"`
	North float64 `json:"north" yaml:"north" doc:"Northern latitude" example:"-32"`
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%g,%g,%g,%g]", b.West, b.South, b.East, b.North)
}

// ProcessingConfig is the full per-request rasterization configuration.
// A zero Decay selects exponential with the default rate; a nil BBox is
// inferred from the feature extents.
type ProcessingConfig struct {
	Decay DecayConfig `json:"decay" yaml:"decay" doc:"Distance decay configuration"`

	Rows int `json:"rows,omitempty" yaml:"rows,omitempty" minimum:"1" maximum:"2000" doc:"Grid rows (default 50)"`
	Cols int `json:"cols,omitempty" yaml:"cols,omitempty" minimum:"1" maximum:"2000" doc:"Grid columns (default 50)"`

	BBox *BoundingBox `json:"bbox,omitempty" yaml:"bbox,omitempty" doc:"Grid extent; inferred from the features when omitted"`

	// WeightProperty names the property whose value is looked up in
	// Weights. The matched entry is a divisor: contribution is
	// decay(d) / divisor, so larger divisors shrink a feature's
	// influence. Unlisted values divide by 1.
	WeightProperty string             `json:"weightProperty,omitempty" yaml:"weight_property,omitempty" doc:"Property resolved against the weight table"`
	Weights        map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty" doc:"Property value to weight divisor"`

	Filter *FilterConfig `json:"filter,omitempty" yaml:"filter,omitempty" doc:"Optional single-predicate feature filter"`

	PolygonMode string `json:"polygonMode,omitempty" yaml:"polygon_mode,omitempty" enum:"mask,centroid,boundary" doc:"Polygon treatment (default mask)"`
	MaskMode    string `json:"maskMode,omitempty" yaml:"mask_mode,omitempty" enum:"exclude_inside,exclude_outside" doc:"Which side of mask polygons is suppressed (default exclude_outside)"`
}

// DefaultGridSize is the rows/cols resolution used when unspecified.
const DefaultGridSize = 50

// withDefaults returns a copy with resolution and mode defaults applied.
func (c ProcessingConfig) withDefaults() ProcessingConfig {
	if c.Rows == 0 {
		c.Rows = DefaultGridSize
	}
	if c.Cols == 0 {
		c.Cols = DefaultGridSize
	}
	if c.PolygonMode == "" {
		c.PolygonMode = PolygonMask
	}
	if c.MaskMode == "" {
		c.MaskMode = MaskExcludeOutside
	}
	return c
}

// Validate checks everything that must abort the request before any
// feature is touched.
func (c ProcessingConfig) Validate() error {
	if _, err := NewDecay(c.Decay); err != nil {
		return err
	}
	if c.Rows < 0 || c.Cols < 0 {
		return &InvalidGridError{Reason: "resolution must be positive"}
	}
	for value, div := range c.Weights {
		if div <= 0 {
			return &InvalidParameterError{
				Param:  "weights[" + value + "]",
				Reason: "weight divisor must be > 0",
			}
		}
	}
	if c.Filter != nil {
		switch c.Filter.Operator {
		case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpContains, "":
		default:
			return &InvalidParameterError{
				Param:  "filter.operator",
				Reason: "unknown operator " + c.Filter.Operator,
			}
		}
		if c.Filter.Property == "" {
			return &InvalidParameterError{Param: "filter.property", Reason: "must not be empty"}
		}
	}
	switch c.PolygonMode {
	case "", PolygonMask, PolygonCentroid, PolygonBoundary:
	default:
		return &InvalidParameterError{Param: "polygonMode", Reason: "unknown mode " + c.PolygonMode}
	}
	switch c.MaskMode {
	case "", MaskExcludeInside, MaskExcludeOutside:
	default:
		return &InvalidParameterError{Param: "maskMode", Reason: "unknown mode " + c.MaskMode}
	}
	return nil
}
