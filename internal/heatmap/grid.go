package heatmap

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Grid is a rasterized heatmap layer: a bounding box subdivided into
// Rows x Cols cells with one accumulated float64 per cell. Values are
// row-major with row 0 at the southern edge. A Grid is immutable once
// returned by Rasterize or Combine.
type Grid struct {
	Rows   int         `json:"rows" doc:"Number of grid rows"`
	Cols   int         `json:"cols" doc:"Number of grid columns"`
	BBox   BoundingBox `json:"bbox" doc:"Grid extent in WGS84 degrees"`
	Values []float64   `json:"values" doc:"Row-major cell values, row 0 at the southern edge"`
}

// NewGrid allocates an all-zero grid. Degenerate extents and
// non-positive resolutions are InvalidGridError.
func NewGrid(rows, cols int, bbox BoundingBox) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, &InvalidGridError{Reason: fmt.Sprintf("resolution %dx%d must be at least 1x1", rows, cols)}
	}
	if bbox.North == bbox.South || bbox.East == bbox.West {
		return nil, &InvalidGridError{Reason: "bounding box " + bbox.String() + " has zero area"}
	}
	if bbox.North < bbox.South || bbox.East < bbox.West {
		return nil, &InvalidGridError{Reason: "bounding box " + bbox.String() + " is inverted"}
	}
	return &Grid{
		Rows:   rows,
		Cols:   cols,
		BBox:   bbox,
		Values: make([]float64, rows*cols),
	}, nil
}

// CellWidth returns the cell width in degrees of longitude.
func (g *Grid) CellWidth() float64 {
	return (g.BBox.East - g.BBox.West) / float64(g.Cols)
}

// CellHeight returns the cell height in degrees of latitude.
func (g *Grid) CellHeight() float64 {
	return (g.BBox.North - g.BBox.South) / float64(g.Rows)
}

// CellCenter returns the representative point of a cell.
func (g *Grid) CellCenter(row, col int) orb.Point {
	return orb.Point{
		g.BBox.West + (float64(col)+0.5)*g.CellWidth(),
		g.BBox.South + (float64(row)+0.5)*g.CellHeight(),
	}
}

// At returns the accumulated value of a cell.
func (g *Grid) At(row, col int) float64 {
	return g.Values[row*g.Cols+col]
}

// CellAt returns the cell containing a point, or ok=false when the
// point lies outside the grid. Points on the north/east edge map to the
// last row/column.
func (g *Grid) CellAt(p orb.Point) (row, col int, ok bool) {
	if p.Lon() < g.BBox.West || p.Lon() > g.BBox.East ||
		p.Lat() < g.BBox.South || p.Lat() > g.BBox.North {
		return 0, 0, false
	}
	col = int((p.Lon() - g.BBox.West) / g.CellWidth())
	row = int((p.Lat() - g.BBox.South) / g.CellHeight())
	if col >= g.Cols {
		col = g.Cols - 1
	}
	if row >= g.Rows {
		row = g.Rows - 1
	}
	return row, col, true
}

// Max returns the largest cell value, or 0 for an all-zero grid.
func (g *Grid) Max() float64 {
	max := 0.0
	for _, v := range g.Values {
		if v > max {
			max = v
		}
	}
	return max
}

// Normalized returns a new grid with values scaled into [0, 1] by the
// observed maximum. The rasterizer never normalizes on its own: layers
// built at different times must keep comparable raw magnitudes for the
// combiner. This helper is for callers that want display-ready output.
func (g *Grid) Normalized() *Grid {
	out := &Grid{Rows: g.Rows, Cols: g.Cols, BBox: g.BBox, Values: make([]float64, len(g.Values))}
	max := g.Max()
	if max == 0 {
		return out
	}
	for i, v := range g.Values {
		out.Values[i] = v / max
	}
	return out
}

// SameShape reports whether two grids share resolution and extent.
func (g *Grid) SameShape(other *Grid) bool {
	return g.Rows == other.Rows && g.Cols == other.Cols && g.BBox == other.BBox
}

// Shape describes the grid for error messages.
func (g *Grid) Shape() string {
	return fmt.Sprintf("%dx%d%s", g.Rows, g.Cols, g.BBox.String())
}

// Valid checks a grid deserialized from external input.
func (g *Grid) Valid() error {
	if g.Rows < 1 || g.Cols < 1 {
		return &InvalidGridError{Reason: fmt.Sprintf("resolution %dx%d must be at least 1x1", g.Rows, g.Cols)}
	}
	if g.BBox.North <= g.BBox.South || g.BBox.East <= g.BBox.West {
		return &InvalidGridError{Reason: "bounding box " + g.BBox.String() + " has zero area"}
	}
	if len(g.Values) != g.Rows*g.Cols {
		return &InvalidGridError{Reason: fmt.Sprintf("%d values for a %dx%d grid", len(g.Values), g.Rows, g.Cols)}
	}
	for _, v := range g.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidGridError{Reason: "grid contains non-finite values"}
		}
	}
	return nil
}

// FeatureCollection exports the grid as GeoJSON raster points: one
// Point feature per cell center with a "value" property plus the cell
// indices, so shape, extent and values are all recoverable.
func (g *Grid) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			f := geojson.NewFeature(g.CellCenter(row, col))
			f.Properties["value"] = g.At(row, col)
			f.Properties["row"] = row
			f.Properties["col"] = col
			fc.Append(f)
		}
	}
	return fc
}
