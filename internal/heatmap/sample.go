package heatmap

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/Kheng2023/SamYong2025/internal/geom"
)

type sampleKind int

const (
	samplePoint sampleKind = iota
	sampleLine
	sampleMask
)

// sample is one scorable unit extracted from a feature: a point, a
// polyline scored by nearest-segment distance, or a polygon mask.
// Multi* geometries contribute one sample per part.
type sample struct {
	kind    sampleKind
	point   orb.Point
	line    orb.LineString
	polygon orb.Polygon
	bound   orb.Bound
}

// distanceKm returns the geometry-appropriate distance from a cell
// center. Mask samples have no distance; callers must branch on kind.
func (s *sample) distanceKm(cell orb.Point) float64 {
	if s.kind == samplePoint {
		return geom.DistanceKm(cell, s.point)
	}
	return geom.PointToLineKm(cell, s.line)
}

// contains reports whether the cell center is inside a mask polygon,
// honoring holes.
func (s *sample) contains(cell orb.Point) bool {
	return planar.PolygonContains(s.polygon, cell)
}

// extractSamples validates one feature's geometry and decomposes it into
// samples. A malformed or unsupported geometry yields a GeometryError;
// the caller records it and moves on.
func extractSamples(idx int, f *geojson.Feature, cfg ProcessingConfig) ([]sample, error) {
	if f == nil || f.Geometry == nil {
		return nil, &GeometryError{Feature: idx, Reason: "missing geometry"}
	}
	return geometrySamples(idx, f.Geometry, cfg)
}

func geometrySamples(idx int, g orb.Geometry, cfg ProcessingConfig) ([]sample, error) {
	switch gg := g.(type) {
	case orb.Point:
		return []sample{pointSample(gg)}, nil

	case orb.MultiPoint:
		out := make([]sample, 0, len(gg))
		for _, p := range gg {
			out = append(out, pointSample(p))
		}
		return out, nil

	case orb.LineString:
		s, err := lineSample(idx, gg)
		if err != nil {
			return nil, err
		}
		return []sample{s}, nil

	case orb.MultiLineString:
		out := make([]sample, 0, len(gg))
		for _, ls := range gg {
			s, err := lineSample(idx, ls)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil

	case orb.Polygon:
		return polygonSamples(idx, gg, cfg)

	case orb.MultiPolygon:
		var out []sample
		for _, poly := range gg {
			ss, err := polygonSamples(idx, poly, cfg)
			if err != nil {
				return nil, err
			}
			out = append(out, ss...)
		}
		return out, nil
	}
	return nil, &GeometryError{Feature: idx, Reason: "unsupported geometry type " + g.GeoJSONType()}
}

func pointSample(p orb.Point) sample {
	return sample{kind: samplePoint, point: p, bound: orb.Bound{Min: p, Max: p}}
}

func lineSample(idx int, ls orb.LineString) (sample, error) {
	if len(ls) < 2 {
		return sample{}, &GeometryError{Feature: idx, Reason: "linestring needs at least 2 coordinates"}
	}
	return sample{kind: sampleLine, line: ls, bound: ls.Bound()}, nil
}

func polygonSamples(idx int, poly orb.Polygon, cfg ProcessingConfig) ([]sample, error) {
	if len(poly) == 0 || len(poly[0]) < 4 {
		return nil, &GeometryError{Feature: idx, Reason: "polygon exterior ring needs at least 4 coordinates"}
	}
	for _, ring := range poly {
		if !ring.Closed() {
			return nil, &GeometryError{Feature: idx, Reason: "polygon ring is not closed"}
		}
	}

	switch cfg.PolygonMode {
	case PolygonCentroid:
		// Density-style degradation: the polygon collapses to its
		// area-weighted centroid.
		c, _ := planar.CentroidArea(poly)
		return []sample{pointSample(c)}, nil
	case PolygonBoundary:
		// Every ring boundary contributes, holes included.
		out := make([]sample, 0, len(poly))
		for _, ring := range poly {
			ls := orb.LineString(ring)
			out = append(out, sample{kind: sampleLine, line: ls, bound: ls.Bound()})
		}
		return out, nil
	default:
		return []sample{{kind: sampleMask, polygon: poly, bound: poly.Bound()}}, nil
	}
}
