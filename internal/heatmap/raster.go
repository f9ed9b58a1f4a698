package heatmap

import (
	"runtime"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/Kheng2023/SamYong2025/internal/geom"
)

// SkippedFeature records a feature dropped from a pass because of a
// geometry problem. The pass itself still succeeds.
type SkippedFeature struct {
	Index  int    `json:"index" doc:"Feature position in the input collection"`
	Reason string `json:"reason" doc:"Why the feature was skipped"`
}

// Result is a completed rasterization: the produced grid plus the
// diagnostics for any skipped features.
type Result struct {
	Grid    *Grid            `json:"grid"`
	Skipped []SkippedFeature `json:"skipped,omitempty"`
}

// weightedSample pairs a geometry sample with the multiplier resolved
// from the feature's properties.
type weightedSample struct {
	sample
	mult float64
}

// Rasterize accumulates every surviving feature of fc into a fresh grid
// according to cfg. Accumulation is additive across features and uses
// float64 throughout; the result is never normalized here.
//
// Configuration problems abort with no grid. Per-feature geometry
// problems skip that feature and are reported in Result.Skipped.
//
// Rows are processed in parallel, but each cell visits its candidate
// samples in collection order inside one goroutine, so output is
// bitwise reproducible across runs.
func Rasterize(fc *geojson.FeatureCollection, cfg ProcessingConfig) (*Result, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	decay, err := NewDecay(cfg.Decay)
	if err != nil {
		return nil, err
	}
	sc := newScorer(cfg)

	var (
		dist    []weightedSample
		masks   []weightedSample
		skipped []SkippedFeature
	)
	var features []*geojson.Feature
	if fc != nil {
		features = fc.Features
	}
	for i, f := range features {
		if f != nil && !sc.include(f.Properties) {
			continue
		}
		ss, err := extractSamples(i, f, cfg)
		if err != nil {
			skipped = append(skipped, SkippedFeature{Index: i, Reason: err.Error()})
			continue
		}
		mult := 1.0
		if f != nil {
			mult = sc.multiplier(f.Properties)
		}
		for _, s := range ss {
			ws := weightedSample{sample: s, mult: mult}
			if s.kind == sampleMask {
				masks = append(masks, ws)
			} else {
				dist = append(dist, ws)
			}
		}
	}

	bbox, err := resolveBBox(cfg, dist, masks)
	if err != nil {
		return nil, err
	}
	grid, err := NewGrid(cfg.Rows, cfg.Cols, bbox)
	if err != nil {
		return nil, err
	}

	// A finite-support decay lets an rtree prune distance samples that
	// cannot reach the cell. Masks are always visited: with
	// exclude_inside the far side of the polygon is the side that
	// accumulates.
	var index *geom.Index
	support := cfg.Decay.Support()
	if support > 0 && len(dist) > 0 {
		index = geom.NewIndex()
		for i, ws := range dist {
			index.Insert(i, ws.bound)
		}
	}
	keepInside := cfg.MaskMode != MaskExcludeInside

	rows := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < runtime.GOMAXPROCS(0); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for row := range rows {
				for col := 0; col < grid.Cols; col++ {
					center := grid.CellCenter(row, col)
					grid.Values[row*grid.Cols+col] = accumulate(center, dist, masks, index, support, keepInside, decay)
				}
			}
		}()
	}
	for row := 0; row < grid.Rows; row++ {
		rows <- row
	}
	close(rows)
	wg.Wait()

	return &Result{Grid: grid, Skipped: skipped}, nil
}

// accumulate sums every sample's contribution to one cell center.
func accumulate(center orb.Point, dist, masks []weightedSample, index *geom.Index, support float64, keepInside bool, decay DecayFunc) float64 {
	total := 0.0

	if index != nil {
		ids := index.Within(center, support)
		sort.Ints(ids) // fixed summation order for reproducibility
		for _, id := range ids {
			ws := dist[id]
			total += ws.mult * decay(ws.distanceKm(center))
		}
	} else {
		for _, ws := range dist {
			total += ws.mult * decay(ws.distanceKm(center))
		}
	}

	for _, ws := range masks {
		if ws.contains(center) == keepInside {
			total += ws.mult
		}
	}
	return total
}

// resolveBBox returns the configured extent or infers one from the
// sample bounds. An inferred extent that collapses to a point or line
// (a single point feature, say) is padded so the grid keeps area.
func resolveBBox(cfg ProcessingConfig, dist, masks []weightedSample) (BoundingBox, error) {
	if cfg.BBox != nil {
		return *cfg.BBox, nil
	}
	if len(dist) == 0 && len(masks) == 0 {
		return BoundingBox{}, &InvalidGridError{Reason: "cannot infer bounding box from an empty collection; supply one"}
	}

	first := true
	var b orb.Bound
	for _, ws := range dist {
		if first {
			b, first = ws.bound, false
		} else {
			b = b.Union(ws.bound)
		}
	}
	for _, ws := range masks {
		if first {
			b, first = ws.bound, false
		} else {
			b = b.Union(ws.bound)
		}
	}

	const pad = 0.1 // degrees
	bbox := BoundingBox{West: b.Min.Lon(), South: b.Min.Lat(), East: b.Max.Lon(), North: b.Max.Lat()}
	if bbox.East == bbox.West {
		bbox.West -= pad
		bbox.East += pad
	}
	if bbox.North == bbox.South {
		bbox.South -= pad
		bbox.North += pad
	}
	return bbox, nil
}
