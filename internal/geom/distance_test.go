package geom

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestDistanceKmZero(t *testing.T) {
	p := orb.Point{151.2, -33.8}
	if d := DistanceKm(p, p); d != 0 {
		t.Fatalf("distance to self = %v, want 0", d)
	}
}

func TestDistanceKmSydneyMelbourne(t *testing.T) {
	syd := orb.Point{151.2093, -33.8688}
	mel := orb.Point{144.9631, -37.8136}
	d := DistanceKm(syd, mel)
	// Great-circle distance is roughly 714 km.
	if d < 700 || d > 730 {
		t.Fatalf("Sydney-Melbourne = %v km, want ~714", d)
	}
}

func TestPointToSegmentPerpendicular(t *testing.T) {
	// Horizontal segment along the equator, point 1 degree north of its middle.
	a := orb.Point{0, 0}
	b := orb.Point{2, 0}
	p := orb.Point{1, 1}

	d := PointToSegmentKm(p, a, b)
	want := DistanceKm(orb.Point{1, 0}, p)
	if math.Abs(d-want) > want*0.01 {
		t.Fatalf("perpendicular distance = %v, want ~%v", d, want)
	}
}

func TestPointToSegmentBeyondEndpoint(t *testing.T) {
	a := orb.Point{0, 0}
	b := orb.Point{1, 0}
	p := orb.Point{3, 0}

	d := PointToSegmentKm(p, a, b)
	want := DistanceKm(b, p)
	if math.Abs(d-want) > want*0.01 {
		t.Fatalf("endpoint distance = %v, want ~%v", d, want)
	}
}

func TestPointToSegmentDegenerate(t *testing.T) {
	a := orb.Point{10, 10}
	p := orb.Point{10, 11}
	d := PointToSegmentKm(p, a, a)
	want := DistanceKm(a, p)
	if math.Abs(d-want) > want*0.01 {
		t.Fatalf("degenerate segment distance = %v, want ~%v", d, want)
	}
}

func TestPointToLineNearestSegmentWins(t *testing.T) {
	// L-shaped polyline; the query point is close to the second segment,
	// far from both endpoints of the first.
	line := orb.LineString{{0, 0}, {4, 0}, {4, 4}}
	p := orb.Point{3.5, 2}

	d := PointToLineKm(p, line)
	want := PointToSegmentKm(p, line[1], line[2])
	if d != want {
		t.Fatalf("line distance = %v, want nearest segment %v", d, want)
	}
}

func TestIndexWithin(t *testing.T) {
	ix := NewIndex()
	near := orb.Point{151.0, -33.0}
	far := orb.Point{115.8, -31.9} // Perth, thousands of km away
	ix.Insert(0, orb.Bound{Min: near, Max: near})
	ix.Insert(1, orb.Bound{Min: far, Max: far})

	ids := ix.Within(orb.Point{151.1, -33.1}, 50)
	if len(ids) != 1 || ids[0] != 0 {
		t.Fatalf("Within returned %v, want [0]", ids)
	}
	if ix.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ix.Len())
	}
}
