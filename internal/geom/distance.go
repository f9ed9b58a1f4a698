// Package geom provides great-circle distance math and a spatial index
// used by the heatmap rasterizer.
package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusKm is the mean Earth radius in kilometers.
const EarthRadiusKm = 6371.0

func toRad(deg float64) float64 { return deg * math.Pi / 180.0 }

// DistanceKm returns the haversine distance between two WGS84 points
// in kilometers.
func DistanceKm(a, b orb.Point) float64 {
	dLat := toRad(b.Lat() - a.Lat())
	dLon := toRad(b.Lon() - a.Lon())
	lat1 := toRad(a.Lat())
	lat2 := toRad(b.Lat())

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// PointToSegmentKm returns the shortest distance in kilometers from point p
// to the segment ab, using an equirectangular projection around a. The
// projection is accurate at the scales a raster cell cares about.
func PointToSegmentKm(p, a, b orb.Point) float64 {
	cosLat := math.Cos(toRad(a.Lat()))
	ax := toRad(a.Lon()) * cosLat * EarthRadiusKm
	ay := toRad(a.Lat()) * EarthRadiusKm
	bx := toRad(b.Lon()) * cosLat * EarthRadiusKm
	by := toRad(b.Lat()) * EarthRadiusKm
	px := toRad(p.Lon()) * cosLat * EarthRadiusKm
	py := toRad(p.Lat()) * EarthRadiusKm

	dx := bx - ax
	dy := by - ay
	if dx == 0 && dy == 0 {
		return math.Hypot(px-ax, py-ay)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / (dx*dx + dy*dy)
	if t < 0 {
		return math.Hypot(px-ax, py-ay)
	}
	if t > 1 {
		return math.Hypot(px-bx, py-by)
	}
	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy))
}

// PointToLineKm returns the minimum distance in kilometers from p to any
// segment of the polyline. The polyline must have at least two vertices.
func PointToLineKm(p orb.Point, line orb.LineString) float64 {
	min := math.Inf(1)
	for i := 0; i < len(line)-1; i++ {
		if d := PointToSegmentKm(p, line[i], line[i+1]); d < min {
			min = d
		}
	}
	return min
}

// KmToDegrees converts a distance in kilometers to approximate degree
// deltas (lon, lat) at the given latitude. Used to turn a cutoff radius
// into a bounding-box query.
func KmToDegrees(km, lat float64) (dLon, dLat float64) {
	kmPerDegLat := EarthRadiusKm * math.Pi / 180.0
	kmPerDegLon := kmPerDegLat * math.Cos(toRad(lat))
	if kmPerDegLon < 1e-9 {
		kmPerDegLon = 1e-9
	}
	return km / kmPerDegLon, km / kmPerDegLat
}
