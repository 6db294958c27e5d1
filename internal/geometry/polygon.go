package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rotisserie/eris"
)

// Normalize validates a geographic polygon and returns a copy with every
// ring explicitly closed. A ring must contain at least 3 distinct vertices;
// anything less fails the whole request.
func Normalize(p orb.Polygon) (orb.Polygon, error) {
	if len(p) == 0 {
		return nil, eris.New("geometry: polygon has no rings")
	}
	out := make(orb.Polygon, len(p))
	for i, ring := range p {
		closed, err := CloseRing(ring)
		if err != nil {
			return nil, err
		}
		out[i] = closed
	}
	return out, nil
}

// CloseRing returns a copy of the ring with the first vertex appended when
// the ring is not already closed. It errors when the ring has fewer than 3
// distinct vertices.
func CloseRing(r orb.Ring) (orb.Ring, error) {
	distinct := make(map[orb.Point]struct{}, len(r))
	for _, pt := range r {
		distinct[pt] = struct{}{}
	}
	if len(distinct) < 3 {
		return nil, eris.Errorf("geometry: ring has %d distinct vertices, need at least 3", len(distinct))
	}
	out := make(orb.Ring, len(r))
	copy(out, r)
	if out[0] != out[len(out)-1] {
		out = append(out, out[0])
	}
	return out, nil
}

// Area returns the unsigned planar area of a polygon. On a projected polygon
// the result is square metres.
func Area(p orb.Polygon) float64 {
	a := planar.Area(p)
	if a < 0 {
		return -a
	}
	return a
}

// Centroid returns the area-weighted centroid of a polygon.
func Centroid(p orb.Polygon) orb.Point {
	c, _ := planar.CentroidArea(p)
	return c
}

// Contains reports whether the point lies inside the polygon (boundary
// counts as inside).
func Contains(p orb.Polygon, pt orb.Point) bool {
	return planar.PolygonContains(p, pt)
}

// RingValid reports whether a closed ring forms a usable area: enough
// vertices, non-zero area, and no self-intersection between non-adjacent
// edges. Degenerate rings are downgraded to lines by the feature classifier
// rather than dropped.
func RingValid(r orb.Ring) bool {
	if len(r) < 4 || r[0] != r[len(r)-1] {
		return false
	}
	if planar.Area(r) == 0 {
		return false
	}
	n := len(r) - 1 // edges, ignoring the closing duplicate vertex
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			// Adjacent edges share a vertex; the first and last edge are
			// adjacent through the ring closure.
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if segmentsIntersect(r[i], r[i+1], r[j], r[j+1]) {
				return false
			}
		}
	}
	return true
}
