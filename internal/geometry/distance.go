package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// cross returns the z-component of (b-a) x (c-a).
func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// onSegment reports whether c lies on segment ab, assuming a, b, c are
// collinear.
func onSegment(a, b, c orb.Point) bool {
	return math.Min(a[0], b[0]) <= c[0] && c[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= c[1] && c[1] <= math.Max(a[1], b[1])
}

// segmentsIntersect reports whether segments a1a2 and b1b2 share a point.
func segmentsIntersect(a1, a2, b1, b2 orb.Point) bool {
	d1 := cross(b1, b2, a1)
	d2 := cross(b1, b2, a2)
	d3 := cross(a1, a2, b1)
	d4 := cross(a1, a2, b2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && onSegment(b1, b2, a1) {
		return true
	}
	if d2 == 0 && onSegment(b1, b2, a2) {
		return true
	}
	if d3 == 0 && onSegment(a1, a2, b1) {
		return true
	}
	if d4 == 0 && onSegment(a1, a2, b2) {
		return true
	}
	return false
}

// distPointPoint returns the Euclidean distance between two points.
func distPointPoint(a, b orb.Point) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}

// distPointSegment returns the distance from p to segment ab.
func distPointSegment(p, a, b orb.Point) float64 {
	abx, aby := b[0]-a[0], b[1]-a[1]
	l2 := abx*abx + aby*aby
	if l2 == 0 {
		return distPointPoint(p, a)
	}
	t := ((p[0]-a[0])*abx + (p[1]-a[1])*aby) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return distPointPoint(p, orb.Point{a[0] + t*abx, a[1] + t*aby})
}

// distSegmentSegment returns the distance between two segments, zero when
// they intersect.
func distSegmentSegment(a1, a2, b1, b2 orb.Point) float64 {
	if segmentsIntersect(a1, a2, b1, b2) {
		return 0
	}
	d := distPointSegment(a1, b1, b2)
	d = math.Min(d, distPointSegment(a2, b1, b2))
	d = math.Min(d, distPointSegment(b1, a1, a2))
	return math.Min(d, distPointSegment(b2, a1, a2))
}

// ringSegments calls fn for every edge of the ring.
func ringSegments(r orb.Ring, fn func(a, b orb.Point)) {
	for i := 0; i+1 < len(r); i++ {
		fn(r[i], r[i+1])
	}
}

// PointToPolygon returns the distance from a point to a polygon, zero when
// the point lies inside it.
func PointToPolygon(pt orb.Point, poly orb.Polygon) float64 {
	if Contains(poly, pt) {
		return 0
	}
	min := math.Inf(1)
	for _, ring := range poly {
		ringSegments(ring, func(a, b orb.Point) {
			if d := distPointSegment(pt, a, b); d < min {
				min = d
			}
		})
	}
	return min
}

// polygonToPath returns the distance from the polygon to an open or closed
// coordinate path, zero on any crossing or containment.
func polygonToPath(poly orb.Polygon, path []orb.Point) float64 {
	if len(path) == 0 {
		return math.Inf(1)
	}
	if len(path) == 1 {
		return PointToPolygon(path[0], poly)
	}
	// Any path vertex inside the polygon means contact.
	for _, pt := range path {
		if Contains(poly, pt) {
			return 0
		}
	}
	min := math.Inf(1)
	for i := 0; i+1 < len(path); i++ {
		for _, ring := range poly {
			ringSegments(ring, func(a, b orb.Point) {
				if d := distSegmentSegment(a, b, path[i], path[i+1]); d < min {
					min = d
				}
			})
		}
	}
	return min
}

// PolygonToGeometry returns the minimum planar distance from a polygon to a
// feature geometry (point, line, or closed area), zero on overlap. Both
// arguments must be in the same projected coordinate system.
func PolygonToGeometry(poly orb.Polygon, g orb.Geometry) float64 {
	switch v := g.(type) {
	case orb.Point:
		return PointToPolygon(v, poly)
	case orb.LineString:
		return polygonToPath(poly, []orb.Point(v))
	case orb.Ring:
		return polygonToPath(poly, []orb.Point(v))
	case orb.Polygon:
		if len(v) == 0 {
			return math.Inf(1)
		}
		// Overlap runs both ways: a parcel fully inside the area has no
		// vertex of the area inside it.
		for _, ring := range poly {
			for _, pt := range ring {
				if Contains(v, pt) {
					return 0
				}
			}
		}
		return polygonToPath(poly, []orb.Point(v[0]))
	case orb.MultiPolygon:
		min := math.Inf(1)
		for _, p := range v {
			if d := PolygonToGeometry(poly, p); d < min {
				min = d
			}
		}
		return min
	default:
		return math.Inf(1)
	}
}

// NearestDistance returns the minimum distance from the polygon to any
// geometry in the group, or nil when the group is empty. "No features in
// range" is represented as absence, never as a numeric sentinel.
func NearestDistance(poly orb.Polygon, group []orb.Geometry) *float64 {
	if len(group) == 0 {
		return nil
	}
	min := math.Inf(1)
	for _, g := range group {
		if d := PolygonToGeometry(poly, g); d < min {
			min = d
		}
	}
	if math.IsInf(min, 1) {
		return nil
	}
	return &min
}

// frontageStep is the boundary densification step used when measuring
// frontage, metres.
const frontageStep = 1.0

// Frontage measures the length of the polygon boundary lying within tol
// metres of any road geometry. It approximates the buffer-and-intersect
// construction by densifying each boundary edge and accumulating the pieces
// whose midpoint falls inside the road buffer.
func Frontage(poly orb.Polygon, roads []orb.Geometry, tol float64) float64 {
	if len(roads) == 0 {
		return 0
	}
	total := 0.0
	for _, ring := range poly {
		ringSegments(ring, func(a, b orb.Point) {
			length := distPointPoint(a, b)
			if length == 0 {
				return
			}
			n := int(math.Ceil(length / frontageStep))
			piece := length / float64(n)
			for i := 0; i < n; i++ {
				t := (float64(i) + 0.5) / float64(n)
				mid := orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
				if pointNearAny(mid, roads, tol) {
					total += piece
				}
			}
		})
	}
	return total
}

// pointNearAny reports whether the point is within tol of any geometry.
func pointNearAny(pt orb.Point, group []orb.Geometry, tol float64) bool {
	for _, g := range group {
		if pointToGeometry(pt, g) <= tol {
			return true
		}
	}
	return false
}

// pointToGeometry returns the distance from a point to a feature geometry.
func pointToGeometry(pt orb.Point, g orb.Geometry) float64 {
	switch v := g.(type) {
	case orb.Point:
		return distPointPoint(pt, v)
	case orb.LineString:
		return pointToPath(pt, []orb.Point(v))
	case orb.Ring:
		return pointToPath(pt, []orb.Point(v))
	case orb.Polygon:
		return PointToPolygon(pt, v)
	case orb.MultiPolygon:
		min := math.Inf(1)
		for _, p := range v {
			if d := PointToPolygon(pt, p); d < min {
				min = d
			}
		}
		return min
	default:
		return math.Inf(1)
	}
}

func pointToPath(pt orb.Point, path []orb.Point) float64 {
	if len(path) == 0 {
		return math.Inf(1)
	}
	if len(path) == 1 {
		return distPointPoint(pt, path[0])
	}
	min := math.Inf(1)
	for i := 0; i+1 < len(path); i++ {
		if d := distPointSegment(pt, path[i], path[i+1]); d < min {
			min = d
		}
	}
	return min
}
