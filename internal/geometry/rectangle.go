package geometry

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// convexHull returns the convex hull of the points in counter-clockwise
// order (Andrew monotone chain), without the closing duplicate vertex.
func convexHull(pts []orb.Point) []orb.Point {
	if len(pts) <= 2 {
		out := make([]orb.Point, len(pts))
		copy(out, pts)
		return out
	}

	sorted := make([]orb.Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	var lower []orb.Point
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	var upper []orb.Point
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// MinRotatedRectSides returns the two independent edge lengths of the
// polygon's minimum-area enclosing rectangle, smaller first. A degenerate
// polygon (collinear vertices) yields a zero-width rectangle.
func MinRotatedRectSides(poly orb.Polygon) (width, height float64) {
	var pts []orb.Point
	for _, ring := range poly {
		pts = append(pts, ring...)
	}
	hull := convexHull(pts)

	switch len(hull) {
	case 0:
		return 0, 0
	case 1:
		return 0, 0
	case 2:
		return 0, distPointPoint(hull[0], hull[1])
	}

	bestArea := math.Inf(1)
	for i := range hull {
		a := hull[i]
		b := hull[(i+1)%len(hull)]
		ex, ey := b[0]-a[0], b[1]-a[1]
		l := math.Hypot(ex, ey)
		if l == 0 {
			continue
		}
		ex, ey = ex/l, ey/l

		// Project all hull points onto the edge direction and its normal.
		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			u := (p[0]-a[0])*ex + (p[1]-a[1])*ey
			v := -(p[0]-a[0])*ey + (p[1]-a[1])*ex
			minU = math.Min(minU, u)
			maxU = math.Max(maxU, u)
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}

		w := maxU - minU
		h := maxV - minV
		if area := w * h; area < bestArea {
			bestArea = area
			width, height = w, h
		}
	}

	if width > height {
		width, height = height, width
	}
	return width, height
}
