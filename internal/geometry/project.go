// Package geometry provides the planar geometry and UTM projection helpers
// used by the parcel analysis pipeline. All inputs are geographic lon/lat
// (WGS84); projected coordinates are metres in a zone-local transverse
// Mercator system so that areas, lengths, and distances are metric.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// WGS84 ellipsoid.
const (
	wgs84A = 6378137.0           // semi-major axis, metres
	wgs84F = 1 / 298.257223563   // flattening
	utmK0  = 0.9996              // UTM scale factor on the central meridian
	utmFE  = 500000.0            // false easting, metres
	utmFN  = 10000000.0          // false northing (southern hemisphere), metres
)

// Zone identifies a 6-degree UTM longitudinal zone and hemisphere.
type Zone struct {
	Number int
	South  bool
}

// ZoneFor selects the UTM zone for a geographic location. It is total: any
// real longitude maps through the same formula, out-of-range input is a
// caller contract violation and is not validated here.
func ZoneFor(lon, lat float64) Zone {
	return Zone{
		Number: int(math.Floor((lon+180)/6)) + 1,
		South:  lat < 0,
	}
}

// EPSG returns the EPSG code of the zone (326xx north, 327xx south).
func (z Zone) EPSG() int {
	if z.South {
		return 32700 + z.Number
	}
	return 32600 + z.Number
}

// centralMeridian returns the zone's central meridian in degrees.
func (z Zone) centralMeridian() float64 {
	return float64(z.Number-1)*6 - 180 + 3
}

// Projector converts between geographic lon/lat and zone-local UTM metres.
// Forward and Inverse are exact geometric inverses up to floating-point
// reprojection error (well under 1e-6 degrees for round trips).
type Projector struct {
	zone Zone
	lam0 float64 // central meridian, radians

	// Derived ellipsoid terms.
	e2  float64 // first eccentricity squared
	ep2 float64 // second eccentricity squared
	e1  float64 // series term for the inverse footpoint latitude
}

// NewProjector builds a Projector for the zone containing lon/lat.
func NewProjector(lon, lat float64) *Projector {
	return NewZoneProjector(ZoneFor(lon, lat))
}

// NewZoneProjector builds a Projector for an explicit zone.
func NewZoneProjector(z Zone) *Projector {
	e2 := wgs84F * (2 - wgs84F)
	sqrt1e2 := math.Sqrt(1 - e2)
	return &Projector{
		zone: z,
		lam0: z.centralMeridian() * math.Pi / 180,
		e2:   e2,
		ep2:  e2 / (1 - e2),
		e1:   (1 - sqrt1e2) / (1 + sqrt1e2),
	}
}

// Zone returns the projector's UTM zone.
func (p *Projector) Zone() Zone { return p.zone }

// meridionalArc returns the distance along the meridian from the equator to
// latitude phi (radians).
func (p *Projector) meridionalArc(phi float64) float64 {
	e2 := p.e2
	e4 := e2 * e2
	e6 := e4 * e2
	return wgs84A * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// Forward projects a geographic point (lon, lat in degrees) to UTM metres.
func (p *Projector) Forward(pt orb.Point) orb.Point {
	phi := pt[1] * math.Pi / 180
	lam := pt[0] * math.Pi / 180

	sinPhi, cosPhi := math.Sincos(phi)
	tanPhi := sinPhi / cosPhi

	n := wgs84A / math.Sqrt(1-p.e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := p.ep2 * cosPhi * cosPhi
	a := (lam - p.lam0) * cosPhi
	m := p.meridionalArc(phi)

	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	x := utmK0*n*(a+(1-t+c)*a3/6+(5-18*t+t*t+72*c-58*p.ep2)*a5/120) + utmFE
	y := utmK0 * (m + n*tanPhi*(a2/2+
		(5-t+9*c+4*c*c)*a4/24+
		(61-58*t+t*t+600*c-330*p.ep2)*a6/720))
	if p.zone.South {
		y += utmFN
	}
	return orb.Point{x, y}
}

// Inverse converts a UTM point (easting, northing in metres) back to
// geographic lon/lat degrees.
func (p *Projector) Inverse(pt orb.Point) orb.Point {
	x := pt[0] - utmFE
	y := pt[1]
	if p.zone.South {
		y -= utmFN
	}

	e2 := p.e2
	e4 := e2 * e2
	e6 := e4 * e2
	m := y / utmK0
	mu := m / (wgs84A * (1 - e2/4 - 3*e4/64 - 5*e6/256))

	e1 := p.e1
	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinPhi1, cosPhi1 := math.Sincos(phi1)
	tanPhi1 := sinPhi1 / cosPhi1

	c1 := p.ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	oneMinus := 1 - e2*sinPhi1*sinPhi1
	n1 := wgs84A / math.Sqrt(oneMinus)
	r1 := wgs84A * (1 - e2) / (oneMinus * math.Sqrt(oneMinus))
	d := x / (n1 * utmK0)

	d2 := d * d
	d3 := d2 * d
	d4 := d3 * d
	d5 := d4 * d
	d6 := d5 * d

	phi := phi1 - (n1*tanPhi1/r1)*(d2/2-
		(5+3*t1+10*c1-4*c1*c1-9*p.ep2)*d4/24+
		(61+90*t1+298*c1+45*t1*t1-252*p.ep2-3*c1*c1)*d6/720)
	lam := p.lam0 + (d-
		(1+2*t1+c1)*d3/6+
		(5-2*c1+28*t1-3*c1*c1+8*p.ep2+24*t1*t1)*d5/120)/cosPhi1

	return orb.Point{lam * 180 / math.Pi, phi * 180 / math.Pi}
}

// ForwardRing projects every vertex of a ring.
func (p *Projector) ForwardRing(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r))
	for i, pt := range r {
		out[i] = p.Forward(pt)
	}
	return out
}

// ForwardPolygon projects every ring of a polygon.
func (p *Projector) ForwardPolygon(poly orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, len(poly))
	for i, r := range poly {
		out[i] = p.ForwardRing(r)
	}
	return out
}

// InversePolygon unprojects every ring of a polygon.
func (p *Projector) InversePolygon(poly orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, len(poly))
	for i, r := range poly {
		ring := make(orb.Ring, len(r))
		for j, pt := range r {
			ring[j] = p.Inverse(pt)
		}
		out[i] = ring
	}
	return out
}

// ForwardGeometry projects the geometry kinds produced by the feature
// classifier. Unsupported kinds are returned unchanged.
func (p *Projector) ForwardGeometry(g orb.Geometry) orb.Geometry {
	switch v := g.(type) {
	case orb.Point:
		return p.Forward(v)
	case orb.LineString:
		out := make(orb.LineString, len(v))
		for i, pt := range v {
			out[i] = p.Forward(pt)
		}
		return out
	case orb.Ring:
		return p.ForwardRing(v)
	case orb.Polygon:
		return p.ForwardPolygon(v)
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(v))
		for i, poly := range v {
			out[i] = p.ForwardPolygon(poly)
		}
		return out
	default:
		return g
	}
}

// metresPerDegreeLat is the approximate length of one degree of latitude.
const metresPerDegreeLat = 111000.0

// ExpandBound grows a geographic bounding box by a metre margin, converting
// metres to degrees with the latitude-dependent metres-per-degree-longitude
// factor at the box centre. cos(lat) is floored at 0.1 so polar boxes stay
// finite.
func ExpandBound(b orb.Bound, meters float64) orb.Bound {
	lat := (b.Min[1] + b.Max[1]) / 2
	dLat := meters / metresPerDegreeLat
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.1 {
		cosLat = 0.1
	}
	dLon := meters / (metresPerDegreeLat * cosLat)
	return orb.Bound{
		Min: orb.Point{b.Min[0] - dLon, b.Min[1] - dLat},
		Max: orb.Point{b.Max[0] + dLon, b.Max[1] + dLat},
	}
}
