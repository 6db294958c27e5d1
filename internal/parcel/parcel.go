// Package parcel loads parcel boundaries from GeoJSON and KML files and
// synthesizes boundaries from a point plus an area.
package parcel

import (
	"encoding/xml"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"

	"github.com/landscore/score-cli/internal/geometry"
)

// FromGeoJSON reads the first polygon found in a GeoJSON document. It
// accepts a bare geometry, a Feature, or a FeatureCollection.
func FromGeoJSON(data []byte) (orb.Polygon, error) {
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		for _, f := range fc.Features {
			if poly, ok := polygonOf(f.Geometry); ok {
				return geometry.Normalize(poly)
			}
		}
		return nil, eris.New("parcel: feature collection contains no polygon")
	}
	if f, err := geojson.UnmarshalFeature(data); err == nil {
		if poly, ok := polygonOf(f.Geometry); ok {
			return geometry.Normalize(poly)
		}
		return nil, eris.New("parcel: feature geometry is not a polygon")
	}
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, eris.Wrap(err, "parcel: parse geojson")
	}
	if poly, ok := polygonOf(g.Geometry()); ok {
		return geometry.Normalize(poly)
	}
	return nil, eris.New("parcel: geometry is not a polygon")
}

func polygonOf(g orb.Geometry) (orb.Polygon, bool) {
	switch t := g.(type) {
	case orb.Polygon:
		return t, true
	case orb.MultiPolygon:
		if len(t) > 0 {
			return t[0], true
		}
	}
	return nil, false
}

type kmlDoc struct {
	Coordinates []string `xml:"Document>Placemark>Polygon>outerBoundaryIs>LinearRing>coordinates"`
	// Placemarks can also sit directly under <kml>.
	TopLevel []string `xml:"Placemark>Polygon>outerBoundaryIs>LinearRing>coordinates"`
}

// FromKML reads the outer ring of the first polygon placemark in a
// KML document.
func FromKML(r io.Reader) (orb.Polygon, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "parcel: read kml")
	}
	var doc kmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "parcel: parse kml")
	}

	coords := doc.Coordinates
	if len(coords) == 0 {
		coords = doc.TopLevel
	}
	if len(coords) == 0 {
		return nil, eris.New("parcel: kml contains no polygon placemark")
	}

	ring, err := parseKMLCoordinates(coords[0])
	if err != nil {
		return nil, err
	}
	return geometry.Normalize(orb.Polygon{ring})
}

// parseKMLCoordinates parses the "lon,lat[,alt]" whitespace-separated
// tuple list used inside <coordinates>.
func parseKMLCoordinates(s string) (orb.Ring, error) {
	var ring orb.Ring
	for _, tuple := range strings.Fields(s) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			return nil, eris.Errorf("parcel: malformed kml coordinate %q", tuple)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "parcel: kml longitude %q", parts[0])
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "parcel: kml latitude %q", parts[1])
		}
		ring = append(ring, orb.Point{lon, lat})
	}
	if len(ring) < 3 {
		return nil, eris.New("parcel: kml ring has fewer than 3 points")
	}
	return ring, nil
}

// SquareFromPointArea builds a square parcel centered on the point with
// the given area in sotkas (1 sotka = 100 square meters).
func SquareFromPointArea(lat, lon, areaSotka float64) (orb.Polygon, error) {
	if areaSotka <= 0 {
		return nil, eris.New("parcel: area must be positive")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, eris.Errorf("parcel: coordinates out of range: %.5f, %.5f", lat, lon)
	}

	side := math.Sqrt(areaSotka * 100)
	half := side / 2

	proj := geometry.NewProjector(lon, lat)
	c := proj.Forward(orb.Point{lon, lat})

	square := orb.Polygon{orb.Ring{
		{c[0] - half, c[1] - half},
		{c[0] + half, c[1] - half},
		{c[0] + half, c[1] + half},
		{c[0] - half, c[1] + half},
		{c[0] - half, c[1] - half},
	}}
	return proj.InversePolygon(square), nil
}
