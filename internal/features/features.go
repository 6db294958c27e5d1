// Package features classifies raw map features into the typed geometry
// groups consumed by the parcel analyzer.
package features

import (
	"github.com/paulmach/orb"
)

// Element is one raw map feature as returned by the Overpass collaborator:
// a kind tag, key-value tags, and either a coordinate sequence (ways) or a
// point (nodes). Elements are read-only input and never mutated.
type Element struct {
	Type     string            `json:"type"` // "way" or "node"
	Tags     map[string]string `json:"tags,omitempty"`
	Geometry []LonLat          `json:"geometry,omitempty"`
	Lon      *float64          `json:"lon,omitempty"`
	Lat      *float64          `json:"lat,omitempty"`
}

// LonLat is a single geographic coordinate of a way geometry.
type LonLat struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Collection is the raw feature payload shape, {elements: [...]}.
type Collection struct {
	Elements []Element `json:"elements"`
}

// Groups holds one geometry list per semantic category. Order within a list
// follows input order. Substations are kept apart from power lines; the
// analyzer merges them for the power distance.
type Groups struct {
	RoadsMajor   []orb.Geometry
	RoadsAll     []orb.Geometry
	Water        []orb.Geometry
	Power        []orb.Geometry
	Substations  []orb.Geometry
	TransitStops []orb.Geometry
	Settlements  []orb.Geometry
	Rail         []orb.Geometry
	GasPipelines []orb.Geometry
	Industrial   []orb.Geometry
	Landfill     []orb.Geometry
	Wastewater   []orb.Geometry
	Cemetery     []orb.Geometry
}

// Empty reports whether no feature landed in any category.
func (g *Groups) Empty() bool {
	return g == nil || len(g.RoadsMajor)+len(g.RoadsAll)+len(g.Water)+
		len(g.Power)+len(g.Substations)+len(g.TransitStops)+
		len(g.Settlements)+len(g.Rail)+len(g.GasPipelines)+
		len(g.Industrial)+len(g.Landfill)+len(g.Wastewater)+
		len(g.Cemetery) == 0
}

// majorRoadClasses are the arterial highway classes; allRoadClasses adds the
// local and service tiers. The two tiers drive the road-distance fallback.
var majorRoadClasses = map[string]bool{
	"motorway":  true,
	"trunk":     true,
	"primary":   true,
	"secondary": true,
}

var allRoadClasses = map[string]bool{
	"motorway":     true,
	"trunk":        true,
	"primary":      true,
	"secondary":    true,
	"tertiary":     true,
	"unclassified": true,
	"residential":  true,
	"service":      true,
}
