package features

import (
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/landscore/score-cli/internal/geometry"
)

// predicate decides whether an element belongs to a category.
type predicate func(kind string, tags map[string]string) bool

// rule binds one category to its tag predicate and the destination group.
type rule struct {
	name   string
	match  predicate
	target func(*Groups) *[]orb.Geometry
}

// rules is the fixed classification table, evaluated in this order for every
// element. An element may match several rules (e.g. a secondary road lands
// in both road tiers) or none at all.
var rules = []rule{
	{
		name: "roads_major",
		match: func(kind string, tags map[string]string) bool {
			return kind == "way" && majorRoadClasses[tags["highway"]]
		},
		target: func(g *Groups) *[]orb.Geometry { return &g.RoadsMajor },
	},
	{
		name: "roads_all",
		match: func(kind string, tags map[string]string) bool {
			return kind == "way" && allRoadClasses[tags["highway"]]
		},
		target: func(g *Groups) *[]orb.Geometry { return &g.RoadsAll },
	},
	{
		name: "water",
		match: func(kind string, tags map[string]string) bool {
			return tags["waterway"] != "" || tags["natural"] == "water" || tags["landuse"] == "reservoir"
		},
		target: func(g *Groups) *[]orb.Geometry { return &g.Water },
	},
	{
		name: "power_lines",
		match: func(kind string, tags map[string]string) bool {
			return tags["power"] == "line"
		},
		target: func(g *Groups) *[]orb.Geometry { return &g.Power },
	},
	{
		name: "substations",
		match: func(kind string, tags map[string]string) bool {
			return tags["power"] == "substation"
		},
		target: func(g *Groups) *[]orb.Geometry { return &g.Substations },
	},
	{
		name: "transit_stops",
		match: func(kind string, tags map[string]string) bool {
			return tags["highway"] == "bus_stop" || tags["public_transport"] == "stop_position"
		},
		target: func(g *Groups) *[]orb.Geometry { return &g.TransitStops },
	},
	{
		name: "settlements",
		match: func(kind string, tags map[string]string) bool {
			p := tags["place"]
			return p == "hamlet" || p == "village" || p == "town"
		},
		target: func(g *Groups) *[]orb.Geometry { return &g.Settlements },
	},
	{
		name: "rail",
		match: func(kind string, tags map[string]string) bool {
			return tags["railway"] == "rail"
		},
		target: func(g *Groups) *[]orb.Geometry { return &g.Rail },
	},
	{
		name: "gas_pipelines",
		match: func(kind string, tags map[string]string) bool {
			return tags["man_made"] == "pipeline" || tags["pipeline"] == "gas"
		},
		target: func(g *Groups) *[]orb.Geometry { return &g.GasPipelines },
	},
	{
		name: "industrial",
		match: func(kind string, tags map[string]string) bool {
			return tags["landuse"] == "industrial"
		},
		target: func(g *Groups) *[]orb.Geometry { return &g.Industrial },
	},
	{
		name: "landfill",
		match: func(kind string, tags map[string]string) bool {
			return tags["landuse"] == "landfill"
		},
		target: func(g *Groups) *[]orb.Geometry { return &g.Landfill },
	},
	{
		name: "wastewater",
		match: func(kind string, tags map[string]string) bool {
			return tags["man_made"] == "wastewater_plant" ||
				tags["amenity"] == "sewage_plant" || tags["amenity"] == "waste_disposal"
		},
		target: func(g *Groups) *[]orb.Geometry { return &g.Wastewater },
	},
	{
		name: "cemetery",
		match: func(kind string, tags map[string]string) bool {
			return tags["amenity"] == "grave_yard" || tags["landuse"] == "cemetery"
		},
		target: func(g *Groups) *[]orb.Geometry { return &g.Cemetery },
	},
}

// areaLike reports whether a way's tags describe a closed area rather than a
// linear feature.
func areaLike(tags map[string]string) bool {
	if tags["area"] == "yes" || tags["natural"] == "water" {
		return true
	}
	switch tags["landuse"] {
	case "reservoir", "landfill", "industrial", "cemetery":
		return true
	}
	return false
}

// elementGeometry builds the orb geometry for one element, or nil when the
// element carries no usable coordinates. Area-like ways get ring closure
// synthesized; a degenerate ring downgrades to a line instead of dropping
// the feature.
func elementGeometry(el Element) orb.Geometry {
	switch el.Type {
	case "node":
		if el.Lon == nil || el.Lat == nil {
			return nil
		}
		return orb.Point{*el.Lon, *el.Lat}
	case "way":
		if len(el.Geometry) == 0 {
			return nil
		}
		coords := make([]orb.Point, len(el.Geometry))
		for i, c := range el.Geometry {
			coords[i] = orb.Point{c.Lon, c.Lat}
		}
		if areaLike(el.Tags) {
			ring := orb.Ring(coords)
			if ring[0] != ring[len(ring)-1] {
				ring = append(ring, ring[0])
			}
			if geometry.RingValid(ring) {
				return orb.Polygon{ring}
			}
			zap.L().Debug("features: degenerate area ring downgraded to line",
				zap.Int("vertices", len(coords)),
			)
			return orb.LineString(coords)
		}
		return orb.LineString(coords)
	default:
		return nil
	}
}

// Classify partitions a raw feature collection into typed geometry groups.
// Elements matching no rule are ignored; order within each group follows
// input order.
func Classify(c Collection) *Groups {
	groups := &Groups{}
	for _, el := range c.Elements {
		var g orb.Geometry
		built := false
		for _, r := range rules {
			if !r.match(el.Type, el.Tags) {
				continue
			}
			if !built {
				g = elementGeometry(el)
				built = true
			}
			if g == nil {
				break
			}
			dst := r.target(groups)
			*dst = append(*dst, g)
		}
	}
	return groups
}
