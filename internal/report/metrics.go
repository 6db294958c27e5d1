// Package report assembles the scored facts of one parcel into the canonical
// result record and renders the two human-readable summaries.
package report

import (
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	"github.com/landscore/score-cli/internal/elevation"
	"github.com/landscore/score-cli/internal/features"
	"github.com/landscore/score-cli/internal/geometry"
	"github.com/landscore/score-cli/internal/score"
)

// Attribute is one named cadastral registry field. Order is meaningful and
// preserved through to output; absent values carry the "—" placeholder set
// by the registry client.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Metrics is the aggregate result record for one scored parcel. Distances
// are metres and nil when the category had no features in range.
type Metrics struct {
	AreaM2 float64 `json:"area_m2"`
	AreaHa float64 `json:"area_ha"`

	RoadAdjacent  bool    `json:"touches_road"`
	FrontageLenM  float64 `json:"frontage_len_m"`
	CanHouse10x10 bool    `json:"can_house_10x10"`

	RoadDistM       *float64 `json:"d_road_m"`
	WaterDistM      *float64 `json:"d_water_m"`
	PowerDistM      *float64 `json:"d_power_m"`
	StopDistM       *float64 `json:"d_stop_m"`
	PlaceDistM      *float64 `json:"d_place_m"`
	RailDistM       *float64 `json:"d_rail_m"`
	GasDistM        *float64 `json:"d_gas_m"`
	IndustrialDistM *float64 `json:"d_industrial_m"`
	LandfillDistM   *float64 `json:"d_landfill_m"`
	WastewaterDistM *float64 `json:"d_wastewater_m"`
	CemeteryDistM   *float64 `json:"d_cemetery_m"`

	Elevation elevation.Stats `json:"elevation"`
	FloodPct  int             `json:"flood_pct"`
	Score     score.Breakdown `json:"score"`

	Risks     []string `json:"risks"`
	Checklist []string `json:"checklist"`

	Address  string      `json:"address,omitempty"`
	Registry []Attribute `json:"registry_attrs,omitempty"`
}

// Evaluate runs the full scoring pipeline for one parcel: projection,
// per-category distances, frontage and house-fit geometry, flood heuristic,
// sub-scores, composite, and the risk/checklist lists. It degrades through
// missing inputs and fails hard only on a malformed polygon or when there is
// nothing at all to score (no features and no elevation data).
func Evaluate(parcel orb.Polygon, groups *features.Groups, elev *elevation.Stats, t score.Thresholds, w score.Weights) (*Metrics, error) {
	parcel, err := geometry.Normalize(parcel)
	if err != nil {
		return nil, eris.Wrap(err, "report: invalid parcel polygon")
	}
	if groups.Empty() && elev == nil {
		return nil, eris.New("report: nothing to score: no classified features and no elevation data")
	}
	if elev == nil {
		elev = &elevation.Stats{}
	}
	if groups == nil {
		groups = &features.Groups{}
	}

	c := geometry.Centroid(parcel)
	proj := geometry.NewProjector(c[0], c[1])
	parcelUTM := proj.ForwardPolygon(parcel)

	fwd := func(group []orb.Geometry) []orb.Geometry {
		out := make([]orb.Geometry, len(group))
		for i, g := range group {
			out[i] = proj.ForwardGeometry(g)
		}
		return out
	}
	dist := func(group []orb.Geometry) *float64 {
		return geometry.NearestDistance(parcelUTM, fwd(group))
	}

	roadsAllUTM := fwd(groups.RoadsAll)

	m := &Metrics{
		AreaM2: geometry.Area(parcelUTM),
	}
	m.AreaHa = m.AreaM2 / 10_000

	// Road distance prefers the arterial tier; local roads only stand in
	// when no major road is in range at all.
	m.RoadDistM = dist(groups.RoadsMajor)
	if m.RoadDistM == nil {
		m.RoadDistM = geometry.NearestDistance(parcelUTM, roadsAllUTM)
	}
	m.WaterDistM = dist(groups.Water)
	m.PowerDistM = dist(append(append([]orb.Geometry{}, groups.Power...), groups.Substations...))
	m.StopDistM = dist(groups.TransitStops)
	m.PlaceDistM = dist(groups.Settlements)
	m.RailDistM = dist(groups.Rail)
	m.GasDistM = dist(groups.GasPipelines)
	m.IndustrialDistM = dist(groups.Industrial)
	m.LandfillDistM = dist(groups.Landfill)
	m.WastewaterDistM = dist(groups.Wastewater)
	m.CemeteryDistM = dist(groups.Cemetery)

	m.FrontageLenM = geometry.Frontage(parcelUTM, roadsAllUTM, t.FrontageTol)
	m.RoadAdjacent = m.FrontageLenM > t.AdjacencyMin

	width, height := geometry.MinRotatedRectSides(parcelUTM)
	m.CanHouse10x10 = width >= t.HouseSide && height >= t.HouseSide

	m.Elevation = *elev

	in := score.Inputs{
		RoadDist:       m.RoadDistM,
		WaterDist:      m.WaterDistM,
		PowerDist:      m.PowerDistM,
		StopDist:       m.StopDistM,
		PlaceDist:      m.PlaceDistM,
		RailDist:       m.RailDistM,
		GasDist:        m.GasDistM,
		IndustrialDist: m.IndustrialDistM,
		LandfillDist:   m.LandfillDistM,
		WastewaterDist: m.WastewaterDistM,
		CemeteryDist:   m.CemeteryDistM,
		SlopePct:       elev.SlopeIndicativePct,
		RelLowness:     elev.RelLownessM,
		RoadAdjacent:   m.RoadAdjacent,
		FrontageLen:    m.FrontageLenM,
	}
	m.FloodPct, m.Score = score.Compute(in, t, w)
	m.Risks, m.Checklist = score.Rules(in, m.FloodPct, t)

	return m, nil
}

// AttachRegistry stores the registry attributes on the record and, when no
// geocoded address is present, falls back to the registry's address field.
func (m *Metrics) AttachRegistry(attrs []Attribute) {
	m.Registry = attrs
	if m.Address != "" {
		return
	}
	for _, a := range attrs {
		if a.Name == "Address" && a.Value != "" && a.Value != "—" {
			m.Address = a.Value
			return
		}
	}
}
