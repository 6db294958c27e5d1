package score

import "math"

// Inputs are the distance and terrain facts a parcel is scored on. Nil
// distances mean the category had no features in range; scoring substitutes
// an explicit assume-far default rather than a numeric sentinel.
type Inputs struct {
	RoadDist       *float64
	WaterDist      *float64
	PowerDist      *float64 // nearest of power lines and substations
	StopDist       *float64
	PlaceDist      *float64
	RailDist       *float64
	GasDist        *float64
	IndustrialDist *float64
	LandfillDist   *float64
	WastewaterDist *float64
	CemeteryDist   *float64

	SlopePct     float64
	RelLowness   float64
	RoadAdjacent bool
	FrontageLen  float64
}

// Breakdown holds the per-category sub-scores and the weighted composite.
// Sub-scores are in [0,100], higher is better. Power is informational in the
// user-facing breakdown but still carries composite weight.
type Breakdown struct {
	Access float64 `json:"access"`
	Flood  float64 `json:"flood"`
	Slope  float64 `json:"slope"`
	Infra  float64 `json:"infra"`
	Power  float64 `json:"power"`
	Total  int     `json:"total"`
}

// Norm is the shared inverse-distance normalizer: exactly 100 at or below
// good, exactly 0 at or beyond bad, linear in between.
func Norm(d, good, bad float64) float64 {
	switch {
	case d <= good:
		return 100
	case d >= bad:
		return 0
	default:
		return 100 * (bad - d) / (bad - good)
	}
}

// orFar resolves a nullable distance to its assume-far default.
func orFar(d *float64, far float64) float64 {
	if d == nil {
		return far
	}
	return *d
}

// Compute derives the flood-risk percentage and the full score breakdown.
func Compute(in Inputs, t Thresholds, w Weights) (floodPct int, b Breakdown) {
	floodPct = FloodRiskPct(in.WaterDist, &in.RelLowness, &in.SlopePct, t)

	b.Access = Norm(orFar(in.RoadDist, t.RoadFar), t.RoadGood, t.RoadBad)
	b.Flood = float64(100 - floodPct)
	b.Slope = math.Max(0, 100-math.Min(100, math.Abs(in.SlopePct-t.SlopeIdealPct)*t.SlopePenaltyPerPct))
	b.Infra = w.InfraStop*Norm(orFar(in.StopDist, t.StopFar), t.StopGood, t.StopBad) +
		w.InfraPlace*Norm(orFar(in.PlaceDist, t.PlaceFar), t.PlaceGood, t.PlaceBad)
	b.Power = Norm(orFar(in.PowerDist, t.PowerFar), t.PowerGood, t.PowerBad)

	adjacency := w.NotAdjacentScore
	if in.RoadAdjacent {
		adjacency = w.AdjacentScore
	}

	b.Total = int(math.Round(
		w.Access*b.Access +
			w.Flood*b.Flood +
			w.Slope*b.Slope +
			w.Infra*b.Infra +
			w.Power*b.Power +
			w.Adjacency*adjacency))

	return floodPct, b
}
