// Package score turns parcel distances and terrain statistics into a flood
// risk figure, per-category sub-scores, one weighted composite score, and
// the human-readable risk and checklist text.
package score

// Thresholds gathers every heuristic constant used by the risk and scoring
// rules, so tests can assert on named values instead of magic numbers.
// Distances are metres, elevations metres, slope figures percent-like.
type Thresholds struct {
	// Flood additive tiers: water proximity.
	WaterVeryClose float64 // < this, +60
	WaterClose     float64 // < this, +45
	WaterNear      float64 // < this, +25
	WaterInRange   float64 // < this, +10
	// Flood additive tiers: relative lowness (negative = parcel sits low).
	LownessSevere   float64 // <= this, +35
	LownessModerate float64 // <= this, +20
	LownessMild     float64 // <= this, +10
	// Flood additive tier: pooling on very flat terrain.
	FlatSlopeMax float64 // slope <= this, +5

	// Risk level labels.
	RiskMediumFrom int // flood pct at or above: medium
	RiskHighFrom   int // flood pct at or above: high

	// Sub-score normalization anchors (good, bad) and assume-far defaults.
	RoadGood, RoadBad, RoadFar    float64
	StopGood, StopBad, StopFar    float64
	PlaceGood, PlaceBad, PlaceFar float64
	PowerGood, PowerBad, PowerFar float64
	SlopeIdealPct                 float64 // grade the slope score centers on
	SlopePenaltyPerPct            float64

	// Risk/checklist rule distances.
	WaterZone      float64 // water restriction zone hint
	PowerLineNear  float64
	RailNear       float64
	GasNear        float64
	IndustrialNear float64
	LandfillNear   float64
	WastewaterNear float64
	CemeteryNear   float64
	SteepSlopePct  float64
	StagnantSlope  float64
	NarrowFrontage float64
	StopFarRisk    float64
	PlaceFarRisk   float64

	// Geometry checks.
	FrontageTol  float64 // road buffer tolerance for frontage
	AdjacencyMin float64 // frontage above this counts as road access
	HouseSide    float64 // reference footprint dimension (square)
}

// Weights are the composite score weights. They sum to 1.0 across six terms;
// the power term stays in the composite even though it is not part of the
// user-facing breakdown.
type Weights struct {
	Access    float64
	Flood     float64
	Slope     float64
	Infra     float64
	Power     float64
	Adjacency float64

	// Infrastructure sub-score blend.
	InfraStop  float64
	InfraPlace float64

	// Adjacency term values.
	AdjacentScore    float64
	NotAdjacentScore float64
}

// DefaultThresholds returns the standard heuristic constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WaterVeryClose:  10,
		WaterClose:      30,
		WaterNear:       100,
		WaterInRange:    300,
		LownessSevere:   -2.0,
		LownessModerate: -1.0,
		LownessMild:     -0.5,
		FlatSlopeMax:    0.5,

		RiskMediumFrom: 35,
		RiskHighFrom:   65,

		RoadGood: 300, RoadBad: 5000, RoadFar: 5000,
		StopGood: 500, StopBad: 4000, StopFar: 4000,
		PlaceGood: 2000, PlaceBad: 15000, PlaceFar: 15000,
		PowerGood: 300, PowerBad: 5000, PowerFar: 5000,
		SlopeIdealPct:      3,
		SlopePenaltyPerPct: 15,

		WaterZone:      100,
		PowerLineNear:  50,
		RailNear:       200,
		GasNear:        50,
		IndustrialNear: 500,
		LandfillNear:   1000,
		WastewaterNear: 700,
		CemeteryNear:   300,
		SteepSlopePct:  8.0,
		StagnantSlope:  0.3,
		NarrowFrontage: 8,
		StopFarRisk:    2000,
		PlaceFarRisk:   5000,

		FrontageTol:  10,
		AdjacencyMin: 0.5,
		HouseSide:    10,
	}
}

// DefaultWeights returns the standard composite weighting.
func DefaultWeights() Weights {
	return Weights{
		Access:    0.25,
		Flood:     0.20,
		Slope:     0.20,
		Infra:     0.15,
		Power:     0.10,
		Adjacency: 0.10,

		InfraStop:  0.6,
		InfraPlace: 0.4,

		AdjacentScore:    100,
		NotAdjacentScore: 40,
	}
}
