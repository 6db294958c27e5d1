package score

// RiskLevel is a coarse label for a risk percentage.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// FloodRiskPct combines water proximity, relative lowness, and terrain
// flatness into an additive heuristic percentage in [0,100]. It is an
// indicative figure, not a probability or a hydrological determination.
// Nil inputs (no data) contribute nothing.
func FloodRiskPct(waterDist *float64, relLowness *float64, slopePct *float64, t Thresholds) int {
	r := 0

	if waterDist != nil {
		switch d := *waterDist; {
		case d < t.WaterVeryClose:
			r += 60
		case d < t.WaterClose:
			r += 45
		case d < t.WaterNear:
			r += 25
		case d < t.WaterInRange:
			r += 10
		}
	}

	if relLowness != nil {
		switch v := *relLowness; {
		case v <= t.LownessSevere:
			r += 35
		case v <= t.LownessModerate:
			r += 20
		case v <= t.LownessMild:
			r += 10
		}
	}

	if slopePct != nil && *slopePct <= t.FlatSlopeMax {
		r += 5
	}

	if r > 100 {
		r = 100
	}
	return r
}

// LevelFor maps a risk percentage to its label. The same cut points apply
// everywhere a risk percentage is surfaced.
func LevelFor(pct int, t Thresholds) RiskLevel {
	switch {
	case pct < t.RiskMediumFrom:
		return RiskLow
	case pct < t.RiskHighFrom:
		return RiskMedium
	default:
		return RiskHigh
	}
}
