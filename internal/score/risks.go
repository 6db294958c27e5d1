package score

import "fmt"

// ruleResult is the optional contribution of one checklist rule.
type ruleResult struct {
	risk  string
	check string
}

// below reports whether a known distance is under the limit. A nil distance
// never trips a rule.
func below(d *float64, limit float64) bool {
	return d != nil && *d < limit
}

// above reports whether a known distance exceeds the limit.
func above(d *float64, limit float64) bool {
	return d != nil && *d > limit
}

// Rules evaluates the fixed, ordered risk rule list against the scored
// inputs. Each rule independently appends at most one risk string and one
// checklist string. Checklist entries are deduplicated preserving first-seen
// order; risks keep rule order as-is.
func Rules(in Inputs, floodPct int, t Thresholds) (risks, checks []string) {
	var results []ruleResult

	// Road access.
	if !in.RoadAdjacent {
		results = append(results, ruleResult{
			risk:  "No direct access from a road; an easement or right of way may be required.",
			check: "Verify legal access: road status, easement or passage rights.",
		})
	}

	// Flooding. The verification step applies regardless of tier.
	switch LevelFor(floodPct, t) {
	case RiskHigh:
		results = append(results, ruleResult{
			risk:  fmt.Sprintf("High flood risk (%d%%). The parcel sits close to water or in a depression.", floodPct),
			check: "Check flood maps and water protection zones in the regional GIS.",
		})
	case RiskMedium:
		results = append(results, ruleResult{
			risk:  fmt.Sprintf("Elevated flood risk (%d%%).", floodPct),
			check: "Check flood maps and water protection zones in the regional GIS.",
		})
	default:
		results = append(results, ruleResult{
			check: "Check flood maps and water protection zones in the regional GIS.",
		})
	}

	// Water protection zone.
	if below(in.WaterDist, t.WaterZone) {
		results = append(results, ruleResult{
			risk:  fmt.Sprintf("Water within %.0f m; water protection zone restrictions are likely.", t.WaterZone),
			check: "Verify the boundaries and rules of the water protection zone.",
		})
	}

	// Power lines.
	if below(in.PowerDist, t.PowerLineNear) {
		results = append(results, ruleResult{
			risk:  fmt.Sprintf("Power line within %.0f m; utility protection zone restrictions possible.", t.PowerLineNear),
			check: "Confirm the voltage class and the protection corridor width.",
		})
	}

	// Railway.
	if below(in.RailDist, t.RailNear) {
		results = append(results, ruleResult{
			risk:  fmt.Sprintf("Railway within %.0f m; noise and vibration.", t.RailNear),
			check: "Check noise levels and night freight traffic.",
		})
	}

	// Gas pipeline.
	if below(in.GasDist, t.GasNear) {
		results = append(results, ruleResult{
			risk:  fmt.Sprintf("Gas pipeline within %.0f m; protection zone restrictions.", t.GasNear),
			check: "Verify the pipeline protection corridor and construction bans.",
		})
	}

	// Industrial zone.
	if below(in.IndustrialDist, t.IndustrialNear) {
		results = append(results, ruleResult{
			risk:  fmt.Sprintf("Industrial zone within %.0f m; noise, odours, traffic.", t.IndustrialNear),
			check: "Identify the facilities and their sanitary buffer zones.",
		})
	}

	// Landfill and wastewater.
	if below(in.LandfillDist, t.LandfillNear) {
		results = append(results, ruleResult{
			risk:  "Landfill within 1 km; odours and wind-blown litter.",
			check: "Check the landfill status and the prevailing winds.",
		})
	}
	if below(in.WastewaterDist, t.WastewaterNear) {
		results = append(results, ruleResult{
			risk:  fmt.Sprintf("Wastewater treatment plant within %.0f m; odours possible.", t.WastewaterNear),
			check: "Check the treatment plant's sanitary buffer zone.",
		})
	}

	// Cemetery.
	if below(in.CemeteryDist, t.CemeteryNear) {
		results = append(results, ruleResult{
			risk:  fmt.Sprintf("Cemetery within %.0f m; a sensitive neighbouring use.", t.CemeteryNear),
			check: "Weigh subjective factors and buffer zone rules.",
		})
	}

	// Slope extremes.
	if in.SlopePct >= t.SteepSlopePct {
		results = append(results, ruleResult{
			risk:  fmt.Sprintf("Steep grade (>%.0f%%); substantial earthworks expected.", t.SteepSlopePct),
			check: "Assess grading, drainage, and a workable driveway.",
		})
	} else if in.SlopePct <= t.StagnantSlope {
		results = append(results, ruleResult{
			risk:  fmt.Sprintf("Nearly flat terrain (<%.1f%%); standing water is possible.", t.StagnantSlope),
			check: "Plan storm drainage or ground fill.",
		})
	}

	// Narrow frontage only matters when there is road access at all.
	if in.RoadAdjacent && in.FrontageLen < t.NarrowFrontage {
		results = append(results, ruleResult{
			risk:  fmt.Sprintf("Narrow frontage (<%.0f m); difficult access for vehicles.", t.NarrowFrontage),
			check: "Check gate placement options and setback rules.",
		})
	}

	// Remote infrastructure.
	if above(in.StopDist, t.StopFarRisk) || above(in.PlaceDist, t.PlaceFarRisk) {
		results = append(results, ruleResult{
			risk:  "Weak infrastructure; far from transit and the nearest settlement.",
			check: "Estimate travel times and seasonal road access.",
		})
	}

	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if r.risk != "" {
			risks = append(risks, r.risk)
		}
		if r.check != "" {
			if _, dup := seen[r.check]; !dup {
				seen[r.check] = struct{}{}
				checks = append(checks, r.check)
			}
		}
	}
	return risks, checks
}
