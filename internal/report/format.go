package report

import (
	"fmt"
	"strings"

	"github.com/landscore/score-cli/internal/score"
)

// distHuman renders a nullable metre distance for people: unknown, on-site,
// metres under ~1 km, kilometres above.
func distHuman(d *float64) string {
	if d == nil {
		return "n/a"
	}
	v := *d
	switch {
	case v <= 1:
		return "on site"
	case v < 950:
		return fmt.Sprintf("%d m", int(v))
	default:
		return fmt.Sprintf("%.1f km", v/1000)
	}
}

// scoreLabel maps a composite score to its verbal grade.
func scoreLabel(v int) string {
	switch {
	case v >= 80:
		return "excellent"
	case v >= 60:
		return "good"
	case v >= 40:
		return "fair"
	default:
		return "weak"
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// FormatBrief renders the short caption: address, area, composite with its
// verbal grade, the sub-score line, flood risk, headline distances, and the
// access and house-fit facts.
func FormatBrief(m *Metrics, t score.Thresholds) string {
	addr := m.Address
	if addr == "" {
		addr = "no address"
	}

	houseFit := "doubtful"
	if m.CanHouse10x10 {
		houseFit = "fits"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", addr)
	fmt.Fprintf(&b, "Area: %.2f ha\n", m.AreaHa)
	fmt.Fprintf(&b, "Overall score: %d/100 (%s)\n", m.Score.Total, scoreLabel(m.Score.Total))
	fmt.Fprintf(&b, "Access %d/100 | Slope %d/100 | Water %d/100 | Infrastructure %d/100\n",
		int(m.Score.Access), int(m.Score.Slope), int(m.Score.Flood), int(m.Score.Infra))
	fmt.Fprintf(&b, "Flood risk: %d%% (%s)\n", m.FloodPct, score.LevelFor(m.FloodPct, t))
	fmt.Fprintf(&b, "Nearby (straight line): road %s, water %s, transit stop %s, settlement %s\n",
		distHuman(m.RoadDistM), distHuman(m.WaterDistM), distHuman(m.StopDistM), distHuman(m.PlaceDistM))
	fmt.Fprintf(&b, "Road access: %s (frontage %d m) | 10x10 house: %s",
		yesNo(m.RoadAdjacent), int(m.FrontageLenM), houseFit)
	return b.String()
}

// FormatExplain renders the extended multi-line explanation: how to read the
// sub-scores, the terrain and water facts behind them, and the pre-purchase
// checklist.
func FormatExplain(m *Metrics, t score.Thresholds) string {
	lines := []string{
		"How to read the scores (0-100): higher is better.",
		fmt.Sprintf("- Access: road proximity and direct adjacency. Nearest road: %s.", distHuman(m.RoadDistM)),
		fmt.Sprintf("- Slope: ~%.1f%% (0-5%% is comfortable for a house). A steep grade means grading and drainage costs.",
			m.Elevation.SlopeIndicativePct),
		fmt.Sprintf("- Water: %s to the nearest river or lake. Relative elevation: %+.1f m. Flood risk: %d%% (%s).",
			distHuman(m.WaterDistM), m.Elevation.RelLownessM, m.FloodPct, score.LevelFor(m.FloodPct, t)),
		fmt.Sprintf("- Infrastructure: transit stop %s, nearest settlement %s.",
			distHuman(m.StopDistM), distHuman(m.PlaceDistM)),
		"Note: distances are straight-line; the flood figure is indicative, not a legal assessment.",
	}
	if len(m.Checklist) > 0 {
		lines = append(lines, "What to verify before buying:")
		for _, item := range m.Checklist {
			lines = append(lines, "* "+item)
		}
	}
	return strings.Join(lines, "\n")
}
