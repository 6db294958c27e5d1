package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/landscore/score-cli/internal/elevation"
	"github.com/landscore/score-cli/internal/score"
)

func TestDistHuman(t *testing.T) {
	tests := []struct {
		name string
		d    *float64
		want string
	}{
		{"unknown", nil, "n/a"},
		{"on site", fptr(0.5), "on site"},
		{"metres", fptr(420.7), "420 m"},
		{"just under a kilometre", fptr(949), "949 m"},
		{"kilometres", fptr(950), "1.0 km"},
		{"far", fptr(12345), "12.3 km"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, distHuman(tt.d))
		})
	}
}

func fptr(v float64) *float64 { return &v }

func TestScoreLabel(t *testing.T) {
	assert.Equal(t, "excellent", scoreLabel(80))
	assert.Equal(t, "good", scoreLabel(60))
	assert.Equal(t, "fair", scoreLabel(40))
	assert.Equal(t, "weak", scoreLabel(39))
}

func sampleMetrics() *Metrics {
	return &Metrics{
		AreaHa:        0.85,
		AreaM2:        8500,
		RoadAdjacent:  true,
		FrontageLenM:  23.4,
		CanHouse10x10: true,
		RoadDistM:     fptr(12),
		WaterDistM:    fptr(1800),
		StopDistM:     fptr(640),
		PlaceDistM:    fptr(2100),
		Elevation:     elevation.Stats{SlopeIndicativePct: 2.3, RelLownessM: 0.4},
		FloodPct:      10,
		Score: score.Breakdown{
			Access: 100, Flood: 90, Slope: 89.5, Infra: 81, Power: 0, Total: 77,
		},
		Checklist: []string{"Verify legal access: road status, easement or passage rights."},
	}
}

func TestFormatBrief(t *testing.T) {
	out := FormatBrief(sampleMetrics(), score.DefaultThresholds())

	assert.Contains(t, out, "no address")
	assert.Contains(t, out, "Area: 0.85 ha")
	assert.Contains(t, out, "Overall score: 77/100 (good)")
	assert.Contains(t, out, "Access 100/100")
	assert.Contains(t, out, "Flood risk: 10% (low)")
	assert.Contains(t, out, "road 12 m")
	assert.Contains(t, out, "water 1.8 km")
	assert.Contains(t, out, "Road access: yes (frontage 23 m)")
	assert.Contains(t, out, "10x10 house: fits")
}

func TestFormatBriefWithAddress(t *testing.T) {
	m := sampleMetrics()
	m.Address = "Riverside lane 4"
	out := FormatBrief(m, score.DefaultThresholds())
	assert.True(t, strings.HasPrefix(out, "Riverside lane 4\n"))
}

func TestFormatExplain(t *testing.T) {
	out := FormatExplain(sampleMetrics(), score.DefaultThresholds())

	assert.Contains(t, out, "higher is better")
	assert.Contains(t, out, "Nearest road: 12 m")
	assert.Contains(t, out, "~2.3%")
	assert.Contains(t, out, "Relative elevation: +0.4 m")
	assert.Contains(t, out, "Flood risk: 10% (low)")
	assert.Contains(t, out, "What to verify before buying:")
	assert.Contains(t, out, "* Verify legal access")
}

func TestFormatExplainNoChecklist(t *testing.T) {
	m := sampleMetrics()
	m.Checklist = nil
	out := FormatExplain(m, score.DefaultThresholds())
	assert.NotContains(t, out, "What to verify")
}
