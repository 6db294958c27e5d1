package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitSquare is a 100x100 m parcel with its corner at the origin.
func unitSquare() orb.Polygon {
	return orb.Polygon{{
		{0, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0},
	}}
}

func TestPolygonToGeometryLine(t *testing.T) {
	parcel := unitSquare()

	tests := []struct {
		name string
		line orb.LineString
		want float64
	}{
		{"parallel 50m away", orb.LineString{{0, 150}, {100, 150}}, 50},
		{"touching edge", orb.LineString{{0, 100}, {100, 100}}, 0},
		{"crossing", orb.LineString{{-10, 50}, {110, 50}}, 0},
		{"diagonal corner gap", orb.LineString{{110, 110}, {200, 200}}, 14.142135},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PolygonToGeometry(parcel, tt.line)
			assert.InDelta(t, tt.want, got, 1e-5)
		})
	}
}

func TestPolygonToGeometryPoint(t *testing.T) {
	parcel := unitSquare()
	assert.InDelta(t, 0, PolygonToGeometry(parcel, orb.Point{50, 50}), 1e-9)
	assert.InDelta(t, 30, PolygonToGeometry(parcel, orb.Point{130, 50}), 1e-9)
}

func TestPolygonToGeometryArea(t *testing.T) {
	parcel := unitSquare()
	lake := orb.Polygon{{{150, 0}, {250, 0}, {250, 100}, {150, 100}, {150, 0}}}
	assert.InDelta(t, 50, PolygonToGeometry(parcel, lake), 1e-9)

	// Parcel fully inside a larger area.
	big := orb.Polygon{{{-50, -50}, {200, -50}, {200, 200}, {-50, 200}, {-50, -50}}}
	assert.InDelta(t, 0, PolygonToGeometry(parcel, big), 1e-9)
}

func TestNearestDistance(t *testing.T) {
	parcel := unitSquare()

	t.Run("empty group is nil, not zero", func(t *testing.T) {
		assert.Nil(t, NearestDistance(parcel, nil))
	})

	t.Run("picks the closest", func(t *testing.T) {
		group := []orb.Geometry{
			orb.LineString{{0, 300}, {100, 300}},
			orb.LineString{{0, 120}, {100, 120}},
			orb.Point{500, 500},
		}
		d := NearestDistance(parcel, group)
		require.NotNil(t, d)
		assert.InDelta(t, 20, *d, 1e-9)
	})
}

func TestFrontage(t *testing.T) {
	parcel := unitSquare()

	t.Run("no roads", func(t *testing.T) {
		assert.Zero(t, Frontage(parcel, nil, 10))
	})

	t.Run("road along one side", func(t *testing.T) {
		road := []orb.Geometry{orb.LineString{{-50, -5}, {150, -5}}}
		got := Frontage(parcel, road, 10)
		// The 5 m-away road buffer covers the whole southern edge plus a
		// small run up each adjacent side.
		assert.Greater(t, got, 99.0)
		assert.Less(t, got, 125.0)
	})

	t.Run("road out of tolerance", func(t *testing.T) {
		road := []orb.Geometry{orb.LineString{{-50, -30}, {150, -30}}}
		assert.Zero(t, Frontage(parcel, road, 10))
	})
}

func TestSegmentsIntersect(t *testing.T) {
	assert.True(t, segmentsIntersect(orb.Point{0, 0}, orb.Point{10, 10}, orb.Point{0, 10}, orb.Point{10, 0}))
	assert.False(t, segmentsIntersect(orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{0, 1}, orb.Point{10, 1}))
	assert.True(t, segmentsIntersect(orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{5, 0}, orb.Point{5, 5}), "touching endpoint counts")
}
