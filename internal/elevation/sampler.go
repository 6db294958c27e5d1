// Package elevation samples a parcel's terrain on a bounded grid and reduces
// raw elevation values into summary statistics.
package elevation

import (
	"context"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/landscore/score-cli/internal/geometry"
)

// Coord is one geographic sample location.
type Coord struct {
	Lat float64
	Lon float64
}

// Lookup resolves elevations for a batch of locations. The result must have
// the same length and order as the input; nil marks a per-point lookup
// failure. Batching, caching, and provider fallback belong to the
// implementation, not the sampler.
type Lookup func(ctx context.Context, pts []Coord) ([]*float64, error)

// Config holds the sampling grid parameters.
type Config struct {
	BufferMeters  float64 // margin around the parcel, default 200
	SpacingMeters float64 // target grid spacing, default 60
	MaxPoints     int     // grid point ceiling, default 500
	MinAxisPoints int     // per-axis floor, default 5
}

// DefaultConfig returns the standard sampling parameters.
func DefaultConfig() Config {
	return Config{
		BufferMeters:  200,
		SpacingMeters: 60,
		MaxPoints:     500,
		MinAxisPoints: 5,
	}
}

// Stats summarizes the sampled terrain. All elevation figures are metres.
// SlopeIndicativePct is a dispersion-based roughness proxy, not a geometric
// gradient; RelLownessM is the parcel median minus the buffer-region median
// (negative = the parcel sits lower than its surroundings).
type Stats struct {
	Min                float64 `json:"elev_min"`
	Max                float64 `json:"elev_max"`
	Median             float64 `json:"elev_med"`
	P95                float64 `json:"elev_p95"`
	SlopeIndicativePct float64 `json:"slope_indicative_pct"`
	RelLownessM        float64 `json:"rel_lowness_m"`
}

// samplePoint is one grid location in projected space.
type samplePoint struct {
	pt     orb.Point
	inside bool
}

// linspace returns n evenly spaced values from lo to hi inclusive.
func linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// gridAxes sizes the sampling grid for a metric bounding box, scaling both
// axes down isotropically when the naive count exceeds the ceiling.
func gridAxes(w, h float64, cfg Config) (nx, ny int) {
	nx = int(w / cfg.SpacingMeters)
	ny = int(h / cfg.SpacingMeters)
	if nx < cfg.MinAxisPoints {
		nx = cfg.MinAxisPoints
	}
	if ny < cfg.MinAxisPoints {
		ny = cfg.MinAxisPoints
	}
	if nx*ny > cfg.MaxPoints {
		k := math.Sqrt(float64(nx*ny) / float64(cfg.MaxPoints))
		nx = int(float64(nx) / k)
		ny = int(float64(ny) / k)
		if nx < cfg.MinAxisPoints {
			nx = cfg.MinAxisPoints
		}
		if ny < cfg.MinAxisPoints {
			ny = cfg.MinAxisPoints
		}
	}
	return nx, ny
}

// buildGrid lays a regular grid over the parcel's buffered bounding box and
// keeps the points within the buffer region, flagging those inside the
// parcel itself. A degenerate parcel that captures no grid point falls back
// to a single centroid sample marked inside.
func buildGrid(parcelUTM orb.Polygon, cfg Config) []samplePoint {
	b := parcelUTM.Bound()
	minX, minY := b.Min[0]-cfg.BufferMeters, b.Min[1]-cfg.BufferMeters
	maxX, maxY := b.Max[0]+cfg.BufferMeters, b.Max[1]+cfg.BufferMeters

	nx, ny := gridAxes(maxX-minX, maxY-minY, cfg)

	var pts []samplePoint
	for _, x := range linspace(minX, maxX, nx) {
		for _, y := range linspace(minY, maxY, ny) {
			p := orb.Point{x, y}
			// The buffer region is the parcel dilated by BufferMeters:
			// membership is distance-to-parcel at most the margin.
			if geometry.PointToPolygon(p, parcelUTM) > cfg.BufferMeters {
				continue
			}
			pts = append(pts, samplePoint{pt: p, inside: geometry.Contains(parcelUTM, p)})
		}
	}

	if len(pts) == 0 {
		pts = append(pts, samplePoint{pt: geometry.Centroid(parcelUTM), inside: true})
	}
	return pts
}

// ComputeStats samples the parcel (geographic coordinates) and reduces the
// looked-up elevations into Stats. It never fails on missing elevation data:
// an all-null batch, or a lookup transport error, yields zero-filled
// statistics.
func ComputeStats(ctx context.Context, parcel orb.Polygon, lookup Lookup, cfg Config) *Stats {
	c := geometry.Centroid(parcel)
	proj := geometry.NewProjector(c[0], c[1])
	parcelUTM := proj.ForwardPolygon(parcel)

	pts := buildGrid(parcelUTM, cfg)

	coords := make([]Coord, len(pts))
	for i, sp := range pts {
		ll := proj.Inverse(sp.pt)
		coords[i] = Coord{Lat: ll[1], Lon: ll[0]}
	}

	elevs, err := lookup(ctx, coords)
	if err != nil || len(elevs) != len(pts) {
		zap.L().Warn("elevation: lookup unavailable, using zero statistics",
			zap.Int("points", len(pts)),
			zap.Error(err),
		)
		return &Stats{}
	}

	var inside, all []float64
	for i, e := range elevs {
		if e == nil {
			continue
		}
		all = append(all, *e)
		if pts[i].inside {
			inside = append(inside, *e)
		}
	}
	if len(all) == 0 {
		return &Stats{}
	}
	if len(inside) == 0 {
		inside = all
	}

	return reduce(inside, all)
}

// reduce computes the summary statistics over the inside and all-sample
// populations. Both slices must be non-empty.
func reduce(inside, all []float64) *Stats {
	in := append([]float64(nil), inside...)
	sort.Float64s(in)
	av := append([]float64(nil), all...)
	sort.Float64s(av)

	s := &Stats{
		Min:    floats.Min(in),
		Max:    floats.Max(in),
		Median: stat.Quantile(0.5, stat.Empirical, in, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, in, nil),
	}
	s.RelLownessM = s.Median - stat.Quantile(0.5, stat.Empirical, av, nil)

	// Dispersion of first differences of the sorted elevations; only
	// meaningful past a handful of samples.
	if len(in) > 3 {
		diffs := make([]float64, len(in)-1)
		for i := 1; i < len(in); i++ {
			diffs[i-1] = in[i] - in[i-1]
		}
		sd := stat.StdDev(diffs, nil)
		if math.IsNaN(sd) {
			sd = 0
		}
		s.SlopeIndicativePct = math.Min(100, math.Max(0, sd))
	}

	return s
}
