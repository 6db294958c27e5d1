// Package engine orchestrates the external collaborators for one scoring
// run: map features, elevation sampling, registry lookup, and reverse
// geocoding, fetched concurrently and reduced to a report.
package engine

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/landscore/score-cli/internal/elevation"
	"github.com/landscore/score-cli/internal/features"
	"github.com/landscore/score-cli/internal/geometry"
	"github.com/landscore/score-cli/internal/report"
	"github.com/landscore/score-cli/internal/score"
	"github.com/landscore/score-cli/pkg/registry"
)

// FeatureSource fetches raw map features for a bounding box.
type FeatureSource interface {
	FetchFeatures(ctx context.Context, parcelBound orb.Bound) (*features.Collection, error)
}

// ElevationSource resolves elevations for a batch of sample points.
type ElevationSource interface {
	Lookup(ctx context.Context, pts []elevation.Coord) ([]*float64, error)
}

// RegistrySource resolves a cadastral number to boundary and attributes.
type RegistrySource interface {
	Lookup(ctx context.Context, cadastral string) (*registry.Parcel, error)
}

// Geocoder turns a coordinate into a display address. Implementations
// degrade to a coordinate string instead of failing.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) string
}

// Engine wires the collaborators together. Registry and Geocoder are
// optional; the rest are required.
type Engine struct {
	Features  FeatureSource
	Elevation ElevationSource
	Registry  RegistrySource
	Geocoder  Geocoder

	Sampler    elevation.Config
	Thresholds score.Thresholds
	Weights    score.Weights
}

// ScorePolygon evaluates one parcel boundary. Features, elevation, and the
// address are fetched in parallel; a feature-fetch failure aborts the run,
// elevation and geocoding degrade.
func (e *Engine) ScorePolygon(ctx context.Context, parcel orb.Polygon) (*report.Metrics, error) {
	parcel, err := geometry.Normalize(parcel)
	if err != nil {
		return nil, err
	}

	var (
		groups  *features.Groups
		stats   *elevation.Stats
		address string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		coll, err := e.Features.FetchFeatures(gctx, parcel.Bound())
		if err != nil {
			return eris.Wrap(err, "engine: fetch features")
		}
		groups = features.Classify(*coll)
		return nil
	})
	g.Go(func() error {
		stats = elevation.ComputeStats(gctx, parcel, e.Elevation.Lookup, e.Sampler)
		return nil
	})
	if e.Geocoder != nil {
		g.Go(func() error {
			c := geometry.Centroid(parcel)
			address = e.Geocoder.Reverse(gctx, c[1], c[0])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m, err := report.Evaluate(parcel, groups, stats, e.Thresholds, e.Weights)
	if err != nil {
		return nil, err
	}
	m.Address = address
	return m, nil
}

// ScoreCadastral resolves a cadastral number through the registry and scores
// the returned boundary, attaching the registry attributes to the report.
func (e *Engine) ScoreCadastral(ctx context.Context, cadastral string) (*report.Metrics, error) {
	if e.Registry == nil {
		return nil, eris.New("engine: no registry client configured")
	}
	p, err := e.Registry.Lookup(ctx, cadastral)
	if err != nil {
		return nil, err
	}

	m, err := e.ScorePolygon(ctx, p.Boundary)
	if err != nil {
		return nil, err
	}
	m.AttachRegistry(convertAttrs(p.Attrs))
	return m, nil
}

func convertAttrs(attrs []registry.Attribute) []report.Attribute {
	out := make([]report.Attribute, len(attrs))
	for i, a := range attrs {
		out[i] = report.Attribute{Name: a.Name, Value: a.Value}
	}
	return out
}
