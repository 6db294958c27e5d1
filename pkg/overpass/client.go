// Package overpass fetches the raw map features around a parcel from the
// Overpass API, rotating across public mirrors and caching responses.
package overpass

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	ovp "github.com/serjvanilla/go-overpass"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/landscore/score-cli/internal/features"
	"github.com/landscore/score-cli/internal/geometry"
	"github.com/landscore/score-cli/internal/resilience"
)

// Store is the cache contract the client writes through. Both methods use a
// client-owned namespace.
type Store interface {
	Get(ctx context.Context, namespace, key string, dst any) (bool, error)
	Set(ctx context.Context, namespace, key string, value any) error
}

const cacheNamespace = "overpass"

// queryFunc runs one Overpass QL query against one endpoint. Injected in
// tests.
type queryFunc func(endpoint, query string) (ovp.Result, error)

// Client queries map features over an expanded parcel bounding box.
type Client struct {
	endpoints []string
	marginM   float64
	limiter   *rate.Limiter
	store     Store
	breakers  *resilience.ServiceBreakers
	query     queryFunc
}

// Option configures the client.
type Option func(*Client)

// WithStore enables cache-through on the given store.
func WithStore(s Store) Option {
	return func(c *Client) { c.store = s }
}

// WithRateLimit sets the requests-per-second limit shared by all mirrors.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithBBoxMargin sets the metre margin added around the parcel bounds.
func WithBBoxMargin(m float64) Option {
	return func(c *Client) { c.marginM = m }
}

// WithHTTPTimeout sets the per-request HTTP timeout.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := &http.Client{Timeout: d}
		c.query = func(endpoint, query string) (ovp.Result, error) {
			oc := ovp.NewWithSettings(endpoint, 1, hc)
			return oc.Query(query)
		}
	}
}

// NewClient creates an Overpass client over the given mirror endpoints. The
// first endpoint is preferred; later ones are failover mirrors.
func NewClient(endpoints []string, opts ...Option) *Client {
	c := &Client{
		endpoints: endpoints,
		marginM:   2000,
		limiter:   rate.NewLimiter(1, 1),
		breakers:  resilience.NewServiceBreakers(resilience.DefaultCircuitBreakerConfig()),
	}
	hc := &http.Client{Timeout: 60 * time.Second}
	c.query = func(endpoint, query string) (ovp.Result, error) {
		oc := ovp.NewWithSettings(endpoint, 1, hc)
		return oc.Query(query)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// categoryQueries is the fixed tag set fetched for scoring, one Overpass QL
// clause per line. %s is the bbox in (south,west,north,east) order.
var categoryQueries = []string{
	`way["highway"](%s);`,
	`way["power"="line"](%s);`,
	`node["power"="substation"](%s);`,
	`way["waterway"](%s);`,
	`way["natural"="water"](%s);`,
	`way["landuse"="reservoir"](%s);`,
	`node["highway"="bus_stop"](%s);`,
	`node["public_transport"="stop_position"](%s);`,
	`node["place"~"hamlet|village|town"](%s);`,
	`way["railway"="rail"](%s);`,
	`way["man_made"="pipeline"](%s);`,
	`way["pipeline"="gas"](%s);`,
	`way["landuse"="industrial"](%s);`,
	`way["landuse"="landfill"](%s);`,
	`way["man_made"="wastewater_plant"](%s);`,
	`node["man_made"="wastewater_plant"](%s);`,
	`way["amenity"="waste_disposal"](%s);`,
	`way["amenity"="sewage_plant"](%s);`,
	`way["amenity"="grave_yard"](%s);`,
	`way["landuse"="cemetery"](%s);`,
	`node["amenity"="grave_yard"](%s);`,
}

// buildQuery assembles the full Overpass QL request for a geographic bound.
func buildQuery(b orb.Bound) string {
	bbox := fmt.Sprintf("%.5f,%.5f,%.5f,%.5f", b.Min[1], b.Min[0], b.Max[1], b.Max[0])
	var sb strings.Builder
	sb.WriteString("[out:json][timeout:30];\n(\n")
	for _, q := range categoryQueries {
		fmt.Fprintf(&sb, "  "+q+"\n", bbox)
	}
	sb.WriteString(");\nout body;\n>;\nout skel qt;")
	return sb.String()
}

func cacheKey(b orb.Bound) string {
	return fmt.Sprintf("%.5f,%.5f,%.5f,%.5f", b.Min[0], b.Min[1], b.Max[0], b.Max[1])
}

// FetchFeatures queries the raw feature collection for the parcel bound
// expanded by the configured margin. Mirrors are tried in order; a mirror
// with an open circuit breaker is skipped. The response is cached by bbox.
func (c *Client) FetchFeatures(ctx context.Context, parcelBound orb.Bound) (*features.Collection, error) {
	bound := geometry.ExpandBound(parcelBound, c.marginM)
	key := cacheKey(bound)

	if c.store != nil {
		var cached features.Collection
		ok, err := c.store.Get(ctx, cacheNamespace, key, &cached)
		if err != nil {
			zap.L().Warn("overpass: cache read failed", zap.Error(err))
		} else if ok {
			zap.L().Debug("overpass: cache hit", zap.String("bbox", key))
			return &cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "overpass: rate limit wait")
	}

	query := buildQuery(bound)
	var errs []string
	for _, endpoint := range c.endpoints {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "overpass: fetch")
		}

		cb := c.breakers.Get(endpoint)
		result, err := resilience.ExecuteVal(ctx, cb, func(context.Context) (ovp.Result, error) {
			return c.query(endpoint, query)
		})
		if err != nil {
			zap.L().Warn("overpass: mirror failed",
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", endpoint, err))
			continue
		}

		coll := convert(&result)
		if c.store != nil {
			if err := c.store.Set(ctx, cacheNamespace, key, coll); err != nil {
				zap.L().Warn("overpass: cache write failed", zap.Error(err))
			}
		}
		return coll, nil
	}

	return nil, eris.Errorf("overpass: all mirrors failed: %s", strings.Join(errs, " | "))
}

// convert flattens a go-overpass result into the raw feature collection the
// classifier consumes. Ways carry their resolved node coordinates; nodes
// without tags (bare way vertices) are dropped.
func convert(res *ovp.Result) *features.Collection {
	coll := &features.Collection{}

	for _, node := range res.Nodes {
		if node == nil || len(node.Tags) == 0 {
			continue
		}
		lat, lon := node.Lat, node.Lon
		coll.Elements = append(coll.Elements, features.Element{
			Type: "node",
			Tags: node.Tags,
			Lat:  &lat,
			Lon:  &lon,
		})
	}

	for _, way := range res.Ways {
		if way == nil || len(way.Tags) == 0 {
			continue
		}
		geom := make([]features.LonLat, 0, len(way.Nodes))
		for _, n := range way.Nodes {
			if n == nil {
				continue
			}
			geom = append(geom, features.LonLat{Lon: n.Lon, Lat: n.Lat})
		}
		if len(geom) < 2 {
			continue
		}
		coll.Elements = append(coll.Elements, features.Element{
			Type:     "way",
			Tags:     way.Tags,
			Geometry: geom,
		})
	}

	return coll
}
