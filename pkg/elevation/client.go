// Package elevation resolves batches of geographic points to terrain
// elevations through OpenTopoData, falling back to Open-Elevation, and
// degrading to all-null results so scoring can proceed without terrain data.
package elevation

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/landscore/score-cli/internal/elevation"
	"github.com/landscore/score-cli/internal/resilience"
)

// Store is the cache contract, satisfied by internal/cache.
type Store interface {
	Get(ctx context.Context, namespace, key string, dst any) (bool, error)
	Set(ctx context.Context, namespace, key string, value any) error
}

const (
	openTopoBatchSize = 90
	openElevBatchSize = 100

	openTopoNamespace = "opentopodata"
	openElevNamespace = "openelevation"
)

// Client is the provider chain for elevation lookups.
type Client struct {
	openTopoURL string
	dataset     string
	openElevURL string
	httpClient  *http.Client
	limiter     *rate.Limiter
	store       Store
	retry       resilience.RetryConfig
}

// Option configures the client.
type Option func(*Client)

// WithStore enables per-batch cache-through.
func WithStore(s Store) Option {
	return func(c *Client) { c.store = s }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit sets the requests-per-second limit across both providers.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewClient creates an elevation client. openTopoURL and openElevURL are the
// provider base URLs; dataset names the OpenTopoData DEM (e.g. srtm30m).
func NewClient(openTopoURL, dataset, openElevURL string, opts ...Option) *Client {
	c := &Client{
		openTopoURL: strings.TrimRight(openTopoURL, "/"),
		dataset:     dataset,
		openElevURL: strings.TrimRight(openElevURL, "/"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		limiter:     rate.NewLimiter(5, 1),
		retry:       resilience.DefaultRetryConfig(),
	}
	c.retry.OnRetry = resilience.RetryLogger("elevation", "lookup")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup resolves elevations for the points, same order and length. It is
// the sampler's Lookup contract: OpenTopoData first, Open-Elevation on
// failure, and an all-null slice when both providers are down. The returned
// error is always nil; degradation is total, not partial.
func (c *Client) Lookup(ctx context.Context, pts []elevation.Coord) ([]*float64, error) {
	if len(pts) == 0 {
		return nil, nil
	}

	elevs, err := c.fetchOpenTopo(ctx, pts)
	if err == nil {
		return elevs, nil
	}
	zap.L().Warn("elevation: opentopodata failed, trying open-elevation", zap.Error(err))

	elevs, err = c.fetchOpenElevation(ctx, pts)
	if err == nil {
		return elevs, nil
	}
	zap.L().Warn("elevation: all providers failed, degrading to null elevations",
		zap.Int("points", len(pts)),
		zap.Error(err),
	)
	return make([]*float64, len(pts)), nil
}

// batchKey is a stable cache key for one batch of points.
func batchKey(pts []elevation.Coord) string {
	var sb strings.Builder
	for i, p := range pts {
		if i > 0 {
			sb.WriteByte('|')
		}
		fmt.Fprintf(&sb, "%.5f,%.5f", p.Lat, p.Lon)
	}
	sum := md5.Sum([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

func chunk(pts []elevation.Coord, size int) [][]elevation.Coord {
	var out [][]elevation.Coord
	for len(pts) > size {
		out = append(out, pts[:size])
		pts = pts[size:]
	}
	return append(out, pts)
}

type openTopoResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Elevation *float64 `json:"elevation"`
	} `json:"results"`
}

func (c *Client) fetchOpenTopo(ctx context.Context, pts []elevation.Coord) ([]*float64, error) {
	out := make([]*float64, 0, len(pts))
	for _, batch := range chunk(pts, openTopoBatchSize) {
		key := c.dataset + ":" + batchKey(batch)
		if c.store != nil {
			var cached []*float64
			ok, err := c.store.Get(ctx, openTopoNamespace, key, &cached)
			if err == nil && ok && len(cached) == len(batch) {
				out = append(out, cached...)
				continue
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "elevation: rate limit wait")
		}

		var sb strings.Builder
		for i, p := range batch {
			if i > 0 {
				sb.WriteByte('|')
			}
			fmt.Fprintf(&sb, "%.5f,%.5f", p.Lat, p.Lon)
		}
		reqURL := fmt.Sprintf("%s/v1/%s?locations=%s", c.openTopoURL, c.dataset, url.QueryEscape(sb.String()))

		var resp openTopoResponse
		err := resilience.Do(ctx, c.retry, func(ctx context.Context) error {
			return c.getJSON(ctx, reqURL, &resp)
		})
		if err != nil {
			return nil, eris.Wrap(err, "elevation: opentopodata request")
		}
		if resp.Status != "OK" && len(resp.Results) == 0 {
			return nil, eris.Errorf("elevation: opentopodata bad response status %q", resp.Status)
		}

		elevs := make([]*float64, len(batch))
		for i := range batch {
			if i < len(resp.Results) {
				elevs[i] = resp.Results[i].Elevation
			}
		}
		if c.store != nil {
			if err := c.store.Set(ctx, openTopoNamespace, key, elevs); err != nil {
				zap.L().Warn("elevation: cache write failed", zap.Error(err))
			}
		}
		out = append(out, elevs...)
	}
	return out, nil
}

type openElevRequest struct {
	Locations []openElevLocation `json:"locations"`
}

type openElevLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type openElevResponse struct {
	Results []struct {
		Elevation *float64 `json:"elevation"`
	} `json:"results"`
}

func (c *Client) fetchOpenElevation(ctx context.Context, pts []elevation.Coord) ([]*float64, error) {
	out := make([]*float64, 0, len(pts))
	for _, batch := range chunk(pts, openElevBatchSize) {
		key := batchKey(batch)
		if c.store != nil {
			var cached []*float64
			ok, err := c.store.Get(ctx, openElevNamespace, key, &cached)
			if err == nil && ok && len(cached) == len(batch) {
				out = append(out, cached...)
				continue
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "elevation: rate limit wait")
		}

		payload := openElevRequest{Locations: make([]openElevLocation, len(batch))}
		for i, p := range batch {
			payload.Locations[i] = openElevLocation{Latitude: p.Lat, Longitude: p.Lon}
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, eris.Wrap(err, "elevation: marshal request")
		}

		var resp openElevResponse
		err = resilience.Do(ctx, c.retry, func(ctx context.Context) error {
			return c.postJSON(ctx, c.openElevURL+"/api/v1/lookup", body, &resp)
		})
		if err != nil {
			return nil, eris.Wrap(err, "elevation: open-elevation request")
		}

		elevs := make([]*float64, len(batch))
		for i := range batch {
			if i < len(resp.Results) {
				elevs[i] = resp.Results[i].Elevation
			}
		}
		if c.store != nil {
			if err := c.store.Set(ctx, openElevNamespace, key, elevs); err != nil {
				zap.L().Warn("elevation: cache write failed", zap.Error(err))
			}
		}
		out = append(out, elevs...)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "elevation: build request")
	}
	return c.doJSON(req, dst)
}

func (c *Client) postJSON(ctx context.Context, reqURL string, body []byte, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "elevation: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, dst)
}

func (c *Client) doJSON(req *http.Request, dst any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "elevation: http do")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		err := eris.Errorf("elevation: HTTP %d: %s", resp.StatusCode, string(snippet))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return eris.Wrap(err, "elevation: decode response")
	}
	return nil
}
