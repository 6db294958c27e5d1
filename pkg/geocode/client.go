// Package geocode provides reverse geocoding of parcel centroids via
// the Nominatim API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/landscore/score-cli/internal/resilience"
)

const cacheNamespace = "geocode"

// Store is the cache contract, satisfied by internal/cache.
type Store interface {
	Get(ctx context.Context, namespace, key string, dst any) (bool, error)
	Set(ctx context.Context, namespace, key string, value any) error
}

// Client reverse-geocodes coordinates into human-readable addresses.
type Client struct {
	baseURL    string
	userAgent  string
	zoom       int
	httpClient *http.Client
	limiter    *rate.Limiter
	store      Store
	retry      resilience.RetryConfig
}

// Option configures the client.
type Option func(*Client)

// WithStore enables cache-through keyed by rounded coordinates.
func WithStore(s Store) Option {
	return func(c *Client) { c.store = s }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithZoom sets the Nominatim detail level (14 ≈ neighborhood).
func WithZoom(zoom int) Option {
	return func(c *Client) { c.zoom = zoom }
}

// WithRateLimit sets the requests-per-second limit. Nominatim's usage
// policy caps anonymous clients at 1 req/s.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewClient creates a Nominatim reverse geocoder.
func NewClient(baseURL, userAgent string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		zoom:       14,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Reverse returns a display address for the coordinates. It never fails:
// on lookup errors the raw coordinates are returned as the address.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) string {
	fallback := fmt.Sprintf("%.5f, %.5f", lat, lon)
	key := fmt.Sprintf("%.5f,%.5f,z%d", lat, lon, c.zoom)

	if c.store != nil {
		var cached string
		ok, err := c.store.Get(ctx, cacheNamespace, key, &cached)
		if err != nil {
			zap.L().Warn("geocode: cache read failed", zap.Error(err))
		} else if ok {
			return cached
		}
	}

	addr, err := c.fetch(ctx, lat, lon)
	if err != nil {
		zap.L().Warn("geocode: reverse lookup failed",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err),
		)
		return fallback
	}
	if addr == "" {
		return fallback
	}

	if c.store != nil {
		if err := c.store.Set(ctx, cacheNamespace, key, addr); err != nil {
			zap.L().Warn("geocode: cache write failed", zap.Error(err))
		}
	}
	return addr
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "geocode: rate limiter")
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", fmt.Sprintf("%.6f", lat))
	q.Set("lon", fmt.Sprintf("%.6f", lon))
	q.Set("zoom", fmt.Sprintf("%d", c.zoom))
	reqURL := c.baseURL + "/reverse?" + q.Encode()

	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (reverseResponse, error) {
		var out reverseResponse
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return out, eris.Wrap(err, "geocode: build request")
		}
		req.Header.Set("User-Agent", c.userAgent)

		res, err := c.httpClient.Do(req)
		if err != nil {
			return out, eris.Wrap(err, "geocode: http do")
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(res.Body, 200))
			err := eris.Errorf("geocode: HTTP %d: %s", res.StatusCode, string(snippet))
			if resilience.IsTransientHTTPStatus(res.StatusCode) {
				return out, resilience.NewTransientError(err, res.StatusCode)
			}
			return out, err
		}
		return out, eris.Wrap(json.NewDecoder(res.Body).Decode(&out), "geocode: decode response")
	})
	if err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", eris.Errorf("geocode: %s", resp.Error)
	}
	return resp.DisplayName, nil
}
