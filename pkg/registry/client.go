// Package registry resolves cadastral numbers to parcel geometry and
// normalized attribute fields through the NSPD geoportal search API.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/landscore/score-cli/internal/resilience"
)

// Placeholder marks an absent attribute value.
const Placeholder = "—"

const (
	searchPath     = "/api/geoportal/v2/search/geoportal"
	cacheNamespace = "nspd"

	// Browser-like UA: the geoportal rejects obvious bot agents.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// Store is the cache contract, satisfied by internal/cache.
type Store interface {
	Get(ctx context.Context, namespace, key string, dst any) (bool, error)
	Set(ctx context.Context, namespace, key string, value any) error
}

// Attribute is one normalized registry field in display order.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Parcel is the registry lookup result: the parcel boundary in geographic
// coordinates plus the normalized attribute list.
type Parcel struct {
	Boundary orb.Polygon `json:"boundary"`
	Attrs    []Attribute `json:"attrs"`
}

// Client queries the NSPD geoportal.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      Store
	retry      resilience.RetryConfig
}

// Option configures the client.
type Option func(*Client)

// WithStore enables cache-through keyed by cadastral number.
func WithStore(s Store) Option {
	return func(c *Client) { c.store = s }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates an NSPD registry client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 12 * time.Second},
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// feature is the geoportal's GeoJSON-like search hit.
type feature struct {
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties struct {
		Label       string         `json:"label"`
		Descr       string         `json:"descr"`
		ExternalKey string         `json:"externalKey"`
		Category    string         `json:"categoryName"`
		Address     string         `json:"readable_address"`
		SystemInfo  map[string]any `json:"systemInfo"`
		Options     map[string]any `json:"options"`
	} `json:"properties"`
}

type searchResponse struct {
	Data *struct {
		Features []feature `json:"features"`
	} `json:"data"`
	Features []feature `json:"features"`
}

// Lookup resolves a cadastral number to its boundary and attributes.
func (c *Client) Lookup(ctx context.Context, cadastral string) (*Parcel, error) {
	cadastral = strings.TrimSpace(cadastral)
	if cadastral == "" {
		return nil, eris.New("registry: empty cadastral number")
	}

	if c.store != nil {
		var cached Parcel
		ok, err := c.store.Get(ctx, cacheNamespace, cadastral, &cached)
		if err != nil {
			zap.L().Warn("registry: cache read failed", zap.Error(err))
		} else if ok {
			zap.L().Debug("registry: cache hit", zap.String("cadastral", cadastral))
			return &cached, nil
		}
	}

	feat, err := c.search(ctx, cadastral)
	if err != nil {
		return nil, err
	}

	boundary, err := boundaryFromFeature(feat)
	if err != nil {
		return nil, err
	}

	p := &Parcel{
		Boundary: boundary,
		Attrs:    normalizeAttrs(feat),
	}
	if c.store != nil {
		if err := c.store.Set(ctx, cacheNamespace, cadastral, p); err != nil {
			zap.L().Warn("registry: cache write failed", zap.Error(err))
		}
	}
	return p, nil
}

func (c *Client) search(ctx context.Context, cadastral string) (*feature, error) {
	q := url.Values{}
	q.Set("query", cadastral)
	q.Set("thematicSearchId", "1")
	reqURL := c.baseURL + searchPath + "?" + q.Encode()

	var resp searchResponse
	err := resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return eris.Wrap(err, "registry: build request")
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json, text/plain, */*")
		req.Header.Set("Referer", c.baseURL+"/geoportal")
		req.Header.Set("X-Requested-With", "XMLHttpRequest")

		res, err := c.httpClient.Do(req)
		if err != nil {
			return eris.Wrap(err, "registry: http do")
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(res.Body, 200))
			err := eris.Errorf("registry: HTTP %d: %s", res.StatusCode, string(snippet))
			if resilience.IsTransientHTTPStatus(res.StatusCode) {
				return resilience.NewTransientError(err, res.StatusCode)
			}
			return err
		}
		return eris.Wrap(json.NewDecoder(res.Body).Decode(&resp), "registry: decode response")
	})
	if err != nil {
		return nil, err
	}

	feats := resp.Features
	if resp.Data != nil && len(resp.Data.Features) > 0 {
		feats = resp.Data.Features
	}
	if len(feats) == 0 {
		return nil, eris.Errorf("registry: no object found for %s", cadastral)
	}
	return pickFeature(feats, cadastral), nil
}

// pickFeature prefers the hit whose cadastral number matches exactly, then
// label/descr/externalKey matches, then the first hit.
func pickFeature(feats []feature, cadastral string) *feature {
	cadastral = strings.TrimSpace(cadastral)
	for i := range feats {
		if optString(feats[i].Properties.Options, "cad_num") == cadastral {
			return &feats[i]
		}
	}
	for i := range feats {
		p := feats[i].Properties
		if strings.TrimSpace(p.Label) == cadastral ||
			strings.TrimSpace(p.Descr) == cadastral ||
			strings.TrimSpace(p.ExternalKey) == cadastral {
			return &feats[i]
		}
	}
	return &feats[0]
}

// boundaryFromFeature extracts the parcel polygon, reprojecting from web
// mercator when the responding layer is EPSG:3857. A multipolygon yields its
// largest part.
func boundaryFromFeature(feat *feature) (orb.Polygon, error) {
	if feat.Geometry == nil {
		return nil, eris.New("registry: feature has no geometry")
	}

	var poly orb.Polygon
	switch g := feat.Geometry.Geometry().(type) {
	case orb.Polygon:
		poly = g
	case orb.MultiPolygon:
		if len(g) == 0 {
			return nil, eris.New("registry: empty multipolygon")
		}
		poly = g[0]
		best := math.Abs(planar.Area(poly))
		for _, part := range g[1:] {
			if a := math.Abs(planar.Area(part)); a > best {
				best = a
				poly = part
			}
		}
	default:
		return nil, eris.Errorf("registry: unsupported geometry type %T", g)
	}

	if len(poly) > 0 && len(poly[0]) > 0 {
		p := poly[0][0]
		if math.Abs(p[0]) > 1e5 || math.Abs(p[1]) > 1e5 {
			poly = mercatorToWGS84(poly)
		}
	}
	return poly, nil
}

const earthRadiusM = 6378137.0

// mercatorToWGS84 converts an EPSG:3857 polygon to geographic coordinates.
func mercatorToWGS84(poly orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, len(poly))
	for i, ring := range poly {
		r := make(orb.Ring, len(ring))
		for j, pt := range ring {
			lon := pt[0] / earthRadiusM * 180 / math.Pi
			lat := (2*math.Atan(math.Exp(pt[1]/earthRadiusM)) - math.Pi/2) * 180 / math.Pi
			r[j] = orb.Point{lon, lat}
		}
		out[i] = r
	}
	return out
}

// normalizeAttrs flattens a feature into the fixed attribute list shown on
// reports. Field order is part of the contract.
func normalizeAttrs(feat *feature) []Attribute {
	p := feat.Properties
	o := p.Options

	address := firstNonEmpty(
		optString(o, "readable_address"),
		p.Address,
		optString(o, "address"),
		optString(o, "fullAddress"),
	)
	cadNum := firstNonEmpty(optString(o, "cad_num"), p.Label, p.Descr)

	updated := Placeholder
	if v, ok := p.SystemInfo["updated"].(string); ok && v != "" {
		updated = v
	}

	return []Attribute{
		{"Object type", orElse(optString(o, "land_record_type"), "Land parcel")},
		{"Parcel subtype", orElse(optString(o, "land_record_subtype"), Placeholder)},
		{"Registration date", fmtDate(optString(o, "land_record_reg_date"))},
		{"Cadastral number", orElse(cadNum, Placeholder)},
		{"Cadastral block", orElse(optString(o, "quarter_cad_number"), Placeholder)},
		{"Address", orElse(address, Placeholder)},
		{"Specified area", fmtNum(o["specified_area"], "sq m")},
		{"Declared area", fmtNum(o["declared_area"], "sq m")},
		{"Recorded area", fmtNum(o["land_record_area"], "sq m")},
		{"Status", orElse(optString(o, "status"), Placeholder)},
		{"Land category", orElse(optString(o, "land_record_category_type"), Placeholder)},
		{"Permitted use", orElse(optString(o, "permitted_use_established_by_document"), Placeholder)},
		{"Ownership form", orElse(optString(o, "ownership_type"), Placeholder)},
		{"Right type", orElse(optString(o, "right_type"), Placeholder)},
		{"Cadastral value", fmtNum(o["cost_value"], "rub")},
		{"Cadastral value per unit", fmtNum(o["cost_index"], "")},
		{"Value application date", fmtDate(optString(o, "cost_application_date"))},
		{"Value registration date", fmtDate(optString(o, "cost_registration_date"))},
		{"Value determination date", fmtDate(optString(o, "cost_determination_date"))},
		{"Valuation basis", orElse(optString(o, "determination_couse"), Placeholder)},
		{"Dataset category", orElse(p.Category, Placeholder)},
		{"Record updated", updated},
	}
}

func optString(o map[string]any, key string) string {
	if o == nil {
		return ""
	}
	if v, ok := o[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" && v != Placeholder {
			return v
		}
	}
	return ""
}

func orElse(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// fmtNum renders a numeric attribute with space-separated thousands and an
// optional unit suffix.
func fmtNum(v any, suffix string) string {
	var n float64
	switch t := v.(type) {
	case nil:
		return Placeholder
	case float64:
		n = t
	case string:
		t = strings.TrimSpace(t)
		if t == "" || t == "-" || t == Placeholder {
			return Placeholder
		}
		parsed, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return t
		}
		n = parsed
	default:
		return fmt.Sprint(v)
	}

	digits := strconv.FormatInt(int64(n), 10)
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)
	s := strings.Join(parts, " ")
	if neg {
		s = "-" + s
	}
	if suffix != "" {
		s += " " + suffix
	}
	return s
}

// fmtDate turns an ISO yyyy-mm-dd date into dd.mm.yyyy.
func fmtDate(s string) string {
	if s == "" {
		return Placeholder
	}
	parts := strings.SplitN(s, "-", 3)
	if len(parts) != 3 {
		return s
	}
	return parts[2] + "." + parts[1] + "." + parts[0]
}
