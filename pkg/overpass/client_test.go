package overpass

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	ovp "github.com/serjvanilla/go-overpass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBound() orb.Bound {
	return orb.Bound{Min: orb.Point{37.60, 55.74}, Max: orb.Point{37.62, 55.76}}
}

func resultWithNode(tags map[string]string) ovp.Result {
	return ovp.Result{
		Nodes: map[int64]*ovp.Node{
			1: {Meta: ovp.Meta{Tags: tags}, Lat: 55.75, Lon: 37.61},
		},
	}
}

func TestBuildQuery(t *testing.T) {
	q := buildQuery(testBound())

	assert.Contains(t, q, "[out:json][timeout:30];")
	// Overpass bbox order is south,west,north,east.
	assert.Contains(t, q, `way["highway"](55.74000,37.60000,55.76000,37.62000);`)
	assert.Contains(t, q, `node["place"~"hamlet|village|town"]`)
	assert.Contains(t, q, `way["landuse"="cemetery"]`)
	assert.True(t, strings.HasSuffix(q, "out skel qt;"))
}

func TestFetchFeaturesMirrorRotation(t *testing.T) {
	var calls []string
	c := NewClient([]string{"https://a.example", "https://b.example"},
		WithBBoxMargin(0), WithRateLimit(1000))
	c.query = func(endpoint, query string) (ovp.Result, error) {
		calls = append(calls, endpoint)
		if endpoint == "https://a.example" {
			return ovp.Result{}, assertErr
		}
		return resultWithNode(map[string]string{"highway": "bus_stop"}), nil
	}

	coll, err := c.FetchFeatures(context.Background(), testBound())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, calls)
	require.Len(t, coll.Elements, 1)
	assert.Equal(t, "node", coll.Elements[0].Type)
	assert.Equal(t, "bus_stop", coll.Elements[0].Tags["highway"])
}

var assertErr = &mirrorError{}

type mirrorError struct{}

func (*mirrorError) Error() string { return "mirror unavailable" }

func TestFetchFeaturesAllMirrorsFail(t *testing.T) {
	c := NewClient([]string{"https://a.example", "https://b.example"},
		WithBBoxMargin(0), WithRateLimit(1000))
	c.query = func(endpoint, query string) (ovp.Result, error) {
		return ovp.Result{}, assertErr
	}

	_, err := c.FetchFeatures(context.Background(), testBound())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all mirrors failed")
	assert.Contains(t, err.Error(), "https://a.example")
}

// memStore is an in-memory Store for cache-through tests.
type memStore struct {
	data map[string][]byte
	sets int
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, ns, key string, dst any) (bool, error) {
	raw, ok := m.data[ns+"/"+key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *memStore) Set(_ context.Context, ns, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.sets++
	m.data[ns+"/"+key] = raw
	return nil
}

func TestFetchFeaturesCacheThrough(t *testing.T) {
	store := newMemStore()
	queries := 0
	c := NewClient([]string{"https://a.example"},
		WithStore(store), WithBBoxMargin(0), WithRateLimit(1000))
	c.query = func(endpoint, query string) (ovp.Result, error) {
		queries++
		return resultWithNode(map[string]string{"power": "substation"}), nil
	}

	ctx := context.Background()
	first, err := c.FetchFeatures(ctx, testBound())
	require.NoError(t, err)
	second, err := c.FetchFeatures(ctx, testBound())
	require.NoError(t, err)

	assert.Equal(t, 1, queries, "second fetch must be served from cache")
	assert.Equal(t, 1, store.sets)
	assert.Equal(t, first.Elements, second.Elements)
}

func TestConvert(t *testing.T) {
	n1 := &ovp.Node{Lat: 55.0, Lon: 37.0}
	n2 := &ovp.Node{Lat: 55.1, Lon: 37.1}
	res := ovp.Result{
		Nodes: map[int64]*ovp.Node{
			1: n1, // untagged way vertex, dropped
			2: {Meta: ovp.Meta{Tags: map[string]string{"highway": "bus_stop"}}, Lat: 55.2, Lon: 37.2},
		},
		Ways: map[int64]*ovp.Way{
			10: {Meta: ovp.Meta{Tags: map[string]string{"highway": "primary"}}, Nodes: []*ovp.Node{n1, n2}},
			11: {Meta: ovp.Meta{Tags: map[string]string{"highway": "service"}}, Nodes: []*ovp.Node{n1}}, // too short
			12: {Nodes: []*ovp.Node{n1, n2}},                                           // untagged
		},
	}

	coll := convert(&res)
	require.Len(t, coll.Elements, 2)

	var nodeCount, wayCount int
	for _, el := range coll.Elements {
		switch el.Type {
		case "node":
			nodeCount++
			require.NotNil(t, el.Lat)
			assert.InDelta(t, 55.2, *el.Lat, 1e-9)
		case "way":
			wayCount++
			require.Len(t, el.Geometry, 2)
			assert.InDelta(t, 37.0, el.Geometry[0].Lon, 1e-9)
		}
	}
	assert.Equal(t, 1, nodeCount)
	assert.Equal(t, 1, wayCount)
}

func TestFetchFeaturesAgainstHTTPServer(t *testing.T) {
	body := `{
		"version": 0.6,
		"elements": [
			{"type": "node", "id": 1, "lat": 55.750, "lon": 37.610},
			{"type": "node", "id": 2, "lat": 55.751, "lon": 37.611},
			{"type": "node", "id": 3, "lat": 55.752, "lon": 37.612, "tags": {"highway": "bus_stop"}},
			{"type": "way", "id": 10, "nodes": [1, 2], "tags": {"highway": "primary"}}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewClient([]string{srv.URL},
		WithBBoxMargin(0), WithRateLimit(1000), WithHTTPTimeout(5*time.Second))

	coll, err := c.FetchFeatures(context.Background(), testBound())
	require.NoError(t, err)
	require.Len(t, coll.Elements, 2)
}
