package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landscore/score-cli/internal/report"
	"github.com/landscore/score-cli/internal/score"
)

type stubScorer struct {
	metrics   *report.Metrics
	err       error
	polygon   orb.Polygon
	cadastral string
}

func (s *stubScorer) ScorePolygon(_ context.Context, p orb.Polygon) (*report.Metrics, error) {
	s.polygon = p
	return s.metrics, s.err
}

func (s *stubScorer) ScoreCadastral(_ context.Context, cadastral string) (*report.Metrics, error) {
	s.cadastral = cadastral
	return s.metrics, s.err
}

func sampleMetrics() *report.Metrics {
	return &report.Metrics{
		AreaM2: 10_000,
		AreaHa: 1,
		Score:  score.Breakdown{Total: 72},
		Risks:  []string{"Flood risk 20%; verify flood zone maps."},
	}
}

const polygonJSON = `{"type":"Polygon","coordinates":[[[37.61,55.75],[37.62,55.75],[37.62,55.76],[37.61,55.76],[37.61,55.75]]]}`

func TestHealth(t *testing.T) {
	srv := New(&stubScorer{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestScorePolygonEndpoint(t *testing.T) {
	stub := &stubScorer{metrics: sampleMetrics()}
	srv := New(stub)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/score", strings.NewReader(polygonJSON))
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, stub.polygon, 1)

	var m report.Metrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, 72, m.Score.Total)
	assert.InDelta(t, 1.0, m.AreaHa, 1e-9)
}

func TestScorePolygonBadBody(t *testing.T) {
	srv := New(&stubScorer{metrics: sampleMetrics()})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/score", strings.NewReader(`{"not": "geojson"}`))
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestScorePolygonEngineFailure(t *testing.T) {
	srv := New(&stubScorer{err: eris.New("overpass: all mirrors failed")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/score", strings.NewReader(polygonJSON))
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestScoreCadastralEndpoint(t *testing.T) {
	stub := &stubScorer{metrics: sampleMetrics()}
	srv := New(stub)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/parcels/50:08:0050330:111/score", nil)
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "50:08:0050330:111", stub.cadastral)
}

func TestScoreCadastralNotFound(t *testing.T) {
	srv := New(&stubScorer{err: eris.New("registry: no object found for 99")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/parcels/99/score", nil)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	srv := New(&stubScorer{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-Id"))
}
