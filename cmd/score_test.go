package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetScoreFlags() {
	scoreFile = ""
	scoreCadastral = ""
	scorePoint = ""
	scoreAreaSotka = 0
}

func TestParseLatLon(t *testing.T) {
	lat, lon, err := parseLatLon("55.75, 37.61")
	require.NoError(t, err)
	assert.InDelta(t, 55.75, lat, 1e-9)
	assert.InDelta(t, 37.61, lon, 1e-9)

	_, _, err = parseLatLon("55.75")
	require.Error(t, err)

	_, _, err = parseLatLon("abc,37.61")
	require.Error(t, err)
}

func TestExactlyOneInput(t *testing.T) {
	resetScoreFlags()
	require.Error(t, exactlyOneInput())

	scoreFile = "plot.geojson"
	require.NoError(t, exactlyOneInput())

	scoreCadastral = "50:08:0050330:111"
	require.Error(t, exactlyOneInput())

	resetScoreFlags()
	scorePoint = "55.75,37.61"
	require.Error(t, exactlyOneInput()) // missing --area

	scoreAreaSotka = 10
	require.NoError(t, exactlyOneInput())
}

func TestLoadBoundaryGeoJSON(t *testing.T) {
	resetScoreFlags()
	dir := t.TempDir()
	path := filepath.Join(dir, "plot.geojson")
	doc := `{"type":"Polygon","coordinates":[[[37.61,55.75],[37.62,55.75],[37.62,55.76],[37.61,55.76],[37.61,55.75]]]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	scoreFile = path
	poly, err := loadBoundary()
	require.NoError(t, err)
	require.Len(t, poly, 1)
}

func TestLoadBoundaryKML(t *testing.T) {
	resetScoreFlags()
	dir := t.TempDir()
	path := filepath.Join(dir, "plot.kml")
	doc := `<?xml version="1.0"?><kml xmlns="http://www.opengis.net/kml/2.2"><Document><Placemark><Polygon><outerBoundaryIs><LinearRing><coordinates>37.61,55.75 37.62,55.75 37.62,55.76 37.61,55.76 37.61,55.75</coordinates></LinearRing></outerBoundaryIs></Polygon></Placemark></Document></kml>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	scoreFile = path
	poly, err := loadBoundary()
	require.NoError(t, err)
	require.Len(t, poly, 1)
	assert.Len(t, poly[0], 5)
}

func TestLoadBoundaryPoint(t *testing.T) {
	resetScoreFlags()
	scorePoint = "55.75,37.61"
	scoreAreaSotka = 10

	poly, err := loadBoundary()
	require.NoError(t, err)
	require.Len(t, poly, 1)
	require.Len(t, poly[0], 5)
}

func TestLoadBoundaryMissingFile(t *testing.T) {
	resetScoreFlags()
	scoreFile = filepath.Join(t.TempDir(), "absent.geojson")
	_, err := loadBoundary()
	require.Error(t, err)
}
