package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "landscore-cache.db", cfg.Cache.Path)
	assert.Equal(t, 72, cfg.Cache.TTLHours)
	assert.Len(t, cfg.Overpass.Endpoints, 3)
	assert.Equal(t, "https://overpass-api.de/api/interpreter", cfg.Overpass.Endpoints[0])
	assert.InDelta(t, 2000, cfg.Overpass.BBoxMarginM, 0.001)
	assert.Equal(t, "https://api.opentopodata.org", cfg.Elevation.OpenTopoDataURL)
	assert.Equal(t, "srtm30m", cfg.Elevation.Dataset)
	assert.Equal(t, "https://nspd.gov.ru", cfg.Registry.BaseURL)
	assert.Equal(t, 14, cfg.Geocode.Zoom)
	assert.InDelta(t, 200, cfg.Sampler.BufferMeters, 0.001)
	assert.InDelta(t, 60, cfg.Sampler.SpacingMeters, 0.001)
	assert.Equal(t, 500, cfg.Sampler.MaxPoints)
	assert.Equal(t, 5, cfg.Sampler.MinAxisPoints)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
sampler:
  spacing_meters: 30
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 30, cfg.Sampler.SpacingMeters, 0.001)
	// Defaults still apply for unset values
	assert.Equal(t, 500, cfg.Sampler.MaxPoints)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LANDSCORE_LOG_LEVEL", "warn")
	t.Setenv("LANDSCORE_ELEVATION_DATASET", "aster30m")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "aster30m", cfg.Elevation.Dataset)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("LANDSCORE_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Sampler.BufferMeters = 200
	cfg.Sampler.SpacingMeters = 60
	cfg.Sampler.MaxPoints = 500
	cfg.Sampler.MinAxisPoints = 5
	cfg.Cache.Path = "cache.db"
	cfg.Cache.TTLHours = 72
	cfg.Overpass.Endpoints = []string{"https://overpass-api.de/api/interpreter"}
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateScore_AllPresent(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("score"))
}

func TestValidateScore_NoEndpoints(t *testing.T) {
	cfg := validDefaults()
	cfg.Overpass.Endpoints = nil

	err := cfg.Validate("score")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "overpass.endpoints")
}

func TestValidateServe_ValidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 9090

	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateCache_MissingPath(t *testing.T) {
	cfg := validDefaults()
	cfg.Cache.Path = ""

	err := cfg.Validate("cache")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cache.path is required")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateSamplerBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Sampler.SpacingMeters = 0
	err := cfg.Validate("score")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sampler.spacing_meters must be > 0")

	cfg.Sampler.SpacingMeters = 60
	cfg.Sampler.MaxPoints = 0
	err = cfg.Validate("score")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sampler.max_points must be between 1 and 10000")

	cfg.Sampler.MaxPoints = 500
	cfg.Sampler.BufferMeters = -1
	err = cfg.Validate("score")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sampler.buffer_meters must be >= 0")
}
