package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/landscore/score-cli/internal/cache"
	"github.com/landscore/score-cli/internal/config"
	"github.com/landscore/score-cli/internal/elevation"
	"github.com/landscore/score-cli/internal/engine"
	"github.com/landscore/score-cli/internal/score"
	elevapi "github.com/landscore/score-cli/pkg/elevation"
	"github.com/landscore/score-cli/pkg/geocode"
	"github.com/landscore/score-cli/pkg/overpass"
	"github.com/landscore/score-cli/pkg/registry"
)

// env holds the wired collaborators for one command invocation.
type env struct {
	Cache  *cache.Cache
	Engine *engine.Engine
}

// initEnv wires the fetch clients and the scoring engine from config. A
// cache that fails to open is skipped with a warning; every client then
// fetches uncached.
func initEnv(cfg *config.Config) *env {
	store, err := cache.Open(cfg.Cache.Path, time.Duration(cfg.Cache.TTLHours)*time.Hour)
	if err != nil {
		zap.L().Warn("cache unavailable, continuing without it",
			zap.String("path", cfg.Cache.Path),
			zap.Error(err),
		)
		store = nil
	}

	ovpOpts := []overpass.Option{
		overpass.WithRateLimit(cfg.Overpass.RatePerSec),
		overpass.WithBBoxMargin(cfg.Overpass.BBoxMarginM),
		overpass.WithHTTPTimeout(time.Duration(cfg.Overpass.TimeoutSecs) * time.Second),
	}
	elevOpts := []elevapi.Option{
		elevapi.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Elevation.TimeoutSecs) * time.Second}),
	}
	regOpts := []registry.Option{
		registry.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Registry.TimeoutSecs) * time.Second}),
	}
	geoOpts := []geocode.Option{
		geocode.WithZoom(cfg.Geocode.Zoom),
		geocode.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Geocode.TimeoutSecs) * time.Second}),
	}
	if store != nil {
		ovpOpts = append(ovpOpts, overpass.WithStore(store))
		elevOpts = append(elevOpts, elevapi.WithStore(store))
		regOpts = append(regOpts, registry.WithStore(store))
		geoOpts = append(geoOpts, geocode.WithStore(store))
	}

	eng := &engine.Engine{
		Features: overpass.NewClient(cfg.Overpass.Endpoints, ovpOpts...),
		Elevation: elevapi.NewClient(
			cfg.Elevation.OpenTopoDataURL,
			cfg.Elevation.Dataset,
			cfg.Elevation.OpenElevationURL,
			elevOpts...,
		),
		Registry: registry.NewClient(cfg.Registry.BaseURL, regOpts...),
		Geocoder: geocode.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.UserAgent, geoOpts...),
		Sampler: elevation.Config{
			BufferMeters:  cfg.Sampler.BufferMeters,
			SpacingMeters: cfg.Sampler.SpacingMeters,
			MaxPoints:     cfg.Sampler.MaxPoints,
			MinAxisPoints: cfg.Sampler.MinAxisPoints,
		},
		Thresholds: score.DefaultThresholds(),
		Weights:    score.DefaultWeights(),
	}

	return &env{Cache: store, Engine: eng}
}

// Close releases the cache handle.
func (e *env) Close() {
	if e.Cache != nil {
		if err := e.Cache.Close(); err != nil {
			zap.L().Warn("cache close failed", zap.Error(err))
		}
	}
}
