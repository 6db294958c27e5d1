package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Overpass  OverpassConfig  `yaml:"overpass" mapstructure:"overpass"`
	Elevation ElevationConfig `yaml:"elevation" mapstructure:"elevation"`
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Sampler   SamplerConfig   `yaml:"sampler" mapstructure:"sampler"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// CacheConfig configures the shared SQLite fetch cache.
type CacheConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// OverpassConfig configures the map-feature query client.
type OverpassConfig struct {
	Endpoints   []string `yaml:"endpoints" mapstructure:"endpoints"`
	TimeoutSecs int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	BBoxMarginM float64  `yaml:"bbox_margin_m" mapstructure:"bbox_margin_m"`
	RatePerSec  float64  `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// ElevationConfig configures the elevation provider chain.
type ElevationConfig struct {
	OpenTopoDataURL  string `yaml:"opentopodata_url" mapstructure:"opentopodata_url"`
	Dataset          string `yaml:"dataset" mapstructure:"dataset"`
	OpenElevationURL string `yaml:"openelevation_url" mapstructure:"openelevation_url"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// RegistryConfig configures the cadastral registry client.
type RegistryConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// GeocodeConfig configures reverse geocoding for display addresses.
type GeocodeConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	Zoom        int    `yaml:"zoom" mapstructure:"zoom"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// SamplerConfig configures the elevation sampling grid.
type SamplerConfig struct {
	BufferMeters  float64 `yaml:"buffer_meters" mapstructure:"buffer_meters"`
	SpacingMeters float64 `yaml:"spacing_meters" mapstructure:"spacing_meters"`
	MaxPoints     int     `yaml:"max_points" mapstructure:"max_points"`
	MinAxisPoints int     `yaml:"min_axis_points" mapstructure:"min_axis_points"`
}

// ServerConfig configures the scoring HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LANDSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("cache.path", "landscore-cache.db")
	v.SetDefault("cache.ttl_hours", 72)
	v.SetDefault("overpass.endpoints", []string{
		"https://overpass-api.de/api/interpreter",
		"https://overpass.kumi.systems/api/interpreter",
		"https://maps.mail.ru/osm/tools/overpass/api/interpreter",
	})
	v.SetDefault("overpass.timeout_secs", 60)
	v.SetDefault("overpass.bbox_margin_m", 2000)
	v.SetDefault("overpass.rate_per_sec", 1)
	v.SetDefault("elevation.opentopodata_url", "https://api.opentopodata.org")
	v.SetDefault("elevation.dataset", "srtm30m")
	v.SetDefault("elevation.openelevation_url", "https://api.open-elevation.com")
	v.SetDefault("elevation.timeout_secs", 30)
	v.SetDefault("registry.base_url", "https://nspd.gov.ru")
	v.SetDefault("registry.timeout_secs", 30)
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "landscore/1.0")
	v.SetDefault("geocode.zoom", 14)
	v.SetDefault("geocode.timeout_secs", 15)
	v.SetDefault("sampler.buffer_meters", 200)
	v.SetDefault("sampler.spacing_meters", 60)
	v.SetDefault("sampler.max_points", 500)
	v.SetDefault("sampler.min_axis_points", 5)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for the requested run mode. Collected
// problems are reported together so a misconfigured run fails once with the
// full list.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Sampler.BufferMeters < 0 {
		problems = append(problems, "sampler.buffer_meters must be >= 0")
	}
	if c.Sampler.SpacingMeters <= 0 {
		problems = append(problems, "sampler.spacing_meters must be > 0")
	}
	if c.Sampler.MaxPoints < 1 || c.Sampler.MaxPoints > 10000 {
		problems = append(problems, "sampler.max_points must be between 1 and 10000")
	}
	if c.Cache.TTLHours < 0 {
		problems = append(problems, "cache.ttl_hours must be >= 0")
	}

	switch mode {
	case "score":
		if len(c.Overpass.Endpoints) == 0 {
			problems = append(problems, "overpass.endpoints must not be empty")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if len(c.Overpass.Endpoints) == 0 {
			problems = append(problems, "overpass.endpoints must not be empty")
		}
	case "cache":
		if c.Cache.Path == "" {
			problems = append(problems, "cache.path is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
