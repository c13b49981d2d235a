package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samirrijal/maptrace/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
	Distance  DistanceConfig  `mapstructure:"distance"`
	Layers    []domain.Layer  `mapstructure:"layers"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	PublicURL    string `mapstructure:"public_url"`
	// AllowOrigins is the CORS origin list, comma separated.
	AllowOrigins string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
	// FragmentTTL is how long an idle session fragment is kept, in seconds.
	FragmentTTL int `mapstructure:"fragment_ttl"`
	// MeasureTTL is how long a computed measurement is cached, in seconds.
	MeasureTTL int `mapstructure:"measure_ttl"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DistanceConfig configures the distance tool.
type DistanceConfig struct {
	DefaultZoom float64                `mapstructure:"default_zoom"`
	UseHash     bool                   `mapstructure:"use_hash"`
	Strings     domain.DistanceStrings `mapstructure:"strings"`
}

// DefaultLayers is the layer catalog used when none is configured.
var DefaultLayers = []domain.Layer{
	{Code: "m", Name: "Map", Default: true},
	{Code: "s", Name: "Satellite"},
	{Code: "t", Name: "Terrain"},
	{Code: "h", Name: "Hiking trails", Overlay: true},
	{Code: "c", Name: "Cycling routes", Overlay: true},
}

// Load reads configuration from .env, config file and environment variables.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.public_url", "http://localhost:8080")
	v.SetDefault("server.allow_origins", "*")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "maptrace")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "maptrace")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.fragment_ttl", 7*24*3600)
	v.SetDefault("valkey.measure_ttl", 300)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("distance.default_zoom", 13)
	v.SetDefault("distance.use_hash", true)
	v.SetDefault("distance.strings.measure_distance", "Measure distance")
	v.SetDefault("distance.strings.total_distance", "Total distance")
	v.SetDefault("distance.strings.click_to_draw", "Click on the map to trace a path you want to measure")
	v.SetDefault("distance.strings.click_to_remove", "Click to remove")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MAPTRACE_DATABASE_HOST → database.host
	v.SetEnvPrefix("MAPTRACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(cfg.Layers) == 0 {
		cfg.Layers = append([]domain.Layer(nil), DefaultLayers...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Valkey.FragmentTTL < 0 {
		errs = append(errs, "valkey.fragment_ttl must not be negative")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Distance.DefaultZoom < 0 || c.Distance.DefaultZoom > 30 {
		errs = append(errs, fmt.Sprintf("distance.default_zoom must be 0-30, got %g", c.Distance.DefaultZoom))
	}
	errs = append(errs, validateLayers(c.Layers)...)

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// validateLayers enforces what the fragment encoding relies on: base
// layer codes are single characters, overlay codes contain no ',' and
// no code is reused.
func validateLayers(layers []domain.Layer) []string {
	var errs []string
	seen := make(map[string]bool, len(layers))
	for i, l := range layers {
		switch {
		case l.Code == "":
			errs = append(errs, fmt.Sprintf("layers[%d].code is required", i))
		case !l.Overlay && len([]rune(l.Code)) != 1:
			errs = append(errs, fmt.Sprintf("layers[%d].code %q must be a single character for a base layer", i, l.Code))
		case strings.ContainsAny(l.Code, ",&=#/"):
			errs = append(errs, fmt.Sprintf("layers[%d].code %q contains a reserved character", i, l.Code))
		case seen[l.Code]:
			errs = append(errs, fmt.Sprintf("layers[%d].code %q is duplicated", i, l.Code))
		}
		seen[l.Code] = true
	}
	return errs
}
