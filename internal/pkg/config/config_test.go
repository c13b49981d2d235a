package config

import (
	"strings"
	"testing"

	"github.com/samirrijal/maptrace/internal/core/domain"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "maptrace", DBName: "maptrace"},
		NATS:     NATSConfig{URL: "nats://localhost:4222"},
		Valkey:   ValkeyConfig{Addr: "localhost:6379"},
		Distance: DistanceConfig{DefaultZoom: 13},
		Layers:   DefaultLayers,
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Database.Host = ""
	cfg.Distance.DefaultZoom = 40

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"server.port", "database.host", "distance.default_zoom"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestValidate_Layers(t *testing.T) {
	tests := []struct {
		name   string
		layers []domain.Layer
		want   string
	}{
		{"multi-char base", []domain.Layer{{Code: "ab"}}, "single character"},
		{"empty code", []domain.Layer{{Code: ""}}, "code is required"},
		{"reserved", []domain.Layer{{Code: "a,b", Overlay: true}}, "reserved character"},
		{"duplicate", []domain.Layer{{Code: "m"}, {Code: "m", Overlay: true}}, "duplicated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Layers = tt.layers
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MAPTRACE_SERVER_PORT", "9090")
	cfg, err := Load("maptrace-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090 from env, got %d", cfg.Server.Port)
	}
	if cfg.Telemetry.ServiceName != "maptrace-test" {
		t.Errorf("expected service name maptrace-test, got %s", cfg.Telemetry.ServiceName)
	}
	if len(cfg.Layers) != len(DefaultLayers) {
		t.Errorf("expected default layer catalog, got %d layers", len(cfg.Layers))
	}
	if cfg.Distance.Strings.TotalDistance != "Total distance" {
		t.Errorf("unexpected total distance string %q", cfg.Distance.Strings.TotalDistance)
	}
}
