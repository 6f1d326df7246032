// Package config loads the handheld's runtime configuration from YAML,
// following the teacher's model.Config / core.NewSystem pattern (global
// defaults plus per-component overrides).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/open-eyes/handheld/internal/filter"
	"github.com/open-eyes/handheld/internal/navigator"
)

// Config is the root structure loaded from a YAML file, e.g.
// configs/handheld.yml.
type Config struct {
	Global    GlobalConfig    `yaml:"global"`
	Transport TransportConfig `yaml:"transport"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// GlobalConfig holds cross-cutting defaults.
type GlobalConfig struct {
	LogLevel            string  `yaml:"log_level"`
	LogJSON             bool    `yaml:"log_json"`
	FilterWindow        int     `yaml:"filter_window"`
	WaypointReachedM    float64 `yaml:"waypoint_reached_meters"`
	GpsLossPacketCount  int     `yaml:"gps_loss_packet_count"`
}

// TransportConfig configures the websocket bridge standing in for the BLE
// transport (spec §6; the real BLE layer is out of scope).
type TransportConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	DeviceName string `yaml:"device_name"`
}

// TelemetryConfig configures the observer broadcast hub (spec §4.6 step 4,
// "emit state' on a broadcast channel for observers").
type TelemetryConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultGpsLossPacketCount is spec §4.6/§5's "three consecutive invalid
// fixes" GPS-loss threshold.
const DefaultGpsLossPacketCount = 3

// Default returns a Config populated with the same defaults the components
// themselves fall back to, so a zero-value or partially-specified YAML file
// still produces a runnable system.
func Default() Config {
	return Config{
		Global: GlobalConfig{
			LogLevel:           "info",
			FilterWindow:       filter.DefaultWindow,
			WaypointReachedM:   navigator.DefaultReachedThresholdM,
			GpsLossPacketCount: DefaultGpsLossPacketCount,
		},
		Transport: TransportConfig{
			ListenAddr: ":8090",
			DeviceName: "OPEN-EYES",
		},
		Telemetry: TelemetryConfig{
			ListenAddr: ":8091",
		},
	}
}

// Load reads and merges a YAML config file over Default(). A missing file
// is not an error: the caller gets the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
