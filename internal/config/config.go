// Package config loads the server's YAML configuration file, applying
// defaults before merging in whatever the file overrides (§6 CLI).
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full set of recognized options.
type Config struct {
	Network  NetworkConfig  `yaml:"network"`
	Database DatabaseConfig `yaml:"database"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// NetworkConfig governs the TCP listener and handshake.
type NetworkConfig struct {
	Port             int    `yaml:"port"`
	HandshakeVersion uint32 `yaml:"handshakeVersion"`
}

// DatabaseConfig selects and configures the persistence driver.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	Options  string `yaml:"options"`
}

// MetricsConfig governs the Prometheus exposition endpoint.
type MetricsConfig struct {
	Port int `yaml:"port"`
}

// Default returns the configuration used when a file is absent or silent
// on a given key.
func Default() Config {
	return Config{
		Network: NetworkConfig{
			Port:             42371,
			HandshakeVersion: 1,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Name:   "server.db",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// Load reads path and merges it over Default(). A missing path is not an
// error — the defaults alone are a valid configuration (§6: only
// configuration or bind errors are fatal, and an absent --config is neither).
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
