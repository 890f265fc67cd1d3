package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"headgait-stream/gait"
	"headgait-stream/ingest"
)

// Config is the full service configuration: HTTP surface, pipeline
// constants, model artifact paths and the optional MQTT bridge.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Pipeline gait.Config `yaml:"pipeline"`
	Models   struct {
		ContactsPath string `yaml:"contacts_path"`
		SpeedPath    string `yaml:"speed_path"`
	} `yaml:"models"`
	MQTT ingest.Config `yaml:"mqtt"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	var cfg Config
	cfg.Server.Port = 8000
	cfg.Pipeline = gait.DefaultConfig()
	cfg.Models.ContactsPath = "models/contact_net.json"
	cfg.Models.SpeedPath = "models/speed_gpr.json"
	cfg.MQTT = ingest.DefaultConfig()
	return cfg
}

// LoadConfig overlays an optional YAML file and environment overrides onto
// the defaults. A missing file is fine; a malformed one is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults only.
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	// HEADGAIT_PORT wins over PORT; both win over the file.
	for _, key := range []string{"PORT", "HEADGAIT_PORT"} {
		if v := os.Getenv(key); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			cfg.Server.Port = port
		}
	}

	return cfg, nil
}
