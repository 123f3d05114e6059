package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the client application configuration, read from remote.yaml in
// the user config directory.
type Config struct {
	Host      string        `yaml:"host"`
	Transport string        `yaml:"transport"`
	Catalog   string        `yaml:"catalog,omitempty"`
	Gamepad   GamepadConfig `yaml:"gamepad"`
}

// GamepadConfig tunes the device polling loop.
type GamepadConfig struct {
	PollIntervalMs   int     `yaml:"poll_interval_ms"`
	RescanIntervalMs int     `yaml:"rescan_interval_ms"`
	Deadzone         float64 `yaml:"deadzone"`
	HatAxisBase      int     `yaml:"hat_axis_base"`
	MaxDevices       int     `yaml:"max_devices"`
}

// Load reads the config file at path. A missing file yields the defaults;
// a present but malformed file is an error.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Transport {
	case "", "websocket", "tcp":
	default:
		return fmt.Errorf("transport must be websocket or tcp, got %q", c.Transport)
	}
	if c.Gamepad.Deadzone < 0 || c.Gamepad.Deadzone >= 1 {
		return fmt.Errorf("gamepad.deadzone must be in [0, 1)")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Transport == "" {
		c.Transport = "websocket"
	}
	if c.Gamepad.PollIntervalMs == 0 {
		c.Gamepad.PollIntervalMs = 10
	}
	if c.Gamepad.RescanIntervalMs == 0 {
		c.Gamepad.RescanIntervalMs = 1000
	}
	if c.Gamepad.Deadzone == 0 {
		c.Gamepad.Deadzone = 0.08
	}
	if c.Gamepad.HatAxisBase == 0 {
		c.Gamepad.HatAxisBase = 6
	}
	if c.Gamepad.MaxDevices == 0 {
		c.Gamepad.MaxDevices = 4
	}
}

// Exists checks if a config file exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
