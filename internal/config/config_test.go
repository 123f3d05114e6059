package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad(t *testing.T) {
	content := `
host: "robot.local:8000"
transport: tcp
catalog: /etc/pirobot/actions.yaml

gamepad:
  poll_interval_ms: 20
  rescan_interval_ms: 2000
  deadzone: 0.12
  hat_axis_base: 4
  max_devices: 2
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "remote.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Host != "robot.local:8000" {
		t.Errorf("Host = %q, want robot.local:8000", cfg.Host)
	}
	if cfg.Transport != "tcp" {
		t.Errorf("Transport = %q, want tcp", cfg.Transport)
	}
	if cfg.Catalog != "/etc/pirobot/actions.yaml" {
		t.Errorf("Catalog = %q", cfg.Catalog)
	}
	want := GamepadConfig{
		PollIntervalMs:   20,
		RescanIntervalMs: 2000,
		Deadzone:         0.12,
		HatAxisBase:      4,
		MaxDevices:       2,
	}
	if !reflect.DeepEqual(cfg.Gamepad, want) {
		t.Errorf("Gamepad = %+v, want %+v", cfg.Gamepad, want)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Transport != "websocket" {
		t.Errorf("default Transport = %q, want websocket", cfg.Transport)
	}
	if cfg.Gamepad.PollIntervalMs <= 0 || cfg.Gamepad.MaxDevices <= 0 {
		t.Errorf("gamepad defaults not applied: %+v", cfg.Gamepad)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not yaml", "host: [unclosed"},
		{"bad transport", "transport: carrier-pigeon\n"},
		{"bad deadzone", "gamepad:\n  deadzone: 1.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "remote.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}
}

func TestHostHistory(t *testing.T) {
	dir := t.TempDir()

	if hosts := LoadHostHistory(dir); len(hosts) != 0 {
		t.Errorf("fresh history = %v, want empty", hosts)
	}

	for _, host := range []string{"zulu:8000", "alpha:8000", "zulu:8000"} {
		if err := SaveHostHistory(dir, host); err != nil {
			t.Fatalf("SaveHostHistory(%s) error = %v", host, err)
		}
	}

	// Reusing a host moves it to the end, so the last entry is always the
	// most recently used one.
	hosts := LoadHostHistory(dir)
	want := []string{"alpha:8000", "zulu:8000"}
	if !reflect.DeepEqual(hosts, want) {
		t.Fatalf("history = %v, want %v", hosts, want)
	}
}
