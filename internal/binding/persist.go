package binding

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/imarchand/pirobot-remote/internal/input"
)

const (
	keyboardFile  = "keyboard.config.json"
	gamepadPrefix = "gamepad."
	gamepadSuffix = ".config.json"
)

// DefaultDir returns the user-writable binding directory.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve home directory: %w", err)
	}
	return filepath.Join(home, ".pirobot-remote"), nil
}

// defaultKeyboard is the bundled fallback used when no user keyboard mapping
// exists or the user file is malformed.
func defaultKeyboard() map[string]input.Event {
	return map[string]input.Event{
		"drive_forward":   input.Key(input.KeyUp),
		"drive_backward":  input.Key(input.KeyDown),
		"drive_left":      input.Key(input.KeyLeft),
		"drive_right":     input.Key(input.KeyRight),
		"camera_up":       input.Key(input.KeyPageUp),
		"camera_down":     input.Key(input.KeyPageDown),
		"motor_slow_mode": input.Key(input.KeyFromRune('S')),
		"lock_camera":     input.Key(input.KeyFromRune('L')),
		"capture_picture": input.Key(input.KeyFromRune('C')),
		"start_video":     input.Key(input.KeyFromRune('R')),
		"stop_video":      input.Key(input.KeyFromRune('T')),
		"say_message":     input.Key(input.KeyFromRune('M')),
		"display_message": input.Key(input.KeyFromRune('D')),
		"app_close":       input.Key(input.KeyEscape),
	}
}

// Load reads the keyboard mapping and every gamepad file from dir. A missing
// or malformed keyboard file falls back to the bundled default; missing or
// malformed gamepad files are skipped individually so a partial load
// succeeds. Load never fails on bad content, only on programmer error.
func (s *Store) Load(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keyboard = defaultKeyboard()
	keyboardPath := filepath.Join(dir, keyboardFile)
	if data, err := os.ReadFile(keyboardPath); err == nil {
		mapping := make(map[string]input.Event)
		if err := json.Unmarshal(data, &mapping); err != nil {
			slog.Warn("unable to parse keyboard config, using default",
				"path", keyboardPath, "error", err)
		} else {
			s.keyboard = mapping
		}
	} else if !os.IsNotExist(err) {
		slog.Warn("unable to read keyboard config, using default",
			"path", keyboardPath, "error", err)
	}

	s.gamepads = make(map[input.DeviceID]*Gamepad)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("unable to list binding directory", "dir", dir, "error", err)
		}
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, gamepadPrefix) || !strings.HasSuffix(name, gamepadSuffix) {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("unable to read gamepad config", "path", path, "error", err)
			continue
		}
		var pad Gamepad
		if err := json.Unmarshal(data, &pad); err != nil {
			slog.Warn("unable to parse gamepad config", "path", path, "error", err)
			continue
		}
		if pad.GUID == "" {
			slog.Warn("gamepad config has no guid, skipping", "path", path)
			continue
		}
		if pad.Actions == nil {
			pad.Actions = make(map[string]input.Event)
		}
		if pad.AxisGroups == nil {
			pad.AxisGroups = make(map[string]input.Event)
		}
		if pad.HatGroups == nil {
			pad.HatGroups = make(map[string]input.Event)
		}
		s.gamepads[pad.GUID] = &pad
	}
}

// Save writes the keyboard mapping and one file per gamepad to dir, creating
// it first if needed. Write failures are returned so the editor can tell the
// operator; the in-memory bindings stay valid either way.
func (s *Store) Save(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create binding directory: %w", err)
	}

	data, err := json.MarshalIndent(s.keyboard, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode keyboard config: %w", err)
	}
	keyboardPath := filepath.Join(dir, keyboardFile)
	if err := os.WriteFile(keyboardPath, data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", keyboardPath, err)
	}

	for guid, pad := range s.gamepads {
		data, err := json.MarshalIndent(pad, "", "  ")
		if err != nil {
			return fmt.Errorf("cannot encode gamepad config %s: %w", guid, err)
		}
		path := filepath.Join(dir, gamepadPrefix+string(guid)+gamepadSuffix)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("cannot write %s: %w", path, err)
		}
	}
	return nil
}
