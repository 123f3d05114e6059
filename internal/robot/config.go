// Package robot tracks the connected robot's advertised configuration.
package robot

import (
	"sync"
)

// Config is a point-in-time snapshot of what the robot reported: its display
// name and the capability flags used to gate actions.
type Config struct {
	Name         string
	Capabilities map[string]bool
}

// Has reports whether the named capability is present and true. Capability
// flags arrive as "robot_has_<name>" keys in the robot's status message.
func (c Config) Has(capability string) bool {
	return c.Capabilities["robot_has_"+capability]
}

// Tracker holds the latest robot configuration snapshot, refreshed
// asynchronously from robot status messages.
type Tracker struct {
	mu       sync.RWMutex
	config   Config
	handlers []func(Config)
}

// NewTracker creates a tracker with an empty snapshot: no name, no
// capabilities, so every gated action stays disabled until the robot
// reports in.
func NewTracker() *Tracker {
	return &Tracker{config: Config{Capabilities: map[string]bool{}}}
}

// Snapshot returns the current configuration. The returned value is a copy;
// callers may hold it across dispatches without seeing concurrent updates.
func (t *Tracker) Snapshot() Config {
	t.mu.RLock()
	defer t.mu.RUnlock()
	caps := make(map[string]bool, len(t.config.Capabilities))
	for k, v := range t.config.Capabilities {
		caps[k] = v
	}
	return Config{Name: t.config.Name, Capabilities: caps}
}

// Update replaces the snapshot and notifies subscribers.
func (t *Tracker) Update(name string, capabilities map[string]bool) {
	t.mu.Lock()
	caps := make(map[string]bool, len(capabilities))
	for k, v := range capabilities {
		caps[k] = v
	}
	t.config = Config{Name: name, Capabilities: caps}
	handlers := make([]func(Config), len(t.handlers))
	copy(handlers, t.handlers)
	snapshot := t.config
	t.mu.Unlock()

	for _, handler := range handlers {
		handler(snapshot)
	}
}

// OnUpdate registers a handler called after every snapshot change.
func (t *Tracker) OnUpdate(handler func(Config)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, handler)
}

// UpdateFromStatus ingests the robot's status message payload: a config
// object of arbitrary values from which only booleans gate capabilities.
func (t *Tracker) UpdateFromStatus(name string, config map[string]any) {
	caps := make(map[string]bool)
	for k, v := range config {
		if b, ok := v.(bool); ok {
			caps[k] = b
		}
	}
	t.Update(name, caps)
}
