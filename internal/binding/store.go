package binding

import (
	"sync"

	"github.com/imarchand/pirobot-remote/internal/catalog"
	"github.com/imarchand/pirobot-remote/internal/input"
)

// Gamepad holds one device's persisted bindings. An event can carry at most
// one meaning per device: it appears in at most one of the three maps.
type Gamepad struct {
	GUID       input.DeviceID         `json:"guid"`
	Name       string                 `json:"name"`
	Actions    map[string]input.Event `json:"actions"`
	AxisGroups map[string]input.Event `json:"axis_group"`
	HatGroups  map[string]input.Event `json:"hat_group"`
}

func newGamepad(guid input.DeviceID, name string) *Gamepad {
	return &Gamepad{
		GUID:       guid,
		Name:       name,
		Actions:    make(map[string]input.Event),
		AxisGroups: make(map[string]input.Event),
		HatGroups:  make(map[string]input.Event),
	}
}

// Store is the mutable set of input bindings: one global keyboard table and
// one table per known gamepad. All mutation goes through the conflict-safe
// setters so the per-device injectivity invariant holds at every point.
type Store struct {
	mu       sync.RWMutex
	catalog  *catalog.Catalog
	keyboard map[string]input.Event
	gamepads map[input.DeviceID]*Gamepad
}

// NewStore creates an empty binding store over the given action catalog.
func NewStore(cat *catalog.Catalog) *Store {
	return &Store{
		catalog:  cat,
		keyboard: make(map[string]input.Event),
		gamepads: make(map[input.DeviceID]*Gamepad),
	}
}

// BindKey binds a keyboard key to an action. Any action previously bound to
// the same key loses its binding; any key previously bound to the action is
// freed. Idempotent.
func (s *Store) BindKey(actionID string, ev input.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for existing, bound := range s.keyboard {
		if bound == ev {
			delete(s.keyboard, existing)
		}
	}
	s.keyboard[actionID] = ev
}

// UnbindKey removes an action's keyboard binding, leaving the key free.
func (s *Store) UnbindKey(actionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keyboard, actionID)
}

// BindGamepad routes a captured event to the right namespace for the action:
// an axis event binds the action's axis group, a hat event binds its hat
// group, anything else binds the action directly. Axis and hat events aimed
// at an action with no matching group are dropped, as the event cannot drive
// that action.
func (s *Store) BindGamepad(guid input.DeviceID, name, actionID string, ev input.Event) {
	action := s.catalog.ByID(actionID)
	switch ev.Kind {
	case input.KindAxis:
		if action != nil && action.AxisGroup != "" {
			s.BindGamepadAxisGroup(guid, name, actionID, action.AxisGroup, ev)
		}
	case input.KindHat:
		if action != nil && action.HatGroup != "" {
			s.BindGamepadHatGroup(guid, name, actionID, action.HatGroup, ev)
		}
	default:
		s.BindGamepadAction(guid, name, actionID, ev)
	}
}

// BindGamepadAction binds an event directly to an action on one device.
func (s *Store) BindGamepadAction(guid input.DeviceID, name, actionID string, ev input.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pad := s.pad(guid, name)
	s.evict(pad, actionID, ev)
	pad.Actions[actionID] = ev
}

// BindGamepadAxisGroup binds an event to an axis group on one device.
func (s *Store) BindGamepadAxisGroup(guid input.DeviceID, name, actionID, group string, ev input.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pad := s.pad(guid, name)
	s.evict(pad, actionID, ev)
	pad.AxisGroups[group] = ev
}

// BindGamepadHatGroup binds an event to a hat group on one device.
func (s *Store) BindGamepadHatGroup(guid input.DeviceID, name, actionID, group string, ev input.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pad := s.pad(guid, name)
	s.evict(pad, actionID, ev)
	pad.HatGroups[group] = ev
}

// UnbindGamepad removes an action's direct binding on one device, leaving
// the event free. Group bindings are untouched; rebinding handles those.
func (s *Store) UnbindGamepad(guid input.DeviceID, actionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pad, ok := s.gamepads[guid]; ok {
		delete(pad.Actions, actionID)
	}
}

// pad returns the device's binding table, creating it on first use.
// Caller holds s.mu.
func (s *Store) pad(guid input.DeviceID, name string) *Gamepad {
	pad, ok := s.gamepads[guid]
	if !ok {
		pad = newGamepad(guid, name)
		s.gamepads[guid] = pad
	}
	if name != "" {
		pad.Name = name
	}
	return pad
}

// evict clears every binding on the device that would conflict with binding
// ev for actionID. The cascade is symmetric: binding an axis to a group also
// frees the group's button actions and their hat group, and binding a hat
// frees the hat group's actions and their axis group. Caller holds s.mu.
func (s *Store) evict(pad *Gamepad, actionID string, ev input.Event) {
	actions := map[string]bool{actionID: true}
	axisGroups := map[string]bool{}
	hatGroups := map[string]bool{}

	for a, bound := range pad.Actions {
		if bound == ev {
			actions[a] = true
		}
	}
	for g, bound := range pad.AxisGroups {
		if bound == ev {
			axisGroups[g] = true
		}
	}
	for g, bound := range pad.HatGroups {
		if bound == ev {
			hatGroups[g] = true
		}
	}

	action := s.catalog.ByID(actionID)
	if action != nil && action.AxisGroup != "" {
		axisGroups[action.AxisGroup] = true
		if ev.Kind == input.KindAxis {
			for _, member := range s.catalog.AxisGroupActions(action.AxisGroup) {
				actions[member.ID] = true
				if member.HatGroup != "" {
					hatGroups[member.HatGroup] = true
				}
			}
		}
	}
	if action != nil && action.HatGroup != "" {
		hatGroups[action.HatGroup] = true
		if ev.Kind == input.KindHat {
			for _, member := range s.catalog.HatGroupActions(action.HatGroup) {
				actions[member.ID] = true
				if member.AxisGroup != "" {
					axisGroups[member.AxisGroup] = true
				}
			}
		}
	}

	for a := range actions {
		delete(pad.Actions, a)
	}
	for g := range axisGroups {
		delete(pad.AxisGroups, g)
	}
	for g := range hatGroups {
		delete(pad.HatGroups, g)
	}
}

// KeyForAction returns the keyboard event bound to an action, if any.
func (s *Store) KeyForAction(actionID string) (input.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.keyboard[actionID]
	return ev, ok
}

// EventsForAction returns every gamepad event currently able to produce the
// action on one device: the group bindings of its axis and hat groups plus
// its own direct binding, in that order.
func (s *Store) EventsForAction(guid input.DeviceID, actionID string) []input.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pad, ok := s.gamepads[guid]
	if !ok {
		return nil
	}
	var events []input.Event
	if action := s.catalog.ByID(actionID); action != nil {
		if action.AxisGroup != "" {
			if ev, ok := pad.AxisGroups[action.AxisGroup]; ok {
				events = append(events, ev)
			}
		}
		if action.HatGroup != "" {
			if ev, ok := pad.HatGroups[action.HatGroup]; ok {
				events = append(events, ev)
			}
		}
	}
	if ev, ok := pad.Actions[actionID]; ok {
		events = append(events, ev)
	}
	return events
}

// Gamepads returns the GUIDs of all devices with a binding table.
func (s *Store) Gamepads() []input.DeviceID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]input.DeviceID, 0, len(s.gamepads))
	for guid := range s.gamepads {
		out = append(out, guid)
	}
	return out
}

// HasGamepad reports whether the device already has persisted bindings,
// used to decide whether to prompt for configuration on connect.
func (s *Store) HasGamepad(guid input.DeviceID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pad, ok := s.gamepads[guid]
	if !ok {
		return false
	}
	return len(pad.Actions) > 0 || len(pad.AxisGroups) > 0 || len(pad.HatGroups) > 0
}
