package binding

import (
	"github.com/imarchand/pirobot-remote/internal/input"
)

// SubAxis names one component of a composed 2D position.
type SubAxis string

const (
	SubX SubAxis = "x"
	SubY SubAxis = "y"
)

// Lookups below are reverse scans over the relevant mapping. Binding tables
// hold tens of entries and events arrive at human input rate, so linear
// scans are fine.

// ActionForKey returns the action bound to a keyboard event.
func (s *Store) ActionForKey(ev input.Event) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for action, bound := range s.keyboard {
		if bound == ev {
			return action, true
		}
	}
	return "", false
}

// ActionForGamepadEvent returns the action directly bound to an event on one
// device. Grouped actions are never reached this way for axis and hat
// events; those resolve through their group.
func (s *Store) ActionForGamepadEvent(guid input.DeviceID, ev input.Event) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pad, ok := s.gamepads[guid]
	if !ok {
		return "", false
	}
	for action, bound := range pad.Actions {
		if bound == ev {
			return action, true
		}
	}
	return "", false
}

// AxisGroupForAxis resolves a live analog axis index to the axis group it
// drives and the sub-axis it contributes to. A group binding records the
// stick's base axis: that index is the group's x, the next index its y.
func (s *Store) AxisGroupForAxis(guid input.DeviceID, axis int) (string, SubAxis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pad, ok := s.gamepads[guid]
	if !ok {
		return "", "", false
	}
	for group, bound := range pad.AxisGroups {
		if bound.Kind != input.KindAxis {
			continue
		}
		switch axis {
		case bound.Code:
			return group, SubX, true
		case bound.Code + 1:
			return group, SubY, true
		}
	}
	return "", "", false
}

// AxisGroupForEvent returns the axis group an event is bound to, if any.
func (s *Store) AxisGroupForEvent(guid input.DeviceID, ev input.Event) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pad, ok := s.gamepads[guid]
	if !ok {
		return "", false
	}
	for group, bound := range pad.AxisGroups {
		if bound == ev {
			return group, true
		}
	}
	return "", false
}

// HatGroupForEvent returns the hat group an event is bound to, if any.
func (s *Store) HatGroupForEvent(guid input.DeviceID, ev input.Event) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pad, ok := s.gamepads[guid]
	if !ok {
		return "", false
	}
	for group, bound := range pad.HatGroups {
		if bound == ev {
			return group, true
		}
	}
	return "", false
}
