// Package editor exposes the binding store to a configuration UI: listing
// current bindings, capturing replacements, resetting and persisting them.
package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/imarchand/pirobot-remote/internal/binding"
	"github.com/imarchand/pirobot-remote/internal/catalog"
	"github.com/imarchand/pirobot-remote/internal/client"
	"github.com/imarchand/pirobot-remote/internal/input"
)

// Scope selects what a session operation applies to: the global keyboard
// mapping or one gamepad.
type Scope struct {
	Device input.DeviceID
	Name   string
}

// KeyboardScope targets the global keyboard mapping.
func KeyboardScope() Scope {
	return Scope{Device: input.KeyboardDevice}
}

// GamepadScope targets one gamepad by identity.
func GamepadScope(guid input.DeviceID, name string) Scope {
	return Scope{Device: guid, Name: name}
}

func (s Scope) keyboard() bool {
	return s.Device == input.KeyboardDevice
}

// Session is one editing session over the binding store. Each session owns
// its observer list; observers die with the session instead of accumulating
// in process-wide state.
type Session struct {
	store   *binding.Store
	catalog *catalog.Catalog
	client  *client.Client
	dir     string

	mu        sync.Mutex
	observers []func()
	closed    bool
}

// NewSession opens an editing session persisting to dir.
func NewSession(store *binding.Store, cat *catalog.Catalog, cl *client.Client, dir string) *Session {
	return &Session{
		store:   store,
		catalog: cat,
		client:  cl,
		dir:     dir,
	}
}

// Observe registers a callback invoked after every binding change made
// through this session.
func (s *Session) Observe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.observers = append(s.observers, fn)
	}
}

// Close tears the session down, dropping its observers and any in-flight
// capture.
func (s *Session) Close() {
	s.mu.Lock()
	s.observers = nil
	s.closed = true
	s.mu.Unlock()
	s.client.ClearCaptureListener()
}

func (s *Session) notify() {
	s.mu.Lock()
	observers := make([]func(), len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()
	for _, fn := range observers {
		fn()
	}
}

// BindingsForAction returns every event currently producing the action in
// the given scope, for display.
func (s *Session) BindingsForAction(scope Scope, actionID string) []input.Event {
	if scope.keyboard() {
		if ev, ok := s.store.KeyForAction(actionID); ok {
			return []input.Event{ev}
		}
		return nil
	}
	return s.store.EventsForAction(scope.Device, actionID)
}

// Capture intercepts the next raw event in the scope and binds it to the
// action through the store's conflict-safe setters. It blocks until an event
// arrives or ctx is cancelled. Only one capture may be active system-wide;
// while it is, normal dispatch for the scope is suspended.
func (s *Session) Capture(ctx context.Context, scope Scope, actionID string) (input.Event, error) {
	if s.catalog.ByID(actionID) == nil {
		return input.Event{}, fmt.Errorf("unknown action %q", actionID)
	}

	events := make(chan input.Event, 1)
	listener := &client.CaptureListener{
		Device: scope.Device,
		Deliver: func(ev input.Event) {
			select {
			case events <- ev:
			default:
			}
		},
	}
	if err := s.client.SetCaptureListener(listener); err != nil {
		return input.Event{}, err
	}
	defer s.client.ClearCaptureListener()

	select {
	case <-ctx.Done():
		return input.Event{}, ctx.Err()
	case ev := <-events:
		if scope.keyboard() {
			s.store.BindKey(actionID, ev)
		} else {
			s.store.BindGamepad(scope.Device, scope.Name, actionID, ev)
		}
		s.notify()
		return ev, nil
	}
}

// Reset removes the action's direct binding in the scope, leaving its event
// free.
func (s *Session) Reset(scope Scope, actionID string) {
	if scope.keyboard() {
		s.store.UnbindKey(actionID)
	} else {
		s.store.UnbindGamepad(scope.Device, actionID)
	}
	s.notify()
}

// Save persists all bindings. Failures are returned so the operator can be
// told; in-memory bindings stay usable either way.
func (s *Session) Save() error {
	return s.store.Save(s.dir)
}

// Load re-reads all bindings from disk, discarding unsaved edits.
func (s *Session) Load() {
	s.store.Load(s.dir)
	s.notify()
}
