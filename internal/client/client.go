// Package client wires live input events through the binding resolver into
// the axis composer and command dispatcher. It is the single entry point for
// normalized device events and owns the system-wide capture listener slot
// used by the binding editor.
package client

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/imarchand/pirobot-remote/internal/binding"
	"github.com/imarchand/pirobot-remote/internal/catalog"
	"github.com/imarchand/pirobot-remote/internal/dispatch"
	"github.com/imarchand/pirobot-remote/internal/input"
	"github.com/imarchand/pirobot-remote/internal/robot"
)

// CaptureListener intercepts the next raw event for one scope instead of
// letting it reach the resolver. While registered, normal dispatch for that
// scope is suspended.
type CaptureListener struct {
	// Device scopes the capture to one gamepad; KeyboardDevice captures the
	// next keyboard key instead.
	Device  input.DeviceID
	Deliver func(input.Event)
}

// Client routes normalized input events to bindings and dispatch.
type Client struct {
	store      *binding.Store
	catalog    *catalog.Catalog
	composer   *dispatch.Composer
	dispatcher *dispatch.Dispatcher
	robot      *robot.Tracker

	// onNewDevice is called when a gamepad with no persisted bindings
	// connects, so the app can suggest configuring it.
	onNewDevice func(guid input.DeviceID, name string)

	mu      sync.Mutex
	capture *CaptureListener
}

// New creates a client over an already-wired store, composer and dispatcher.
func New(store *binding.Store, cat *catalog.Catalog, composer *dispatch.Composer, dispatcher *dispatch.Dispatcher, tracker *robot.Tracker) *Client {
	return &Client{
		store:      store,
		catalog:    cat,
		composer:   composer,
		dispatcher: dispatcher,
		robot:      tracker,
	}
}

// OnNewDevice registers the handler called for unconfigured gamepads.
func (c *Client) OnNewDevice(handler func(guid input.DeviceID, name string)) {
	c.onNewDevice = handler
}

// SetCaptureListener installs the single capture listener. Only one may be
// registered system-wide; a second registration fails until the first is
// cleared.
func (c *Client) SetCaptureListener(l *CaptureListener) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capture != nil {
		return fmt.Errorf("a capture listener is already registered")
	}
	c.capture = l
	return nil
}

// Capturing reports whether a capture listener is registered.
func (c *Client) Capturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}

// ClearCaptureListener removes the capture listener.
func (c *Client) ClearCaptureListener() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capture = nil
}

// captureFor returns the capture listener if it scopes the given device.
func (c *Client) captureFor(device input.DeviceID) *CaptureListener {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capture != nil && c.capture.Device == device {
		return c.capture
	}
	return nil
}

// KeyEvent processes a keyboard key press or release.
func (c *Client) KeyEvent(code int, down bool) {
	ev := input.Key(code)
	if capture := c.captureFor(input.KeyboardDevice); capture != nil {
		if down {
			capture.Deliver(ev)
		}
		return
	}

	actionID, ok := c.store.ActionForKey(ev)
	if !ok {
		return
	}
	c.runBoundAction(input.KeyboardDevice, actionID, down)
}

// ButtonEvent processes a gamepad button press or release.
func (c *Client) ButtonEvent(device input.DeviceID, index int, down bool) {
	ev := input.Button(index)
	if capture := c.captureFor(device); capture != nil {
		if down {
			capture.Deliver(ev)
		}
		return
	}

	actionID, ok := c.store.ActionForGamepadEvent(device, ev)
	if !ok {
		return
	}
	c.runBoundAction(device, actionID, down)
}

// runBoundAction drives a button-as-axis contribution for grouped actions,
// or fires a discrete action on press.
func (c *Client) runBoundAction(device input.DeviceID, actionID string, down bool) {
	action := c.catalog.ByID(actionID)
	if action == nil {
		return
	}
	if action.IsAxis() {
		if !c.dispatcher.Allowed(actionID) {
			return
		}
		value := action.Up()
		if down {
			value = action.Down()
		}
		sub := binding.SubX
		if action.AxisName == "y" {
			sub = binding.SubY
		}
		c.composer.SetSub(device, action.Group, sub, value)
		return
	}
	if down {
		c.dispatcher.RunAction(actionID)
	}
}

// AxisEvent processes an analog axis reading in [-1,1].
func (c *Client) AxisEvent(device input.DeviceID, axis int, value float64) {
	if capture := c.captureFor(device); capture != nil {
		// Sticks rest near zero; only a deliberate deflection counts as a
		// capture.
		if value > 0.5 || value < -0.5 {
			capture.Deliver(input.Axis(axis))
		}
		return
	}

	group, sub, ok := c.store.AxisGroupForAxis(device, axis)
	if !ok {
		return
	}
	surface, ok := c.axisSurface(group)
	if !ok {
		return
	}
	c.composer.SetSub(device, surface, sub, value)
}

// HatEvent processes a directional hat reading with raw components in
// {-1,0,1}.
func (c *Client) HatEvent(device input.DeviceID, hat, x, y int) {
	if capture := c.captureFor(device); capture != nil {
		if x != 0 || y != 0 {
			capture.Deliver(input.Hat(hat))
		}
		return
	}

	group, ok := c.store.HatGroupForEvent(device, input.Hat(hat))
	if !ok {
		return
	}
	surface, ok := c.hatSurface(group)
	if !ok {
		return
	}
	c.composer.SetHat(device, surface, x, y)
}

// axisSurface maps an axis-group name to its dispatch surface, taken from
// the group's member actions. Gated groups whose capability is absent do not
// dispatch.
func (c *Client) axisSurface(group string) (string, bool) {
	for _, member := range c.catalog.AxisGroupActions(group) {
		if member.Group == "" {
			continue
		}
		if !c.dispatcher.Allowed(member.ID) {
			return "", false
		}
		return member.Group, true
	}
	return "", false
}

func (c *Client) hatSurface(group string) (string, bool) {
	for _, member := range c.catalog.HatGroupActions(group) {
		if member.Group == "" {
			continue
		}
		if !c.dispatcher.Allowed(member.ID) {
			return "", false
		}
		return member.Group, true
	}
	return "", false
}

// DeviceAdded handles a gamepad connect. Persisted bindings are reused when
// the GUID is known; otherwise the new-device handler is invoked so the
// operator can be offered the editor.
func (c *Client) DeviceAdded(guid input.DeviceID, name string) {
	slog.Info("gamepad connected", "guid", guid, "name", name)
	if !c.store.HasGamepad(guid) && c.onNewDevice != nil {
		c.onNewDevice(guid, name)
	}
}

// DeviceRemoved handles a gamepad disconnect: live axis state is discarded,
// persisted bindings are kept for the next reconnect.
func (c *Client) DeviceRemoved(guid input.DeviceID) {
	slog.Info("gamepad disconnected", "guid", guid)
	c.composer.DropDevice(guid)
}

// statusMessage is the robot's status payload.
type statusMessage struct {
	RobotName string         `json:"robot_name"`
	Config    map[string]any `json:"config"`
}

// ConsumeStatus ingests a status message from the transport and refreshes
// the robot configuration snapshot.
func (c *Client) ConsumeStatus(message []byte) {
	var status statusMessage
	if err := json.Unmarshal(message, &status); err != nil {
		slog.Warn("malformed status message", "error", err)
		return
	}
	c.robot.UpdateFromStatus(status.RobotName, status.Config)
	slog.Info("robot configuration updated", "robot", status.RobotName)
}
