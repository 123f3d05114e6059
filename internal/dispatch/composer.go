package dispatch

import (
	"sync"

	"github.com/imarchand/pirobot-remote/internal/binding"
	"github.com/imarchand/pirobot-remote/internal/input"
)

// Composer merges independent event sources into one bounded 2D position per
// (device, group) and re-dispatches the group whenever any contribution
// changes. There is no debouncing: every change produces a dispatch.
type Composer struct {
	mu        sync.Mutex
	positions map[positionKey]*position
	dispatch  func(group string, x, y float64)
}

type positionKey struct {
	device input.DeviceID
	group  string
}

type position struct {
	x, y float64
}

// NewComposer creates a composer that forwards composed positions to
// dispatch.
func NewComposer(dispatch func(group string, x, y float64)) *Composer {
	return &Composer{
		positions: make(map[positionKey]*position),
		dispatch:  dispatch,
	}
}

// SetSub updates one sub-axis of a group from an analog axis reading or a
// button/key contribution and dispatches the new position. Values outside
// [-1,1] are clamped.
func (c *Composer) SetSub(device input.DeviceID, group string, sub binding.SubAxis, value float64) {
	if value > 1 {
		value = 1
	} else if value < -1 {
		value = -1
	}

	c.mu.Lock()
	pos := c.position(device, group)
	if sub == binding.SubX {
		pos.x = value
	} else {
		pos.y = value
	}
	x, y := pos.x, pos.y
	c.mu.Unlock()

	c.dispatch(group, x, y)
}

// SetHat replaces the group's whole position with a hat reading. Hat events
// arrive up-positive while the dispatch surfaces treat up as negative y, so
// y is sign-inverted here.
func (c *Composer) SetHat(device input.DeviceID, group string, hatX, hatY int) {
	c.mu.Lock()
	pos := c.position(device, group)
	pos.x = float64(hatX)
	pos.y = -float64(hatY)
	x, y := pos.x, pos.y
	c.mu.Unlock()

	c.dispatch(group, x, y)
}

// DropDevice discards all live state for a disconnected device. Persisted
// bindings are unaffected.
func (c *Composer) DropDevice(device input.DeviceID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.positions {
		if key.device == device {
			delete(c.positions, key)
		}
	}
}

// position returns the group's live state, created lazily at the (0,0)
// rest position. Caller holds c.mu.
func (c *Composer) position(device input.DeviceID, group string) *position {
	key := positionKey{device: device, group: group}
	pos, ok := c.positions[key]
	if !ok {
		pos = &position{}
		c.positions[key] = pos
	}
	return pos
}
