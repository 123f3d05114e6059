// Package gamepad polls attached joysticks and normalizes their state
// changes into device-scoped input events.
package gamepad

import (
	"context"
	"log/slog"
	"time"

	"github.com/0xcafed00d/joystick"

	"github.com/imarchand/pirobot-remote/internal/input"
)

// axisRange is the raw magnitude reported by the joystick driver.
const axisRange = 32767.0

// Handler receives normalized gamepad events. All callbacks run on the
// polling goroutine and must not block.
type Handler interface {
	DeviceAdded(guid input.DeviceID, name string)
	DeviceRemoved(guid input.DeviceID)
	ButtonEvent(device input.DeviceID, index int, down bool)
	AxisEvent(device input.DeviceID, axis int, value float64)
	HatEvent(device input.DeviceID, hat, x, y int)
}

// Config tunes the polling loop.
type Config struct {
	// PollInterval is the state sampling period.
	PollInterval time.Duration
	// RescanInterval is how often unpopulated joystick slots are retried.
	RescanInterval time.Duration
	// Deadzone is the normalized magnitude below which an analog axis reads
	// as zero.
	Deadzone float64
	// HatAxisBase is the first axis index the driver maps hats onto; axes
	// from there up are reported in pairs as hat events.
	HatAxisBase int
	// MaxDevices is the number of joystick slots scanned.
	MaxDevices int
}

// DefaultConfig returns the polling defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:   10 * time.Millisecond,
		RescanInterval: time.Second,
		Deadzone:       0.08,
		HatAxisBase:    6,
		MaxDevices:     4,
	}
}

// device is one connected joystick and its last observed state.
type device struct {
	js       joystick.Joystick
	guid     input.DeviceID
	name     string
	axes     []int
	buttons  uint32
}

// Poller owns the dedicated input loop. It is the only writer of raw events
// into the pipeline and performs no network I/O of its own.
type Poller struct {
	config  Config
	handler Handler
	devices map[int]*device
}

// NewPoller creates a poller delivering events to handler.
func NewPoller(config Config, handler Handler) *Poller {
	return &Poller{
		config:  config,
		handler: handler,
		devices: make(map[int]*device),
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	lastScan := time.Time{}
	for {
		select {
		case <-ctx.Done():
			p.closeAll()
			return
		case now := <-ticker.C:
			if now.Sub(lastScan) >= p.config.RescanInterval {
				p.scan()
				lastScan = now
			}
			p.pollAll()
		}
	}
}

// scan opens joystick slots that are not yet populated.
func (p *Poller) scan() {
	for id := 0; id < p.config.MaxDevices; id++ {
		if _, open := p.devices[id]; open {
			continue
		}
		js, err := joystick.Open(id)
		if err != nil {
			continue
		}
		name := js.Name()
		guid := Identify(name)
		d := &device{
			js:   js,
			guid: guid,
			name: name,
			axes: make([]int, js.AxisCount()),
		}
		// Prime the state so connecting does not replay every control.
		if state, err := js.Read(); err == nil {
			copy(d.axes, state.AxisData)
			d.buttons = state.Buttons
		}
		p.devices[id] = d
		p.handler.DeviceAdded(guid, name)
	}
}

func (p *Poller) pollAll() {
	for id, d := range p.devices {
		state, err := d.js.Read()
		if err != nil {
			slog.Warn("gamepad read failed, dropping device", "name", d.name, "error", err)
			d.js.Close()
			delete(p.devices, id)
			p.handler.DeviceRemoved(d.guid)
			continue
		}
		p.diff(d, state)
	}
}

// diff emits events for every control that changed since the last sample.
func (p *Poller) diff(d *device, state joystick.State) {
	if state.Buttons != d.buttons {
		changed := state.Buttons ^ d.buttons
		for i := 0; i < d.js.ButtonCount() && i < 32; i++ {
			mask := uint32(1) << uint(i)
			if changed&mask != 0 {
				p.handler.ButtonEvent(d.guid, i, state.Buttons&mask != 0)
			}
		}
		d.buttons = state.Buttons
	}

	for i := 0; i < len(state.AxisData) && i < len(d.axes); i++ {
		if state.AxisData[i] == d.axes[i] {
			continue
		}
		d.axes[i] = state.AxisData[i]
		if i >= p.config.HatAxisBase {
			hat := (i - p.config.HatAxisBase) / 2
			x, y := p.hatState(d, hat)
			p.handler.HatEvent(d.guid, hat, x, y)
			continue
		}
		p.handler.AxisEvent(d.guid, i, p.normalize(state.AxisData[i]))
	}
}

// hatState reads both components of a hat from the current axis state as
// discrete -1/0/1 values. The driver reports hat-up as a negative raw y;
// hat events use the up-positive convention, so y is flipped here.
func (p *Poller) hatState(d *device, hat int) (int, int) {
	xIndex := p.config.HatAxisBase + hat*2
	yIndex := xIndex + 1
	x, y := 0, 0
	if xIndex < len(d.axes) {
		x = sign(d.axes[xIndex])
	}
	if yIndex < len(d.axes) {
		y = -sign(d.axes[yIndex])
	}
	return x, y
}

func (p *Poller) normalize(raw int) float64 {
	value := float64(raw) / axisRange
	if value > 1 {
		value = 1
	} else if value < -1 {
		value = -1
	}
	if value < p.config.Deadzone && value > -p.config.Deadzone {
		return 0
	}
	return value
}

func (p *Poller) closeAll() {
	for id, d := range p.devices {
		d.js.Close()
		delete(p.devices, id)
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
