// Package dispatch turns resolved actions and composed axis positions into
// outbound robot commands.
package dispatch

import (
	"log/slog"
	"sync"

	"github.com/imarchand/pirobot-remote/internal/catalog"
	"github.com/imarchand/pirobot-remote/internal/command"
	"github.com/imarchand/pirobot-remote/internal/robot"
	"github.com/imarchand/pirobot-remote/internal/transport"
)

// Drive speeds are scaled by this factor while slow mode is on.
const slowModeFactor = 0.3

// AppControl is the handful of local effects discrete actions can have on
// the application itself, instead of producing a robot command.
type AppControl interface {
	Close()
	PromptMessage(destination string)
}

// Dispatcher maps composed axis positions and discrete actions to robot
// commands. It is stateless between calls except for the slow-mode and
// camera-lock toggles.
type Dispatcher struct {
	catalog   *catalog.Catalog
	transport transport.Transport
	robot     *robot.Tracker
	app       AppControl

	mu         sync.Mutex
	slowMode   bool
	cameraLock bool
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cat *catalog.Catalog, t transport.Transport, tracker *robot.Tracker, app AppControl) *Dispatcher {
	return &Dispatcher{
		catalog:   cat,
		transport: t,
		robot:     tracker,
		app:       app,
	}
}

// SlowMode reports whether slow mode is active.
func (d *Dispatcher) SlowMode() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.slowMode
}

// CameraLocked reports whether camera dispatch is suppressed.
func (d *Dispatcher) CameraLocked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cameraLock
}

// Allowed reports whether an action's required capability is present in the
// current robot configuration. Actions without a needs tag are always
// enabled; unknown actions never are.
func (d *Dispatcher) Allowed(actionID string) bool {
	action := d.catalog.ByID(actionID)
	if action == nil {
		return false
	}
	if action.Needs == "" {
		return true
	}
	return d.robot.Snapshot().Has(action.Needs)
}

// DispatchAxis turns a composed [-1,1] position into the group's command.
// Positions scale to integer percent truncated toward zero.
func (d *Dispatcher) DispatchAxis(group string, x, y float64) {
	xPercent := int(x * 100)
	yPercent := int(y * 100)
	switch group {
	case "drive":
		d.driveRobot(xPercent, yPercent)
	case "camera":
		d.moveCamera(yPercent)
	}
}

// driveRobot emits a stop inside the dead window, otherwise a differential
// move. right = -y - x, left = -y + x, both clamped to +/-100.
func (d *Dispatcher) driveRobot(x, y int) {
	if abs(x) < 1 && abs(y) < 1 {
		d.send(command.Stop{})
		return
	}

	rightSpeed := clamp(-y-x, -100, 100)
	leftSpeed := clamp(-y+x, -100, 100)

	if d.SlowMode() {
		rightSpeed = int(slowModeFactor * float64(rightSpeed))
		leftSpeed = int(slowModeFactor * float64(leftSpeed))
	}

	leftOrientation := command.Forward
	if leftSpeed < 0 {
		leftOrientation = command.Backward
	}
	rightOrientation := command.Forward
	if rightSpeed < 0 {
		rightOrientation = command.Backward
	}

	move, err := command.NewMove(leftOrientation, abs(leftSpeed), rightOrientation, abs(rightSpeed))
	if err != nil {
		slog.Error("invalid move command", "error", err)
		return
	}
	d.send(move)
}

// moveCamera recenters inside the small dead window, otherwise maps y
// percent onto the camera's 0..100 position range. Suppressed entirely
// while the camera lock is on.
func (d *Dispatcher) moveCamera(y int) {
	if d.CameraLocked() {
		return
	}
	if abs(y) < 2 {
		d.send(command.CenterCamera{})
		return
	}
	position := clamp(int(100-float64(100+y)/2), 0, 100)
	cmd, err := command.NewSetCameraPosition(position)
	if err != nil {
		slog.Error("invalid camera command", "error", err)
		return
	}
	d.send(cmd)
}

// RunAction fires a discrete action: a local app effect, one of the two
// toggles, or the action's literal command payloads. Called on press only.
// Capability-gated actions whose capability is absent are ignored; the
// editor should not offer them, but stale offers are defended against here.
func (d *Dispatcher) RunAction(actionID string) {
	if !d.Allowed(actionID) {
		return
	}

	switch actionID {
	case "app_close":
		if d.app != nil {
			d.app.Close()
		}
	case "say_message":
		if d.app != nil {
			d.app.PromptMessage("audio")
		}
	case "display_message":
		if d.app != nil {
			d.app.PromptMessage("lcd")
		}
	case "motor_slow_mode":
		d.mu.Lock()
		d.slowMode = !d.slowMode
		d.mu.Unlock()
	case "lock_camera":
		d.mu.Lock()
		d.cameraLock = !d.cameraLock
		locked := d.cameraLock
		d.mu.Unlock()
		if !locked {
			// Unlocking recenters the camera once.
			d.moveCamera(0)
		}
	default:
		action := d.catalog.ByID(actionID)
		for _, payload := range action.Commands {
			cmd, err := command.FromPayload(payload)
			if err != nil {
				slog.Warn("skipping malformed catalog command", "action", actionID, "error", err)
				continue
			}
			d.send(cmd)
		}
	}
}

// send forwards a command to the transport, fire-and-forget. Failures are
// logged and dropped; the next dispatch naturally carries fresh state.
func (d *Dispatcher) send(cmd command.Command) {
	if result := d.transport.Send(cmd); result != transport.Ok {
		slog.Warn("unable to send command", "command", cmd.Name(), "result", result)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
