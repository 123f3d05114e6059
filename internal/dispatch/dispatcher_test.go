package dispatch

import (
	"testing"

	"github.com/imarchand/pirobot-remote/internal/catalog"
	"github.com/imarchand/pirobot-remote/internal/command"
	"github.com/imarchand/pirobot-remote/internal/robot"
	"github.com/imarchand/pirobot-remote/internal/transport"
)

// recorder captures sent commands instead of delivering them.
type recorder struct {
	cmds []command.Command
}

func (r *recorder) Send(cmd command.Command) transport.SendResult {
	r.cmds = append(r.cmds, cmd)
	return transport.Ok
}

// fakeApp records app control effects.
type fakeApp struct {
	closed       bool
	destinations []string
}

func (a *fakeApp) Close() { a.closed = true }

func (a *fakeApp) PromptMessage(destination string) {
	a.destinations = append(a.destinations, destination)
}

func testDispatcher(t *testing.T) (*Dispatcher, *recorder, *robot.Tracker, *fakeApp) {
	t.Helper()
	cat, err := catalog.Load("")
	if err != nil {
		t.Fatalf("catalog.Load() error = %v", err)
	}
	rec := &recorder{}
	tracker := robot.NewTracker()
	app := &fakeApp{}
	return NewDispatcher(cat, rec, tracker, app), rec, tracker, app
}

func lastMove(t *testing.T, rec *recorder) command.Move {
	t.Helper()
	if len(rec.cmds) == 0 {
		t.Fatal("no command sent")
	}
	move, ok := rec.cmds[len(rec.cmds)-1].(command.Move)
	if !ok {
		t.Fatalf("last command = %T, want Move", rec.cmds[len(rec.cmds)-1])
	}
	return move
}

func TestDriveStopWindow(t *testing.T) {
	d, rec, _, _ := testDispatcher(t)

	// Sub-percent deflection truncates to zero and stops.
	d.DispatchAxis("drive", 0.009, -0.009)

	if len(rec.cmds) != 1 {
		t.Fatalf("sent %d commands, want 1", len(rec.cmds))
	}
	if _, ok := rec.cmds[0].(command.Stop); !ok {
		t.Errorf("sent %T, want Stop", rec.cmds[0])
	}
}

func TestDriveDifferentialMix(t *testing.T) {
	tests := []struct {
		name             string
		x, y             float64
		leftO, rightO    command.Orientation
		leftSpd, rightSpd int
	}{
		{"forward", 0, -1, command.Forward, command.Forward, 100, 100},
		{"backward", 0, 1, command.Backward, command.Backward, 100, 100},
		{"spin right", 1, 0, command.Forward, command.Backward, 100, 100},
		{"spin left", -1, 0, command.Backward, command.Forward, 100, 100},
		{"forward right clamps left", 1, -1, command.Forward, command.Forward, 100, 0},
		{"half forward", 0, -0.5, command.Forward, command.Forward, 50, 50},
		{"truncates toward zero", 0, -0.999, command.Forward, command.Forward, 99, 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, rec, _, _ := testDispatcher(t)
			d.DispatchAxis("drive", tt.x, tt.y)

			move := lastMove(t, rec)
			if move.LeftOrientation != tt.leftO || move.LeftSpeed != tt.leftSpd {
				t.Errorf("left = %s/%d, want %s/%d",
					move.LeftOrientation, move.LeftSpeed, tt.leftO, tt.leftSpd)
			}
			if move.RightOrientation != tt.rightO || move.RightSpeed != tt.rightSpd {
				t.Errorf("right = %s/%d, want %s/%d",
					move.RightOrientation, move.RightSpeed, tt.rightO, tt.rightSpd)
			}
		})
	}
}

func TestSlowModeScalesDrive(t *testing.T) {
	d, rec, _, _ := testDispatcher(t)

	d.RunAction("motor_slow_mode")
	if !d.SlowMode() {
		t.Fatal("slow mode did not toggle on")
	}

	d.DispatchAxis("drive", 0, -1)
	move := lastMove(t, rec)
	if move.LeftSpeed != 30 || move.RightSpeed != 30 {
		t.Errorf("slow speeds = %d/%d, want 30/30", move.LeftSpeed, move.RightSpeed)
	}

	// Scaling truncates toward zero on both signs.
	d.DispatchAxis("drive", 0, 0.33)
	move = lastMove(t, rec)
	if move.LeftOrientation != command.Backward || move.LeftSpeed != 9 {
		t.Errorf("slow reverse = %s/%d, want B/9", move.LeftOrientation, move.LeftSpeed)
	}

	d.RunAction("motor_slow_mode")
	if d.SlowMode() {
		t.Error("slow mode did not toggle off")
	}
}

func TestCameraMapping(t *testing.T) {
	tests := []struct {
		name     string
		y        float64
		position int
		center   bool
	}{
		{"rest recenters", 0, 0, true},
		{"inside dead window", 0.01, 0, true},
		{"half down", 0.5, 25, false},
		{"half down truncates", 0.51, 24, false},
		{"full down", 1, 0, false},
		{"full up", -1, 100, false},
		{"half up", -0.5, 75, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, rec, _, _ := testDispatcher(t)
			d.DispatchAxis("camera", 0, tt.y)

			if len(rec.cmds) != 1 {
				t.Fatalf("sent %d commands, want 1", len(rec.cmds))
			}
			if tt.center {
				if _, ok := rec.cmds[0].(command.CenterCamera); !ok {
					t.Errorf("sent %T, want CenterCamera", rec.cmds[0])
				}
				return
			}
			cmd, ok := rec.cmds[0].(command.SetCameraPosition)
			if !ok {
				t.Fatalf("sent %T, want SetCameraPosition", rec.cmds[0])
			}
			if cmd.Position != tt.position {
				t.Errorf("position = %d, want %d", cmd.Position, tt.position)
			}
		})
	}
}

func TestCameraLock(t *testing.T) {
	d, rec, _, _ := testDispatcher(t)

	d.RunAction("lock_camera")
	if !d.CameraLocked() {
		t.Fatal("camera lock did not toggle on")
	}

	d.DispatchAxis("camera", 0, 0.5)
	if len(rec.cmds) != 0 {
		t.Fatalf("locked camera sent %v", rec.cmds)
	}

	// Unlocking recenters exactly once.
	d.RunAction("lock_camera")
	if d.CameraLocked() {
		t.Fatal("camera lock did not toggle off")
	}
	if len(rec.cmds) != 1 {
		t.Fatalf("unlock sent %d commands, want 1", len(rec.cmds))
	}
	if _, ok := rec.cmds[0].(command.CenterCamera); !ok {
		t.Errorf("unlock sent %T, want CenterCamera", rec.cmds[0])
	}
}

func TestCapabilityGate(t *testing.T) {
	d, rec, tracker, _ := testDispatcher(t)

	if d.Allowed("switch_back_camera") {
		t.Error("gated action allowed before the robot reported in")
	}
	if !d.Allowed("capture_picture") {
		t.Error("ungated action not allowed")
	}
	if d.Allowed("no_such_action") {
		t.Error("unknown action allowed")
	}

	d.RunAction("switch_back_camera")
	if len(rec.cmds) != 0 {
		t.Fatalf("gated action dispatched %v", rec.cmds)
	}

	tracker.Update("testbot", map[string]bool{"robot_has_back_camera": true})
	if !d.Allowed("switch_back_camera") {
		t.Error("action still gated after capability arrived")
	}
	d.RunAction("switch_back_camera")
	if len(rec.cmds) != 1 {
		t.Fatalf("sent %d commands, want 1", len(rec.cmds))
	}
	if got, ok := rec.cmds[0].(command.StartVideo); !ok || got.Source != "back" {
		t.Errorf("sent %#v, want StartVideo from the back camera", rec.cmds[0])
	}
}

// Catalog-declared payloads with a typed equivalent dispatch as that type;
// the rest go out as literals.
func TestRunActionCatalogCommands(t *testing.T) {
	d, rec, tracker, _ := testDispatcher(t)
	tracker.Update("testbot", map[string]bool{"robot_has_light": true})

	d.RunAction("capture_picture")
	d.RunAction("start_video")
	d.RunAction("stop_video")
	d.RunAction("toggle_light")
	if len(rec.cmds) != 4 {
		t.Fatalf("sent %d commands, want 4", len(rec.cmds))
	}

	want := command.CapturePicture{Source: "front", Format: "png", Destination: "file"}
	if got, ok := rec.cmds[0].(command.CapturePicture); !ok || got != want {
		t.Errorf("capture_picture sent %#v, want %#v", rec.cmds[0], want)
	}
	if got, ok := rec.cmds[1].(command.StartVideo); !ok || got.Source != "front" {
		t.Errorf("start_video sent %#v, want StartVideo from the front camera", rec.cmds[1])
	}
	if _, ok := rec.cmds[2].(command.StopVideo); !ok {
		t.Errorf("stop_video sent %T, want StopVideo", rec.cmds[2])
	}
	if got, ok := rec.cmds[3].(command.Literal); !ok || got.Name() != "light.toggle" {
		t.Errorf("toggle_light sent %#v, want a light.toggle literal", rec.cmds[3])
	}
}

func TestRunActionAppEffects(t *testing.T) {
	d, rec, _, app := testDispatcher(t)

	d.RunAction("say_message")
	d.RunAction("display_message")
	d.RunAction("app_close")

	if !app.closed {
		t.Error("app_close did not close the app")
	}
	want := []string{"audio", "lcd"}
	if len(app.destinations) != 2 || app.destinations[0] != want[0] || app.destinations[1] != want[1] {
		t.Errorf("prompt destinations = %v, want %v", app.destinations, want)
	}
	if len(rec.cmds) != 0 {
		t.Errorf("app effects sent commands %v", rec.cmds)
	}
}
