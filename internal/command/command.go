// Package command defines the closed set of outbound robot commands. Each
// variant is validated at construction; the wire JSON shape is produced only
// when a transport serializes the command.
package command

import (
	"encoding/json"
	"fmt"
)

// Command is one outbound robot command.
type Command interface {
	json.Marshaler
	// Name identifies the command for logging.
	Name() string
}

// envelope is the common wire shape {type, action, args?}.
type envelope struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Args   any    `json:"args,omitempty"`
}

// Stop halts both motors.
type Stop struct{}

func (Stop) Name() string { return "drive.stop" }

func (Stop) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Type: "drive", Action: "stop"})
}

// Orientation is a motor direction: forward or backward.
type Orientation string

const (
	Forward  Orientation = "F"
	Backward Orientation = "B"
)

// Move drives both motors at independent speeds. Speeds are magnitudes in
// [0,100]; direction is carried by the orientation.
type Move struct {
	LeftOrientation  Orientation
	LeftSpeed        int
	RightOrientation Orientation
	RightSpeed       int
}

// NewMove validates a move command.
func NewMove(leftO Orientation, leftSpeed int, rightO Orientation, rightSpeed int) (Move, error) {
	m := Move{
		LeftOrientation:  leftO,
		LeftSpeed:        leftSpeed,
		RightOrientation: rightO,
		RightSpeed:       rightSpeed,
	}
	if leftO != Forward && leftO != Backward {
		return Move{}, fmt.Errorf("invalid left orientation %q", leftO)
	}
	if rightO != Forward && rightO != Backward {
		return Move{}, fmt.Errorf("invalid right orientation %q", rightO)
	}
	if leftSpeed < 0 || leftSpeed > 100 {
		return Move{}, fmt.Errorf("left speed %d out of range", leftSpeed)
	}
	if rightSpeed < 0 || rightSpeed > 100 {
		return Move{}, fmt.Errorf("right speed %d out of range", rightSpeed)
	}
	return m, nil
}

func (Move) Name() string { return "drive.move" }

func (m Move) MarshalJSON() ([]byte, error) {
	type args struct {
		LeftOrientation  Orientation `json:"left_orientation"`
		LeftSpeed        int         `json:"left_speed"`
		RightOrientation Orientation `json:"right_orientation"`
		RightSpeed       int         `json:"right_speed"`
		Duration         int         `json:"duration"`
		Distance         *int        `json:"distance"`
		Rotation         *int        `json:"rotation"`
		AutoStop         bool        `json:"auto_stop"`
	}
	return json.Marshal(envelope{
		Type:   "drive",
		Action: "move",
		Args: args{
			LeftOrientation:  m.LeftOrientation,
			LeftSpeed:        m.LeftSpeed,
			RightOrientation: m.RightOrientation,
			RightSpeed:       m.RightSpeed,
			Duration:         30,
		},
	})
}

// CenterCamera returns the camera to its rest position.
type CenterCamera struct{}

func (CenterCamera) Name() string { return "camera.center_position" }

func (CenterCamera) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Type: "camera", Action: "center_position"})
}

// SetCameraPosition tilts the camera to an absolute position in [0,100].
type SetCameraPosition struct {
	Position int
}

// NewSetCameraPosition validates a camera position command.
func NewSetCameraPosition(position int) (SetCameraPosition, error) {
	if position < 0 || position > 100 {
		return SetCameraPosition{}, fmt.Errorf("camera position %d out of range", position)
	}
	return SetCameraPosition{Position: position}, nil
}

func (SetCameraPosition) Name() string { return "camera.set_position" }

func (c SetCameraPosition) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{
		Type:   "camera",
		Action: "set_position",
		Args:   map[string]int{"position": c.Position},
	})
}

// StartVideo starts robot-side video streaming from a camera source.
type StartVideo struct {
	Source string
}

func (StartVideo) Name() string { return "camera.start_video" }

func (c StartVideo) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{
		Type:   "camera",
		Action: "start_video",
		Args:   map[string]string{"source": c.Source},
	})
}

// StopVideo stops robot-side video streaming.
type StopVideo struct{}

func (StopVideo) Name() string { return "camera.stop_video" }

func (StopVideo) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Type: "camera", Action: "stop_video"})
}

// CapturePicture takes a still picture on the robot.
type CapturePicture struct {
	Source      string
	Format      string
	Destination string
}

func (CapturePicture) Name() string { return "camera.capture_picture" }

func (c CapturePicture) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{
		Type:   "camera",
		Action: "capture_picture",
		Args: map[string]string{
			"source":      c.Source,
			"format":      c.Format,
			"destination": c.Destination,
		},
	})
}

// PlayMessage plays a text message on the robot's speaker or LCD.
type PlayMessage struct {
	Message     string
	Destination string
}

func (PlayMessage) Name() string { return "talk.play" }

func (c PlayMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{
		Type:   "talk",
		Action: "play",
		Args: map[string]string{
			"message":     c.Message,
			"destination": c.Destination,
		},
	})
}

// GetConfiguration asks the robot to report its configuration.
type GetConfiguration struct{}

func (GetConfiguration) Name() string { return "configuration.get" }

func (GetConfiguration) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Type: "configuration", Action: "get"})
}

// UpdateConfiguration sets one robot configuration value.
type UpdateConfiguration struct {
	Key   string
	Value string
}

func (UpdateConfiguration) Name() string { return "configuration.update" }

func (c UpdateConfiguration) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{
		Type:   "configuration",
		Action: "update",
		Args:   map[string]string{"key": c.Key, "value": c.Value},
	})
}

// Literal forwards a catalog-declared command payload verbatim.
type Literal struct {
	Payload map[string]any
}

// NewLiteral validates a passthrough payload; the robot dispatches on the
// type field, so a payload without one is rejected here instead of silently
// dropped robot-side.
func NewLiteral(payload map[string]any) (Literal, error) {
	if _, ok := payload["type"]; !ok {
		return Literal{}, fmt.Errorf("literal command has no type field")
	}
	return Literal{Payload: payload}, nil
}

func (c Literal) Name() string {
	t, _ := c.Payload["type"].(string)
	a, _ := c.Payload["action"].(string)
	return fmt.Sprintf("%s.%s", t, a)
}

func (c Literal) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Payload)
}

// FromPayload promotes a catalog-declared payload to its typed variant where
// one exists, so catalog-driven dispatch goes through the same command types
// as the built-in surfaces. Unrecognized payloads pass through as a Literal.
func FromPayload(payload map[string]any) (Command, error) {
	literal, err := NewLiteral(payload)
	if err != nil {
		return nil, err
	}
	args, _ := payload["args"].(map[string]any)
	str := func(key string) string {
		v, _ := args[key].(string)
		return v
	}
	cmdType, _ := payload["type"].(string)
	action, _ := payload["action"].(string)
	switch {
	case cmdType == "camera" && action == "start_video":
		return StartVideo{Source: str("source")}, nil
	case cmdType == "camera" && action == "stop_video":
		return StopVideo{}, nil
	case cmdType == "camera" && action == "capture_picture":
		return CapturePicture{
			Source:      str("source"),
			Format:      str("format"),
			Destination: str("destination"),
		}, nil
	case cmdType == "configuration" && action == "update":
		return UpdateConfiguration{Key: str("key"), Value: str("value")}, nil
	}
	return literal, nil
}
