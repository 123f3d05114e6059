package input

import (
	"encoding/json"
	"fmt"
)

// DeviceID is the stable identity of a physical gamepad. Persisted binding
// files are keyed by it, so it must survive reconnects of the same hardware.
type DeviceID string

// KeyboardDevice scopes composed axis state coming from the global keyboard
// mapping rather than a particular gamepad.
const KeyboardDevice DeviceID = "keyboard"

// Kind discriminates the event union.
type Kind int

const (
	KindKey Kind = iota
	KindButton
	KindAxis
	KindHat
)

func (k Kind) String() string {
	switch k {
	case KindKey:
		return "key"
	case KindButton:
		return "button"
	case KindAxis:
		return "axis"
	case KindHat:
		return "hat"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Event is one normalized physical input: a keyboard key, a gamepad button,
// an analog axis or a directional hat. Two events are equal iff they have the
// same kind and the same code. The struct is comparable and is used directly
// as a map value in the binding store.
type Event struct {
	Kind Kind
	Code int
}

// Key builds a keyboard key event.
func Key(code int) Event { return Event{Kind: KindKey, Code: code} }

// Button builds a gamepad button event.
func Button(index int) Event { return Event{Kind: KindButton, Code: index} }

// Axis builds an analog axis event.
func Axis(index int) Event { return Event{Kind: KindAxis, Code: index} }

// Hat builds a directional hat event.
func Hat(index int) Event { return Event{Kind: KindHat, Code: index} }

func (e Event) String() string {
	switch e.Kind {
	case KindKey:
		return KeyName(e.Code)
	case KindButton:
		return fmt.Sprintf("%d", e.Code)
	case KindAxis:
		return fmt.Sprintf("Axis %d", e.Code)
	case KindHat:
		return fmt.Sprintf("Hat %d", e.Code)
	default:
		return "N/A"
	}
}

// wireEvent is the persisted JSON shape: exactly one of the index fields is
// present, selected by Type.
type wireEvent struct {
	Type   string `json:"type"`
	Key    *int   `json:"key,omitempty"`
	Button *int   `json:"button,omitempty"`
	Axis   *int   `json:"axis,omitempty"`
	Hat    *int   `json:"hat,omitempty"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	code := e.Code
	w := wireEvent{Type: e.Kind.String()}
	switch e.Kind {
	case KindKey:
		w.Key = &code
	case KindButton:
		w.Button = &code
	case KindAxis:
		w.Axis = &code
	case KindHat:
		w.Hat = &code
	default:
		return nil, fmt.Errorf("cannot marshal event of kind %d", int(e.Kind))
	}
	return json.Marshal(w)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case "key":
		if w.Key == nil {
			return fmt.Errorf("key event missing key code")
		}
		*e = Key(*w.Key)
	case "button":
		if w.Button == nil {
			return fmt.Errorf("button event missing button index")
		}
		*e = Button(*w.Button)
	case "axis":
		if w.Axis == nil {
			return fmt.Errorf("axis event missing axis index")
		}
		*e = Axis(*w.Axis)
	case "hat":
		if w.Hat == nil {
			return fmt.Errorf("hat event missing hat index")
		}
		*e = Hat(*w.Hat)
	default:
		return fmt.Errorf("unknown event type %q", w.Type)
	}
	return nil
}
