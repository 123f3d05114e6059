// Package transport carries commands to the robot and robot messages back.
// Sends are fire-and-forget: the engine inspects the result for logging but
// never retries, and reconnection is the transport's own business.
package transport

import (
	"encoding/json"

	"github.com/imarchand/pirobot-remote/internal/command"
)

// SendResult reports the outcome of a single send attempt.
type SendResult int

const (
	Ok SendResult = iota
	Disconnected
	Timeout
)

func (r SendResult) String() string {
	switch r {
	case Ok:
		return "ok"
	case Disconnected:
		return "disconnected"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Transport sends commands to the robot.
type Transport interface {
	Send(cmd command.Command) SendResult
}

// Discard accepts every command without sending it anywhere. The binding
// editor runs against it so rebinding never drives a live robot.
type Discard struct{}

func (Discard) Send(command.Command) SendResult { return Ok }

// Consumer receives inbound robot messages for one topic.
type Consumer func(message []byte)

// Receiver is implemented by transports that also carry robot-to-client
// messages, fanned out to registered topic consumers.
type Receiver interface {
	RegisterConsumer(topic string, consumer Consumer)
}

// envelope wraps every message on the wire in both directions.
type envelope struct {
	Topic   string `json:"topic"`
	Message any    `json:"message"`
}

// inboundEnvelope defers message decoding to the topic consumer.
type inboundEnvelope struct {
	Topic   string          `json:"topic"`
	Message json.RawMessage `json:"message"`
}
