package transport

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/imarchand/pirobot-remote/internal/command"
)

const (
	tcpDialTimeout    = 10 * time.Second
	tcpWriteTimeout   = 2 * time.Second
	tcpReconnectDelay = time.Second

	// maxFrameSize bounds inbound frames so a corrupt length prefix cannot
	// make the reader allocate arbitrary memory.
	maxFrameSize = 1 << 20
)

// TCPClient talks to the robot over a plain socket carrying length-prefixed
// JSON frames: a 4-byte big-endian payload length followed by the payload.
// Commands go out bare, without the websocket topic envelope; inbound frames
// use the same {topic, message} shape as the websocket deployment.
type TCPClient struct {
	addr string

	mu        sync.Mutex
	conn      net.Conn
	consumers map[string][]Consumer

	// writeMu serializes Send callers: a frame is a header write followed
	// by a payload write, and interleaved frames would desynchronize the
	// stream for good.
	writeMu sync.Mutex
}

// NewTCPClient creates a client for the robot socket at addr (host:port).
func NewTCPClient(addr string) *TCPClient {
	return &TCPClient{
		addr:      addr,
		consumers: make(map[string][]Consumer),
	}
}

// RegisterConsumer subscribes a consumer to one inbound topic.
func (c *TCPClient) RegisterConsumer(topic string, consumer Consumer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consumers[topic] = append(c.consumers[topic], consumer)
}

// Connected reports whether a connection is currently established.
func (c *TCPClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Run dials and reads until ctx is cancelled, redialing after errors.
func (c *TCPClient) Run(ctx context.Context) {
	dialer := &net.Dialer{Timeout: tcpDialTimeout}

	for {
		conn, err := dialer.DialContext(ctx, "tcp", c.addr)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("unable to connect, retrying", "addr", c.addr, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(tcpReconnectDelay):
			}
			continue
		}

		slog.Info("connected", "addr", c.addr)
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		c.readLoop(ctx, conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		slog.Warn("connection lost, reconnecting", "addr", c.addr)
		select {
		case <-ctx.Done():
			return
		case <-time.After(tcpReconnectDelay):
		}
	}
}

func (c *TCPClient) readLoop(ctx context.Context, conn net.Conn) {
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		payload, err := ReadFrame(conn)
		if err != nil {
			return
		}
		var env inboundEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			slog.Warn("malformed inbound frame", "error", err)
			continue
		}
		c.mu.Lock()
		consumers := append([]Consumer(nil), c.consumers[env.Topic]...)
		c.mu.Unlock()
		for _, consumer := range consumers {
			consumer(env.Message)
		}
	}
}

// Send writes one command as a length-prefixed JSON frame.
func (c *TCPClient) Send(cmd command.Command) SendResult {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return Disconnected
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		slog.Error("cannot encode command", "command", cmd.Name(), "error", err)
		return Disconnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(tcpWriteTimeout))
	if err := WriteFrame(conn, payload); err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return Timeout
		}
		return Disconnected
	}
	return Ok
}

// WriteFrame writes one length-prefixed frame.
func WriteFrame(w io.Writer, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed frame.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > maxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
