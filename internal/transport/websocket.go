package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/imarchand/pirobot-remote/internal/command"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsWriteTimeout     = 2 * time.Second
	wsReconnectDelay   = time.Second
)

// WebSocketClient talks to the robot's message bus over a websocket,
// wrapping every command as {topic: "robot", message: ...}. It keeps its own
// reconnect loop; a dead link turns sends into Disconnected results without
// blocking the caller beyond the write timeout.
type WebSocketClient struct {
	url string

	mu        sync.Mutex
	conn      *websocket.Conn
	consumers map[string][]Consumer

	// writeMu serializes Send callers; the connection supports only one
	// concurrent writer.
	writeMu sync.Mutex
}

// NewWebSocketClient creates a client for ws://<host>/ws/robot.
func NewWebSocketClient(host string) *WebSocketClient {
	return &WebSocketClient{
		url:       fmt.Sprintf("ws://%s/ws/robot", host),
		consumers: make(map[string][]Consumer),
	}
}

// RegisterConsumer subscribes a consumer to one inbound topic.
func (c *WebSocketClient) RegisterConsumer(topic string, consumer Consumer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consumers[topic] = append(c.consumers[topic], consumer)
}

// Connected reports whether a connection is currently established.
func (c *WebSocketClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Run dials and reads until ctx is cancelled, redialing after errors.
func (c *WebSocketClient) Run(ctx context.Context) {
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: wsHandshakeTimeout,
	}

	for {
		conn, _, err := dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("unable to connect, retrying", "url", c.url, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wsReconnectDelay):
			}
			continue
		}

		slog.Info("connected", "url", c.url)
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
		slog.Warn("connection lost, reconnecting", "url", c.url)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wsReconnectDelay):
		}
	}
}

func (c *WebSocketClient) readLoop(ctx context.Context, conn *websocket.Conn) {
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env inboundEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			slog.Warn("malformed inbound message", "error", err)
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

// Send writes one command inside the robot topic envelope. The write is
// bounded by a short deadline so a stalled link cannot back up into the
// input pipeline.
func (c *WebSocketClient) Send(cmd command.Command) SendResult {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return Disconnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	err := conn.WriteJSON(envelope{Topic: "robot", Message: cmd})
	if err == nil {
		return Ok
	}
	if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
		return Timeout
	}
	return Disconnected
}
