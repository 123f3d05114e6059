package transport

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/imarchand/pirobot-remote/internal/command"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"type":"drive","action":"stop"}`)

	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("ReadFrame() = %s, want %s", got, payload)
	}
}

func TestReadFrameRejectsOversize(t *testing.T) {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], maxFrameSize+1)

	if _, err := ReadFrame(bytes.NewReader(header[:])); err == nil {
		t.Error("ReadFrame() accepted an oversize length prefix")
	}
}

func TestReadFrameShortPayload(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(10))
	buf.WriteString("abc")

	if _, err := ReadFrame(&buf); err == nil {
		t.Error("ReadFrame() accepted a truncated frame")
	}
}

func TestSendWhileDisconnected(t *testing.T) {
	c := NewTCPClient("127.0.0.1:1")
	if got := c.Send(command.Stop{}); got != Disconnected {
		t.Errorf("Send() = %v, want Disconnected", got)
	}
}

func TestDiscard(t *testing.T) {
	if got := (Discard{}).Send(command.Stop{}); got != Ok {
		t.Errorf("Discard.Send() = %v, want Ok", got)
	}
}

func TestTCPClientExchange(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	type serverResult struct {
		frame []byte
		err   error
	}
	frames := make(chan serverResult, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			frames <- serverResult{err: err}
			return
		}
		defer conn.Close()

		payload, err := ReadFrame(conn)
		frames <- serverResult{frame: payload, err: err}

		status := []byte(`{"topic":"status","message":{"robot_name":"testbot","config":{}}}`)
		WriteFrame(conn, status)
		// Hold the connection open until the client is done with it.
		ReadFrame(conn)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := NewTCPClient(ln.Addr().String())
	received := make(chan []byte, 1)
	c.RegisterConsumer("status", func(message []byte) {
		received <- message
	})
	go c.Run(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for !c.Connected() {
		if time.Now().After(deadline) {
			t.Fatal("client never connected")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if got := c.Send(command.Stop{}); got != Ok {
		t.Fatalf("Send() = %v, want Ok", got)
	}

	select {
	case r := <-frames:
		if r.err != nil {
			t.Fatalf("server read error = %v", r.err)
		}
		var got map[string]any
		if err := json.Unmarshal(r.frame, &got); err != nil {
			t.Fatalf("frame is not JSON: %v", err)
		}
		// TCP frames carry the bare command with no topic envelope.
		want := map[string]any{"type": "drive", "action": "stop"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("frame = %v, want %v", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server never received the command frame")
	}

	select {
	case message := <-received:
		var status struct {
			RobotName string `json:"robot_name"`
		}
		if err := json.Unmarshal(message, &status); err != nil {
			t.Fatalf("status message is not JSON: %v", err)
		}
		if status.RobotName != "testbot" {
			t.Errorf("robot_name = %q, want testbot", status.RobotName)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("status consumer never ran")
	}
}

// Interleaved header/payload writes from concurrent senders would
// desynchronize the frame stream, so the server checks every frame decodes.
func TestTCPClientConcurrentSends(t *testing.T) {
	const senders, perSender = 8, 25

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	serverDone := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			serverDone <- err
			return
		}
		defer conn.Close()

		for i := 0; i < senders*perSender; i++ {
			payload, err := ReadFrame(conn)
			if err != nil {
				serverDone <- fmt.Errorf("frame %d: %v", i, err)
				return
			}
			var got map[string]any
			if err := json.Unmarshal(payload, &got); err != nil {
				serverDone <- fmt.Errorf("frame %d is not JSON: %v", i, err)
				return
			}
			if got["type"] != "drive" || got["action"] != "stop" {
				serverDone <- fmt.Errorf("frame %d = %v, want drive/stop", i, got)
				return
			}
		}
		serverDone <- nil
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := NewTCPClient(ln.Addr().String())
	go c.Run(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for !c.Connected() {
		if time.Now().After(deadline) {
			t.Fatal("client never connected")
		}
		time.Sleep(10 * time.Millisecond)
	}

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				if got := c.Send(command.Stop{}); got != Ok {
					t.Errorf("Send() = %v, want Ok", got)
					return
				}
			}
		}()
	}
	wg.Wait()

	select {
	case err := <-serverDone:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server never received every frame")
	}
}
