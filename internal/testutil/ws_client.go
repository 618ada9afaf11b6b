package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dom/wedding-planner/internal/realtime"
	gorillaWS "github.com/gorilla/websocket"
)

// WSClient is a test WebSocket client
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *realtime.Event
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// NewWSClient creates a new WebSocket test client
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *realtime.Event, 16),
		errors:   make(chan error, 4),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			}
			return
		}

		var ev realtime.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.errors <- err
			continue
		}

		select {
		case c.messages <- &ev:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

// ExpectEvent waits for an event of the given type, skipping others.
func (c *WSClient) ExpectEvent(eventType realtime.EventType, timeout time.Duration) *realtime.Event {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case ev := <-c.messages:
			if ev == nil {
				c.t.Fatalf("connection closed while waiting for %s", eventType)
			}
			if ev.Type == eventType {
				return ev
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", eventType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for event type %s", eventType)
		}
	}
}

// ExpectCoupleConnected waits for and decodes a COUPLE_CONNECTED event
func (c *WSClient) ExpectCoupleConnected(timeout time.Duration) *realtime.CoupleConnectedPayload {
	c.t.Helper()

	ev := c.ExpectEvent(realtime.EventCoupleConnected, timeout)

	var payload realtime.CoupleConnectedPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode couple connected payload: %v", err)
	}
	return &payload
}

// ExpectNoEvent verifies no events are received within timeout
func (c *WSClient) ExpectNoEvent(timeout time.Duration) {
	c.t.Helper()

	select {
	case ev := <-c.messages:
		if ev != nil {
			c.t.Fatalf("unexpected event received: %s", ev.Type)
		}
	case <-time.After(timeout):
	}
}
