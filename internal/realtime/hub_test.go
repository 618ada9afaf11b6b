package realtime

import (
	"context"
	"sync"
	"encoding/json"
	"testing"
	"time"

	"github.com/dom/wedding-planner/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logger.Nop())
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func waitForClients(t *testing.T, hub *Hub, userID uint64, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.ClientCount(userID) == want
	}, time.Second, 10*time.Millisecond)
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "client channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_DeliversOnlyToAddressedUser(t *testing.T) {
	hub := startHub(t)

	alice1 := NewClient(hub, nil, 1)
	alice2 := NewClient(hub, nil, 1)
	bob := NewClient(hub, nil, 2)
	hub.Register(alice1)
	hub.Register(alice2)
	hub.Register(bob)
	waitForClients(t, hub, 1, 2)
	waitForClients(t, hub, 2, 1)

	ev, err := NewEvent(EventCoupleConnected, 1, CoupleConnectedPayload{CoupleID: 7, PartnerID: 2})
	require.NoError(t, err)
	hub.Deliver(ev)

	for _, c := range []*Client{alice1, alice2} {
		got := receive(t, c)
		assert.Equal(t, ev.ID, got.ID)
		assert.Equal(t, EventCoupleConnected, got.Type)

		var payload CoupleConnectedPayload
		require.NoError(t, json.Unmarshal(got.Payload, &payload))
		assert.Equal(t, uint64(7), payload.CoupleID)
	}

	select {
	case <-bob.send:
		t.Fatal("bob should not receive alice's event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesClient(t *testing.T) {
	hub := startHub(t)

	c := NewClient(hub, nil, 3)
	hub.Register(c)
	waitForClients(t, hub, 3, 1)

	hub.Unregister(c)
	waitForClients(t, hub, 3, 0)

	_, ok := <-c.send
	assert.False(t, ok)
	assert.False(t, c.trySend([]byte("late")))
}

func TestHub_StopClosesAllClients(t *testing.T) {
	hub := NewHub(logger.Nop())
	go hub.Run()

	c := NewClient(hub, nil, 4)
	hub.Register(c)
	waitForClients(t, hub, 4, 1)

	hub.Stop()
	hub.Stop()

	_, ok := <-c.send
	assert.False(t, ok)

	// Calls after shutdown return instead of blocking
	hub.Deliver(Event{UserID: 4})
	hub.Unregister(c)
}

func TestHub_ConcurrentStop(t *testing.T) {
	hub := NewHub(logger.Nop())
	go hub.Run()

	c := NewClient(hub, nil, 5)
	hub.Register(c)
	waitForClients(t, hub, 5, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Stop()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.ClientCount(5))
	assert.False(t, c.trySend([]byte("late")))
}

func TestLocalBus_ForwardsToHandlers(t *testing.T) {
	bus := NewLocalBus()
	ctx := context.Background()

	var got []Event
	require.NoError(t, bus.StartForwarder(ctx, func(ev Event) { got = append(got, ev) }))

	ev, err := NewEvent(EventCoupleConnected, 9, CoupleConnectedPayload{CoupleID: 1})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, ev))
	require.Len(t, got, 1)
	assert.Equal(t, ev.ID, got[0].ID)

	require.NoError(t, bus.Close())
	assert.Error(t, bus.Publish(ctx, ev))
	assert.Error(t, bus.StartForwarder(ctx, func(Event) {}))
}
