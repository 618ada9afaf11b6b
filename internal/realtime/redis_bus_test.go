package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/dom/wedding-planner/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	addr, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}
	return addr
}

func TestRedisBus_DeliversAcrossInstances(t *testing.T) {
	addr := startRedis(t)

	publisher, err := NewRedisBus(logger.Nop(), addr, "test-events")
	require.NoError(t, err)
	defer publisher.Close()

	subscriber, err := NewRedisBus(logger.Nop(), addr, "test-events")
	require.NoError(t, err)
	defer subscriber.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Event, 1)
	require.NoError(t, subscriber.StartForwarder(ctx, func(ev Event) { received <- ev }))

	ev, err := NewEvent(EventCoupleConnected, 42, CoupleConnectedPayload{CoupleID: 5, PartnerID: 43, PartnerNickname: "Jun"})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, ev))

	select {
	case got := <-received:
		assert.Equal(t, ev.ID, got.ID)
		assert.Equal(t, uint64(42), got.UserID)
		assert.JSONEq(t, string(ev.Payload), string(got.Payload))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for redis event")
	}
}

func TestNewRedisBus_Validation(t *testing.T) {
	_, err := NewRedisBus(nil, "localhost:6379", "x")
	assert.Error(t, err)

	_, err = NewRedisBus(logger.Nop(), "  ", "x")
	assert.Error(t, err)
}
