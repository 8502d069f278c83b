package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convopilot/convopilot/pkg/channels/gochannel"
	"github.com/convopilot/convopilot/pkg/eventbus"
	"github.com/convopilot/convopilot/pkg/events"
)

func setupBus(t *testing.T) *eventbus.WatermillEventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	bus := setupBus(t)

	received := make(chan any, 1)

	bus.Handle(events.VersionActivatedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	})

	require.NoError(t, bus.Subscribe(t.Context()))

	err := bus.Publish(t.Context(), "bot-1", events.NewVersionActivated("bot-1", 2, 1))
	require.NoError(t, err)

	select {
	case event := <-received:
		activated, ok := event.(*events.VersionActivated)
		require.True(t, ok)
		assert.Equal(t, "bot-1", activated.BotID)
		assert.Equal(t, 2, activated.Version)
		assert.Equal(t, 1, activated.PreviousVersion)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_UnhandledTypeIsDropped(t *testing.T) {
	bus := setupBus(t)

	received := make(chan any, 1)

	bus.Handle(events.VersionArchivedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	})

	require.NoError(t, bus.Subscribe(t.Context()))

	err := bus.Publish(t.Context(), "bot-1", events.NewVersionCreated("bot-1", 1, 3))
	require.NoError(t, err)

	select {
	case <-received:
		t.Fatal("handler should not fire for an unregistered event type")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := setupBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
