package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replaykit/replaykit/pkg/channels/gochannel"
	"github.com/replaykit/replaykit/pkg/events"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestPublishAndSubscribe(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan any, 1)

	err := bus.Handle(events.RecordingStartedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(ctx))

	sent := events.RecordingStarted{
		BaseEvent: events.BaseEvent{
			ID:        bus.GenerateID(),
			Type:      events.RecordingStartedEvent,
			Timestamp: time.Now(),
		},
		SessionID: "session-1",
		Name:      "login flow",
	}

	require.NoError(t, bus.Publish(ctx, "session-1", sent))

	select {
	case event := <-received:
		started, ok := event.(*events.RecordingStarted)
		require.True(t, ok)
		assert.Equal(t, "session-1", started.SessionID)
		assert.Equal(t, "login flow", started.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("handler never received the event")
	}
}

func TestUnhandledEventTypesAreSkipped(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan any, 1)

	err := bus.Handle(events.ExecutionCompletedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(ctx))

	// A type with no registered handler must be acked and dropped.
	unhandled := events.StepRecorded{
		BaseEvent: events.BaseEvent{ID: bus.GenerateID(), Type: events.StepRecordedEvent, Timestamp: time.Now()},
		SessionID: "session-1",
	}
	require.NoError(t, bus.Publish(ctx, "session-1", unhandled))

	handled := events.ExecutionCompleted{
		BaseEvent:   events.BaseEvent{ID: bus.GenerateID(), Type: events.ExecutionCompletedEvent, Timestamp: time.Now()},
		ExecutionID: "exec-1",
	}
	require.NoError(t, bus.Publish(ctx, "exec-1", handled))

	select {
	case event := <-received:
		completed, ok := event.(*events.ExecutionCompleted)
		require.True(t, ok)
		assert.Equal(t, "exec-1", completed.ExecutionID)
	case <-time.After(2 * time.Second):
		t.Fatal("handler never received the event")
	}
}

func TestGenerateIDIsUnique(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
