package eventbus_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/channels/gochannel"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/eventbus"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/events"
)

func setupBus(t *testing.T) *eventbus.WatermillEventBus {
	t.Helper()

	pub, sub := gochannel.CreateTestChannel(watermill.NewSlogLogger(slog.Default()))
	bus := eventbus.NewWatermillEventBus(pub, sub)

	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	t.Parallel()

	bus := setupBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.WorkflowActivated, 1)

	err := bus.Handle(events.WorkflowActivatedEvent, func(_ context.Context, event any) error {
		activated, ok := event.(*events.WorkflowActivated)
		require.True(t, ok)
		received <- activated

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(ctx))

	sent := events.WorkflowActivated{
		BaseEvent:      events.NewBaseEvent(events.WorkflowActivatedEvent, "wf-1"),
		PreviousStatus: "paused",
	}
	require.NoError(t, bus.Publish(ctx, "wf-1", sent))

	select {
	case got := <-received:
		assert.Equal(t, "wf-1", got.WorkflowID)
		assert.Equal(t, sent.PreviousStatus, got.PreviousStatus)
		assert.Equal(t, events.WorkflowActivatedEvent, got.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_UnhandledEventTypesAreAcked(t *testing.T) {
	t.Parallel()

	bus := setupBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan struct{}, 1)

	err := bus.Handle(events.WorkflowDeletedEvent, func(_ context.Context, _ any) error {
		received <- struct{}{}

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(ctx))

	// An event type with no handler is dropped, not redelivered.
	created := events.WorkflowCreated{
		BaseEvent: events.NewBaseEvent(events.WorkflowCreatedEvent, "wf-1"),
		Name:      "Ignored",
	}
	require.NoError(t, bus.Publish(ctx, "wf-1", created))

	deleted := events.WorkflowDeleted{
		BaseEvent: events.NewBaseEvent(events.WorkflowDeletedEvent, "wf-1"),
	}
	require.NoError(t, bus.Publish(ctx, "wf-1", deleted))

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	t.Parallel()

	bus := setupBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
