package events

import (
	"context"
	"errors"
	"testing"

	"importdesk_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
}

func (testEvent) EventName() string { return "test.event" }

func TestPublishSyncRunsHandlersInSubscriptionOrder(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	var order []int
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 1)
		return nil
	}))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 2)
		return nil
	}))

	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected handlers in order [1 2], got %v", order)
	}
}

func TestPublishSyncAggregatesErrorsWithoutStopping(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	failure := errors.New("handler failed")
	var secondRan bool
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		return failure
	}))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		secondRan = true
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, failure) {
		t.Fatalf("expected wrapped handler error, got %v", err)
	}
	if !secondRan {
		t.Fatal("expected second handler to run despite first failing")
	}
}

func TestPublishSyncWithNoHandlersIsNoop(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))
	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
