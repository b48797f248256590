package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"learnledger/core"
)

func TestEventBusSyncDispatch(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	got := 0
	unsub := bus.Subscribe(core.EventPointsRecorded, func(ctx context.Context, e core.Event) { got++ })

	bus.Publish(context.Background(), core.NewPointsRecorded("u", core.CategoryDailyLogin, 10, 10))
	if got != 1 {
		t.Fatalf("expected 1 delivery, got %d", got)
	}

	unsub()
	bus.Publish(context.Background(), core.NewPointsRecorded("u", core.CategoryDailyLogin, 10, 20))
	if got != 1 {
		t.Fatalf("unsubscribed handler still invoked")
	}
}

func TestEventBusAsyncDispatch(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	defer bus.Close()

	var got atomic.Int64
	bus.Subscribe(core.EventLevelUp, func(ctx context.Context, e core.Event) { got.Add(1) })

	bus.Publish(context.Background(), core.NewLevelUp("u", 2, 600))

	deadline := time.Now().Add(time.Second)
	for got.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got.Load() != 1 {
		t.Fatalf("expected async delivery, got %d", got.Load())
	}
}

func TestEventBusTypeIsolation(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	var levelUps int
	bus.Subscribe(core.EventLevelUp, func(ctx context.Context, e core.Event) { levelUps++ })

	bus.Publish(context.Background(), core.NewPointsRecorded("u", core.CategoryBonus, 1, 1))
	if levelUps != 0 {
		t.Fatal("handler received an event of the wrong type")
	}
}
