package ledger

import (
	"context"
	"testing"
	"time"

	"learnledger/core"
	"learnledger/engine"
	"learnledger/realtime"
)

func TestDefaultsRecordEvent(t *testing.T) {
	svc := New(WithDispatchMode(engine.DispatchSync))
	defer svc.Close()

	res, err := svc.RecordEvent(context.Background(), "alice", core.CategoryLessonCompletion)
	if err != nil {
		t.Fatalf("record event: %v", err)
	}
	// 50 base + 25 first_steps bonus under the stock rules
	if res.Aggregate.TotalPoints != 75 {
		t.Fatalf("expected 75 points, got %d", res.Aggregate.TotalPoints)
	}
	if len(res.Unlocked) != 1 || res.Unlocked[0].ID != "first_steps" {
		t.Fatalf("expected first_steps unlock, got %+v", res.Unlocked)
	}
}

func TestRealtimeBridge(t *testing.T) {
	hub := realtime.NewHub()
	svc := New(WithRealtime(hub))
	defer svc.Close()

	id, ch := hub.Subscribe(16)
	defer hub.Unsubscribe(id)

	if _, err := svc.RecordEvent(context.Background(), "bob", core.CategoryDailyLogin); err != nil {
		t.Fatalf("record event: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Type != core.EventPointsRecorded || ev.LearnerID != "bob" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event reached the hub")
	}
}
