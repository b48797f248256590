package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"learnledger/core"
)

func TestHubSubscribeBroadcastUnsubscribe(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe(1)
	if h.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", h.Subscribers())
	}

	ev := core.NewPointsRecorded("bob", core.CategoryDailyLogin, 10, 10)
	h.Broadcast(context.Background(), ev)

	received := <-ch
	if received.LearnerID != "bob" || received.Type != core.EventPointsRecorded {
		t.Fatalf("unexpected event: %+v", received)
	}

	h.Unsubscribe(id)
	_, ok := <-ch
	if ok {
		t.Fatal("expected channel closed after unsubscribe")
	}
	if h.Subscribers() != 0 {
		t.Fatal("expected no subscribers after unsubscribe")
	}
}

func TestMarshalJSON(t *testing.T) {
	ev := core.NewAchievementUnlocked("alice", "first_steps", core.RarityCommon)
	b := MarshalJSON(ev)
	var out core.Event
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.AchievementID != "first_steps" || out.Rarity != core.RarityCommon {
		t.Fatalf("unexpected event: %+v", out)
	}
}
