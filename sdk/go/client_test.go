package sdk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestClient_RecordAndRead(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	client, err := NewClient(srv.URL+"/api", WithAPIKey("k1"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()

	res, err := client.RecordEvent(ctx, "alice", "lesson_completion", WithTags("go"))
	if err != nil {
		t.Fatalf("record event: %v", err)
	}
	if res.Transaction.Amount != 50 || res.Aggregate.TotalPoints != 75 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Unlocked) != 1 || res.Unlocked[0].ID != "first_steps" {
		t.Fatalf("expected first_steps unlock, got %+v", res.Unlocked)
	}

	state, err := client.GetLearner(ctx, "alice")
	if err != nil {
		t.Fatalf("get learner: %v", err)
	}
	if state.LearnerID != "alice" || state.TotalPoints != 75 {
		t.Fatalf("unexpected state: %+v", state)
	}

	history, err := client.GetHistory(ctx, "alice")
	if err != nil || len(history) != 2 {
		t.Fatalf("history: %+v err=%v", history, err)
	}

	achievements, err := client.GetAchievements(ctx, "alice")
	if err != nil || achievements["first_steps"].Status != "unlocked" {
		t.Fatalf("achievements: %+v err=%v", achievements, err)
	}

	rewards, err := client.GetRewards(ctx, "alice")
	if err != nil || len(rewards) != 1 || rewards[0].AchievementID != "first_steps" {
		t.Fatalf("rewards: %+v err=%v", rewards, err)
	}

	entries, err := client.Leaderboard(ctx, 5)
	if err != nil || len(entries) != 1 || entries[0].Learner != "alice" {
		t.Fatalf("leaderboard: %+v err=%v", entries, err)
	}

	health, err := client.Health(ctx)
	if err != nil || health.Status != "healthy" {
		t.Fatalf("health: %+v err=%v", health, err)
	}
}

func TestClient_EmptyLearnerID(t *testing.T) {
	client, err := NewClient("http://localhost:0")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.RecordEvent(context.Background(), " ", "daily_login"); err != ErrEmptyLearnerID {
		t.Fatalf("expected ErrEmptyLearnerID, got %v", err)
	}
	if _, err := client.GetLearner(context.Background(), ""); err != ErrEmptyLearnerID {
		t.Fatalf("expected ErrEmptyLearnerID, got %v", err)
	}
}

func TestClient_SubscribeEvents(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	events, err := client.SubscribeEvents(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	select {
	case evt := <-events:
		if evt.Type != "points_recorded" || evt.LearnerID != "alice" {
			t.Fatalf("unexpected event: %+v", evt)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

// test server implementing the minimal API surface expected by the SDK.
func newTestServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy","checks":{"storage":"ok"}}`))
	})
	mux.HandleFunc("/api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entries":[{"learner":"alice","points":75}]}`))
	})
	mux.HandleFunc("/api/learners/", func(w http.ResponseWriter, r *http.Request) {
		// /api/learners/{id}[/events|/history|/achievements|/rewards]
		path := r.URL.Path[len("/api/learners/"):]
		parts := strings.Split(path, "/")
		if len(parts) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		learnerID := parts[0]
		w.Header().Set("Content-Type", "application/json")
		if len(parts) == 1 && r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"learner_id":"` + learnerID + `","total_points":75,"level":1,"next_threshold":500}`))
			return
		}
		if len(parts) >= 2 && r.Method == http.MethodPost && parts[1] == "events" {
			_, _ = w.Write([]byte(`{
				"transaction":{"id":"t1","amount":50,"category":"lesson_completion","tags":["go"]},
				"aggregate":{"learner_id":"` + learnerID + `","total_points":75,"level":1,"next_threshold":500},
				"unlocked":[{"id":"first_steps","name":"First Steps","point_reward":25,"rarity":"common"}],
				"rewards":[{"id":"r1","achievement_id":"first_steps","rarity":"common"}]
			}`))
			return
		}
		if len(parts) >= 2 && r.Method == http.MethodGet {
			switch parts[1] {
			case "history":
				_, _ = w.Write([]byte(`{"transactions":[{"id":"t2","amount":25},{"id":"t1","amount":50}]}`))
				return
			case "achievements":
				_, _ = w.Write([]byte(`{"achievements":{"first_steps":{"status":"unlocked"}}}`))
				return
			case "rewards":
				_, _ = w.Write([]byte(`{"rewards":[{"id":"r1","achievement_id":"first_steps","rarity":"common"}]}`))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})

	upgrader := websocket.Upgrader{}
	mux.HandleFunc("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(Event{Type: "points_recorded", LearnerID: "alice", Amount: 10, Total: 10})
	})

	return httptest.NewServer(mux)
}
