package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	mem "learnledger/adapters/memory"
	ws "learnledger/adapters/websocket"
	"learnledger/core"
	"learnledger/engine"
	"learnledger/leaderboard"
	"learnledger/ledger"
	"learnledger/realtime"
)

func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	hub := realtime.NewHub()
	svc := ledger.New(
		ledger.WithStorage(mem.New()),
		ledger.WithRealtime(hub),
		ledger.WithDispatchMode(engine.DispatchAsync),
	)
	defer svc.Close()

	board := leaderboard.NewSkipList()
	leaderboard.Follow(board, svc.Subscribe)

	http.Handle("/ws", ws.Handler(hub))
	http.HandleFunc("/learners/", func(w http.ResponseWriter, r *http.Request) {
		// routes: POST /learners/{id}/events?category=lesson_completion, GET /learners/{id}
		parts := split(r.URL.Path, '/')
		if len(parts) < 2 {
			http.NotFound(w, r)
			return
		}
		learner := core.LearnerID(parts[1])
		switch r.Method {
		case http.MethodPost:
			if len(parts) >= 3 && parts[2] == "events" {
				category := core.Category(r.URL.Query().Get("category"))
				res, err := svc.RecordEvent(r.Context(), learner, category)
				if err != nil {
					http.Error(w, err.Error(), 400)
					return
				}
				writeJSON(w, res)
				return
			}
		case http.MethodGet:
			agg, err := svc.State(r.Context(), learner)
			if err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			writeJSON(w, agg)
			return
		}
		http.NotFound(w, r)
	})
	http.HandleFunc("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"entries": board.TopN(10)})
	})

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func split(p string, sep rune) []string {
	var parts []string
	current := make([]rune, 0, len(p))

	for _, r := range p {
		if r == sep {
			if len(current) > 0 {
				parts = append(parts, string(current))
				current = current[:0]
			}
			continue
		}
		current = append(current, r)
	}

	if len(current) > 0 {
		parts = append(parts, string(current))
	}

	return parts
}
