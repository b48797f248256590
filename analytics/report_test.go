package analytics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"learnledger/core"
)

func TestReporterDailyRollup(t *testing.T) {
	r := NewReporter(time.Hour)

	now := time.Now().UTC()
	for _, id := range []core.LearnerID{"a", "b", "a"} {
		r.OnEvent(core.Event{
			Type: core.EventPointsRecorded, Time: now,
			LearnerID: id, Category: core.CategoryLessonCompletion, Amount: 50,
		})
	}
	r.OnEvent(core.Event{
		Type: core.EventAchievementUnlocked, Time: now,
		LearnerID: "a", AchievementID: "first_steps", Rarity: core.RarityCommon,
	})

	r.AggregateNow()

	day := now.Format("2006-01-02")
	rep, ok := r.Get(PeriodDaily, day)
	if !ok {
		t.Fatal("daily report missing")
	}
	if rep.ActiveLearners != 2 {
		t.Fatalf("expected 2 active learners, got %d", rep.ActiveLearners)
	}
	if rep.PointsByCategory[core.CategoryLessonCompletion] != 150 {
		t.Fatalf("expected 150 points, got %d", rep.PointsByCategory[core.CategoryLessonCompletion])
	}
	if rep.UnlocksByID["first_steps"] != 1 {
		t.Fatalf("unexpected unlocks: %+v", rep.UnlocksByID)
	}

	// The weekly rollup covers the same day.
	year, week := now.ISOWeek()
	weekly, ok := r.Get(PeriodWeekly, fmt.Sprintf("%d-W%02d", year, week))
	if !ok {
		t.Fatal("weekly report missing")
	}
	if weekly.PointsByCategory[core.CategoryLessonCompletion] != 150 {
		t.Fatalf("weekly rollup missed daily points: %+v", weekly.PointsByCategory)
	}
}

func TestHTTPExporterBatches(t *testing.T) {
	var posts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&posts, 1)
		if got := r.Header.Get("Authorization"); got != "Bearer k1" {
			t.Errorf("missing auth header, got %q", got)
		}
	}))
	defer srv.Close()

	e := NewHTTPExporter(srv.URL, "k1", 2)
	ctx := context.Background()

	if err := e.Export(ctx, &Report{Period: PeriodDaily, Key: "2026-08-30"}); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&posts) != 0 {
		t.Fatal("exporter flushed before batch filled")
	}
	if err := e.Export(ctx, &Report{Period: PeriodDaily, Key: "2026-08-31"}); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&posts) != 1 {
		t.Fatalf("expected 1 flush, got %d", posts)
	}

	// Close flushes any remainder.
	if err := e.Export(ctx, &Report{Period: PeriodDaily, Key: "2026-09-01"}); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&posts) != 2 {
		t.Fatalf("expected 2 flushes after close, got %d", posts)
	}
}

func TestBridgeFansOut(t *testing.T) {
	dal := NewDAL()
	counters := NewCounters()
	b := NewBridge(dal, counters)

	now := time.Now().UTC()
	b.OnEvent(core.Event{Type: core.EventPointsRecorded, Time: now, LearnerID: "a", Category: core.CategoryBonus, Amount: 25})

	if dal.Count(now.Format("2006-01-02")) != 1 {
		t.Fatal("DAL missed bridged event")
	}
	if counters.Snapshot().PointsByCategory[core.CategoryBonus] != 25 {
		t.Fatal("counters missed bridged event")
	}
}
