package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"learnledger/core"
)

// Period selects the reporting window.
type Period string

const (
	PeriodDaily  Period = "daily"
	PeriodWeekly Period = "weekly"
)

// Report is a per-period rollup of ledger activity, the unit handed to
// exporters.
type Report struct {
	Period    Period    `json:"period"`
	Key       string    `json:"key"` // "2026-08-31" for daily, "2026-W36" for weekly
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	ActiveLearners   int                     `json:"active_learners"`
	PointsByCategory map[core.Category]int64 `json:"points_by_category"`
	EventsByCategory map[core.Category]int64 `json:"events_by_category"`
	UnlocksByID      map[string]int64        `json:"unlocks_by_id"`
	MintsByRarity    map[core.Rarity]int64   `json:"mints_by_rarity"`

	CreatedAt time.Time `json:"created_at"`
}

// Reporter aggregates ledger events into daily and weekly reports. It is a
// Hook: register it on the engine's event bus and call Start (or
// AggregateNow) to materialize reports.
type Reporter struct {
	mu sync.RWMutex

	dal    *DAL
	byDay  map[string]*Counters
	daily  map[string]*Report
	weekly map[string]*Report

	interval time.Duration
}

func NewReporter(interval time.Duration) *Reporter {
	return &Reporter{
		dal:      NewDAL(),
		byDay:    map[string]*Counters{},
		daily:    map[string]*Report{},
		weekly:   map[string]*Report{},
		interval: interval,
	}
}

func (r *Reporter) OnEvent(e core.Event) {
	r.dal.OnEvent(e)

	day := e.Time.UTC().Format("2006-01-02")
	r.mu.Lock()
	c := r.byDay[day]
	if c == nil {
		c = NewCounters()
		r.byDay[day] = c
	}
	r.mu.Unlock()
	c.OnEvent(e)
}

// AggregateNow materializes the reports for the current day and week.
func (r *Reporter) AggregateNow() {
	now := time.Now().UTC()
	r.aggregateDaily(now)
	r.aggregateWeekly(now)
}

func (r *Reporter) aggregateDaily(now time.Time) {
	day := now.Format("2006-01-02")
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	report := r.buildReport(PeriodDaily, day, start, start.Add(24*time.Hour), now, []string{day})
	report.ActiveLearners = r.dal.Count(day)

	r.mu.Lock()
	r.daily[day] = report
	r.mu.Unlock()
}

func (r *Reporter) aggregateWeekly(now time.Time) {
	year, week := now.ISOWeek()
	key := fmt.Sprintf("%d-W%02d", year, week)

	daysSinceMonday := int(now.Weekday()-time.Monday) % 7
	if daysSinceMonday < 0 {
		daysSinceMonday += 7
	}
	start := time.Date(now.Year(), now.Month(), now.Day()-daysSinceMonday, 0, 0, 0, 0, time.UTC)

	days := make([]string, 0, 7)
	active := 0
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		days = append(days, day)
		active += r.dal.Count(day)
	}

	report := r.buildReport(PeriodWeekly, key, start, start.Add(7*24*time.Hour), now, days)
	report.ActiveLearners = active

	r.mu.Lock()
	r.weekly[key] = report
	r.mu.Unlock()
}

// buildReport sums the named days' counters into one report.
func (r *Reporter) buildReport(period Period, key string, start, end, now time.Time, days []string) *Report {
	report := &Report{
		Period:           period,
		Key:              key,
		StartTime:        start,
		EndTime:          end,
		CreatedAt:        now,
		PointsByCategory: map[core.Category]int64{},
		EventsByCategory: map[core.Category]int64{},
		UnlocksByID:      map[string]int64{},
		MintsByRarity:    map[core.Rarity]int64{},
	}

	r.mu.RLock()
	counters := make([]*Counters, 0, len(days))
	for _, day := range days {
		if c := r.byDay[day]; c != nil {
			counters = append(counters, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range counters {
		s := c.Snapshot()
		for k, v := range s.PointsByCategory {
			report.PointsByCategory[k] += v
		}
		for k, v := range s.EventsByCategory {
			report.EventsByCategory[k] += v
		}
		for k, v := range s.UnlocksByID {
			report.UnlocksByID[k] += v
		}
		for k, v := range s.MintsByRarity {
			report.MintsByRarity[k] += v
		}
	}
	return report
}

// Get returns the materialized report for a period and key.
func (r *Reporter) Get(period Period, key string) (*Report, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch period {
	case PeriodDaily:
		rep, ok := r.daily[key]
		return rep, ok
	case PeriodWeekly:
		rep, ok := r.weekly[key]
		return rep, ok
	}
	return nil, false
}

// All returns every materialized report for a period.
func (r *Reporter) All(period Period) []*Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var m map[string]*Report
	switch period {
	case PeriodDaily:
		m = r.daily
	case PeriodWeekly:
		m = r.weekly
	default:
		return nil
	}
	out := make([]*Report, 0, len(m))
	for _, rep := range m {
		out = append(out, rep)
	}
	return out
}

// Start aggregates on the configured interval until ctx is cancelled,
// exporting the fresh daily report after each pass when an exporter is set.
func (r *Reporter) Start(ctx context.Context, exporter Exporter) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if exporter != nil {
				if err := exporter.Close(); err != nil {
					slog.Warn("analytics exporter close failed", "error", err)
				}
			}
			return
		case <-ticker.C:
			r.AggregateNow()
			if exporter == nil {
				continue
			}
			day := time.Now().UTC().Format("2006-01-02")
			if rep, ok := r.Get(PeriodDaily, day); ok {
				if err := exporter.Export(ctx, rep); err != nil {
					slog.Warn("analytics export failed", "error", err)
				}
			}
		}
	}
}
