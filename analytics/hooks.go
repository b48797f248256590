package analytics

import (
	"sync"
	"time"

	"learnledger/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// Bridge fans one event source out to multiple hooks.
type Bridge struct{ hooks []Hook }

func NewBridge(hooks ...Hook) *Bridge { return &Bridge{hooks: hooks} }

func (b *Bridge) OnEvent(e core.Event) {
	for _, h := range b.hooks {
		h.OnEvent(e)
	}
}

// DAL tracks daily active learners.
type DAL struct {
	mu   sync.Mutex
	days map[string]map[core.LearnerID]struct{}
}

func NewDAL() *DAL { return &DAL{days: map[string]map[core.LearnerID]struct{}{}} }

func (d *DAL) OnEvent(e core.Event) {
	day := e.Time.UTC().Format("2006-01-02")
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.days[day]
	if m == nil {
		m = map[core.LearnerID]struct{}{}
		d.days[day] = m
	}
	m[e.LearnerID] = struct{}{}
}

func (d *DAL) Count(day string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.days[day])
}

// Counters aggregates award and unlock activity across all learners.
type Counters struct {
	mu sync.RWMutex

	pointsByCategory map[core.Category]int64
	eventsByCategory map[core.Category]int64
	unlocksByID      map[string]int64
	mintsByRarity    map[core.Rarity]int64
	since            time.Time
}

func NewCounters() *Counters {
	return &Counters{
		pointsByCategory: map[core.Category]int64{},
		eventsByCategory: map[core.Category]int64{},
		unlocksByID:      map[string]int64{},
		mintsByRarity:    map[core.Rarity]int64{},
		since:            time.Now().UTC(),
	}
}

func (c *Counters) OnEvent(e core.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch e.Type {
	case core.EventPointsRecorded:
		c.pointsByCategory[e.Category] += e.Amount
		c.eventsByCategory[e.Category]++
	case core.EventAchievementUnlocked:
		c.unlocksByID[e.AchievementID]++
	case core.EventRewardMinted:
		c.mintsByRarity[e.Rarity]++
	}
}

// Snapshot is a point-in-time copy of the counters, JSON-friendly for
// export or an ops endpoint.
type Snapshot struct {
	Since            time.Time               `json:"since"`
	PointsByCategory map[core.Category]int64 `json:"points_by_category"`
	EventsByCategory map[core.Category]int64 `json:"events_by_category"`
	UnlocksByID      map[string]int64        `json:"unlocks_by_id"`
	MintsByRarity    map[core.Rarity]int64   `json:"mints_by_rarity"`
}

func (c *Counters) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Snapshot{
		Since:            c.since,
		PointsByCategory: make(map[core.Category]int64, len(c.pointsByCategory)),
		EventsByCategory: make(map[core.Category]int64, len(c.eventsByCategory)),
		UnlocksByID:      make(map[string]int64, len(c.unlocksByID)),
		MintsByRarity:    make(map[core.Rarity]int64, len(c.mintsByRarity)),
	}
	for k, v := range c.pointsByCategory {
		s.PointsByCategory[k] = v
	}
	for k, v := range c.eventsByCategory {
		s.EventsByCategory[k] = v
	}
	for k, v := range c.unlocksByID {
		s.UnlocksByID[k] = v
	}
	for k, v := range c.mintsByRarity {
		s.MintsByRarity[k] = v
	}
	return s
}
