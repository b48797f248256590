package engine

import (
	"context"
	"sync"

	"learnledger/core"
)

// LedgerService is the single entry point for recording gamification
// events. Callers never orchestrate the award/evaluate/issue steps
// themselves, so the append-only log, monotonic unlock, and exactly-once
// issuance invariants hold regardless of caller discipline.
type LedgerService struct {
	store  *LedgerStore
	rules  RuleProvider
	eval   *Evaluator
	issuer *Issuer
	bus    *EventBus
	locks  identityLocks
}

// Result is what one recorded event produced: the primary transaction, the
// final aggregate (including any achievement bonuses), and the unlocks and
// reward records issued along the way.
type Result struct {
	Transaction core.PointTransaction        `json:"transaction"`
	Aggregate   core.Aggregate               `json:"aggregate"`
	Unlocked    []core.AchievementDefinition `json:"unlocked,omitempty"`
	Rewards     []core.RewardRecord          `json:"rewards,omitempty"`
}

// RecordOption adjusts a single RecordEvent call.
type RecordOption func(*recordParams)

type recordParams struct {
	override *int64
	reason   string
	tags     []string
}

// WithPoints overrides the configured base amount, e.g. for
// difficulty-adjusted awards computed upstream.
func WithPoints(amount int64) RecordOption {
	return func(p *recordParams) { p.override = &amount }
}

// WithReason sets a human-readable description on the transaction.
func WithReason(reason string) RecordOption {
	return func(p *recordParams) { p.reason = reason }
}

// WithTags attaches structured tags used by tagged-completion triggers.
func WithTags(tags ...string) RecordOption {
	return func(p *recordParams) { p.tags = tags }
}

func NewLedgerService(store *LedgerStore, rules RuleProvider, eval *Evaluator, issuer *Issuer, bus *EventBus) *LedgerService {
	if store == nil || rules == nil || eval == nil || issuer == nil || bus == nil {
		panic("NewLedgerService requires non-nil store, rules, evaluator, issuer, and bus")
	}
	return &LedgerService{store: store, rules: rules, eval: eval, issuer: issuer, bus: bus}
}

// RecordEvent awards the configured points for the category, evaluates
// achievement triggers against the updated state, and issues every newly
// satisfied achievement. The whole call, nested bonus awards included,
// runs under the learner's identity lock; calls for different learners
// proceed in parallel.
func (s *LedgerService) RecordEvent(ctx context.Context, id core.LearnerID, category core.Category, opts ...RecordOption) (Result, error) {
	normalized, err := core.NormalizeLearnerID(id)
	if err != nil {
		return Result{}, err
	}
	var params recordParams
	for _, o := range opts {
		o(&params)
	}

	amount, known := s.rules.PointRate(category)
	if params.override != nil {
		amount = *params.override
	} else if !known {
		// unknown categories award zero points rather than failing, so
		// the facade stays total over arbitrary caller input
		amount = 0
	}
	reason := params.reason
	if reason == "" {
		reason = string(category)
	}

	unlock := s.locks.lock(normalized)
	defer unlock()

	before, err := s.store.Aggregate(ctx, normalized)
	if err != nil {
		return Result{}, err
	}

	tx, agg, err := s.store.Award(ctx, normalized, amount, reason, category, params.tags...)
	if err != nil {
		return Result{}, err
	}
	s.bus.Publish(ctx, core.NewPointsRecorded(normalized, category, amount, agg.TotalPoints))

	history, err := s.store.History(ctx, normalized)
	if err != nil {
		return Result{}, err
	}
	states, err := s.store.AchievementStates(ctx, normalized)
	if err != nil {
		return Result{}, err
	}

	unlocked := s.eval.Evaluate(ctx, normalized, category, agg, history, states)
	rewards := make([]core.RewardRecord, 0, len(unlocked))
	for _, def := range unlocked {
		rec, err := s.issuer.Issue(ctx, normalized, def)
		if err != nil {
			return Result{}, err
		}
		rewards = append(rewards, rec)
	}

	final := agg
	if len(unlocked) > 0 {
		final, err = s.store.Aggregate(ctx, normalized)
		if err != nil {
			return Result{}, err
		}
	}
	if final.Level > before.Level {
		s.bus.Publish(ctx, core.NewLevelUp(normalized, final.Level, final.TotalPoints))
	}

	return Result{Transaction: tx, Aggregate: final, Unlocked: unlocked, Rewards: rewards}, nil
}

// State returns the learner's current aggregate.
func (s *LedgerService) State(ctx context.Context, id core.LearnerID) (core.Aggregate, error) {
	normalized, err := core.NormalizeLearnerID(id)
	if err != nil {
		return core.Aggregate{}, err
	}
	return s.store.Aggregate(ctx, normalized)
}

// History returns the learner's transactions, newest first.
func (s *LedgerService) History(ctx context.Context, id core.LearnerID) ([]core.PointTransaction, error) {
	normalized, err := core.NormalizeLearnerID(id)
	if err != nil {
		return nil, err
	}
	return s.store.History(ctx, normalized)
}

// Achievements returns the learner's unlock-state map.
func (s *LedgerService) Achievements(ctx context.Context, id core.LearnerID) (map[string]core.AchievementState, error) {
	normalized, err := core.NormalizeLearnerID(id)
	if err != nil {
		return nil, err
	}
	return s.store.AchievementStates(ctx, normalized)
}

// Rewards returns all reward records minted for the learner.
func (s *LedgerService) Rewards(ctx context.Context, id core.LearnerID) ([]core.RewardRecord, error) {
	normalized, err := core.NormalizeLearnerID(id)
	if err != nil {
		return nil, err
	}
	return s.store.Rewards(ctx, normalized)
}

// Subscribe registers a handler on the service's event bus.
func (s *LedgerService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, handler)
}

func (s *LedgerService) Publish(ctx context.Context, ev core.Event) {
	s.bus.Publish(ctx, ev)
}

func (s *LedgerService) Close() { s.bus.Close() }

// identityLocks serializes writers per learner. Entries are never freed;
// the map is bounded by the number of distinct learners seen by this
// process.
type identityLocks struct {
	mu sync.Mutex
	m  map[core.LearnerID]*sync.Mutex
}

func (l *identityLocks) lock(id core.LearnerID) (unlock func()) {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[core.LearnerID]*sync.Mutex)
	}
	m, ok := l.m[id]
	if !ok {
		m = &sync.Mutex{}
		l.m[id] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
