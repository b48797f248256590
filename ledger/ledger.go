// Package ledger assembles the gamification engine from its parts. It is
// the library entry point: applications that embed the ledger instead of
// running the server build a service here with functional options.
package ledger

import (
	"context"

	"learnledger/adapters/memory"
	"learnledger/config"
	"learnledger/core"
	"learnledger/engine"
	"learnledger/realtime"
)

// Option configures the service builder.
type Option func(*builder)

type builder struct {
	storage  engine.Storage
	rules    engine.RuleProvider
	skills   engine.SkillSource
	notifier engine.Notifier
	mode     engine.DispatchMode
	hub      *realtime.Hub
}

// WithStorage sets the persistence adapter.
func WithStorage(s engine.Storage) Option { return func(b *builder) { b.storage = s } }

// WithRules sets the rule tables (point rates, achievements, level curve).
func WithRules(r engine.RuleProvider) Option { return func(b *builder) { b.rules = r } }

// WithSkillSource wires the collaborator consulted by skill-mastery triggers.
func WithSkillSource(s engine.SkillSource) Option { return func(b *builder) { b.skills = s } }

// WithNotifier wires the external issuance collaborator.
func WithNotifier(n engine.Notifier) Option { return func(b *builder) { b.notifier = n } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(b *builder) { b.mode = m } }

// WithRealtime wires a realtime hub to receive all engine events.
func WithRealtime(h *realtime.Hub) Option { return func(b *builder) { b.hub = h } }

// New builds a configured LedgerService. Defaults when not overridden:
//   - storage: in-memory
//   - rules: config.DefaultRules
//   - dispatch: async
//   - no skill source, no issuance notifier
func New(opts ...Option) *engine.LedgerService {
	b := &builder{mode: engine.DispatchAsync, rules: config.DefaultRules()}
	for _, o := range opts {
		o(b)
	}
	if b.storage == nil {
		b.storage = memory.New()
	}

	store := engine.NewLedgerStore(b.storage, b.rules.LevelCurve())
	bus := engine.NewEventBus(b.mode)
	eval := engine.NewEvaluator(b.rules, b.skills)
	issuer := engine.NewIssuer(store, b.notifier, bus)
	svc := engine.NewLedgerService(store, b.rules, eval, issuer, bus)

	if b.hub != nil {
		for _, typ := range []core.EventType{
			core.EventPointsRecorded,
			core.EventLevelUp,
			core.EventAchievementUnlocked,
			core.EventRewardMinted,
		} {
			bus.Subscribe(typ, func(ctx context.Context, e core.Event) { b.hub.Broadcast(ctx, e) })
		}
	}
	return svc
}
