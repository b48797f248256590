package engine

import (
	"context"

	"learnledger/core"
)

// Storage is the injected key-value persistence abstraction. Keys are
// "<learnerID>:<entityKind>" and values are JSON-serialized records.
// Implementations must make individual Put calls atomic; cross-key
// atomicity for one learner is provided by the per-identity lock in
// LedgerService.
type Storage interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
}

// RuleProvider supplies the read-only configuration tables: base point
// rates per category, the achievement definition list, and the level
// curve. Safe for concurrent use; shared across all learners.
type RuleProvider interface {
	PointRate(category core.Category) (amount int64, ok bool)
	Achievements() []core.AchievementDefinition
	LevelCurve() core.LevelCurve
}

// SkillSource resolves external learner-skill state for skill_mastery
// triggers. A nil SkillSource makes those triggers evaluate to false.
type SkillSource interface {
	HasMastered(ctx context.Context, learner core.LearnerID, skill string) (bool, error)
}

// Notifier is the external issuance/chain collaborator. NotifyReward is
// best-effort: its failure never rolls back local unlock state.
type Notifier interface {
	NotifyReward(ctx context.Context, learner core.LearnerID, reward core.RewardRecord) (externalRef string, err error)
}
