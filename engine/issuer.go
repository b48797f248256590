package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"learnledger/core"
)

// ErrAlreadyIssued is returned when Issue is called for an achievement the
// learner has already unlocked. The persisted unlock flag is the guard, so
// retried operations can never mint twice.
var ErrAlreadyIssued = errors.New("achievement already issued")

// DefaultNotifyTimeout bounds the best-effort issuance notification.
const DefaultNotifyTimeout = 3 * time.Second

// Issuer commits achievement unlocks. The ordering is deliberate: the
// unlock flag is persisted first, then the bonus points re-enter the
// ledger, then the reward record is stored, and only then is the external
// collaborator notified. Local state is authoritative and is never rolled
// back by an external-system failure.
type Issuer struct {
	store         *LedgerStore
	notifier      Notifier
	bus           *EventBus
	notifyTimeout time.Duration
}

func NewIssuer(store *LedgerStore, notifier Notifier, bus *EventBus) *Issuer {
	if store == nil || bus == nil {
		panic("NewIssuer requires non-nil store and bus")
	}
	return &Issuer{store: store, notifier: notifier, bus: bus, notifyTimeout: DefaultNotifyTimeout}
}

// Issue unlocks the achievement for the learner, grants its bonus points,
// mints the reward record, and notifies the issuance collaborator.
// Callers must hold the learner's identity lock.
func (i *Issuer) Issue(ctx context.Context, id core.LearnerID, def core.AchievementDefinition) (core.RewardRecord, error) {
	now := time.Now().UTC()

	changed, err := i.store.MarkUnlocked(ctx, id, def.ID, now)
	if err != nil {
		return core.RewardRecord{}, fmt.Errorf("unlock %s: %w", def.ID, err)
	}
	if !changed {
		return core.RewardRecord{}, ErrAlreadyIssued
	}
	i.bus.Publish(ctx, core.NewAchievementUnlocked(id, def.ID, def.Rarity))

	// Bonus points re-enter the ledger through the same award path that
	// triggered evaluation. If this fails the achievement stays unlocked
	// without its bonus; that inconsistency window is documented behavior.
	if _, _, err := i.store.Award(ctx, id, def.PointReward, "Achievement: "+def.Name, core.CategoryAchievement); err != nil {
		return core.RewardRecord{}, fmt.Errorf("bonus award for %s: %w", def.ID, err)
	}

	rec := core.RewardRecord{
		ID:            uuid.NewString(),
		AchievementID: def.ID,
		Rarity:        def.Rarity,
		MintedAt:      now,
	}
	if err := i.store.AppendReward(ctx, id, rec); err != nil {
		return core.RewardRecord{}, fmt.Errorf("mint record for %s: %w", def.ID, err)
	}

	rec = i.notify(ctx, id, rec)
	i.bus.Publish(ctx, core.NewRewardMinted(id, rec.ID, def.ID, def.Rarity))
	return rec, nil
}

// notify asks the external collaborator to confirm the mint. Failures are
// logged and swallowed; the record simply stays unverified until an
// out-of-band reconciliation catches up.
func (i *Issuer) notify(ctx context.Context, id core.LearnerID, rec core.RewardRecord) core.RewardRecord {
	if i.notifier == nil {
		return rec
	}
	notifyCtx, cancel := context.WithTimeout(ctx, i.notifyTimeout)
	defer cancel()

	ref, err := i.notifier.NotifyReward(notifyCtx, id, rec)
	if err != nil {
		slog.Warn("reward issuance notification failed",
			"learner", id, "reward", rec.ID, "error", err)
		return rec
	}
	rec.ExternalRef = ref
	rec.Verified = true
	if err := i.store.UpdateReward(ctx, id, rec); err != nil {
		slog.Warn("could not persist external ref", "reward", rec.ID, "error", err)
	}
	return rec
}
