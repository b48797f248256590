package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"learnledger/core"
)

// LedgerStore keeps the per-learner append-only transaction log plus the
// derived aggregate, achievement-state map, and reward list on top of the
// injected Storage. The log is the source of truth: Award recomputes the
// aggregate from the full log on every append so the "running total equals
// sum of log" invariant cannot drift.
type LedgerStore struct {
	kv    Storage
	curve core.LevelCurve
}

func NewLedgerStore(kv Storage, curve core.LevelCurve) *LedgerStore {
	if kv == nil {
		panic("NewLedgerStore requires non-nil storage")
	}
	return &LedgerStore{kv: kv, curve: curve}
}

func transactionsKey(id core.LearnerID) string { return string(id) + ":transactions" }
func aggregateKey(id core.LearnerID) string    { return string(id) + ":aggregate" }
func achievementsKey(id core.LearnerID) string { return string(id) + ":achievements" }
func rewardsKey(id core.LearnerID) string      { return string(id) + ":rewards" }

// Award appends a transaction to the learner's log and persists the
// recomputed aggregate. Non-positive amounts are accepted; the reward
// pipeline only ever passes positive ones (callers are trusted).
func (s *LedgerStore) Award(ctx context.Context, id core.LearnerID, amount int64, reason string, category core.Category, tags ...string) (core.PointTransaction, core.Aggregate, error) {
	log, err := s.loadTransactions(ctx, id)
	if err != nil {
		return core.PointTransaction{}, core.Aggregate{}, err
	}

	tx := core.PointTransaction{
		ID:        uuid.NewString(),
		Amount:    amount,
		Reason:    reason,
		Category:  category,
		Tags:      tags,
		Timestamp: time.Now().UTC(),
	}
	log = append(log, tx)

	var total int64
	for _, entry := range log {
		total, err = core.AddSafe(total, entry.Amount)
		if err != nil {
			return core.PointTransaction{}, core.Aggregate{}, err
		}
	}

	agg := core.Aggregate{
		LearnerID:     id,
		TotalPoints:   total,
		Level:         s.curve.LevelFor(total),
		NextThreshold: s.curve.NextThreshold(s.curve.LevelFor(total)),
		Updated:       tx.Timestamp,
	}

	if err := s.putJSON(ctx, transactionsKey(id), log); err != nil {
		return core.PointTransaction{}, core.Aggregate{}, fmt.Errorf("persist transactions: %w", err)
	}
	if err := s.putJSON(ctx, aggregateKey(id), agg); err != nil {
		return core.PointTransaction{}, core.Aggregate{}, fmt.Errorf("persist aggregate: %w", err)
	}
	return tx, agg, nil
}

// Aggregate returns the learner's derived state. A learner without any
// transactions gets the zero aggregate at level 1.
func (s *LedgerStore) Aggregate(ctx context.Context, id core.LearnerID) (core.Aggregate, error) {
	var agg core.Aggregate
	ok, err := s.getJSON(ctx, aggregateKey(id), &agg)
	if err != nil {
		return core.Aggregate{}, err
	}
	if !ok {
		return core.Aggregate{
			LearnerID:     id,
			Level:         s.curve.LevelFor(0),
			NextThreshold: s.curve.NextThreshold(s.curve.LevelFor(0)),
		}, nil
	}
	return agg, nil
}

// History returns the learner's transactions newest first.
func (s *LedgerStore) History(ctx context.Context, id core.LearnerID) ([]core.PointTransaction, error) {
	log, err := s.loadTransactions(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]core.PointTransaction, len(log))
	for i, tx := range log {
		out[len(log)-1-i] = tx
	}
	return out, nil
}

// Recompute sums the stored log from scratch, bypassing the persisted
// aggregate. Used to verify the aggregate invariant.
func (s *LedgerStore) Recompute(ctx context.Context, id core.LearnerID) (core.Aggregate, error) {
	log, err := s.loadTransactions(ctx, id)
	if err != nil {
		return core.Aggregate{}, err
	}
	var total int64
	for _, tx := range log {
		total, err = core.AddSafe(total, tx.Amount)
		if err != nil {
			return core.Aggregate{}, err
		}
	}
	return core.Aggregate{
		LearnerID:     id,
		TotalPoints:   total,
		Level:         s.curve.LevelFor(total),
		NextThreshold: s.curve.NextThreshold(s.curve.LevelFor(total)),
		Updated:       time.Now().UTC(),
	}, nil
}

// AchievementStates returns the unlock state map keyed by achievement id.
// Absent entries mean Locked.
func (s *LedgerStore) AchievementStates(ctx context.Context, id core.LearnerID) (map[string]core.AchievementState, error) {
	states := map[string]core.AchievementState{}
	if _, err := s.getJSON(ctx, achievementsKey(id), &states); err != nil {
		return nil, err
	}
	return states, nil
}

// MarkUnlocked transitions an achievement to Unlocked and persists the map
// before any further side effect. Returns false when the achievement was
// already unlocked; the persisted flag is the exactly-once issuance guard.
func (s *LedgerStore) MarkUnlocked(ctx context.Context, id core.LearnerID, achievementID string, at time.Time) (bool, error) {
	states, err := s.AchievementStates(ctx, id)
	if err != nil {
		return false, err
	}
	if st, ok := states[achievementID]; ok && st.Unlocked() {
		return false, nil
	}
	states[achievementID] = core.AchievementState{Status: core.StatusUnlocked, UnlockedAt: at}
	if err := s.putJSON(ctx, achievementsKey(id), states); err != nil {
		return false, fmt.Errorf("persist achievement state: %w", err)
	}
	return true, nil
}

// AppendReward persists a newly minted reward record.
func (s *LedgerStore) AppendReward(ctx context.Context, id core.LearnerID, rec core.RewardRecord) error {
	rewards, err := s.Rewards(ctx, id)
	if err != nil {
		return err
	}
	rewards = append(rewards, rec)
	if err := s.putJSON(ctx, rewardsKey(id), rewards); err != nil {
		return fmt.Errorf("persist rewards: %w", err)
	}
	return nil
}

// UpdateReward replaces the stored record with the same ID, used to attach
// the external reference once the issuance collaborator confirms.
func (s *LedgerStore) UpdateReward(ctx context.Context, id core.LearnerID, rec core.RewardRecord) error {
	rewards, err := s.Rewards(ctx, id)
	if err != nil {
		return err
	}
	for i := range rewards {
		if rewards[i].ID == rec.ID {
			rewards[i] = rec
			return s.putJSON(ctx, rewardsKey(id), rewards)
		}
	}
	return fmt.Errorf("reward %s not found for learner %s", rec.ID, id)
}

// Rewards returns all reward records minted for the learner.
func (s *LedgerStore) Rewards(ctx context.Context, id core.LearnerID) ([]core.RewardRecord, error) {
	var rewards []core.RewardRecord
	if _, err := s.getJSON(ctx, rewardsKey(id), &rewards); err != nil {
		return nil, err
	}
	return rewards, nil
}

func (s *LedgerStore) loadTransactions(ctx context.Context, id core.LearnerID) ([]core.PointTransaction, error) {
	var log []core.PointTransaction
	if _, err := s.getJSON(ctx, transactionsKey(id), &log); err != nil {
		return nil, err
	}
	return log, nil
}

func (s *LedgerStore) getJSON(ctx context.Context, key string, target any) (bool, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *LedgerStore) putJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
