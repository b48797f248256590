package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// LearnerID is the opaque identity key for a learner. Wallet-address-shaped
// in practice, but never parsed or validated cryptographically here.
type LearnerID string

// Category classifies what kind of platform event caused a point award.
type Category string

const (
	CategoryLessonCompletion Category = "lesson_completion"
	CategoryQuizCompletion   Category = "quiz_completion"
	CategoryCourseCompletion Category = "course_completion"
	CategoryDailyLogin       Category = "daily_login"
	CategoryAchievement      Category = "achievement"
	CategoryBonus            Category = "bonus"
)

// Rarity grades an achievement and its minted reward.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityMythic    Rarity = "mythic"
)

// PointTransaction is one immutable entry in a learner's ledger log.
// Once appended it is never mutated or removed; aggregates are derived
// by summing the log.
type PointTransaction struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	Reason      string    `json:"reason"`
	Category    Category  `json:"category"`
	Tags        []string  `json:"tags,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Verified    bool      `json:"verified"`
	ExternalRef string    `json:"external_ref,omitempty"`
}

// HasTag reports whether the transaction carries the given structured tag.
// Tags replace free-text matching on Reason for trigger evaluation.
func (t PointTransaction) HasTag(tag string) bool {
	for _, v := range t.Tags {
		if v == tag {
			return true
		}
	}
	return false
}

// Aggregate is the derived per-learner state: running total plus the level
// values computed from it. Invariant: TotalPoints always equals the sum of
// the learner's transaction log.
type Aggregate struct {
	LearnerID     LearnerID `json:"learner_id"`
	TotalPoints   int64     `json:"total_points"`
	Level         int64     `json:"level"`
	NextThreshold int64     `json:"next_threshold"`
	Updated       time.Time `json:"updated"`
}

// UnlockStatus is the tagged state of an achievement for one learner.
// The state machine is terminal: Locked -> Unlocked, never back.
type UnlockStatus string

const (
	StatusLocked   UnlockStatus = "locked"
	StatusUnlocked UnlockStatus = "unlocked"
)

// AchievementState tracks unlock progress for one (learner, achievement) pair.
type AchievementState struct {
	Status     UnlockStatus `json:"status"`
	UnlockedAt time.Time    `json:"unlocked_at,omitempty"`
}

// Unlocked reports whether the terminal state has been reached.
func (s AchievementState) Unlocked() bool { return s.Status == StatusUnlocked }

// RewardRecord is the durable NFT-equivalent artifact minted exactly once
// per achievement unlock. ExternalRef is filled in when the external
// issuance collaborator confirms the mint; until then Verified stays false.
type RewardRecord struct {
	ID            string    `json:"id"`
	AchievementID string    `json:"achievement_id"`
	Rarity        Rarity    `json:"rarity"`
	MintedAt      time.Time `json:"minted_at"`
	ExternalRef   string    `json:"external_ref,omitempty"`
	Verified      bool      `json:"verified"`
}

// AddSafe adds delta to base ensuring no signed overflow occurs.
func AddSafe(base int64, delta int64) (int64, error) {
	if (delta > 0 && base > math.MaxInt64-delta) || (delta < 0 && base < math.MinInt64-delta) {
		return 0, errors.New("integer overflow in AddSafe")
	}
	return base + delta, nil
}

// NormalizeLearnerID trims and lowercases learner identifiers so that
// wallet addresses in mixed case map to the same ledger partition.
func NormalizeLearnerID(id LearnerID) (LearnerID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty learner id")
	}
	return LearnerID(strings.ToLower(s)), nil
}

// ValidateAchievementID ensures a non-empty id with a simple charset check.
func ValidateAchievementID(id string) error {
	s := strings.TrimSpace(id)
	if s == "" {
		return errors.New("empty achievement id")
	}
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			continue
		}
		return errors.New("invalid achievement id")
	}
	return nil
}
