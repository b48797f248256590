package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// LearnerState mirrors the public JSON surface of core.Aggregate.
type LearnerState struct {
	LearnerID     string    `json:"learner_id"`
	TotalPoints   int64     `json:"total_points"`
	Level         int64     `json:"level"`
	NextThreshold int64     `json:"next_threshold"`
	Updated       time.Time `json:"updated"`
}

// Transaction mirrors core.PointTransaction.
type Transaction struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	Reason      string    `json:"reason"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Verified    bool      `json:"verified"`
	ExternalRef string    `json:"external_ref,omitempty"`
}

// AchievementState mirrors core.AchievementState.
type AchievementState struct {
	Status     string    `json:"status"`
	UnlockedAt time.Time `json:"unlocked_at,omitempty"`
}

// Reward mirrors core.RewardRecord.
type Reward struct {
	ID            string    `json:"id"`
	AchievementID string    `json:"achievement_id"`
	Rarity        string    `json:"rarity"`
	MintedAt      time.Time `json:"minted_at"`
	ExternalRef   string    `json:"external_ref,omitempty"`
	Verified      bool      `json:"verified"`
}

// Achievement mirrors core.AchievementDefinition as returned in record results.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PointReward int64  `json:"point_reward"`
	Rarity      string `json:"rarity"`
	Category    string `json:"category"`
}

// RecordResult mirrors the response of the record-event endpoint.
type RecordResult struct {
	Transaction Transaction   `json:"transaction"`
	Aggregate   LearnerState  `json:"aggregate"`
	Unlocked    []Achievement `json:"unlocked,omitempty"`
	Rewards     []Reward      `json:"rewards,omitempty"`
}

// LeaderboardEntry is one ranked learner.
type LeaderboardEntry struct {
	Learner string `json:"learner"`
	Points  int64  `json:"points"`
}

// Event is a domain event received over the WebSocket stream.
type Event struct {
	Type          string    `json:"type"`
	Time          time.Time `json:"time"`
	LearnerID     string    `json:"learner_id"`
	Category      string    `json:"category,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	Total         int64     `json:"total,omitempty"`
	Level         int64     `json:"level,omitempty"`
	AchievementID string    `json:"achievement_id,omitempty"`
	RewardID      string    `json:"reward_id,omitempty"`
	Rarity        string    `json:"rarity,omitempty"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyLearnerID is returned when the learner id is empty.
var ErrEmptyLearnerID = errors.New("learner id is required")
