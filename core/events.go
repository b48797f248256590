package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventPointsRecorded      EventType = "points_recorded"
	EventLevelUp             EventType = "level_up"
	EventAchievementUnlocked EventType = "achievement_unlocked"
	EventRewardMinted        EventType = "reward_minted"
)

// Event represents an immutable domain event.
type Event struct {
	Type          EventType `json:"type"`
	Time          time.Time `json:"time"`
	LearnerID     LearnerID `json:"learner_id"`
	Category      Category  `json:"category,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	Total         int64     `json:"total,omitempty"`
	Level         int64     `json:"level,omitempty"`
	AchievementID string    `json:"achievement_id,omitempty"`
	RewardID      string    `json:"reward_id,omitempty"`
	Rarity        Rarity    `json:"rarity,omitempty"`
}

func NewPointsRecorded(learner LearnerID, category Category, amount int64, total int64) Event {
	return Event{Type: EventPointsRecorded, Time: time.Now().UTC(), LearnerID: learner, Category: category, Amount: amount, Total: total}
}

func NewLevelUp(learner LearnerID, level int64, total int64) Event {
	return Event{Type: EventLevelUp, Time: time.Now().UTC(), LearnerID: learner, Level: level, Total: total}
}

func NewAchievementUnlocked(learner LearnerID, achievementID string, rarity Rarity) Event {
	return Event{Type: EventAchievementUnlocked, Time: time.Now().UTC(), LearnerID: learner, AchievementID: achievementID, Rarity: rarity}
}

func NewRewardMinted(learner LearnerID, rewardID string, achievementID string, rarity Rarity) Event {
	return Event{Type: EventRewardMinted, Time: time.Now().UTC(), LearnerID: learner, RewardID: rewardID, AchievementID: achievementID, Rarity: rarity}
}
