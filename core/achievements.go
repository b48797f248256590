package core

// TriggerKind discriminates the tagged unlock-condition union.
type TriggerKind string

const (
	// TriggerActionCount unlocks after N transactions of a category.
	TriggerActionCount TriggerKind = "action_count"
	// TriggerPointThreshold unlocks once total points reach a value.
	TriggerPointThreshold TriggerKind = "point_threshold"
	// TriggerCustom dispatches on a named condition type. Unknown names
	// evaluate to not-satisfied rather than erroring.
	TriggerCustom TriggerKind = "custom"
)

// Custom condition names the evaluator recognizes.
const (
	ConditionStreak           = "streak"
	ConditionTaggedCompletion = "tagged_completion"
	ConditionSkillMastery     = "skill_mastery"
)

// Trigger is the tagged unlock condition of an achievement. Only the
// fields relevant to Kind are meaningful.
type Trigger struct {
	Kind      TriggerKind       `json:"kind"`
	Category  Category          `json:"category,omitempty"`
	Count     int               `json:"count,omitempty"`
	Points    int64             `json:"points,omitempty"`
	Condition string            `json:"condition,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
}

// ActionCountTrigger builds a trigger satisfied after n transactions of
// the given category.
func ActionCountTrigger(category Category, n int) Trigger {
	return Trigger{Kind: TriggerActionCount, Category: category, Count: n}
}

// PointThresholdTrigger builds a trigger satisfied once total points
// reach points.
func PointThresholdTrigger(points int64) Trigger {
	return Trigger{Kind: TriggerPointThreshold, Points: points}
}

// CustomTrigger builds a named-condition trigger with optional parameters.
func CustomTrigger(condition string, params map[string]string) Trigger {
	return Trigger{Kind: TriggerCustom, Condition: condition, Params: params}
}

// AchievementDefinition is a read-only configuration entity describing one
// unlockable achievement and its one-time bonus.
type AchievementDefinition struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	PointReward int64   `json:"point_reward"`
	Rarity      Rarity  `json:"rarity"`
	Category    string  `json:"category"`
	Trigger     Trigger `json:"trigger"`
	Enabled     bool    `json:"enabled"`
}
