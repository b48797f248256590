package config

import (
	"errors"
	"fmt"
	"strings"

	"learnledger/core"
)

// PointRate is one row of the point-rate table: the base award for a
// category, with a kill switch.
type PointRate struct {
	Amount  int64 `json:"amount"`
	Enabled bool  `json:"enabled"`
}

// RulesConfig carries the three gamification tables: point rates per
// category, the achievement definition list, and the level thresholds.
// A RulesConfig value is read-only once handed to the engine and is safe
// to share across all learners; tests construct fixture values directly
// instead of touching any shared default.
type RulesConfig struct {
	PointRates      map[core.Category]PointRate  `json:"point_rates"`
	AchievementList []core.AchievementDefinition `json:"achievements"`
	LevelThresholds []int64                      `json:"level_thresholds"`
	LevelStep       int64                        `json:"level_step"`
}

// PointRate returns the configured base award for a category. Disabled or
// missing categories report ok=false.
func (r RulesConfig) PointRate(category core.Category) (int64, bool) {
	rate, ok := r.PointRates[category]
	if !ok || !rate.Enabled {
		return 0, false
	}
	return rate.Amount, true
}

// Achievements returns the ordered definition table.
func (r RulesConfig) Achievements() []core.AchievementDefinition {
	return r.AchievementList
}

// LevelCurve builds the level derivation curve from the threshold table.
func (r RulesConfig) LevelCurve() core.LevelCurve {
	if len(r.LevelThresholds) == 0 {
		return core.DefaultCurve()
	}
	return core.LevelCurve{Thresholds: r.LevelThresholds, Step: r.LevelStep}
}

// Validate checks table consistency: ascending thresholds starting at 0,
// unique achievement ids, non-negative rewards.
func (r RulesConfig) Validate() error {
	var errs []string

	if len(r.LevelThresholds) > 0 && r.LevelThresholds[0] != 0 {
		errs = append(errs, "level_thresholds must start at 0")
	}
	for i := 1; i < len(r.LevelThresholds); i++ {
		if r.LevelThresholds[i] <= r.LevelThresholds[i-1] {
			errs = append(errs, fmt.Sprintf("level_thresholds not strictly ascending at index %d", i))
			break
		}
	}

	seen := map[string]struct{}{}
	for _, def := range r.AchievementList {
		if err := core.ValidateAchievementID(def.ID); err != nil {
			errs = append(errs, fmt.Sprintf("achievement %q: %v", def.ID, err))
			continue
		}
		if _, dup := seen[def.ID]; dup {
			errs = append(errs, fmt.Sprintf("duplicate achievement id %q", def.ID))
		}
		seen[def.ID] = struct{}{}
		if def.PointReward < 0 {
			errs = append(errs, fmt.Sprintf("achievement %q: negative point reward", def.ID))
		}
	}

	for category, rate := range r.PointRates {
		if rate.Amount < 0 {
			errs = append(errs, fmt.Sprintf("point rate for %q is negative", category))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// DefaultRules returns the stock education-platform tables.
func DefaultRules() RulesConfig {
	return RulesConfig{
		PointRates: map[core.Category]PointRate{
			core.CategoryLessonCompletion: {Amount: 50, Enabled: true},
			core.CategoryQuizCompletion:   {Amount: 100, Enabled: true},
			core.CategoryCourseCompletion: {Amount: 500, Enabled: true},
			core.CategoryDailyLogin:       {Amount: 10, Enabled: true},
			core.CategoryBonus:            {Amount: 25, Enabled: true},
		},
		AchievementList: []core.AchievementDefinition{
			{
				ID:          "first_steps",
				Name:        "First Steps",
				Description: "Complete your first lesson",
				PointReward: 25,
				Rarity:      core.RarityCommon,
				Category:    "learning",
				Trigger:     core.ActionCountTrigger(core.CategoryLessonCompletion, 1),
				Enabled:     true,
			},
			{
				ID:          "quiz_master",
				Name:        "Quiz Master",
				Description: "Pass five quizzes",
				PointReward: 150,
				Rarity:      core.RarityRare,
				Category:    "learning",
				Trigger:     core.ActionCountTrigger(core.CategoryQuizCompletion, 5),
				Enabled:     true,
			},
			{
				ID:          "course_graduate",
				Name:        "Course Graduate",
				Description: "Finish a full course",
				PointReward: 250,
				Rarity:      core.RarityRare,
				Category:    "learning",
				Trigger:     core.ActionCountTrigger(core.CategoryCourseCompletion, 1),
				Enabled:     true,
			},
			{
				ID:          "point_collector",
				Name:        "Point Collector",
				Description: "Accumulate 5000 points",
				PointReward: 300,
				Rarity:      core.RarityEpic,
				Category:    "progression",
				Trigger:     core.PointThresholdTrigger(5000),
				Enabled:     true,
			},
			{
				ID:          "week_streak",
				Name:        "Week Streak",
				Description: "Log in seven days in a row",
				PointReward: 200,
				Rarity:      core.RarityEpic,
				Category:    "engagement",
				Trigger:     core.Trigger{Kind: core.TriggerCustom, Condition: core.ConditionStreak, Count: 7},
				Enabled:     true,
			},
			{
				ID:          "chain_scholar",
				Name:        "Chain Scholar",
				Description: "Complete a blockchain-tagged course",
				PointReward: 500,
				Rarity:      core.RarityLegendary,
				Category:    "learning",
				Trigger: core.CustomTrigger(core.ConditionTaggedCompletion,
					map[string]string{"tag": "blockchain"}),
				Enabled: true,
			},
		},
		LevelThresholds: []int64{0, 500, 1000, 2000, 3500, 5500, 8000, 11000, 15000, 20000},
		LevelStep:       core.DefaultLevelStep,
	}
}
