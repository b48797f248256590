package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"learnledger/config"
	"learnledger/core"
)

func historyOf(entries ...core.PointTransaction) []core.PointTransaction { return entries }

func tx(category core.Category, at time.Time, tags ...string) core.PointTransaction {
	return core.PointTransaction{Category: category, Amount: 10, Timestamp: at, Tags: tags}
}

func singleRule(def core.AchievementDefinition) config.RulesConfig {
	return config.RulesConfig{
		AchievementList: []core.AchievementDefinition{def},
		LevelThresholds: []int64{0, 500},
	}
}

func TestActionCountTrigger(t *testing.T) {
	def := core.AchievementDefinition{
		ID: "quiz_master", PointReward: 150,
		Trigger: core.ActionCountTrigger(core.CategoryQuizCompletion, 2),
		Enabled: true,
	}
	eval := NewEvaluator(singleRule(def), nil)
	now := time.Now().UTC()

	got := eval.Evaluate(context.Background(), "u", core.CategoryQuizCompletion,
		core.Aggregate{}, historyOf(tx(core.CategoryQuizCompletion, now)), nil)
	if len(got) != 0 {
		t.Fatalf("one quiz should not satisfy count 2: %+v", got)
	}

	got = eval.Evaluate(context.Background(), "u", core.CategoryQuizCompletion,
		core.Aggregate{},
		historyOf(tx(core.CategoryQuizCompletion, now), tx(core.CategoryQuizCompletion, now)), nil)
	if len(got) != 1 || got[0].ID != "quiz_master" {
		t.Fatalf("expected unlock, got %+v", got)
	}
}

func TestPointThresholdTrigger(t *testing.T) {
	def := core.AchievementDefinition{
		ID: "collector", Trigger: core.PointThresholdTrigger(1000), Enabled: true,
	}
	eval := NewEvaluator(singleRule(def), nil)

	if got := eval.Evaluate(context.Background(), "u", core.CategoryBonus,
		core.Aggregate{TotalPoints: 999}, nil, nil); len(got) != 0 {
		t.Fatalf("999 points below threshold: %+v", got)
	}
	if got := eval.Evaluate(context.Background(), "u", core.CategoryBonus,
		core.Aggregate{TotalPoints: 1000}, nil, nil); len(got) != 1 {
		t.Fatal("1000 points should satisfy threshold")
	}
}

func TestDisabledAndUnlockedSkipped(t *testing.T) {
	disabled := core.AchievementDefinition{
		ID: "off", Trigger: core.PointThresholdTrigger(0), Enabled: false,
	}
	eval := NewEvaluator(singleRule(disabled), nil)
	if got := eval.Evaluate(context.Background(), "u", core.CategoryBonus,
		core.Aggregate{TotalPoints: 100}, nil, nil); len(got) != 0 {
		t.Fatalf("disabled achievements must not fire: %+v", got)
	}

	enabled := disabled
	enabled.Enabled = true
	eval = NewEvaluator(singleRule(enabled), nil)
	states := map[string]core.AchievementState{
		"off": {Status: core.StatusUnlocked, UnlockedAt: time.Now().UTC()},
	}
	if got := eval.Evaluate(context.Background(), "u", core.CategoryBonus,
		core.Aggregate{TotalPoints: 100}, nil, states); len(got) != 0 {
		t.Fatalf("unlocked achievements must not fire again: %+v", got)
	}
}

func TestStreakCondition(t *testing.T) {
	def := core.AchievementDefinition{
		ID:      "three_days",
		Trigger: core.Trigger{Kind: core.TriggerCustom, Condition: core.ConditionStreak, Count: 3},
		Enabled: true,
	}
	eval := NewEvaluator(singleRule(def), nil)
	day := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	// two consecutive days then a gap
	broken := historyOf(
		tx(core.CategoryDailyLogin, day),
		tx(core.CategoryDailyLogin, day.AddDate(0, 0, -1)),
		tx(core.CategoryDailyLogin, day.AddDate(0, 0, -4)),
	)
	if got := eval.Evaluate(context.Background(), "u", core.CategoryDailyLogin,
		core.Aggregate{}, broken, nil); len(got) != 0 {
		t.Fatalf("broken streak must not satisfy: %+v", got)
	}

	solid := historyOf(
		tx(core.CategoryDailyLogin, day),
		tx(core.CategoryDailyLogin, day.AddDate(0, 0, -1)),
		tx(core.CategoryDailyLogin, day.AddDate(0, 0, -2)),
	)
	if got := eval.Evaluate(context.Background(), "u", core.CategoryDailyLogin,
		core.Aggregate{}, solid, nil); len(got) != 1 {
		t.Fatal("three consecutive days should satisfy the streak")
	}
}

func TestTaggedCompletionCondition(t *testing.T) {
	def := core.AchievementDefinition{
		ID: "chain_scholar",
		Trigger: core.CustomTrigger(core.ConditionTaggedCompletion,
			map[string]string{"tag": "blockchain"}),
		Enabled: true,
	}
	eval := NewEvaluator(singleRule(def), nil)
	now := time.Now().UTC()

	// tag matching is structural, not reason-text matching
	miss := historyOf(
		tx(core.CategoryCourseCompletion, now, "python"),
		tx(core.CategoryLessonCompletion, now, "blockchain"),
	)
	if got := eval.Evaluate(context.Background(), "u", core.CategoryCourseCompletion,
		core.Aggregate{}, miss, nil); len(got) != 0 {
		t.Fatalf("no blockchain course completed: %+v", got)
	}

	hit := historyOf(tx(core.CategoryCourseCompletion, now, "blockchain", "solidity"))
	if got := eval.Evaluate(context.Background(), "u", core.CategoryCourseCompletion,
		core.Aggregate{}, hit, nil); len(got) != 1 {
		t.Fatal("tagged course completion should satisfy")
	}
}

type stubSkills struct {
	mastered map[string]bool
	err      error
}

func (s stubSkills) HasMastered(_ context.Context, _ core.LearnerID, skill string) (bool, error) {
	return s.mastered[skill], s.err
}

func TestSkillMasteryCondition(t *testing.T) {
	def := core.AchievementDefinition{
		ID: "sol_dev",
		Trigger: core.CustomTrigger(core.ConditionSkillMastery,
			map[string]string{"skill": "solidity"}),
		Enabled: true,
	}

	eval := NewEvaluator(singleRule(def), stubSkills{mastered: map[string]bool{"solidity": true}})
	if got := eval.Evaluate(context.Background(), "u", core.CategoryBonus,
		core.Aggregate{}, nil, nil); len(got) != 1 {
		t.Fatal("mastered skill should satisfy")
	}

	// source errors and missing sources are not-satisfied, never fatal
	eval = NewEvaluator(singleRule(def), stubSkills{err: errors.New("unavailable")})
	if got := eval.Evaluate(context.Background(), "u", core.CategoryBonus,
		core.Aggregate{}, nil, nil); len(got) != 0 {
		t.Fatal("skill source errors must evaluate to not satisfied")
	}
	eval = NewEvaluator(singleRule(def), nil)
	if got := eval.Evaluate(context.Background(), "u", core.CategoryBonus,
		core.Aggregate{}, nil, nil); len(got) != 0 {
		t.Fatal("nil skill source must evaluate to not satisfied")
	}
}

func TestUnknownConditionNotSatisfied(t *testing.T) {
	def := core.AchievementDefinition{
		ID:      "mystery",
		Trigger: core.CustomTrigger("telepathy", nil),
		Enabled: true,
	}
	eval := NewEvaluator(singleRule(def), nil)
	if got := eval.Evaluate(context.Background(), "u", core.CategoryBonus,
		core.Aggregate{TotalPoints: 1 << 40}, nil, nil); len(got) != 0 {
		t.Fatalf("unknown conditions must never fire: %+v", got)
	}
}

func TestEvaluationOrderIsDeterministic(t *testing.T) {
	rules := config.RulesConfig{
		AchievementList: []core.AchievementDefinition{
			{ID: "b_second", Trigger: core.PointThresholdTrigger(1), Enabled: true},
			{ID: "a_first", Trigger: core.PointThresholdTrigger(1), Enabled: true},
		},
	}
	eval := NewEvaluator(rules, nil)
	got := eval.Evaluate(context.Background(), "u", core.CategoryBonus,
		core.Aggregate{TotalPoints: 10}, nil, nil)
	if len(got) != 2 || got[0].ID != "b_second" || got[1].ID != "a_first" {
		t.Fatalf("expected table order, got %+v", got)
	}
}
