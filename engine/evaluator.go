package engine

import (
	"context"
	"sort"
	"time"

	"learnledger/core"
)

// Evaluator decides which not-yet-unlocked achievements become unlocked
// after a point-awarding event. It is a pure function of its inputs plus
// the injected rule tables: no persistence happens here, unlocking is
// committed by the Issuer. Results follow definition-table order so that
// emitted mint order is reproducible.
type Evaluator struct {
	rules  RuleProvider
	skills SkillSource
}

func NewEvaluator(rules RuleProvider, skills SkillSource) *Evaluator {
	if rules == nil {
		panic("NewEvaluator requires a non-nil rule provider")
	}
	return &Evaluator{rules: rules, skills: skills}
}

// Evaluate returns the enabled definitions whose triggers are newly
// satisfied for the learner. Already-unlocked achievements are skipped.
func (e *Evaluator) Evaluate(ctx context.Context, id core.LearnerID, trigger core.Category, agg core.Aggregate, history []core.PointTransaction, states map[string]core.AchievementState) []core.AchievementDefinition {
	var unlocked []core.AchievementDefinition
	for _, def := range e.rules.Achievements() {
		if !def.Enabled {
			continue
		}
		if st, ok := states[def.ID]; ok && st.Unlocked() {
			continue
		}
		if e.satisfied(ctx, id, def.Trigger, agg, history) {
			unlocked = append(unlocked, def)
		}
	}
	return unlocked
}

func (e *Evaluator) satisfied(ctx context.Context, id core.LearnerID, trig core.Trigger, agg core.Aggregate, history []core.PointTransaction) bool {
	switch trig.Kind {
	case core.TriggerActionCount:
		return countCategory(history, trig.Category) >= trig.Count
	case core.TriggerPointThreshold:
		return agg.TotalPoints >= trig.Points
	case core.TriggerCustom:
		return e.customSatisfied(ctx, id, trig, history)
	default:
		// unrecognized trigger kinds are treated as not satisfied so the
		// evaluator stays total over arbitrary configuration
		return false
	}
}

func (e *Evaluator) customSatisfied(ctx context.Context, id core.LearnerID, trig core.Trigger, history []core.PointTransaction) bool {
	switch trig.Condition {
	case core.ConditionStreak:
		need := trig.Count
		if need <= 0 {
			need = 1
		}
		return loginStreak(history) >= need
	case core.ConditionTaggedCompletion:
		tag := trig.Params["tag"]
		if tag == "" {
			return false
		}
		need := trig.Count
		if need <= 0 {
			need = 1
		}
		n := 0
		for _, tx := range history {
			if tx.Category == core.CategoryCourseCompletion && tx.HasTag(tag) {
				n++
			}
		}
		return n >= need
	case core.ConditionSkillMastery:
		if e.skills == nil {
			return false
		}
		skill := trig.Params["skill"]
		if skill == "" {
			return false
		}
		ok, err := e.skills.HasMastered(ctx, id, skill)
		return err == nil && ok
	default:
		// unknown condition names are not satisfied, never an error
		return false
	}
}

func countCategory(history []core.PointTransaction, category core.Category) int {
	n := 0
	for _, tx := range history {
		if tx.Category == category {
			n++
		}
	}
	return n
}

// loginStreak counts consecutive UTC days with at least one daily_login
// transaction, ending at the most recent login day.
func loginStreak(history []core.PointTransaction) int {
	seen := map[string]time.Time{}
	for _, tx := range history {
		if tx.Category != core.CategoryDailyLogin {
			continue
		}
		day := tx.Timestamp.UTC().Truncate(24 * time.Hour)
		seen[day.Format("2006-01-02")] = day
	}
	if len(seen) == 0 {
		return 0
	}
	days := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) == 24*time.Hour {
			streak++
			continue
		}
		break
	}
	return streak
}
