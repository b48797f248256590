package leaderboard

import (
	"context"

	"learnledger/core"
)

// Entry represents a ranked learner.
type Entry struct {
	Learner core.LearnerID `json:"learner"`
	Points  int64          `json:"points"`
}

// Board abstracts leaderboard operations.
type Board interface {
	Update(learner core.LearnerID, points int64)
	Remove(learner core.LearnerID)
	TopN(n int) []Entry
	Get(learner core.LearnerID) (Entry, bool)
}

// Follow subscribes the board to a ledger event source so rankings track
// point totals as they are recorded. Returns the unsubscribe func.
func Follow(board Board, subscribe func(core.EventType, func(context.Context, core.Event)) func()) func() {
	return subscribe(core.EventPointsRecorded, func(_ context.Context, e core.Event) {
		board.Update(e.LearnerID, e.Total)
	})
}
