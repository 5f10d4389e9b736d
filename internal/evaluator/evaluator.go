package evaluator

import (
	"context"
	"slices"

	"github.com/milepost/milepost/internal/domain"
)

// Notifier reports a completed achievement to an external game-services
// sink. Calls are fire-and-forget: implementations handle their own error
// reporting, and the evaluator never observes the outcome.
type Notifier interface {
	NotifyAchievement(ctx context.Context, achievementID string)
}

// Evaluator dispatches threshold-gated achievement notifications at most
// once per session. A threshold is Pending until the first Evaluate call
// with a score at or above its min score, then Dispatched until Reset.
//
// Not internally synchronized: callers must serialize access to a single
// instance (see sessions.Store).
type Evaluator struct {
	notifier   Notifier
	thresholds domain.Thresholds
	dispatched map[string]struct{}
}

func New(notifier Notifier) *Evaluator {
	return &Evaluator{
		notifier:   notifier,
		dispatched: make(map[string]struct{}),
	}
}

// Configure replaces the threshold table. Already dispatched ids stay
// dispatched, so swapping tables mid-session never re-fires them.
func (e *Evaluator) Configure(thresholds domain.Thresholds) {
	e.thresholds = thresholds
}

// Evaluate dispatches every configured threshold whose min score is at or
// below score and which has not been dispatched since the last Reset.
// Thresholds fire in ascending min score order. The id is recorded as
// dispatched before the notifier is invoked, so a failed delivery is
// never retried. Returns the newly dispatched ids in dispatch order.
func (e *Evaluator) Evaluate(ctx context.Context, score int64) []string {
	var newlyDispatched []string
	for _, threshold := range e.thresholds.All() {
		if threshold.MinScore > score {
			// Table is ordered by ascending min score
			break
		}
		if _, ok := e.dispatched[threshold.ID]; ok {
			continue
		}

		e.dispatched[threshold.ID] = struct{}{}
		e.notifier.NotifyAchievement(ctx, threshold.ID)

		newlyDispatched = append(newlyDispatched, threshold.ID)
	}
	return newlyDispatched
}

// Reset returns every threshold to Pending, for starting a new session.
func (e *Evaluator) Reset() {
	clear(e.dispatched)
}

// Dispatched returns the sorted ids dispatched since the last Reset.
func (e *Evaluator) Dispatched() []string {
	ids := make([]string, 0, len(e.dispatched))
	for id := range e.dispatched {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
