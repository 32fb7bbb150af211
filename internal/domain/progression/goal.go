package progression

import (
	"time"

	"github.com/lifeos/backend/internal/domain/entity"
)

// SetGoalProgress sets progress (clamped to 0..100) and keeps status in line:
// reaching 100 completes the goal and stamps CompletedAt, dropping below 100
// reopens a completed goal. It reports whether the goal became completed.
func SetGoalProgress(g *entity.Goal, progress int, now time.Time) bool {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	g.Progress = progress
	return NormalizeGoal(g, now)
}

// NormalizeGoal enforces the progress/status rule on an already mutated goal.
// An explicit completed status pulls progress to 100.
func NormalizeGoal(g *entity.Goal, now time.Time) bool {
	if g.Status == entity.GoalStatusCompleted && g.Progress < 100 && g.CompletedAt == nil {
		g.Progress = 100
	}
	switch {
	case g.Progress >= 100:
		g.Progress = 100
		if g.Status != entity.GoalStatusCompleted || g.CompletedAt == nil {
			g.Status = entity.GoalStatusCompleted
			completedAt := now
			g.CompletedAt = &completedAt
			return true
		}
	case g.Status == entity.GoalStatusCompleted:
		g.Status = entity.GoalStatusActive
		g.CompletedAt = nil
	}
	return false
}

// MilestoneProgress returns the share of completed milestones as a percentage,
// or -1 when the goal has none.
func MilestoneProgress(g *entity.Goal) int {
	if len(g.Milestones) == 0 {
		return -1
	}
	done := 0
	for _, m := range g.Milestones {
		if m.Completed {
			done++
		}
	}
	return done * 100 / len(g.Milestones)
}
