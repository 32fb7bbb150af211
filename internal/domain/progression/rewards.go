package progression

import "github.com/lifeos/backend/internal/domain/entity"

const (
	// HabitCoinReward is paid for each completed habit day.
	HabitCoinReward = 2

	// GoalCompletionXP and GoalCompletionCoins are paid once per goal.
	GoalCompletionXP    = 200
	GoalCompletionCoins = 50

	// ReviewXP and ReviewCoins are paid once per reviewed day.
	ReviewXP    = 50
	ReviewCoins = 10

	// DefaultHabitXP is used when a habit is created without an XP reward.
	DefaultHabitXP = 10
)

// TaskXP returns the XP paid for completing a task of the given priority.
func TaskXP(p entity.TaskPriority) int {
	switch p {
	case entity.TaskPriorityLow:
		return 10
	case entity.TaskPriorityHigh:
		return 50
	case entity.TaskPriorityCritical:
		return 100
	default:
		return 25
	}
}

// TaskCoins returns the coins paid alongside TaskXP.
func TaskCoins(p entity.TaskPriority) int {
	return TaskXP(p) / 5
}

// AchievementXP returns the XP recorded for an achievement type.
func AchievementXP(t entity.AchievementType) int {
	switch t {
	case entity.AchievementTypeMacro:
		return 50
	case entity.AchievementTypeBreakthrough:
		return 150
	case entity.AchievementTypeMoment:
		return 25
	default:
		return 10
	}
}
