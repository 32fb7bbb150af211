// Package entity defines the core business entities for the domain layer.
package entity

import "time"

// Stats is the progression singleton: account level, XP, coins and the
// cumulative counters. It is a cache recomputed on gamified mutations.
type Stats struct {
	Level              int       `json:"level"`
	XP                 int       `json:"xp"`
	XPToNext           int       `json:"xpToNext"`
	TotalXP            int       `json:"totalXp"`
	Coins              int       `json:"coins"`
	CoinsEarned        int       `json:"coinsEarned"`
	CoinsSpent         int       `json:"coinsSpent"`
	CurrentStreak      int       `json:"currentStreak"`
	LongestStreak      int       `json:"longestStreak"`
	LastActiveDate     string    `json:"lastActiveDate,omitempty"`
	TasksCompleted     int       `json:"tasksCompleted"`
	HabitsCompleted    int       `json:"habitsCompleted"`
	GoalsCompleted     int       `json:"goalsCompleted"`
	ReviewsSubmitted   int       `json:"reviewsSubmitted"`
	AchievementsEarned int       `json:"achievementsEarned"`
	RewardedReviews    []string  `json:"rewardedReviews,omitempty"` // dates whose review already paid out
	UpdatedAt          time.Time `json:"updatedAt"`
}

// NewStats creates a fresh level 1 stats record.
func NewStats(xpToNext int) *Stats {
	return &Stats{
		Level:    1,
		XPToNext: xpToNext,
	}
}
