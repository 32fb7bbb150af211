// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// AchievementType classifies the size of an achievement.
type AchievementType string

const (
	AchievementTypeMicro        AchievementType = "micro"
	AchievementTypeMacro        AchievementType = "macro"
	AchievementTypeBreakthrough AchievementType = "breakthrough"
	AchievementTypeMoment       AchievementType = "moment"
)

// Achievement is a journaled win. UnlockDate turns it into a time capsule
// that stays sealed until that day.
type Achievement struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Type          AchievementType `json:"type"`
	Category      string          `json:"category,omitempty"`
	Emotion       string          `json:"emotion,omitempty"`
	LessonLearned string          `json:"lessonLearned,omitempty"`
	Date          string          `json:"date"`
	Favorite      bool            `json:"favorite"`
	UnlockDate    string          `json:"unlockDate,omitempty"`
	XPAwarded     int             `json:"xpAwarded"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewAchievement creates a new Achievement entity.
func NewAchievement(title string, achievementType AchievementType, date string, now time.Time) *Achievement {
	return &Achievement{
		ID:        uuid.NewString(),
		Title:     title,
		Type:      achievementType,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecordID returns the achievement id.
func (a Achievement) RecordID() string { return a.ID }

// IsSealed reports whether a time capsule is still locked on the given day.
func (a Achievement) IsSealed(today string) bool {
	return a.UnlockDate != "" && a.UnlockDate > today
}
