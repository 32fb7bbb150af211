// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// DailyReview is the end-of-day reflection. At most one exists per date.
type DailyReview struct {
	ID            string    `json:"id"`
	Date          string    `json:"date"`
	Mood          int       `json:"mood"`
	Energy        int       `json:"energy"`
	Wins          []string  `json:"wins,omitempty"`
	Lessons       string    `json:"lessons,omitempty"`
	TomorrowFocus string    `json:"tomorrowFocus,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewDailyReview creates a new DailyReview entity.
func NewDailyReview(date string, mood, energy int, now time.Time) *DailyReview {
	return &DailyReview{
		ID:        uuid.NewString(),
		Date:      date,
		Mood:      mood,
		Energy:    energy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecordID returns the review id.
func (r DailyReview) RecordID() string { return r.ID }
