// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// HabitFrequency describes which calendar days a habit is expected on.
type HabitFrequency string

const (
	HabitFrequencyDaily  HabitFrequency = "daily"
	HabitFrequencyWeekly HabitFrequency = "weekly"
	HabitFrequencyCustom HabitFrequency = "custom"
)

// DateLayout is the calendar date format used across entities.
const DateLayout = "2006-01-02"

// HabitEntry records whether a habit was done on a given day.
type HabitEntry struct {
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
	Rewarded  bool   `json:"rewarded,omitempty"`
}

// Habit represents a recurring practice. Streak, BestStreak and
// TotalCompletions are derived from Entries and rewritten on every change.
type Habit struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description,omitempty"`
	Frequency        HabitFrequency `json:"frequency"`
	TargetDays       []int          `json:"targetDays"`
	EnergyImpact     int            `json:"energyImpact,omitempty"`
	EnergyType       string         `json:"energyType,omitempty"`
	XPReward         int            `json:"xpReward"`
	AreaID           *string        `json:"areaId,omitempty"`
	Entries          []HabitEntry   `json:"entries"`
	Streak           int            `json:"streak"`
	BestStreak       int            `json:"bestStreak"`
	TotalCompletions int            `json:"totalCompletions"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// NewHabit creates a new Habit entity with no entries.
func NewHabit(title string, frequency HabitFrequency, targetDays []int, xpReward int, now time.Time) *Habit {
	if frequency == HabitFrequencyDaily || len(targetDays) == 0 {
		targetDays = []int{0, 1, 2, 3, 4, 5, 6}
	}
	return &Habit{
		ID:         uuid.NewString(),
		Title:      title,
		Frequency:  frequency,
		TargetDays: targetDays,
		XPReward:   xpReward,
		Entries:    []HabitEntry{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// RecordID returns the habit id.
func (h Habit) RecordID() string { return h.ID }

// IsScheduledOn reports whether the habit is expected on the given weekday.
func (h *Habit) IsScheduledOn(day time.Weekday) bool {
	if h.Frequency == HabitFrequencyDaily || len(h.TargetDays) == 0 {
		return true
	}
	for _, d := range h.TargetDays {
		if time.Weekday(d) == day {
			return true
		}
	}
	return false
}

// Entry returns the entry for date, or nil.
func (h *Habit) Entry(date string) *HabitEntry {
	for i := range h.Entries {
		if h.Entries[i].Date == date {
			return &h.Entries[i]
		}
	}
	return nil
}
