// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// GoalType distinguishes result goals from practice goals.
type GoalType string

const (
	GoalTypeOutcome GoalType = "outcome"
	GoalTypeProcess GoalType = "process"
)

// GoalStatus represents the lifecycle state of a goal.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusPaused    GoalStatus = "paused"
	GoalStatusArchived  GoalStatus = "archived"
)

// Milestone is a checkpoint inside a goal.
type Milestone struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Goal represents a long-running objective in the LifeOS system.
type Goal struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	AreaID      *string     `json:"areaId,omitempty"` // weak reference to LifeArea.ID
	Type        GoalType    `json:"type"`
	Priority    int         `json:"priority"`
	TargetDate  string      `json:"targetDate,omitempty"`
	Status      GoalStatus  `json:"status"`
	Progress    int         `json:"progress"`
	Milestones  []Milestone `json:"milestones"`
	XPAwarded   bool        `json:"xpAwarded,omitempty"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// NewGoal creates a new active Goal entity.
func NewGoal(title string, goalType GoalType, priority int, now time.Time) *Goal {
	if goalType == "" {
		goalType = GoalTypeOutcome
	}
	if priority == 0 {
		priority = 3
	}
	return &Goal{
		ID:         uuid.NewString(),
		Title:      title,
		Type:       goalType,
		Priority:   priority,
		Status:     GoalStatusActive,
		Milestones: []Milestone{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewMilestone creates an open milestone.
func NewMilestone(title string) Milestone {
	return Milestone{ID: uuid.NewString(), Title: title}
}

// RecordID returns the goal id.
func (g Goal) RecordID() string { return g.ID }
