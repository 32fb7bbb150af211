// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusTodo      TaskStatus = "todo"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// TaskPriority represents how urgent a task is.
type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityCritical TaskPriority = "critical"
)

// Task represents a single actionable item.
type Task struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	GoalID        *string      `json:"goalId,omitempty"` // weak reference to Goal.ID
	AreaID        *string      `json:"areaId,omitempty"` // weak reference to LifeArea.ID
	ScheduledDate string       `json:"scheduledDate,omitempty"`
	Status        TaskStatus   `json:"status"`
	Priority      TaskPriority `json:"priority"`
	EnergyCost    string       `json:"energyCost,omitempty"`
	EnergyType    string       `json:"energyType,omitempty"`
	Duration      *int         `json:"duration,omitempty"` // minutes
	Tags          []string     `json:"tags,omitempty"`
	XPAwarded     bool         `json:"xpAwarded,omitempty"`
	CompletedAt   *time.Time   `json:"completedAt,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// NewTask creates a new Task entity in the todo state.
func NewTask(title string, priority TaskPriority, now time.Time) *Task {
	if priority == "" {
		priority = TaskPriorityMedium
	}
	return &Task{
		ID:        uuid.NewString(),
		Title:     title,
		Status:    TaskStatusTodo,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecordID returns the task id.
func (t Task) RecordID() string { return t.ID }
