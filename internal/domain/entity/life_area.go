// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// LifeArea is a domain of life (health, career, relationships) that goals,
// habits and tasks can be attached to.
type LifeArea struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Vision       string    `json:"vision,omitempty"`
	Color        string    `json:"color"`
	Icon         string    `json:"icon,omitempty"`
	Importance   int       `json:"importance"`
	CurrentLevel int       `json:"currentLevel"`
	TargetLevel  int       `json:"targetLevel"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewLifeArea creates a new active LifeArea.
func NewLifeArea(name, color string, now time.Time) *LifeArea {
	return &LifeArea{
		ID:           uuid.NewString(),
		Name:         name,
		Color:        color,
		Importance:   3,
		CurrentLevel: 1,
		TargetLevel:  10,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// RecordID returns the area id.
func (a LifeArea) RecordID() string { return a.ID }
