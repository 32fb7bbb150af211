// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// SkillActivity is one practice session logged against a skill.
type SkillActivity struct {
	Date string `json:"date"`
	XP   int    `json:"xp"`
	Note string `json:"note,omitempty"`
}

// Certificate is unlocked when a skill reaches a milestone level.
type Certificate struct {
	Level    int       `json:"level"`
	Title    string    `json:"title"`
	EarnedAt time.Time `json:"earnedAt"`
}

// Skill tracks per-skill leveling, independent of the account level.
type Skill struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Category        string          `json:"category,omitempty"`
	Icon            string          `json:"icon,omitempty"`
	Color           string          `json:"color,omitempty"`
	Level           int             `json:"level"`
	XP              int             `json:"xp"`
	XPToNext        int             `json:"xpToNext"`
	TotalXP         int             `json:"totalXp"`
	LastPracticedAt *time.Time      `json:"lastPracticedAt,omitempty"`
	Activities      []SkillActivity `json:"activities"`
	Certificates    []Certificate   `json:"certificates"`
	Decaying        bool            `json:"decaying"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// NewSkill creates a level 1 skill with the given threshold to level 2.
func NewSkill(name, category string, xpToNext int, now time.Time) *Skill {
	return &Skill{
		ID:           uuid.NewString(),
		Name:         name,
		Category:     category,
		Level:        1,
		XPToNext:     xpToNext,
		Activities:   []SkillActivity{},
		Certificates: []Certificate{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// RecordID returns the skill id.
func (s Skill) RecordID() string { return s.ID }
