// Package entity defines the core business entities for the domain layer.
package entity

import "time"

// IdentityID is the fixed id of the identity singleton.
const IdentityID = "identity"

// Identity holds the user's name, vision and mission statements.
type Identity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Vision    string    `json:"vision"`
	Mission   string    `json:"mission"`
	Values    []string  `json:"values,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewIdentity creates the default identity created on first access.
func NewIdentity(now time.Time) *Identity {
	return &Identity{
		ID:        IdentityID,
		Name:      "Adventurer",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecordID returns the identity id.
func (i Identity) RecordID() string { return i.ID }
