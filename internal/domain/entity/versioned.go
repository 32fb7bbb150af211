// Package entity defines the core business entities for the domain layer.
package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EntityRef identifies one entity across collections.
type EntityRef struct {
	Type EntityType `json:"entityType"`
	ID   string     `json:"id"`
}

// Key returns the "<type>/<id>" form used as a map key.
func (r EntityRef) Key() string {
	return string(r.Type) + "/" + r.ID
}

// VersionedEntity wraps an entity payload with the metadata needed to merge
// copies written on different devices. It is only used on the sync path.
type VersionedEntity struct {
	EntityType EntityType      `json:"entityType"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data,omitempty"`
	Version    int             `json:"_version"`
	DeviceID   string          `json:"_deviceId"`
	ModifiedAt time.Time       `json:"_modifiedAt"`
	Deleted    bool            `json:"_deleted,omitempty"`
	// BaseVersion is the cloud version the sender last saw. Only set on push.
	BaseVersion int `json:"_baseVersion,omitempty"`
}

// Ref returns the entity reference of the versioned entity.
func (v VersionedEntity) Ref() EntityRef {
	return EntityRef{Type: v.EntityType, ID: v.ID}
}

// Follows reports whether v was edited from stored, the copy the cloud holds
// now. A version number alone says nothing about which edits it contains, so
// the sender's base version has to match. Anything follows a missing copy.
func (v VersionedEntity) Follows(stored *VersionedEntity) bool {
	if stored == nil {
		return true
	}
	return v.BaseVersion == stored.Version && v.Version > stored.Version
}

// Repeats reports whether v is the stored copy sent again by the device that
// wrote it, as after a push whose response was lost.
func (v VersionedEntity) Repeats(stored *VersionedEntity) bool {
	return stored != nil &&
		v.DeviceID != "" &&
		v.DeviceID == stored.DeviceID &&
		v.Version == stored.Version &&
		v.Deleted == stored.Deleted
}

// SyncMeta is the local bookkeeping kept per entity for sync.
type SyncMeta struct {
	Version     int       `json:"version"`
	DeviceID    string    `json:"deviceId"`
	ModifiedAt  time.Time `json:"modifiedAt"`
	BaseVersion int       `json:"baseVersion"` // remote version at last successful sync
	Dirty       bool      `json:"dirty"`
	Deleted     bool      `json:"deleted,omitempty"`
}

// ConflictType classifies how two copies diverged.
type ConflictType string

const (
	// ConflictBothModified means both sides changed since the last common version.
	ConflictBothModified ConflictType = "both_modified"
	// ConflictLocalDeleted means the local copy was deleted while the remote changed.
	ConflictLocalDeleted ConflictType = "local_deleted"
	// ConflictRemoteDeleted means the remote copy was deleted while the local changed.
	ConflictRemoteDeleted ConflictType = "remote_deleted"
)

// ResolutionStrategy selects how a conflict is settled.
type ResolutionStrategy string

const (
	ResolveLocalWins  ResolutionStrategy = "local-wins"
	ResolveRemoteWins ResolutionStrategy = "remote-wins"
	ResolveMerge      ResolutionStrategy = "merge"
)

// IsValid reports whether the strategy is known.
func (s ResolutionStrategy) IsValid() bool {
	return s == ResolveLocalWins || s == ResolveRemoteWins || s == ResolveMerge
}

// Conflict keeps both full versions of a diverged entity until resolved.
type Conflict struct {
	ID         string          `json:"id"`
	EntityType EntityType      `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Type       ConflictType    `json:"type"`
	Local      VersionedEntity `json:"local"`
	Remote     VersionedEntity `json:"remote"`
	DetectedAt time.Time       `json:"detectedAt"`
}

// NewConflict creates a new conflict record.
func NewConflict(conflictType ConflictType, local, remote VersionedEntity, now time.Time) Conflict {
	return Conflict{
		ID:         uuid.NewString(),
		EntityType: local.EntityType,
		EntityID:   local.ID,
		Type:       conflictType,
		Local:      local,
		Remote:     remote,
		DetectedAt: now,
	}
}

// Ref returns the reference of the conflicted entity.
func (c Conflict) Ref() EntityRef {
	return EntityRef{Type: c.EntityType, ID: c.EntityID}
}
