package dto

import (
	"time"

	"github.com/lifeos/backend/internal/domain/entity"
)

// SyncPullRequest represents the request body for pulling remote changes.
type SyncPullRequest struct {
	Token string `json:"token"`
	Limit int    `json:"limit" binding:"omitempty,min=1,max=1000"`
}

// SyncPullResponse represents one page of the change feed.
type SyncPullResponse struct {
	Entities []entity.VersionedEntity `json:"entities"`
	Token    string                   `json:"token"`
	HasMore  bool                     `json:"hasMore"`
}

// SyncPushRequest represents the request body for pushing local versions.
type SyncPushRequest struct {
	Entities []entity.VersionedEntity `json:"entities" binding:"max=1000"`
}

// SyncRejection is a pushed entity the server refused, with its stored copy.
type SyncRejection struct {
	Ref     entity.EntityRef        `json:"ref"`
	Current *entity.VersionedEntity `json:"current,omitempty"`
}

// SyncPushResponse represents the response for a push.
type SyncPushResponse struct {
	Accepted []entity.EntityRef `json:"accepted"`
	Rejected []SyncRejection    `json:"rejected"`
}

// SyncReportResponse represents the outcome of one sync cycle.
type SyncReportResponse struct {
	Pulled     int       `json:"pulled"`
	Adopted    int       `json:"adopted"`
	Pushed     int       `json:"pushed"`
	Rejected   int       `json:"rejected"`
	Conflicts  int       `json:"conflicts"`
	State      string    `json:"state"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// SyncStatusResponse represents the sync state of the caller's store.
type SyncStatusResponse struct {
	State      string     `json:"state"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
	Pending    int        `json:"pending"`
	Conflicts  int        `json:"conflicts"`
}

// ResolveConflictRequest represents the request body for resolving conflicts.
type ResolveConflictRequest struct {
	Strategy string `json:"strategy" binding:"required,oneof=local-wins remote-wins merge"`
}

// ResolveAllResponse represents the response for a batch resolution.
type ResolveAllResponse struct {
	Resolved int `json:"resolved"`
}

// ConflictListResponse represents the open conflicts of a store.
type ConflictListResponse struct {
	Conflicts []entity.Conflict `json:"conflicts"`
}
