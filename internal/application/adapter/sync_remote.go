// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/lifeos/backend/internal/domain/entity"
)

// PullResult holds the remote changes after a sync token.
type PullResult struct {
	Entities []entity.VersionedEntity `json:"entities"`
	Token    string                   `json:"token"`
	// HasMore is set when the page was cut short; pull again with Token.
	HasMore bool `json:"hasMore"`
}

// Rejection is a pushed entity the remote refused, with the copy it holds.
type Rejection struct {
	Ref     entity.EntityRef        `json:"ref"`
	Current *entity.VersionedEntity `json:"current,omitempty"`
}

// PushResult reports which pushed entities were stored.
type PushResult struct {
	Accepted []entity.EntityRef `json:"accepted"`
	Rejected []Rejection        `json:"rejected"`
}

// SyncRemote is the remote side of the sync wire contract.
type SyncRemote interface {
	// Pull returns every remote change after token. An empty token pulls everything.
	Pull(ctx context.Context, token string) (*PullResult, error)

	// Push offers local versions. The remote accepts an entity only when its
	// version is newer than the one it holds.
	Push(ctx context.Context, entities []entity.VersionedEntity) (*PushResult, error)

	// Ping checks the remote is reachable and the credentials are accepted.
	Ping(ctx context.Context) error
}
