package cloudsync

import (
	"context"

	"github.com/google/uuid"

	"github.com/lifeos/backend/internal/application/adapter"
	"github.com/lifeos/backend/internal/domain/entity"
)

// DirectRemote serves one user's change feed in process. The API uses it
// to sync a user's server-side store without a network hop.
type DirectRemote struct {
	pull   *PullChangesUseCase
	push   *PushChangesUseCase
	userID uuid.UUID
}

// NewDirectRemote creates a remote bound to userID.
func NewDirectRemote(pull *PullChangesUseCase, push *PushChangesUseCase, userID uuid.UUID) *DirectRemote {
	return &DirectRemote{pull: pull, push: push, userID: userID}
}

var _ adapter.SyncRemote = (*DirectRemote)(nil)

// Pull implements adapter.SyncRemote.
func (r *DirectRemote) Pull(ctx context.Context, token string) (*adapter.PullResult, error) {
	out, err := r.pull.Execute(ctx, PullChangesInput{UserID: r.userID, Token: token})
	if err != nil {
		return nil, err
	}
	return &adapter.PullResult{Entities: out.Entities, Token: out.Token, HasMore: out.HasMore}, nil
}

// Push implements adapter.SyncRemote.
func (r *DirectRemote) Push(ctx context.Context, entities []entity.VersionedEntity) (*adapter.PushResult, error) {
	var result adapter.PushResult
	for start := 0; start < len(entities); start += MaxPushSize {
		end := min(start+MaxPushSize, len(entities))
		out, err := r.push.Execute(ctx, PushChangesInput{UserID: r.userID, Entities: entities[start:end]})
		if err != nil {
			return nil, err
		}
		result.Accepted = append(result.Accepted, out.Accepted...)
		result.Rejected = append(result.Rejected, out.Rejected...)
	}
	return &result, nil
}

// Ping implements adapter.SyncRemote. The in-process remote is always up.
func (r *DirectRemote) Ping(context.Context) error {
	return nil
}
