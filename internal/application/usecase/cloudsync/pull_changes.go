package cloudsync

import (
	"context"

	"github.com/google/uuid"

	"github.com/lifeos/backend/internal/application/adapter"
	"github.com/lifeos/backend/internal/domain/entity"
)

const (
	// DefaultPageSize is used when a pull does not ask for a size.
	DefaultPageSize = 500
	// MaxPageSize caps one pull page.
	MaxPageSize = 1000
)

// PullChangesInput represents the input for pulling changes.
type PullChangesInput struct {
	UserID uuid.UUID
	Token  string
	Limit  int
}

// PullChangesOutput represents the output of pulling changes.
type PullChangesOutput struct {
	Entities []entity.VersionedEntity
	Token    string
	HasMore  bool
}

// PullChangesUseCase handles reading the change feed of a user.
type PullChangesUseCase struct {
	syncRepo adapter.SyncRecordRepository
}

// NewPullChangesUseCase creates a new PullChangesUseCase instance.
func NewPullChangesUseCase(syncRepo adapter.SyncRecordRepository) *PullChangesUseCase {
	return &PullChangesUseCase{
		syncRepo: syncRepo,
	}
}

// Execute returns the changes after the token, oldest first, and the token
// to continue from. The token is returned unchanged when nothing is new.
func (uc *PullChangesUseCase) Execute(ctx context.Context, input PullChangesInput) (*PullChangesOutput, error) {
	after, err := DecodeToken(input.Token)
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	changes, err := uc.syncRepo.FindChangesSince(ctx, input.UserID, after, limit+1)
	if err != nil {
		return nil, err
	}

	output := &PullChangesOutput{Entities: make([]entity.VersionedEntity, 0, len(changes))}
	if len(changes) > limit {
		changes = changes[:limit]
		output.HasMore = true
	}
	last := after
	for _, c := range changes {
		output.Entities = append(output.Entities, c.Entity)
		last = c.Seq
	}
	output.Token = EncodeToken(last)
	return output, nil
}
