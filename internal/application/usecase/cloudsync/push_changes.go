package cloudsync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/lifeos/backend/internal/application/adapter"
	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
)

// MaxPushSize caps the entities accepted in one push.
const MaxPushSize = 1000

// PushChangesInput represents the input for pushing changes.
type PushChangesInput struct {
	UserID   uuid.UUID
	Entities []entity.VersionedEntity
}

// PushChangesOutput represents the output of pushing changes.
type PushChangesOutput struct {
	Accepted []entity.EntityRef
	Rejected []adapter.Rejection
}

// PushChangesUseCase handles storing versions offered by a device.
type PushChangesUseCase struct {
	syncRepo adapter.SyncRecordRepository
}

// NewPushChangesUseCase creates a new PushChangesUseCase instance.
func NewPushChangesUseCase(syncRepo adapter.SyncRecordRepository) *PushChangesUseCase {
	return &PushChangesUseCase{
		syncRepo: syncRepo,
	}
}

// Execute stores every entity that was edited from the stored copy. Any
// other version is rejected together with the stored copy, so the device
// records a conflict. A malformed entity fails the whole push before
// anything is written.
func (uc *PushChangesUseCase) Execute(ctx context.Context, input PushChangesInput) (*PushChangesOutput, error) {
	if len(input.Entities) > MaxPushSize {
		return nil, invalidPayload(fmt.Sprintf("at most %d entities per push", MaxPushSize))
	}
	for i, e := range input.Entities {
		if err := checkEntity(e); err != nil {
			return nil, invalidPayload(fmt.Sprintf("entity %d: %s", i, err))
		}
	}

	output := &PushChangesOutput{
		Accepted: make([]entity.EntityRef, 0, len(input.Entities)),
		Rejected: make([]adapter.Rejection, 0),
	}
	for _, e := range input.Entities {
		accepted, current, err := uc.syncRepo.SaveIfCurrent(ctx, input.UserID, e)
		if err != nil {
			return nil, err
		}
		if accepted {
			output.Accepted = append(output.Accepted, e.Ref())
			continue
		}
		output.Rejected = append(output.Rejected, adapter.Rejection{Ref: e.Ref(), Current: current})
	}
	return output, nil
}

func checkEntity(e entity.VersionedEntity) error {
	switch {
	case !e.EntityType.IsSynced():
		return fmt.Errorf("entity type %q is not synced", e.EntityType)
	case e.ID == "":
		return fmt.Errorf("id is required")
	case e.Version < 1:
		return fmt.Errorf("version must be positive")
	case e.BaseVersion < 0:
		return fmt.Errorf("base version must not be negative")
	case e.Deleted:
		return nil
	case len(e.Data) == 0 || !json.Valid(e.Data):
		return fmt.Errorf("data must be a JSON document")
	}
	return nil
}

func invalidPayload(message string) error {
	return domainerror.NewSyncError(domainerror.ErrCodeInvalidPayload, message, nil)
}
