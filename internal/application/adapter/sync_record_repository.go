// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/lifeos/backend/internal/domain/entity"
)

// SyncChange is a stored versioned entity with its position in the user's
// change feed.
type SyncChange struct {
	Seq    int64
	Entity entity.VersionedEntity
}

// SyncRecordRepository defines the interface for the cloud copy of versioned entities.
type SyncRecordRepository interface {
	// FindChangesSince returns up to limit changes with a sequence above afterSeq, oldest first.
	FindChangesSince(ctx context.Context, userID uuid.UUID, afterSeq int64, limit int) ([]SyncChange, error)

	// Find retrieves one stored entity.
	Find(ctx context.Context, userID uuid.UUID, ref entity.EntityRef) (*entity.VersionedEntity, error)

	// SaveIfCurrent stores e when it was edited from the stored copy, see
	// entity.VersionedEntity.Follows. A repeat of the stored copy is accepted
	// without a write. It returns false and the stored copy otherwise.
	SaveIfCurrent(ctx context.Context, userID uuid.UUID, e entity.VersionedEntity) (bool, *entity.VersionedEntity, error)

	// DeleteByUser removes every record and the change feed of a user.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
