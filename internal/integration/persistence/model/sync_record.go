package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/lifeos/backend/internal/domain/entity"
)

// SyncRecordModel is the cloud copy of one versioned entity. Tombstones
// keep their row so that other devices can pull the deletion.
type SyncRecordModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sync_records_entity,priority:1;index:idx_sync_records_feed,priority:1"`
	EntityType string    `gorm:"type:varchar(40);not null;uniqueIndex:idx_sync_records_entity,priority:2"`
	EntityID   string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_sync_records_entity,priority:3"`
	Data       datatypes.JSON
	Version    int       `gorm:"not null"`
	DeviceID   string    `gorm:"type:varchar(100)"`
	ModifiedAt time.Time `gorm:"not null"`
	Deleted    bool      `gorm:"not null;default:false"`
	ChangeSeq  int64     `gorm:"not null;index:idx_sync_records_feed,priority:2"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for the SyncRecordModel.
func (SyncRecordModel) TableName() string {
	return "sync_records"
}

// ToEntity converts a SyncRecordModel to a versioned entity.
func (m *SyncRecordModel) ToEntity() entity.VersionedEntity {
	v := entity.VersionedEntity{
		EntityType: entity.EntityType(m.EntityType),
		ID:         m.EntityID,
		Version:    m.Version,
		DeviceID:   m.DeviceID,
		ModifiedAt: m.ModifiedAt.UTC(),
		Deleted:    m.Deleted,
	}
	if len(m.Data) > 0 && !m.Deleted {
		v.Data = json.RawMessage(m.Data)
	}
	return v
}

// Apply copies the versioned fields of e onto the model.
func (m *SyncRecordModel) Apply(e entity.VersionedEntity) {
	m.EntityType = string(e.EntityType)
	m.EntityID = e.ID
	m.Version = e.Version
	m.DeviceID = e.DeviceID
	m.ModifiedAt = e.ModifiedAt.UTC()
	m.Deleted = e.Deleted
	m.Data = nil
	if !e.Deleted && len(e.Data) > 0 {
		m.Data = datatypes.JSON(e.Data)
	}
}

// SyncCounterModel holds the last change sequence handed out per user.
type SyncCounterModel struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq    int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for the SyncCounterModel.
func (SyncCounterModel) TableName() string {
	return "sync_counters"
}
