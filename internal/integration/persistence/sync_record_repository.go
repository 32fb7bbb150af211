// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lifeos/backend/internal/application/adapter"
	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
	"github.com/lifeos/backend/internal/integration/persistence/model"
)

// syncRecordRepository implements the adapter.SyncRecordRepository interface.
type syncRecordRepository struct {
	db *gorm.DB
}

// NewSyncRecordRepository creates a new sync record repository instance.
func NewSyncRecordRepository(db *gorm.DB) adapter.SyncRecordRepository {
	return &syncRecordRepository{
		db: db,
	}
}

// FindChangesSince returns up to limit changes with a sequence above afterSeq, oldest first.
func (r *syncRecordRepository) FindChangesSince(ctx context.Context, userID uuid.UUID, afterSeq int64, limit int) ([]adapter.SyncChange, error) {
	var rows []model.SyncRecordModel
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND change_seq > ?", userID, afterSeq).
		Order("change_seq ASC").
		Limit(limit).
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	changes := make([]adapter.SyncChange, len(rows))
	for i := range rows {
		changes[i] = adapter.SyncChange{Seq: rows[i].ChangeSeq, Entity: rows[i].ToEntity()}
	}
	return changes, nil
}

// Find retrieves one stored entity.
func (r *syncRecordRepository) Find(ctx context.Context, userID uuid.UUID, ref entity.EntityRef) (*entity.VersionedEntity, error) {
	var row model.SyncRecordModel
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND entity_type = ? AND entity_id = ?", userID, string(ref.Type), ref.ID).
		First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.ErrRecordNotFound
		}
		return nil, result.Error
	}
	v := row.ToEntity()
	return &v, nil
}

// SaveIfCurrent stores e when it follows the stored copy.
// The per-user counter row is bumped first, which serializes concurrent
// pushes of one user; a rejected write leaves a gap in the sequence.
func (r *syncRecordRepository) SaveIfCurrent(ctx context.Context, userID uuid.UUID, e entity.VersionedEntity) (bool, *entity.VersionedEntity, error) {
	var (
		accepted bool
		current  *entity.VersionedEntity
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := nextSeq(tx, userID)
		if err != nil {
			return err
		}

		var row model.SyncRecordModel
		result := tx.Where("user_id = ? AND entity_type = ? AND entity_id = ?", userID, string(e.EntityType), e.ID).
			First(&row)
		switch {
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			row = model.SyncRecordModel{ID: uuid.New(), UserID: userID, CreatedAt: time.Now().UTC()}
		case result.Error != nil:
			return result.Error
		default:
			stored := row.ToEntity()
			if e.Repeats(&stored) {
				accepted = true
				return nil
			}
			if !e.Follows(&stored) {
				current = &stored
				return nil
			}
		}

		row.Apply(e)
		row.ChangeSeq = seq
		row.UpdatedAt = time.Now().UTC()
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		accepted = true
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return accepted, current, nil
}

// DeleteByUser removes every record and the change feed of a user.
func (r *syncRecordRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.SyncRecordModel{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&model.SyncCounterModel{}).Error
	})
}

func nextSeq(tx *gorm.DB, userID uuid.UUID) (int64, error) {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.SyncCounterModel{UserID: userID}).Error; err != nil {
		return 0, err
	}
	if err := tx.Model(&model.SyncCounterModel{}).
		Where("user_id = ?", userID).
		UpdateColumn("seq", gorm.Expr("seq + ?", 1)).Error; err != nil {
		return 0, err
	}
	var counter model.SyncCounterModel
	if err := tx.Where("user_id = ?", userID).First(&counter).Error; err != nil {
		return 0, err
	}
	return counter.Seq, nil
}
