package lifestore

import (
	"context"

	"github.com/lifeos/backend/internal/application/validation"
	"github.com/lifeos/backend/internal/domain/entity"
)

// GetLifeAreas returns every life area.
func (s *Store) GetLifeAreas(ctx context.Context) ([]entity.LifeArea, error) {
	return getAll[entity.LifeArea](ctx, s, entity.EntityTypeLifeArea)
}

// GetLifeArea returns one life area.
func (s *Store) GetLifeArea(ctx context.Context, id string) (*entity.LifeArea, error) {
	return getOne[entity.LifeArea](ctx, s, entity.EntityTypeLifeArea, id)
}

// AddLifeArea creates an active life area.
func (s *Store) AddLifeArea(ctx context.Context, in validation.LifeAreaCreate) (*entity.LifeArea, error) {
	return create(ctx, s, entity.EntityTypeLifeArea, in, func(t *tx) (entity.LifeArea, error) {
		a := entity.NewLifeArea(in.Name, in.Color, t.now)
		a.Vision = in.Vision
		a.Icon = in.Icon
		if in.Importance != nil {
			a.Importance = *in.Importance
		}
		if in.CurrentLevel != nil {
			a.CurrentLevel = *in.CurrentLevel
		}
		if in.TargetLevel != nil {
			a.TargetLevel = *in.TargetLevel
		}
		if in.Active != nil {
			a.Active = *in.Active
		}
		return *a, nil
	})
}

// UpdateLifeArea merges the non-nil fields of in. The merged levels must
// keep targetLevel at or above currentLevel.
func (s *Store) UpdateLifeArea(ctx context.Context, id string, in validation.LifeAreaUpdate) (*entity.LifeArea, error) {
	return modify(ctx, s, entity.EntityTypeLifeArea, id, in, func(t *tx, a *entity.LifeArea) error {
		if in.Name != nil {
			a.Name = *in.Name
		}
		if in.Vision != nil {
			a.Vision = *in.Vision
		}
		if in.Color != nil {
			a.Color = *in.Color
		}
		if in.Icon != nil {
			a.Icon = *in.Icon
		}
		if in.Importance != nil {
			a.Importance = *in.Importance
		}
		if in.CurrentLevel != nil {
			a.CurrentLevel = *in.CurrentLevel
		}
		if in.TargetLevel != nil {
			a.TargetLevel = *in.TargetLevel
		}
		if in.Active != nil {
			a.Active = *in.Active
		}
		if err := validation.AreaLevels(a.CurrentLevel, a.TargetLevel); err != nil {
			return err
		}
		a.UpdatedAt = t.now
		return nil
	})
}

// DeleteLifeArea removes a life area and clears the area link of tasks,
// goals and habits.
func (s *Store) DeleteLifeArea(ctx context.Context, id string) error {
	return destroy(ctx, s, entity.EntityTypeLifeArea, id, func(t *tx, a entity.LifeArea) error {
		t.nullifyReferences(entity.EntityTypeLifeArea, a.ID)
		return nil
	})
}
