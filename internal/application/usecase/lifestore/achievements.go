package lifestore

import (
	"context"

	"github.com/lifeos/backend/internal/application/validation"
	"github.com/lifeos/backend/internal/domain/entity"
	"github.com/lifeos/backend/internal/domain/progression"
)

// GetAchievements returns every achievement, sealed time capsules included.
func (s *Store) GetAchievements(ctx context.Context) ([]entity.Achievement, error) {
	return getAll[entity.Achievement](ctx, s, entity.EntityTypeAchievement)
}

// GetAchievement returns one achievement.
func (s *Store) GetAchievement(ctx context.Context, id string) (*entity.Achievement, error) {
	return getOne[entity.Achievement](ctx, s, entity.EntityTypeAchievement, id)
}

// AddAchievement journals an achievement and pays XP by its type.
func (s *Store) AddAchievement(ctx context.Context, in validation.AchievementCreate) (*entity.Achievement, error) {
	return create(ctx, s, entity.EntityTypeAchievement, in, func(t *tx) (entity.Achievement, error) {
		date := in.Date
		if date == "" {
			date = t.today()
		}
		a := entity.NewAchievement(in.Title, entity.AchievementType(in.Type), date, t.now)
		a.Description = in.Description
		a.Category = in.Category
		a.Emotion = in.Emotion
		a.LessonLearned = in.LessonLearned
		a.Favorite = in.Favorite
		a.UnlockDate = in.UnlockDate
		a.XPAwarded = progression.AchievementXP(a.Type)

		if _, err := t.rewardActivity(a.XPAwarded, 0); err != nil {
			return entity.Achievement{}, err
		}
		t.stats().AchievementsEarned++
		return *a, nil
	})
}

// UpdateAchievement merges the non-nil fields of in.
func (s *Store) UpdateAchievement(ctx context.Context, id string, in validation.AchievementUpdate) (*entity.Achievement, error) {
	return modify(ctx, s, entity.EntityTypeAchievement, id, in, func(t *tx, a *entity.Achievement) error {
		if in.Title != nil {
			a.Title = *in.Title
		}
		if in.Description != nil {
			a.Description = *in.Description
		}
		if in.Category != nil {
			a.Category = *in.Category
		}
		if in.Emotion != nil {
			a.Emotion = *in.Emotion
		}
		if in.LessonLearned != nil {
			a.LessonLearned = *in.LessonLearned
		}
		if in.Date != nil {
			a.Date = *in.Date
		}
		if in.Favorite != nil {
			a.Favorite = *in.Favorite
		}
		if in.UnlockDate != nil {
			a.UnlockDate = *in.UnlockDate
		}
		a.UpdatedAt = t.now
		return nil
	})
}

// DeleteAchievement removes an achievement. Paid XP is kept.
func (s *Store) DeleteAchievement(ctx context.Context, id string) error {
	return destroy[entity.Achievement](ctx, s, entity.EntityTypeAchievement, id, nil)
}
