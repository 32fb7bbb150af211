package lifestore

import (
	"context"

	"github.com/lifeos/backend/internal/application/validation"
	"github.com/lifeos/backend/internal/domain/entity"
	"github.com/lifeos/backend/internal/domain/progression"
)

// SkillPractice is the result of logging a practice session.
type SkillPractice struct {
	Skill        entity.Skill         `json:"skill"`
	LevelsGained int                  `json:"levelsGained"`
	Tier         string               `json:"tier"`
	Certificates []entity.Certificate `json:"certificates"`
}

// GetSkills returns every skill.
func (s *Store) GetSkills(ctx context.Context) ([]entity.Skill, error) {
	return getAll[entity.Skill](ctx, s, entity.EntityTypeSkill)
}

// GetSkill returns one skill.
func (s *Store) GetSkill(ctx context.Context, id string) (*entity.Skill, error) {
	return getOne[entity.Skill](ctx, s, entity.EntityTypeSkill, id)
}

// AddSkill creates a level 1 skill.
func (s *Store) AddSkill(ctx context.Context, in validation.SkillCreate) (*entity.Skill, error) {
	return create(ctx, s, entity.EntityTypeSkill, in, func(t *tx) (entity.Skill, error) {
		sk := progression.NewSkill(in.Name, in.Category, t.now)
		sk.Icon = in.Icon
		sk.Color = in.Color
		return *sk, nil
	})
}

// UpdateSkill merges the non-nil fields of in.
func (s *Store) UpdateSkill(ctx context.Context, id string, in validation.SkillUpdate) (*entity.Skill, error) {
	return modify(ctx, s, entity.EntityTypeSkill, id, in, func(t *tx, sk *entity.Skill) error {
		if in.Name != nil {
			sk.Name = *in.Name
		}
		if in.Category != nil {
			sk.Category = *in.Category
		}
		if in.Icon != nil {
			sk.Icon = *in.Icon
		}
		if in.Color != nil {
			sk.Color = *in.Color
		}
		sk.UpdatedAt = t.now
		return nil
	})
}

// DeleteSkill removes a skill. Deleting an unknown id is a no-op.
func (s *Store) DeleteSkill(ctx context.Context, id string) error {
	return destroy[entity.Skill](ctx, s, entity.EntityTypeSkill, id, nil)
}

// PracticeSkill logs a session on the skill curve. The account level is
// not affected.
func (s *Store) PracticeSkill(ctx context.Context, id string, in validation.SkillPractice) (*SkillPractice, error) {
	var out SkillPractice
	sk, err := modify(ctx, s, entity.EntityTypeSkill, id, in, func(t *tx, sk *entity.Skill) error {
		activities := make([]entity.SkillActivity, len(sk.Activities), len(sk.Activities)+1)
		copy(activities, sk.Activities)
		sk.Activities = activities

		levels, certs := progression.PracticeSkill(sk, in.XP, in.Note, t.now)
		sk.UpdatedAt = t.now
		out.LevelsGained = levels
		out.Certificates = certs
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Skill = *sk
	out.Tier = progression.SkillTier(sk.Level).Name
	if out.Certificates == nil {
		out.Certificates = []entity.Certificate{}
	}
	return &out, nil
}

// RefreshSkillDecay flags skills left unpractised for too long and clears
// the flag on the others. It returns how many skills changed.
func (s *Store) RefreshSkillDecay(ctx context.Context) (int, error) {
	changed := 0
	err := s.mutate(ctx, SourceLocal, func(t *tx) error {
		changed = 0
		skills := list[entity.Skill](t, entity.EntityTypeSkill)
		next := make([]entity.Skill, len(skills))
		copy(next, skills)
		for i := range next {
			if progression.RefreshDecay(&next[i], t.now) {
				next[i].UpdatedAt = t.now
				t.touch(entity.EntityTypeSkill, next[i].ID, false)
				changed++
			}
		}
		if changed > 0 {
			setList(t, entity.EntityTypeSkill, next)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
