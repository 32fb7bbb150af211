package lifestore

import (
	"context"

	"github.com/lifeos/backend/internal/application/validation"
	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
	"github.com/lifeos/backend/internal/domain/progression"
)

// GoalChange is the result of a goal mutation that may complete it.
type GoalChange struct {
	Goal   entity.Goal `json:"goal"`
	Reward Reward      `json:"reward"`
}

// GetGoals returns every goal.
func (s *Store) GetGoals(ctx context.Context) ([]entity.Goal, error) {
	return getAll[entity.Goal](ctx, s, entity.EntityTypeGoal)
}

// GetGoal returns one goal.
func (s *Store) GetGoal(ctx context.Context, id string) (*entity.Goal, error) {
	return getOne[entity.Goal](ctx, s, entity.EntityTypeGoal, id)
}

// AddGoal creates a goal. A goal created at 100% progress is completed at once.
func (s *Store) AddGoal(ctx context.Context, in validation.GoalCreate) (*entity.Goal, error) {
	return create(ctx, s, entity.EntityTypeGoal, in, func(t *tx) (entity.Goal, error) {
		if err := t.checkRefs(weakRef{"areaId", entity.EntityTypeLifeArea, in.AreaID}); err != nil {
			return entity.Goal{}, err
		}
		priority := 0
		if in.Priority != nil {
			priority = *in.Priority
		}
		g := entity.NewGoal(in.Title, entity.GoalType(in.Type), priority, t.now)
		g.Description = in.Description
		g.AreaID = optionalID(in.AreaID)
		g.TargetDate = in.TargetDate
		if in.Status != "" {
			g.Status = entity.GoalStatus(in.Status)
		}
		for _, m := range in.Milestones {
			g.Milestones = append(g.Milestones, t.newMilestone(m))
		}
		if in.Progress != nil {
			g.Progress = *in.Progress
		}
		if _, err := t.settleGoal(g); err != nil {
			return entity.Goal{}, err
		}
		return *g, nil
	})
}

// UpdateGoal merges the non-nil fields of in. Reaching 100% progress
// completes the goal and stamps completedAt in the same update.
func (s *Store) UpdateGoal(ctx context.Context, id string, in validation.GoalUpdate) (*GoalChange, error) {
	var reward Reward
	g, err := modify(ctx, s, entity.EntityTypeGoal, id, in, func(t *tx, g *entity.Goal) error {
		if err := t.checkRefs(weakRef{"areaId", entity.EntityTypeLifeArea, in.AreaID}); err != nil {
			return err
		}
		if in.Title != nil {
			g.Title = *in.Title
		}
		if in.Description != nil {
			g.Description = *in.Description
		}
		if in.AreaID != nil {
			g.AreaID = optionalID(in.AreaID)
		}
		if in.Type != nil {
			g.Type = entity.GoalType(*in.Type)
		}
		if in.Priority != nil {
			g.Priority = *in.Priority
		}
		if in.TargetDate != nil {
			g.TargetDate = *in.TargetDate
		}
		if in.Milestones != nil {
			milestones := make([]entity.Milestone, 0, len(*in.Milestones))
			for _, m := range *in.Milestones {
				milestones = append(milestones, t.newMilestone(m))
			}
			g.Milestones = milestones
		}
		if in.Status != nil {
			g.Status = entity.GoalStatus(*in.Status)
			if g.Status == entity.GoalStatusCompleted && in.Progress == nil {
				g.Progress = 100
			}
		}
		if in.Progress != nil {
			g.Progress = *in.Progress
		}
		var err error
		reward, err = t.settleGoal(g)
		g.UpdatedAt = t.now
		return err
	})
	if err != nil {
		return nil, err
	}
	return &GoalChange{Goal: *g, Reward: reward}, nil
}

// DeleteGoal removes a goal and clears the goal link of its tasks.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	return destroy(ctx, s, entity.EntityTypeGoal, id, func(t *tx, g entity.Goal) error {
		t.nullifyReferences(entity.EntityTypeGoal, g.ID)
		return nil
	})
}

// UpdateGoalProgress sets the progress percentage of an active goal.
func (s *Store) UpdateGoalProgress(ctx context.Context, id string, in validation.GoalProgress) (*GoalChange, error) {
	var reward Reward
	g, err := modify(ctx, s, entity.EntityTypeGoal, id, in, func(t *tx, g *entity.Goal) error {
		if err := checkNotArchived(g); err != nil {
			return err
		}
		g.Progress = in.Progress
		var err error
		reward, err = t.settleGoal(g)
		g.UpdatedAt = t.now
		return err
	})
	if err != nil {
		return nil, err
	}
	return &GoalChange{Goal: *g, Reward: reward}, nil
}

// ToggleMilestone flips a milestone. Progress follows the share of
// completed milestones, so completing the last one completes the goal.
func (s *Store) ToggleMilestone(ctx context.Context, goalID, milestoneID string) (*GoalChange, error) {
	var reward Reward
	g, err := modify(ctx, s, entity.EntityTypeGoal, goalID, nil, func(t *tx, g *entity.Goal) error {
		if err := checkNotArchived(g); err != nil {
			return err
		}
		milestones := make([]entity.Milestone, len(g.Milestones))
		copy(milestones, g.Milestones)
		g.Milestones = milestones

		found := false
		for i := range g.Milestones {
			m := &g.Milestones[i]
			if m.ID != milestoneID {
				continue
			}
			found = true
			m.Completed = !m.Completed
			if m.Completed {
				at := t.now
				m.CompletedAt = &at
			} else {
				m.CompletedAt = nil
			}
		}
		if !found {
			return domainerror.NewGoalError(
				domainerror.ErrCodeMilestoneNotFound,
				"milestone "+milestoneID+" not found in goal "+goalID,
				domainerror.ErrMilestoneNotFound,
			)
		}

		g.Progress = progression.MilestoneProgress(g)
		var err error
		reward, err = t.settleGoal(g)
		g.UpdatedAt = t.now
		return err
	})
	if err != nil {
		return nil, err
	}
	return &GoalChange{Goal: *g, Reward: reward}, nil
}

func (t *tx) newMilestone(in validation.MilestoneInput) entity.Milestone {
	m := entity.NewMilestone(in.Title)
	if in.Completed {
		at := t.now
		m.Completed = true
		m.CompletedAt = &at
	}
	return m
}

// settleGoal enforces the progress/status rule and pays the completion
// reward the first time the goal completes.
func (t *tx) settleGoal(g *entity.Goal) (Reward, error) {
	var reward Reward
	progression.SetGoalProgress(g, g.Progress, t.now)
	if g.Status != entity.GoalStatusCompleted || g.XPAwarded {
		return reward, nil
	}
	reward.XP = progression.GoalCompletionXP
	reward.Coins = progression.GoalCompletionCoins
	levels, err := t.rewardActivity(reward.XP, reward.Coins)
	if err != nil {
		return Reward{}, err
	}
	reward.LevelsGained = levels
	g.XPAwarded = true
	t.stats().GoalsCompleted++
	return reward, nil
}

func checkNotArchived(g *entity.Goal) error {
	if g.Status != entity.GoalStatusArchived {
		return nil
	}
	return domainerror.NewGoalError(
		domainerror.ErrCodeGoalArchived,
		"goal "+g.ID+" is archived",
		domainerror.ErrGoalArchived,
	)
}
