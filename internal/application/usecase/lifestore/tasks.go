package lifestore

import (
	"context"

	"github.com/lifeos/backend/internal/application/validation"
	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
	"github.com/lifeos/backend/internal/domain/progression"
)

// TaskCompletion is the result of completing a task.
type TaskCompletion struct {
	Task   entity.Task `json:"task"`
	Reward Reward      `json:"reward"`
}

// GetTasks returns every task.
func (s *Store) GetTasks(ctx context.Context) ([]entity.Task, error) {
	return getAll[entity.Task](ctx, s, entity.EntityTypeTask)
}

// GetTask returns one task.
func (s *Store) GetTask(ctx context.Context, id string) (*entity.Task, error) {
	return getOne[entity.Task](ctx, s, entity.EntityTypeTask, id)
}

// AddTask creates a todo task.
func (s *Store) AddTask(ctx context.Context, in validation.TaskCreate) (*entity.Task, error) {
	return create(ctx, s, entity.EntityTypeTask, in, func(t *tx) (entity.Task, error) {
		if err := t.checkRefs(
			weakRef{"goalId", entity.EntityTypeGoal, in.GoalID},
			weakRef{"areaId", entity.EntityTypeLifeArea, in.AreaID},
		); err != nil {
			return entity.Task{}, err
		}
		task := entity.NewTask(in.Title, entity.TaskPriority(in.Priority), t.now)
		task.Description = in.Description
		task.GoalID = optionalID(in.GoalID)
		task.AreaID = optionalID(in.AreaID)
		task.ScheduledDate = in.ScheduledDate
		task.EnergyCost = in.EnergyCost
		task.EnergyType = in.EnergyType
		task.Duration = in.Duration
		task.Tags = in.Tags
		return *task, nil
	})
}

// UpdateTask merges the non-nil fields of in. A status change goes through
// the same rules as CompleteTask and RestoreTask.
func (s *Store) UpdateTask(ctx context.Context, id string, in validation.TaskUpdate) (*entity.Task, error) {
	return modify(ctx, s, entity.EntityTypeTask, id, in, func(t *tx, task *entity.Task) error {
		if err := t.checkRefs(
			weakRef{"goalId", entity.EntityTypeGoal, in.GoalID},
			weakRef{"areaId", entity.EntityTypeLifeArea, in.AreaID},
		); err != nil {
			return err
		}
		if in.Title != nil {
			task.Title = *in.Title
		}
		if in.Description != nil {
			task.Description = *in.Description
		}
		if in.GoalID != nil {
			task.GoalID = optionalID(in.GoalID)
		}
		if in.AreaID != nil {
			task.AreaID = optionalID(in.AreaID)
		}
		if in.ScheduledDate != nil {
			task.ScheduledDate = *in.ScheduledDate
		}
		if in.Priority != nil {
			task.Priority = entity.TaskPriority(*in.Priority)
		}
		if in.EnergyCost != nil {
			task.EnergyCost = *in.EnergyCost
		}
		if in.EnergyType != nil {
			task.EnergyType = *in.EnergyType
		}
		if in.Duration != nil {
			task.Duration = in.Duration
		}
		if in.Tags != nil {
			task.Tags = *in.Tags
		}
		if in.Status != nil {
			if _, err := t.setTaskStatus(task, entity.TaskStatus(*in.Status)); err != nil {
				return err
			}
		}
		task.UpdatedAt = t.now
		return nil
	})
}

// DeleteTask removes a task. Deleting an unknown id is a no-op.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return destroy[entity.Task](ctx, s, entity.EntityTypeTask, id, nil)
}

// CompleteTask moves a task to completed. XP and coins by priority are paid
// the first time a task is completed.
func (s *Store) CompleteTask(ctx context.Context, id string) (*TaskCompletion, error) {
	var reward Reward
	task, err := modify(ctx, s, entity.EntityTypeTask, id, nil, func(t *tx, task *entity.Task) error {
		if task.Status == entity.TaskStatusCompleted {
			return domainerror.NewProgressionError(
				domainerror.ErrCodeTaskAlreadyCompleted,
				"task "+id+" is already completed",
				domainerror.ErrTaskAlreadyCompleted,
			)
		}
		var err error
		reward, err = t.setTaskStatus(task, entity.TaskStatusCompleted)
		task.UpdatedAt = t.now
		return err
	})
	if err != nil {
		return nil, err
	}
	return &TaskCompletion{Task: *task, Reward: reward}, nil
}

// RestoreTask moves a completed or cancelled task back to todo. XP already
// paid is kept and not paid again.
func (s *Store) RestoreTask(ctx context.Context, id string) (*entity.Task, error) {
	return modify(ctx, s, entity.EntityTypeTask, id, nil, func(t *tx, task *entity.Task) error {
		if task.Status == entity.TaskStatusTodo {
			return domainerror.NewProgressionError(
				domainerror.ErrCodeTaskNotRestorable,
				"task "+id+" is not completed or cancelled",
				domainerror.ErrTaskNotRestorable,
			)
		}
		if _, err := t.setTaskStatus(task, entity.TaskStatusTodo); err != nil {
			return err
		}
		task.UpdatedAt = t.now
		return nil
	})
}

func (t *tx) setTaskStatus(task *entity.Task, status entity.TaskStatus) (Reward, error) {
	var reward Reward
	if task.Status == status {
		return reward, nil
	}
	task.Status = status
	if status != entity.TaskStatusCompleted {
		task.CompletedAt = nil
		return reward, nil
	}

	completedAt := t.now
	task.CompletedAt = &completedAt
	if task.XPAwarded {
		return reward, nil
	}

	reward.XP = progression.TaskXP(task.Priority)
	reward.Coins = progression.TaskCoins(task.Priority)
	levels, err := t.rewardActivity(reward.XP, reward.Coins)
	if err != nil {
		return Reward{}, err
	}
	reward.LevelsGained = levels
	task.XPAwarded = true
	t.stats().TasksCompleted++
	return reward, nil
}
