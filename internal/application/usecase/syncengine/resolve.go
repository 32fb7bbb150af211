package syncengine

import (
	"context"
	"fmt"

	"github.com/lifeos/backend/internal/application/usecase/lifestore"
	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
)

// Resolve settles one conflict with strategy.
func (e *Engine) Resolve(ctx context.Context, conflictID string, strategy entity.ResolutionStrategy) error {
	n, err := e.resolve(ctx, strategy, func(c entity.Conflict) bool { return c.ID == conflictID })
	if err != nil {
		return err
	}
	if n == 0 {
		return domainerror.NewSyncError(
			domainerror.ErrCodeConflictNotFound,
			"conflict "+conflictID+" not found",
			domainerror.ErrConflictNotFound,
		)
	}
	return nil
}

// ResolveAll settles every open conflict with strategy and returns how many
// were settled.
func (e *Engine) ResolveAll(ctx context.Context, strategy entity.ResolutionStrategy) (int, error) {
	return e.resolve(ctx, strategy, func(entity.Conflict) bool { return true })
}

func (e *Engine) resolve(ctx context.Context, strategy entity.ResolutionStrategy, match func(entity.Conflict) bool) (int, error) {
	if !strategy.IsValid() {
		return 0, domainerror.NewSyncError(
			domainerror.ErrCodeInvalidStrategy,
			fmt.Sprintf("unknown resolution strategy %q", strategy),
			domainerror.ErrInvalidStrategy,
		)
	}

	state, err := e.store.SyncState(ctx)
	if err != nil {
		return 0, err
	}

	var resolutions []lifestore.Resolution
	for _, c := range state.Conflicts {
		if !match(c) {
			continue
		}
		local := c.Local
		if le, ok := state.Entities[c.Ref().Key()]; ok {
			local = le.Entity
		}
		r, err := e.settle(c, local, strategy)
		if err != nil {
			return 0, err
		}
		resolutions = append(resolutions, r)
	}
	if len(resolutions) == 0 {
		return 0, nil
	}

	if err := e.store.SettleConflicts(ctx, resolutions); err != nil {
		return 0, err
	}
	e.logger.Info("conflicts resolved", "count", len(resolutions), "strategy", strategy)

	if e.State() == StateConflict {
		remaining, err := e.store.Conflicts(ctx)
		if err == nil && len(remaining) == 0 {
			e.setState(StateIdle)
		}
	}
	return len(resolutions), nil
}

// settle computes the version that ends conflict c.
func (e *Engine) settle(c entity.Conflict, local entity.VersionedEntity, strategy entity.ResolutionStrategy) (lifestore.Resolution, error) {
	remote := c.Remote
	if strategy == entity.ResolveRemoteWins {
		return lifestore.Resolution{ConflictID: c.ID, Result: remote}, nil
	}

	result := entity.VersionedEntity{
		EntityType: c.EntityType,
		ID:         c.EntityID,
		Version:    max(local.Version, remote.Version) + 1,
		DeviceID:   e.store.DeviceID(),
		ModifiedAt: e.clock.Now().UTC(),
	}

	switch {
	case strategy == entity.ResolveLocalWins:
		result.Data = local.Data
		result.Deleted = local.Deleted
	case local.Deleted:
		// a deletion loses against an edit
		result.Data = remote.Data
	case remote.Deleted:
		result.Data = local.Data
	default:
		policy, ok := e.policies[c.EntityType]
		if !ok {
			policy = FieldMerge
		}
		merged, err := policy(local, remote)
		if err != nil {
			return lifestore.Resolution{}, domainerror.NewSyncError(
				domainerror.ErrCodeInvalidPayload,
				"failed to merge "+c.Ref().Key(),
				err,
			)
		}
		result.Data = merged
	}
	return lifestore.Resolution{ConflictID: c.ID, Result: result, Dirty: true}, nil
}
