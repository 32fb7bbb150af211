package lifestore

import (
	"context"

	"github.com/lifeos/backend/internal/application/validation"
	"github.com/lifeos/backend/internal/domain/entity"
	"github.com/lifeos/backend/internal/domain/progression"
)

// StatsView is the stats singleton with its display tier.
type StatsView struct {
	entity.Stats
	Tier string `json:"tier"`
}

// GetIdentity returns the identity, creating it with defaults on first
// access. The default is not versioned, so a device joining sync adopts
// the identity already in the cloud.
func (s *Store) GetIdentity(ctx context.Context) (*entity.Identity, error) {
	var out *entity.Identity
	err := s.view(ctx, func(t *tx) error {
		out = t.identity()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out != nil {
		return out, nil
	}

	err = s.mutate(ctx, SourceLocal, func(t *tx) error {
		out = t.identity()
		if out == nil {
			out = entity.NewIdentity(t.now)
			t.setIdentity(out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateIdentity merges the non-nil fields of in.
func (s *Store) UpdateIdentity(ctx context.Context, in validation.IdentityUpdate) (*entity.Identity, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out entity.Identity
	err := s.mutate(ctx, SourceLocal, func(t *tx) error {
		id := entity.NewIdentity(t.now)
		if current := t.identity(); current != nil {
			id = current
		}
		next := *id
		if in.Name != nil {
			next.Name = *in.Name
		}
		if in.Vision != nil {
			next.Vision = *in.Vision
		}
		if in.Mission != nil {
			next.Mission = *in.Mission
		}
		if in.Values != nil {
			next.Values = *in.Values
		}
		next.UpdatedAt = t.now
		t.setIdentity(&next)
		t.touch(entity.EntityTypeIdentity, entity.IdentityID, false)
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStats returns the progression stats.
func (s *Store) GetStats(ctx context.Context) (*StatsView, error) {
	var out StatsView
	err := s.view(ctx, func(t *tx) error {
		out.Stats = *t.stats()
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Tier = progression.AccountTier(out.Level).Name
	return &out, nil
}

// AddXP grants account XP outside of the built-in rewards.
func (s *Store) AddXP(ctx context.Context, in validation.CoinAmount) (*StatsView, error) {
	return s.changeStats(ctx, in, func(st *entity.Stats) error {
		_, err := progression.AddXP(st, in.Amount)
		return err
	})
}

// AddCoins grants coins.
func (s *Store) AddCoins(ctx context.Context, in validation.CoinAmount) (*StatsView, error) {
	return s.changeStats(ctx, in, func(st *entity.Stats) error {
		return progression.AddCoins(st, in.Amount)
	})
}

// SpendCoins spends coins. It fails without change when the balance is short.
func (s *Store) SpendCoins(ctx context.Context, in validation.CoinAmount) (*StatsView, error) {
	return s.changeStats(ctx, in, func(st *entity.Stats) error {
		return progression.SpendCoins(st, in.Amount)
	})
}

func (s *Store) changeStats(ctx context.Context, in validation.CoinAmount, fn func(st *entity.Stats) error) (*StatsView, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out StatsView
	err := s.mutate(ctx, SourceLocal, func(t *tx) error {
		st := *t.stats()
		if err := fn(&st); err != nil {
			return err
		}
		t.cache[keyStats] = &st
		t.statsChanged()
		out.Stats = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Tier = progression.AccountTier(out.Level).Name
	return &out, nil
}
