package lifestore

import (
	"context"
	"sort"
	"time"

	"github.com/lifeos/backend/internal/application/validation"
	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
	"github.com/lifeos/backend/internal/domain/progression"
)

// HabitToggle is the result of toggling a habit day.
type HabitToggle struct {
	Habit     entity.Habit `json:"habit"`
	Date      string       `json:"date"`
	Completed bool         `json:"completed"`
	Reward    Reward       `json:"reward"`
}

// GetHabits returns every habit with streaks as of today.
func (s *Store) GetHabits(ctx context.Context) ([]entity.Habit, error) {
	habits, err := getAll[entity.Habit](ctx, s, entity.EntityTypeHabit)
	if err != nil {
		return nil, err
	}
	today := s.clock.Now().In(s.location)
	for i := range habits {
		progression.ApplyStreaks(&habits[i], today)
	}
	return habits, nil
}

// GetHabit returns one habit with streaks as of today.
func (s *Store) GetHabit(ctx context.Context, id string) (*entity.Habit, error) {
	h, err := getOne[entity.Habit](ctx, s, entity.EntityTypeHabit, id)
	if err != nil {
		return nil, err
	}
	progression.ApplyStreaks(h, s.clock.Now().In(s.location))
	return h, nil
}

// AddHabit creates a habit without entries.
func (s *Store) AddHabit(ctx context.Context, in validation.HabitCreate) (*entity.Habit, error) {
	return create(ctx, s, entity.EntityTypeHabit, in, func(t *tx) (entity.Habit, error) {
		if err := t.checkRefs(weakRef{"areaId", entity.EntityTypeLifeArea, in.AreaID}); err != nil {
			return entity.Habit{}, err
		}
		xp := progression.DefaultHabitXP
		if in.XPReward != nil {
			xp = *in.XPReward
		}
		h := entity.NewHabit(in.Title, entity.HabitFrequency(in.Frequency), in.TargetDays, xp, t.now)
		h.Description = in.Description
		h.EnergyImpact = in.EnergyImpact
		h.EnergyType = in.EnergyType
		h.AreaID = optionalID(in.AreaID)
		return *h, nil
	})
}

// UpdateHabit merges the non-nil fields of in and recomputes the streaks,
// since a schedule change moves them.
func (s *Store) UpdateHabit(ctx context.Context, id string, in validation.HabitUpdate) (*entity.Habit, error) {
	return modify(ctx, s, entity.EntityTypeHabit, id, in, func(t *tx, h *entity.Habit) error {
		if err := t.checkRefs(weakRef{"areaId", entity.EntityTypeLifeArea, in.AreaID}); err != nil {
			return err
		}
		if in.Title != nil {
			h.Title = *in.Title
		}
		if in.Description != nil {
			h.Description = *in.Description
		}
		if in.Frequency != nil {
			h.Frequency = entity.HabitFrequency(*in.Frequency)
		}
		if in.TargetDays != nil {
			h.TargetDays = *in.TargetDays
		}
		if h.Frequency == entity.HabitFrequencyDaily || len(h.TargetDays) == 0 {
			h.TargetDays = []int{0, 1, 2, 3, 4, 5, 6}
		}
		if in.EnergyImpact != nil {
			h.EnergyImpact = *in.EnergyImpact
		}
		if in.EnergyType != nil {
			h.EnergyType = *in.EnergyType
		}
		if in.XPReward != nil {
			h.XPReward = *in.XPReward
		}
		if in.AreaID != nil {
			h.AreaID = optionalID(in.AreaID)
		}
		progression.ApplyStreaks(h, t.localNow())
		h.UpdatedAt = t.now
		return nil
	})
}

// DeleteHabit removes a habit. Deleting an unknown id is a no-op.
func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	return destroy[entity.Habit](ctx, s, entity.EntityTypeHabit, id, nil)
}

// ToggleHabit flips the entry of date (today when empty). Completing a day
// pays the habit's XP and coins once per date. Future dates are refused.
func (s *Store) ToggleHabit(ctx context.Context, id string, in validation.HabitToggle) (*HabitToggle, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out HabitToggle
	_, err := modify(ctx, s, entity.EntityTypeHabit, id, nil, func(t *tx, h *entity.Habit) error {
		date := in.Date
		if date == "" {
			date = t.today()
		}
		if date > t.today() {
			return domainerror.NewProgressionError(
				domainerror.ErrCodeFutureDate,
				"cannot log habit "+id+" on "+date,
				domainerror.ErrFutureDate,
			)
		}

		entries := make([]entity.HabitEntry, len(h.Entries))
		copy(entries, h.Entries)
		h.Entries = entries

		entry := h.Entry(date)
		if entry == nil {
			h.Entries = append(h.Entries, entity.HabitEntry{Date: date})
			entry = &h.Entries[len(h.Entries)-1]
		}
		entry.Completed = !entry.Completed

		var reward Reward
		if entry.Completed && !entry.Rewarded {
			reward.XP = h.XPReward
			reward.Coins = progression.HabitCoinReward
			levels, err := t.rewardActivity(reward.XP, reward.Coins)
			if err != nil {
				return err
			}
			reward.LevelsGained = levels
			entry.Rewarded = true
			t.stats().HabitsCompleted++
		}
		completed := entry.Completed

		sort.Slice(h.Entries, func(i, j int) bool { return h.Entries[i].Date < h.Entries[j].Date })
		progression.ApplyStreaks(h, t.localNow())
		h.UpdatedAt = t.now

		out = HabitToggle{Habit: *h, Date: date, Completed: completed, Reward: reward}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// normalizeHabit recomputes derived habit fields, used when a habit arrives
// from outside the store.
func normalizeHabit(h *entity.Habit, today time.Time) {
	if h.Entries == nil {
		h.Entries = []entity.HabitEntry{}
	}
	sort.Slice(h.Entries, func(i, j int) bool { return h.Entries[i].Date < h.Entries[j].Date })
	progression.ApplyStreaks(h, today)
}
