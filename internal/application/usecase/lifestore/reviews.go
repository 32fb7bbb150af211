package lifestore

import (
	"context"

	"github.com/lifeos/backend/internal/application/validation"
	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
	"github.com/lifeos/backend/internal/domain/progression"
)

// ReviewSubmission is the result of submitting a daily review.
type ReviewSubmission struct {
	Review entity.DailyReview `json:"review"`
	Reward Reward             `json:"reward"`
}

// GetDailyReviews returns every daily review.
func (s *Store) GetDailyReviews(ctx context.Context) ([]entity.DailyReview, error) {
	return getAll[entity.DailyReview](ctx, s, entity.EntityTypeDailyReview)
}

// GetDailyReview returns one daily review.
func (s *Store) GetDailyReview(ctx context.Context, id string) (*entity.DailyReview, error) {
	return getOne[entity.DailyReview](ctx, s, entity.EntityTypeDailyReview, id)
}

// SubmitDailyReview records the review of a day. There is at most one
// review per date, and each date pays its reward once.
func (s *Store) SubmitDailyReview(ctx context.Context, in validation.DailyReviewCreate) (*ReviewSubmission, error) {
	var reward Reward
	r, err := create(ctx, s, entity.EntityTypeDailyReview, in, func(t *tx) (entity.DailyReview, error) {
		reward = Reward{}
		if in.Date > t.today() {
			return entity.DailyReview{}, domainerror.NewProgressionError(
				domainerror.ErrCodeFutureDate,
				"cannot review "+in.Date+" before it happened",
				domainerror.ErrFutureDate,
			)
		}
		for _, existing := range list[entity.DailyReview](t, entity.EntityTypeDailyReview) {
			if existing.Date == in.Date {
				return entity.DailyReview{}, domainerror.NewProgressionError(
					domainerror.ErrCodeReviewAlreadySubmitted,
					"a review for "+in.Date+" already exists",
					domainerror.ErrReviewAlreadySubmitted,
				)
			}
		}

		r := entity.NewDailyReview(in.Date, in.Mood, in.Energy, t.now)
		r.Wins = in.Wins
		r.Lessons = in.Lessons
		r.TomorrowFocus = in.TomorrowFocus

		st := t.stats()
		if !containsDate(st.RewardedReviews, in.Date) {
			reward.XP = progression.ReviewXP
			reward.Coins = progression.ReviewCoins
			levels, err := t.rewardActivity(reward.XP, reward.Coins)
			if err != nil {
				return entity.DailyReview{}, err
			}
			reward.LevelsGained = levels
			st.RewardedReviews = append(append([]string(nil), st.RewardedReviews...), in.Date)
		}
		st.ReviewsSubmitted++
		t.statsChanged()
		return *r, nil
	})
	if err != nil {
		return nil, err
	}
	return &ReviewSubmission{Review: *r, Reward: reward}, nil
}

// UpdateDailyReview merges the non-nil fields of in.
func (s *Store) UpdateDailyReview(ctx context.Context, id string, in validation.DailyReviewUpdate) (*entity.DailyReview, error) {
	return modify(ctx, s, entity.EntityTypeDailyReview, id, in, func(t *tx, r *entity.DailyReview) error {
		if in.Mood != nil {
			r.Mood = *in.Mood
		}
		if in.Energy != nil {
			r.Energy = *in.Energy
		}
		if in.Wins != nil {
			r.Wins = *in.Wins
		}
		if in.Lessons != nil {
			r.Lessons = *in.Lessons
		}
		if in.TomorrowFocus != nil {
			r.TomorrowFocus = *in.TomorrowFocus
		}
		r.UpdatedAt = t.now
		return nil
	})
}

// DeleteDailyReview removes a daily review.
func (s *Store) DeleteDailyReview(ctx context.Context, id string) error {
	return destroy[entity.DailyReview](ctx, s, entity.EntityTypeDailyReview, id, nil)
}

func containsDate(dates []string, date string) bool {
	for _, d := range dates {
		if d == date {
			return true
		}
	}
	return false
}
