package progression

import (
	"time"

	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
)

// NewStats returns a fresh stats record on the account curve.
func NewStats() *entity.Stats {
	return entity.NewStats(AccountCurve.XPToNext(1))
}

// AddXP adds XP to the account and levels up as many times as it pays for.
// It returns the number of levels gained.
func AddXP(s *entity.Stats, amount int) (int, error) {
	if amount <= 0 {
		return 0, domainerror.NewProgressionError(
			domainerror.ErrCodeInvalidAmount,
			"xp amount must be positive",
			domainerror.ErrInvalidAmount,
		)
	}
	p := AccountCurve.Apply(s.Level, s.XP, amount)
	s.Level = p.Level
	s.XP = p.XP
	s.XPToNext = p.XPToNext
	s.TotalXP += amount
	return p.LevelsGained, nil
}

// AddCoins credits coins and the lifetime earned counter.
func AddCoins(s *entity.Stats, amount int) error {
	if amount <= 0 {
		return domainerror.NewProgressionError(
			domainerror.ErrCodeInvalidAmount,
			"coin amount must be positive",
			domainerror.ErrInvalidAmount,
		)
	}
	s.Coins += amount
	s.CoinsEarned += amount
	return nil
}

// SpendCoins debits coins. The balance never goes negative.
func SpendCoins(s *entity.Stats, amount int) error {
	if amount <= 0 {
		return domainerror.NewProgressionError(
			domainerror.ErrCodeInvalidAmount,
			"coin amount must be positive",
			domainerror.ErrInvalidAmount,
		)
	}
	if amount > s.Coins {
		return domainerror.NewProgressionError(
			domainerror.ErrCodeInsufficientCoins,
			"not enough coins",
			domainerror.ErrInsufficientCoins,
		)
	}
	s.Coins -= amount
	s.CoinsSpent += amount
	return nil
}

// Reward grants XP and coins together. Zero parts are skipped.
func Reward(s *entity.Stats, xp, coins int) (int, error) {
	levels := 0
	if xp > 0 {
		var err error
		if levels, err = AddXP(s, xp); err != nil {
			return 0, err
		}
	}
	if coins > 0 {
		if err := AddCoins(s, coins); err != nil {
			return levels, err
		}
	}
	return levels, nil
}

// RecordActivity advances the daily activity streak for day (YYYY-MM-DD).
// Repeated activity on the same day is a no-op.
func RecordActivity(s *entity.Stats, day string) {
	if s.LastActiveDate == day {
		return
	}
	switch {
	case s.LastActiveDate != "" && isNextDay(s.LastActiveDate, day):
		s.CurrentStreak++
	case s.LastActiveDate != "" && day < s.LastActiveDate:
		// backdated activity does not move the streak
		return
	default:
		s.CurrentStreak = 1
	}
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastActiveDate = day
}

func isNextDay(prev, day string) bool {
	p, err := time.Parse(entity.DateLayout, prev)
	if err != nil {
		return false
	}
	return p.AddDate(0, 0, 1).Format(entity.DateLayout) == day
}
