package progression

import (
	"time"

	"github.com/lifeos/backend/internal/domain/entity"
)

// Streaks are the derived habit counters.
type Streaks struct {
	Current int
	Best    int
	Total   int
}

// HabitStreaks computes streaks from the habit's entries as of today.
//
// Only scheduled days count: every day for daily habits, TargetDays for
// weekly and custom ones. A non-scheduled day never breaks a chain. The
// current streak ends today, or at the last scheduled day before today when
// today has no completed entry yet.
func HabitStreaks(h *entity.Habit, today time.Time) Streaks {
	today = truncateDay(today)
	done := make(map[string]bool, len(h.Entries))
	var earliest time.Time
	total := 0
	for _, e := range h.Entries {
		if !e.Completed {
			continue
		}
		d, err := time.Parse(entity.DateLayout, e.Date)
		if err != nil || d.After(today) {
			continue
		}
		total++
		done[e.Date] = true
		if earliest.IsZero() || d.Before(earliest) {
			earliest = d
		}
	}
	if total == 0 {
		return Streaks{}
	}

	best, run := 0, 0
	for d := earliest; !d.After(today); d = d.AddDate(0, 0, 1) {
		if !h.IsScheduledOn(d.Weekday()) {
			continue
		}
		if done[d.Format(entity.DateLayout)] {
			run++
			if run > best {
				best = run
			}
		} else if d.Before(today) {
			run = 0
		}
	}

	current := 0
	d := today
	if !done[d.Format(entity.DateLayout)] || !h.IsScheduledOn(d.Weekday()) {
		d = previousScheduled(h, d)
	}
	for !d.Before(earliest) && done[d.Format(entity.DateLayout)] {
		current++
		d = previousScheduled(h, d)
	}

	return Streaks{Current: current, Best: best, Total: total}
}

// ApplyStreaks rewrites the habit's derived counters.
func ApplyStreaks(h *entity.Habit, today time.Time) {
	s := HabitStreaks(h, today)
	h.Streak = s.Current
	h.BestStreak = s.Best
	h.TotalCompletions = s.Total
}

func previousScheduled(h *entity.Habit, d time.Time) time.Time {
	for i := 0; i < 7; i++ {
		d = d.AddDate(0, 0, -1)
		if h.IsScheduledOn(d.Weekday()) {
			return d
		}
	}
	return d
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
