package progression

import (
	"errors"
	"testing"
	"time"

	"github.com/lifeos/backend/internal/domain/entity"
	domainerror "github.com/lifeos/backend/internal/domain/error"
)

func TestCurvesAreStrictlyIncreasing(t *testing.T) {
	for name, c := range map[string]Curve{"account": AccountCurve, "skill": SkillCurve} {
		t.Run(name, func(t *testing.T) {
			prev := 0
			for level := 1; level <= 200; level++ {
				got := c.XPToNext(level)
				if got <= prev {
					t.Fatalf("XPToNext(%d)=%d, want > %d", level, got, prev)
				}
				prev = got
			}
		})
	}
	if AccountCurve.XPToNext(3) == SkillCurve.XPToNext(3) {
		t.Fatal("account and skill curves should differ")
	}
}

func TestAddXPFreshStatsLevelsUp(t *testing.T) {
	s := NewStats()
	if s.Level != 1 || s.XPToNext != 1000 {
		t.Fatalf("fresh stats = level %d xpToNext %d, want 1 and 1000", s.Level, s.XPToNext)
	}

	levels, err := AddXP(s, 1000)
	if err != nil {
		t.Fatalf("AddXP: %v", err)
	}
	if levels != 1 || s.Level != 2 || s.XP != 0 {
		t.Fatalf("after AddXP(1000): levels=%d level=%d xp=%d, want 1, 2, 0", levels, s.Level, s.XP)
	}
	if s.XPToNext <= 1000 {
		t.Fatalf("xpToNext=%d, want larger threshold after level up", s.XPToNext)
	}
}

func TestAddXPIsAssociative(t *testing.T) {
	amounts := [][2]int{{1, 1}, {999, 1}, {400, 700}, {5000, 12345}, {1, 250000}, {2828, 2829}}
	for _, pair := range amounts {
		a, b := pair[0], pair[1]

		split := NewStats()
		if _, err := AddXP(split, a); err != nil {
			t.Fatal(err)
		}
		if _, err := AddXP(split, b); err != nil {
			t.Fatal(err)
		}

		joined := NewStats()
		if _, err := AddXP(joined, a+b); err != nil {
			t.Fatal(err)
		}

		if split.Level != joined.Level || split.XP != joined.XP || split.TotalXP != joined.TotalXP {
			t.Errorf("AddXP(%d)+AddXP(%d) = (L%d, %d), AddXP(%d) = (L%d, %d)",
				a, b, split.Level, split.XP, a+b, joined.Level, joined.XP)
		}
	}
}

func TestAddXPMultiLevelJump(t *testing.T) {
	s := NewStats()
	total := AccountCurve.TotalXPForLevel(5) + 10
	levels, err := AddXP(s, total)
	if err != nil {
		t.Fatal(err)
	}
	if s.Level != 5 || s.XP != 10 || levels != 4 {
		t.Fatalf("level=%d xp=%d gained=%d, want 5, 10, 4", s.Level, s.XP, levels)
	}
}

func TestAddXPRejectsNonPositive(t *testing.T) {
	s := NewStats()
	if _, err := AddXP(s, 0); !errors.Is(err, domainerror.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestCoins(t *testing.T) {
	s := NewStats()
	if err := AddCoins(s, 30); err != nil {
		t.Fatal(err)
	}
	if err := SpendCoins(s, 20); err != nil {
		t.Fatal(err)
	}
	if s.Coins != 10 || s.CoinsEarned != 30 || s.CoinsSpent != 20 {
		t.Fatalf("coins=%d earned=%d spent=%d", s.Coins, s.CoinsEarned, s.CoinsSpent)
	}

	err := SpendCoins(s, 11)
	if !errors.Is(err, domainerror.ErrInsufficientCoins) {
		t.Fatalf("expected ErrInsufficientCoins, got %v", err)
	}
	if s.Coins != 10 {
		t.Fatalf("failed spend changed balance to %d", s.Coins)
	}
}

func TestTiers(t *testing.T) {
	tests := []struct {
		level   int
		account string
		skill   string
	}{
		{1, "Novice", "Beginner"},
		{4, "Novice", "Novice"},
		{5, "Apprentice", "Intermediate"},
		{12, "Adept", "Advanced"},
		{40, "Master", "Expert"},
		{90, "Legend", "Master"},
	}
	for _, tt := range tests {
		if got := AccountTier(tt.level).Name; got != tt.account {
			t.Errorf("AccountTier(%d)=%s, want %s", tt.level, got, tt.account)
		}
		if got := SkillTier(tt.level).Name; got != tt.skill {
			t.Errorf("SkillTier(%d)=%s, want %s", tt.level, got, tt.skill)
		}
	}
}

func TestRecordActivity(t *testing.T) {
	s := NewStats()
	RecordActivity(s, "2026-03-01")
	RecordActivity(s, "2026-03-01")
	RecordActivity(s, "2026-03-02")
	RecordActivity(s, "2026-03-03")
	if s.CurrentStreak != 3 || s.LongestStreak != 3 {
		t.Fatalf("streak=%d longest=%d, want 3, 3", s.CurrentStreak, s.LongestStreak)
	}
	RecordActivity(s, "2026-03-06")
	if s.CurrentStreak != 1 || s.LongestStreak != 3 {
		t.Fatalf("after gap streak=%d longest=%d, want 1, 3", s.CurrentStreak, s.LongestStreak)
	}
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(entity.DateLayout, s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func habitWith(freq entity.HabitFrequency, targetDays []int, dates ...string) *entity.Habit {
	h := entity.NewHabit("h", freq, targetDays, 10, time.Now())
	for _, d := range dates {
		h.Entries = append(h.Entries, entity.HabitEntry{Date: d, Completed: true})
	}
	return h
}

func TestHabitStreaksDaily(t *testing.T) {
	// 2026-03-10 is a Tuesday
	today := day(t, "2026-03-10")
	all := []int{0, 1, 2, 3, 4, 5, 6}

	tests := []struct {
		name    string
		dates   []string
		current int
		best    int
		total   int
	}{
		{"three most recent days", []string{"2026-03-08", "2026-03-09", "2026-03-10"}, 3, 3, 3},
		{"today pending keeps yesterday's chain", []string{"2026-03-08", "2026-03-09"}, 2, 2, 2},
		{"missed day breaks the chain", []string{"2026-03-05", "2026-03-06", "2026-03-07", "2026-03-09"}, 1, 3, 4},
		{"only today after gap", []string{"2026-03-01", "2026-03-02", "2026-03-10"}, 1, 2, 3},
		{"old chain is not current", []string{"2026-03-01", "2026-03-02"}, 0, 2, 2},
		{"no entries", nil, 0, 0, 0},
		{"future entries ignored", []string{"2026-03-10", "2026-03-11"}, 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := habitWith(entity.HabitFrequencyDaily, all, tt.dates...)
			got := HabitStreaks(h, today)
			if got.Current != tt.current || got.Best != tt.best || got.Total != tt.total {
				t.Fatalf("got %+v, want current=%d best=%d total=%d", got, tt.current, tt.best, tt.total)
			}
		})
	}
}

func TestHabitStreaksSkipNonTargetDays(t *testing.T) {
	// Mon/Wed/Fri habit; 2026-03-09 Mon, 03-11 Wed, 03-13 Fri
	h := habitWith(entity.HabitFrequencyCustom, []int{1, 3, 5}, "2026-03-09", "2026-03-11", "2026-03-13")

	got := HabitStreaks(h, day(t, "2026-03-14")) // Saturday
	if got.Current != 3 || got.Best != 3 {
		t.Fatalf("got %+v, want current=3 best=3", got)
	}

	// missing the Wednesday breaks it
	h = habitWith(entity.HabitFrequencyCustom, []int{1, 3, 5}, "2026-03-09", "2026-03-13")
	got = HabitStreaks(h, day(t, "2026-03-13"))
	if got.Current != 1 || got.Best != 1 {
		t.Fatalf("got %+v, want current=1 best=1", got)
	}
}

func TestHabitStreakBreakKeepsBest(t *testing.T) {
	h := habitWith(entity.HabitFrequencyDaily, nil, "2026-03-01", "2026-03-02", "2026-03-03", "2026-03-04")
	ApplyStreaks(h, day(t, "2026-03-04"))
	if h.Streak != 4 || h.BestStreak != 4 {
		t.Fatalf("streak=%d best=%d", h.Streak, h.BestStreak)
	}
	ApplyStreaks(h, day(t, "2026-03-07"))
	if h.Streak != 0 || h.BestStreak != 4 || h.TotalCompletions != 4 {
		t.Fatalf("after miss streak=%d best=%d total=%d", h.Streak, h.BestStreak, h.TotalCompletions)
	}
}

func TestSetGoalProgress(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := entity.NewGoal("Run a marathon", entity.GoalTypeOutcome, 3, now)

	if completed := SetGoalProgress(g, 60, now); completed {
		t.Fatal("60% should not complete")
	}
	if !SetGoalProgress(g, 100, now) {
		t.Fatal("100% should complete")
	}
	if g.Status != entity.GoalStatusCompleted || g.CompletedAt == nil {
		t.Fatalf("status=%s completedAt=%v", g.Status, g.CompletedAt)
	}

	SetGoalProgress(g, 80, now)
	if g.Status != entity.GoalStatusActive || g.CompletedAt != nil {
		t.Fatalf("reopened goal status=%s completedAt=%v", g.Status, g.CompletedAt)
	}

	SetGoalProgress(g, 150, now)
	if g.Progress != 100 || g.Status != entity.GoalStatusCompleted {
		t.Fatalf("clamped progress=%d status=%s", g.Progress, g.Status)
	}
}

func TestPracticeSkillUnlocksCertificates(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSkill("Guitar", "music", now)
	xp := SkillCurve.TotalXPForLevel(6)

	levels, certs := PracticeSkill(s, xp, "scales", now)
	if s.Level != 6 || levels != 5 {
		t.Fatalf("level=%d gained=%d, want 6 and 5", s.Level, levels)
	}
	if len(certs) != 1 || certs[0].Level != 5 {
		t.Fatalf("certificates=%+v, want one at level 5", certs)
	}
	if len(s.Activities) != 1 || s.TotalXP != xp {
		t.Fatalf("activities=%d totalXp=%d", len(s.Activities), s.TotalXP)
	}

	if !RefreshDecay(s, now.Add(15*24*time.Hour)) || !s.Decaying {
		t.Fatal("expected skill to start decaying after 15 idle days")
	}
	PracticeSkill(s, 1, "", now.Add(16*24*time.Hour))
	if s.Decaying {
		t.Fatal("practice should clear decay")
	}
}
