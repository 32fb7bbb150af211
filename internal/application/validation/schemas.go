package validation

import "github.com/shopspring/decimal"

// Create payloads carry required fields as values and optional ones as
// omitempty. Update payloads are all pointers: nil means "leave as is".

// TaskCreate is the payload for a new task.
type TaskCreate struct {
	Title         string   `json:"title" validate:"required,min=1,max=200"`
	Description   string   `json:"description" validate:"max=2000"`
	GoalID        *string  `json:"goalId" validate:"omitnil,uuid"`
	AreaID        *string  `json:"areaId" validate:"omitnil,uuid"`
	ScheduledDate string   `json:"scheduledDate" validate:"omitempty,datetime=2006-01-02"`
	Priority      string   `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	EnergyCost    string   `json:"energyCost" validate:"omitempty,oneof=low medium high"`
	EnergyType    string   `json:"energyType" validate:"omitempty,oneof=physical mental emotional creative"`
	Duration      *int     `json:"duration" validate:"omitnil,min=5,max=1440"`
	Tags          []string `json:"tags" validate:"max=20,dive,min=1,max=40"`
}

// TaskUpdate is a partial task update.
type TaskUpdate struct {
	Title         *string   `json:"title" validate:"omitnil,min=1,max=200"`
	Description   *string   `json:"description" validate:"omitnil,max=2000"`
	GoalID        *string   `json:"goalId" validate:"omitnil,omitempty,uuid"`
	AreaID        *string   `json:"areaId" validate:"omitnil,omitempty,uuid"`
	ScheduledDate *string   `json:"scheduledDate" validate:"omitnil,omitempty,datetime=2006-01-02"`
	Status        *string   `json:"status" validate:"omitnil,oneof=todo completed cancelled"`
	Priority      *string   `json:"priority" validate:"omitnil,oneof=low medium high critical"`
	EnergyCost    *string   `json:"energyCost" validate:"omitnil,omitempty,oneof=low medium high"`
	EnergyType    *string   `json:"energyType" validate:"omitnil,omitempty,oneof=physical mental emotional creative"`
	Duration      *int      `json:"duration" validate:"omitnil,min=5,max=1440"`
	Tags          *[]string `json:"tags" validate:"omitnil,max=20,dive,min=1,max=40"`
}

// HabitCreate is the payload for a new habit.
type HabitCreate struct {
	Title        string  `json:"title" validate:"required,min=1,max=200"`
	Description  string  `json:"description" validate:"max=2000"`
	Frequency    string  `json:"frequency" validate:"required,oneof=daily weekly custom"`
	TargetDays   []int   `json:"targetDays" validate:"max=7,unique,dive,min=0,max=6"`
	EnergyImpact int     `json:"energyImpact" validate:"min=-5,max=5"`
	EnergyType   string  `json:"energyType" validate:"omitempty,oneof=physical mental emotional creative"`
	XPReward     *int    `json:"xpReward" validate:"omitnil,min=0,max=1000"`
	AreaID       *string `json:"areaId" validate:"omitnil,uuid"`
}

// HabitUpdate is a partial habit update. Entries are changed through
// ToggleHabit only.
type HabitUpdate struct {
	Title        *string `json:"title" validate:"omitnil,min=1,max=200"`
	Description  *string `json:"description" validate:"omitnil,max=2000"`
	Frequency    *string `json:"frequency" validate:"omitnil,oneof=daily weekly custom"`
	TargetDays   *[]int  `json:"targetDays" validate:"omitnil,max=7,unique,dive,min=0,max=6"`
	EnergyImpact *int    `json:"energyImpact" validate:"omitnil,min=-5,max=5"`
	EnergyType   *string `json:"energyType" validate:"omitnil,omitempty,oneof=physical mental emotional creative"`
	XPReward     *int    `json:"xpReward" validate:"omitnil,min=0,max=1000"`
	AreaID       *string `json:"areaId" validate:"omitnil,omitempty,uuid"`
}

// HabitToggle flips the entry of one day. An empty date means today.
type HabitToggle struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// MilestoneInput is a milestone given inline with a goal.
type MilestoneInput struct {
	Title     string `json:"title" validate:"required,min=1,max=200"`
	Completed bool   `json:"completed"`
}

// GoalCreate is the payload for a new goal.
type GoalCreate struct {
	Title       string           `json:"title" validate:"required,min=1,max=200"`
	Description string           `json:"description" validate:"max=2000"`
	AreaID      *string          `json:"areaId" validate:"omitnil,uuid"`
	Type        string           `json:"type" validate:"omitempty,oneof=outcome process"`
	Priority    *int             `json:"priority" validate:"omitnil,min=1,max=5"`
	TargetDate  string           `json:"targetDate" validate:"omitempty,datetime=2006-01-02"`
	Status      string           `json:"status" validate:"omitempty,oneof=active completed paused archived"`
	Progress    *int             `json:"progress" validate:"omitnil,min=0,max=100"`
	Milestones  []MilestoneInput `json:"milestones" validate:"max=50,dive"`
}

// GoalUpdate is a partial goal update.
type GoalUpdate struct {
	Title       *string           `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string           `json:"description" validate:"omitnil,max=2000"`
	AreaID      *string           `json:"areaId" validate:"omitnil,omitempty,uuid"`
	Type        *string           `json:"type" validate:"omitnil,oneof=outcome process"`
	Priority    *int              `json:"priority" validate:"omitnil,min=1,max=5"`
	TargetDate  *string           `json:"targetDate" validate:"omitnil,omitempty,datetime=2006-01-02"`
	Status      *string           `json:"status" validate:"omitnil,oneof=active completed paused archived"`
	Progress    *int              `json:"progress" validate:"omitnil,min=0,max=100"`
	Milestones  *[]MilestoneInput `json:"milestones" validate:"omitnil,max=50,dive"`
}

// GoalProgress sets a goal's progress percentage.
type GoalProgress struct {
	Progress int `json:"progress" validate:"min=0,max=100"`
}

// LifeAreaCreate is the payload for a new life area.
type LifeAreaCreate struct {
	Name         string `json:"name" validate:"required,min=1,max=100"`
	Vision       string `json:"vision" validate:"max=2000"`
	Color        string `json:"color" validate:"required,hexcolor"`
	Icon         string `json:"icon" validate:"max=50"`
	Importance   *int   `json:"importance" validate:"omitnil,min=1,max=5"`
	CurrentLevel *int   `json:"currentLevel" validate:"omitnil,min=1,max=10"`
	TargetLevel  *int   `json:"targetLevel" validate:"omitnil,min=1,max=10"`
	Active       *bool  `json:"active"`
}

// LifeAreaUpdate is a partial life area update.
type LifeAreaUpdate struct {
	Name         *string `json:"name" validate:"omitnil,min=1,max=100"`
	Vision       *string `json:"vision" validate:"omitnil,max=2000"`
	Color        *string `json:"color" validate:"omitnil,hexcolor"`
	Icon         *string `json:"icon" validate:"omitnil,max=50"`
	Importance   *int    `json:"importance" validate:"omitnil,min=1,max=5"`
	CurrentLevel *int    `json:"currentLevel" validate:"omitnil,min=1,max=10"`
	TargetLevel  *int    `json:"targetLevel" validate:"omitnil,min=1,max=10"`
	Active       *bool   `json:"active"`
}

// SkillCreate is the payload for a new skill.
type SkillCreate struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Category string `json:"category" validate:"max=50"`
	Icon     string `json:"icon" validate:"max=50"`
	Color    string `json:"color" validate:"omitempty,hexcolor"`
}

// SkillUpdate is a partial skill update. Leveling fields change through
// PracticeSkill only.
type SkillUpdate struct {
	Name     *string `json:"name" validate:"omitnil,min=1,max=100"`
	Category *string `json:"category" validate:"omitnil,max=50"`
	Icon     *string `json:"icon" validate:"omitnil,max=50"`
	Color    *string `json:"color" validate:"omitnil,omitempty,hexcolor"`
}

// SkillPractice logs a practice session.
type SkillPractice struct {
	XP   int    `json:"xp" validate:"required,min=1,max=10000"`
	Note string `json:"note" validate:"max=500"`
}

// AchievementCreate is the payload for a new achievement.
type AchievementCreate struct {
	Title         string `json:"title" validate:"required,min=1,max=200"`
	Description   string `json:"description" validate:"max=2000"`
	Type          string `json:"type" validate:"required,oneof=micro macro breakthrough moment"`
	Category      string `json:"category" validate:"max=50"`
	Emotion       string `json:"emotion" validate:"max=50"`
	LessonLearned string `json:"lessonLearned" validate:"max=2000"`
	Date          string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Favorite      bool   `json:"favorite"`
	UnlockDate    string `json:"unlockDate" validate:"omitempty,datetime=2006-01-02"`
}

// AchievementUpdate is a partial achievement update. The type is fixed
// once XP has been paid for it.
type AchievementUpdate struct {
	Title         *string `json:"title" validate:"omitnil,min=1,max=200"`
	Description   *string `json:"description" validate:"omitnil,max=2000"`
	Category      *string `json:"category" validate:"omitnil,max=50"`
	Emotion       *string `json:"emotion" validate:"omitnil,max=50"`
	LessonLearned *string `json:"lessonLearned" validate:"omitnil,max=2000"`
	Date          *string `json:"date" validate:"omitnil,datetime=2006-01-02"`
	Favorite      *bool   `json:"favorite"`
	UnlockDate    *string `json:"unlockDate" validate:"omitnil,omitempty,datetime=2006-01-02"`
}

// AccountCreate is the payload for a new money account.
type AccountCreate struct {
	Name     string          `json:"name" validate:"required,min=1,max=100"`
	Type     string          `json:"type" validate:"required,oneof=checking savings credit investment cash"`
	Currency string          `json:"currency" validate:"required,iso4217"`
	Balance  decimal.Decimal `json:"balance"`
}

// AccountUpdate is a partial account update.
type AccountUpdate struct {
	Name     *string          `json:"name" validate:"omitnil,min=1,max=100"`
	Type     *string          `json:"type" validate:"omitnil,oneof=checking savings credit investment cash"`
	Currency *string          `json:"currency" validate:"omitnil,iso4217"`
	Balance  *decimal.Decimal `json:"balance"`
}

// TransactionCreate is the payload for a new transaction.
type TransactionCreate struct {
	AccountID   *string         `json:"accountId" validate:"omitnil,uuid"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Type        string          `json:"type" validate:"required,oneof=expense income"`
	Category    string          `json:"category" validate:"required,min=1,max=50"`
	Description string          `json:"description" validate:"max=500"`
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
}

// TransactionUpdate is a partial transaction update.
type TransactionUpdate struct {
	AccountID   *string          `json:"accountId" validate:"omitnil,omitempty,uuid"`
	Amount      *decimal.Decimal `json:"amount" validate:"omitnil,gt=0"`
	Type        *string          `json:"type" validate:"omitnil,oneof=expense income"`
	Category    *string          `json:"category" validate:"omitnil,min=1,max=50"`
	Description *string          `json:"description" validate:"omitnil,max=500"`
	Date        *string          `json:"date" validate:"omitnil,datetime=2006-01-02"`
}

// FinancialGoalCreate is the payload for a new savings target.
type FinancialGoalCreate struct {
	Name          string           `json:"name" validate:"required,min=1,max=100"`
	TargetAmount  decimal.Decimal  `json:"targetAmount" validate:"gt=0"`
	CurrentAmount *decimal.Decimal `json:"currentAmount" validate:"omitnil,gte=0"`
	Deadline      string           `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
	Category      string           `json:"category" validate:"max=50"`
}

// FinancialGoalUpdate is a partial savings target update.
type FinancialGoalUpdate struct {
	Name          *string          `json:"name" validate:"omitnil,min=1,max=100"`
	TargetAmount  *decimal.Decimal `json:"targetAmount" validate:"omitnil,gt=0"`
	CurrentAmount *decimal.Decimal `json:"currentAmount" validate:"omitnil,gte=0"`
	Deadline      *string          `json:"deadline" validate:"omitnil,omitempty,datetime=2006-01-02"`
	Category      *string          `json:"category" validate:"omitnil,max=50"`
}

// Contribution adds money to a savings target.
type Contribution struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

// DailyReviewCreate is the end-of-day reflection payload.
type DailyReviewCreate struct {
	Date          string   `json:"date" validate:"required,datetime=2006-01-02"`
	Mood          int      `json:"mood" validate:"required,min=1,max=5"`
	Energy        int      `json:"energy" validate:"required,min=1,max=5"`
	Wins          []string `json:"wins" validate:"max=10,dive,min=1,max=200"`
	Lessons       string   `json:"lessons" validate:"max=2000"`
	TomorrowFocus string   `json:"tomorrowFocus" validate:"max=500"`
}

// DailyReviewUpdate is a partial review update. The date is fixed.
type DailyReviewUpdate struct {
	Mood          *int      `json:"mood" validate:"omitnil,min=1,max=5"`
	Energy        *int      `json:"energy" validate:"omitnil,min=1,max=5"`
	Wins          *[]string `json:"wins" validate:"omitnil,max=10,dive,min=1,max=200"`
	Lessons       *string   `json:"lessons" validate:"omitnil,max=2000"`
	TomorrowFocus *string   `json:"tomorrowFocus" validate:"omitnil,max=500"`
}

// IdentityUpdate is a partial update of the identity singleton.
type IdentityUpdate struct {
	Name    *string   `json:"name" validate:"omitnil,min=1,max=100"`
	Vision  *string   `json:"vision" validate:"omitnil,max=2000"`
	Mission *string   `json:"mission" validate:"omitnil,max=2000"`
	Values  *[]string `json:"values" validate:"omitnil,max=20,dive,min=1,max=100"`
}

// CoinAmount spends or grants coins.
type CoinAmount struct {
	Amount int `json:"amount" validate:"required,min=1"`
}
