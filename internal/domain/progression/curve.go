// Package progression implements the derived stats engine: leveling curves,
// tiers, the coin economy, habit streaks and the goal completion rule. Every
// function here is pure over the entity values it is given.
package progression

import "math"

// Curve is a leveling curve: a strictly increasing threshold function
// giving the XP needed to leave a level.
type Curve struct {
	coef     float64
	exponent float64
}

var (
	// AccountCurve drives the account level: 1000 XP to leave level 1.
	AccountCurve = Curve{coef: 1000, exponent: 1.5}

	// SkillCurve drives per-skill levels: 100 XP to leave level 1.
	SkillCurve = Curve{coef: 100, exponent: 1.3}
)

// Progress is the position on a curve.
type Progress struct {
	Level        int
	XP           int
	XPToNext     int
	LevelsGained int
}

// XPToNext returns the XP needed to go from level to level+1.
func (c Curve) XPToNext(level int) int {
	if level < 1 {
		level = 1
	}
	// ceil keeps thresholds from getting easier through float rounding
	return int(math.Ceil(c.coef * math.Pow(float64(level), c.exponent)))
}

// Apply adds gained XP at the given position and carries the remainder over
// as many level-ups as it pays for. Applying a then b equals applying a+b.
func (c Curve) Apply(level, xp, gained int) Progress {
	if level < 1 {
		level = 1
	}
	if gained > 0 {
		xp += gained
	}
	start := level
	for xp >= c.XPToNext(level) {
		xp -= c.XPToNext(level)
		level++
	}
	return Progress{
		Level:        level,
		XP:           xp,
		XPToNext:     c.XPToNext(level),
		LevelsGained: level - start,
	}
}

// TotalXPForLevel returns the cumulative XP needed to reach level from level 1.
func (c Curve) TotalXPForLevel(level int) int {
	total := 0
	for l := 1; l < level; l++ {
		total += c.XPToNext(l)
	}
	return total
}
