package progression

// Tier is a named bucket of levels.
type Tier struct {
	MinLevel int    `json:"minLevel"`
	Name     string `json:"name"`
}

var accountTiers = []Tier{
	{MinLevel: 1, Name: "Novice"},
	{MinLevel: 5, Name: "Apprentice"},
	{MinLevel: 10, Name: "Adept"},
	{MinLevel: 20, Name: "Expert"},
	{MinLevel: 35, Name: "Master"},
	{MinLevel: 50, Name: "Legend"},
}

var skillTiers = []Tier{
	{MinLevel: 1, Name: "Beginner"},
	{MinLevel: 3, Name: "Novice"},
	{MinLevel: 5, Name: "Intermediate"},
	{MinLevel: 10, Name: "Advanced"},
	{MinLevel: 25, Name: "Expert"},
	{MinLevel: 50, Name: "Master"},
}

// AccountTier returns the display tier for an account level.
func AccountTier(level int) Tier {
	return lookupTier(accountTiers, level)
}

// SkillTier returns the display tier for a skill level.
func SkillTier(level int) Tier {
	return lookupTier(skillTiers, level)
}

func lookupTier(tiers []Tier, level int) Tier {
	tier := tiers[0]
	for _, t := range tiers {
		if level >= t.MinLevel {
			tier = t
		}
	}
	return tier
}
