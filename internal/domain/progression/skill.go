package progression

import (
	"fmt"
	"time"

	"github.com/lifeos/backend/internal/domain/entity"
)

// DecayAfter is the inactivity window after which a skill is flagged decaying.
const DecayAfter = 14 * 24 * time.Hour

// CertificateLevels are the skill levels that unlock a certificate.
var CertificateLevels = []int{5, 10, 25, 50}

// NewSkill returns a level 1 skill on the skill curve.
func NewSkill(name, category string, now time.Time) *entity.Skill {
	return entity.NewSkill(name, category, SkillCurve.XPToNext(1), now)
}

// PracticeSkill logs a session, applies the XP on the skill curve and
// unlocks certificates for every milestone level crossed.
func PracticeSkill(s *entity.Skill, xp int, note string, now time.Time) (int, []entity.Certificate) {
	if xp <= 0 {
		return 0, nil
	}
	before := s.Level
	p := SkillCurve.Apply(s.Level, s.XP, xp)
	s.Level = p.Level
	s.XP = p.XP
	s.XPToNext = p.XPToNext
	s.TotalXP += xp
	s.Activities = append(s.Activities, entity.SkillActivity{
		Date: now.Format(entity.DateLayout),
		XP:   xp,
		Note: note,
	})
	practiced := now
	s.LastPracticedAt = &practiced
	s.Decaying = false

	var unlocked []entity.Certificate
	for _, lvl := range CertificateLevels {
		if before < lvl && s.Level >= lvl && !hasCertificate(s, lvl) {
			c := entity.Certificate{
				Level:    lvl,
				Title:    fmt.Sprintf("%s %s", s.Name, SkillTier(lvl).Name),
				EarnedAt: now,
			}
			s.Certificates = append(s.Certificates, c)
			unlocked = append(unlocked, c)
		}
	}
	return p.LevelsGained, unlocked
}

// RefreshDecay sets the decaying flag from the last practice time and
// reports whether it changed.
func RefreshDecay(s *entity.Skill, now time.Time) bool {
	last := s.CreatedAt
	if s.LastPracticedAt != nil {
		last = *s.LastPracticedAt
	}
	decaying := now.Sub(last) > DecayAfter
	if decaying == s.Decaying {
		return false
	}
	s.Decaying = decaying
	return true
}

func hasCertificate(s *entity.Skill, level int) bool {
	for _, c := range s.Certificates {
		if c.Level == level {
			return true
		}
	}
	return false
}
