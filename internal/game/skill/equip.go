package skill

import (
	"github.com/sanguosha-online/sgs-server-go/internal/catalog"
)

// ZhuGeLianNuSkill is the repeating crossbow's equip skill: the wearer may
// slash any number of times per turn.
type ZhuGeLianNuSkill struct {
	Base
}

// NewZhuGeLianNu builds the crossbow equip skill.
func NewZhuGeLianNu() *ZhuGeLianNuSkill {
	return &ZhuGeLianNuSkill{Base: NewBase(catalog.SkillZhuGeLianNu)}
}

func (s *ZhuGeLianNuSkill) BypassUseLimit(_ Room, _ string, cardName string) bool {
	switch cardName {
	case catalog.CardSlash, catalog.CardThunderSlash, catalog.CardFireSlash:
		return true
	}
	return false
}

// ChiTuSkill is the -1 ride: the wearer's reach to everyone else shortens
// by one seat.
type ChiTuSkill struct {
	Base
}

// NewChiTu builds the chitu ride skill.
func NewChiTu() *ChiTuSkill {
	return &ChiTuSkill{Base: NewBase(catalog.SkillChiTu)}
}

func (s *ChiTuSkill) OffenseDelta() int { return -1 }
func (s *ChiTuSkill) DefenseDelta() int { return 0 }

// DiLuSkill is the +1 ride: everyone else's distance to the wearer grows
// by one seat.
type DiLuSkill struct {
	Base
}

// NewDiLu builds the dilu ride skill.
func NewDiLu() *DiLuSkill {
	return &DiLuSkill{Base: NewBase(catalog.SkillDiLu)}
}

func (s *DiLuSkill) OffenseDelta() int { return 0 }
func (s *DiLuSkill) DefenseDelta() int { return 1 }
