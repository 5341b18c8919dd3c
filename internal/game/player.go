package game

import (
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
)

// Role is a player's hidden allegiance; game over is decided by roles.
type Role string

const (
	RoleLord     Role = "LORD"
	RoleLoyalist Role = "LOYALIST"
	RoleRebel    Role = "REBEL"
	RoleRenegade Role = "RENEGADE"
)

// Player is one seat's state. All mutation flows through the Room; the
// struct itself carries no locking because a room's timeline is
// single-writer.
type Player struct {
	ID          string
	Name        string
	Seat        int
	Role        Role
	CharacterID int
	Nationality string

	MaxHP int
	HP    int
	Dead  bool

	zones map[rules.CardArea][]int

	// Per-turn card use counts, keyed by card name. Reset on prepare.
	cardUseHistory map[string]int
	// Per-refresh skill use counts, keyed by skill name.
	skillUseHistory map[string]int
	// Invisible marks, shared between a general skill and its shadows.
	invisibleMarks map[string]int
	// Extra hold cards shift the discard-phase hand limit.
	extraHoldCards int

	// Skill names: character skills at setup, then obtained minus lost.
	skillNames []string
}

// NewPlayer creates a seated player with empty zones.
func NewPlayer(id, name string, seat int) *Player {
	zones := make(map[rules.CardArea][]int, len(rules.AllAreas))
	for _, area := range rules.AllAreas {
		zones[area] = []int{}
	}
	return &Player{
		ID:              id,
		Name:            name,
		Seat:            seat,
		zones:           zones,
		cardUseHistory:  map[string]int{},
		skillUseHistory: map[string]int{},
		invisibleMarks:  map[string]int{},
	}
}

// CardsIn returns the card ids in the given zones, all zones when none are
// named. The returned slice is a copy.
func (p *Player) CardsIn(areas ...rules.CardArea) []int {
	if len(areas) == 0 {
		areas = rules.AllAreas
	}
	var out []int
	for _, area := range areas {
		out = append(out, p.zones[area]...)
	}
	return out
}

// HasCard reports whether the card sits in any of the given zones.
func (p *Player) HasCard(cardID int, areas ...rules.CardArea) bool {
	for _, id := range p.CardsIn(areas...) {
		if id == cardID {
			return true
		}
	}
	return false
}

// AddCard places a card into a zone.
func (p *Player) AddCard(area rules.CardArea, cardID int) {
	p.zones[area] = append(p.zones[area], cardID)
}

// RemoveCard takes a card out of whichever zone holds it, reporting the
// zone it left.
func (p *Player) RemoveCard(cardID int) (rules.CardArea, bool) {
	for _, area := range rules.AllAreas {
		zone := p.zones[area]
		for i, id := range zone {
			if id == cardID {
				p.zones[area] = append(zone[:i], zone[i+1:]...)
				return area, true
			}
		}
	}
	return 0, false
}

// EquippedCards returns the equip zone.
func (p *Player) EquippedCards() []int {
	return p.CardsIn(rules.AreaEquip)
}

// RecordCardUse counts a card use for the current turn.
func (p *Player) RecordCardUse(cardName string) {
	p.cardUseHistory[cardName]++
}

// CardUseCount returns this turn's use count for a card name.
func (p *Player) CardUseCount(cardName string) int {
	return p.cardUseHistory[cardName]
}

// ResetCardUseHistory clears per-turn card use counts; runs on prepare.
func (p *Player) ResetCardUseHistory() {
	p.cardUseHistory = map[string]int{}
}

// RecordSkillUse counts a skill use for the current refresh window.
func (p *Player) RecordSkillUse(skillName string) {
	p.skillUseHistory[skillName]++
}

// SkillUseCount returns the use count since the skill's last refresh.
func (p *Player) SkillUseCount(skillName string) int {
	return p.skillUseHistory[skillName]
}

// ResetSkillUse clears one skill's use count.
func (p *Player) ResetSkillUse(skillName string) {
	delete(p.skillUseHistory, skillName)
}

// InvisibleMark reads a mark counter.
func (p *Player) InvisibleMark(name string) int {
	return p.invisibleMarks[name]
}

// SetInvisibleMark writes a mark counter; zero removes it.
func (p *Player) SetInvisibleMark(name string, amount int) {
	if amount == 0 {
		delete(p.invisibleMarks, name)
		return
	}
	p.invisibleMarks[name] = amount
}

// ExtraHoldCards is the current shift of the hand limit.
func (p *Player) ExtraHoldCards() int {
	return p.extraHoldCards
}

// AddExtraHoldCards shifts the hand limit.
func (p *Player) AddExtraHoldCards(delta int) {
	p.extraHoldCards += delta
}

// MaxHoldCards is the discard-phase hand limit: current hp plus any shift,
// never negative.
func (p *Player) MaxHoldCards() int {
	limit := p.HP + p.extraHoldCards
	if limit < 0 {
		limit = 0
	}
	return limit
}

// SkillNames returns the player's skills in declaration order.
func (p *Player) SkillNames() []string {
	out := make([]string, len(p.skillNames))
	copy(out, p.skillNames)
	return out
}

// ObtainSkills appends skills, ignoring names already present.
func (p *Player) ObtainSkills(names ...string) {
	for _, name := range names {
		if !p.HasSkill(name) {
			p.skillNames = append(p.skillNames, name)
		}
	}
}

// LoseSkills removes skills and their use counters.
func (p *Player) LoseSkills(names ...string) {
	for _, name := range names {
		for i, have := range p.skillNames {
			if have == name {
				p.skillNames = append(p.skillNames[:i], p.skillNames[i+1:]...)
				break
			}
		}
		delete(p.skillUseHistory, name)
	}
}

// HasSkill reports whether the player carries the named skill.
func (p *Player) HasSkill(name string) bool {
	for _, have := range p.skillNames {
		if have == name {
			return true
		}
	}
	return false
}
