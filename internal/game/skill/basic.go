package skill

import (
	"github.com/sanguosha-online/sgs-server-go/internal/catalog"
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
)

// JinkSkill is purely responsive: a jink is never played from an open hand,
// only as the answer to a slash-family ask.
type JinkSkill struct {
	Base
}

// NewJink builds the jink card skill.
func NewJink() *JinkSkill {
	return &JinkSkill{Base: NewBase(catalog.SkillJink)}
}

// OnResponse cancels the chain the jink answers; the dodged effect never
// reaches its remaining windows.
func (s *JinkSkill) OnResponse(_ Room, ev *rules.Event) error {
	cause, err := ev.Causal()
	if err != nil {
		return err
	}
	cause.Cancelled = true
	return nil
}

// PeachSkill recovers one hp. Playable from hand only while hurt; the dying
// rescue pipeline uses it through the peach ask instead.
type PeachSkill struct {
	Base
}

// NewPeach builds the peach card skill.
func NewPeach() *PeachSkill {
	return &PeachSkill{Base: NewBase(catalog.SkillPeach)}
}

func (s *PeachSkill) CanUse(room Room, ownerID string, _ int) bool {
	if room.DyingPlayerID() != "" {
		return true
	}
	hp, maxHP := room.PlayerHP(ownerID)
	return hp < maxHP
}

func (s *PeachSkill) NumberOfTargets() int { return 0 }

func (s *PeachSkill) CardFilter(_ Room, _ string, cardIDs []int) bool {
	return len(cardIDs) == 0
}

// TargetFilter admits one aimed target so the dying rescue can point the
// peach at the victim; a plain use carries none and self-targets in OnUse.
func (s *PeachSkill) TargetFilter(_ Room, _ string, targetIDs []string, _ int) bool {
	return len(targetIDs) <= 1
}

func (s *PeachSkill) IsAvailableCard(Room, string, int, int) bool   { return false }
func (s *PeachSkill) IsAvailableTarget(Room, string, string, int) bool { return false }

func (s *PeachSkill) OnUse(room Room, ev *rules.Event) error {
	// Self-target unless the dying pipeline already aimed it.
	if len(ev.ToIDs) == 0 {
		ev.ToIDs = []string{ev.FromID}
	}
	ev.Translation = rules.Tr("{0} uses card {1}", ev.FromID, s.Name())
	return nil
}

func (s *PeachSkill) OnEffect(room Room, ev *rules.Event) error {
	for _, toID := range ev.ToIDs {
		recover := rules.NewEvent(rules.EventRecover, ev.FromID)
		recover.ToIDs = []string{toID}
		recover.Amount = 1
		recover.CardIDs = ev.CardIDs
		recover.TriggeredOnEvent = ev
		if err := room.Recover(&recover); err != nil {
			return err
		}
	}
	return nil
}

// AlcoholSkill marks the user drunk; the next slash this turn consumes the
// mark for one extra point of damage. One use per turn.
type AlcoholSkill struct {
	Base
}

// NewAlcohol builds the alcohol card skill.
func NewAlcohol() *AlcoholSkill {
	return &AlcoholSkill{
		Base: NewBase(catalog.SkillAlcohol, WithTriggerableTimes(1), WithRefreshAt(rules.PhasePrepare)),
	}
}

func (s *AlcoholSkill) CanUse(Room, string, int) bool { return true }

func (s *AlcoholSkill) NumberOfTargets() int { return 0 }

func (s *AlcoholSkill) CardFilter(_ Room, _ string, cardIDs []int) bool {
	return len(cardIDs) == 0
}

func (s *AlcoholSkill) TargetFilter(_ Room, _ string, targetIDs []string, _ int) bool {
	return len(targetIDs) == 0
}

func (s *AlcoholSkill) IsAvailableCard(Room, string, int, int) bool   { return false }
func (s *AlcoholSkill) IsAvailableTarget(Room, string, string, int) bool { return false }

func (s *AlcoholSkill) OnUse(room Room, ev *rules.Event) error {
	ev.ToIDs = []string{ev.FromID}
	ev.Translation = rules.Tr("{0} uses card {1}", ev.FromID, s.Name())
	return nil
}

func (s *AlcoholSkill) OnEffect(room Room, ev *rules.Event) error {
	room.SetInvisibleMark(ev.FromID, MarkAlcohol, room.InvisibleMark(ev.FromID, MarkAlcohol)+1)
	return nil
}
