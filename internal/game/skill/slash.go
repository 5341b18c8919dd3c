package skill

import (
	"github.com/sanguosha-online/sgs-server-go/internal/catalog"
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
)

// MarkAlcohol is the invisible mark a drunk player carries; the next slash
// consumes it for one extra point of damage.
const MarkAlcohol = "alcohol"

// SlashSkill is the card skill shared by slash and its elemental variants;
// the damage flavor comes off the card definition. One use per turn by
// default; the crossbow lifts that through the use-rule table, not here.
type SlashSkill struct {
	Base
}

// NewSlash builds the slash card skill.
func NewSlash() *SlashSkill {
	return &SlashSkill{
		Base: NewBase(catalog.SkillSlash, WithTriggerableTimes(1), WithRefreshAt(rules.PhasePrepare)),
	}
}

func (s *SlashSkill) CanUse(Room, string, int) bool { return true }

func (s *SlashSkill) NumberOfTargets() int { return 1 }

func (s *SlashSkill) CardFilter(_ Room, _ string, cardIDs []int) bool {
	return len(cardIDs) == 0
}

func (s *SlashSkill) TargetFilter(_ Room, _ string, targetIDs []string, _ int) bool {
	return len(targetIDs) == 1
}

func (s *SlashSkill) IsAvailableCard(Room, string, int, int) bool { return false }

func (s *SlashSkill) IsAvailableTarget(room Room, ownerID, targetID string, _ int) bool {
	return room.CanAttack(ownerID, targetID)
}

func (s *SlashSkill) OnUse(room Room, ev *rules.Event) error {
	if len(ev.ToIDs) > 0 {
		ev.Translation = rules.Tr("{0} uses card {2} to {1}", ev.FromID, ev.ToIDs[0], s.Name())
	}
	return nil
}

// OnEffect asks each target for a jink; a declined ask resolves into damage.
// A pending alcohol mark on the attacker is consumed for one extra point.
func (s *SlashSkill) OnEffect(room Room, ev *rules.Event) error {
	bonus := room.InvisibleMark(ev.FromID, MarkAlcohol)
	if bonus > 0 {
		room.SetInvisibleMark(ev.FromID, MarkAlcohol, 0)
	}

	damageType := rules.DamageNormal
	if def, err := room.Catalog().CardByID(firstCard(ev.CardIDs)); err == nil && def.DamageType != "" {
		damageType = def.DamageType
	}

	for _, toID := range ev.ToIDs {
		if !room.PlayerAlive(toID) {
			continue
		}

		ask := rules.NewEvent(rules.EventAskForCardUse, "")
		ask.ToIDs = []string{toID}
		ask.ByCardID = firstCard(ev.CardIDs)
		ask.Matcher = &rules.CardMatcher{Names: []string{catalog.CardJink}}
		ask.Conversation = rules.Tr("please use a {0} to dodge {1}", catalog.CardJink, s.Name())

		resp, err := room.Ask(toID, ask)
		if err != nil {
			return err
		}

		if !resp.Declined() {
			use := rules.NewEvent(rules.EventCardUse, toID)
			use.CardIDs = []int{resp.CardID}
			use.ByCardID = firstCard(ev.CardIDs)
			use.TriggeredOnEvent = ev
			if err := room.UseCard(&use); err != nil {
				return err
			}
			continue
		}

		damage := rules.NewEvent(rules.EventDamage, ev.FromID)
		damage.ToIDs = []string{toID}
		damage.Amount = 1 + bonus
		damage.DamageType = damageType
		damage.CardIDs = ev.CardIDs
		damage.BySkill = s.Name()
		damage.TriggeredOnEvent = ev
		damage.Translation = rules.Tr("{0} hurts {1} for {2} {3} hp", ev.FromID, toID, "1", string(damageType))
		if err := room.Damage(&damage); err != nil {
			return err
		}
	}
	return nil
}

func firstCard(cardIDs []int) int {
	if len(cardIDs) == 0 {
		return 0
	}
	return cardIDs[0]
}
