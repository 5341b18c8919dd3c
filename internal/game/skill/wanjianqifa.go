package skill

import (
	"github.com/sanguosha-online/sgs-server-go/internal/catalog"
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
)

// WanJianQiFaSkill is the archery-volley trick: every other living player
// must respond with a jink or take one point of damage.
type WanJianQiFaSkill struct {
	Base
}

// NewWanJianQiFa builds the archery volley card skill.
func NewWanJianQiFa() *WanJianQiFaSkill {
	return &WanJianQiFaSkill{Base: NewBase(catalog.SkillWanJianQiFa)}
}

func (s *WanJianQiFaSkill) CanUse(Room, string, int) bool { return true }

// NumberOfTargets is zero: targets are fixed by OnUse, not selected.
func (s *WanJianQiFaSkill) NumberOfTargets() int { return 0 }

func (s *WanJianQiFaSkill) CardFilter(Room, string, []int) bool { return true }

func (s *WanJianQiFaSkill) TargetFilter(_ Room, _ string, targetIDs []string, _ int) bool {
	return len(targetIDs) == 0
}

func (s *WanJianQiFaSkill) IsAvailableCard(Room, string, int, int) bool   { return false }
func (s *WanJianQiFaSkill) IsAvailableTarget(Room, string, string, int) bool { return false }

// OnUse aims at every living player except the user.
func (s *WanJianQiFaSkill) OnUse(room Room, ev *rules.Event) error {
	ev.ToIDs = nil
	for _, id := range room.AlivePlayerIDs(ev.FromID) {
		if id != ev.FromID {
			ev.ToIDs = append(ev.ToIDs, id)
		}
	}
	ev.Translation = rules.Tr("{0} uses card {1}", ev.FromID, s.Name())
	return nil
}

func (s *WanJianQiFaSkill) OnEffect(room Room, ev *rules.Event) error {
	for _, toID := range ev.ToIDs {
		if !room.PlayerAlive(toID) {
			continue
		}

		ask := rules.NewEvent(rules.EventAskForCardResponse, "")
		ask.ToIDs = []string{toID}
		ask.ByCardID = firstCard(ev.CardIDs)
		ask.Matcher = &rules.CardMatcher{Names: []string{catalog.CardJink}}
		ask.Conversation = rules.Tr("please response a {0} against {1}", catalog.CardJink, s.Name())

		resp, err := room.Ask(toID, ask)
		if err != nil {
			return err
		}

		if !resp.Declined() {
			response := rules.NewEvent(rules.EventCardResponse, toID)
			response.CardIDs = []int{resp.CardID}
			response.ByCardID = firstCard(ev.CardIDs)
			response.TriggeredOnEvent = ev
			if err := room.ResponseCard(&response); err != nil {
				return err
			}
			continue
		}

		damage := rules.NewEvent(rules.EventDamage, ev.FromID)
		damage.ToIDs = []string{toID}
		damage.Amount = 1
		damage.DamageType = rules.DamageNormal
		damage.CardIDs = ev.CardIDs
		damage.BySkill = s.Name()
		damage.TriggeredOnEvent = ev
		damage.Translation = rules.Tr("{0} hits {1} for {2} {3} hp", ev.FromID, toID, "1", string(rules.DamageNormal))
		if err := room.Damage(&damage); err != nil {
			return err
		}
	}
	return nil
}
