package skill

import (
	"github.com/sanguosha-online/sgs-server-go/internal/catalog"
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
)

// QingJianSkill (caohong): once per turn, when the owner obtains cards
// outside their draw phase, they may show any of their cards and give them
// to another player. The current turn owner's hand limit grows by the
// number of distinct card types shown, until that turn ends.
type QingJianSkill struct {
	Base
}

// NewQingJian builds the qingjian trigger skill.
func NewQingJian() *QingJianSkill {
	return &QingJianSkill{
		Base: NewBase(catalog.SkillQingJian, WithTriggerableTimes(1), WithRefreshAt(rules.PhasePrepare)),
	}
}

func (s *QingJianSkill) IsTriggerable(ev *rules.Event, stage rules.GameStage) bool {
	return stage == rules.StageAfterObtainCardEffect
}

func (s *QingJianSkill) IsCompulsory() bool  { return false }
func (s *QingJianSkill) IsAutoTrigger() bool { return false }

func (s *QingJianSkill) CanUse(room Room, ownerID string, ev *rules.Event) bool {
	if len(ev.ToIDs) == 0 || ownerID != ev.ToIDs[0] {
		return false
	}
	if room.CurrentPhase() == rules.PhaseDraw {
		return false
	}
	return len(room.PlayerCards(ownerID, rules.AreaHand, rules.AreaEquip)) > 0
}

func (s *QingJianSkill) OnTrigger(Room, string, *rules.Event) (bool, error) {
	return true, nil
}

// OnEffect reads the shown cards and the receiver off the opt-in answer
// carried by the skill-use event.
func (s *QingJianSkill) OnEffect(room Room, ownerID string, ev *rules.Event) error {
	if len(ev.CardIDs) == 0 || len(ev.ToIDs) == 0 {
		return nil
	}

	types := map[catalog.CardType]bool{}
	for _, cardID := range ev.CardIDs {
		def, err := room.Catalog().CardByID(cardID)
		if err != nil {
			return err
		}
		types[def.Type] = true
	}

	display := rules.NewEvent(rules.EventCardDisplay, ownerID)
	display.CardIDs = ev.CardIDs
	display.Translation = rules.Tr("{0} displayed cards {1}", ownerID)
	room.Broadcast(display)

	move := rules.NewEvent(rules.EventMoveCard, ownerID)
	move.ToIDs = []string{ev.ToIDs[0]}
	move.CardIDs = ev.CardIDs
	move.ToArea = rules.AreaHand
	move.LostReason = rules.LostReasonActiveMove
	move.ObtainedBy = rules.ObtainReasonPassiveObtained
	move.BySkill = s.Name()
	move.TriggeredOnEvent = ev
	if err := room.MoveCards(&move); err != nil {
		return err
	}

	current := room.CurrentPlayerID()
	room.SetInvisibleMark(current, s.Name(), room.InvisibleMark(current, s.Name())+len(types))
	room.AddExtraHoldCards(current, len(types))
	return nil
}

// QingJianShadowSkill clears the hand-limit bonus when the benefiting turn
// ends. Auto-triggered, invisible to clients.
type QingJianShadowSkill struct {
	Base
}

// NewQingJianShadow builds qingjian's turn-end cleanup half.
func NewQingJianShadow() *QingJianShadowSkill {
	return &QingJianShadowSkill{
		Base: NewBase(catalog.SkillQingJian+"_shadow", AsShadowOf(catalog.SkillQingJian)),
	}
}

func (s *QingJianShadowSkill) IsTriggerable(ev *rules.Event, stage rules.GameStage) bool {
	return stage == rules.StageAfterPhaseChanged && ev.FromPhase == rules.PhaseFinish
}

func (s *QingJianShadowSkill) IsCompulsory() bool  { return false }
func (s *QingJianShadowSkill) IsAutoTrigger() bool { return true }

func (s *QingJianShadowSkill) CanUse(Room, string, *rules.Event) bool { return true }

func (s *QingJianShadowSkill) OnTrigger(Room, string, *rules.Event) (bool, error) {
	return true, nil
}

func (s *QingJianShadowSkill) OnEffect(room Room, ownerID string, ev *rules.Event) error {
	change, err := ev.Causal()
	if err != nil {
		return err
	}
	if change.FromPlayer == "" {
		return nil
	}

	extra := room.InvisibleMark(change.FromPlayer, s.GeneralName())
	if extra == 0 {
		return nil
	}
	room.SetInvisibleMark(change.FromPlayer, s.GeneralName(), 0)
	room.AddExtraHoldCards(change.FromPlayer, -extra)
	return nil
}
