package skill

import (
	"github.com/sanguosha-online/sgs-server-go/internal/catalog"
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
)

// YaJiaoSkill (zhaoyun): when the owner uses or responds with a card
// outside their own turn, display the top card of the draw stack and give
// it to any player; if its type differs from the spent card, the owner
// discards one card.
type YaJiaoSkill struct {
	Base
}

// NewYaJiao builds the yajiao trigger skill.
func NewYaJiao() *YaJiaoSkill {
	return &YaJiaoSkill{Base: NewBase(catalog.SkillYaJiao)}
}

func (s *YaJiaoSkill) IsTriggerable(ev *rules.Event, stage rules.GameStage) bool {
	if stage != rules.StageAfterCardLostEffect {
		return false
	}
	return ev.LostReason == rules.LostReasonCardUse || ev.LostReason == rules.LostReasonCardResponse
}

func (s *YaJiaoSkill) IsCompulsory() bool  { return false }
func (s *YaJiaoSkill) IsAutoTrigger() bool { return false }

func (s *YaJiaoSkill) CanUse(room Room, ownerID string, ev *rules.Event) bool {
	return ownerID == ev.FromID && room.CurrentPlayerID() != ownerID
}

func (s *YaJiaoSkill) OnTrigger(Room, string, *rules.Event) (bool, error) {
	return true, nil
}

func (s *YaJiaoSkill) OnEffect(room Room, ownerID string, ev *rules.Event) error {
	lost, err := ev.Causal()
	if err != nil {
		return err
	}

	top := room.PeekDrawStack(1)
	if len(top) == 0 {
		return nil
	}

	display := rules.NewEvent(rules.EventCardDisplay, ownerID)
	display.CardIDs = top
	display.Translation = rules.Tr("{0} displayed cards {1} from top of draw stack", ownerID)
	room.Broadcast(display)

	choose := rules.NewEvent(rules.EventAskForChoosingPlayer, "")
	choose.ToIDs = []string{ownerID}
	choose.Players = room.AlivePlayerIDs(ownerID)
	choose.RequiredAmount = 1
	choose.Conversation = rules.Tr("please choose a player")
	choose.Uncancellable = true

	resp, err := room.Ask(ownerID, choose)
	if err != nil {
		return err
	}
	receiver := ownerID
	if len(resp.SelectedPlayers) > 0 {
		receiver = resp.SelectedPlayers[0]
	}

	if err := room.ObtainCards(receiver, top, rules.ObtainReasonPassiveObtained, ev); err != nil {
		return err
	}

	spent, err := room.Catalog().CardByID(firstCard(lost.CardIDs))
	if err != nil {
		return err
	}
	obtained, err := room.Catalog().CardByID(top[0])
	if err != nil {
		return err
	}
	if spent.Type == obtained.Type {
		return nil
	}

	drop := rules.NewEvent(rules.EventAskForCardDrop, "")
	drop.ToIDs = []string{ownerID}
	drop.FromAreas = []rules.CardArea{rules.AreaHand, rules.AreaEquip}
	drop.CardAmount = 1
	drop.Uncancellable = true

	dropResp, err := room.Ask(ownerID, drop)
	if err != nil {
		return err
	}
	if len(dropResp.DroppedCards) == 0 {
		return nil
	}
	return room.DropCards(ownerID, dropResp.DroppedCards, rules.LostReasonActiveDrop, ev)
}
