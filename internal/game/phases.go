package game

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
)

// PlayPhase executes the current phase's built-in actions for the turn
// owner: draws in the draw phase, the play loop in the play phase, the
// hand-limit discard in the drop phase. Prepare, judge, and finish have no
// built-in action in the standard set.
func (r *Room) PlayPhase() error {
	p, err := r.player(r.turn.CurrentPlayer())
	if err != nil {
		return err
	}
	if p.Dead {
		return nil
	}

	switch r.turn.CurrentPhase() {
	case rules.PhaseDraw:
		return r.DrawCards(p.ID, 2, nil)
	case rules.PhasePlay:
		return r.playLoop(p)
	case rules.PhaseDrop:
		return r.dropToHandLimit(p)
	}
	return nil
}

// AdvancePhase dispatches a phase-change event; the advance itself commits
// inside the event's windows, so skip-phase skills can cancel it before it
// lands.
func (r *Room) AdvancePhase() error {
	ev := rules.NewEvent(rules.EventPhaseChange, "")
	ev.FromPhase = r.turn.CurrentPhase()
	ev.FromPlayer = r.turn.CurrentPlayer()
	return r.Dispatch(&ev)
}

// playLoop asks the turn owner for cards or skills until they pass, the
// game ends, or they die mid-loop.
func (r *Room) playLoop(p *Player) error {
	for !r.gameOver && !p.Dead {
		ask := rules.NewEvent(rules.EventAskForPlayCardsOrSkills, "")
		ask.ToIDs = []string{p.ID}
		ask.Conversation = rules.Tr("please play a card or skill, or pass")

		resp, err := r.Ask(p.ID, ask)
		if err != nil {
			return err
		}
		if resp.Declined() {
			return nil
		}

		switch {
		case resp.SkillName != "":
			err = r.UseSkill(p.ID, resp.SkillName, resp.CardIDs, resp.SelectedPlayers)
		case resp.CardID != 0:
			use := rules.NewEvent(rules.EventCardUse, p.ID)
			use.CardIDs = []int{resp.CardID}
			use.ToIDs = resp.ToIDs
			err = r.UseCard(&use)
		default:
			return nil
		}
		if err != nil {
			if rules.IsFatal(err) {
				return err
			}
			// An illegal play is the player's problem, not the room's:
			// tell them and keep asking.
			r.logger.Debug("play rejected",
				zap.String("player_id", p.ID),
				zap.Error(err))
			notice := rules.NewEvent(rules.EventAskForPlayCardsOrSkills, "")
			notice.ToIDs = []string{p.ID}
			notice.Conversation = rules.Tr("illegal play: {0}", err.Error())
			r.notifier.Notify(p.ID, notice)
		}
	}
	return nil
}

// dropToHandLimit forces a discard down to the hand limit (hp plus any
// hold-limit shift).
func (r *Room) dropToHandLimit(p *Player) error {
	hand := p.CardsIn(rules.AreaHand)
	over := len(hand) - p.MaxHoldCards()
	if over <= 0 {
		return nil
	}

	ask := rules.NewEvent(rules.EventAskForCardDrop, "")
	ask.ToIDs = []string{p.ID}
	ask.FromAreas = []rules.CardArea{rules.AreaHand}
	ask.CardAmount = over
	ask.Uncancellable = true
	ask.Conversation = rules.Tr("please drop {0} cards", strconv.Itoa(over))

	resp, err := r.Ask(p.ID, ask)
	if err != nil {
		return err
	}
	dropped := resp.DroppedCards
	if len(dropped) < over {
		// Top up with a server pick; the discard count is not optional.
		fallback := r.defaultAnswer(p.ID, ask)
		dropped = fallback.DroppedCards
	}
	return r.DropCards(p.ID, dropped, rules.LostReasonActiveDrop, nil)
}
