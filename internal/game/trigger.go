package game

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
	"github.com/sanguosha-online/sgs-server-go/internal/game/skill"
)

// triggerCandidate is one skill instance that may react to an event at a
// window.
type triggerCandidate struct {
	ownerID  string
	skill    skill.TriggerSkill
	seatDist int
	declIdx  int
}

// runTriggers gathers and resolves trigger skills for one event window.
// Ordering is deterministic: compulsory skills first, then seat distance
// from the event's principal actor, then the owner's declaration order.
func (r *Room) runTriggers(ev *rules.Event, stage rules.GameStage) error {
	if r.turn == nil {
		return nil
	}

	principal := ev.FromID
	if principal == "" {
		principal = r.turn.CurrentPlayer()
	}

	var candidates []triggerCandidate
	for _, ownerID := range r.AlivePlayerIDs(principal) {
		owner := r.byID[ownerID]
		for declIdx, s := range r.playerSkills(owner) {
			ts, ok := s.(skill.TriggerSkill)
			if !ok {
				continue
			}
			if !ts.IsTriggerable(ev, stage) {
				continue
			}
			if !r.underUseCeiling(owner, ts) {
				continue
			}
			if !ts.CanUse(r, ownerID, ev) {
				continue
			}
			candidates = append(candidates, triggerCandidate{
				ownerID:  ownerID,
				skill:    ts,
				seatDist: r.turn.SeatDistance(principal, ownerID),
				declIdx:  declIdx,
			})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if ci.skill.IsCompulsory() != cj.skill.IsCompulsory() {
			return ci.skill.IsCompulsory()
		}
		if ci.seatDist != cj.seatDist {
			return ci.seatDist < cj.seatDist
		}
		return ci.declIdx < cj.declIdx
	})

	for _, c := range candidates {
		if ev.Cancelled && !rules.IsCommitStage(ev.Kind, stage) {
			break
		}
		if err := r.resolveTrigger(c, ev, stage); err != nil {
			if rules.IsFatal(err) {
				return err
			}
			// One branch failing never poisons its siblings.
			r.logger.Error("trigger branch aborted",
				zap.String("skill", c.skill.Name()),
				zap.String("owner", c.ownerID),
				zap.Error(err))
		}
	}
	return nil
}

// resolveTrigger runs one candidate: re-validate against current state,
// opt-in ask for optional skills, then a skill-use event through its
// windows (whose commit runs the effect).
func (r *Room) resolveTrigger(c triggerCandidate, ev *rules.Event, stage rules.GameStage) error {
	owner, err := r.player(c.ownerID)
	if err != nil {
		return err
	}
	// An earlier sibling may have killed the owner or spent the skill.
	if owner.Dead {
		return nil
	}
	if !r.underUseCeiling(owner, c.skill) || !c.skill.CanUse(r, c.ownerID, ev) {
		return nil
	}

	skillUse := rules.NewEvent(rules.EventSkillUse, c.ownerID)
	skillUse.BySkill = c.skill.Name()
	skillUse.TriggeredOnEvent = ev

	if !c.skill.IsCompulsory() && !c.skill.IsAutoTrigger() {
		ask := rules.NewEvent(rules.EventAskForSkillUse, "")
		ask.ToIDs = []string{c.ownerID}
		ask.BySkill = c.skill.Name()
		ask.Conversation = rules.Tr("do you want to trigger {0}", c.skill.Name())

		resp, err := r.Ask(c.ownerID, ask)
		if err != nil {
			return err
		}
		if resp.Declined() {
			return nil
		}
		// Opt-in answers carry the skill's card and target selections.
		skillUse.CardIDs = resp.CardIDs
		if len(resp.CardIDs) == 0 && resp.CardID != 0 {
			skillUse.CardIDs = []int{resp.CardID}
		}
		skillUse.ToIDs = resp.ToIDs
		if len(resp.ToIDs) == 0 {
			skillUse.ToIDs = resp.SelectedPlayers
		}
	}

	proceed, err := c.skill.OnTrigger(r, c.ownerID, ev)
	if err != nil {
		return err
	}
	if !proceed {
		return nil
	}

	skillUse.Translation = rules.Tr("{0} triggered skill {1}", c.ownerID, c.skill.Name())
	return r.Dispatch(&skillUse)
}

// underUseCeiling checks the skill's per-refresh use ceiling; a negative
// ceiling means unlimited.
func (r *Room) underUseCeiling(p *Player, s skill.Skill) bool {
	limit := s.TriggerableTimes()
	if limit < 0 {
		return true
	}
	return p.SkillUseCount(s.Name()) < limit
}
