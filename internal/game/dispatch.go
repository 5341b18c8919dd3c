package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sanguosha-online/sgs-server-go/internal/catalog"
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
	"github.com/sanguosha-online/sgs-server-go/internal/game/skill"
)

// Dispatch runs an event through its timing windows. Trigger skills react
// at every window; the state change commits at the kind's commit window
// unless a handler cancelled the event first. Kinds without windows commit
// immediately. Effects may dispatch further events, which resolve
// depth-first under the depth guard.
func (r *Room) Dispatch(ev *rules.Event) error {
	if r.gameOver && ev.Kind != rules.EventGameOver {
		return rules.ErrGameOver
	}
	if r.depth >= maxResolutionDepth {
		return fmt.Errorf("dispatch %s: %w", ev.Kind, rules.ErrResolutionDepthExceeded)
	}
	r.depth++
	defer func() { r.depth-- }()

	r.record(*ev)

	stages := rules.StagesOf(ev.Kind)
	if stages == nil {
		if err := r.commit(ev); err != nil {
			return err
		}
		r.notifier.Broadcast(*ev)
		return nil
	}

	for _, stage := range stages {
		if ev.Cancelled && !rules.IsCommitStage(ev.Kind, stage) {
			// Windows after the commit still run for a committed event;
			// a cancellation before commit stops the chain here.
			break
		}
		if rules.IsCommitStage(ev.Kind, stage) {
			if ev.Cancelled {
				break
			}
			if err := r.commit(ev); err != nil {
				return err
			}
			r.notifier.Broadcast(*ev)
		}
		if err := r.runTriggers(ev, stage); err != nil {
			if rules.IsFatal(err) {
				return err
			}
			r.logger.Error("trigger run aborted",
				zap.String("kind", string(ev.Kind)),
				zap.String("stage", string(stage)),
				zap.Error(err))
		}
	}
	return nil
}

// commit applies an event's state change. Only called once per event, at
// its commit window.
func (r *Room) commit(ev *rules.Event) error {
	switch ev.Kind {
	case rules.EventCardUse:
		return r.commitCardUse(ev)
	case rules.EventCardResponse:
		return r.commitCardResponse(ev)
	case rules.EventCardEffect:
		return r.commitCardEffect(ev)
	case rules.EventCardLost:
		return r.commitCardLost(ev)
	case rules.EventObtainCard:
		return r.commitObtainCard(ev)
	case rules.EventDrawCard:
		return r.commitDrawCard(ev)
	case rules.EventMoveCard:
		return r.commitMoveCard(ev)
	case rules.EventDamage:
		return r.commitDamage(ev)
	case rules.EventLoseHp:
		return r.commitLoseHp(ev)
	case rules.EventRecover:
		return r.commitRecover(ev)
	case rules.EventSkillUse:
		return r.commitSkillUse(ev)
	case rules.EventSkillEffect:
		return nil
	case rules.EventPhaseChange:
		return r.commitPhaseChange(ev)
	case rules.EventPlayerDying:
		return r.commitPlayerDying(ev)
	case rules.EventPlayerDied:
		return r.commitPlayerDied(ev)
	case rules.EventObtainSkill:
		return r.commitObtainSkill(ev)
	case rules.EventLoseSkill:
		return r.commitLoseSkill(ev)
	default:
		// Pure notifications (CardDisplay, Aim, lifecycle markers).
		return nil
	}
}

func (r *Room) commitCardUse(ev *rules.Event) error {
	p, err := r.player(ev.FromID)
	if err != nil {
		return err
	}

	for _, cardID := range ev.CardIDs {
		def, err := r.catalog.CardByID(cardID)
		if err != nil {
			return err
		}
		p.RecordCardUse(def.Name)

		area, ok := p.RemoveCard(cardID)
		if !ok {
			continue
		}

		if def.Type == catalog.TypeEquip {
			// Equips land in the equip zone, displacing same-slot gear.
			r.unequipSlot(p, def.Slot, ev)
			p.AddCard(rules.AreaEquip, cardID)
			equip := rules.NewEvent(rules.EventEquip, p.ID)
			equip.CardIDs = []int{cardID}
			r.Broadcast(equip)
			continue
		}

		r.discardStack = append(r.discardStack, cardID)
		lost := rules.NewEvent(rules.EventCardLost, p.ID)
		lost.CardIDs = []int{cardID}
		lost.FromArea = area
		lost.LostReason = rules.LostReasonCardUse
		lost.TriggeredOnEvent = ev
		if err := r.Dispatch(&lost); err != nil {
			return err
		}
	}
	return nil
}

func (r *Room) commitCardResponse(ev *rules.Event) error {
	p, err := r.player(ev.FromID)
	if err != nil {
		return err
	}

	for _, cardID := range ev.CardIDs {
		area, ok := p.RemoveCard(cardID)
		if !ok {
			continue
		}
		r.discardStack = append(r.discardStack, cardID)

		def, err := r.catalog.CardByID(cardID)
		if err != nil {
			return err
		}
		if rs, ok := r.skills.Get(def.SkillName); ok {
			if responsive, ok := rs.(skill.ResponsiveSkill); ok {
				if err := responsive.OnResponse(r, ev); err != nil {
					return err
				}
			}
		}

		lost := rules.NewEvent(rules.EventCardLost, p.ID)
		lost.CardIDs = []int{cardID}
		lost.FromArea = area
		lost.LostReason = rules.LostReasonCardResponse
		lost.TriggeredOnEvent = ev
		if err := r.Dispatch(&lost); err != nil {
			return err
		}
	}
	return nil
}

// commitCardEffect hands the effect to the card's skill.
func (r *Room) commitCardEffect(ev *rules.Event) error {
	def, err := r.catalog.CardByID(firstOf(ev.CardIDs))
	if err != nil {
		return err
	}
	s, ok := r.skills.Get(def.SkillName)
	if !ok {
		return &rules.CatalogError{Entity: "skill", ID: def.SkillName}
	}
	active, ok := s.(skill.ActiveSkill)
	if !ok {
		return nil
	}
	return active.OnEffect(r, ev)
}

func (r *Room) commitCardLost(ev *rules.Event) error {
	// The cards already left their zones when the causing event committed;
	// this window exists for the reactions.
	return nil
}

func (r *Room) commitObtainCard(ev *rules.Event) error {
	if len(ev.ToIDs) == 0 {
		return nil
	}
	p, err := r.player(ev.ToIDs[0])
	if err != nil {
		return err
	}
	for _, cardID := range ev.CardIDs {
		r.takeFromStacks(cardID)
		p.AddCard(rules.AreaHand, cardID)
	}
	return nil
}

func (r *Room) commitDrawCard(ev *rules.Event) error {
	p, err := r.player(ev.FromID)
	if err != nil {
		return err
	}
	n := ev.Amount
	if n <= 0 {
		n = 2
	}
	drawn := make([]int, 0, n)
	for i := 0; i < n; i++ {
		cardID, ok := r.drawFromStack()
		if !ok {
			break
		}
		p.AddCard(rules.AreaHand, cardID)
		drawn = append(drawn, cardID)
	}
	ev.CardIDs = drawn

	if len(drawn) > 0 {
		obtained := rules.NewEvent(rules.EventObtainCard, "")
		obtained.ToIDs = []string{p.ID}
		obtained.CardIDs = drawn
		obtained.ObtainedBy = rules.ObtainReasonCardDraw
		obtained.TriggeredOnEvent = ev
		return r.dispatchObtainReactions(&obtained)
	}
	return nil
}

// dispatchObtainReactions runs the obtain windows for cards that already
// landed in the hand (draws), skipping the commit's physical move.
func (r *Room) dispatchObtainReactions(ev *rules.Event) error {
	if r.depth >= maxResolutionDepth {
		return fmt.Errorf("dispatch %s: %w", ev.Kind, rules.ErrResolutionDepthExceeded)
	}
	r.depth++
	defer func() { r.depth-- }()

	r.record(*ev)
	for _, stage := range rules.StagesOf(ev.Kind) {
		if ev.Cancelled {
			break
		}
		if rules.IsCommitStage(ev.Kind, stage) {
			r.notifier.Broadcast(*ev)
		}
		if err := r.runTriggers(ev, stage); err != nil {
			if rules.IsFatal(err) {
				return err
			}
			r.logger.Error("trigger run aborted", zap.Error(err))
		}
	}
	return nil
}

func (r *Room) commitMoveCard(ev *rules.Event) error {
	if len(ev.ToIDs) == 0 {
		return nil
	}
	from, err := r.player(ev.FromID)
	if err != nil {
		return err
	}
	to, err := r.player(ev.ToIDs[0])
	if err != nil {
		return err
	}

	moved := make([]int, 0, len(ev.CardIDs))
	for _, cardID := range ev.CardIDs {
		if _, ok := from.RemoveCard(cardID); !ok {
			continue
		}
		area := ev.ToArea
		to.AddCard(area, cardID)
		moved = append(moved, cardID)
	}
	if len(moved) == 0 {
		return nil
	}

	lost := rules.NewEvent(rules.EventCardLost, from.ID)
	lost.CardIDs = moved
	lost.LostReason = ev.LostReason
	lost.TriggeredOnEvent = ev
	if err := r.Dispatch(&lost); err != nil {
		return err
	}

	obtained := rules.NewEvent(rules.EventObtainCard, ev.FromID)
	obtained.ToIDs = []string{to.ID}
	obtained.CardIDs = moved
	obtained.ObtainedBy = ev.ObtainedBy
	obtained.TriggeredOnEvent = ev
	return r.dispatchObtainReactions(&obtained)
}

func (r *Room) commitDamage(ev *rules.Event) error {
	if len(ev.ToIDs) == 0 {
		return nil
	}
	p, err := r.player(ev.ToIDs[0])
	if err != nil {
		return err
	}
	if p.Dead {
		return nil
	}

	p.HP -= ev.Amount
	r.logger.Debug("damage committed",
		zap.String("to", p.ID),
		zap.Int("amount", ev.Amount),
		zap.Int("hp", p.HP))

	if p.HP < 1 {
		return r.enterDying(p, ev)
	}
	return nil
}

func (r *Room) commitLoseHp(ev *rules.Event) error {
	if len(ev.ToIDs) == 0 {
		return nil
	}
	p, err := r.player(ev.ToIDs[0])
	if err != nil {
		return err
	}
	if p.Dead {
		return nil
	}
	p.HP -= ev.Amount
	if p.HP < 1 {
		return r.enterDying(p, ev)
	}
	return nil
}

func (r *Room) commitRecover(ev *rules.Event) error {
	if len(ev.ToIDs) == 0 {
		return nil
	}
	p, err := r.player(ev.ToIDs[0])
	if err != nil {
		return err
	}
	p.HP += ev.Amount
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
	return nil
}

// commitSkillUse counts the use and runs the skill's effect. The effect
// itself may dispatch further events.
func (r *Room) commitSkillUse(ev *rules.Event) error {
	p, err := r.player(ev.FromID)
	if err != nil {
		return err
	}
	s, ok := r.skills.Get(ev.BySkill)
	if !ok {
		return &rules.CatalogError{Entity: "skill", ID: ev.BySkill}
	}
	p.RecordSkillUse(s.Name())

	if trigger, ok := s.(skill.TriggerSkill); ok {
		return trigger.OnEffect(r, p.ID, ev)
	}
	if active, ok := s.(skill.ActiveSkill); ok {
		return active.OnEffect(r, ev)
	}
	return nil
}

func (r *Room) commitPhaseChange(ev *rules.Event) error {
	phase, rotated := r.turn.NextPhase(r.PlayerAlive)
	ev.ToPhase = phase
	ev.ToPlayer = r.turn.CurrentPlayer()

	if rotated {
		// Fresh turn: the owner's card use history resets on prepare entry.
		p, err := r.player(r.turn.CurrentPlayer())
		if err != nil {
			return err
		}
		p.ResetCardUseHistory()
	}

	// Skill counters refresh for every living player, not just the turn
	// owner: a once-per-turn skill spent off turn comes back at the next
	// prepare entry.
	for _, p := range r.players {
		if p.Dead {
			continue
		}
		for _, s := range r.playerSkills(p) {
			if s.RefreshAt(phase) {
				p.ResetSkillUse(s.Name())
			}
		}
	}
	return nil
}

func (r *Room) commitObtainSkill(ev *rules.Event) error {
	if len(ev.ToIDs) == 0 {
		return nil
	}
	p, err := r.player(ev.ToIDs[0])
	if err != nil {
		return err
	}
	p.ObtainSkills(ev.BySkill)
	return nil
}

func (r *Room) commitLoseSkill(ev *rules.Event) error {
	if len(ev.ToIDs) == 0 {
		return nil
	}
	p, err := r.player(ev.ToIDs[0])
	if err != nil {
		return err
	}
	p.LoseSkills(ev.BySkill)
	return nil
}

// enterDying runs the rescue pipeline: a PlayerDying event, then a peach
// ask to every living player in seat order starting at the victim, until
// the victim climbs back to 1 hp or everyone declined.
func (r *Room) enterDying(p *Player, cause *rules.Event) error {
	r.dyingID = p.ID
	defer func() { r.dyingID = "" }()

	dying := rules.NewEvent(rules.EventPlayerDying, p.ID)
	dying.TriggeredOnEvent = cause
	if err := r.Dispatch(&dying); err != nil {
		return err
	}
	if dying.Cancelled {
		return nil
	}

	for _, rescuerID := range r.AlivePlayerIDs(p.ID) {
		for p.HP < 1 {
			ask := rules.NewEvent(rules.EventAskForPeach, "")
			ask.ToIDs = []string{rescuerID}
			ask.Players = []string{p.ID}
			ask.Matcher = &rules.CardMatcher{Names: []string{catalog.CardPeach}}
			ask.Conversation = rules.Tr("{0} is dying, please use a {1} to rescue", p.ID, catalog.CardPeach)

			resp, err := r.Ask(rescuerID, ask)
			if err != nil {
				return err
			}
			if resp.Declined() {
				break
			}

			use := rules.NewEvent(rules.EventCardUse, rescuerID)
			use.CardIDs = []int{resp.CardID}
			use.ToIDs = []string{p.ID}
			use.TriggeredOnEvent = &dying
			if err := r.UseCard(&use); err != nil {
				r.logger.Warn("rescue peach rejected", zap.Error(err))
				break
			}
		}
		if p.HP >= 1 {
			return nil
		}
	}

	died := rules.NewEvent(rules.EventPlayerDied, p.ID)
	died.TriggeredOnEvent = cause
	return r.Dispatch(&died)
}

// commitPlayerDied marks the death, buries all zone cards, and checks the
// winning condition.
func (r *Room) commitPlayerDied(ev *rules.Event) error {
	p, err := r.player(ev.FromID)
	if err != nil {
		return err
	}
	p.Dead = true

	// Burial: every zone's cards go to the discard stack.
	for _, area := range rules.AllAreas {
		for _, cardID := range p.CardsIn(area) {
			p.RemoveCard(cardID)
			r.discardStack = append(r.discardStack, cardID)
		}
	}
	r.logger.Info("player died",
		zap.String("player_id", p.ID),
		zap.String("role", string(p.Role)))

	return r.checkGameOver()
}

func (r *Room) commitPlayerDying(ev *rules.Event) error {
	// The rescue asks run after this window from enterDying.
	return nil
}

// checkGameOver applies the role win conditions: the lord's death ends the
// game (a lone surviving renegade wins, otherwise the rebels); rebels and
// renegades all dead means the lord side wins.
func (r *Room) checkGameOver() error {
	var lordAlive, rebelsAlive, renegadesAlive, othersAlive int
	var aliveIDs []string
	for _, p := range r.players {
		if p.Dead {
			continue
		}
		aliveIDs = append(aliveIDs, p.ID)
		switch p.Role {
		case RoleLord:
			lordAlive++
		case RoleRebel:
			rebelsAlive++
		case RoleRenegade:
			renegadesAlive++
		default:
			othersAlive++
		}
	}

	var winningRoles map[Role]bool
	switch {
	case lordAlive == 0 && renegadesAlive == 1 && rebelsAlive == 0 && othersAlive == 0:
		winningRoles = map[Role]bool{RoleRenegade: true}
	case lordAlive == 0:
		winningRoles = map[Role]bool{RoleRebel: true}
	case rebelsAlive == 0 && renegadesAlive == 0:
		winningRoles = map[Role]bool{RoleLord: true, RoleLoyalist: true}
	default:
		return nil
	}

	r.gameOver = true
	for _, p := range r.players {
		if winningRoles[p.Role] {
			r.winners = append(r.winners, p.ID)
		} else {
			r.losers = append(r.losers, p.ID)
		}
	}

	over := rules.NewEvent(rules.EventGameOver, "")
	over.WinnerIDs = r.winners
	over.LoserIDs = r.losers
	r.record(over)
	r.notifier.Broadcast(over)
	r.logger.Info("game over", zap.Strings("winners", r.winners))
	return nil
}

// unequipSlot moves same-slot gear to the discard stack before a new equip
// lands.
func (r *Room) unequipSlot(p *Player, slot catalog.EquipSlot, cause *rules.Event) {
	for _, cardID := range p.EquippedCards() {
		def, err := r.catalog.CardByID(cardID)
		if err != nil || def.Slot != slot {
			continue
		}
		p.RemoveCard(cardID)
		r.discardStack = append(r.discardStack, cardID)

		lost := rules.NewEvent(rules.EventCardLost, p.ID)
		lost.CardIDs = []int{cardID}
		lost.FromArea = rules.AreaEquip
		lost.LostReason = rules.LostReasonPassiveMove
		lost.TriggeredOnEvent = cause
		if err := r.Dispatch(&lost); err != nil {
			r.logger.Error("unequip dispatch failed", zap.Error(err))
		}
	}
}

func (r *Room) drawFromStack() (int, bool) {
	if len(r.drawStack) == 0 {
		// Reshuffle the discards when the stack runs dry.
		if len(r.discardStack) == 0 {
			return 0, false
		}
		r.drawStack = r.discardStack
		r.discardStack = nil
		r.rng.Shuffle(len(r.drawStack), func(i, j int) {
			r.drawStack[i], r.drawStack[j] = r.drawStack[j], r.drawStack[i]
		})
	}
	cardID := r.drawStack[0]
	r.drawStack = r.drawStack[1:]
	return cardID, true
}

// takeFromStacks removes a specific card from the draw or discard stack if
// it sits there (obtain by id, e.g. a displayed top card).
func (r *Room) takeFromStacks(cardID int) {
	for i, id := range r.drawStack {
		if id == cardID {
			r.drawStack = append(r.drawStack[:i], r.drawStack[i+1:]...)
			return
		}
	}
	for i, id := range r.discardStack {
		if id == cardID {
			r.discardStack = append(r.discardStack[:i], r.discardStack[i+1:]...)
			return
		}
	}
}

func firstOf(ids []int) int {
	if len(ids) == 0 {
		return 0
	}
	return ids[0]
}
