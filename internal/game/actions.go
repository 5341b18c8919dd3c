package game

import (
	"github.com/sanguosha-online/sgs-server-go/internal/catalog"
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
	"github.com/sanguosha-online/sgs-server-go/internal/game/skill"
)

// UseRule decides whether a player may use a named card again this turn.
type UseRule func(r *Room, p *Player, cardName string) bool

// oncePerTurn is the default rule for slash and alcohol.
func oncePerTurn(r *Room, p *Player, cardName string) bool {
	return p.CardUseCount(cardName) < 1
}

// useRules is the pluggable per-card-name use rule table. Names absent
// from it have no per-turn ceiling. UseCard skills (the crossbow) bypass a
// rule without editing the table.
var useRules = map[string]UseRule{
	catalog.CardSlash:        oncePerTurn,
	catalog.CardThunderSlash: oncePerTurn,
	catalog.CardFireSlash:    oncePerTurn,
	catalog.CardAlcohol:      oncePerTurn,
}

// mayUseCardName applies the use-rule table with UseCardSkill bypasses.
func (r *Room) mayUseCardName(p *Player, cardName string) bool {
	rule, ok := useRules[cardName]
	if !ok {
		return true
	}
	for _, s := range r.playerSkills(p) {
		if ucs, ok := s.(skill.UseCardSkill); ok && ucs.BypassUseLimit(r, p.ID, cardName) {
			return true
		}
	}
	// Slash variants share one per-turn budget.
	switch cardName {
	case catalog.CardSlash, catalog.CardThunderSlash, catalog.CardFireSlash:
		total := p.CardUseCount(catalog.CardSlash) +
			p.CardUseCount(catalog.CardThunderSlash) +
			p.CardUseCount(catalog.CardFireSlash)
		return total < 1
	}
	return rule(r, p, cardName)
}

// UseCard validates and resolves a deliberate card use: layered validation,
// OnUse, the card-use windows, then one card-effect chain per target. Any
// validation failure rejects with an error and zero state change.
func (r *Room) UseCard(ev *rules.Event) error {
	p, err := r.player(ev.FromID)
	if err != nil {
		return err
	}
	if p.Dead {
		return rules.ErrPlayerDead
	}
	if len(ev.CardIDs) == 0 {
		return rules.NewIllegalAction(p.ID, "use_card", "no card selected")
	}

	cardID := ev.CardIDs[0]
	if !p.HasCard(cardID, rules.AreaHand, rules.AreaEquip) {
		return rules.NewIllegalAction(p.ID, "use_card", "card not held")
	}
	def, err := r.catalog.CardByID(cardID)
	if err != nil {
		return err
	}

	s, ok := r.skills.Get(def.SkillName)
	if !ok {
		return &rules.CatalogError{Entity: "skill", ID: def.SkillName}
	}
	active, isActive := s.(skill.ActiveSkill)

	// Responsive cards (jink) only answer asks; their use needs the
	// causal link to the event they answer.
	if responsive, isResp := s.(skill.ResponsiveSkill); isResp && def.Type != catalog.TypeEquip {
		if ev.TriggeredOnEvent == nil {
			return rules.NewIllegalAction(p.ID, "use_card", "card can only answer a request")
		}
		if ev.Translation.IsZero() {
			ev.Translation = rules.Tr("{0} uses card {1}", p.ID, def.Name)
		}
		if err := r.Dispatch(ev); err != nil {
			return err
		}
		if ev.Cancelled {
			return nil
		}
		return responsive.OnResponse(r, ev)
	}

	// A deliberate play (no causal link) belongs to the actor's own play
	// phase, equips included; ask-driven uses (rescue peaches) carry
	// their link.
	if ev.TriggeredOnEvent == nil {
		if r.CurrentPlayerID() != p.ID || r.CurrentPhase() != rules.PhasePlay {
			return rules.NewIllegalAction(p.ID, "use_card", "not in own play phase")
		}
	}

	if def.Type != catalog.TypeEquip {
		if !isActive {
			return rules.NewIllegalAction(p.ID, "use_card", "card is not playable")
		}
		if !r.mayUseCardName(p, def.Name) {
			return rules.NewIllegalAction(p.ID, "use_card", "per-turn use limit reached for "+def.Name)
		}
		if !active.CanUse(r, p.ID, ev.ByCardID) {
			return rules.NewIllegalAction(p.ID, "use_card", "skill forbids the use")
		}
		if !active.TargetFilter(r, p.ID, ev.ToIDs, cardID) {
			return rules.NewIllegalAction(p.ID, "use_card", "bad target selection")
		}
		for _, toID := range ev.ToIDs {
			if active.NumberOfTargets() > 0 && !active.IsAvailableTarget(r, p.ID, toID, cardID) {
				return rules.NewIllegalAction(p.ID, "use_card", "target not available: "+toID)
			}
		}
		if err := active.OnUse(r, ev); err != nil {
			return err
		}
	} else if ev.Translation.IsZero() {
		ev.Translation = rules.Tr("{0} equips {1}", p.ID, def.Name)
	}

	if err := r.Dispatch(ev); err != nil {
		return err
	}
	if ev.Cancelled || def.Type == catalog.TypeEquip || !isActive {
		return nil
	}

	if len(ev.ToIDs) == 0 {
		effect := rules.NewEvent(rules.EventCardEffect, ev.FromID)
		effect.CardIDs = ev.CardIDs
		effect.ByCardID = ev.ByCardID
		effect.TriggeredOnEvent = ev
		return r.Dispatch(&effect)
	}

	// One aim notification and one effect chain per target: a jink or a
	// cancelling trigger stops a single target's chain, never the whole
	// use.
	for _, toID := range ev.ToIDs {
		aim := rules.NewEvent(rules.EventAim, ev.FromID)
		aim.ToIDs = []string{toID}
		aim.CardIDs = ev.CardIDs
		aim.TriggeredOnEvent = ev
		r.Broadcast(aim)

		effect := rules.NewEvent(rules.EventCardEffect, ev.FromID)
		effect.CardIDs = ev.CardIDs
		effect.ToIDs = []string{toID}
		effect.ByCardID = ev.ByCardID
		effect.TriggeredOnEvent = ev
		if err := r.Dispatch(&effect); err != nil {
			return err
		}
	}
	return nil
}

// UseSkill resolves a deliberate activation of a character's active skill.
func (r *Room) UseSkill(playerID, skillName string, cardIDs []int, targetIDs []string) error {
	p, err := r.player(playerID)
	if err != nil {
		return err
	}
	if p.Dead {
		return rules.ErrPlayerDead
	}
	if !p.HasSkill(skillName) {
		return rules.NewIllegalAction(playerID, "use_skill", "skill not owned: "+skillName)
	}
	s, ok := r.skills.Get(skillName)
	if !ok {
		return &rules.CatalogError{Entity: "skill", ID: skillName}
	}
	active, ok := s.(skill.ActiveSkill)
	if !ok {
		return rules.NewIllegalAction(playerID, "use_skill", "skill is not actively usable")
	}
	if !r.underUseCeiling(p, s) {
		return rules.NewIllegalAction(playerID, "use_skill", "use limit reached")
	}
	if !active.CanUse(r, playerID, 0) {
		return rules.NewIllegalAction(playerID, "use_skill", "skill forbids the use")
	}
	if !active.CardFilter(r, playerID, cardIDs) {
		return rules.NewIllegalAction(playerID, "use_skill", "bad card selection")
	}
	for _, cardID := range cardIDs {
		if !active.IsAvailableCard(r, playerID, cardID, 0) {
			return rules.NewIllegalAction(playerID, "use_skill", "card not selectable")
		}
	}
	if !active.TargetFilter(r, playerID, targetIDs, 0) {
		return rules.NewIllegalAction(playerID, "use_skill", "bad target selection")
	}
	for _, toID := range targetIDs {
		if !active.IsAvailableTarget(r, playerID, toID, 0) {
			return rules.NewIllegalAction(playerID, "use_skill", "target not available: "+toID)
		}
	}

	skillUse := rules.NewEvent(rules.EventSkillUse, playerID)
	skillUse.BySkill = skillName
	skillUse.CardIDs = cardIDs
	skillUse.ToIDs = targetIDs
	skillUse.Translation = rules.Tr("{0} uses skill {1}", playerID, skillName)
	return r.Dispatch(&skillUse)
}

// ResponseCard resolves a card answered to an ask (a jink). The card must
// be held; no per-turn use rules apply to responses.
func (r *Room) ResponseCard(ev *rules.Event) error {
	p, err := r.player(ev.FromID)
	if err != nil {
		return err
	}
	if p.Dead {
		return rules.ErrPlayerDead
	}
	if len(ev.CardIDs) == 0 || !p.HasCard(ev.CardIDs[0], rules.AreaHand, rules.AreaEquip) {
		return rules.NewIllegalAction(p.ID, "response_card", "card not held")
	}
	if ev.Translation.IsZero() {
		def, err := r.catalog.CardByID(ev.CardIDs[0])
		if err != nil {
			return err
		}
		ev.Translation = rules.Tr("{0} responses card {1}", p.ID, def.Name)
	}
	return r.Dispatch(ev)
}

// Damage dispatches a damage event through its windows.
func (r *Room) Damage(ev *rules.Event) error {
	if ev.Amount <= 0 {
		ev.Amount = 1
	}
	return r.Dispatch(ev)
}

// LoseHp is hp loss outside damage rules; no damage triggers fire.
func (r *Room) LoseHp(playerID string, amount int, cause *rules.Event) error {
	ev := rules.NewEvent(rules.EventLoseHp, playerID)
	ev.ToIDs = []string{playerID}
	ev.Amount = amount
	ev.TriggeredOnEvent = cause
	return r.Dispatch(&ev)
}

// Recover dispatches a recover event; hp never exceeds the maximum.
func (r *Room) Recover(ev *rules.Event) error {
	if ev.Amount <= 0 {
		ev.Amount = 1
	}
	return r.Dispatch(ev)
}

// DrawCards moves n cards from the draw stack to the player's hand.
func (r *Room) DrawCards(playerID string, amount int, cause *rules.Event) error {
	ev := rules.NewEvent(rules.EventDrawCard, playerID)
	ev.Amount = amount
	ev.TriggeredOnEvent = cause
	return r.Dispatch(&ev)
}

// ObtainCards hands specific cards to a player.
func (r *Room) ObtainCards(toID string, cardIDs []int, reason rules.CardObtainedReason, cause *rules.Event) error {
	ev := rules.NewEvent(rules.EventObtainCard, "")
	ev.ToIDs = []string{toID}
	ev.CardIDs = cardIDs
	ev.ObtainedBy = reason
	ev.TriggeredOnEvent = cause
	return r.Dispatch(&ev)
}

// DropCards discards cards from a player's zones.
func (r *Room) DropCards(playerID string, cardIDs []int, reason rules.CardLostReason, cause *rules.Event) error {
	p, err := r.player(playerID)
	if err != nil {
		return err
	}

	dropped := make([]int, 0, len(cardIDs))
	for _, cardID := range cardIDs {
		if _, ok := p.RemoveCard(cardID); !ok {
			continue
		}
		r.discardStack = append(r.discardStack, cardID)
		dropped = append(dropped, cardID)
	}
	if len(dropped) == 0 {
		return nil
	}

	drop := rules.NewEvent(rules.EventCardDrop, playerID)
	drop.CardIDs = dropped
	drop.LostReason = reason
	drop.TriggeredOnEvent = cause
	r.Broadcast(drop)

	lost := rules.NewEvent(rules.EventCardLost, playerID)
	lost.CardIDs = dropped
	lost.LostReason = reason
	lost.TriggeredOnEvent = cause
	return r.Dispatch(&lost)
}

// MoveCards transfers cards between players, emitting lost and obtained
// chains.
func (r *Room) MoveCards(ev *rules.Event) error {
	return r.Dispatch(ev)
}

// ObtainSkills grants skills through the event pipeline.
func (r *Room) ObtainSkills(playerID string, skillNames ...string) error {
	for _, name := range skillNames {
		if _, ok := r.skills.Get(name); !ok {
			return &rules.CatalogError{Entity: "skill", ID: name}
		}
		ev := rules.NewEvent(rules.EventObtainSkill, "")
		ev.ToIDs = []string{playerID}
		ev.BySkill = name
		if err := r.Dispatch(&ev); err != nil {
			return err
		}
	}
	return nil
}

// LoseSkills removes skills through the event pipeline.
func (r *Room) LoseSkills(playerID string, skillNames ...string) error {
	for _, name := range skillNames {
		ev := rules.NewEvent(rules.EventLoseSkill, "")
		ev.ToIDs = []string{playerID}
		ev.BySkill = name
		if err := r.Dispatch(&ev); err != nil {
			return err
		}
	}
	return nil
}
