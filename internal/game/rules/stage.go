package rules

import (
	"fmt"
	"strings"
)

// PlayerPhase represents the phases of a player's turn.
type PlayerPhase int

const (
	PhasePrepare PlayerPhase = iota
	PhaseJudge
	PhaseDraw
	PhasePlay
	PhaseDrop
	PhaseFinish
)

var phaseNames = map[PlayerPhase]string{
	PhasePrepare: "PREPARE",
	PhaseJudge:   "JUDGE",
	PhaseDraw:    "DRAW",
	PhasePlay:    "PLAY",
	PhaseDrop:    "DROP",
	PhaseFinish:  "FINISH",
}

func (p PlayerPhase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// phaseSequence is the fixed phase order of one turn.
var phaseSequence = []PlayerPhase{
	PhasePrepare,
	PhaseJudge,
	PhaseDraw,
	PhasePlay,
	PhaseDrop,
	PhaseFinish,
}

// GameStage names a timing window within an event's lifecycle at which
// trigger skills may react.
type GameStage string

const (
	StageBeforeCardUseEffect GameStage = "BEFORE_CARD_USE_EFFECT"
	StageCardUseEffect       GameStage = "CARD_USE_EFFECT"
	StageAfterCardUseEffect  GameStage = "AFTER_CARD_USE_EFFECT"

	StageBeforeCardEffect GameStage = "BEFORE_CARD_EFFECT"
	StageCardEffecting    GameStage = "CARD_EFFECTING"
	StageAfterCardEffect  GameStage = "AFTER_CARD_EFFECT"

	StageBeforeCardResponseEffect GameStage = "BEFORE_CARD_RESPONSE_EFFECT"
	StageCardResponseEffect       GameStage = "CARD_RESPONSE_EFFECT"
	StageAfterCardResponseEffect  GameStage = "AFTER_CARD_RESPONSE_EFFECT"

	StageBeforeCardLostEffect GameStage = "BEFORE_CARD_LOST_EFFECT"
	StageCardLostEffect       GameStage = "CARD_LOST_EFFECT"
	StageAfterCardLostEffect  GameStage = "AFTER_CARD_LOST_EFFECT"

	StageBeforeObtainCardEffect GameStage = "BEFORE_OBTAIN_CARD_EFFECT"
	StageObtainCardEffect       GameStage = "OBTAIN_CARD_EFFECT"
	StageAfterObtainCardEffect  GameStage = "AFTER_OBTAIN_CARD_EFFECT"

	StageBeforeDrawCardEffect GameStage = "BEFORE_DRAW_CARD_EFFECT"
	StageDrawCardEffect       GameStage = "DRAW_CARD_EFFECT"
	StageAfterDrawCardEffect  GameStage = "AFTER_DRAW_CARD_EFFECT"

	StageBeforeDamageEffect GameStage = "BEFORE_DAMAGE_EFFECT"
	StageDamageEffect       GameStage = "DAMAGE_EFFECT"
	StageAfterDamageEffect  GameStage = "AFTER_DAMAGE_EFFECT"

	StageBeforeLoseHpEffect GameStage = "BEFORE_LOSE_HP_EFFECT"
	StageLoseHpEffect       GameStage = "LOSE_HP_EFFECT"
	StageAfterLoseHpEffect  GameStage = "AFTER_LOSE_HP_EFFECT"

	StageBeforeRecoverEffect GameStage = "BEFORE_RECOVER_EFFECT"
	StageRecoverEffect       GameStage = "RECOVER_EFFECT"
	StageAfterRecoverEffect  GameStage = "AFTER_RECOVER_EFFECT"

	StageBeforeSkillUse GameStage = "BEFORE_SKILL_USE"
	StageSkillUsing     GameStage = "SKILL_USING"
	StageAfterSkillUsed GameStage = "AFTER_SKILL_USED"

	StageBeforeSkillEffect GameStage = "BEFORE_SKILL_EFFECT"
	StageSkillEffecting    GameStage = "SKILL_EFFECTING"
	StageAfterSkillEffect  GameStage = "AFTER_SKILL_EFFECT"

	StageBeforePhaseChange GameStage = "BEFORE_PHASE_CHANGE"
	StagePhaseChanged      GameStage = "PHASE_CHANGED"
	StageAfterPhaseChanged GameStage = "AFTER_PHASE_CHANGED"

	StagePlayerDying      GameStage = "PLAYER_DYING"
	StageAfterPlayerDying GameStage = "AFTER_PLAYER_DYING"

	StagePlayerDied      GameStage = "PLAYER_DIED"
	StageAfterPlayerDied GameStage = "AFTER_PLAYER_DIED"
)

// eventStages maps each dispatched event kind to its fixed window sequence.
// The middle "effect" window is where the event's state change commits; a
// handler may cancel or redirect the event at any window before it.
var eventStages = map[EventKind][]GameStage{
	EventCardUse:      {StageBeforeCardUseEffect, StageCardUseEffect, StageAfterCardUseEffect},
	EventCardEffect:   {StageBeforeCardEffect, StageCardEffecting, StageAfterCardEffect},
	EventCardResponse: {StageBeforeCardResponseEffect, StageCardResponseEffect, StageAfterCardResponseEffect},
	EventCardLost:     {StageBeforeCardLostEffect, StageCardLostEffect, StageAfterCardLostEffect},
	EventObtainCard:   {StageBeforeObtainCardEffect, StageObtainCardEffect, StageAfterObtainCardEffect},
	EventDrawCard:     {StageBeforeDrawCardEffect, StageDrawCardEffect, StageAfterDrawCardEffect},
	EventDamage:       {StageBeforeDamageEffect, StageDamageEffect, StageAfterDamageEffect},
	EventLoseHp:       {StageBeforeLoseHpEffect, StageLoseHpEffect, StageAfterLoseHpEffect},
	EventRecover:      {StageBeforeRecoverEffect, StageRecoverEffect, StageAfterRecoverEffect},
	EventSkillUse:     {StageBeforeSkillUse, StageSkillUsing, StageAfterSkillUsed},
	EventSkillEffect:  {StageBeforeSkillEffect, StageSkillEffecting, StageAfterSkillEffect},
	EventPhaseChange:  {StageBeforePhaseChange, StagePhaseChanged, StageAfterPhaseChanged},
	EventPlayerDying:  {StagePlayerDying, StageAfterPlayerDying},
	EventPlayerDied:   {StagePlayerDied, StageAfterPlayerDied},
}

// commitStages marks the window within each sequence at which the event's
// state change commits.
var commitStages = map[EventKind]GameStage{
	EventCardUse:      StageCardUseEffect,
	EventCardEffect:   StageCardEffecting,
	EventCardResponse: StageCardResponseEffect,
	EventCardLost:     StageCardLostEffect,
	EventObtainCard:   StageObtainCardEffect,
	EventDrawCard:     StageDrawCardEffect,
	EventDamage:       StageDamageEffect,
	EventLoseHp:       StageLoseHpEffect,
	EventRecover:      StageRecoverEffect,
	EventSkillUse:     StageSkillUsing,
	EventSkillEffect:  StageSkillEffecting,
	EventPhaseChange:  StagePhaseChanged,
	EventPlayerDying:  StagePlayerDying,
	EventPlayerDied:   StagePlayerDied,
}

// StagesOf returns the window sequence for an event kind. Kinds without
// windows (pure notifications such as CardDisplay) return nil and commit
// immediately.
func StagesOf(kind EventKind) []GameStage {
	return eventStages[kind]
}

// IsCommitStage reports whether the given window is the commit point of the
// event kind's lifecycle.
func IsCommitStage(kind EventKind, stage GameStage) bool {
	return commitStages[kind] == stage
}

// TurnManager tracks turn ownership and phase progression through the fixed
// phase order. Death resolution happens out of band and never advances it.
type TurnManager struct {
	seatOrder    []string
	currentIndex int
	phaseIndex   int
	turnNumber   int
}

// NewTurnManager creates a turn manager starting at the first seat's
// prepare phase.
func NewTurnManager(seatOrder []string) *TurnManager {
	order := make([]string, 0, len(seatOrder))
	for _, id := range seatOrder {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			order = append(order, trimmed)
		}
	}
	return &TurnManager{
		seatOrder:  order,
		turnNumber: 1,
	}
}

// CurrentPlayer returns the id of the player who owns the current turn.
func (tm *TurnManager) CurrentPlayer() string {
	if len(tm.seatOrder) == 0 {
		return ""
	}
	return tm.seatOrder[tm.currentIndex]
}

// CurrentPhase returns the phase in progress.
func (tm *TurnManager) CurrentPhase() PlayerPhase {
	return phaseSequence[tm.phaseIndex]
}

// TurnNumber returns the 1-based turn counter.
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// SeatOrder returns the fixed seating order.
func (tm *TurnManager) SeatOrder() []string {
	order := make([]string, len(tm.seatOrder))
	copy(order, tm.seatOrder)
	return order
}

// NextPhase advances to the next phase in the fixed order. After Finish the
// turn passes to the next seat for which alive reports true, Prepare is
// re-entered, and the turn number increments. Returns the phase entered and
// whether turn ownership changed.
func (tm *TurnManager) NextPhase(alive func(playerID string) bool) (PlayerPhase, bool) {
	tm.phaseIndex++
	if tm.phaseIndex < len(phaseSequence) {
		return tm.CurrentPhase(), false
	}

	tm.phaseIndex = 0
	tm.turnNumber++
	for i := 1; i <= len(tm.seatOrder); i++ {
		idx := (tm.currentIndex + i) % len(tm.seatOrder)
		if alive == nil || alive(tm.seatOrder[idx]) {
			tm.currentIndex = idx
			break
		}
	}
	return tm.CurrentPhase(), true
}

// SeatsFrom returns the seating order rotated to start at the given player.
// Unknown players yield the unrotated order. Trigger ordering and rescue
// asks both start from the event's principal actor.
func (tm *TurnManager) SeatsFrom(playerID string) []string {
	start := -1
	for i, id := range tm.seatOrder {
		if id == playerID {
			start = i
			break
		}
	}
	if start == -1 {
		return tm.SeatOrder()
	}

	result := make([]string, 0, len(tm.seatOrder))
	for i := 0; i < len(tm.seatOrder); i++ {
		result = append(result, tm.seatOrder[(start+i)%len(tm.seatOrder)])
	}
	return result
}

// SeatDistance returns how many seats clockwise separate from and to; 0 for
// the same seat, -1 when either is unknown.
func (tm *TurnManager) SeatDistance(fromID, toID string) int {
	fromIdx, toIdx := -1, -1
	for i, id := range tm.seatOrder {
		if id == fromID {
			fromIdx = i
		}
		if id == toID {
			toIdx = i
		}
	}
	if fromIdx == -1 || toIdx == -1 {
		return -1
	}
	return (toIdx - fromIdx + len(tm.seatOrder)) % len(tm.seatOrder)
}
