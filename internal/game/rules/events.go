package rules

import (
	"time"

	"github.com/google/uuid"
)

// EventKind indicates the category of a game event.
type EventKind string

const (
	// Lifecycle events
	EventGameReady      EventKind = "GAME_READY"
	EventGameStart      EventKind = "GAME_START"
	EventGameOver       EventKind = "GAME_OVER"
	EventPlayerEnter    EventKind = "PLAYER_ENTER"
	EventPlayerLeave    EventKind = "PLAYER_LEAVE"
	EventPlayerTurnOver EventKind = "PLAYER_TURN_OVER"

	// Turn/phase events
	EventPhaseChange      EventKind = "PHASE_CHANGE"
	EventPhaseStageChange EventKind = "PHASE_STAGE_CHANGE"

	// Card events
	EventCardUse      EventKind = "CARD_USE"
	EventCardEffect   EventKind = "CARD_EFFECT"
	EventCardResponse EventKind = "CARD_RESPONSE"
	EventCardDrop     EventKind = "CARD_DROP"
	EventCardDisplay  EventKind = "CARD_DISPLAY"
	EventCardLost     EventKind = "CARD_LOST"
	EventMoveCard     EventKind = "MOVE_CARD"
	EventObtainCard   EventKind = "OBTAIN_CARD"
	EventDrawCard     EventKind = "DRAW_CARD"
	EventEquip        EventKind = "EQUIP"
	EventAim          EventKind = "AIM"

	// Hit point events
	EventDamage  EventKind = "DAMAGE"
	EventLoseHp  EventKind = "LOSE_HP"
	EventRecover EventKind = "RECOVER"

	// Skill events
	EventSkillUse    EventKind = "SKILL_USE"
	EventSkillEffect EventKind = "SKILL_EFFECT"
	EventObtainSkill EventKind = "OBTAIN_SKILL"
	EventLoseSkill   EventKind = "LOSE_SKILL"

	// Death events
	EventPlayerDying EventKind = "PLAYER_DYING"
	EventPlayerDied  EventKind = "PLAYER_DIED"

	// Async request events (server asks, client answers)
	EventAskForCardUse                EventKind = "ASK_FOR_CARD_USE"
	EventAskForCardResponse           EventKind = "ASK_FOR_CARD_RESPONSE"
	EventAskForCardDrop               EventKind = "ASK_FOR_CARD_DROP"
	EventAskForCardDisplay            EventKind = "ASK_FOR_CARD_DISPLAY"
	EventAskForSkillUse               EventKind = "ASK_FOR_SKILL_USE"
	EventAskForPeach                  EventKind = "ASK_FOR_PEACH"
	EventAskForChoosingCard           EventKind = "ASK_FOR_CHOOSING_CARD"
	EventAskForChoosingCardFromPlayer EventKind = "ASK_FOR_CHOOSING_CARD_FROM_PLAYER"
	EventAskForChoosingPlayer         EventKind = "ASK_FOR_CHOOSING_PLAYER"
	EventAskForChoosingOptions        EventKind = "ASK_FOR_CHOOSING_OPTIONS"
	EventAskForPlayCardsOrSkills      EventKind = "ASK_FOR_PLAY_CARDS_OR_SKILLS"
)

// IsAsk reports whether this event kind expects an async answer from a client.
func (ek EventKind) IsAsk() bool {
	askEvents := map[EventKind]bool{
		EventAskForCardUse:                true,
		EventAskForCardResponse:           true,
		EventAskForCardDrop:               true,
		EventAskForCardDisplay:            true,
		EventAskForSkillUse:               true,
		EventAskForPeach:                  true,
		EventAskForChoosingCard:           true,
		EventAskForChoosingCardFromPlayer: true,
		EventAskForChoosingPlayer:         true,
		EventAskForChoosingOptions:        true,
		EventAskForPlayCardsOrSkills:      true,
	}
	return askEvents[ek]
}

// CardArea identifies one of a player's four card zones.
type CardArea int

const (
	AreaHand CardArea = iota
	AreaJudge
	AreaHolding
	AreaEquip
)

func (a CardArea) String() string {
	switch a {
	case AreaHand:
		return "HAND"
	case AreaJudge:
		return "JUDGE"
	case AreaHolding:
		return "HOLDING"
	case AreaEquip:
		return "EQUIP"
	default:
		return "UNKNOWN"
	}
}

// AllAreas lists the four zones in the order burial sweeps them.
var AllAreas = []CardArea{AreaEquip, AreaHand, AreaHolding, AreaJudge}

// CardLostReason describes why a card left a player's zones.
type CardLostReason string

const (
	LostReasonActiveMove   CardLostReason = "ACTIVE_MOVE"
	LostReasonActiveDrop   CardLostReason = "ACTIVE_DROP"
	LostReasonPassiveDrop  CardLostReason = "PASSIVE_DROP"
	LostReasonPassiveMove  CardLostReason = "PASSIVE_MOVE"
	LostReasonCardUse      CardLostReason = "CARD_USE"
	LostReasonCardResponse CardLostReason = "CARD_RESPONSE"
)

// CardObtainedReason describes how a card entered a player's zones.
type CardObtainedReason string

const (
	ObtainReasonActivePrey      CardObtainedReason = "ACTIVE_PREY"
	ObtainReasonPassiveObtained CardObtainedReason = "PASSIVE_OBTAINED"
	ObtainReasonCardDraw        CardObtainedReason = "CARD_DRAW"
)

// DamageType tags the flavor of a damage event.
type DamageType string

const (
	DamageNormal  DamageType = "NORMAL"
	DamageThunder DamageType = "THUNDER"
	DamageFire    DamageType = "FIRE"
)

// Translation is a locale-neutral message: a template plus positional
// arguments, resolved client-side by the translation layer. The core only
// constructs templates, never localized strings.
type Translation struct {
	Template string   `json:"template"`
	Args     []string `json:"args,omitempty"`
}

// Tr builds a Translation from a template and its positional arguments.
func Tr(template string, args ...string) Translation {
	return Translation{Template: template, Args: args}
}

// IsZero reports whether no translation message was set.
func (t Translation) IsZero() bool {
	return t.Template == ""
}

// CardMatcher narrows the set of legal cards in an async answer. Criteria are
// pure data so the matcher can travel inside an event envelope; the catalog
// evaluates it against card definitions.
type CardMatcher struct {
	Names []string `json:"names,omitempty"`
	Types []string `json:"types,omitempty"`
	Suits []string `json:"suits,omitempty"`
}

// Event is the envelope every game occurrence travels in. One flat shape is
// shared by all kinds; a kind uses the fields its payload contract names and
// leaves the rest zero.
type Event struct {
	Kind EventKind `json:"kind"`
	ID   string    `json:"id"`

	// Principal actor. Empty for system-generated events.
	FromID string   `json:"fromId,omitempty"`
	ToIDs  []string `json:"toIds,omitempty"`

	CardIDs []int `json:"cardIds,omitempty"`
	// ByCardID is the card that provoked this event (e.g. the slash a jink
	// answers). Zero means none.
	ByCardID int    `json:"byCardId,omitempty"`
	BySkill  string `json:"bySkill,omitempty"`

	Amount     int                `json:"amount,omitempty"`
	DamageType DamageType         `json:"damageType,omitempty"`
	FromArea   CardArea           `json:"fromArea,omitempty"`
	ToArea     CardArea           `json:"toArea,omitempty"`
	FromAreas  []CardArea         `json:"fromAreas,omitempty"`
	LostReason CardLostReason     `json:"lostReason,omitempty"`
	ObtainedBy CardObtainedReason `json:"obtainedBy,omitempty"`

	// Fields for ask events.
	Matcher        *CardMatcher `json:"matcher,omitempty"`
	Options        []string     `json:"options,omitempty"`
	Players        []string     `json:"players,omitempty"`
	RequiredAmount int          `json:"requiredAmount,omitempty"`
	CardAmount     int          `json:"cardAmount,omitempty"`
	Conversation   Translation  `json:"conversation,omitempty"`
	Uncancellable  bool         `json:"uncancellable,omitempty"`

	// Game over payload.
	WinnerIDs []string `json:"winnerIds,omitempty"`
	LoserIDs  []string `json:"loserIds,omitempty"`

	// Phase change payload.
	FromPhase  PlayerPhase `json:"fromPhase,omitempty"`
	ToPhase    PlayerPhase `json:"toPhase,omitempty"`
	FromPlayer string      `json:"fromPlayer,omitempty"`
	ToPlayer   string      `json:"toPlayer,omitempty"`

	Translation Translation `json:"translation,omitempty"`

	// Cancelled marks a terminated chain; stages downstream of the
	// cancellation point never run.
	Cancelled bool `json:"cancelled,omitempty"`

	// TriggeredOnEvent is the causal back-link to the event this one reacts
	// to. Not serialized: reactive chains exist server-side only.
	TriggeredOnEvent *Event `json:"-"`

	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event with identity and timestamp populated.
func NewEvent(kind EventKind, fromID string) Event {
	return Event{
		Kind:      kind,
		ID:        uuid.NewString(),
		FromID:    fromID,
		Timestamp: time.Now(),
	}
}

// Causal returns the event's causal back-link, or ErrMissingCausalContext
// when a reactive handler runs without its originating event. This aborts
// only the resolution chain that needed the link, never the room.
func (ev *Event) Causal() (*Event, error) {
	if ev.TriggeredOnEvent == nil {
		return nil, ErrMissingCausalContext
	}
	return ev.TriggeredOnEvent, nil
}

// Response is a client's answer to an ask event. An answer carrying no
// selection at all is a decline (legal only for cancellable asks).
type Response struct {
	FromID string `json:"fromId"`

	CardID          int      `json:"cardId,omitempty"`
	CardIDs         []int    `json:"cardIds,omitempty"`
	DroppedCards    []int    `json:"droppedCards,omitempty"`
	SelectedCard    int      `json:"selectedCard,omitempty"`
	SelectedCards   []int    `json:"selectedCards,omitempty"`
	SelectedPlayers []string `json:"selectedPlayers,omitempty"`
	SelectedOption  string   `json:"selectedOption,omitempty"`
	ToIDs           []string `json:"toIds,omitempty"`
	SkillName       string   `json:"skillName,omitempty"`
}

// Declined reports whether the answer carries no selection at all.
func (r Response) Declined() bool {
	return r.CardID == 0 &&
		len(r.CardIDs) == 0 &&
		len(r.DroppedCards) == 0 &&
		r.SelectedCard == 0 &&
		len(r.SelectedCards) == 0 &&
		len(r.SelectedPlayers) == 0 &&
		r.SelectedOption == "" &&
		r.SkillName == ""
}
