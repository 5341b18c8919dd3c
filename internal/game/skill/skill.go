package skill

import (
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
)

// InfiniteTriggeringTimes marks a skill with no per-refresh use ceiling.
const InfiniteTriggeringTimes = -1

// Skill is the identity every capability interface embeds. Skills are
// stateless descriptors shared across rooms; per-player counters and marks
// live on the player, keyed by skill name.
type Skill interface {
	Name() string
	Description() rules.Translation

	// TriggerableTimes is the use ceiling per refresh window;
	// InfiniteTriggeringTimes lifts it.
	TriggerableTimes() int

	// RefreshAt reports whether the skill's use counter resets when the
	// owner enters the given phase.
	RefreshAt(phase rules.PlayerPhase) bool

	// IsShadow marks skills that exist only as implementation halves of a
	// visible general skill; they never appear in a player's skill list
	// shown to clients.
	IsShadow() bool

	// GeneralName names the visible skill a shadow skill belongs to. Empty
	// for ordinary skills. Shadow skills share invisible marks with their
	// general through this name.
	GeneralName() string
}

// TriggerSkill reacts to events at timing windows.
type TriggerSkill interface {
	Skill

	// IsTriggerable filters by event shape alone; no room access so the
	// engine can gather candidates cheaply.
	IsTriggerable(ev *rules.Event, stage rules.GameStage) bool

	// IsCompulsory skills trigger without asking the owner and order before
	// optional skills.
	IsCompulsory() bool

	// IsAutoTrigger skills skip the opt-in ask but stay in optional order.
	IsAutoTrigger() bool

	// CanUse checks legality against room state for a specific owner.
	CanUse(room Room, ownerID string, ev *rules.Event) bool

	// OnTrigger runs before the skill-use event commits; returning false
	// withdraws the activation.
	OnTrigger(room Room, ownerID string, ev *rules.Event) (bool, error)

	// OnEffect applies the skill. ev is the skill-use event whose causal
	// link points at the triggering event.
	OnEffect(room Room, ownerID string, ev *rules.Event) error
}

// ActiveSkill is deliberately played: card skills and active character
// skills. Validation is layered: CanUse gates the whole activation,
// CardFilter/TargetFilter check the selected sets, the IsAvailable pair
// checks each candidate.
type ActiveSkill interface {
	Skill

	CanUse(room Room, ownerID string, byCardID int) bool
	NumberOfTargets() int
	CardFilter(room Room, ownerID string, cardIDs []int) bool
	TargetFilter(room Room, ownerID string, targetIDs []string, byCardID int) bool
	IsAvailableCard(room Room, ownerID string, cardID, byCardID int) bool
	IsAvailableTarget(room Room, ownerID, targetID string, byCardID int) bool

	// OnUse fixes the event's targets and translation before the card-use
	// windows run.
	OnUse(room Room, ev *rules.Event) error

	// OnEffect applies the per-target effect event.
	OnEffect(room Room, ev *rules.Event) error
}

// ResponsiveSkill answers asks instead of being played from an open hand
// (jink). Its effect runs inside the card-response flow.
type ResponsiveSkill interface {
	Skill
	OnResponse(room Room, ev *rules.Event) error
}

// DistanceSkill contributes fixed deltas to seat-distance computation,
// typically from ride equips. Offense shortens the owner's reach; defense
// pushes others away.
type DistanceSkill interface {
	Skill
	OffenseDelta() int
	DefenseDelta() int
}

// UseCardSkill rewrites per-name card use rules while equipped (the
// crossbow lifting the one-slash-per-turn rule).
type UseCardSkill interface {
	Skill
	BypassUseLimit(room Room, ownerID, cardName string) bool
}

// Base carries the descriptor fields every skill shares. Concrete skills
// embed it and implement their capability interfaces on top.
type Base struct {
	name             string
	description      rules.Translation
	triggerableTimes int
	shadow           bool
	generalName      string
	refreshPhases    map[rules.PlayerPhase]bool
}

// NewBase creates a descriptor with an infinite use ceiling and no refresh
// points; options adjust it.
func NewBase(name string, opts ...BaseOption) Base {
	b := Base{
		name:             name,
		description:      rules.Tr(name + "_description"),
		triggerableTimes: InfiniteTriggeringTimes,
		refreshPhases:    map[rules.PlayerPhase]bool{},
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// BaseOption adjusts a Base during construction.
type BaseOption func(*Base)

// WithTriggerableTimes sets the per-refresh use ceiling.
func WithTriggerableTimes(n int) BaseOption {
	return func(b *Base) { b.triggerableTimes = n }
}

// WithRefreshAt adds phases at which the use counter resets.
func WithRefreshAt(phases ...rules.PlayerPhase) BaseOption {
	return func(b *Base) {
		for _, p := range phases {
			b.refreshPhases[p] = true
		}
	}
}

// AsShadowOf marks the skill as the hidden half of a visible general skill.
func AsShadowOf(generalName string) BaseOption {
	return func(b *Base) {
		b.shadow = true
		b.generalName = generalName
	}
}

func (b Base) Name() string                          { return b.name }
func (b Base) Description() rules.Translation        { return b.description }
func (b Base) TriggerableTimes() int                 { return b.triggerableTimes }
func (b Base) RefreshAt(phase rules.PlayerPhase) bool { return b.refreshPhases[phase] }
func (b Base) IsShadow() bool                        { return b.shadow }
func (b Base) GeneralName() string                   { return b.generalName }
