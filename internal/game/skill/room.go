package skill

import (
	"github.com/sanguosha-online/sgs-server-go/internal/catalog"
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
)

// Room is the game surface skills act through. The game package implements
// it; skills never hold player or card structs, only ids, so the same skill
// descriptor serves every room concurrently.
type Room interface {
	// Queries.
	Catalog() *catalog.Catalog
	CurrentPlayerID() string
	CurrentPhase() rules.PlayerPhase
	PlayerAlive(playerID string) bool
	// AlivePlayerIDs returns living players in seat order starting at
	// fromID (or the current turn owner when fromID is empty).
	AlivePlayerIDs(fromID string) []string
	PlayerHP(playerID string) (hp, maxHP int)
	// PlayerCards returns card ids in the given zones, all zones when none
	// are named.
	PlayerCards(playerID string, areas ...rules.CardArea) []int
	CardUseCount(playerID, cardName string) int
	SkillUseCount(playerID, skillName string) int
	InvisibleMark(playerID, markName string) int
	SeatDistance(fromID, toID string) int
	// AttackDistance is the equipped weapon's reach (default 1); ride
	// deltas shift SeatDistance instead.
	AttackDistance(playerID string) int
	CanAttack(fromID, toID string) bool
	// PeekDrawStack returns the top n card ids without moving them.
	PeekDrawStack(n int) []int
	// DyingPlayerID names the player currently in the rescue pipeline,
	// empty outside it.
	DyingPlayerID() string

	// Mutations. Each dispatches the corresponding event through its
	// timing windows; errors reject with no state change.
	UseCard(ev *rules.Event) error
	ResponseCard(ev *rules.Event) error
	Damage(ev *rules.Event) error
	LoseHp(playerID string, amount int, cause *rules.Event) error
	Recover(ev *rules.Event) error
	DrawCards(playerID string, amount int, cause *rules.Event) error
	ObtainCards(toID string, cardIDs []int, reason rules.CardObtainedReason, cause *rules.Event) error
	DropCards(playerID string, cardIDs []int, reason rules.CardLostReason, cause *rules.Event) error
	MoveCards(ev *rules.Event) error
	SetInvisibleMark(playerID, markName string, amount int)
	// AddExtraHoldCards shifts the player's discard-phase hand limit.
	AddExtraHoldCards(playerID string, delta int)
	ObtainSkills(playerID string, skillNames ...string) error
	LoseSkills(playerID string, skillNames ...string) error

	// Protocol.
	Broadcast(ev rules.Event)
	Notify(playerID string, ev rules.Event)
	// Ask suspends the dispatch chain until the player answers, times out,
	// or disconnects. Malformed and timed-out answers resolve to the
	// request's default.
	Ask(playerID string, request rules.Event) (rules.Response, error)
}
