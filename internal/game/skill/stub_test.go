package skill

import (
	"github.com/sanguosha-online/sgs-server-go/internal/catalog"
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
)

// roomStub implements Room for skill tests. Behavior hooks are function
// fields; unset hooks fall back to inert defaults. Mutations are recorded
// for assertions.
type roomStub struct {
	catalog   *catalog.Catalog
	current   string
	phase     rules.PlayerPhase
	alive     []string
	hp        map[string][2]int
	cards     map[string][]int
	marks     map[string]int
	drawStack []int

	askFn    func(playerID string, request rules.Event) (rules.Response, error)
	attackFn func(fromID, toID string) bool

	usedCards  []*rules.Event
	responses  []*rules.Event
	damages    []*rules.Event
	recovers   []*rules.Event
	moves      []*rules.Event
	obtained   [][]int
	obtainedBy []string
	dropped    [][]int
	broadcasts []rules.Event
	extraHold  map[string]int
}

func newRoomStub() *roomStub {
	return &roomStub{
		catalog:   catalog.NewStandard(),
		hp:        map[string][2]int{},
		cards:     map[string][]int{},
		marks:     map[string]int{},
		extraHold: map[string]int{},
	}
}

func markKey(playerID, name string) string { return playerID + "/" + name }

func (r *roomStub) Catalog() *catalog.Catalog       { return r.catalog }
func (r *roomStub) CurrentPlayerID() string         { return r.current }
func (r *roomStub) CurrentPhase() rules.PlayerPhase { return r.phase }

func (r *roomStub) PlayerAlive(playerID string) bool {
	for _, id := range r.alive {
		if id == playerID {
			return true
		}
	}
	return false
}

func (r *roomStub) AlivePlayerIDs(fromID string) []string {
	out := make([]string, len(r.alive))
	copy(out, r.alive)
	return out
}

func (r *roomStub) PlayerHP(playerID string) (int, int) {
	pair := r.hp[playerID]
	return pair[0], pair[1]
}

func (r *roomStub) PlayerCards(playerID string, areas ...rules.CardArea) []int {
	return r.cards[playerID]
}

func (r *roomStub) CardUseCount(string, string) int  { return 0 }
func (r *roomStub) SkillUseCount(string, string) int { return 0 }

func (r *roomStub) InvisibleMark(playerID, markName string) int {
	return r.marks[markKey(playerID, markName)]
}

func (r *roomStub) SeatDistance(string, string) int { return 1 }
func (r *roomStub) AttackDistance(string) int       { return 1 }

func (r *roomStub) CanAttack(fromID, toID string) bool {
	if r.attackFn != nil {
		return r.attackFn(fromID, toID)
	}
	return fromID != toID
}

func (r *roomStub) DyingPlayerID() string { return "" }

func (r *roomStub) PeekDrawStack(n int) []int {
	if n > len(r.drawStack) {
		n = len(r.drawStack)
	}
	return r.drawStack[:n]
}

func (r *roomStub) UseCard(ev *rules.Event) error {
	r.usedCards = append(r.usedCards, ev)
	return nil
}

func (r *roomStub) ResponseCard(ev *rules.Event) error {
	r.responses = append(r.responses, ev)
	return nil
}

func (r *roomStub) Damage(ev *rules.Event) error {
	r.damages = append(r.damages, ev)
	return nil
}

func (r *roomStub) LoseHp(string, int, *rules.Event) error { return nil }

func (r *roomStub) Recover(ev *rules.Event) error {
	r.recovers = append(r.recovers, ev)
	return nil
}

func (r *roomStub) DrawCards(string, int, *rules.Event) error { return nil }

func (r *roomStub) ObtainCards(toID string, cardIDs []int, _ rules.CardObtainedReason, _ *rules.Event) error {
	r.obtained = append(r.obtained, cardIDs)
	r.obtainedBy = append(r.obtainedBy, toID)
	return nil
}

func (r *roomStub) DropCards(_ string, cardIDs []int, _ rules.CardLostReason, _ *rules.Event) error {
	r.dropped = append(r.dropped, cardIDs)
	return nil
}

func (r *roomStub) MoveCards(ev *rules.Event) error {
	r.moves = append(r.moves, ev)
	return nil
}

func (r *roomStub) SetInvisibleMark(playerID, markName string, amount int) {
	r.marks[markKey(playerID, markName)] = amount
}

func (r *roomStub) AddExtraHoldCards(playerID string, delta int) {
	r.extraHold[playerID] += delta
}

func (r *roomStub) ObtainSkills(string, ...string) error { return nil }
func (r *roomStub) LoseSkills(string, ...string) error   { return nil }

func (r *roomStub) Broadcast(ev rules.Event) {
	r.broadcasts = append(r.broadcasts, ev)
}

func (r *roomStub) Notify(string, rules.Event) {}

func (r *roomStub) Ask(playerID string, request rules.Event) (rules.Response, error) {
	if r.askFn != nil {
		return r.askFn(playerID, request)
	}
	return rules.Response{FromID: playerID}, nil
}

// cardIDByName finds the first deck card with the given name.
func (r *roomStub) cardIDByName(name string) int {
	for _, id := range r.catalog.DeckOrder() {
		def, _ := r.catalog.CardByID(id)
		if def.Name == name {
			return id
		}
	}
	return 0
}
