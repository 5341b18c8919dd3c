package game

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/sanguosha-online/sgs-server-go/internal/catalog"
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
	"github.com/sanguosha-online/sgs-server-go/internal/game/skill"
)

// scriptedNotifier answers asks from a script and records every push. The
// room calls Notify before it awaits, and the answer channel is buffered,
// so answering synchronously inside Notify never deadlocks.
type scriptedNotifier struct {
	mu         sync.Mutex
	room       *Room
	answer     func(playerID string, request rules.Event) rules.Response
	broadcasts []rules.Event
	notifies   []rules.Event
}

func (n *scriptedNotifier) Notify(playerID string, ev rules.Event) {
	n.mu.Lock()
	n.notifies = append(n.notifies, ev)
	answer := n.answer
	n.mu.Unlock()

	if !ev.Kind.IsAsk() || n.room == nil {
		return
	}
	resp := rules.Response{FromID: playerID}
	if answer != nil {
		resp = answer(playerID, ev)
	}
	_ = n.room.DeliverAnswer(playerID, resp)
}

func (n *scriptedNotifier) Broadcast(ev rules.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts = append(n.broadcasts, ev)
}

func (n *scriptedNotifier) broadcastKinds() []rules.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]rules.EventKind, len(n.broadcasts))
	for i, ev := range n.broadcasts {
		kinds[i] = ev.Kind
	}
	return kinds
}

type testSeat struct {
	id          string
	characterID int
	role        Role
}

// newTestRoom builds a started room with a fixed shuffle seed and a
// decline-everything script.
func newTestRoom(t *testing.T, seats ...testSeat) (*Room, *scriptedNotifier, *MemoryJournal) {
	t.Helper()

	notifier := &scriptedNotifier{}
	journal := NewMemoryJournal()
	room := NewRoom(Options{
		ID:         "test-room",
		Catalog:    catalog.NewStandard(),
		Skills:     skill.NewStandardRegistry(),
		Notifier:   notifier,
		Journal:    journal,
		Logger:     zaptest.NewLogger(t),
		AskTimeout: 250 * time.Millisecond,
		Seed:       42,
	})
	notifier.room = room

	for _, seat := range seats {
		if _, err := room.AddPlayer(seat.id, seat.id, seat.characterID, seat.role); err != nil {
			t.Fatalf("add player %s: %v", seat.id, err)
		}
	}
	if err := room.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return room, notifier, journal
}

// giveCard plants a specific card into a player's zone, pulling it out of
// the stacks so no duplicate enters play.
func giveCard(t *testing.T, r *Room, playerID string, area rules.CardArea, cardName string) int {
	t.Helper()
	for _, id := range append(append([]int{}, r.drawStack...), r.discardStack...) {
		def, err := r.catalog.CardByID(id)
		if err != nil {
			t.Fatalf("card %d: %v", id, err)
		}
		if def.Name == cardName {
			r.takeFromStacks(id)
			r.byID[playerID].AddCard(area, id)
			return id
		}
	}
	t.Fatalf("no %s left in stacks", cardName)
	return 0
}

// assertCardConservation checks that the deck is exactly partitioned across
// the two stacks and every player's zones: no card duplicated, none lost.
func assertCardConservation(t *testing.T, r *Room) {
	t.Helper()
	expected := map[int]int{}
	for _, id := range r.catalog.DeckOrder() {
		expected[id]++
	}
	got := map[int]int{}
	for _, id := range r.drawStack {
		got[id]++
	}
	for _, id := range r.discardStack {
		got[id]++
	}
	for _, p := range r.players {
		for _, id := range p.CardsIn() {
			got[id]++
		}
	}
	for id, n := range expected {
		if got[id] != n {
			t.Errorf("card %d: %d copies in play, deck has %d", id, got[id], n)
		}
	}
	for id := range got {
		if expected[id] == 0 {
			t.Errorf("card %d in play but not in the deck", id)
		}
	}
}

// advanceTo steps the turn manager until the given player's phase without
// running phase actions.
func advanceTo(t *testing.T, r *Room, playerID string, phase rules.PlayerPhase) {
	t.Helper()
	for i := 0; i < 64; i++ {
		if r.CurrentPlayerID() == playerID && r.CurrentPhase() == phase {
			return
		}
		r.turn.NextPhase(r.PlayerAlive)
	}
	t.Fatalf("never reached %s's %s phase", playerID, phase)
}
