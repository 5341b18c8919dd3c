package game

import (
	"sync"

	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
)

// MemoryJournal keeps the event log in memory. The default journal; the
// repository package offers the persistent one.
type MemoryJournal struct {
	mu     sync.Mutex
	events []rules.Event
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// Append records an event.
func (j *MemoryJournal) Append(ev rules.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, ev)
	return nil
}

// Events returns a copy of the log.
func (j *MemoryJournal) Events() []rules.Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]rules.Event, len(j.events))
	copy(out, j.events)
	return out
}

// ReplayPlayer is one seat's state as reconstructed from the journal.
type ReplayPlayer struct {
	ID      string
	HP      int
	Dead    bool
	Hand    map[int]bool
	Equip   map[int]bool
}

// ReplayState is a room's visible state rebuilt from the linear journal.
// It reconstructs what a spectator could know: seats, hp deltas, card
// locations, phase progression, and the outcome. Hidden inputs (asks and
// their answers) are not replayed; only their committed consequences are.
type ReplayState struct {
	Players       map[string]*ReplayPlayer
	SeatOrder     []string
	TurnCount     int
	CurrentPlayer string
	GameOver      bool
	Winners       []string
	EventCount    int
}

// Rebuild folds a journal into a ReplayState. Events that never commit
// state (windows for cancelled chains are absent from the journal's
// committed consequences anyway) fold to no-ops.
func Rebuild(events []rules.Event) *ReplayState {
	st := &ReplayState{Players: map[string]*ReplayPlayer{}}

	player := func(id string) *ReplayPlayer {
		p, ok := st.Players[id]
		if !ok {
			p = &ReplayPlayer{ID: id, Hand: map[int]bool{}, Equip: map[int]bool{}}
			st.Players[id] = p
		}
		return p
	}

	for _, ev := range events {
		st.EventCount++
		switch ev.Kind {
		case rules.EventGameStart:
			st.SeatOrder = ev.Players
			st.TurnCount = 1
			if len(ev.Players) > 0 {
				st.CurrentPlayer = ev.Players[0]
			}
			for _, id := range ev.Players {
				player(id)
			}
		case rules.EventPhaseChange:
			if ev.ToPlayer != "" && ev.ToPlayer != st.CurrentPlayer {
				st.CurrentPlayer = ev.ToPlayer
				st.TurnCount++
			}
		case rules.EventDamage, rules.EventLoseHp:
			if len(ev.ToIDs) > 0 {
				player(ev.ToIDs[0]).HP -= ev.Amount
			}
		case rules.EventRecover:
			if len(ev.ToIDs) > 0 {
				player(ev.ToIDs[0]).HP += ev.Amount
			}
		case rules.EventObtainCard, rules.EventDrawCard:
			target := ev.FromID
			if len(ev.ToIDs) > 0 {
				target = ev.ToIDs[0]
			}
			if target != "" {
				p := player(target)
				for _, cardID := range ev.CardIDs {
					p.Hand[cardID] = true
				}
			}
		case rules.EventEquip:
			p := player(ev.FromID)
			for _, cardID := range ev.CardIDs {
				delete(p.Hand, cardID)
				p.Equip[cardID] = true
			}
		case rules.EventCardLost, rules.EventCardDrop:
			p := player(ev.FromID)
			for _, cardID := range ev.CardIDs {
				delete(p.Hand, cardID)
				delete(p.Equip, cardID)
			}
		case rules.EventPlayerDied:
			p := player(ev.FromID)
			p.Dead = true
			p.Hand = map[int]bool{}
			p.Equip = map[int]bool{}
		case rules.EventGameOver:
			st.GameOver = true
			st.Winners = ev.WinnerIDs
		}
	}
	return st
}
