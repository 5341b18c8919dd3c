package game

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
)

// PlayerSnapshot is one seat's visible state.
type PlayerSnapshot struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Seat        int              `json:"seat"`
	Role        Role             `json:"role"`
	CharacterID int              `json:"characterId"`
	HP          int              `json:"hp"`
	MaxHP       int              `json:"maxHp"`
	Dead        bool             `json:"dead"`
	Zones       map[string][]int `json:"zones"`
	SkillNames  []string         `json:"skillNames"`
	ExtraHold   int              `json:"extraHold"`
	Marks       map[string]int   `json:"marks,omitempty"`
}

// Snapshot is a room's full visible state plus a deterministic checksum,
// the resync alternative to journal replay.
type Snapshot struct {
	RoomID        string           `json:"roomId"`
	TurnNumber    int              `json:"turnNumber"`
	CurrentPlayer string           `json:"currentPlayer"`
	Phase         string           `json:"phase"`
	DrawStack     int              `json:"drawStack"`
	DiscardStack  int              `json:"discardStack"`
	Players       []PlayerSnapshot `json:"players"`
	GameOver      bool             `json:"gameOver"`
	Winners       []string         `json:"winners,omitempty"`
	Checksum      string           `json:"checksum"`
}

// Snapshot captures the room's current visible state. Two rooms that
// played identical timelines produce identical checksums.
func (r *Room) Snapshot() (Snapshot, error) {
	snap := Snapshot{
		RoomID:       r.id,
		DrawStack:    len(r.drawStack),
		DiscardStack: len(r.discardStack),
		GameOver:     r.gameOver,
		Winners:      r.winners,
	}
	if r.turn != nil {
		snap.TurnNumber = r.turn.TurnNumber()
		snap.CurrentPlayer = r.turn.CurrentPlayer()
		snap.Phase = r.turn.CurrentPhase().String()
	}

	for _, p := range r.players {
		zones := make(map[string][]int, len(rules.AllAreas))
		for _, area := range rules.AllAreas {
			cards := p.CardsIn(area)
			sort.Ints(cards)
			zones[area.String()] = cards
		}
		marks := map[string]int{}
		for _, name := range sortedMarkNames(p) {
			marks[name] = p.InvisibleMark(name)
		}
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:          p.ID,
			Name:        p.Name,
			Seat:        p.Seat,
			Role:        p.Role,
			CharacterID: p.CharacterID,
			HP:          p.HP,
			MaxHP:       p.MaxHP,
			Dead:        p.Dead,
			Zones:       zones,
			SkillNames:  p.SkillNames(),
			ExtraHold:   p.ExtraHoldCards(),
			Marks:       marks,
		})
	}

	sum, err := snap.computeChecksum()
	if err != nil {
		return Snapshot{}, err
	}
	snap.Checksum = sum
	return snap, nil
}

// computeChecksum hashes the snapshot's canonical JSON with the checksum
// field zeroed. Map keys marshal sorted, so the bytes are deterministic.
func (s Snapshot) computeChecksum() (string, error) {
	s.Checksum = ""
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("snapshot marshal: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Verify recomputes the checksum and compares.
func (s Snapshot) Verify() (bool, error) {
	sum, err := s.computeChecksum()
	if err != nil {
		return false, err
	}
	return sum == s.Checksum, nil
}

func sortedMarkNames(p *Player) []string {
	var names []string
	for name := range p.invisibleMarks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
