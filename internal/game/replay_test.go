package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanguosha-online/sgs-server-go/internal/catalog"
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
	"github.com/sanguosha-online/sgs-server-go/internal/game/skill"
)

// playFixedOpening drives a deterministic opening: lord slashes the rebel,
// who declines.
func playFixedOpening(t *testing.T, room *Room) {
	t.Helper()
	advanceTo(t, room, "lord", rules.PhasePlay)
	slashID := giveCard(t, room, "lord", rules.AreaHand, catalog.CardSlash)

	use := rules.NewEvent(rules.EventCardUse, "lord")
	use.CardIDs = []int{slashID}
	use.ToIDs = []string{"rebel"}
	require.NoError(t, room.UseCard(&use))
}

func buildSeededRoom(t *testing.T, seed int64) (*Room, *scriptedNotifier, *MemoryJournal) {
	t.Helper()
	notifier := &scriptedNotifier{}
	journal := NewMemoryJournal()
	room := NewRoom(Options{
		ID:         "seeded",
		Catalog:    catalog.NewStandard(),
		Skills:     skill.NewStandardRegistry(),
		Notifier:   notifier,
		Journal:    journal,
		Logger:     zap.NewNop(),
		AskTimeout: 100 * time.Millisecond,
		Seed:       seed,
	})
	notifier.room = room
	for _, seat := range standardSeats() {
		_, err := room.AddPlayer(seat.id, seat.id, seat.characterID, seat.role)
		require.NoError(t, err)
	}
	require.NoError(t, room.Start())
	return room, notifier, journal
}

func TestSnapshotChecksumDeterministic(t *testing.T) {
	roomA, _, _ := buildSeededRoom(t, 7)
	roomB, _, _ := buildSeededRoom(t, 7)

	playFixedOpening(t, roomA)
	playFixedOpening(t, roomB)

	snapA, err := roomA.Snapshot()
	require.NoError(t, err)
	snapB, err := roomB.Snapshot()
	require.NoError(t, err)

	// Identical timelines, identical checksums (room ids match too).
	assert.Equal(t, snapA.Checksum, snapB.Checksum)

	ok, err := snapA.Verify()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSnapshotChecksumDetectsDivergence(t *testing.T) {
	roomA, _, _ := buildSeededRoom(t, 7)
	roomB, _, _ := buildSeededRoom(t, 7)
	playFixedOpening(t, roomA)
	playFixedOpening(t, roomB)

	roomB.byID["rebel"].HP--

	snapA, err := roomA.Snapshot()
	require.NoError(t, err)
	snapB, err := roomB.Snapshot()
	require.NoError(t, err)
	assert.NotEqual(t, snapA.Checksum, snapB.Checksum)
}

func TestRebuildReconstructsVisibleState(t *testing.T) {
	room, _, journal := buildSeededRoom(t, 7)
	playFixedOpening(t, room)

	st := Rebuild(journal.Events())

	require.Len(t, st.SeatOrder, 2)
	assert.Equal(t, []string{"lord", "rebel"}, st.SeatOrder)

	rebel := st.Players["rebel"]
	require.NotNil(t, rebel)
	assert.Equal(t, -1, rebel.HP, "journal folds one point of damage")
	assert.False(t, rebel.Dead)
	assert.False(t, st.GameOver)
}

func TestRebuildTracksDeathAndOutcome(t *testing.T) {
	room, _, journal := buildSeededRoom(t, 7)
	room.byID["rebel"].HP = 1

	damage := rules.NewEvent(rules.EventDamage, "lord")
	damage.ToIDs = []string{"rebel"}
	damage.Amount = 1
	require.NoError(t, room.Damage(&damage))
	require.True(t, room.GameOver())

	st := Rebuild(journal.Events())
	assert.True(t, st.Players["rebel"].Dead)
	assert.Empty(t, st.Players["rebel"].Hand, "burial clears the rebuilt hand")
	assert.True(t, st.GameOver)
	assert.Equal(t, []string{"lord"}, st.Winners)
}

func TestJournalRecordsDispatchedEvents(t *testing.T) {
	room, _, journal := buildSeededRoom(t, 7)
	playFixedOpening(t, room)

	var kinds []rules.EventKind
	for _, ev := range journal.Events() {
		kinds = append(kinds, ev.Kind)
	}
	assert.Contains(t, kinds, rules.EventGameStart)
	assert.Contains(t, kinds, rules.EventCardUse)
	assert.Contains(t, kinds, rules.EventCardLost)
	assert.Contains(t, kinds, rules.EventDamage)
}
