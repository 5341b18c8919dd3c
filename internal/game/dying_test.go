package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanguosha-online/sgs-server-go/internal/catalog"
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
)

func woundTo(t *testing.T, room *Room, playerID string, hp int) {
	t.Helper()
	p := room.byID[playerID]
	p.HP = hp
}

func TestDyingRescuedByPeach(t *testing.T) {
	room, notifier, _ := newTestRoom(t, standardSeats()...)
	woundTo(t, room, "rebel", 1)
	peachID := giveCard(t, room, "rebel", rules.AreaHand, catalog.CardPeach)

	notifier.answer = func(playerID string, request rules.Event) rules.Response {
		if request.Kind == rules.EventAskForPeach && playerID == "rebel" {
			return rules.Response{FromID: playerID, CardID: peachID}
		}
		return rules.Response{FromID: playerID}
	}

	damage := rules.NewEvent(rules.EventDamage, "lord")
	damage.ToIDs = []string{"rebel"}
	damage.Amount = 1
	require.NoError(t, room.Damage(&damage))

	assert.True(t, room.PlayerAlive("rebel"))
	hp, _ := room.PlayerHP("rebel")
	assert.Equal(t, 1, hp, "peach brings the victim back to 1")
	assert.False(t, room.GameOver())
}

func TestDyingUnrescuedDeathAndBurial(t *testing.T) {
	room, notifier, _ := newTestRoom(t,
		testSeat{"lord", catalog.CharLiuBei, RoleLord},
		testSeat{"loyal", catalog.CharGuanYu, RoleLoyalist},
		testSeat{"rebel", catalog.CharSunCe, RoleRebel},
	)
	woundTo(t, room, "rebel", 1)
	held := giveCard(t, room, "rebel", rules.AreaEquip, catalog.CardChiTu)

	damage := rules.NewEvent(rules.EventDamage, "lord")
	damage.ToIDs = []string{"rebel"}
	damage.Amount = 1
	require.NoError(t, room.Damage(&damage))

	assert.False(t, room.PlayerAlive("rebel"))
	assert.Empty(t, room.byID["rebel"].CardsIn(), "burial empties every zone")
	assert.Contains(t, room.discardStack, held)

	// Sole rebel dead: the lord side wins.
	require.True(t, room.GameOver())
	assert.ElementsMatch(t, []string{"lord", "loyal"}, room.Winners())

	kinds := notifier.broadcastKinds()
	assert.Contains(t, kinds, rules.EventGameOver)
}

func TestRescueAsksFollowSeatOrderFromVictim(t *testing.T) {
	room, notifier, _ := newTestRoom(t,
		testSeat{"lord", catalog.CharLiuBei, RoleLord},
		testSeat{"loyal", catalog.CharGuanYu, RoleLoyalist},
		testSeat{"rebel", catalog.CharSunCe, RoleRebel},
	)
	woundTo(t, room, "loyal", 1)

	var asked []string
	notifier.answer = func(playerID string, request rules.Event) rules.Response {
		if request.Kind == rules.EventAskForPeach {
			asked = append(asked, playerID)
		}
		return rules.Response{FromID: playerID}
	}

	damage := rules.NewEvent(rules.EventDamage, "rebel")
	damage.ToIDs = []string{"loyal"}
	damage.Amount = 1
	require.NoError(t, room.Damage(&damage))

	assert.Equal(t, []string{"loyal", "rebel", "lord"}, asked,
		"rescue asks start at the victim and walk the seats")
}

func TestLordDeathEndsGameForRebels(t *testing.T) {
	room, _, _ := newTestRoom(t,
		testSeat{"lord", catalog.CharLiuBei, RoleLord},
		testSeat{"rebel", catalog.CharSunCe, RoleRebel},
	)
	woundTo(t, room, "lord", 1)

	damage := rules.NewEvent(rules.EventDamage, "rebel")
	damage.ToIDs = []string{"lord"}
	damage.Amount = 1
	require.NoError(t, room.Damage(&damage))

	require.True(t, room.GameOver())
	assert.Equal(t, []string{"rebel"}, room.Winners())
}

func TestLoneRenegadeWinsWhenLordFalls(t *testing.T) {
	room, _, _ := newTestRoom(t,
		testSeat{"lord", catalog.CharLiuBei, RoleLord},
		testSeat{"renegade", catalog.CharLuSu, RoleRenegade},
	)
	woundTo(t, room, "lord", 1)

	damage := rules.NewEvent(rules.EventDamage, "renegade")
	damage.ToIDs = []string{"lord"}
	damage.Amount = 1
	require.NoError(t, room.Damage(&damage))

	require.True(t, room.GameOver())
	assert.Equal(t, []string{"renegade"}, room.Winners())
}

func TestMutationsRejectedAfterGameOver(t *testing.T) {
	room, _, _ := newTestRoom(t, standardSeats()...)
	woundTo(t, room, "lord", 1)

	damage := rules.NewEvent(rules.EventDamage, "rebel")
	damage.ToIDs = []string{"lord"}
	damage.Amount = 1
	require.NoError(t, room.Damage(&damage))
	require.True(t, room.GameOver())

	more := rules.NewEvent(rules.EventDamage, "rebel")
	more.ToIDs = []string{"rebel"}
	more.Amount = 1
	assert.ErrorIs(t, room.Dispatch(&more), rules.ErrGameOver)
}

func TestLoseHpSkipsDamageTriggersButCanKill(t *testing.T) {
	room, _, _ := newTestRoom(t, standardSeats()...)
	woundTo(t, room, "rebel", 1)

	require.NoError(t, room.LoseHp("rebel", 1, nil))
	assert.False(t, room.PlayerAlive("rebel"))
	assert.True(t, room.GameOver())
}

func TestRecoverCapsAtMaxHP(t *testing.T) {
	room, _, _ := newTestRoom(t, standardSeats()...)
	woundTo(t, room, "rebel", 3)

	recover := rules.NewEvent(rules.EventRecover, "rebel")
	recover.ToIDs = []string{"rebel"}
	recover.Amount = 5
	require.NoError(t, room.Recover(&recover))

	hp, maxHP := room.PlayerHP("rebel")
	assert.Equal(t, maxHP, hp)
}
