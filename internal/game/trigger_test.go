package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanguosha-online/sgs-server-go/internal/catalog"
	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
	"github.com/sanguosha-online/sgs-server-go/internal/game/skill"
)

func TestYaJiaoFiresOnOffTurnResponse(t *testing.T) {
	room, notifier, _ := newTestRoom(t,
		testSeat{"lord", catalog.CharLiuBei, RoleLord},
		testSeat{"zhaoyun", catalog.CharZhaoYun, RoleLoyalist},
		testSeat{"rebel", catalog.CharSunCe, RoleRebel},
	)
	advanceTo(t, room, "lord", rules.PhasePlay)
	slashID := giveCard(t, room, "lord", rules.AreaHand, catalog.CardSlash)
	jinkID := giveCard(t, room, "zhaoyun", rules.AreaHand, catalog.CardJink)
	topCard := room.PeekDrawStack(1)[0]

	var yajiaoAsked bool
	notifier.answer = func(playerID string, request rules.Event) rules.Response {
		switch request.Kind {
		case rules.EventAskForCardUse:
			if playerID == "zhaoyun" {
				return rules.Response{FromID: playerID, CardID: jinkID}
			}
		case rules.EventAskForSkillUse:
			if request.BySkill == catalog.SkillYaJiao {
				yajiaoAsked = true
				return rules.Response{FromID: playerID, SkillName: catalog.SkillYaJiao}
			}
		case rules.EventAskForChoosingPlayer:
			return rules.Response{FromID: playerID, SelectedPlayers: []string{"zhaoyun"}}
		}
		return rules.Response{FromID: playerID}
	}

	use := rules.NewEvent(rules.EventCardUse, "lord")
	use.CardIDs = []int{slashID}
	use.ToIDs = []string{"zhaoyun"}
	require.NoError(t, room.UseCard(&use))

	assert.True(t, yajiaoAsked, "losing the jink to a response must offer yajiao")
	assert.True(t, room.byID["zhaoyun"].HasCard(topCard, rules.AreaHand),
		"yajiao hands over the displayed top card")
	assert.Equal(t, 1, room.SkillUseCount("zhaoyun", catalog.SkillYaJiao))
}

func TestYaJiaoSilentOnOwnTurn(t *testing.T) {
	room, notifier, _ := newTestRoom(t,
		testSeat{"zhaoyun", catalog.CharZhaoYun, RoleLord},
		testSeat{"rebel", catalog.CharSunCe, RoleRebel},
	)
	advanceTo(t, room, "zhaoyun", rules.PhasePlay)
	slashID := giveCard(t, room, "zhaoyun", rules.AreaHand, catalog.CardSlash)

	var yajiaoAsked bool
	notifier.answer = func(playerID string, request rules.Event) rules.Response {
		if request.Kind == rules.EventAskForSkillUse {
			yajiaoAsked = true
		}
		return rules.Response{FromID: playerID}
	}

	use := rules.NewEvent(rules.EventCardUse, "zhaoyun")
	use.CardIDs = []int{slashID}
	use.ToIDs = []string{"rebel"}
	require.NoError(t, room.UseCard(&use))

	assert.False(t, yajiaoAsked, "yajiao only reacts off turn")
}

func TestQingJianFlowWithShadowCleanup(t *testing.T) {
	room, notifier, _ := newTestRoom(t,
		testSeat{"lord", catalog.CharLiuBei, RoleLord},
		testSeat{"caohong", catalog.CharCaoHong, RoleLoyalist},
	)
	advanceTo(t, room, "lord", rules.PhasePlay)
	giveID := room.PlayerCards("caohong", rules.AreaHand)[0]

	notifier.answer = func(playerID string, request rules.Event) rules.Response {
		if request.Kind == rules.EventAskForSkillUse && request.BySkill == catalog.SkillQingJian {
			return rules.Response{
				FromID:  playerID,
				CardIDs: []int{giveID},
				ToIDs:   []string{"lord"},
			}
		}
		return rules.Response{FromID: playerID}
	}

	// Caohong obtains a card outside their draw phase.
	top := room.PeekDrawStack(1)
	require.NoError(t, room.ObtainCards("caohong", top, rules.ObtainReasonPassiveObtained, nil))

	assert.True(t, room.byID["lord"].HasCard(giveID, rules.AreaHand),
		"qingjian hands the shown card over")
	assert.Equal(t, 1, room.InvisibleMark("lord", catalog.SkillQingJian))
	assert.Equal(t, 1, room.byID["lord"].ExtraHoldCards())

	// Walk the turn past finish; the shadow clears the bonus.
	for room.CurrentPlayerID() == "lord" {
		require.NoError(t, room.AdvancePhase())
	}
	assert.Equal(t, 0, room.InvisibleMark("lord", catalog.SkillQingJian))
	assert.Equal(t, 0, room.byID["lord"].ExtraHoldCards())
}

func TestQingJianOncePerTurn(t *testing.T) {
	room, notifier, _ := newTestRoom(t,
		testSeat{"lord", catalog.CharLiuBei, RoleLord},
		testSeat{"caohong", catalog.CharCaoHong, RoleLoyalist},
	)
	advanceTo(t, room, "lord", rules.PhasePlay)

	var offers int
	notifier.answer = func(playerID string, request rules.Event) rules.Response {
		if request.Kind == rules.EventAskForSkillUse && request.BySkill == catalog.SkillQingJian {
			offers++
			hand := room.PlayerCards("caohong", rules.AreaHand)
			return rules.Response{FromID: playerID, CardIDs: hand[:1], ToIDs: []string{"lord"}}
		}
		return rules.Response{FromID: playerID}
	}

	first := room.PeekDrawStack(1)
	require.NoError(t, room.ObtainCards("caohong", first, rules.ObtainReasonPassiveObtained, nil))
	second := room.PeekDrawStack(1)
	require.NoError(t, room.ObtainCards("caohong", second, rules.ObtainReasonPassiveObtained, nil))

	assert.Equal(t, 1, offers, "the use ceiling suppresses the second offer")
}

func TestQingJianRefreshesOnNextPrepare(t *testing.T) {
	room, notifier, _ := newTestRoom(t,
		testSeat{"lord", catalog.CharLiuBei, RoleLord},
		testSeat{"caohong", catalog.CharCaoHong, RoleLoyalist},
	)
	advanceTo(t, room, "lord", rules.PhasePlay)

	var offers int
	notifier.answer = func(playerID string, request rules.Event) rules.Response {
		if request.Kind == rules.EventAskForSkillUse && request.BySkill == catalog.SkillQingJian {
			offers++
			hand := room.PlayerCards("caohong", rules.AreaHand)
			return rules.Response{FromID: playerID, CardIDs: hand[:1], ToIDs: []string{"lord"}}
		}
		return rules.Response{FromID: playerID}
	}

	require.NoError(t, room.ObtainCards("caohong", room.PeekDrawStack(1), rules.ObtainReasonPassiveObtained, nil))
	require.Equal(t, 1, offers)

	// Walk phase changes into caohong's own play phase. The prepare entry
	// refreshes the counter even though caohong never owned the last turn.
	for i := 0; i < 12; i++ {
		if room.CurrentPlayerID() == "caohong" && room.CurrentPhase() == rules.PhasePlay {
			break
		}
		require.NoError(t, room.AdvancePhase())
	}
	require.Equal(t, "caohong", room.CurrentPlayerID())
	require.Equal(t, rules.PhasePlay, room.CurrentPhase())

	require.NoError(t, room.ObtainCards("caohong", room.PeekDrawStack(1), rules.ObtainReasonPassiveObtained, nil))
	assert.Equal(t, 2, offers, "spent counter comes back at the next prepare entry")
}

// newTriggerRoom builds a started two-seat room over a custom skill
// registry, with both characters' own skills stripped.
func newTriggerRoom(t *testing.T, reg *skill.Registry) (*Room, *scriptedNotifier) {
	t.Helper()
	notifier := &scriptedNotifier{}
	room := NewRoom(Options{
		ID:       "trigger-room",
		Catalog:  catalog.NewStandard(),
		Skills:   reg,
		Notifier: notifier,
		Journal:  NewMemoryJournal(),
		Seed:     1,
	})
	notifier.room = room

	_, err := room.AddPlayer("a", "a", catalog.CharLiuBei, RoleLord)
	require.NoError(t, err)
	_, err = room.AddPlayer("b", "b", catalog.CharSunCe, RoleRebel)
	require.NoError(t, err)
	require.NoError(t, room.Start())

	room.byID["a"].LoseSkills(room.byID["a"].SkillNames()...)
	room.byID["b"].LoseSkills(room.byID["b"].SkillNames()...)
	return room, notifier
}

func TestCompulsoryOrdersBeforeOptional(t *testing.T) {
	// Synthetic skills: both react to the same window; the compulsory one
	// must resolve first regardless of seat order.
	var order []string

	reg := skill.NewRegistry()
	reg.MustRegister(
		&recordingSkill{
			Base:       skill.NewBase("opt_first_seat"),
			stage:      rules.StageAfterCardLostEffect,
			compulsory: false,
			auto:       true,
			order:      &order,
		},
		&recordingSkill{
			Base:       skill.NewBase("comp_second_seat"),
			stage:      rules.StageAfterCardLostEffect,
			compulsory: true,
			order:      &order,
		},
	)

	room, _ := newTriggerRoom(t, reg)
	room.byID["a"].ObtainSkills("opt_first_seat")
	room.byID["b"].ObtainSkills("comp_second_seat")

	display := rules.NewEvent(rules.EventCardDisplay, "a")
	lost := rules.NewEvent(rules.EventCardLost, "a")
	lost.LostReason = rules.LostReasonActiveDrop
	lost.TriggeredOnEvent = &display
	require.NoError(t, room.Dispatch(&lost))

	require.Len(t, order, 2)
	assert.Equal(t, []string{"comp_second_seat", "opt_first_seat"}, order)
}

func TestTriggerCancelsEffectBeforeCommit(t *testing.T) {
	reg := skill.NewStandardRegistry()
	reg.MustRegister(&negatingSkill{
		Base:  skill.NewBase("bulwark"),
		stage: rules.StageBeforeCardEffect,
	})

	room, notifier := newTriggerRoom(t, reg)
	room.byID["b"].ObtainSkills("bulwark")
	advanceTo(t, room, "a", rules.PhasePlay)
	slashID := giveCard(t, room, "a", rules.AreaHand, catalog.CardSlash)

	var jinkAsked bool
	notifier.answer = func(playerID string, request rules.Event) rules.Response {
		if request.Kind == rules.EventAskForCardUse {
			jinkAsked = true
		}
		return rules.Response{FromID: playerID}
	}

	use := rules.NewEvent(rules.EventCardUse, "a")
	use.CardIDs = []int{slashID}
	use.ToIDs = []string{"b"}
	require.NoError(t, room.UseCard(&use))

	hp, maxHP := room.PlayerHP("b")
	assert.Equal(t, maxHP, hp, "a chain cancelled before commit deals no damage")
	assert.False(t, jinkAsked, "the effect never ran, so no dodge was requested")
	assert.Contains(t, room.discardStack, slashID, "the card use itself still committed")
}

func TestDodgedSlashSkipsAfterEffectWindow(t *testing.T) {
	run := func(withJink bool) []string {
		var order []string
		reg := skill.NewStandardRegistry()
		reg.MustRegister(&recordingSkill{
			Base:       skill.NewBase("aftermath"),
			stage:      rules.StageAfterCardEffect,
			compulsory: true,
			order:      &order,
		})

		room, notifier := newTriggerRoom(t, reg)
		room.byID["b"].ObtainSkills("aftermath")
		advanceTo(t, room, "a", rules.PhasePlay)
		slashID := giveCard(t, room, "a", rules.AreaHand, catalog.CardSlash)

		if withJink {
			jinkID := giveCard(t, room, "b", rules.AreaHand, catalog.CardJink)
			notifier.answer = func(playerID string, request rules.Event) rules.Response {
				if request.Kind == rules.EventAskForCardUse && playerID == "b" {
					return rules.Response{FromID: playerID, CardID: jinkID}
				}
				return rules.Response{FromID: playerID}
			}
		}

		use := rules.NewEvent(rules.EventCardUse, "a")
		use.CardIDs = []int{slashID}
		use.ToIDs = []string{"b"}
		require.NoError(t, room.UseCard(&use))
		return order
	}

	assert.NotEmpty(t, run(false), "a connecting slash reaches the after-effect window")
	assert.Empty(t, run(true), "a dodged slash never does")
}

// recordingSkill reacts to one window and records its resolution order.
type recordingSkill struct {
	skill.Base
	stage      rules.GameStage
	compulsory bool
	auto       bool
	order      *[]string
}

func (s *recordingSkill) IsTriggerable(ev *rules.Event, stage rules.GameStage) bool {
	return stage == s.stage
}

func (s *recordingSkill) IsCompulsory() bool                           { return s.compulsory }
func (s *recordingSkill) IsAutoTrigger() bool                          { return s.auto }
func (s *recordingSkill) CanUse(skill.Room, string, *rules.Event) bool { return true }

func (s *recordingSkill) OnTrigger(skill.Room, string, *rules.Event) (bool, error) {
	return true, nil
}

func (s *recordingSkill) OnEffect(_ skill.Room, _ string, ev *rules.Event) error {
	*s.order = append(*s.order, ev.BySkill)
	return nil
}

// negatingSkill cancels the event it reacts to before the commit window.
type negatingSkill struct {
	skill.Base
	stage rules.GameStage
}

func (s *negatingSkill) IsTriggerable(ev *rules.Event, stage rules.GameStage) bool {
	return stage == s.stage
}

func (s *negatingSkill) IsCompulsory() bool  { return true }
func (s *negatingSkill) IsAutoTrigger() bool { return true }

func (s *negatingSkill) CanUse(_ skill.Room, ownerID string, ev *rules.Event) bool {
	return len(ev.ToIDs) == 1 && ev.ToIDs[0] == ownerID
}

func (s *negatingSkill) OnTrigger(skill.Room, string, *rules.Event) (bool, error) {
	return true, nil
}

func (s *negatingSkill) OnEffect(_ skill.Room, _ string, ev *rules.Event) error {
	cause, err := ev.Causal()
	if err != nil {
		return err
	}
	cause.Cancelled = true
	return nil
}
