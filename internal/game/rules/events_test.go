package rules

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewEventPopulatesIdentity(t *testing.T) {
	ev := NewEvent(EventCardUse, "player-1")

	if ev.Kind != EventCardUse {
		t.Errorf("expected kind %s, got %s", EventCardUse, ev.Kind)
	}
	if ev.ID == "" {
		t.Error("expected a generated event id")
	}
	if ev.FromID != "player-1" {
		t.Errorf("expected fromID player-1, got %s", ev.FromID)
	}
	if ev.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}
}

func TestIsAsk(t *testing.T) {
	asks := []EventKind{
		EventAskForCardUse,
		EventAskForCardResponse,
		EventAskForCardDrop,
		EventAskForPeach,
		EventAskForChoosingOptions,
		EventAskForPlayCardsOrSkills,
	}
	for _, kind := range asks {
		if !kind.IsAsk() {
			t.Errorf("%s should be a request kind", kind)
		}
	}

	notAsks := []EventKind{EventCardUse, EventDamage, EventPhaseChange, EventGameOver}
	for _, kind := range notAsks {
		if kind.IsAsk() {
			t.Errorf("%s should not be a request kind", kind)
		}
	}
}

func TestCausalLink(t *testing.T) {
	damage := NewEvent(EventDamage, "attacker")
	dying := NewEvent(EventPlayerDying, "victim")
	dying.TriggeredOnEvent = &damage

	got, err := dying.Causal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != damage.ID {
		t.Errorf("expected causal link to damage event %s, got %s", damage.ID, got.ID)
	}

	orphan := NewEvent(EventPlayerDying, "victim")
	if _, err := orphan.Causal(); !errors.Is(err, ErrMissingCausalContext) {
		t.Errorf("expected ErrMissingCausalContext, got %v", err)
	}
}

func TestCausalLinkNotSerialized(t *testing.T) {
	parent := NewEvent(EventCardUse, "p1")
	child := NewEvent(EventCardLost, "p1")
	child.TriggeredOnEvent = &parent

	data, err := json.Marshal(&child)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := decoded["triggeredOnEvent"]; ok {
		t.Error("causal back-link must not leave the server")
	}
}

func TestResponseDeclined(t *testing.T) {
	decline := Response{FromID: "p1"}
	if !decline.Declined() {
		t.Error("empty answer should be a decline")
	}

	withCard := Response{FromID: "p1", CardID: 42}
	if withCard.Declined() {
		t.Error("answer with a card is not a decline")
	}

	withSkill := Response{FromID: "p1", SkillName: "qingjian"}
	if withSkill.Declined() {
		t.Error("answer with a skill is not a decline")
	}
}

func TestCardAreaString(t *testing.T) {
	cases := map[CardArea]string{
		AreaHand:    "HAND",
		AreaJudge:   "JUDGE",
		AreaHolding: "HOLDING",
		AreaEquip:   "EQUIP",
	}
	for area, want := range cases {
		if got := area.String(); got != want {
			t.Errorf("area %d: expected %s, got %s", area, want, got)
		}
	}
}

func TestTranslation(t *testing.T) {
	tr := Tr("{0} uses {1}", "zhaoyun", "slash")
	if tr.IsZero() {
		t.Error("populated translation should not be zero")
	}
	if len(tr.Args) != 2 {
		t.Errorf("expected 2 args, got %d", len(tr.Args))
	}
	if (Translation{}).IsZero() != true {
		t.Error("empty translation should be zero")
	}
}
