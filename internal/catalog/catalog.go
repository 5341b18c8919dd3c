package catalog

import (
	"strings"

	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
)

// CardSuit is a card's suit.
type CardSuit string

const (
	SuitSpade   CardSuit = "SPADE"
	SuitHeart   CardSuit = "HEART"
	SuitClub    CardSuit = "CLUB"
	SuitDiamond CardSuit = "DIAMOND"
	SuitNone    CardSuit = "NONE"
)

// IsBlack reports whether the suit counts as black.
func (s CardSuit) IsBlack() bool {
	return s == SuitSpade || s == SuitClub
}

// IsRed reports whether the suit counts as red.
func (s CardSuit) IsRed() bool {
	return s == SuitHeart || s == SuitDiamond
}

// CardType is a card's top-level category.
type CardType string

const (
	TypeBasic CardType = "BASIC"
	TypeTrick CardType = "TRICK"
	TypeEquip CardType = "EQUIP"
)

// EquipSlot names the equip subcategory; one card per slot may be worn.
type EquipSlot string

const (
	SlotNone        EquipSlot = ""
	SlotWeapon      EquipSlot = "WEAPON"
	SlotArmor       EquipSlot = "ARMOR"
	SlotDefenseRide EquipSlot = "DEFENSE_RIDE"
	SlotOffenseRide EquipSlot = "OFFENSE_RIDE"
)

// CardDefinition is the immutable description of one physical card.
type CardDefinition struct {
	ID     int
	Name   string
	Suit   CardSuit
	Number int

	Type CardType
	Slot EquipSlot

	// SkillName names the skill the card carries (card skills for basics
	// and tricks, equip skills for equips). Resolved through the skill
	// registry at use time.
	SkillName string

	// AttackRange applies to weapons.
	AttackRange int

	// DamageType applies to damage-dealing basics (slash variants).
	DamageType rules.DamageType
}

// IsVirtual reports whether the card exists outside the physical deck.
func (cd CardDefinition) IsVirtual() bool {
	return cd.ID < 0
}

// CharacterDefinition is the immutable description of a playable character.
type CharacterDefinition struct {
	ID          int
	Name        string
	Nationality string
	MaxHP       int
	SkillNames  []string
}

// Catalog is the shared read-only entity store. Built once at startup; all
// rooms read it concurrently without coordination.
type Catalog struct {
	cardsByID   map[int]CardDefinition
	charsByID   map[int]CharacterDefinition
	charsByName map[string]CharacterDefinition
	deckOrder   []int
}

// CardByID looks a card up; an unknown id is a room-fatal catalog error.
func (c *Catalog) CardByID(id int) (CardDefinition, error) {
	def, ok := c.cardsByID[id]
	if !ok {
		return CardDefinition{}, &rules.CatalogError{Entity: "card", ID: id}
	}
	return def, nil
}

// CharacterByID looks a character up; unknown ids are room-fatal.
func (c *Catalog) CharacterByID(id int) (CharacterDefinition, error) {
	def, ok := c.charsByID[id]
	if !ok {
		return CharacterDefinition{}, &rules.CatalogError{Entity: "character", ID: id}
	}
	return def, nil
}

// CharacterByName looks a character up by name.
func (c *Catalog) CharacterByName(name string) (CharacterDefinition, bool) {
	def, ok := c.charsByName[strings.ToLower(name)]
	return def, ok
}

// DeckOrder returns the physical deck's card ids in catalog order. Rooms
// shuffle their own copy.
func (c *Catalog) DeckOrder() []int {
	order := make([]int, len(c.deckOrder))
	copy(order, c.deckOrder)
	return order
}

// Matches evaluates a matcher against a card definition. Empty criteria
// lists match everything.
func (c *Catalog) Matches(m rules.CardMatcher, def CardDefinition) bool {
	if len(m.Names) > 0 && !containsFold(m.Names, def.Name) {
		return false
	}
	if len(m.Types) > 0 && !containsFold(m.Types, string(def.Type)) {
		return false
	}
	if len(m.Suits) > 0 && !containsFold(m.Suits, string(def.Suit)) {
		return false
	}
	return true
}

// MatchesID evaluates a matcher against a card id. Unknown ids never match.
func (c *Catalog) MatchesID(m rules.CardMatcher, cardID int) bool {
	def, err := c.CardByID(cardID)
	if err != nil {
		return false
	}
	return c.Matches(m, def)
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

func (c *Catalog) addCard(def CardDefinition) {
	c.cardsByID[def.ID] = def
	if !def.IsVirtual() {
		c.deckOrder = append(c.deckOrder, def.ID)
	}
}

func (c *Catalog) addCharacter(def CharacterDefinition) {
	c.charsByID[def.ID] = def
	c.charsByName[strings.ToLower(def.Name)] = def
}
