package catalog

import "github.com/sanguosha-online/sgs-server-go/internal/game/rules"

// Card names of the standard set. Skills and use rules key on these.
const (
	CardSlash        = "slash"
	CardThunderSlash = "thunder_slash"
	CardFireSlash    = "fire_slash"
	CardJink         = "jink"
	CardPeach        = "peach"
	CardAlcohol      = "alcohol"
	CardWanJianQiFa  = "wanjianqifa"
	CardZhuGeLianNu  = "zhugeliannu"
	CardChiTu        = "chitu"
	CardDiLu         = "dilu"
)

// Skill names of the standard set.
const (
	SkillSlash       = "slash"
	SkillJink        = "jink"
	SkillPeach       = "peach"
	SkillAlcohol     = "alcohol"
	SkillWanJianQiFa = "wanjianqifa"
	SkillZhuGeLianNu = "zhugeliannu"
	SkillChiTu       = "chitu"
	SkillDiLu        = "dilu"
	SkillYaJiao      = "yajiao"
	SkillQingJian    = "qingjian"
)

// Character ids of the standard set.
const (
	CharZhaoYun = 1
	CharCaoHong = 2
	CharGuanYu  = 3
	CharLiuBei  = 4
	CharSunCe   = 5
	CharLuSu    = 6
)

type cardRun struct {
	name       string
	cardType   CardType
	slot       EquipSlot
	skill      string
	damage     rules.DamageType
	attackRange int
	copies     []suitNumber
}

type suitNumber struct {
	suit   CardSuit
	number int
}

// standardRuns lays out the physical deck. Suit/number pairs follow the
// standard edition's distribution, trimmed to the implemented card set.
var standardRuns = []cardRun{
	{
		name: CardSlash, cardType: TypeBasic, skill: SkillSlash, damage: rules.DamageNormal,
		copies: []suitNumber{
			{SuitSpade, 7}, {SuitSpade, 8}, {SuitSpade, 8}, {SuitSpade, 9},
			{SuitSpade, 9}, {SuitSpade, 10}, {SuitSpade, 10},
			{SuitClub, 2}, {SuitClub, 3}, {SuitClub, 4}, {SuitClub, 5},
			{SuitClub, 8}, {SuitClub, 9}, {SuitClub, 10}, {SuitClub, 11},
			{SuitHeart, 10}, {SuitHeart, 10}, {SuitHeart, 11},
			{SuitDiamond, 6}, {SuitDiamond, 7}, {SuitDiamond, 8}, {SuitDiamond, 9},
		},
	},
	{
		name: CardThunderSlash, cardType: TypeBasic, skill: SkillSlash, damage: rules.DamageThunder,
		copies: []suitNumber{
			{SuitSpade, 4}, {SuitSpade, 5}, {SuitClub, 5}, {SuitClub, 6},
		},
	},
	{
		name: CardFireSlash, cardType: TypeBasic, skill: SkillSlash, damage: rules.DamageFire,
		copies: []suitNumber{
			{SuitHeart, 4}, {SuitDiamond, 4}, {SuitDiamond, 5},
		},
	},
	{
		name: CardJink, cardType: TypeBasic, skill: SkillJink,
		copies: []suitNumber{
			{SuitHeart, 2}, {SuitHeart, 2}, {SuitHeart, 13},
			{SuitDiamond, 2}, {SuitDiamond, 2}, {SuitDiamond, 3},
			{SuitDiamond, 4}, {SuitDiamond, 5}, {SuitDiamond, 6},
			{SuitDiamond, 7}, {SuitDiamond, 8}, {SuitDiamond, 10},
			{SuitDiamond, 11}, {SuitDiamond, 11},
		},
	},
	{
		name: CardPeach, cardType: TypeBasic, skill: SkillPeach,
		copies: []suitNumber{
			{SuitHeart, 3}, {SuitHeart, 4}, {SuitHeart, 6}, {SuitHeart, 7},
			{SuitHeart, 8}, {SuitHeart, 9}, {SuitHeart, 12}, {SuitDiamond, 12},
		},
	},
	{
		name: CardAlcohol, cardType: TypeBasic, skill: SkillAlcohol,
		copies: []suitNumber{
			{SuitSpade, 3}, {SuitSpade, 9}, {SuitClub, 9}, {SuitDiamond, 9},
		},
	},
	{
		name: CardWanJianQiFa, cardType: TypeTrick, skill: SkillWanJianQiFa,
		copies: []suitNumber{{SuitHeart, 1}},
	},
	{
		name: CardZhuGeLianNu, cardType: TypeEquip, slot: SlotWeapon,
		skill: SkillZhuGeLianNu, attackRange: 1,
		copies: []suitNumber{{SuitClub, 1}, {SuitDiamond, 1}},
	},
	{
		name: CardChiTu, cardType: TypeEquip, slot: SlotOffenseRide, skill: SkillChiTu,
		copies: []suitNumber{{SuitHeart, 5}},
	},
	{
		name: CardDiLu, cardType: TypeEquip, slot: SlotDefenseRide, skill: SkillDiLu,
		copies: []suitNumber{{SuitClub, 5}},
	},
}

// NewStandard builds the standard content catalog.
func NewStandard() *Catalog {
	c := &Catalog{
		cardsByID:   make(map[int]CardDefinition),
		charsByID:   make(map[int]CharacterDefinition),
		charsByName: make(map[string]CharacterDefinition),
	}

	nextID := 1
	for _, run := range standardRuns {
		for _, sn := range run.copies {
			c.addCard(CardDefinition{
				ID:          nextID,
				Name:        run.name,
				Suit:        sn.suit,
				Number:      sn.number,
				Type:        run.cardType,
				Slot:        run.slot,
				SkillName:   run.skill,
				AttackRange: run.attackRange,
				DamageType:  run.damage,
			})
			nextID++
		}
	}

	c.addCharacter(CharacterDefinition{
		ID: CharZhaoYun, Name: "zhaoyun", Nationality: "shu", MaxHP: 4,
		SkillNames: []string{SkillYaJiao},
	})
	c.addCharacter(CharacterDefinition{
		ID: CharCaoHong, Name: "caohong", Nationality: "wei", MaxHP: 4,
		SkillNames: []string{SkillQingJian},
	})
	c.addCharacter(CharacterDefinition{
		ID: CharGuanYu, Name: "guanyu", Nationality: "shu", MaxHP: 4,
	})
	c.addCharacter(CharacterDefinition{
		ID: CharLiuBei, Name: "liubei", Nationality: "shu", MaxHP: 4,
	})
	c.addCharacter(CharacterDefinition{
		ID: CharSunCe, Name: "sunce", Nationality: "wu", MaxHP: 4,
	})
	c.addCharacter(CharacterDefinition{
		ID: CharLuSu, Name: "lusu", Nationality: "wu", MaxHP: 3,
	})

	return c
}
