package item

import (
	"fmt"
	"strings"
	"time"
)

// DefaultMaxStack applies to stackable templates that do not set MaxStack.
const DefaultMaxStack = 99

// Category is the broad kind of an item.
type Category string

const (
	CategoryEquipment  Category = "equipment"
	CategoryConsumable Category = "consumable"
	CategorySkill      Category = "skill"
	CategoryMaterial   Category = "material"
	CategoryKey        Category = "key"
)

// categoryOrder is the order Sort uses for the category criterion.
var categoryOrder = map[Category]int{
	CategoryEquipment:  0,
	CategoryConsumable: 1,
	CategorySkill:      2,
	CategoryMaterial:   3,
	CategoryKey:        4,
}

// CategoryRank returns the sort rank of c. Unknown categories sort last.
func CategoryRank(c Category) int {
	if r, ok := categoryOrder[c]; ok {
		return r
	}
	return len(categoryOrder)
}

// Rarity is an ordered rarity tier; higher is rarer.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
)

func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "Common"
	case RarityUncommon:
		return "Uncommon"
	case RarityRare:
		return "Rare"
	case RarityEpic:
		return "Epic"
	case RarityLegendary:
		return "Legendary"
	default:
		return "Unknown"
	}
}

// SlotKind is one of the seven equipment attachment points.
type SlotKind int

const (
	SlotNone SlotKind = iota
	SlotWeapon
	SlotArmor
	SlotHelmet
	SlotGloves
	SlotBoots
	SlotAccessory1
	SlotAccessory2
	SlotKindCount = 7
)

var slotNames = [SlotKindCount]string{"weapon", "armor", "helmet", "gloves", "boots", "accessory1", "accessory2"}

// AllSlotKinds returns the seven slot kinds in declaration order.
func AllSlotKinds() []SlotKind {
	out := make([]SlotKind, SlotKindCount)
	for i := range out {
		out[i] = SlotKind(i + 1)
	}
	return out
}

// Valid reports whether s is one of the seven attachment points.
func (s SlotKind) Valid() bool {
	return s > SlotNone && s <= SlotKindCount
}

func (s SlotKind) String() string {
	if !s.Valid() {
		return "none"
	}
	return slotNames[s-1]
}

// ParseSlotKind maps a slot name to its kind. Unknown names yield SlotNone.
func ParseSlotKind(name string) SlotKind {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range slotNames {
		if n == name {
			return SlotKind(i + 1)
		}
	}
	return SlotNone
}

// MarshalText encodes the slot kind by name.
func (s SlotKind) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a slot kind name; unknown names become SlotNone so
// equip validation reports them rather than the decoder.
func (s *SlotKind) UnmarshalText(b []byte) error {
	*s = ParseSlotKind(string(b))
	return nil
}

// CharacterMode is the character form an item may be restricted to.
// The empty mode means "any".
type CharacterMode string

const ModeAny CharacterMode = ""

// EffectKind selects what a consumable does when used.
type EffectKind string

const (
	EffectHeal          EffectKind = "heal"
	EffectRestoreMana   EffectKind = "restore_mana"
	EffectHealOverTime  EffectKind = "heal_over_time"
	EffectDrainOverTime EffectKind = "drain_over_time"
	EffectBuff          EffectKind = "buff"
	EffectCleanse       EffectKind = "cleanse"
	EffectRevive        EffectKind = "revive"
)

// RandomStat is one entry of an equipment template's random-stat pool.
type RandomStat struct {
	Stat   StatKind     `json:"stat" yaml:"stat"`
	Kind   ModifierKind `json:"kind" yaml:"kind"`
	Min    float64      `json:"min" yaml:"min"`
	Max    float64      `json:"max" yaml:"max"`
	Weight int          `json:"weight" yaml:"weight"`
}

// EquipmentSpec holds the equipment-only template fields.
type EquipmentSpec struct {
	Slot          SlotKind       `json:"slot" yaml:"slot"`
	RequiredLevel int            `json:"required_level" yaml:"required_level"`
	RequiredMode  CharacterMode  `json:"required_mode" yaml:"required_mode"`
	BaseStats     []StatModifier `json:"base_stats" yaml:"base_stats"`
	RandomStats   []RandomStat   `json:"random_stats" yaml:"random_stats"`
	RandomRolls   int            `json:"random_rolls" yaml:"random_rolls"`
	MaxDurability int            `json:"max_durability" yaml:"max_durability"` // 0 = untracked
	SetID         string         `json:"set_id" yaml:"set_id"`
}

// ConsumableSpec holds the consumable-only template fields. Durations are
// in seconds.
type ConsumableSpec struct {
	Effect     EffectKind `json:"effect" yaml:"effect"`
	Magnitude  float64    `json:"magnitude" yaml:"magnitude"`
	Duration   float64    `json:"duration" yaml:"duration"`
	Cooldown   float64    `json:"cooldown" yaml:"cooldown"`
	BuffID     string     `json:"buff_id" yaml:"buff_id"`
	ReviveHeal float64    `json:"revive_heal" yaml:"revive_heal"`
}

// CooldownDuration converts the authored cooldown to a time.Duration.
func (c *ConsumableSpec) CooldownDuration() time.Duration {
	return secondsToDuration(c.Cooldown)
}

// EffectDuration converts the authored effect duration to a time.Duration.
func (c *ConsumableSpec) EffectDuration() time.Duration {
	return secondsToDuration(c.Duration)
}

func secondsToDuration(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

// Template is the immutable shared definition of an item kind. Templates are
// created at load time and must not be mutated once handed to a Registry.
type Template struct {
	ID         string          `json:"id" yaml:"id"`
	Name       string          `json:"name" yaml:"name"`
	Category   Category        `json:"category" yaml:"category"`
	Rarity     Rarity          `json:"rarity" yaml:"rarity"`
	Stackable  bool            `json:"stackable" yaml:"stackable"`
	MaxStack   int             `json:"max_stack" yaml:"max_stack"`
	BuyPrice   int             `json:"buy_price" yaml:"buy_price"`
	SellPrice  int             `json:"sell_price" yaml:"sell_price"`
	Equipment  *EquipmentSpec  `json:"equipment,omitempty" yaml:"equipment,omitempty"`
	Consumable *ConsumableSpec `json:"consumable,omitempty" yaml:"consumable,omitempty"`
}

// StackLimit is the most units one slot may hold for this template.
func (t *Template) StackLimit() int {
	if !t.Stackable {
		return 1
	}
	if t.MaxStack <= 0 {
		return DefaultMaxStack
	}
	return t.MaxStack
}

// IsEquipment reports whether the template can be equipped.
func (t *Template) IsEquipment() bool {
	return t.Category == CategoryEquipment && t.Equipment != nil
}

// IsConsumable reports whether the template can be used.
func (t *Template) IsConsumable() bool {
	return t.Category == CategoryConsumable && t.Consumable != nil
}

// EquipSlot returns the template's slot kind, SlotNone for non-equipment.
func (t *Template) EquipSlot() SlotKind {
	if t.Equipment == nil {
		return SlotNone
	}
	return t.Equipment.Slot
}

// SetID returns the item-set the template belongs to, if any.
func (t *Template) SetID() string {
	if t.Equipment == nil {
		return ""
	}
	return t.Equipment.SetID
}

// Validate checks authoring mistakes that would break runtime invariants.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("template: empty id")
	}
	if t.Stackable && t.MaxStack < 0 {
		return fmt.Errorf("template %s: negative max_stack %d", t.ID, t.MaxStack)
	}
	if t.Category == CategoryEquipment {
		if t.Equipment == nil {
			return fmt.Errorf("template %s: equipment category without equipment block", t.ID)
		}
		if !t.Equipment.Slot.Valid() {
			return fmt.Errorf("template %s: equipment without a valid slot", t.ID)
		}
		if t.Stackable {
			return fmt.Errorf("template %s: equipment cannot be stackable", t.ID)
		}
		for _, rs := range t.Equipment.RandomStats {
			if rs.Max < rs.Min {
				return fmt.Errorf("template %s: random stat %s has max < min", t.ID, rs.Stat)
			}
		}
	}
	if t.Category == CategoryConsumable && t.Consumable == nil {
		return fmt.Errorf("template %s: consumable category without consumable block", t.ID)
	}
	return nil
}
