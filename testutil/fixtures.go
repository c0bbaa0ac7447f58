package testutil

import (
	"github.com/kasuganosora/itemruntime/game/effect"
	"github.com/kasuganosora/itemruntime/game/equip"
	"github.com/kasuganosora/itemruntime/game/item"
)

// Flat is shorthand for a flat modifier.
func Flat(stat item.StatKind, v float64) item.StatModifier {
	return item.StatModifier{Stat: stat, Kind: item.ModifierFlat, Value: v}
}

// Registry returns a small template catalog shared by package tests:
// a sword, two pieces of the "foo" set, a healing potion and a buff tonic.
func Registry() *item.Registry {
	return item.NewRegistry().MustRegister(
		&item.Template{ID: "sword", Name: "Sword", Category: item.CategoryEquipment,
			Equipment: &item.EquipmentSpec{Slot: item.SlotWeapon, MaxDurability: 40,
				BaseStats: []item.StatModifier{Flat(item.StatAttack, 5)}}},
		&item.Template{ID: "foo_helm", Name: "Foo Helm", Category: item.CategoryEquipment,
			Equipment: &item.EquipmentSpec{Slot: item.SlotHelmet, SetID: "foo",
				BaseStats: []item.StatModifier{Flat(item.StatMaxHP, 50)}}},
		&item.Template{ID: "foo_armor", Name: "Foo Armor", Category: item.CategoryEquipment,
			Equipment: &item.EquipmentSpec{Slot: item.SlotArmor, SetID: "foo"}},
		&item.Template{ID: "potion", Name: "Potion", Category: item.CategoryConsumable, Stackable: true, MaxStack: 5,
			Consumable: &item.ConsumableSpec{Effect: item.EffectHeal, Magnitude: 30, Cooldown: 1}},
		&item.Template{ID: "tonic", Name: "Tonic", Category: item.CategoryConsumable, Stackable: true,
			Consumable: &item.ConsumableSpec{Effect: item.EffectBuff, BuffID: "might", Duration: 2}},
	)
}

// Sets returns the "foo" set: two pieces grant +10 attack.
func Sets() []equip.SetDefinition {
	return []equip.SetDefinition{{ID: "foo", Name: "Foo", Tiers: []equip.Tier{
		{Pieces: 2, Bonuses: []item.StatModifier{Flat(item.StatAttack, 10)}},
	}}}
}

// Buffs returns a catalog with the "might" buff (+3 attack).
func Buffs() effect.Catalog {
	return effect.Catalog{"might": {ID: "might", Name: "Might",
		Modifiers: []item.StatModifier{Flat(item.StatAttack, 3)}}}
}
