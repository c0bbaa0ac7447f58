package player

import (
	"github.com/kasuganosora/itemruntime/game/effect"
	"github.com/kasuganosora/itemruntime/game/item"
)

// Character holds the resource state consumables act on. The embedded
// effect list supplies timed effects and buffs.
type Character struct {
	Level int
	Mode  item.CharacterMode
	Base  BaseStats

	hp, maxHP float64
	mp, maxMP float64
	dead      bool

	*effect.List
}

// Vitals is a read-only copy of a character's resources.
type Vitals struct {
	HP    float64 `json:"hp"`
	MaxHP float64 `json:"max_hp"`
	MP    float64 `json:"mp"`
	MaxMP float64 `json:"max_mp"`
	Dead  bool    `json:"dead"`
}

func newCharacter(level int, mode item.CharacterMode, base BaseStats, buffs effect.Catalog) *Character {
	if base == nil {
		base = DefaultBaseStats()
	}
	if level < 1 {
		level = 1
	}
	c := &Character{Level: level, Mode: mode, Base: base, List: effect.NewList(buffs)}
	c.setMax(base[item.StatMaxHP], base[item.StatMaxMP])
	c.hp, c.mp = c.maxHP, c.maxMP
	return c
}

// Present reports whether c is a real character.
func (c *Character) Present() bool { return c != nil }

func (c *Character) HP() float64    { return c.hp }
func (c *Character) MaxHP() float64 { return c.maxHP }
func (c *Character) MP() float64    { return c.mp }
func (c *Character) MaxMP() float64 { return c.maxMP }
func (c *Character) IsDead() bool   { return c.dead }

// Vitals returns the current resources.
func (c *Character) Vitals() Vitals {
	return Vitals{HP: c.hp, MaxHP: c.maxHP, MP: c.mp, MaxMP: c.maxMP, Dead: c.dead}
}

// Heal restores hp up to the maximum and returns the amount applied. The
// dead cannot be healed.
func (c *Character) Heal(amount float64) float64 {
	if c.dead || amount <= 0 {
		return 0
	}
	before := c.hp
	c.hp = min(c.maxHP, c.hp+amount)
	return c.hp - before
}

// Damage lowers hp, killing the character at zero.
func (c *Character) Damage(amount float64) float64 {
	if c.dead || amount <= 0 {
		return 0
	}
	before := c.hp
	c.hp = max(0, c.hp-amount)
	if c.hp == 0 {
		c.dead = true
	}
	return before - c.hp
}

// RestoreMana restores mp up to the maximum and returns the amount applied.
func (c *Character) RestoreMana(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	before := c.mp
	c.mp = min(c.maxMP, c.mp+amount)
	return c.mp - before
}

// Revive brings a dead character back with 1 hp.
func (c *Character) Revive() {
	if !c.dead {
		return
	}
	c.dead = false
	c.hp = min(1, c.maxHP)
}

// setMax applies new maxima and clamps current resources to them.
func (c *Character) setMax(maxHP, maxMP float64) {
	c.maxHP = max(1, maxHP)
	c.maxMP = max(0, maxMP)
	c.hp = min(c.hp, c.maxHP)
	c.mp = min(c.mp, c.maxMP)
}
