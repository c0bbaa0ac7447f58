package consumable

import (
	"time"

	"github.com/kasuganosora/itemruntime/game/inventory"
	"github.com/kasuganosora/itemruntime/game/item"
)

// Target is the character a consumable is used on.
type Target interface {
	HP() float64
	MaxHP() float64
	MP() float64
	MaxMP() float64
	// Heal and RestoreMana clamp to the maximum and return the amount applied.
	Heal(amount float64) float64
	RestoreMana(amount float64) float64
	IsDead() bool
	Revive()
}

// Presence may be implemented by pointer targets so a typed nil stored in a
// Target is reported as no target instead of panicking.
type Presence interface {
	Present() bool
}

func present(t Target) bool {
	if t == nil {
		return false
	}
	if p, ok := t.(Presence); ok {
		return p.Present()
	}
	return true
}

// EffectTarget receives timed status effects. Targets that do not implement
// it cannot use over-time, buff or cleanse consumables.
type EffectTarget interface {
	AddTimedEffect(kind item.EffectKind, magnitude float64, duration time.Duration) bool
	ApplyBuff(buffID string, duration time.Duration) bool
	RemoveNegativeEffects() int
}

// Holder is the container consumed units are removed from.
type Holder interface {
	Contains(inst *item.Instance) bool
	RemoveByInstance(inst *item.Instance, qty int) inventory.RemoveResult
}
