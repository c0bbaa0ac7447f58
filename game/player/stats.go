package player

import "github.com/kasuganosora/itemruntime/game/item"

// BaseStats are a character's stats before any item or buff bonus.
type BaseStats map[item.StatKind]float64

// DefaultBaseStats is used when a session is created without base stats.
func DefaultBaseStats() BaseStats {
	return BaseStats{
		item.StatMaxHP:        100,
		item.StatMaxMP:        50,
		item.StatAttack:       10,
		item.StatDefense:      10,
		item.StatMagicAttack:  10,
		item.StatMagicDefense: 10,
		item.StatAgility:      10,
		item.StatLuck:         10,
	}
}

// CalcStats resolves base stats against a bonus table: flat bonuses are
// added first, then the summed percent bonus scales the result. Stats that
// only appear in bonuses start from zero.
func CalcStats(base BaseStats, bonuses item.StatTable) map[item.StatKind]float64 {
	out := make(map[item.StatKind]float64, len(base)+len(bonuses))
	for k, v := range base {
		out[k] = v
	}
	for k, b := range bonuses {
		v := (out[k] + b.Flat) * (1 + b.Percent)
		if v < 0 {
			v = 0
		}
		out[k] = v
	}
	return out
}
