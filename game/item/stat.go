package item

import "sort"

// StatKind names a character attribute that equipment can modify.
type StatKind string

const (
	StatMaxHP        StatKind = "max_hp"
	StatMaxMP        StatKind = "max_mp"
	StatAttack       StatKind = "attack"
	StatDefense      StatKind = "defense"
	StatMagicAttack  StatKind = "magic_attack"
	StatMagicDefense StatKind = "magic_defense"
	StatAgility      StatKind = "agility"
	StatLuck         StatKind = "luck"
	StatCritRate     StatKind = "crit_rate"
	StatMoveSpeed    StatKind = "move_speed"
)

// ModifierKind selects how a modifier value is meant to be applied.
// Flat values are added to the base stat; percent values accumulate in a
// separate bucket and are applied by whoever consumes the table.
type ModifierKind string

const (
	ModifierFlat    ModifierKind = "flat"
	ModifierPercent ModifierKind = "percent"
)

// StatModifier is one stat adjustment carried by a template, an instance or
// a set tier.
type StatModifier struct {
	Stat  StatKind     `json:"stat" yaml:"stat"`
	Kind  ModifierKind `json:"kind" yaml:"kind"`
	Value float64      `json:"value" yaml:"value"`
}

// StatBonus is the aggregate for one stat.
type StatBonus struct {
	Flat    float64 `json:"flat"`
	Percent float64 `json:"percent"`
}

// StatTable maps stats to their aggregate bonus.
type StatTable map[StatKind]StatBonus

// Add folds a single modifier into the table.
func (t StatTable) Add(m StatModifier) {
	b := t[m.Stat]
	if m.Kind == ModifierPercent {
		b.Percent += m.Value
	} else {
		b.Flat += m.Value
	}
	t[m.Stat] = b
}

// AddAll folds every modifier in mods into the table.
func (t StatTable) AddAll(mods []StatModifier) {
	for _, m := range mods {
		t.Add(m)
	}
}

// Merge adds every entry of other into t.
func (t StatTable) Merge(other StatTable) {
	for k, v := range other {
		b := t[k]
		b.Flat += v.Flat
		b.Percent += v.Percent
		t[k] = b
	}
}

// Get returns the bonus for stat, zero if absent.
func (t StatTable) Get(stat StatKind) StatBonus {
	return t[stat]
}

// Clone returns an independent copy.
func (t StatTable) Clone() StatTable {
	out := make(StatTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Stats returns the stat kinds present in the table in sorted order.
func (t StatTable) Stats() []StatKind {
	out := make([]StatKind, 0, len(t))
	for k := range t {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Equal compares two tables, treating missing entries as zero.
func (t StatTable) Equal(other StatTable) bool {
	for k, v := range t {
		if other[k] != v {
			return false
		}
	}
	for k, v := range other {
		if t[k] != v {
			return false
		}
	}
	return true
}

func cloneModifiers(mods []StatModifier) []StatModifier {
	if len(mods) == 0 {
		return nil
	}
	out := make([]StatModifier, len(mods))
	copy(out, mods)
	return out
}
