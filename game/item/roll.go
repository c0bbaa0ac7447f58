package item

import (
	"math"
	"math/rand/v2"
)

// rollStats draws up to rolls entries from pool, weighted and without
// replacement. Flat values are rounded to whole numbers.
func rollStats(pool []RandomStat, rolls int, rng *rand.Rand) []StatModifier {
	if rolls <= 0 || len(pool) == 0 {
		return nil
	}
	intn := rand.IntN
	float := rand.Float64
	if rng != nil {
		intn = rng.IntN
		float = rng.Float64
	}

	remaining := make([]RandomStat, len(pool))
	copy(remaining, pool)
	out := make([]StatModifier, 0, rolls)
	for len(out) < rolls && len(remaining) > 0 {
		total := 0
		for _, rs := range remaining {
			total += weightOf(rs)
		}
		pick := intn(total)
		idx := 0
		for i, rs := range remaining {
			pick -= weightOf(rs)
			if pick < 0 {
				idx = i
				break
			}
		}
		rs := remaining[idx]
		remaining = append(remaining[:idx], remaining[idx+1:]...)

		v := rs.Min + float()*(rs.Max-rs.Min)
		kind := rs.Kind
		if kind == "" {
			kind = ModifierFlat
		}
		if kind == ModifierFlat {
			v = math.Round(v)
		}
		out = append(out, StatModifier{Stat: rs.Stat, Kind: kind, Value: v})
	}
	return out
}

func weightOf(rs RandomStat) int {
	if rs.Weight <= 0 {
		return 1
	}
	return rs.Weight
}
