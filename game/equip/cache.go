package equip

import "github.com/kasuganosora/itemruntime/game/item"

// bonusCache is a two-state memo: either valid with a table, or invalid.
// Readers always get a fully recomputed table.
type bonusCache struct {
	valid bool
	table item.StatTable
}

func (c *bonusCache) invalidate() {
	c.valid = false
	c.table = nil
}

func (c *bonusCache) get(compute func() item.StatTable) item.StatTable {
	if !c.valid {
		c.table = compute()
		c.valid = true
	}
	return c.table
}
