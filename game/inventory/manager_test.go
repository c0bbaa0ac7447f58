package inventory

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/kasuganosora/itemruntime/game/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func potion() *item.Template {
	return &item.Template{
		ID: "potion", Name: "Potion", Category: item.CategoryConsumable,
		Stackable: true, MaxStack: 5,
		Consumable: &item.ConsumableSpec{Effect: item.EffectHeal, Magnitude: 20},
	}
}

func ether() *item.Template {
	return &item.Template{
		ID: "ether", Name: "Ether", Category: item.CategoryConsumable, Rarity: item.RarityUncommon,
		Stackable: true, MaxStack: 3,
		Consumable: &item.ConsumableSpec{Effect: item.EffectRestoreMana, Magnitude: 10},
	}
}

func blade() *item.Template {
	return &item.Template{
		ID: "blade", Name: "Blade", Category: item.CategoryEquipment, Rarity: item.RarityEpic,
		Equipment: &item.EquipmentSpec{Slot: item.SlotWeapon, MaxDurability: 30},
	}
}

func helm() *item.Template {
	return &item.Template{
		ID: "helm", Name: "Helm", Category: item.CategoryEquipment, Rarity: item.RarityCommon,
		Equipment: &item.EquipmentSpec{Slot: item.SlotHelmet},
	}
}

func newManager(capacity int) *Manager {
	return NewManager(Config{Capacity: capacity, MaxCapacity: 40}, nil)
}

func quantities(m *Manager) []int {
	out := make([]int, m.Capacity())
	for i, v := range m.Slots() {
		out[i] = v.Quantity
	}
	return out
}

type recorder struct{ events []Event }

func (r *recorder) kinds() []EventKind {
	out := make([]EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func record(m *Manager) *recorder {
	r := &recorder{}
	m.Events().Subscribe("test", func(e Event) { r.events = append(r.events, e) })
	return r
}

// ---- Add ----

func TestAdd_BasicStacking(t *testing.T) {
	m := newManager(10)
	res := m.AddTemplate(potion(), 12)
	assert.True(t, res.Placed())
	assert.Equal(t, 12, res.Added)
	assert.Equal(t, []int{5, 5, 2, 0, 0, 0, 0, 0, 0, 0}, quantities(m))
	assert.Equal(t, 7, m.FreeSlots())
}

func TestAdd_FillsExistingStacksFirst(t *testing.T) {
	m := newManager(5)
	m.AddTemplate(potion(), 2)
	m.AddTemplate(blade(), 1)
	m.AddTemplate(potion(), 6)
	assert.Equal(t, []int{5, 1, 3, 0, 0}, quantities(m))
}

func TestAdd_NonStackableGetsOwnInstances(t *testing.T) {
	m := newManager(5)
	b := blade()
	inst := item.NewInstance(b, item.Options{})
	res := m.AddInstance(inst, 3)
	require.Equal(t, 3, res.Added)

	views := m.Occupied()
	require.Len(t, views, 3)
	assert.Same(t, inst, views[0].Instance)
	ids := map[string]bool{}
	for _, v := range views {
		assert.Equal(t, 1, v.Quantity)
		ids[v.Instance.ID()] = true
	}
	assert.Len(t, ids, 3)
}

func TestAdd_FullDropsExcessAndNotifiesOnce(t *testing.T) {
	m := newManager(2)
	rec := record(m)
	res := m.AddTemplate(potion(), 14)
	assert.Equal(t, 10, res.Added)
	assert.Equal(t, 4, res.Dropped)
	assert.Equal(t, item.ReasonInventoryFull, res.Reason)
	assert.True(t, res.Placed())

	full := 0
	for _, e := range rec.events {
		if e.Kind == InventoryFull {
			full++
			assert.Equal(t, 4, e.Quantity)
			assert.Equal(t, potion().ID, e.TemplateID)
		}
	}
	assert.Equal(t, 1, full)

	res = m.AddTemplate(blade(), 1)
	assert.False(t, res.Placed())
	assert.Equal(t, item.ReasonInventoryFull, res.Reason)
}

func TestAdd_InvalidArguments(t *testing.T) {
	m := newManager(3)
	assert.Equal(t, item.ReasonInvalidQuantity, m.AddTemplate(potion(), 0).Reason)
	assert.Equal(t, item.ReasonInvalidQuantity, m.AddTemplate(potion(), -2).Reason)
	assert.Equal(t, item.ReasonInvalidTemplate, m.AddTemplate(nil, 1).Reason)
	assert.Equal(t, item.ReasonInvalidInstance, m.AddInstance(nil, 1).Reason)
	assert.Equal(t, 0, m.UsedSlots())
}

func TestAdd_SameInstanceTwiceRejected(t *testing.T) {
	m := newManager(3)
	inst := item.NewInstance(blade(), item.Options{})
	require.True(t, m.AddInstance(inst, 1).Placed())
	assert.Equal(t, item.ReasonInvalidInstance, m.AddInstance(inst, 1).Reason)
	assert.Equal(t, 1, m.UsedSlots())
}

func TestAdd_Events(t *testing.T) {
	m := newManager(3)
	rec := record(m)
	m.AddTemplate(potion(), 7)
	assert.Equal(t, []EventKind{ItemAdded, SlotChanged, ItemAdded, SlotChanged}, rec.kinds())
	assert.Equal(t, 5, rec.events[0].Quantity)
	assert.Equal(t, 1, rec.events[2].Slot)
	assert.Equal(t, 2, rec.events[2].Quantity)
}

// ---- Remove ----

func TestRemoveBySlot_ClampsAndClears(t *testing.T) {
	m := newManager(3)
	m.AddTemplate(potion(), 4)
	res := m.RemoveBySlot(0, 10)
	assert.Equal(t, 4, res.Removed)
	v, _ := m.Get(0)
	assert.True(t, v.Empty())
	assert.Equal(t, 0, v.Quantity)
}

func TestRemoveBySlot_Errors(t *testing.T) {
	m := newManager(3)
	assert.Equal(t, item.ReasonSlotOutOfRange, m.RemoveBySlot(-1, 1).Reason)
	assert.Equal(t, item.ReasonSlotOutOfRange, m.RemoveBySlot(3, 1).Reason)
	assert.Equal(t, item.ReasonEmptySlot, m.RemoveBySlot(0, 1).Reason)
	m.AddTemplate(potion(), 1)
	assert.Equal(t, item.ReasonInvalidQuantity, m.RemoveBySlot(0, 0).Reason)
}

func TestRemoveByInstance(t *testing.T) {
	m := newManager(3)
	inst := item.NewInstance(blade(), item.Options{})
	m.AddInstance(inst, 1)
	assert.Equal(t, 1, m.RemoveByInstance(inst, 1).Removed)
	assert.False(t, m.Contains(inst))
	assert.Equal(t, item.ReasonNotFound, m.RemoveByInstance(inst, 1).Reason)
}

func TestRemoveByTemplate_AcrossSlots(t *testing.T) {
	m := newManager(4)
	p := potion()
	m.AddTemplate(p, 12)
	res := m.RemoveByTemplate(p, 8)
	assert.Equal(t, 8, res.Removed)
	assert.Equal(t, 4, m.TotalQuantity("potion"))
	assert.Equal(t, []int{4, 0, 0, 0}, quantities(m))

	res = m.RemoveByTemplate(p, 100)
	assert.Equal(t, 4, res.Removed)
	assert.Equal(t, item.ReasonNotFound, m.RemoveByTemplate(p, 1).Reason)
}

func TestConservation_AddThenRemove(t *testing.T) {
	m := newManager(10)
	p := potion()
	m.AddTemplate(p, 3)
	m.AddTemplate(blade(), 1)
	before := m.TotalQuantity("potion")
	m.AddTemplate(p, 9)
	m.RemoveByTemplate(p, 9)
	assert.Equal(t, before, m.TotalQuantity("potion"))
}

func TestStackingInvariant_RandomOps(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	templates := []*item.Template{potion(), ether(), blade(), helm()}
	m := newManager(12)
	for step := 0; step < 2000; step++ {
		tpl := templates[rng.IntN(len(templates))]
		switch rng.IntN(5) {
		case 0, 1:
			m.AddTemplate(tpl, rng.IntN(8))
		case 2:
			m.RemoveBySlot(rng.IntN(14)-1, rng.IntN(6))
		case 3:
			m.RemoveByTemplate(tpl, rng.IntN(6))
		case 4:
			m.Move(rng.IntN(12), rng.IntN(12))
		}
		for _, v := range m.Slots() {
			if v.Empty() {
				require.Equal(t, 0, v.Quantity)
				continue
			}
			limit := v.Instance.Template().StackLimit()
			require.Greater(t, v.Quantity, 0)
			require.LessOrEqual(t, v.Quantity, limit)
		}
	}
}

// ---- Move / Swap ----

func TestMove_ToEmpty(t *testing.T) {
	m := newManager(4)
	m.AddTemplate(potion(), 2)
	require.Equal(t, item.ReasonNone, m.Move(0, 3))
	assert.Equal(t, []int{0, 0, 0, 2}, quantities(m))
}

func TestMove_MergesWhatFits(t *testing.T) {
	m := newManager(4)
	p := potion()
	m.AddTemplate(p, 5)
	m.AddTemplate(p, 3)  // slot 1 = 3
	m.RemoveBySlot(0, 1) // slot 0 = 4
	require.Equal(t, item.ReasonNone, m.Move(1, 0))
	assert.Equal(t, []int{5, 2, 0, 0}, quantities(m))
}

func TestMove_SwapsIncompatible(t *testing.T) {
	m := newManager(4)
	m.AddTemplate(potion(), 2)
	m.AddTemplate(blade(), 1)
	before := m.Slots()
	require.Equal(t, item.ReasonNone, m.Move(0, 1))
	after := m.Slots()
	assert.Same(t, before[0].Instance, after[1].Instance)
	assert.Same(t, before[1].Instance, after[0].Instance)
	assert.Equal(t, 2, after[1].Quantity)
}

func TestMove_Errors(t *testing.T) {
	m := newManager(2)
	assert.Equal(t, item.ReasonSlotOutOfRange, m.Move(0, 5))
	assert.Equal(t, item.ReasonSameSlot, m.Move(1, 1))
	assert.Equal(t, item.ReasonEmptySlot, m.Move(0, 1))
}

func TestSwap(t *testing.T) {
	m := newManager(3)
	m.AddTemplate(potion(), 2)
	m.AddTemplate(potion(), 2) // merges into slot 0
	m.Move(0, 2)
	m.AddTemplate(ether(), 1)
	require.Equal(t, item.ReasonNone, m.Swap(0, 2))
	v0, _ := m.Get(0)
	assert.Equal(t, "potion", v0.Instance.TemplateID())
	assert.Equal(t, item.ReasonSlotOutOfRange, m.Swap(0, 9))
}

// ---- Sort ----

func TestSort_RarityDescendingPacksFromZero(t *testing.T) {
	m := newManager(6)
	m.AddTemplate(helm(), 1)
	m.AddTemplate(potion(), 1)
	m.AddTemplate(blade(), 1)
	m.RemoveBySlot(1, 1) // hole at slot 1
	m.AddTemplate(ether(), 1)
	m.Move(1, 5)

	rec := record(m)
	m.Sort(SortByRarity)
	views := m.Slots()
	assert.Equal(t, "blade", views[0].Instance.TemplateID())
	assert.Equal(t, "ether", views[1].Instance.TemplateID())
	assert.Equal(t, "helm", views[2].Instance.TemplateID())
	for i := 3; i < 6; i++ {
		assert.True(t, views[i].Empty())
	}
	for i, v := range views {
		assert.Equal(t, i, v.Index)
	}
	assert.Equal(t, []EventKind{InventorySorted}, rec.kinds())
}

func TestSort_Stable(t *testing.T) {
	m := newManager(4)
	m.AddTemplate(potion(), 5)
	m.AddTemplate(potion(), 5)
	first := m.Slots()[0].Instance
	m.Sort(SortByCategory)
	assert.Same(t, first, m.Slots()[0].Instance)
}

func TestSort_ByAcquiredNewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newManager(3)
	for i, tpl := range []*item.Template{helm(), blade()} {
		at := base.Add(time.Duration(i) * time.Hour)
		m.AddInstance(item.NewInstance(tpl, item.Options{Now: func() time.Time { return at }}), 1)
	}
	m.Sort(SortByAcquired)
	assert.Equal(t, "blade", m.Slots()[0].Instance.TemplateID())
}

func TestSort_ByNameAndSlotKind(t *testing.T) {
	m := newManager(4)
	m.AddTemplate(potion(), 1)
	m.AddTemplate(helm(), 1)
	m.AddTemplate(blade(), 1)
	m.Sort(SortByName)
	assert.Equal(t, "blade", m.Slots()[0].Instance.TemplateID())
	m.Sort(SortBySlotKind)
	assert.Equal(t, []string{"blade", "helm", "potion"}, []string{
		m.Slots()[0].Instance.TemplateID(),
		m.Slots()[1].Instance.TemplateID(),
		m.Slots()[2].Instance.TemplateID(),
	})
}

// ---- Capacity ----

func TestExpandCapacity(t *testing.T) {
	m := NewManager(Config{Capacity: 10, MaxCapacity: 15}, nil)
	assert.Equal(t, item.ReasonNone, m.ExpandCapacity(5))
	assert.Equal(t, 15, m.Capacity())
	assert.Equal(t, item.ReasonCapacityLimit, m.ExpandCapacity(1))
	assert.Equal(t, 15, m.Capacity())
	assert.Equal(t, item.ReasonInvalidQuantity, m.ExpandCapacity(0))
}

func TestCanAdd(t *testing.T) {
	m := newManager(2)
	m.AddTemplate(potion(), 3)
	assert.True(t, m.CanAdd(potion(), 7))
	assert.False(t, m.CanAdd(potion(), 8))
	assert.True(t, m.CanAdd(blade(), 1))
	assert.False(t, m.CanAdd(blade(), 2))
	assert.False(t, m.CanAdd(nil, 1))
}

// ---- Queries ----

func TestFilter(t *testing.T) {
	m := newManager(8)
	m.AddTemplate(potion(), 2)
	m.AddTemplate(ether(), 1)
	m.AddTemplate(blade(), 1)
	m.AddTemplate(helm(), 1)

	assert.Len(t, m.ByCategory(item.CategoryEquipment), 2)
	assert.Len(t, m.ByRarity(item.RarityUncommon), 1)
	assert.Len(t, m.Filter(Filter{MinRarity: item.RarityUncommon}), 2)

	weapon := item.SlotWeapon
	got := m.Filter(Filter{Slot: &weapon})
	require.Len(t, got, 1)
	assert.Equal(t, "blade", got[0].Instance.TemplateID())

	assert.Len(t, m.Filter(Filter{NameContains: "ETH"}), 1)
	assert.Len(t, m.Filter(Filter{StackableOnly: true}), 2)

	got[0].Instance.SetEquipped(true)
	assert.Len(t, m.Filter(Filter{EquippedOnly: true}), 1)
	assert.Len(t, m.Filter(Filter{Category: item.CategoryConsumable, NameContains: "pot"}), 1)
}

func TestFirstFreeSlotAndFind(t *testing.T) {
	m := newManager(2)
	assert.Equal(t, 0, m.FirstFreeSlot())
	inst := item.NewInstance(blade(), item.Options{})
	m.AddInstance(inst, 1)
	assert.Equal(t, 1, m.FirstFreeSlot())
	v, ok := m.FindInstance(inst.ID())
	require.True(t, ok)
	assert.Equal(t, 0, v.Index)
	m.AddTemplate(helm(), 1)
	assert.Equal(t, -1, m.FirstFreeSlot())
	_, ok = m.Get(9)
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	m := newManager(3)
	m.AddTemplate(potion(), 9)
	m.Clear()
	assert.Equal(t, 0, m.UsedSlots())
	assert.Equal(t, 3, m.Capacity())
}
