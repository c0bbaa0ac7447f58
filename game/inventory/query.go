package inventory

import (
	"sort"
	"strings"

	"github.com/kasuganosora/itemruntime/game/item"
)

// Get returns a view of slot index.
func (m *Manager) Get(index int) (View, bool) {
	if !m.inRange(index) {
		return View{}, false
	}
	return m.slots[index].view(), true
}

// Slots returns a view of every slot in index order.
func (m *Manager) Slots() []View {
	out := make([]View, len(m.slots))
	for i, s := range m.slots {
		out[i] = s.view()
	}
	return out
}

// Occupied returns views of non-empty slots in index order.
func (m *Manager) Occupied() []View {
	return m.Filter(Filter{})
}

func (m *Manager) UsedSlots() int {
	n := 0
	for _, s := range m.slots {
		if !s.Empty() {
			n++
		}
	}
	return n
}

func (m *Manager) FreeSlots() int { return len(m.slots) - m.UsedSlots() }

// FirstFreeSlot returns the lowest empty slot index, or -1.
func (m *Manager) FirstFreeSlot() int {
	for i, s := range m.slots {
		if s.Empty() {
			return i
		}
	}
	return -1
}

// FindInstance returns the slot view holding the instance with id.
func (m *Manager) FindInstance(id string) (View, bool) {
	for _, s := range m.slots {
		if s.inst != nil && s.inst.ID() == id {
			return s.view(), true
		}
	}
	return View{}, false
}

// Contains reports whether inst is held by any slot.
func (m *Manager) Contains(inst *item.Instance) bool {
	return inst != nil && m.indexOf(inst) >= 0
}

// TotalQuantity sums the units of templateID across all slots.
func (m *Manager) TotalQuantity(templateID string) int {
	total := 0
	for _, s := range m.slots {
		if s.inst != nil && s.inst.TemplateID() == templateID {
			total += s.qty
		}
	}
	return total
}

// CanAdd reports whether qty units of t would fit without dropping any.
func (m *Manager) CanAdd(t *item.Template, qty int) bool {
	if t == nil || qty <= 0 {
		return false
	}
	room := 0
	limit := t.StackLimit()
	for _, s := range m.slots {
		switch {
		case s.Empty():
			room += limit
		case t.Stackable && s.inst.TemplateID() == t.ID:
			room += limit - s.qty
		}
		if room >= qty {
			return true
		}
	}
	return false
}

// Filter selects occupied slots. Zero-valued fields match everything.
type Filter struct {
	Category      item.Category
	MinRarity     item.Rarity
	Slot          *item.SlotKind
	NameContains  string
	StackableOnly bool
	EquippedOnly  bool
}

func (f Filter) match(s *Slot) bool {
	t := s.Template()
	if t == nil {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if t.Rarity < f.MinRarity {
		return false
	}
	if f.Slot != nil && t.EquipSlot() != *f.Slot {
		return false
	}
	if f.NameContains != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	if f.StackableOnly && !t.Stackable {
		return false
	}
	if f.EquippedOnly && !s.inst.Equipped() {
		return false
	}
	return true
}

// Filter returns views of occupied slots matching f, in index order.
func (m *Manager) Filter(f Filter) []View {
	var out []View
	for _, s := range m.slots {
		if !s.Empty() && f.match(s) {
			out = append(out, s.view())
		}
	}
	return out
}

func (m *Manager) ByCategory(c item.Category) []View {
	return m.Filter(Filter{Category: c})
}

// ByRarity returns slots whose template rarity equals r exactly.
func (m *Manager) ByRarity(r item.Rarity) []View {
	var out []View
	for _, v := range m.Filter(Filter{MinRarity: r}) {
		if v.Instance.Template().Rarity == r {
			out = append(out, v)
		}
	}
	return out
}

// SortKey selects the ordering used by Sort. Rarity sorts rarest first and
// acquisition time sorts newest first.
type SortKey int

const (
	SortByCategory SortKey = iota
	SortByRarity
	SortByName
	SortByAcquired
	SortBySlotKind
)

func (k SortKey) less(a, b *Slot) bool {
	ta, tb := a.Template(), b.Template()
	switch k {
	case SortByCategory:
		return item.CategoryRank(ta.Category) < item.CategoryRank(tb.Category)
	case SortByRarity:
		return ta.Rarity > tb.Rarity
	case SortByName:
		return ta.Name < tb.Name
	case SortByAcquired:
		return a.inst.AcquiredAt().After(b.inst.AcquiredAt())
	case SortBySlotKind:
		return slotRank(ta) < slotRank(tb)
	}
	return false
}

// slotRank puts non-equipment after every equip slot kind.
func slotRank(t *item.Template) int {
	if s := t.EquipSlot(); s.Valid() {
		return int(s)
	}
	return item.SlotKindCount + 1
}

// Sort stable-orders the occupied slots by key and packs them from index 0,
// leaving the trailing slots empty.
func (m *Manager) Sort(key SortKey) {
	occupied := make([]*Slot, 0, len(m.slots))
	for _, s := range m.slots {
		if !s.Empty() {
			occupied = append(occupied, s)
		}
	}
	sort.SliceStable(occupied, func(i, j int) bool {
		return key.less(occupied[i], occupied[j])
	})

	packed := make([]*Slot, len(m.slots))
	for i := range packed {
		packed[i] = &Slot{index: i}
		if i < len(occupied) {
			packed[i].put(occupied[i].inst, occupied[i].qty)
		}
	}
	m.slots = packed
	m.events.Publish(Event{Kind: InventorySorted, Slot: -1})
}
