// Package equip binds item instances to the seven equipment slots, keeps the
// aggregate stat bonus of everything worn, and tracks item-set tiers.
package equip

import (
	"github.com/kasuganosora/itemruntime/game/event"
	"github.com/kasuganosora/itemruntime/game/item"
	"go.uber.org/zap"
)

// Manager maps each slot kind to at most one instance. Equipped instances
// stay owned by the inventory; the manager only holds references.
type Manager struct {
	bindings [item.SlotKindCount + 1]*item.Instance
	cache    bonusCache
	events   event.Bus[Event]
	logger   *zap.Logger
}

// NewManager creates a Manager with every slot empty.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{logger: logger}
}

// Events returns the bus equipment notifications are published on.
func (m *Manager) Events() *event.Bus[Event] { return &m.events }

// CanEquip checks every precondition for equipping inst by a character of
// the given level and mode.
func (m *Manager) CanEquip(inst *item.Instance, level int, mode item.CharacterMode) item.Reason {
	if inst == nil {
		return item.ReasonInvalidInstance
	}
	t := inst.Template()
	if t == nil {
		return item.ReasonInvalidTemplate
	}
	if !t.IsEquipment() {
		return item.ReasonNotEquipment
	}
	if !t.Equipment.Slot.Valid() {
		return item.ReasonInvalidSlotKind
	}
	if level < t.Equipment.RequiredLevel {
		return item.ReasonLevelTooLow
	}
	if t.Equipment.RequiredMode != item.ModeAny && t.Equipment.RequiredMode != mode {
		return item.ReasonWrongMode
	}
	return item.ReasonNone
}

// Equip binds inst to its template's slot kind, unequipping any occupant
// first. Listeners see the occupant's Unequipped before inst's Equipped.
func (m *Manager) Equip(inst *item.Instance, level int, mode item.CharacterMode) item.Reason {
	if r := m.CanEquip(inst, level, mode); !r.OK() {
		return r
	}
	kind := inst.Template().Equipment.Slot
	if cur := m.bindings[kind]; cur != nil && cur.ID() == inst.ID() {
		return item.ReasonNone
	}
	// An instance never sits in two slots: release any other binding of it.
	for k, b := range m.bindings {
		if b != nil && b.ID() == inst.ID() {
			m.release(item.SlotKind(k))
		}
	}
	if m.bindings[kind] != nil {
		m.release(kind)
	}
	m.bindings[kind] = inst
	inst.SetEquipped(true)
	m.cache.invalidate()
	m.events.Publish(Event{Kind: Equipped, Slot: kind, Instance: inst})
	m.events.Publish(Event{Kind: StatsChanged})
	return item.ReasonNone
}

// Unequip clears slot kind and returns the instance that was bound.
func (m *Manager) Unequip(kind item.SlotKind) (*item.Instance, item.Reason) {
	if !kind.Valid() {
		return nil, item.ReasonInvalidSlotKind
	}
	if m.bindings[kind] == nil {
		return nil, item.ReasonEmptySlot
	}
	inst := m.release(kind)
	m.events.Publish(Event{Kind: StatsChanged})
	return inst, item.ReasonNone
}

// UnequipInstance clears whichever slot holds the instance with id.
func (m *Manager) UnequipInstance(id string) (*item.Instance, item.Reason) {
	for k, b := range m.bindings {
		if b != nil && b.ID() == id {
			return m.Unequip(item.SlotKind(k))
		}
	}
	return nil, item.ReasonNotFound
}

// UnequipAll clears every slot, publishing one Unequipped per binding.
func (m *Manager) UnequipAll() []*item.Instance {
	var out []*item.Instance
	for k, b := range m.bindings {
		if b != nil {
			out = append(out, m.release(item.SlotKind(k)))
		}
	}
	if len(out) > 0 {
		m.events.Publish(Event{Kind: StatsChanged})
	}
	return out
}

func (m *Manager) release(kind item.SlotKind) *item.Instance {
	inst := m.bindings[kind]
	m.bindings[kind] = nil
	inst.SetEquipped(false)
	m.cache.invalidate()
	m.events.Publish(Event{Kind: Unequipped, Slot: kind, Instance: inst})
	return inst
}

// Get returns the instance bound to kind, or nil.
func (m *Manager) Get(kind item.SlotKind) *item.Instance {
	if !kind.Valid() {
		return nil
	}
	return m.bindings[kind]
}

// IsEquipped reports whether an instance with id is bound to any slot.
func (m *Manager) IsEquipped(id string) bool {
	for _, b := range m.bindings {
		if b != nil && b.ID() == id {
			return true
		}
	}
	return false
}

// Binding pairs a slot kind with its instance.
type Binding struct {
	Slot     item.SlotKind
	Instance *item.Instance
}

// Bound returns all non-empty bindings in slot order.
func (m *Manager) Bound() []Binding {
	var out []Binding
	for k, b := range m.bindings {
		if b != nil {
			out = append(out, Binding{Slot: item.SlotKind(k), Instance: b})
		}
	}
	return out
}

// GetBonus returns the aggregate bonus for one stat.
func (m *Manager) GetBonus(stat item.StatKind) item.StatBonus {
	return m.table().Get(stat)
}

// GetAllBonuses returns a copy of the aggregate bonus table.
func (m *Manager) GetAllBonuses() item.StatTable {
	return m.table().Clone()
}

func (m *Manager) table() item.StatTable {
	return m.cache.get(m.computeBonuses)
}

// computeBonuses folds base and generated modifiers of every bound instance.
// Broken instances contribute nothing.
func (m *Manager) computeBonuses() item.StatTable {
	tbl := item.StatTable{}
	for _, b := range m.bindings {
		if b == nil || b.Broken() {
			continue
		}
		tbl.AddAll(b.Modifiers())
	}
	return tbl
}

// DamageEquipped wears down the instance bound to kind by n durability
// points. StatsChanged is published when the instance breaks.
func (m *Manager) DamageEquipped(kind item.SlotKind, n int) item.Reason {
	return m.wear(kind, func(inst *item.Instance) { inst.Damage(n) })
}

// Repair restores the instance bound to kind to full durability.
// StatsChanged is published when a broken instance comes back.
func (m *Manager) Repair(kind item.SlotKind) item.Reason {
	return m.wear(kind, (*item.Instance).Repair)
}

func (m *Manager) wear(kind item.SlotKind, fn func(*item.Instance)) item.Reason {
	if !kind.Valid() {
		return item.ReasonInvalidSlotKind
	}
	inst := m.bindings[kind]
	if inst == nil {
		return item.ReasonEmptySlot
	}
	was := inst.Broken()
	fn(inst)
	m.cache.invalidate()
	if inst.Broken() != was {
		m.events.Publish(Event{Kind: StatsChanged})
	}
	return item.ReasonNone
}
