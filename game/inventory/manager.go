// Package inventory implements the slot-based item container that owns every
// item instance a player holds.
package inventory

import (
	"github.com/kasuganosora/itemruntime/game/event"
	"github.com/kasuganosora/itemruntime/game/item"
	"go.uber.org/zap"
)

const (
	DefaultCapacity    = 20
	DefaultMaxCapacity = 100
)

// Config sets the manager's starting and hard maximum slot counts.
type Config struct {
	Capacity    int
	MaxCapacity int
	Item        item.Options
}

// Manager owns an ordered sequence of slots. It is not safe for concurrent
// use; callers serialise access per owner.
type Manager struct {
	slots  []*Slot
	maxCap int
	opts   item.Options
	events event.Bus[Event]
	logger *zap.Logger
}

// NewManager creates a Manager with cfg.Capacity empty slots.
func NewManager(cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.MaxCapacity <= 0 {
		cfg.MaxCapacity = DefaultMaxCapacity
	}
	if cfg.Capacity > cfg.MaxCapacity {
		cfg.Capacity = cfg.MaxCapacity
	}
	m := &Manager{maxCap: cfg.MaxCapacity, opts: cfg.Item, logger: logger}
	m.resize(cfg.Capacity)
	return m
}

// Events returns the bus inventory notifications are published on.
func (m *Manager) Events() *event.Bus[Event] { return &m.events }

func (m *Manager) resize(n int) {
	m.slots = make([]*Slot, n)
	for i := range m.slots {
		m.slots[i] = &Slot{index: i}
	}
}

func (m *Manager) Capacity() int    { return len(m.slots) }
func (m *Manager) MaxCapacity() int { return m.maxCap }

func (m *Manager) inRange(i int) bool { return i >= 0 && i < len(m.slots) }

// AddResult reports the outcome of an add.
type AddResult struct {
	Added   int
	Dropped int
	Reason  item.Reason
}

// Placed reports whether at least one unit was stored.
func (r AddResult) Placed() bool { return r.Added > 0 }

// AddTemplate stores qty fresh units of t.
func (m *Manager) AddTemplate(t *item.Template, qty int) AddResult {
	if t == nil {
		return AddResult{Reason: item.ReasonInvalidTemplate}
	}
	return m.add(t, nil, qty)
}

// AddInstance stores qty units, the first of which is inst itself. Further
// non-stackable units are new instances of inst's template.
func (m *Manager) AddInstance(inst *item.Instance, qty int) AddResult {
	if inst == nil {
		return AddResult{Reason: item.ReasonInvalidInstance}
	}
	t := inst.Template()
	if t == nil {
		return AddResult{Reason: item.ReasonInvalidTemplate}
	}
	if m.indexOf(inst) >= 0 {
		return AddResult{Reason: item.ReasonInvalidInstance}
	}
	return m.add(t, inst, qty)
}

func (m *Manager) add(t *item.Template, inst *item.Instance, qty int) AddResult {
	if qty <= 0 {
		return AddResult{Reason: item.ReasonInvalidQuantity}
	}
	remaining := qty
	limit := t.StackLimit()

	if t.Stackable {
		for _, s := range m.slots {
			if remaining == 0 {
				break
			}
			if s.Empty() || s.inst.TemplateID() != t.ID {
				continue
			}
			n := min(remaining, limit-s.qty)
			if n <= 0 {
				continue
			}
			s.qty += n
			remaining -= n
			m.publishAdded(s, n)
		}
	}

	for remaining > 0 {
		idx := m.FirstFreeSlot()
		if idx < 0 {
			break
		}
		unit := inst
		inst = nil
		if unit == nil {
			unit = item.NewInstance(t, m.opts)
		}
		n := min(remaining, limit)
		s := m.slots[idx]
		s.put(unit, n)
		remaining -= n
		m.publishAdded(s, n)
	}

	res := AddResult{Added: qty - remaining, Dropped: remaining}
	if remaining > 0 {
		res.Reason = item.ReasonInventoryFull
		m.logger.Warn("inventory full, excess dropped",
			zap.String("template", t.ID),
			zap.Int("dropped", remaining))
		m.events.Publish(Event{Kind: InventoryFull, Slot: -1, Quantity: remaining, TemplateID: t.ID})
	}
	return res
}

func (m *Manager) publishAdded(s *Slot, n int) {
	m.events.Publish(Event{Kind: ItemAdded, Slot: s.index, Instance: s.inst, Quantity: n})
	m.events.Publish(Event{Kind: SlotChanged, Slot: s.index})
}

// RemoveResult reports the outcome of a removal.
type RemoveResult struct {
	Removed int
	Reason  item.Reason
}

// RemoveBySlot removes up to qty units from slot index.
func (m *Manager) RemoveBySlot(index, qty int) RemoveResult {
	if !m.inRange(index) {
		return RemoveResult{Reason: item.ReasonSlotOutOfRange}
	}
	if qty <= 0 {
		return RemoveResult{Reason: item.ReasonInvalidQuantity}
	}
	s := m.slots[index]
	if s.Empty() {
		return RemoveResult{Reason: item.ReasonEmptySlot}
	}
	return RemoveResult{Removed: m.takeFrom(s, qty)}
}

// RemoveByInstance removes up to qty units from the slot holding inst.
func (m *Manager) RemoveByInstance(inst *item.Instance, qty int) RemoveResult {
	if inst == nil {
		return RemoveResult{Reason: item.ReasonInvalidInstance}
	}
	idx := m.indexOf(inst)
	if idx < 0 {
		return RemoveResult{Reason: item.ReasonNotFound}
	}
	return m.RemoveBySlot(idx, qty)
}

// RemoveByTemplate removes up to qty units of t, draining the highest slot
// indices first so that leading stacks stay full.
func (m *Manager) RemoveByTemplate(t *item.Template, qty int) RemoveResult {
	if t == nil {
		return RemoveResult{Reason: item.ReasonInvalidTemplate}
	}
	if qty <= 0 {
		return RemoveResult{Reason: item.ReasonInvalidQuantity}
	}
	removed := 0
	for i := len(m.slots) - 1; i >= 0 && removed < qty; i-- {
		s := m.slots[i]
		if s.Empty() || s.inst.TemplateID() != t.ID {
			continue
		}
		removed += m.takeFrom(s, qty-removed)
	}
	if removed == 0 {
		return RemoveResult{Reason: item.ReasonNotFound}
	}
	return RemoveResult{Removed: removed}
}

func (m *Manager) takeFrom(s *Slot, qty int) int {
	inst := s.inst
	n := s.take(qty)
	m.events.Publish(Event{Kind: ItemRemoved, Slot: s.index, Instance: inst, Quantity: n})
	m.events.Publish(Event{Kind: SlotChanged, Slot: s.index})
	return n
}

// Move relocates, merges or swaps the contents of two slots.
func (m *Manager) Move(from, to int) item.Reason {
	if !m.inRange(from) || !m.inRange(to) {
		return item.ReasonSlotOutOfRange
	}
	if from == to {
		return item.ReasonSameSlot
	}
	src, dst := m.slots[from], m.slots[to]
	if src.Empty() {
		return item.ReasonEmptySlot
	}

	switch {
	case dst.Empty():
		dst.put(src.inst, src.qty)
		src.clear()
	case dst.inst.StacksWith(src.inst) && dst.Space() > 0:
		n := min(dst.Space(), src.qty)
		dst.qty += n
		src.take(n)
	default:
		si, sq := src.inst, src.qty
		src.put(dst.inst, dst.qty)
		dst.put(si, sq)
	}
	m.events.Publish(Event{Kind: SlotChanged, Slot: from})
	m.events.Publish(Event{Kind: SlotChanged, Slot: to})
	return item.ReasonNone
}

// Swap exchanges two slots' full contents without merging.
func (m *Manager) Swap(a, b int) item.Reason {
	if !m.inRange(a) || !m.inRange(b) {
		return item.ReasonSlotOutOfRange
	}
	if a == b {
		return item.ReasonSameSlot
	}
	sa, sb := m.slots[a], m.slots[b]
	ai, aq := sa.inst, sa.qty
	sa.put(sb.inst, sb.qty)
	sb.put(ai, aq)
	m.events.Publish(Event{Kind: SlotChanged, Slot: a})
	m.events.Publish(Event{Kind: SlotChanged, Slot: b})
	return item.ReasonNone
}

// ExpandCapacity appends n empty slots. It fails without change when the
// result would exceed the maximum capacity.
func (m *Manager) ExpandCapacity(n int) item.Reason {
	if n <= 0 {
		return item.ReasonInvalidQuantity
	}
	if len(m.slots)+n > m.maxCap {
		return item.ReasonCapacityLimit
	}
	start := len(m.slots)
	for i := 0; i < n; i++ {
		m.slots = append(m.slots, &Slot{index: start + i})
	}
	for i := start; i < len(m.slots); i++ {
		m.events.Publish(Event{Kind: SlotChanged, Slot: i})
	}
	return item.ReasonNone
}

// Clear empties every slot, keeping the capacity.
func (m *Manager) Clear() {
	for _, s := range m.slots {
		if s.Empty() {
			continue
		}
		s.clear()
		m.events.Publish(Event{Kind: SlotChanged, Slot: s.index})
	}
}

func (m *Manager) indexOf(inst *item.Instance) int {
	for i, s := range m.slots {
		if s.inst != nil && (s.inst == inst || s.inst.ID() == inst.ID()) {
			return i
		}
	}
	return -1
}
