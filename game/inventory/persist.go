package inventory

import (
	"github.com/kasuganosora/itemruntime/game/item"
	"go.uber.org/zap"
)

// SlotRecord is the persisted form of one occupied slot.
type SlotRecord struct {
	Index    int `json:"index"`
	Quantity int `json:"quantity"`
	item.InstanceFields
}

// Record is the persisted form of a whole inventory.
type Record struct {
	Capacity int          `json:"capacity"`
	Slots    []SlotRecord `json:"slots"`
}

// Snapshot captures every occupied slot.
func (m *Manager) Snapshot() Record {
	rec := Record{Capacity: len(m.slots)}
	for _, s := range m.slots {
		if s.Empty() {
			continue
		}
		rec.Slots = append(rec.Slots, SlotRecord{
			Index:          s.index,
			Quantity:       s.qty,
			InstanceFields: s.inst.Fields(),
		})
	}
	return rec
}

// RestoreReport counts what Restore kept and skipped.
type RestoreReport struct {
	Restored int
	Dropped  int
}

// Restore replaces the inventory with rec. Records that cannot be placed
// (unknown template, bad index, duplicate slot or id) are skipped with a
// warning; the rest are restored.
func (m *Manager) Restore(rec Record, r item.TemplateResolver) RestoreReport {
	capacity := rec.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if capacity > m.maxCap {
		m.logger.Warn("saved capacity exceeds maximum, clamping",
			zap.Int("saved", capacity), zap.Int("max", m.maxCap))
		capacity = m.maxCap
	}
	m.resize(capacity)

	var rep RestoreReport
	seen := make(map[string]bool, len(rec.Slots))
	for _, sr := range rec.Slots {
		drop := func(msg string, fields ...zap.Field) {
			rep.Dropped++
			m.logger.Warn(msg, append(fields, zap.Int("slot", sr.Index), zap.String("instance", sr.ID))...)
		}
		if !m.inRange(sr.Index) {
			drop("restore: slot index out of range")
			continue
		}
		if !m.slots[sr.Index].Empty() {
			drop("restore: slot already occupied")
			continue
		}
		if sr.ID != "" && seen[sr.ID] {
			drop("restore: duplicate instance id")
			continue
		}
		if sr.Quantity <= 0 {
			drop("restore: non-positive quantity")
			continue
		}
		inst, err := item.RestoreInstance(r, sr.InstanceFields)
		if err != nil {
			drop("restore: template unresolved, record dropped", zap.Error(err))
			continue
		}
		qty := sr.Quantity
		if limit := inst.Template().StackLimit(); qty > limit {
			m.logger.Warn("restore: quantity above stack limit, clamping",
				zap.Int("slot", sr.Index), zap.Int("quantity", qty), zap.Int("limit", limit))
			qty = limit
		}
		// Equipment bindings are re-established by the equipment manager.
		inst.SetEquipped(false)
		m.slots[sr.Index].put(inst, qty)
		seen[inst.ID()] = true
		rep.Restored++
		m.events.Publish(Event{Kind: SlotChanged, Slot: sr.Index})
	}
	return rep
}
