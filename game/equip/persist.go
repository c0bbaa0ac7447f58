package equip

import (
	"github.com/kasuganosora/itemruntime/game/item"
	"go.uber.org/zap"
)

// BindingRecord is the persisted form of one equipment binding.
type BindingRecord struct {
	Slot item.SlotKind `json:"slot"`
	item.InstanceFields
}

// Record is the persisted form of all bindings.
type Record struct {
	Bindings []BindingRecord `json:"bindings"`
}

// Snapshot captures the current bindings in slot order.
func (m *Manager) Snapshot() Record {
	var rec Record
	for _, b := range m.Bound() {
		rec.Bindings = append(rec.Bindings, BindingRecord{Slot: b.Slot, InstanceFields: b.Instance.Fields()})
	}
	return rec
}

// InstanceLookup finds an already restored instance by id, typically the
// one held by the inventory.
type InstanceLookup func(id string) *item.Instance

// RestoreReport counts what Restore kept and skipped.
type RestoreReport struct {
	Restored int
	Dropped  int
}

// Restore clears every binding and rebinds the records. Each instance is
// taken from lookup when it knows the id, otherwise rebuilt through the
// resolver. Unresolvable or inconsistent records are skipped with a warning.
// No Equipped notifications are published; set trackers should resync.
func (m *Manager) Restore(rec Record, r item.TemplateResolver, lookup InstanceLookup) RestoreReport {
	for k, b := range m.bindings {
		if b != nil {
			b.SetEquipped(false)
			m.bindings[k] = nil
		}
	}

	var rep RestoreReport
	for _, br := range rec.Bindings {
		drop := func(msg string, fields ...zap.Field) {
			rep.Dropped++
			m.logger.Warn(msg, append(fields, zap.Stringer("slot", br.Slot), zap.String("instance", br.ID))...)
		}
		if !br.Slot.Valid() {
			drop("restore equipment: invalid slot kind")
			continue
		}
		if m.bindings[br.Slot] != nil {
			drop("restore equipment: slot bound twice")
			continue
		}
		var inst *item.Instance
		if lookup != nil && br.ID != "" {
			inst = lookup(br.ID)
		}
		if inst == nil {
			var err error
			inst, err = item.RestoreInstance(r, br.InstanceFields)
			if err != nil {
				drop("restore equipment: template unresolved, binding dropped", zap.Error(err))
				continue
			}
		}
		if m.IsEquipped(inst.ID()) {
			drop("restore equipment: instance bound twice")
			continue
		}
		if t := inst.Template(); t == nil || !t.IsEquipment() || t.Equipment.Slot != br.Slot {
			drop("restore equipment: template does not fit slot")
			continue
		}
		m.bindings[br.Slot] = inst
		inst.SetEquipped(true)
		rep.Restored++
	}
	m.cache.invalidate()
	m.events.Publish(Event{Kind: StatsChanged})
	return rep
}
