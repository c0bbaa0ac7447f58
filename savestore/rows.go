package savestore

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kasuganosora/itemruntime/game/equip"
	"github.com/kasuganosora/itemruntime/game/inventory"
	"github.com/kasuganosora/itemruntime/game/item"
	"github.com/kasuganosora/itemruntime/model"
	"gorm.io/datatypes"
)

func encodeStats(mods []item.StatModifier) (datatypes.JSON, error) {
	if len(mods) == 0 {
		return datatypes.JSON("[]"), nil
	}
	b, err := json.Marshal(mods)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func decodeStats(raw datatypes.JSON) ([]item.StatModifier, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var mods []item.StatModifier
	if err := json.Unmarshal(raw, &mods); err != nil {
		return nil, err
	}
	if len(mods) == 0 {
		return nil, nil
	}
	return mods, nil
}

func slotRows(ownerID string, rec inventory.Record) ([]model.InventorySlot, error) {
	rows := make([]model.InventorySlot, 0, len(rec.Slots))
	for _, s := range rec.Slots {
		stats, err := encodeStats(s.GeneratedStats)
		if err != nil {
			return nil, fmt.Errorf("savestore: encode slot %d: %w", s.Index, err)
		}
		rows = append(rows, model.InventorySlot{
			OwnerID:        ownerID,
			SlotIndex:      s.Index,
			InstanceID:     s.ID,
			TemplateRef:    s.TemplateRef,
			Quantity:       s.Quantity,
			Durability:     s.Durability,
			Equipped:       s.Equipped,
			AcquiredAt:     s.AcquiredAt,
			GeneratedStats: stats,
		})
	}
	return rows, nil
}

func bindingRows(ownerID string, rec equip.Record) ([]model.EquipmentBinding, error) {
	rows := make([]model.EquipmentBinding, 0, len(rec.Bindings))
	for _, b := range rec.Bindings {
		stats, err := encodeStats(b.GeneratedStats)
		if err != nil {
			return nil, fmt.Errorf("savestore: encode binding %s: %w", b.Slot, err)
		}
		rows = append(rows, model.EquipmentBinding{
			OwnerID:        ownerID,
			SlotKind:       b.Slot.String(),
			InstanceID:     b.ID,
			TemplateRef:    b.TemplateRef,
			Durability:     b.Durability,
			AcquiredAt:     b.AcquiredAt,
			GeneratedStats: stats,
		})
	}
	return rows, nil
}

func sortBindings(bs []equip.BindingRecord) {
	sort.Slice(bs, func(i, j int) bool { return bs[i].Slot < bs[j].Slot })
}
