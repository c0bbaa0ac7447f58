package model

import (
	"time"

	"gorm.io/datatypes"
)

// InventorySlot is one occupied inventory slot.
type InventorySlot struct {
	ID             int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID        string         `gorm:"uniqueIndex:idx_owner_slot;size:64;not null" json:"owner_id"`
	SlotIndex      int            `gorm:"uniqueIndex:idx_owner_slot;not null" json:"slot_index"`
	InstanceID     string         `gorm:"index:idx_slot_instance;size:36;not null" json:"instance_id"`
	TemplateRef    string         `gorm:"size:128;not null" json:"template_ref"`
	Quantity       int            `gorm:"not null" json:"quantity"`
	Durability     int            `gorm:"not null" json:"durability"` // -1 = untracked
	Equipped       bool           `gorm:"default:false" json:"equipped"`
	AcquiredAt     time.Time      `json:"acquired_at"`
	GeneratedStats datatypes.JSON `json:"generated_stats"`
}

// EquipmentBinding is one bound equipment slot.
type EquipmentBinding struct {
	ID             int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID        string         `gorm:"uniqueIndex:idx_owner_equip;size:64;not null" json:"owner_id"`
	SlotKind       string         `gorm:"uniqueIndex:idx_owner_equip;size:16;not null" json:"slot_kind"`
	InstanceID     string         `gorm:"size:36;not null" json:"instance_id"`
	TemplateRef    string         `gorm:"size:128;not null" json:"template_ref"`
	Durability     int            `gorm:"not null" json:"durability"`
	AcquiredAt     time.Time      `json:"acquired_at"`
	GeneratedStats datatypes.JSON `json:"generated_stats"`
}
