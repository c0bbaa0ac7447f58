package model_test

import (
	"testing"
	"time"

	"github.com/kasuganosora/itemruntime/model"
	"github.com/kasuganosora/itemruntime/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	owner := &model.Owner{ID: "p1", Capacity: 20}
	require.NoError(t, db.Create(owner).Error)

	slot := &model.InventorySlot{
		OwnerID: "p1", SlotIndex: 0, InstanceID: "i-1", TemplateRef: "sword",
		Quantity: 1, Durability: 10, AcquiredAt: time.Now(),
		GeneratedStats: datatypes.JSON(`[{"stat":"attack","kind":"flat","value":3}]`),
	}
	require.NoError(t, db.Create(slot).Error)
	assert.Greater(t, slot.ID, int64(0))

	var found model.InventorySlot
	require.NoError(t, db.Where("owner_id = ? AND slot_index = ?", "p1", 0).First(&found).Error)
	assert.Equal(t, "sword", found.TemplateRef)
	assert.JSONEq(t, `[{"stat":"attack","kind":"flat","value":3}]`, string(found.GeneratedStats))

	dup := &model.InventorySlot{OwnerID: "p1", SlotIndex: 0, InstanceID: "i-2", TemplateRef: "x", Quantity: 1}
	assert.Error(t, db.Create(dup).Error, "one row per owner slot")

	bind := &model.EquipmentBinding{OwnerID: "p1", SlotKind: "weapon", InstanceID: "i-1", TemplateRef: "sword"}
	require.NoError(t, db.Create(bind).Error)

	al := &model.AuditLog{OwnerID: "p1", Action: "equipped", InstanceID: "i-1", CreatedAt: time.Now()}
	require.NoError(t, db.Create(al).Error)
}
