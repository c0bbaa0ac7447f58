// Package savestore persists per-owner inventory and equipment records
// through gorm, keeping a JSON snapshot of each save in the cache.
package savestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kasuganosora/itemruntime/cache"
	"github.com/kasuganosora/itemruntime/game/equip"
	"github.com/kasuganosora/itemruntime/game/inventory"
	"github.com/kasuganosora/itemruntime/game/item"
	"github.com/kasuganosora/itemruntime/game/player"
	"github.com/kasuganosora/itemruntime/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned by Load for owners that were never saved.
var ErrNotFound = errors.New("savestore: owner not found")

const snapshotPrefix = "save:"

// Store is the gorm-backed save repository.
type Store struct {
	db     *gorm.DB
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a Store. A nil cache disables snapshots.
func New(db *gorm.DB, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, cache: c, ttl: ttl, logger: logger}
}

func snapshotKey(ownerID string) string { return snapshotPrefix + ownerID }

// Save replaces everything stored for ownerID with data in one transaction
// and refreshes the snapshot.
func (s *Store) Save(ctx context.Context, ownerID string, data player.SaveData) error {
	slots, err := slotRows(ownerID, data.Inventory)
	if err != nil {
		return err
	}
	bindings, err := bindingRows(ownerID, data.Equipment)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"capacity":   data.Inventory.Capacity,
				"revision":   gorm.Expr("revision + 1"),
				"updated_at": time.Now(),
			}),
		}).Create(&model.Owner{ID: ownerID, Capacity: data.Inventory.Capacity, Revision: 1}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", ownerID).Delete(&model.InventorySlot{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", ownerID).Delete(&model.EquipmentBinding{}).Error; err != nil {
			return err
		}
		if len(slots) > 0 {
			if err := tx.Create(&slots).Error; err != nil {
				return err
			}
		}
		if len(bindings) > 0 {
			if err := tx.Create(&bindings).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("savestore: save %s: %w", ownerID, err)
	}
	s.putSnapshot(ctx, ownerID, data)
	return nil
}

// Load returns the saved data for ownerID, preferring the snapshot.
func (s *Store) Load(ctx context.Context, ownerID string) (player.SaveData, error) {
	if data, ok := s.getSnapshot(ctx, ownerID); ok {
		return data, nil
	}

	var owner model.Owner
	err := s.db.WithContext(ctx).First(&owner, "id = ?", ownerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return player.SaveData{}, ErrNotFound
	}
	if err != nil {
		return player.SaveData{}, fmt.Errorf("savestore: load %s: %w", ownerID, err)
	}

	var slots []model.InventorySlot
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("slot_index").Find(&slots).Error; err != nil {
		return player.SaveData{}, fmt.Errorf("savestore: load slots %s: %w", ownerID, err)
	}
	var bindings []model.EquipmentBinding
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&bindings).Error; err != nil {
		return player.SaveData{}, fmt.Errorf("savestore: load equipment %s: %w", ownerID, err)
	}

	data := player.SaveData{Inventory: inventory.Record{Capacity: owner.Capacity}}
	for _, r := range slots {
		stats, err := decodeStats(r.GeneratedStats)
		if err != nil {
			s.logger.Warn("slot generated stats unreadable, dropped",
				zap.String("owner", ownerID), zap.Int("slot", r.SlotIndex), zap.Error(err))
		}
		data.Inventory.Slots = append(data.Inventory.Slots, inventory.SlotRecord{
			Index:    r.SlotIndex,
			Quantity: r.Quantity,
			InstanceFields: item.InstanceFields{
				ID:             r.InstanceID,
				TemplateRef:    r.TemplateRef,
				Durability:     r.Durability,
				Equipped:       r.Equipped,
				AcquiredAt:     r.AcquiredAt,
				GeneratedStats: stats,
			},
		})
	}
	for _, r := range bindings {
		stats, err := decodeStats(r.GeneratedStats)
		if err != nil {
			s.logger.Warn("binding generated stats unreadable, dropped",
				zap.String("owner", ownerID), zap.String("slot", r.SlotKind), zap.Error(err))
		}
		data.Equipment.Bindings = append(data.Equipment.Bindings, equip.BindingRecord{
			Slot: item.ParseSlotKind(r.SlotKind),
			InstanceFields: item.InstanceFields{
				ID:             r.InstanceID,
				TemplateRef:    r.TemplateRef,
				Durability:     r.Durability,
				Equipped:       true,
				AcquiredAt:     r.AcquiredAt,
				GeneratedStats: stats,
			},
		})
	}
	sortBindings(data.Equipment.Bindings)
	s.putSnapshot(ctx, ownerID, data)
	return data, nil
}

// Delete removes everything stored for ownerID.
func (s *Store) Delete(ctx context.Context, ownerID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&model.InventorySlot{}, &model.EquipmentBinding{}} {
			if err := tx.Where("owner_id = ?", ownerID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", ownerID).Delete(&model.Owner{}).Error
	})
	if err != nil {
		return fmt.Errorf("savestore: delete %s: %w", ownerID, err)
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, snapshotKey(ownerID)); err != nil {
			s.logger.Warn("snapshot delete failed", zap.String("owner", ownerID), zap.Error(err))
		}
	}
	return nil
}

// Revision returns how many times ownerID has been saved.
func (s *Store) Revision(ctx context.Context, ownerID string) (int64, error) {
	var owner model.Owner
	err := s.db.WithContext(ctx).Select("revision").First(&owner, "id = ?", ownerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	return owner.Revision, err
}

func (s *Store) putSnapshot(ctx context.Context, ownerID string, data player.SaveData) {
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(data)
	if err != nil {
		s.logger.Warn("snapshot encode failed", zap.String("owner", ownerID), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, snapshotKey(ownerID), string(b), s.ttl); err != nil {
		s.logger.Warn("snapshot write failed", zap.String("owner", ownerID), zap.Error(err))
	}
}

func (s *Store) getSnapshot(ctx context.Context, ownerID string) (player.SaveData, bool) {
	if s.cache == nil {
		return player.SaveData{}, false
	}
	v, err := s.cache.Get(ctx, snapshotKey(ownerID))
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.logger.Warn("snapshot read failed", zap.String("owner", ownerID), zap.Error(err))
		}
		return player.SaveData{}, false
	}
	var data player.SaveData
	if err := json.Unmarshal([]byte(v), &data); err != nil {
		s.logger.Warn("snapshot corrupt, falling back to database", zap.String("owner", ownerID), zap.Error(err))
		return player.SaveData{}, false
	}
	return data, true
}
