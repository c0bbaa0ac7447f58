package player

import (
	"fmt"
	"sync"
	"time"

	"github.com/kasuganosora/itemruntime/game/consumable"
	"github.com/kasuganosora/itemruntime/game/effect"
	"github.com/kasuganosora/itemruntime/game/equip"
	"github.com/kasuganosora/itemruntime/game/inventory"
	"github.com/kasuganosora/itemruntime/game/item"
	"go.uber.org/zap"
)

// Deps are the shared collaborators every session is built from.
type Deps struct {
	Resolver  item.TemplateResolver
	Sets      []equip.SetDefinition
	Buffs     effect.Catalog
	Inventory inventory.Config
	Logger    *zap.Logger
}

// Profile describes the character a session is created for.
type Profile struct {
	Level int
	Mode  item.CharacterMode
	Base  BaseStats
}

// SaveData is everything persisted for one owner. Set counters, cooldowns
// and effects are derived or transient and are not saved.
type SaveData struct {
	Inventory inventory.Record `json:"inventory"`
	Equipment equip.Record     `json:"equipment"`
}

// LoadReport summarises a Load.
type LoadReport struct {
	Inventory inventory.RestoreReport
	Equipment equip.RestoreReport
	Returned  int // bound instances missing from the inventory, placed back
}

// Session bundles one owner's managers. Every exported method takes the
// session lock; listeners run under it and must not call back into the
// session.
type Session struct {
	OwnerID string

	mu          sync.Mutex
	resolver    item.TemplateResolver
	inventory   *inventory.Manager
	equipment   *equip.Manager
	sets        *equip.SetTracker
	consumables *consumable.Manager
	character   *Character

	totalValid bool
	total      item.StatTable

	unsubs []func()
	logger *zap.Logger
}

// NewSession wires a fresh set of managers for ownerID.
func NewSession(ownerID string, p Profile, d Deps) (*Session, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("owner", ownerID))

	inv := inventory.NewManager(d.Inventory, logger)
	eq := equip.NewManager(logger)
	sets := equip.NewSetTracker(eq, logger)
	if err := sets.Register(d.Sets...); err != nil {
		sets.Close()
		return nil, fmt.Errorf("session %s: %w", ownerID, err)
	}
	s := &Session{
		OwnerID:     ownerID,
		resolver:    d.Resolver,
		inventory:   inv,
		equipment:   eq,
		sets:        sets,
		consumables: consumable.NewManager(inv, logger),
		character:   newCharacter(p.Level, p.Mode, p.Base, d.Buffs),
		logger:      logger,
	}
	s.unsubs = append(s.unsubs,
		sets.Close,
		inv.Events().Subscribe("session", s.onInventory),
		eq.Events().Subscribe("session", func(e equip.Event) {
			if e.Kind == equip.StatsChanged {
				s.invalidate()
			}
		}),
		sets.Events().Subscribe("session", func(equip.SetEvent) { s.invalidate() }),
		s.character.Events().Subscribe("session", func(c effect.Change) {
			if c.Buff {
				s.invalidate()
			}
		}),
	)
	s.refreshVitals()
	return s, nil
}

// Close detaches the session's internal listeners.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.unsubs) - 1; i >= 0; i-- {
		s.unsubs[i]()
	}
	s.unsubs = nil
}

// onInventory unequips instances that left the inventory.
func (s *Session) onInventory(e inventory.Event) {
	if e.Kind != inventory.ItemRemoved || e.Instance == nil || !e.Instance.Equipped() {
		return
	}
	if !s.inventory.Contains(e.Instance) {
		s.equipment.UnequipInstance(e.Instance.ID())
	}
}

func (s *Session) invalidate() {
	s.totalValid = false
	s.total = nil
	s.refreshVitals()
}

func (s *Session) totalBonuses() item.StatTable {
	if !s.totalValid {
		tbl := s.equipment.GetAllBonuses()
		tbl.Merge(s.sets.AllBonuses())
		tbl.Merge(s.character.Bonuses())
		s.total = tbl
		s.totalValid = true
	}
	return s.total
}

func (s *Session) refreshVitals() {
	st := CalcStats(s.character.Base, s.totalBonuses())
	s.character.setMax(st[item.StatMaxHP], st[item.StatMaxMP])
}

// Do runs fn under the session lock for direct manager access.
func (s *Session) Do(fn func(v View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(View{s})
}

// View exposes the managers while the session lock is held.
type View struct{ s *Session }

func (v View) Inventory() *inventory.Manager    { return v.s.inventory }
func (v View) Equipment() *equip.Manager        { return v.s.equipment }
func (v View) Sets() *equip.SetTracker          { return v.s.sets }
func (v View) Consumables() *consumable.Manager { return v.s.consumables }
func (v View) Character() *Character            { return v.s.character }
func (v View) TotalBonuses() item.StatTable     { return v.s.totalBonuses().Clone() }
func (v View) Stats() map[item.StatKind]float64 { return CalcStats(v.s.character.Base, v.s.totalBonuses()) }

// AddItem resolves templateID and adds qty fresh units.
func (s *Session) AddItem(templateID string, qty int) (inventory.AddResult, error) {
	if s.resolver == nil {
		return inventory.AddResult{}, fmt.Errorf("add %s: no resolver", templateID)
	}
	t, err := s.resolver.Resolve(templateID)
	if err != nil {
		return inventory.AddResult{}, fmt.Errorf("add %s: %w", templateID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inventory.AddTemplate(t, qty), nil
}

// RemoveItem removes up to qty units of the instance with instanceID.
func (s *Session) RemoveItem(instanceID string, qty int) inventory.RemoveResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.inventory.FindInstance(instanceID)
	if !ok {
		return inventory.RemoveResult{Reason: item.ReasonNotFound}
	}
	return s.inventory.RemoveByInstance(v.Instance, qty)
}

// Equip equips an instance held in the inventory.
func (s *Session) Equip(instanceID string) item.Reason {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.inventory.FindInstance(instanceID)
	if !ok {
		return item.ReasonNotFound
	}
	return s.equipment.Equip(v.Instance, s.character.Level, s.character.Mode)
}

// Unequip clears an equipment slot. The instance stays in the inventory.
func (s *Session) Unequip(kind item.SlotKind) item.Reason {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, r := s.equipment.Unequip(kind)
	return r
}

// DamageEquipment wears down the instance worn in kind by n durability points.
func (s *Session) DamageEquipment(kind item.SlotKind, n int) item.Reason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.equipment.DamageEquipped(kind, n)
}

// RepairEquipment restores the instance worn in kind to full durability.
func (s *Session) RepairEquipment(kind item.SlotKind) item.Reason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.equipment.Repair(kind)
}

// UseItem uses a consumable held in the inventory on the character.
func (s *Session) UseItem(instanceID string) consumable.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.inventory.FindInstance(instanceID)
	if !ok {
		return consumable.Result{Reason: item.ReasonNotFound}
	}
	return s.consumables.UseItem(v.Instance, s.character)
}

// SetLevel changes the character level. Equipment already worn stays on.
func (s *Session) SetLevel(level int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if level < 1 {
		level = 1
	}
	s.character.Level = level
}

// Tick advances cooldowns and timed effects by dt.
func (s *Session) Tick(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consumables.Tick(dt)
	s.character.Tick(dt, s.character)
}

// TotalBonuses returns equipment, set-tier and buff bonuses combined.
func (s *Session) TotalBonuses() item.StatTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalBonuses().Clone()
}

// Stats returns the character's effective stats.
func (s *Session) Stats() map[item.StatKind]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CalcStats(s.character.Base, s.totalBonuses())
}

// Vitals returns the character's resources.
func (s *Session) Vitals() Vitals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.character.Vitals()
}

// Snapshot captures the persisted state.
func (s *Session) Snapshot() SaveData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SaveData{Inventory: s.inventory.Snapshot(), Equipment: s.equipment.Snapshot()}
}

// Load replaces the session state with data. The inventory is restored
// first, then equipment bindings are matched to inventory instances by id.
// Bound instances the inventory does not hold are placed back into it, or
// unequipped when there is no room. Set counters are then rebuilt and
// cooldowns cleared.
func (s *Session) Load(data SaveData) LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rep LoadReport
	rep.Inventory = s.inventory.Restore(data.Inventory, s.resolver)
	rep.Equipment = s.equipment.Restore(data.Equipment, s.resolver, func(id string) *item.Instance {
		if v, ok := s.inventory.FindInstance(id); ok {
			return v.Instance
		}
		return nil
	})
	for _, b := range s.equipment.Bound() {
		if s.inventory.Contains(b.Instance) {
			continue
		}
		if s.inventory.AddInstance(b.Instance, 1).Placed() {
			rep.Returned++
			continue
		}
		s.logger.Warn("bound instance has no inventory room, unequipping",
			zap.String("instance", b.Instance.ID()))
		s.equipment.Unequip(b.Slot)
	}
	s.sets.RecalculateFromEquipment()
	s.consumables.Reset()
	s.invalidate()
	return rep
}
