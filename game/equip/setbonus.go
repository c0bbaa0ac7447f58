package equip

import (
	"fmt"
	"sort"

	"github.com/kasuganosora/itemruntime/game/event"
	"github.com/kasuganosora/itemruntime/game/item"
	"go.uber.org/zap"
)

// Tier is a bonus that activates once Pieces members of a set are worn.
type Tier struct {
	Pieces  int                 `json:"pieces" yaml:"pieces"`
	Bonuses []item.StatModifier `json:"bonuses" yaml:"bonuses"`
}

// SetDefinition describes an item set.
type SetDefinition struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Members []string `json:"members" yaml:"members"`
	Tiers   []Tier   `json:"tiers" yaml:"tiers"`
}

// Validate checks the definition and sorts its tiers by piece count.
func (d *SetDefinition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("set: empty id")
	}
	if len(d.Tiers) == 0 {
		return fmt.Errorf("set %s: no tiers", d.ID)
	}
	sort.SliceStable(d.Tiers, func(i, j int) bool { return d.Tiers[i].Pieces < d.Tiers[j].Pieces })
	for i, t := range d.Tiers {
		if t.Pieces <= 0 {
			return fmt.Errorf("set %s: tier %d requires %d pieces", d.ID, i, t.Pieces)
		}
		if i > 0 && d.Tiers[i-1].Pieces == t.Pieces {
			return fmt.Errorf("set %s: duplicate tier for %d pieces", d.ID, t.Pieces)
		}
	}
	return nil
}

type setState struct {
	def    *SetDefinition
	pieces int
	active int // number of leading tiers active
}

func (s *setState) activeTiers() []Tier {
	if s.active == 0 {
		return nil
	}
	out := make([]Tier, s.active)
	copy(out, s.def.Tiers[:s.active])
	return out
}

func (s *setState) recompute() (changed bool) {
	n := 0
	for _, t := range s.def.Tiers {
		if t.Pieces > s.pieces {
			break
		}
		n++
	}
	changed = n != s.active
	s.active = n
	return changed
}

// SetTracker counts worn pieces per set from the equipment manager's
// notifications and activates tiers as thresholds are crossed.
type SetTracker struct {
	equip    *Manager
	sets     map[string]*setState
	memberOf map[string]string // template id -> set id
	cache    bonusCache
	events   event.Bus[SetEvent]
	unsub    func()
	logger   *zap.Logger
}

// NewSetTracker creates a tracker subscribed to equip.
func NewSetTracker(equip *Manager, logger *zap.Logger) *SetTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	st := &SetTracker{
		equip:    equip,
		sets:     make(map[string]*setState),
		memberOf: make(map[string]string),
		logger:   logger,
	}
	st.unsub = equip.Events().Subscribe("set_tracker", st.onEquipEvent)
	return st
}

// Close detaches the tracker from the equipment manager.
func (st *SetTracker) Close() {
	if st.unsub != nil {
		st.unsub()
		st.unsub = nil
	}
}

// Events returns the bus set-bonus changes are published on.
func (st *SetTracker) Events() *event.Bus[SetEvent] { return &st.events }

// Register adds set definitions. A template may belong to one set only.
func (st *SetTracker) Register(defs ...SetDefinition) error {
	for i := range defs {
		d := defs[i]
		d.Tiers = append([]Tier(nil), d.Tiers...)
		if err := d.Validate(); err != nil {
			return err
		}
		if _, dup := st.sets[d.ID]; dup {
			return fmt.Errorf("set %s: already registered", d.ID)
		}
		for _, m := range d.Members {
			if other, ok := st.memberOf[m]; ok {
				return fmt.Errorf("set %s: template %s already belongs to set %s", d.ID, m, other)
			}
		}
		for _, m := range d.Members {
			st.memberOf[m] = d.ID
		}
		st.sets[d.ID] = &setState{def: &d}
	}
	return nil
}

func (st *SetTracker) setOf(inst *item.Instance) *setState {
	if inst == nil {
		return nil
	}
	if id, ok := st.memberOf[inst.TemplateID()]; ok {
		return st.sets[id]
	}
	if t := inst.Template(); t != nil && t.SetID() != "" {
		return st.sets[t.SetID()]
	}
	return nil
}

func (st *SetTracker) onEquipEvent(e Event) {
	var delta int
	switch e.Kind {
	case Equipped:
		delta = 1
	case Unequipped:
		delta = -1
	default:
		return
	}
	s := st.setOf(e.Instance)
	if s == nil {
		return
	}
	s.pieces += delta
	if s.pieces < 0 {
		st.logger.Warn("set piece count went negative, resetting", zap.String("set", s.def.ID))
		s.pieces = 0
	}
	if s.recompute() {
		st.cache.invalidate()
		st.publish(s)
	}
}

func (st *SetTracker) publish(s *setState) {
	st.events.Publish(SetEvent{SetID: s.def.ID, Pieces: s.pieces, Active: s.activeTiers()})
}

// RecalculateFromEquipment rebuilds every counter by scanning the current
// bindings. Use after bulk restores.
func (st *SetTracker) RecalculateFromEquipment() {
	counts := make(map[*setState]int, len(st.sets))
	for _, b := range st.equip.Bound() {
		if s := st.setOf(b.Instance); s != nil {
			counts[s]++
		}
	}
	ids := make([]string, 0, len(st.sets))
	for id := range st.sets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		s := st.sets[id]
		s.pieces = counts[s]
		if s.recompute() {
			st.publish(s)
		}
	}
	st.cache.invalidate()
}

// PieceCount returns how many pieces of setID are worn.
func (st *SetTracker) PieceCount(setID string) int {
	if s, ok := st.sets[setID]; ok {
		return s.pieces
	}
	return 0
}

// ActiveTiers returns the active tiers of setID in ascending order.
func (st *SetTracker) ActiveTiers(setID string) []Tier {
	if s, ok := st.sets[setID]; ok {
		return s.activeTiers()
	}
	return nil
}

// Definition returns the registered definition for setID.
func (st *SetTracker) Definition(setID string) (SetDefinition, bool) {
	s, ok := st.sets[setID]
	if !ok {
		return SetDefinition{}, false
	}
	return *s.def, true
}

// AllBonuses returns the summed modifiers of every active tier.
func (st *SetTracker) AllBonuses() item.StatTable {
	return st.cache.get(func() item.StatTable {
		tbl := item.StatTable{}
		for _, s := range st.sets {
			for _, t := range s.def.Tiers[:s.active] {
				tbl.AddAll(t.Bonuses)
			}
		}
		return tbl
	}).Clone()
}
