package item

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// NoDurability marks an instance whose durability is not tracked.
const NoDurability = -1

// Instance is one uniquely identified item held by a player. Its generated
// stats are fixed at creation. Quantity is tracked by the slot holding it.
type Instance struct {
	id         string
	templateID string
	template   *Template
	resolver   TemplateResolver
	generated  []StatModifier
	durability int
	equipped   bool
	acquiredAt time.Time
}

// Options controls instance creation. The zero value uses a uuid id, the
// wall clock and the global random source.
type Options struct {
	NewID func() string
	Now   func() time.Time
	Rand  *rand.Rand
}

func (o Options) newID() string {
	if o.NewID != nil {
		return o.NewID()
	}
	return uuid.NewString()
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// NewInstance creates a fresh instance of t. Equipment templates roll their
// random-stat pool once here.
func NewInstance(t *Template, opts Options) *Instance {
	if t == nil {
		return nil
	}
	inst := &Instance{
		id:         opts.newID(),
		templateID: t.ID,
		template:   t,
		durability: NoDurability,
		acquiredAt: opts.now(),
	}
	if t.Equipment != nil {
		if t.Equipment.MaxDurability > 0 {
			inst.durability = t.Equipment.MaxDurability
		}
		inst.generated = rollStats(t.Equipment.RandomStats, t.Equipment.RandomRolls, opts.Rand)
	}
	return inst
}

// InstanceFields is the persisted form of an instance.
type InstanceFields struct {
	ID             string         `json:"id"`
	TemplateRef    string         `json:"template_ref"`
	Durability     int            `json:"durability"`
	Equipped       bool           `json:"equipped"`
	AcquiredAt     time.Time      `json:"acquired_at"`
	GeneratedStats []StatModifier `json:"generated_stats,omitempty"`
}

// RestoreInstance rebuilds an instance from persisted fields, keeping its id.
// It fails when the template reference cannot be resolved.
func RestoreInstance(r TemplateResolver, f InstanceFields) (*Instance, error) {
	if r == nil {
		return nil, fmt.Errorf("restore instance %s: nil resolver", f.ID)
	}
	t, err := r.Resolve(f.TemplateRef)
	if err != nil {
		return nil, fmt.Errorf("restore instance %s: %w", f.ID, err)
	}
	if t == nil {
		return nil, fmt.Errorf("restore instance %s: %w", f.ID, ErrUnknownTemplate)
	}
	id := f.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &Instance{
		id:         id,
		templateID: t.ID,
		template:   t,
		resolver:   r,
		generated:  cloneModifiers(f.GeneratedStats),
		durability: f.Durability,
		equipped:   f.Equipped,
		acquiredAt: f.AcquiredAt,
	}, nil
}

// NewLazyInstance binds an id to a template reference without resolving it.
// The template is resolved on first use of Template and cached.
func NewLazyInstance(id, templateRef string, r TemplateResolver) *Instance {
	return &Instance{id: id, templateID: templateRef, resolver: r, durability: NoDurability}
}

// Fields snapshots the instance for persistence.
func (i *Instance) Fields() InstanceFields {
	return InstanceFields{
		ID:             i.id,
		TemplateRef:    i.templateID,
		Durability:     i.durability,
		Equipped:       i.equipped,
		AcquiredAt:     i.acquiredAt,
		GeneratedStats: cloneModifiers(i.generated),
	}
}

func (i *Instance) ID() string         { return i.id }
func (i *Instance) TemplateID() string { return i.templateID }

// Template returns the bound template, resolving and caching it if needed.
// It returns nil when the reference cannot be resolved.
func (i *Instance) Template() *Template {
	if i.template == nil && i.resolver != nil {
		if t, err := i.resolver.Resolve(i.templateID); err == nil {
			i.template = t
		}
	}
	return i.template
}

// GeneratedStats returns a copy of the stats rolled at creation.
func (i *Instance) GeneratedStats() []StatModifier {
	return cloneModifiers(i.generated)
}

func (i *Instance) Durability() int       { return i.durability }
func (i *Instance) Equipped() bool        { return i.equipped }
func (i *Instance) AcquiredAt() time.Time { return i.acquiredAt }

// SetEquipped is called by the equipment manager only.
func (i *Instance) SetEquipped(v bool) { i.equipped = v }

// Name returns the template name, or the raw reference if unresolved.
func (i *Instance) Name() string {
	if t := i.Template(); t != nil {
		return t.Name
	}
	return i.templateID
}

// TracksDurability reports whether durability applies to this instance.
func (i *Instance) TracksDurability() bool {
	return i.durability != NoDurability
}

// Broken reports whether a tracked durability has reached zero.
func (i *Instance) Broken() bool {
	return i.TracksDurability() && i.durability == 0
}

// Damage lowers durability by n, clamped at zero. Untracked instances are
// unaffected.
func (i *Instance) Damage(n int) {
	if !i.TracksDurability() || n <= 0 {
		return
	}
	i.durability -= n
	if i.durability < 0 {
		i.durability = 0
	}
}

// Repair restores durability to the template maximum.
func (i *Instance) Repair() {
	t := i.Template()
	if t == nil || t.Equipment == nil || t.Equipment.MaxDurability <= 0 {
		return
	}
	i.durability = t.Equipment.MaxDurability
}

// Modifiers returns template base modifiers followed by generated ones.
func (i *Instance) Modifiers() []StatModifier {
	t := i.Template()
	var out []StatModifier
	if t != nil && t.Equipment != nil {
		out = append(out, t.Equipment.BaseStats...)
	}
	return append(out, i.generated...)
}

// StacksWith reports whether other may share a slot with i.
func (i *Instance) StacksWith(other *Instance) bool {
	if other == nil || i.templateID != other.templateID {
		return false
	}
	t := i.Template()
	return t != nil && t.Stackable
}
