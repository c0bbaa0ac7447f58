// Package effect keeps the timed status effects on one character: heal and
// drain over time plus stat buffs. Effects advance only through Tick.
package effect

import (
	"time"

	"github.com/kasuganosora/itemruntime/game/event"
	"github.com/kasuganosora/itemruntime/game/item"
)

// DefaultInterval is the pulse period of heal/drain-over-time effects.
const DefaultInterval = time.Second

// BuffDef is the authored definition of a buff a consumable can apply.
type BuffDef struct {
	ID        string              `json:"id" yaml:"id"`
	Name      string              `json:"name" yaml:"name"`
	Modifiers []item.StatModifier `json:"modifiers" yaml:"modifiers"`
	Negative  bool                `json:"negative" yaml:"negative"`
	MaxStacks int                 `json:"max_stacks" yaml:"max_stacks"`
}

// Catalog maps buff ids to definitions.
type Catalog map[string]BuffDef

// Effect is one active timed effect.
type Effect struct {
	ID        string
	Kind      item.EffectKind
	Magnitude float64 // per pulse for heal/drain
	Remaining time.Duration
	Interval  time.Duration
	Stacks    int
	Negative  bool
	Modifiers []item.StatModifier

	sincePulse time.Duration
}

// Vitals is what pulses act on.
type Vitals interface {
	Heal(amount float64) float64
	Damage(amount float64) float64
}

// ChangeKind classifies a List notification.
type ChangeKind int

const (
	Added ChangeKind = iota
	Refreshed
	Expired
	Cleansed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Refreshed:
		return "refreshed"
	case Expired:
		return "expired"
	case Cleansed:
		return "cleansed"
	}
	return "unknown"
}

// Change is published whenever the set of active effects changes.
type Change struct {
	Kind ChangeKind
	ID   string
	Buff bool
}

// Pulse reports one heal/drain application during Tick.
type Pulse struct {
	ID     string
	Kind   item.EffectKind
	Amount float64
}

// List holds the active effects of a single character. Like the managers it
// serves, it relies on the owner's lock.
type List struct {
	catalog Catalog
	effects []*Effect
	events  event.Bus[Change]
}

// NewList creates an empty list resolving buffs through catalog.
func NewList(catalog Catalog) *List {
	return &List{catalog: catalog}
}

// Events returns the bus effect changes are published on.
func (l *List) Events() *event.Bus[Change] { return &l.events }

func (l *List) find(id string) *Effect {
	for _, e := range l.effects {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// AddTimedEffect starts a heal- or drain-over-time effect. An effect of the
// same kind already running is refreshed to the new duration and magnitude.
func (l *List) AddTimedEffect(kind item.EffectKind, magnitude float64, duration time.Duration) bool {
	if duration <= 0 || magnitude <= 0 {
		return false
	}
	if kind != item.EffectHealOverTime && kind != item.EffectDrainOverTime {
		return false
	}
	id := string(kind)
	if e := l.find(id); e != nil {
		e.Remaining = duration
		e.Magnitude = magnitude
		e.sincePulse = 0
		l.events.Publish(Change{Kind: Refreshed, ID: id})
		return true
	}
	l.effects = append(l.effects, &Effect{
		ID:        id,
		Kind:      kind,
		Magnitude: magnitude,
		Remaining: duration,
		Interval:  DefaultInterval,
		Stacks:    1,
		Negative:  kind == item.EffectDrainOverTime,
	})
	l.events.Publish(Change{Kind: Added, ID: id})
	return true
}

// ApplyBuff adds or refreshes the buff buffID. Refreshing resets the
// duration and adds a stack up to the definition's MaxStacks.
func (l *List) ApplyBuff(buffID string, duration time.Duration) bool {
	def, ok := l.catalog[buffID]
	if !ok || duration <= 0 {
		return false
	}
	maxStacks := def.MaxStacks
	if maxStacks <= 0 {
		maxStacks = 1
	}
	if e := l.find(buffID); e != nil {
		e.Remaining = duration
		if e.Stacks < maxStacks {
			e.Stacks++
		}
		l.events.Publish(Change{Kind: Refreshed, ID: buffID, Buff: true})
		return true
	}
	l.effects = append(l.effects, &Effect{
		ID:        buffID,
		Kind:      item.EffectBuff,
		Remaining: duration,
		Stacks:    1,
		Negative:  def.Negative,
		Modifiers: def.Modifiers,
	})
	l.events.Publish(Change{Kind: Added, ID: buffID, Buff: true})
	return true
}

// RemoveNegativeEffects drops every negative effect and returns how many
// were removed.
func (l *List) RemoveNegativeEffects() int {
	var removed []*Effect
	kept := l.effects[:0]
	for _, e := range l.effects {
		if e.Negative {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	l.effects = kept
	for _, e := range removed {
		l.events.Publish(Change{Kind: Cleansed, ID: e.ID, Buff: e.Kind == item.EffectBuff})
	}
	return len(removed)
}

// Get returns a copy of the effect with id.
func (l *List) Get(id string) (Effect, bool) {
	if e := l.find(id); e != nil {
		return *e, true
	}
	return Effect{}, false
}

// All returns copies of the active effects in application order.
func (l *List) All() []Effect {
	out := make([]Effect, len(l.effects))
	for i, e := range l.effects {
		out[i] = *e
	}
	return out
}

// Len returns the number of active effects.
func (l *List) Len() int { return len(l.effects) }

// Bonuses sums the modifiers of active buffs, multiplied by stacks.
func (l *List) Bonuses() item.StatTable {
	tbl := item.StatTable{}
	for _, e := range l.effects {
		for _, m := range e.Modifiers {
			m.Value *= float64(e.Stacks)
			tbl.Add(m)
		}
	}
	return tbl
}

// Tick advances every effect by dt, pulsing heal/drain effects against v
// and dropping expired ones. A pulse due exactly at expiry still fires.
func (l *List) Tick(dt time.Duration, v Vitals) []Pulse {
	if dt <= 0 {
		return nil
	}
	var pulses []Pulse
	var expired []*Effect
	kept := l.effects[:0]
	for _, e := range l.effects {
		step := dt
		if step > e.Remaining {
			step = e.Remaining
		}
		if e.Interval > 0 {
			e.sincePulse += step
			for e.sincePulse >= e.Interval {
				e.sincePulse -= e.Interval
				pulses = append(pulses, l.pulse(e, v))
			}
		}
		e.Remaining -= step
		if e.Remaining <= 0 {
			expired = append(expired, e)
			continue
		}
		kept = append(kept, e)
	}
	l.effects = kept
	for _, e := range expired {
		l.events.Publish(Change{Kind: Expired, ID: e.ID, Buff: e.Kind == item.EffectBuff})
	}
	return pulses
}

func (l *List) pulse(e *Effect, v Vitals) Pulse {
	p := Pulse{ID: e.ID, Kind: e.Kind}
	if v == nil {
		return p
	}
	switch e.Kind {
	case item.EffectHealOverTime:
		p.Amount = v.Heal(e.Magnitude)
	case item.EffectDrainOverTime:
		p.Amount = v.Damage(e.Magnitude)
	}
	return p
}
