// Package consumable applies consumable items to a target and enforces
// per-template cooldowns.
package consumable

import (
	"sort"
	"time"

	"github.com/kasuganosora/itemruntime/game/event"
	"github.com/kasuganosora/itemruntime/game/item"
	"go.uber.org/zap"
)

// Result describes the outcome of one UseItem call.
type Result struct {
	TemplateID string
	Effect     item.EffectKind
	Amount     float64 // resource restored, or effects removed for cleanse
	Reason     item.Reason
}

// OK reports whether the item was used.
func (r Result) OK() bool { return r.Reason.OK() }

// EventKind classifies a consumable notification.
type EventKind int

const (
	ItemUsed EventKind = iota
	CooldownStarted
	CooldownEnded
)

func (k EventKind) String() string {
	switch k {
	case ItemUsed:
		return "item_used"
	case CooldownStarted:
		return "cooldown_started"
	case CooldownEnded:
		return "cooldown_ended"
	}
	return "unknown"
}

// Event is published on successful use and on cooldown transitions.
// Instance and Result are set for ItemUsed; Duration for CooldownStarted.
type Event struct {
	Kind       EventKind
	TemplateID string
	Instance   *item.Instance
	Result     Result
	Duration   time.Duration
}

// Manager uses consumables from a Holder. Cooldowns are keyed by template
// id and only advance through Tick.
type Manager struct {
	holder    Holder
	cooldowns map[string]time.Duration
	events    event.Bus[Event]
	logger    *zap.Logger
}

// NewManager creates a Manager removing consumed units from holder.
func NewManager(holder Holder, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{holder: holder, cooldowns: make(map[string]time.Duration), logger: logger}
}

// Events returns the bus consumable notifications are published on.
func (m *Manager) Events() *event.Bus[Event] { return &m.events }

// UseItem applies inst to target. On success the template's cooldown starts
// and one unit is removed from the holder. Failures have no side effects.
func (m *Manager) UseItem(inst *item.Instance, target Target) Result {
	if inst == nil {
		return Result{Reason: item.ReasonInvalidInstance}
	}
	t := inst.Template()
	if t == nil {
		return Result{TemplateID: inst.TemplateID(), Reason: item.ReasonInvalidTemplate}
	}
	res := Result{TemplateID: t.ID}
	if !t.IsConsumable() {
		res.Reason = item.ReasonNotConsumable
		return res
	}
	res.Effect = t.Consumable.Effect
	if !present(target) {
		res.Reason = item.ReasonNoTarget
		return res
	}
	if m.OnCooldown(t.ID) {
		res.Reason = item.ReasonOnCooldown
		return res
	}
	if m.holder != nil && !m.holder.Contains(inst) {
		res.Reason = item.ReasonNotFound
		return res
	}

	res.Amount, res.Reason = apply(t.Consumable, target)
	if !res.OK() {
		m.logger.Debug("consumable rejected",
			zap.String("template", t.ID),
			zap.String("reason", string(res.Reason)))
		return res
	}

	if cd := t.Consumable.CooldownDuration(); cd > 0 {
		m.cooldowns[t.ID] = cd
		m.events.Publish(Event{Kind: CooldownStarted, TemplateID: t.ID, Duration: cd})
	}
	if m.holder != nil {
		if rr := m.holder.RemoveByInstance(inst, 1); rr.Removed != 1 {
			m.logger.Warn("consumed unit could not be removed",
				zap.String("instance", inst.ID()),
				zap.String("reason", string(rr.Reason)))
		}
	}
	m.events.Publish(Event{Kind: ItemUsed, TemplateID: t.ID, Instance: inst, Result: res})
	return res
}

func apply(c *item.ConsumableSpec, target Target) (float64, item.Reason) {
	switch c.Effect {
	case item.EffectHeal:
		if target.IsDead() {
			return 0, item.ReasonNoTarget
		}
		if target.HP() >= target.MaxHP() {
			return 0, item.ReasonAlreadyFull
		}
		return target.Heal(c.Magnitude), item.ReasonNone
	case item.EffectRestoreMana:
		if target.MP() >= target.MaxMP() {
			return 0, item.ReasonAlreadyFull
		}
		return target.RestoreMana(c.Magnitude), item.ReasonNone
	case item.EffectRevive:
		if !target.IsDead() {
			return 0, item.ReasonNotDead
		}
		target.Revive()
		var healed float64
		if c.ReviveHeal > 0 {
			healed = target.Heal(c.ReviveHeal)
		}
		return healed, item.ReasonNone
	}

	et, ok := target.(EffectTarget)
	if !ok {
		return 0, item.ReasonUnsupported
	}
	switch c.Effect {
	case item.EffectHealOverTime, item.EffectDrainOverTime:
		if !et.AddTimedEffect(c.Effect, c.Magnitude, c.EffectDuration()) {
			return 0, item.ReasonUnsupported
		}
		return 0, item.ReasonNone
	case item.EffectBuff:
		if !et.ApplyBuff(c.BuffID, c.EffectDuration()) {
			return 0, item.ReasonUnsupported
		}
		return 0, item.ReasonNone
	case item.EffectCleanse:
		return float64(et.RemoveNegativeEffects()), item.ReasonNone
	}
	return 0, item.ReasonUnsupported
}

// OnCooldown reports whether templateID is cooling down.
func (m *Manager) OnCooldown(templateID string) bool {
	_, ok := m.cooldowns[templateID]
	return ok
}

// Remaining returns the cooldown left for templateID, zero when ready.
func (m *Manager) Remaining(templateID string) time.Duration {
	return m.cooldowns[templateID]
}

// Cooldowns returns a copy of the active cooldown table.
func (m *Manager) Cooldowns() map[string]time.Duration {
	out := make(map[string]time.Duration, len(m.cooldowns))
	for k, v := range m.cooldowns {
		out[k] = v
	}
	return out
}

// Tick advances every cooldown by dt. Entries reaching zero are removed and
// CooldownEnded fires once for each, in template id order.
func (m *Manager) Tick(dt time.Duration) {
	if dt <= 0 {
		return
	}
	var ended []string
	for id, left := range m.cooldowns {
		left -= dt
		if left <= 0 {
			delete(m.cooldowns, id)
			ended = append(ended, id)
			continue
		}
		m.cooldowns[id] = left
	}
	sort.Strings(ended)
	for _, id := range ended {
		m.events.Publish(Event{Kind: CooldownEnded, TemplateID: id})
	}
}

// Reset clears every cooldown without publishing.
func (m *Manager) Reset() {
	clear(m.cooldowns)
}
