package player

import (
	"github.com/kasuganosora/itemruntime/game/consumable"
	"github.com/kasuganosora/itemruntime/game/effect"
	"github.com/kasuganosora/itemruntime/game/equip"
	"github.com/kasuganosora/itemruntime/game/inventory"
)

// Notice is a flattened manager notification tagged with its owner.
type Notice struct {
	Type        string  `json:"type"`
	Owner       string  `json:"owner"`
	Slot        *int    `json:"slot,omitempty"`
	EquipSlot   string  `json:"equip_slot,omitempty"`
	InstanceID  string  `json:"instance_id,omitempty"`
	TemplateID  string  `json:"template_id,omitempty"`
	Quantity    int     `json:"quantity,omitempty"`
	SetID       string  `json:"set_id,omitempty"`
	Pieces      int     `json:"pieces,omitempty"`
	Tiers       int     `json:"tiers,omitempty"`
	ActiveTiers []int   `json:"active_tiers,omitempty"` // piece thresholds of the active tiers
	Effect      string  `json:"effect,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
	Seconds     float64 `json:"seconds,omitempty"`
}

// Notice types besides the manager event kind names.
const (
	NoticeSetBonusChanged = "set_bonus_changed"
	NoticeEffectPrefix    = "effect_"
)

// Watch subscribes fn to every manager bus of the session under name and
// returns a cancel func. fn runs with the session lock held.
func (s *Session) Watch(name string, fn func(Notice)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner := s.OwnerID
	cancels := []func(){
		s.inventory.Events().Subscribe(name, func(e inventory.Event) {
			if e.Kind == inventory.SlotChanged {
				return
			}
			n := Notice{Type: e.Kind.String(), Owner: owner, Quantity: e.Quantity, TemplateID: e.TemplateID}
			if e.Slot >= 0 {
				slot := e.Slot
				n.Slot = &slot
			}
			if e.Instance != nil {
				n.InstanceID = e.Instance.ID()
				n.TemplateID = e.Instance.TemplateID()
			}
			fn(n)
		}),
		s.equipment.Events().Subscribe(name, func(e equip.Event) {
			n := Notice{Type: e.Kind.String(), Owner: owner}
			if e.Instance != nil {
				n.EquipSlot = e.Slot.String()
				n.InstanceID = e.Instance.ID()
				n.TemplateID = e.Instance.TemplateID()
			}
			fn(n)
		}),
		s.sets.Events().Subscribe(name, func(e equip.SetEvent) {
			n := Notice{Type: NoticeSetBonusChanged, Owner: owner, SetID: e.SetID, Pieces: e.Pieces, Tiers: len(e.Active)}
			for _, t := range e.Active {
				n.ActiveTiers = append(n.ActiveTiers, t.Pieces)
			}
			fn(n)
		}),
		s.consumables.Events().Subscribe(name, func(e consumable.Event) {
			n := Notice{Type: e.Kind.String(), Owner: owner, TemplateID: e.TemplateID, Seconds: e.Duration.Seconds()}
			if e.Instance != nil {
				n.InstanceID = e.Instance.ID()
			}
			if e.Kind == consumable.ItemUsed {
				n.Effect = string(e.Result.Effect)
				n.Amount = e.Result.Amount
			}
			fn(n)
		}),
		s.character.Events().Subscribe(name, func(c effect.Change) {
			fn(Notice{Type: NoticeEffectPrefix + c.Kind.String(), Owner: owner, Effect: c.ID})
		}),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}
