package inventory

import "github.com/kasuganosora/itemruntime/game/item"

// Slot is a single container position. It holds at most one instance and a
// quantity; quantity > 0 exactly when an instance is held.
type Slot struct {
	index int
	inst  *item.Instance
	qty   int
}

func (s *Slot) Index() int               { return s.index }
func (s *Slot) Instance() *item.Instance { return s.inst }
func (s *Slot) Quantity() int            { return s.qty }
func (s *Slot) Empty() bool              { return s.inst == nil }

// Template returns the held instance's template, nil for empty slots.
func (s *Slot) Template() *item.Template {
	if s.inst == nil {
		return nil
	}
	return s.inst.Template()
}

// Space returns how many more units fit in the slot for its current template.
func (s *Slot) Space() int {
	t := s.Template()
	if t == nil {
		return 0
	}
	return t.StackLimit() - s.qty
}

func (s *Slot) put(inst *item.Instance, qty int) {
	s.inst = inst
	s.qty = qty
}

// take removes up to qty units and returns how many were removed. The
// instance reference is released when the slot empties.
func (s *Slot) take(qty int) int {
	if qty > s.qty {
		qty = s.qty
	}
	s.qty -= qty
	if s.qty <= 0 {
		s.clear()
	}
	return qty
}

func (s *Slot) clear() {
	s.inst = nil
	s.qty = 0
}

// View is a read-only copy of a slot's contents.
type View struct {
	Index    int            `json:"index"`
	Instance *item.Instance `json:"-"`
	Quantity int            `json:"quantity"`
}

func (s *Slot) view() View {
	return View{Index: s.index, Instance: s.inst, Quantity: s.qty}
}

// Empty reports whether the viewed slot held nothing.
func (v View) Empty() bool { return v.Instance == nil }
