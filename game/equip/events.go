package equip

import "github.com/kasuganosora/itemruntime/game/item"

// EventKind identifies an equipment notification.
type EventKind int

const (
	Equipped EventKind = iota
	Unequipped
	StatsChanged
)

func (k EventKind) String() string {
	switch k {
	case Equipped:
		return "equipped"
	case Unequipped:
		return "unequipped"
	case StatsChanged:
		return "equipment_stats_changed"
	default:
		return "unknown"
	}
}

// Event is published by the Manager. Slot and Instance are unset for
// StatsChanged.
type Event struct {
	Kind     EventKind
	Slot     item.SlotKind
	Instance *item.Instance
}

// SetEvent is published by the SetTracker when a set's active tiers change.
type SetEvent struct {
	SetID  string
	Pieces int
	Active []Tier
}
