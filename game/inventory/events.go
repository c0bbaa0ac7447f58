package inventory

import "github.com/kasuganosora/itemruntime/game/item"

// EventKind identifies an inventory notification.
type EventKind int

const (
	ItemAdded EventKind = iota
	ItemRemoved
	SlotChanged
	InventoryFull
	InventorySorted
)

func (k EventKind) String() string {
	switch k {
	case ItemAdded:
		return "item_added"
	case ItemRemoved:
		return "item_removed"
	case SlotChanged:
		return "slot_changed"
	case InventoryFull:
		return "inventory_full"
	case InventorySorted:
		return "inventory_sorted"
	default:
		return "unknown"
	}
}

// Event is published on the manager's bus. Slot is -1 for InventoryFull and
// InventorySorted; Instance and Quantity are set for added/removed.
// InventoryFull carries the template id and the dropped quantity.
type Event struct {
	Kind       EventKind
	Slot       int
	Instance   *item.Instance
	Quantity   int
	TemplateID string
}
