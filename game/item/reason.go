package item

import "errors"

// Reason is a discrete failure value returned by inventory, equipment and
// consumable operations. The empty Reason means success.
type Reason string

const (
	ReasonNone Reason = ""

	// Capacity
	ReasonInventoryFull  Reason = "inventory_full"
	ReasonSlotOutOfRange Reason = "slot_out_of_range"
	ReasonCapacityLimit  Reason = "capacity_limit"

	// Validation
	ReasonInvalidTemplate Reason = "invalid_template"
	ReasonInvalidInstance Reason = "invalid_instance"
	ReasonInvalidQuantity Reason = "invalid_quantity"
	ReasonNotFound        Reason = "not_found"
	ReasonSameSlot        Reason = "same_slot"
	ReasonEmptySlot       Reason = "empty_slot"

	// Equip / use preconditions
	ReasonNotEquipment    Reason = "not_equipment"
	ReasonInvalidSlotKind Reason = "invalid_slot_kind"
	ReasonLevelTooLow     Reason = "level_too_low"
	ReasonWrongMode       Reason = "wrong_mode"
	ReasonNotConsumable   Reason = "not_consumable"
	ReasonOnCooldown      Reason = "on_cooldown"

	// State conflicts
	ReasonAlreadyFull Reason = "already_full"
	ReasonNotDead     Reason = "not_dead"
	ReasonNoTarget    Reason = "no_target"
	ReasonUnsupported Reason = "unsupported_effect"
)

// Error implements error so a Reason can be wrapped or logged.
func (r Reason) Error() string {
	if r == ReasonNone {
		return "ok"
	}
	return string(r)
}

// OK reports whether r is the success value.
func (r Reason) OK() bool { return r == ReasonNone }

// ErrUnknownTemplate is returned by resolvers for ids they cannot map.
var ErrUnknownTemplate = errors.New("item: unknown template")
