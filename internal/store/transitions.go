package store

import (
	"github.com/kinhtot/marketplace/internal/database"
	"github.com/kinhtot/marketplace/internal/models"
)

// The status transition rules are data, not scattered conditionals, so
// they can be enumerated and tested exhaustively.

// AllowedTargets is the closed set a PATCH may name. PENDING is the
// creation state only and can never be a target.
var AllowedTargets = map[string]bool{
	models.OrderStatusConfirmed: true,
	models.OrderStatusShipping:  true,
	models.OrderStatusDelivered: true,
	models.OrderStatusCancelled: true,
}

// privilegedTransitions maps current status to the targets a
// SELLER/STAFF/ADMIN actor may set. CANCELLED and DELIVERED are
// terminal; CONFIRMED and SHIPPING only progress forward or cancel.
var privilegedTransitions = map[string][]string{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusShipping, models.OrderStatusDelivered, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusShipping, models.OrderStatusDelivered, models.OrderStatusCancelled},
	models.OrderStatusShipping:  {models.OrderStatusDelivered, models.OrderStatusCancelled},
}

// CanTransition decides whether an actor may move an order from
// current to target. A buyer acting on their own order may only cancel
// it, and only while it is still PENDING. Errors come from the
// database sentinel set so handlers can map them to status codes.
func CanTransition(actorRole string, isOwner bool, current, target string) error {
	if !AllowedTargets[target] {
		return database.ErrInvalidStatus
	}

	if isOwner && actorRole == models.RoleBuyer {
		if target != models.OrderStatusCancelled {
			return database.ErrForbidden
		}
		if current != models.OrderStatusPending {
			return database.ErrOrderNotPending
		}
		return nil
	}

	switch actorRole {
	case models.RoleSeller, models.RoleStaff, models.RoleAdmin:
	default:
		return database.ErrForbidden
	}

	// Repeating the current status is an idempotent no-op.
	if target == current {
		return nil
	}

	for _, allowed := range privilegedTransitions[current] {
		if allowed == target {
			return nil
		}
	}
	return database.ErrInvalidStatus
}
