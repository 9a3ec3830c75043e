package store

import (
	"errors"
	"testing"

	"github.com/kinhtot/marketplace/internal/database"
	"github.com/kinhtot/marketplace/internal/models"
)

var allStatuses = []string{
	models.OrderStatusPending,
	models.OrderStatusConfirmed,
	models.OrderStatusShipping,
	models.OrderStatusDelivered,
	models.OrderStatusCancelled,
}

func TestCanTransitionBuyerOwner(t *testing.T) {
	// Owners may only cancel, and only while pending.
	for _, current := range allStatuses {
		for _, target := range allStatuses {
			err := CanTransition(models.RoleBuyer, true, current, target)

			switch {
			case target == models.OrderStatusPending:
				if !errors.Is(err, database.ErrInvalidStatus) {
					t.Errorf("%s -> %s: expected invalid status, got %v", current, target, err)
				}
			case target != models.OrderStatusCancelled:
				if !errors.Is(err, database.ErrForbidden) {
					t.Errorf("%s -> %s: expected forbidden, got %v", current, target, err)
				}
			case current == models.OrderStatusPending:
				if err != nil {
					t.Errorf("%s -> %s: expected allowed, got %v", current, target, err)
				}
			default:
				if !errors.Is(err, database.ErrOrderNotPending) {
					t.Errorf("%s -> %s: expected not pending, got %v", current, target, err)
				}
			}
		}
	}
}

func TestCanTransitionPrivileged(t *testing.T) {
	allowed := map[string]map[string]bool{
		models.OrderStatusPending:   {models.OrderStatusConfirmed: true, models.OrderStatusShipping: true, models.OrderStatusDelivered: true, models.OrderStatusCancelled: true},
		models.OrderStatusConfirmed: {models.OrderStatusShipping: true, models.OrderStatusDelivered: true, models.OrderStatusCancelled: true},
		models.OrderStatusShipping:  {models.OrderStatusDelivered: true, models.OrderStatusCancelled: true},
		models.OrderStatusDelivered: {},
		models.OrderStatusCancelled: {},
	}

	for _, role := range []string{models.RoleSeller, models.RoleStaff, models.RoleAdmin} {
		for _, current := range allStatuses {
			for _, target := range allStatuses {
				err := CanTransition(role, false, current, target)

				switch {
				case target == models.OrderStatusPending:
					if !errors.Is(err, database.ErrInvalidStatus) {
						t.Errorf("%s: %s -> %s: expected invalid status, got %v", role, current, target, err)
					}
				case target == current:
					if err != nil {
						t.Errorf("%s: %s -> %s: repeat should be a no-op, got %v", role, current, target, err)
					}
				case allowed[current][target]:
					if err != nil {
						t.Errorf("%s: %s -> %s: expected allowed, got %v", role, current, target, err)
					}
				default:
					if !errors.Is(err, database.ErrInvalidStatus) {
						t.Errorf("%s: %s -> %s: expected invalid status, got %v", role, current, target, err)
					}
				}
			}
		}
	}
}

func TestCanTransitionStrangerBuyer(t *testing.T) {
	err := CanTransition(models.RoleBuyer, false, models.OrderStatusPending, models.OrderStatusCancelled)
	if !errors.Is(err, database.ErrForbidden) {
		t.Errorf("Non-owner buyer must be forbidden, got %v", err)
	}
}

func TestCanTransitionUnknownTarget(t *testing.T) {
	err := CanTransition(models.RoleAdmin, false, models.OrderStatusPending, "PAID")
	if !errors.Is(err, database.ErrInvalidStatus) {
		t.Errorf("Unknown target must be invalid, got %v", err)
	}
}
