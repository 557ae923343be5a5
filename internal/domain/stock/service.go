package stock

import (
	"context"
	"fmt"
	"time"

	"opserp/internal/core/apperror"
	"opserp/internal/core/id"
	"opserp/internal/core/security"
	"opserp/internal/core/tx"
	"opserp/pkg/logger"
)

// Ledger owns the invariant available == total - sum(allocations) >= 0.
//
// Every mutation runs in one transaction that first locks the item row,
// so concurrent allocations against the same item are serialized.
type Ledger struct {
	repo      Repository
	txManager tx.Manager
	now       func() time.Time
}

// NewLedger creates a stock ledger.
func NewLedger(repo Repository, txManager tx.Manager) *Ledger {
	return &Ledger{
		repo:      repo,
		txManager: txManager,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// UpsertItem creates an item or updates an existing one.
// Lowering the total below what is already allocated is rejected.
func (l *Ledger) UpsertItem(ctx context.Context, c *security.Capability, spec ItemSpec) (*Item, error) {
	if err := security.Require(c, security.PermStockEdit); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	var result *Item
	err := l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		now := l.now()

		if spec.ID == nil {
			item := &Item{
				ID:            id.New(),
				Name:          spec.Name,
				TotalQuantity: spec.TotalQuantity,
				UnitValue:     spec.UnitValue,
				Attachments:   spec.Attachments,
				ProjectRef:    spec.ProjectRef,
				StageRef:      spec.StageRef,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := l.repo.CreateItem(ctx, item); err != nil {
				return fmt.Errorf("create item: %w", err)
			}
			result = item
			return nil
		}

		item, err := l.repo.GetItemForUpdate(ctx, *spec.ID)
		if err != nil {
			return err
		}
		if spec.TotalQuantity < item.AllocatedQuantity {
			return apperror.NewInsufficientStock(item.ID.String(), item.AllocatedQuantity, spec.TotalQuantity).
				WithDetail("reason", "total below allocated")
		}

		item.Name = spec.Name
		item.TotalQuantity = spec.TotalQuantity
		item.UnitValue = spec.UnitValue
		item.Attachments = spec.Attachments
		item.ProjectRef = spec.ProjectRef
		item.StageRef = spec.StageRef
		item.UpdatedAt = now
		if err := l.repo.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock item upserted",
		"item_id", result.ID,
		"total", result.TotalQuantity,
		"allocated", result.AllocatedQuantity,
	)
	return result, nil
}

// Allocate reserves quantity of an item for ownerRef.
func (l *Ledger) Allocate(ctx context.Context, c *security.Capability, itemID id.ID, quantity int64, ownerRef string) (id.ID, error) {
	if err := security.Require(c, security.PermStockAllocate); err != nil {
		return id.Nil(), err
	}
	return l.Reserve(ctx, itemID, quantity, ownerRef)
}

// Reserve is Allocate without the permission check. It is meant for
// in-process callers that have already authorized a wider command, such as
// approving a purchase request. When ctx carries a transaction the
// reservation joins it.
func (l *Ledger) Reserve(ctx context.Context, itemID id.ID, quantity int64, ownerRef string) (id.ID, error) {
	if quantity <= 0 {
		return id.Nil(), apperror.NewInvalidQuantity("allocation quantity must be positive").
			WithDetail("quantity", quantity)
	}
	if ownerRef == "" {
		return id.Nil(), apperror.NewInvalidRequest("owner reference is required").
			WithDetail("field", "ownerRef")
	}

	var alloc *Allocation
	err := l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := l.repo.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if available := item.AvailableQuantity(); quantity > available {
			return apperror.NewInsufficientStock(itemID.String(), quantity, available)
		}

		alloc = &Allocation{
			ID:        id.New(),
			ItemID:    itemID,
			Quantity:  quantity,
			OwnerRef:  ownerRef,
			CreatedAt: l.now(),
		}
		if err := l.repo.CreateAllocation(ctx, alloc); err != nil {
			return fmt.Errorf("create allocation: %w", err)
		}
		return nil
	})
	if err != nil {
		return id.Nil(), err
	}

	logger.Info(ctx, "stock allocated",
		"item_id", itemID,
		"allocation_id", alloc.ID,
		"quantity", quantity,
		"owner", ownerRef,
	)
	return alloc.ID, nil
}

// Release removes an allocation, restoring availability.
func (l *Ledger) Release(ctx context.Context, c *security.Capability, allocationID id.ID) error {
	if err := security.Require(c, security.PermStockAllocate); err != nil {
		return err
	}
	return l.Unreserve(ctx, allocationID)
}

// Unreserve is Release without the permission check. See Reserve.
func (l *Ledger) Unreserve(ctx context.Context, allocationID id.ID) error {
	err := l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		alloc, err := l.repo.GetAllocation(ctx, allocationID)
		if err != nil {
			return err
		}
		// Lock the item so the release serializes with allocations on it.
		if _, err := l.repo.GetItemForUpdate(ctx, alloc.ItemID); err != nil {
			return err
		}
		if err := l.repo.DeleteAllocation(ctx, allocationID); err != nil {
			return fmt.Errorf("delete allocation: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "stock released", "allocation_id", allocationID)
	return nil
}

// Quantities returns total, allocated and available for an item.
// It takes no lock; the figures may be stale by the time the caller acts on them.
func (l *Ledger) Quantities(ctx context.Context, itemID id.ID) (Quantities, error) {
	item, err := l.repo.GetItem(ctx, itemID)
	if err != nil {
		return Quantities{}, err
	}
	return item.Quantities(), nil
}

// GetItem returns an item for a caller allowed to view stock.
func (l *Ledger) GetItem(ctx context.Context, c *security.Capability, itemID id.ID) (*Item, error) {
	if err := security.Require(c, security.PermStockView); err != nil {
		return nil, err
	}
	return l.repo.GetItem(ctx, itemID)
}

// ListItems returns items for a caller allowed to view stock.
func (l *Ledger) ListItems(ctx context.Context, c *security.Capability, filter ItemFilter) ([]Item, error) {
	if err := security.Require(c, security.PermStockView); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return l.repo.ListItems(ctx, filter)
}

// ListAllocations returns the active allocations of an item.
func (l *Ledger) ListAllocations(ctx context.Context, c *security.Capability, itemID id.ID) ([]Allocation, error) {
	if err := security.Require(c, security.PermStockView); err != nil {
		return nil, err
	}
	if _, err := l.repo.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return l.repo.ListAllocations(ctx, itemID)
}
