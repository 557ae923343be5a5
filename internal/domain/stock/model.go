// Package stock provides the stock ledger: items and the allocations held against them.
package stock

import (
	"fmt"
	"strings"
	"time"

	"opserp/internal/core/apperror"
	"opserp/internal/core/id"
	"opserp/internal/core/types"
)

// Item is a stocked product.
//
// AllocatedQuantity is never stored: repositories derive it as the sum of
// the item's allocation rows whenever they load an item.
type Item struct {
	ID                id.ID       `db:"id" json:"id"`
	Name              string      `db:"name" json:"name"`
	TotalQuantity     int64       `db:"total_quantity" json:"totalQuantity"`
	UnitValue         types.Money `db:"unit_value" json:"unitValue"`
	Attachments       []string    `db:"attachments" json:"attachments,omitempty"`
	ProjectRef        *string     `db:"project_ref" json:"projectRef,omitempty"`
	StageRef          *string     `db:"stage_ref" json:"stageRef,omitempty"`
	AllocatedQuantity int64       `db:"allocated_quantity" json:"allocatedQuantity"`
	CreatedAt         time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updatedAt"`
}

// AvailableQuantity is total minus allocated.
func (i *Item) AvailableQuantity() int64 {
	return i.TotalQuantity - i.AllocatedQuantity
}

// Quantities returns the item's current figures.
func (i *Item) Quantities() Quantities {
	return Quantities{
		Total:     i.TotalQuantity,
		Allocated: i.AllocatedQuantity,
		Available: i.AvailableQuantity(),
	}
}

// Quantities is the read model of an item's stock position.
type Quantities struct {
	Total     int64 `json:"total"`
	Allocated int64 `json:"allocated"`
	Available int64 `json:"available"`
}

// Allocation reserves quantity of an item for an owner
// (a project, a stage or a purchase request).
type Allocation struct {
	ID        id.ID     `db:"id" json:"id"`
	ItemID    id.ID     `db:"item_id" json:"itemId"`
	Quantity  int64     `db:"quantity" json:"quantity"`
	OwnerRef  string    `db:"owner_ref" json:"ownerRef"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ItemSpec is the input of UpsertItem. A nil ID creates a new item.
type ItemSpec struct {
	ID            *id.ID
	Name          string
	TotalQuantity int64
	UnitValue     types.Money
	Attachments   []string
	ProjectRef    *string
	StageRef      *string
}

// Validate checks field-level rules that do not need the stored item.
func (s *ItemSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return apperror.NewInvalidRequest("name is required").WithDetail("field", "name")
	}
	if s.TotalQuantity < 0 {
		return apperror.NewInvalidQuantity("total quantity must not be negative").
			WithDetail("totalQuantity", s.TotalQuantity)
	}
	if s.UnitValue.IsNegative() {
		return apperror.NewInvalidQuantity("unit value must not be negative").
			WithDetail("unitValue", s.UnitValue.String())
	}
	return nil
}

// OwnerRequest builds the owner reference used for purchase request reservations.
func OwnerRequest(requestID id.ID) string {
	return fmt.Sprintf("purchase_request:%s", requestID)
}
