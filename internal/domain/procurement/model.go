// Package procurement provides the purchase request lifecycle.
package procurement

import (
	"time"

	"opserp/internal/core/id"
	"opserp/internal/core/types"
	"opserp/internal/domain/quotation"
)

// Status is the lifecycle state of a purchase request.
type Status string

const (
	StatusRequested Status = "SOLICITADO"
	StatusPending   Status = "PENDENTE"
	StatusRejected  Status = "REPROVADO"
	StatusInTransit Status = "COMPRADO_ACAMINHO"
	StatusDelivered Status = "ENTREGUE"
)

// DeliverySubStatus refines COMPRADO_ACAMINHO.
type DeliverySubStatus string

const (
	SubStatusNotDelivered DeliverySubStatus = "NAO_ENTREGUE"
	SubStatusPartial      DeliverySubStatus = "PARCIAL"
	SubStatusCancelled    DeliverySubStatus = "CANCELADO"
)

// IsValid reports whether s is a known sub-status.
func (s DeliverySubStatus) IsValid() bool {
	switch s {
	case SubStatusNotDelivered, SubStatusPartial, SubStatusCancelled:
		return true
	}
	return false
}

// DeliveryInfo is recorded when a request reaches ENTREGUE.
type DeliveryInfo struct {
	DeliveryDate time.Time `json:"deliveryDate"`
	Address      string    `json:"address,omitempty"`
	ReceivedBy   string    `json:"receivedBy,omitempty"`
	Note         string    `json:"note,omitempty"`
}

// PurchaseRequest is a request to buy a quantity of an item.
type PurchaseRequest struct {
	ID                id.ID                 `db:"id" json:"id"`
	Number            string                `db:"number" json:"number"`
	ItemName          string                `db:"item_name" json:"itemName"`
	Quantity          int64                 `db:"quantity" json:"quantity"`
	Quotations        []quotation.Quotation `db:"quotations" json:"quotations"`
	SelectedIndex     *int                  `db:"selected_index" json:"selectedIndex,omitempty"`
	Status            Status                `db:"status" json:"status"`
	DeliverySubStatus *DeliverySubStatus    `db:"delivery_sub_status" json:"deliverySubStatus,omitempty"`
	CategoryRef       *string               `db:"category_ref" json:"categoryRef,omitempty"`
	ProjectRef        *string               `db:"project_ref" json:"projectRef,omitempty"`
	StockItemRef      *id.ID                `db:"stock_item_ref" json:"stockItemRef,omitempty"`
	AllocationRef     *id.ID                `db:"allocation_ref" json:"allocationRef,omitempty"`
	UnitValue         types.Money           `db:"unit_value" json:"unitValue"`
	TotalValue        types.Money           `db:"total_value" json:"totalValue"`
	RequestedBy       string                `db:"requested_by" json:"requestedBy"`
	ApprovedBy        *string               `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt        *time.Time            `db:"approved_at" json:"approvedAt,omitempty"`
	RejectionReason   *string               `db:"rejection_reason" json:"rejectionReason,omitempty"`
	DeliveryInfo      *DeliveryInfo         `db:"delivery_info" json:"deliveryInfo,omitempty"`
	CreatedAt         time.Time             `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time             `db:"updated_at" json:"updatedAt"`
	Version           int                   `db:"version" json:"version"`
}

// SelectedQuotation returns the quotation chosen at approval, if any.
func (r *PurchaseRequest) SelectedQuotation() (quotation.Quotation, bool) {
	if r.SelectedIndex == nil || *r.SelectedIndex < 0 || *r.SelectedIndex >= len(r.Quotations) {
		return quotation.Quotation{}, false
	}
	return r.Quotations[*r.SelectedIndex], true
}

// CreateInput is the payload of Create.
type CreateInput struct {
	ItemName     string
	Quantity     int64
	Quotations   []quotation.Quotation
	CategoryRef  *string
	ProjectRef   *string
	StockItemRef *id.ID
}

// ApproveInput is the payload of Approve.
// ExpectedVersion, when set, must match the stored version.
type ApproveInput struct {
	Quotations      []quotation.Quotation
	SelectedIndex   int
	ExpectedVersion *int
}

// RejectInput is the payload of Reject.
type RejectInput struct {
	Reason          string
	ExpectedVersion *int
}

// AdvanceInput is the payload of Advance.
type AdvanceInput struct {
	Target          Status
	SubStatus       *DeliverySubStatus
	Delivery        *DeliveryInfo
	ExpectedVersion *int
}

// ListFilter narrows List. REPROVADO requests are left out unless
// IncludeRejected is set or Status asks for them explicitly.
type ListFilter struct {
	Status          *Status
	ProjectRef      *string
	RequestedBy     *string
	IncludeRejected bool
	Limit           int
	Offset          int
}
