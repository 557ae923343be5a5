package dto

import (
	"opserp/internal/core/id"
	"opserp/internal/core/types"
	"opserp/internal/domain/stock"
)

// UpsertItemRequest is the body of POST /stock/items and PUT /stock/items/:id.
type UpsertItemRequest struct {
	Name          string      `json:"name" binding:"required"`
	TotalQuantity int64       `json:"totalQuantity"`
	UnitValue     types.Money `json:"unitValue"`
	Attachments   []string    `json:"attachments"`
	ProjectRef    *string     `json:"projectRef"`
	StageRef      *string     `json:"stageRef"`
}

// ToSpec converts DTO to the ledger input. itemID is nil on create.
func (r *UpsertItemRequest) ToSpec(itemID *id.ID) stock.ItemSpec {
	return stock.ItemSpec{
		ID:            itemID,
		Name:          r.Name,
		TotalQuantity: r.TotalQuantity,
		UnitValue:     r.UnitValue,
		Attachments:   r.Attachments,
		ProjectRef:    r.ProjectRef,
		StageRef:      r.StageRef,
	}
}

// AllocateRequest is the body of POST /stock/items/:id/allocations.
type AllocateRequest struct {
	Quantity int64  `json:"quantity"`
	OwnerRef string `json:"ownerRef" binding:"required"`
}

// ListItemsQuery is the query string of GET /stock/items.
type ListItemsQuery struct {
	PaginationRequest
	ProjectRef string `form:"projectRef"`
	Search     string `form:"search"`
}

// ToFilter converts the query to an item filter.
func (q *ListItemsQuery) ToFilter() stock.ItemFilter {
	q.Defaults()
	f := stock.ItemFilter{Search: q.Search, Limit: q.Limit, Offset: q.Offset}
	if q.ProjectRef != "" {
		f.ProjectRef = &q.ProjectRef
	}
	return f
}

// ItemResponse is an item with its current stock position.
type ItemResponse struct {
	*stock.Item
	AvailableQuantity int64 `json:"availableQuantity"`
}

// FromItem creates the response of an item.
func FromItem(item *stock.Item) ItemResponse {
	return ItemResponse{Item: item, AvailableQuantity: item.AvailableQuantity()}
}

// FromItems maps a slice.
func FromItems(items []stock.Item) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i := range items {
		out[i] = FromItem(&items[i])
	}
	return out
}
