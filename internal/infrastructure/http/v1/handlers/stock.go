package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"opserp/internal/core/id"
	"opserp/internal/core/security"
	"opserp/internal/domain/stock"
	"opserp/internal/infrastructure/http/v1/dto"
)

// StockLedger is the part of stock.Ledger the handler uses.
type StockLedger interface {
	UpsertItem(ctx context.Context, c *security.Capability, spec stock.ItemSpec) (*stock.Item, error)
	Allocate(ctx context.Context, c *security.Capability, itemID id.ID, quantity int64, ownerRef string) (id.ID, error)
	Release(ctx context.Context, c *security.Capability, allocationID id.ID) error
	GetItem(ctx context.Context, c *security.Capability, itemID id.ID) (*stock.Item, error)
	ListItems(ctx context.Context, c *security.Capability, filter stock.ItemFilter) ([]stock.Item, error)
	ListAllocations(ctx context.Context, c *security.Capability, itemID id.ID) ([]stock.Allocation, error)
}

// StockHandler handles stock ledger endpoints.
type StockHandler struct {
	*BaseHandler
	ledger StockLedger
}

// NewStockHandler creates a stock handler.
func NewStockHandler(base *BaseHandler, ledger StockLedger) *StockHandler {
	return &StockHandler{BaseHandler: base, ledger: ledger}
}

// ListItems handles GET /stock/items
func (h *StockHandler) ListItems(c *gin.Context) {
	var q dto.ListItemsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter := q.ToFilter()

	items, err := h.ledger.ListItems(c.Request.Context(), h.Capability(c), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromItems(items), filter.Limit, filter.Offset))
}

// CreateItem handles POST /stock/items
func (h *StockHandler) CreateItem(c *gin.Context) {
	var req dto.UpsertItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.ledger.UpsertItem(c.Request.Context(), h.Capability(c), req.ToSpec(nil))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromItem(item))
}

// UpdateItem handles PUT /stock/items/:id
func (h *StockHandler) UpdateItem(c *gin.Context) {
	itemID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.UpsertItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.ledger.UpsertItem(c.Request.Context(), h.Capability(c), req.ToSpec(&itemID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromItem(item))
}

// GetItem handles GET /stock/items/:id
func (h *StockHandler) GetItem(c *gin.Context) {
	itemID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	item, err := h.ledger.GetItem(c.Request.Context(), h.Capability(c), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromItem(item))
}

// ListAllocations handles GET /stock/items/:id/allocations
func (h *StockHandler) ListAllocations(c *gin.Context) {
	itemID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	allocs, err := h.ledger.ListAllocations(c.Request.Context(), h.Capability(c), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if allocs == nil {
		allocs = []stock.Allocation{}
	}
	h.OK(c, gin.H{"items": allocs})
}

// Allocate handles POST /stock/items/:id/allocations
func (h *StockHandler) Allocate(c *gin.Context) {
	itemID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.AllocateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	allocID, err := h.ledger.Allocate(c.Request.Context(), h.Capability(c), itemID, req.Quantity, req.OwnerRef)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, allocID)
}

// Release handles DELETE /stock/allocations/:id
func (h *StockHandler) Release(c *gin.Context) {
	allocID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.ledger.Release(c.Request.Context(), h.Capability(c), allocID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
