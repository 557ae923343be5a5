package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"opserp/internal/core/id"
	"opserp/internal/core/security"
	"opserp/internal/domain/events"
	"opserp/internal/domain/procurement"
	"opserp/internal/domain/quotation"
	"opserp/internal/infrastructure/http/v1/dto"
	"opserp/internal/infrastructure/storage/postgres"
)

// RequestService is the part of procurement.Service the handler uses.
type RequestService interface {
	Create(ctx context.Context, c *security.Capability, in procurement.CreateInput) (*procurement.PurchaseRequest, error)
	Approve(ctx context.Context, c *security.Capability, requestID id.ID, in procurement.ApproveInput) (*procurement.PurchaseRequest, error)
	Reject(ctx context.Context, c *security.Capability, requestID id.ID, in procurement.RejectInput) (*procurement.PurchaseRequest, error)
	Advance(ctx context.Context, c *security.Capability, requestID id.ID, in procurement.AdvanceInput) (*procurement.PurchaseRequest, error)
	Delete(ctx context.Context, c *security.Capability, requestID id.ID, override bool) error
	Get(ctx context.Context, c *security.Capability, requestID id.ID) (*procurement.PurchaseRequest, error)
	List(ctx context.Context, c *security.Capability, filter procurement.ListFilter) ([]procurement.PurchaseRequest, error)
	Evaluate(ctx context.Context, c *security.Capability, requestID id.ID) ([]quotation.Evaluation, error)
}

// HistoryReader reads the audit log of an entity.
type HistoryReader interface {
	GetEntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error)
}

// RequestHandler handles purchase request endpoints.
type RequestHandler struct {
	*BaseHandler
	service RequestService
	history HistoryReader
}

// NewRequestHandler creates a purchase request handler. history may be nil.
func NewRequestHandler(base *BaseHandler, service RequestService, history HistoryReader) *RequestHandler {
	return &RequestHandler{BaseHandler: base, service: service, history: history}
}

// HasHistory reports whether the audit history endpoint can be served.
func (h *RequestHandler) HasHistory() bool {
	return h.history != nil
}

// List handles GET /requests
func (h *RequestHandler) List(c *gin.Context) {
	var q dto.ListRequestsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.service.List(c.Request.Context(), h.Capability(c), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromRequests(items), filter.Limit, filter.Offset))
}

// Create handles POST /requests
func (h *RequestHandler) Create(c *gin.Context) {
	var req dto.CreateRequestRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	created, err := h.service.Create(c.Request.Context(), h.Capability(c), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromRequest(created))
}

// Get handles GET /requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	requestID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	req, err := h.service.Get(c.Request.Context(), h.Capability(c), requestID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRequest(req))
}

// Approve handles POST /requests/:id/approve
func (h *RequestHandler) Approve(c *gin.Context) {
	requestID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var body dto.ApproveRequestRequest
	if !h.BindJSON(c, &body) {
		return
	}

	req, err := h.service.Approve(c.Request.Context(), h.Capability(c), requestID, body.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRequest(req))
}

// Reject handles POST /requests/:id/reject
func (h *RequestHandler) Reject(c *gin.Context) {
	requestID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var body dto.RejectRequestRequest
	if !h.BindJSON(c, &body) {
		return
	}

	req, err := h.service.Reject(c.Request.Context(), h.Capability(c), requestID, body.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRequest(req))
}

// Advance handles POST /requests/:id/advance
func (h *RequestHandler) Advance(c *gin.Context) {
	requestID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var body dto.AdvanceRequestRequest
	if !h.BindJSON(c, &body) {
		return
	}

	req, err := h.service.Advance(c.Request.Context(), h.Capability(c), requestID, body.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRequest(req))
}

// Delete handles DELETE /requests/:id?override=true
func (h *RequestHandler) Delete(c *gin.Context) {
	requestID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	override, _ := strconv.ParseBool(c.Query("override"))

	if err := h.service.Delete(c.Request.Context(), h.Capability(c), requestID, override); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Evaluate handles GET /requests/:id/evaluation
func (h *RequestHandler) Evaluate(c *gin.Context) {
	requestID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	evals, err := h.service.Evaluate(c.Request.Context(), h.Capability(c), requestID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if evals == nil {
		evals = []quotation.Evaluation{}
	}
	h.OK(c, gin.H{"evaluations": evals})
}

// History handles GET /requests/:id/history
func (h *RequestHandler) History(c *gin.Context) {
	requestID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	limit := 50
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= dto.MaxLimit {
		limit = v
	}

	entries, err := h.history.GetEntityHistory(c.Request.Context(), events.AggregatePurchaseRequest, requestID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []postgres.AuditEntry{}
	}
	h.OK(c, gin.H{"entries": entries})
}
