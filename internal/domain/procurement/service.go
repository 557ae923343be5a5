package procurement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"opserp/internal/core/apperror"
	"opserp/internal/core/id"
	"opserp/internal/core/numerator"
	"opserp/internal/core/security"
	"opserp/internal/core/tx"
	"opserp/internal/core/types"
	"opserp/internal/domain/audit"
	"opserp/internal/domain/events"
	"opserp/internal/domain/quotation"
	"opserp/internal/domain/stock"
	"opserp/pkg/logger"
)

const entityType = "purchase_request"

// Numbering is the numbering scheme of purchase requests (SC-2026-00001).
var Numbering = numerator.DefaultConfig("SC")

// StockReserver is the part of the stock ledger the state machine uses.
// Reservations made through it join the caller's transaction.
type StockReserver interface {
	Reserve(ctx context.Context, itemID id.ID, quantity int64, ownerRef string) (id.ID, error)
	Unreserve(ctx context.Context, allocationID id.ID) error
	Quantities(ctx context.Context, itemID id.ID) (stock.Quantities, error)
}

// Service runs purchase request commands.
//
// Each command checks the capability first, then loads the request with its
// row lock, applies the edge table and writes the request, the stock
// reservation, the event and the audit entry in one transaction.
type Service struct {
	repo      Repository
	stock     StockReserver
	publisher events.Publisher
	recorder  audit.Recorder
	txManager tx.Manager
	numerator numerator.Generator
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithNumerator sets the generator of request numbers.
// The default is an in-process sequence.
func WithNumerator(g numerator.Generator) Option {
	return func(s *Service) { s.numerator = g }
}

// NewService creates a procurement service.
func NewService(
	repo Repository,
	stock StockReserver,
	publisher events.Publisher,
	recorder audit.Recorder,
	txManager tx.Manager,
	opts ...Option,
) *Service {
	s := &Service{
		repo:      repo,
		stock:     stock,
		publisher: publisher,
		recorder:  recorder,
		txManager: txManager,
		numerator: numerator.NewMemory(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create submits a new request in SOLICITADO.
func (s *Service) Create(ctx context.Context, c *security.Capability, in CreateInput) (*PurchaseRequest, error) {
	if err := security.Require(c, security.PermRequestCreate); err != nil {
		return nil, err
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	now := s.now()
	req := &PurchaseRequest{
		ID:           id.New(),
		ItemName:     strings.TrimSpace(in.ItemName),
		Quantity:     in.Quantity,
		Quotations:   in.Quotations,
		Status:       StatusRequested,
		CategoryRef:  in.CategoryRef,
		ProjectRef:   in.ProjectRef,
		StockItemRef: in.StockItemRef,
		UnitValue:    types.Zero(),
		TotalValue:   types.Zero(),
		RequestedBy:  c.ActorID,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
	if req.Quotations == nil {
		req.Quotations = []quotation.Quotation{}
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if req.StockItemRef != nil {
			if _, err := s.stock.Quantities(ctx, *req.StockItemRef); err != nil {
				return err
			}
		}
		number, err := s.numerator.Next(ctx, Numbering, req.CreatedAt)
		if err != nil {
			return fmt.Errorf("assign request number: %w", err)
		}
		req.Number = number
		if err := s.repo.Create(ctx, req); err != nil {
			return fmt.Errorf("create purchase request: %w", err)
		}
		return s.audit(ctx, req, audit.ActionCreate, c, nil)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase request created",
		"request_id", req.ID,
		"number", req.Number,
		"quantity", req.Quantity,
		"quotations", len(req.Quotations),
	)
	return req, nil
}

// Approve selects a quotation and moves the request to PENDENTE.
// A request already in PENDENTE may be re-approved with new quotations.
// On the first entry into PENDENTE the referenced stock item is reserved;
// if that fails nothing is written.
func (s *Service) Approve(ctx context.Context, c *security.Capability, requestID id.ID, in ApproveInput) (*PurchaseRequest, error) {
	if err := security.Require(c, security.PermRequestApprove); err != nil {
		return nil, err
	}

	var req *PurchaseRequest
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.loadForUpdate(ctx, requestID, in.ExpectedVersion)
		if err != nil {
			return err
		}
		from := req.Status
		if from != StatusRequested && from != StatusPending {
			return apperror.NewInvalidTransition(string(from), string(StatusPending))
		}

		// Without new quotations the approver confirms the stored ones.
		if len(in.Quotations) == 0 {
			in.Quotations = req.Quotations
		}
		selected, err := validateApprove(in)
		if err != nil {
			return err
		}

		unitCost, err := quotation.EffectiveUnitCost(selected)
		if err != nil {
			return err
		}
		lineTotal, err := quotation.LineTotal(selected, req.Quantity)
		if err != nil {
			return err
		}

		if from == StatusRequested && req.StockItemRef != nil && req.AllocationRef == nil {
			allocID, err := s.stock.Reserve(ctx, *req.StockItemRef, req.Quantity, stock.OwnerRequest(req.ID))
			if err != nil {
				return err
			}
			req.AllocationRef = &allocID
		}

		now := s.now()
		idx := in.SelectedIndex
		approver := c.ActorID
		req.Quotations = in.Quotations
		req.SelectedIndex = &idx
		req.UnitValue = types.RoundMoney(unitCost)
		req.TotalValue = types.RoundMoney(lineTotal)
		req.Status = StatusPending
		req.ApprovedBy = &approver
		req.ApprovedAt = &now
		req.UpdatedAt = now

		return s.commitTransition(ctx, c, req, from, events.TypeRequestApproved, audit.ActionApprove, nil)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase request approved",
		"request_id", req.ID,
		"selected_index", in.SelectedIndex,
		"unit_value", req.UnitValue.String(),
	)
	return req, nil
}

// Reject moves the request to REPROVADO and releases its reservation.
func (s *Service) Reject(ctx context.Context, c *security.Capability, requestID id.ID, in RejectInput) (*PurchaseRequest, error) {
	if err := security.Require(c, security.PermRequestApprove); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, apperror.NewInvalidRequest("rejection reason is required").WithDetail("field", "reason")
	}

	var req *PurchaseRequest
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.loadForUpdate(ctx, requestID, in.ExpectedVersion)
		if err != nil {
			return err
		}
		from := req.Status
		if !CanTransition(from, StatusRejected) {
			return apperror.NewInvalidTransition(string(from), string(StatusRejected))
		}

		if err := s.releaseReservation(ctx, req); err != nil {
			return err
		}

		req.Status = StatusRejected
		req.RejectionReason = &reason
		req.UpdatedAt = s.now()

		return s.commitTransition(ctx, c, req, from, events.TypeRequestRejected, audit.ActionReject,
			map[string]any{"reason": reason})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase request rejected", "request_id", req.ID)
	return req, nil
}

// Advance moves the request along the purchase and delivery edges.
// A request in COMPRADO_ACAMINHO may be advanced to itself to change its sub-status.
// A missing edge is reported before the payload is checked.
func (s *Service) Advance(ctx context.Context, c *security.Capability, requestID id.ID, in AdvanceInput) (*PurchaseRequest, error) {
	if err := security.Require(c, security.PermRequestApprove); err != nil {
		return nil, err
	}
	if !in.Target.IsValid() {
		return nil, apperror.NewInvalidRequest(fmt.Sprintf("unknown status %q", in.Target)).
			WithDetail("field", "target")
	}

	var req *PurchaseRequest
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.loadForUpdate(ctx, requestID, in.ExpectedVersion)
		if err != nil {
			return err
		}
		from := req.Status
		subStatusUpdate := from == StatusInTransit && in.Target == StatusInTransit
		if !subStatusUpdate && !CanTransition(from, in.Target) {
			return apperror.NewInvalidTransition(string(from), string(in.Target))
		}
		if err := validateAdvance(in); err != nil {
			return err
		}

		switch in.Target {
		case StatusInTransit:
			req.DeliverySubStatus = in.SubStatus
		case StatusDelivered:
			info := *in.Delivery
			req.DeliveryInfo = &info
			req.DeliverySubStatus = nil
		}
		req.Status = in.Target
		req.UpdatedAt = s.now()

		return s.commitTransition(ctx, c, req, from, events.TypeRequestAdvanced, audit.ActionAdvance, nil)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase request advanced", "request_id", req.ID, "status", req.Status)
	return req, nil
}

// Delete removes a request. Terminal requests are kept as history and can
// only be removed with override. An open request's reservation is released;
// a delivered request's allocation stays as the consumption record.
func (s *Service) Delete(ctx context.Context, c *security.Capability, requestID id.ID, override bool) error {
	if err := security.Require(c, security.PermRequestDelete); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		req, err := s.repo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status.IsTerminal() && !override {
			return apperror.NewConflict("request is in a terminal status; deletion requires override").
				WithDetail("status", string(req.Status))
		}
		if !req.Status.IsTerminal() {
			if err := s.releaseReservation(ctx, req); err != nil {
				return err
			}
		}
		if err := s.repo.Delete(ctx, requestID); err != nil {
			return fmt.Errorf("delete purchase request: %w", err)
		}
		return s.audit(ctx, req, audit.ActionDelete, c, map[string]any{"override": override})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase request deleted", "request_id", requestID, "override", override)
	return nil
}

// Get returns one request.
func (s *Service) Get(ctx context.Context, c *security.Capability, requestID id.ID) (*PurchaseRequest, error) {
	if err := security.Require(c, security.PermRequestView); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, requestID)
}

// List returns requests matching filter, newest first.
func (s *Service) List(ctx context.Context, c *security.Capability, filter ListFilter) ([]PurchaseRequest, error) {
	if err := security.Require(c, security.PermRequestView); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}

// Evaluate returns the cost of each stored quotation, in stored order.
func (s *Service) Evaluate(ctx context.Context, c *security.Capability, requestID id.ID) ([]quotation.Evaluation, error) {
	if err := security.Require(c, security.PermRequestView); err != nil {
		return nil, err
	}
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return quotation.EvaluateAll(req.Quotations, req.Quantity)
}

func (s *Service) loadForUpdate(ctx context.Context, requestID id.ID, expectedVersion *int) (*PurchaseRequest, error) {
	req, err := s.repo.GetForUpdate(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if expectedVersion != nil && *expectedVersion != req.Version {
		return nil, apperror.NewConcurrentModification(entityType, requestID).
			WithDetail("expectedVersion", *expectedVersion).
			WithDetail("actualVersion", req.Version)
	}
	return req, nil
}

func (s *Service) releaseReservation(ctx context.Context, req *PurchaseRequest) error {
	if req.AllocationRef == nil {
		return nil
	}
	if err := s.stock.Unreserve(ctx, *req.AllocationRef); err != nil && !apperror.IsNotFound(err) {
		return fmt.Errorf("release reservation: %w", err)
	}
	req.AllocationRef = nil
	return nil
}

// commitTransition writes the request, then the event and the audit entry.
func (s *Service) commitTransition(
	ctx context.Context,
	c *security.Capability,
	req *PurchaseRequest,
	from Status,
	eventType string,
	action audit.Action,
	extra map[string]any,
) error {
	if err := s.repo.Update(ctx, req); err != nil {
		return fmt.Errorf("update purchase request: %w", err)
	}

	event := events.StatusChanged{
		Type:       eventType,
		RequestID:  req.ID,
		FromStatus: string(from),
		ToStatus:   string(req.Status),
		ActorID:    c.ActorID,
		Timestamp:  req.UpdatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	changes := map[string]any{"from": string(from)}
	for k, v := range extra {
		changes[k] = v
	}
	return s.audit(ctx, req, action, c, changes)
}

func (s *Service) audit(ctx context.Context, req *PurchaseRequest, action audit.Action, c *security.Capability, extra map[string]any) error {
	changes := map[string]any{
		"status":   string(req.Status),
		"itemName": req.ItemName,
		"quantity": req.Quantity,
		"version":  req.Version,
	}
	if q, ok := req.SelectedQuotation(); ok {
		changes["selectedIndex"] = *req.SelectedIndex
		changes["unitValue"] = req.UnitValue.String()
		if q.SupplierRef != nil {
			changes["supplierRef"] = *q.SupplierRef
		}
	}
	for k, v := range extra {
		changes[k] = v
	}
	err := s.recorder.Record(ctx, audit.Entry{
		EntityType: entityType,
		EntityID:   req.ID,
		Action:     action,
		ActorID:    c.ActorID,
		Changes:    changes,
	})
	if err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}
