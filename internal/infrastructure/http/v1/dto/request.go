package dto

import (
	"time"

	"opserp/internal/core/types"
	"opserp/internal/domain/procurement"
	"opserp/internal/domain/quotation"
)

// --- Request DTOs ---

// QuotationDTO is one supplier offer.
type QuotationDTO struct {
	UnitPrice     types.Money `json:"unitPrice"`
	Freight       types.Money `json:"freight"`
	Taxes         types.Money `json:"taxes"`
	Discount      types.Money `json:"discount"`
	SupplierRef   *string     `json:"supplierRef"`
	PaymentMethod string      `json:"paymentMethod"`
	Link          string      `json:"link"`
}

func (q QuotationDTO) toDomain() quotation.Quotation {
	return quotation.Quotation{
		UnitPrice:     q.UnitPrice,
		Freight:       q.Freight,
		Taxes:         q.Taxes,
		Discount:      q.Discount,
		SupplierRef:   q.SupplierRef,
		PaymentMethod: q.PaymentMethod,
		Link:          q.Link,
	}
}

func quotationsToDomain(in []QuotationDTO) []quotation.Quotation {
	if in == nil {
		return nil
	}
	out := make([]quotation.Quotation, len(in))
	for i, q := range in {
		out[i] = q.toDomain()
	}
	return out
}

// CreateRequestRequest is the body of POST /requests.
type CreateRequestRequest struct {
	ItemName     string         `json:"itemName" binding:"required"`
	Quantity     int64          `json:"quantity"`
	Quotations   []QuotationDTO `json:"quotations"`
	CategoryRef  *string        `json:"categoryRef"`
	ProjectRef   *string        `json:"projectRef"`
	StockItemRef *string        `json:"stockItemRef"`
}

// ToInput converts DTO to the service input.
func (r *CreateRequestRequest) ToInput() (procurement.CreateInput, error) {
	stockRef, err := parseOptionalID("stockItemRef", r.StockItemRef)
	if err != nil {
		return procurement.CreateInput{}, err
	}
	return procurement.CreateInput{
		ItemName:     r.ItemName,
		Quantity:     r.Quantity,
		Quotations:   quotationsToDomain(r.Quotations),
		CategoryRef:  r.CategoryRef,
		ProjectRef:   r.ProjectRef,
		StockItemRef: stockRef,
	}, nil
}

// ApproveRequestRequest is the body of POST /requests/:id/approve.
// Quotations, when present, replace the stored ones.
type ApproveRequestRequest struct {
	Quotations      []QuotationDTO `json:"quotations"`
	SelectedIndex   int            `json:"selectedIndex"`
	ExpectedVersion *int           `json:"expectedVersion"`
}

// ToInput converts DTO to the service input.
func (r *ApproveRequestRequest) ToInput() procurement.ApproveInput {
	return procurement.ApproveInput{
		Quotations:      quotationsToDomain(r.Quotations),
		SelectedIndex:   r.SelectedIndex,
		ExpectedVersion: r.ExpectedVersion,
	}
}

// RejectRequestRequest is the body of POST /requests/:id/reject.
type RejectRequestRequest struct {
	Reason          string `json:"reason"`
	ExpectedVersion *int   `json:"expectedVersion"`
}

// ToInput converts DTO to the service input.
func (r *RejectRequestRequest) ToInput() procurement.RejectInput {
	return procurement.RejectInput{Reason: r.Reason, ExpectedVersion: r.ExpectedVersion}
}

// DeliveryDTO carries delivery details.
type DeliveryDTO struct {
	DeliveryDate time.Time `json:"deliveryDate"`
	Address      string    `json:"address"`
	ReceivedBy   string    `json:"receivedBy"`
	Note         string    `json:"note"`
}

// AdvanceRequestRequest is the body of POST /requests/:id/advance.
type AdvanceRequestRequest struct {
	Target          string       `json:"target" binding:"required"`
	SubStatus       *string      `json:"subStatus"`
	Delivery        *DeliveryDTO `json:"delivery"`
	ExpectedVersion *int         `json:"expectedVersion"`
}

// ToInput converts DTO to the service input.
func (r *AdvanceRequestRequest) ToInput() procurement.AdvanceInput {
	in := procurement.AdvanceInput{
		Target:          procurement.Status(r.Target),
		ExpectedVersion: r.ExpectedVersion,
	}
	if r.SubStatus != nil {
		s := procurement.DeliverySubStatus(*r.SubStatus)
		in.SubStatus = &s
	}
	if r.Delivery != nil {
		in.Delivery = &procurement.DeliveryInfo{
			DeliveryDate: r.Delivery.DeliveryDate,
			Address:      r.Delivery.Address,
			ReceivedBy:   r.Delivery.ReceivedBy,
			Note:         r.Delivery.Note,
		}
	}
	return in
}

// ListRequestsQuery is the query string of GET /requests.
type ListRequestsQuery struct {
	PaginationRequest
	Status          string `form:"status"`
	ProjectRef      string `form:"projectRef"`
	RequestedBy     string `form:"requestedBy"`
	IncludeRejected bool   `form:"includeRejected"`
}

// ToFilter converts the query to a list filter.
func (q *ListRequestsQuery) ToFilter() (procurement.ListFilter, error) {
	q.Defaults()
	f := procurement.ListFilter{
		IncludeRejected: q.IncludeRejected,
		Limit:           q.Limit,
		Offset:          q.Offset,
	}
	if q.Status != "" {
		s := procurement.Status(q.Status)
		if !s.IsValid() {
			return f, invalidField("status", "is not a known status")
		}
		f.Status = &s
	}
	if q.ProjectRef != "" {
		f.ProjectRef = &q.ProjectRef
	}
	if q.RequestedBy != "" {
		f.RequestedBy = &q.RequestedBy
	}
	return f, nil
}

// --- Response DTOs ---

// RequestResponse is a purchase request as returned by the API.
type RequestResponse struct {
	*procurement.PurchaseRequest
	SelectedQuotation *quotation.Quotation `json:"selectedQuotation,omitempty"`
	NextStatuses      []procurement.Status `json:"nextStatuses"`
}

// FromRequest creates the response of a purchase request.
func FromRequest(r *procurement.PurchaseRequest) RequestResponse {
	next := procurement.NextStatuses(r.Status)
	if next == nil {
		next = []procurement.Status{}
	}
	resp := RequestResponse{PurchaseRequest: r, NextStatuses: next}
	if q, ok := r.SelectedQuotation(); ok {
		resp.SelectedQuotation = &q
	}
	return resp
}

// FromRequests maps a slice.
func FromRequests(rs []procurement.PurchaseRequest) []RequestResponse {
	out := make([]RequestResponse, len(rs))
	for i := range rs {
		out[i] = FromRequest(&rs[i])
	}
	return out
}
