package memstore

import (
	"context"
	"sort"

	"opserp/internal/core/apperror"
	"opserp/internal/core/id"
	"opserp/internal/domain/procurement"
)

// RequestRepo implements procurement.Repository.
type RequestRepo struct{ s *Store }

var _ procurement.Repository = (*RequestRepo)(nil)

func (r *RequestRepo) Create(ctx context.Context, req *procurement.PurchaseRequest) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.requests[req.ID]; ok {
			return apperror.NewDuplicate("purchase_request", "id", req.ID.String())
		}
		st.requests[req.ID] = cloneRequest(*req)
		return nil
	})
}

func (r *RequestRepo) GetByID(ctx context.Context, requestID id.ID) (*procurement.PurchaseRequest, error) {
	var out *procurement.PurchaseRequest
	err := r.s.do(ctx, func(st *state) error {
		v, ok := st.requests[requestID]
		if !ok {
			return apperror.NewNotFound("purchase_request", requestID)
		}
		v = cloneRequest(v)
		out = &v
		return nil
	})
	return out, err
}

func (r *RequestRepo) GetForUpdate(ctx context.Context, requestID id.ID) (*procurement.PurchaseRequest, error) {
	return r.GetByID(ctx, requestID)
}

func (r *RequestRepo) Update(ctx context.Context, req *procurement.PurchaseRequest) error {
	return r.s.do(ctx, func(st *state) error {
		current, ok := st.requests[req.ID]
		if !ok {
			return apperror.NewNotFound("purchase_request", req.ID)
		}
		if current.Version != req.Version {
			return apperror.NewConcurrentModification("purchase_request", req.ID)
		}
		req.Version++
		st.requests[req.ID] = cloneRequest(*req)
		return nil
	})
}

func (r *RequestRepo) Delete(ctx context.Context, requestID id.ID) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.requests[requestID]; !ok {
			return apperror.NewNotFound("purchase_request", requestID)
		}
		delete(st.requests, requestID)
		return nil
	})
}

func (r *RequestRepo) List(ctx context.Context, f procurement.ListFilter) ([]procurement.PurchaseRequest, error) {
	var out []procurement.PurchaseRequest
	err := r.s.do(ctx, func(st *state) error {
		for _, v := range st.requests {
			if f.Status != nil && v.Status != *f.Status {
				continue
			}
			if f.Status == nil && !f.IncludeRejected && v.Status == procurement.StatusRejected {
				continue
			}
			if f.ProjectRef != nil && (v.ProjectRef == nil || *v.ProjectRef != *f.ProjectRef) {
				continue
			}
			if f.RequestedBy != nil && v.RequestedBy != *f.RequestedBy {
				continue
			}
			out = append(out, cloneRequest(v))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() > out[j].ID.String() })
	return page(out, f.Offset, f.Limit), err
}
