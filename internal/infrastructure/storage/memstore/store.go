// Package memstore is an in-memory implementation of the repository and
// transaction contracts. Transactions are serialized by one mutex and roll
// back by restoring a snapshot, which gives the same observable isolation as
// the row locks the Postgres store takes.
package memstore

import (
	"context"
	"sync"

	"opserp/internal/core/id"
	"opserp/internal/core/security"
	"opserp/internal/domain/access"
	"opserp/internal/domain/audit"
	"opserp/internal/domain/events"
	"opserp/internal/domain/procurement"
	"opserp/internal/domain/stock"
)

type state struct {
	items       map[id.ID]stock.Item
	allocations map[id.ID]stock.Allocation
	requests    map[id.ID]procurement.PurchaseRequest

	permissions map[security.PermissionKey]access.Permission
	pages       map[string]access.Page
	roles       map[id.ID]access.Role
	rolePerms   map[id.ID][]security.PermissionKey
	rolePages   map[id.ID][]string
	actors      map[id.ID]access.Actor

	events []events.StatusChanged
	audit  []audit.Entry
}

func newState() *state {
	return &state{
		items:       make(map[id.ID]stock.Item),
		allocations: make(map[id.ID]stock.Allocation),
		requests:    make(map[id.ID]procurement.PurchaseRequest),
		permissions: make(map[security.PermissionKey]access.Permission),
		pages:       make(map[string]access.Page),
		roles:       make(map[id.ID]access.Role),
		rolePerms:   make(map[id.ID][]security.PermissionKey),
		rolePages:   make(map[id.ID][]string),
		actors:      make(map[id.ID]access.Actor),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.items {
		c.items[k] = cloneItem(v)
	}
	for k, v := range s.allocations {
		c.allocations[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = cloneRequest(v)
	}
	for k, v := range s.permissions {
		c.permissions[k] = v
	}
	for k, v := range s.pages {
		c.pages[k] = v
	}
	for k, v := range s.roles {
		c.roles[k] = v
	}
	for k, v := range s.rolePerms {
		c.rolePerms[k] = append([]security.PermissionKey(nil), v...)
	}
	for k, v := range s.rolePages {
		c.rolePages[k] = append([]string(nil), v...)
	}
	for k, v := range s.actors {
		c.actors[k] = v
	}
	c.events = append([]events.StatusChanged(nil), s.events...)
	c.audit = append([]audit.Entry(nil), s.audit...)
	return c
}

// Store holds all in-memory tables.
type Store struct {
	mu    sync.Mutex
	state *state
}

// New creates an empty store.
func New() *Store {
	return &Store{state: newState()}
}

type txKey struct{}

// RunInTransaction implements tx.Manager.
// Nested calls join the outer transaction; an error from the outermost fn
// restores the state as it was before the transaction began.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// do runs fn under the store lock unless ctx already holds it.
func (s *Store) do(ctx context.Context, fn func(st *state) error) error {
	if inTx(ctx) {
		return fn(s.state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// Stock returns the stock repository view.
func (s *Store) Stock() *StockRepo { return &StockRepo{s} }

// Requests returns the purchase request repository view.
func (s *Store) Requests() *RequestRepo { return &RequestRepo{s} }

// Access returns the registry repository view.
func (s *Store) Access() *AccessRepo { return &AccessRepo{s} }

// Publisher returns an events.Publisher that records into the store.
func (s *Store) Publisher() *Publisher { return &Publisher{s} }

// Recorder returns an audit.Recorder that records into the store.
func (s *Store) Recorder() *Recorder { return &Recorder{s} }

func cloneItem(v stock.Item) stock.Item {
	v.Attachments = append([]string(nil), v.Attachments...)
	return v
}

func cloneRequest(v procurement.PurchaseRequest) procurement.PurchaseRequest {
	v.Quotations = append(v.Quotations[:0:0], v.Quotations...)
	if v.SelectedIndex != nil {
		idx := *v.SelectedIndex
		v.SelectedIndex = &idx
	}
	if v.AllocationRef != nil {
		a := *v.AllocationRef
		v.AllocationRef = &a
	}
	if v.DeliveryInfo != nil {
		d := *v.DeliveryInfo
		v.DeliveryInfo = &d
	}
	return v
}
