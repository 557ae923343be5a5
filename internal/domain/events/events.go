// Package events defines the domain events emitted by procurement commands.
package events

import (
	"context"
	"time"

	"opserp/internal/core/id"
)

// Type names carried on the wire.
const (
	TypeRequestApproved      = "purchase_request.approved"
	TypeRequestRejected      = "purchase_request.rejected"
	TypeRequestAdvanced      = "purchase_request.advanced"
	AggregatePurchaseRequest = "purchase_request"
)

// StatusChanged is emitted after a successful approve, reject or advance.
type StatusChanged struct {
	Type       string    `json:"type"`
	RequestID  id.ID     `json:"requestId"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	ActorID    string    `json:"actorId"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher records events for the notification collaborator.
//
// Publish is called inside the transaction that performs the state change.
// Implementations must write through ctx so that a rollback discards the event.
type Publisher interface {
	Publish(ctx context.Context, event StatusChanged) error
}
