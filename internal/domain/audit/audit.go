// Package audit defines the audit trail written by domain commands.
package audit

import (
	"context"

	"opserp/internal/core/id"
)

// Action is the kind of audited operation.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionAdvance Action = "advance"
	ActionDelete  Action = "delete"
)

// Entry is one audit record. Changes is serialized by the recorder.
type Entry struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	ActorID    string
	Changes    map[string]any
}

// Recorder persists audit entries.
// Record is called inside the command's transaction.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}
