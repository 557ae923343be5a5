// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"opserp/internal/core/id"
)

// --- Pagination ---

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// PaginationRequest contains offset pagination parameters.
type PaginationRequest struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// Defaults sets default pagination values.
func (p *PaginationRequest) Defaults() {
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewListResponse never returns a null items array.
func NewListResponse[T any](items []T, limit, offset int) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Limit: limit, Offset: offset}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// parseOptionalID parses an optional id field.
func parseOptionalID(field string, s *string) (*id.ID, error) {
	if s == nil {
		return nil, nil
	}
	v, err := id.ParseOptional(*s)
	if err != nil {
		return nil, invalidField(field, "must be a UUID")
	}
	return v, nil
}
