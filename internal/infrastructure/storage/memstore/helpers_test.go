package memstore

import (
	"time"

	"opserp/internal/core/id"
	"opserp/internal/core/types"
	"opserp/internal/domain/procurement"
)

func newRequest() *procurement.PurchaseRequest {
	now := time.Now()
	return &procurement.PurchaseRequest{
		ID:         id.New(),
		ItemName:   "Drill",
		Quantity:   5,
		Status:     procurement.StatusRequested,
		UnitValue:  types.Zero(),
		TotalValue: types.Zero(),
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    1,
	}
}
