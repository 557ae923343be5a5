package procurement

import (
	"fmt"
	"strings"

	"opserp/internal/core/apperror"
	"opserp/internal/domain/quotation"
)

func validateCreate(in CreateInput) error {
	if strings.TrimSpace(in.ItemName) == "" {
		return apperror.NewInvalidRequest("item name is required").WithDetail("field", "itemName")
	}
	if in.Quantity <= 0 {
		return apperror.NewInvalidRequest("quantity must be positive").WithDetail("field", "quantity")
	}
	if len(in.Quotations) == 0 {
		return nil
	}

	hasLink := false
	for i, q := range in.Quotations {
		if err := q.Validate(); err != nil {
			return wrapQuotation(i, err)
		}
		if !q.UnitPrice.IsPositive() {
			return apperror.NewInvalidRequest("every quotation needs a positive unit price").
				WithDetail("quotation", i)
		}
		if strings.TrimSpace(q.Link) != "" {
			hasLink = true
		}
	}
	if !hasLink {
		return apperror.NewInvalidRequest("at least one quotation must carry a link").
			WithDetail("field", "quotations")
	}
	return nil
}

func validateApprove(in ApproveInput) (quotation.Quotation, error) {
	if len(in.Quotations) == 0 {
		return quotation.Quotation{}, apperror.NewInvalidRequest("at least one quotation is required").
			WithDetail("field", "quotations")
	}
	if in.SelectedIndex < 0 || in.SelectedIndex >= len(in.Quotations) {
		return quotation.Quotation{}, apperror.NewInvalidRequest("selected index is out of range").
			WithDetail("selectedIndex", in.SelectedIndex).
			WithDetail("quotations", len(in.Quotations))
	}
	for i, q := range in.Quotations {
		if err := q.Validate(); err != nil {
			return quotation.Quotation{}, wrapQuotation(i, err)
		}
	}
	selected := in.Quotations[in.SelectedIndex]
	if !selected.UnitPrice.IsPositive() {
		return quotation.Quotation{}, apperror.NewInvalidRequest("selected quotation needs a positive unit price").
			WithDetail("selectedIndex", in.SelectedIndex)
	}
	return selected, nil
}

func validateAdvance(in AdvanceInput) error {
	switch in.Target {
	case StatusPending:
		return apperror.NewInvalidRequest("use approve to move a request to PENDENTE")
	case StatusRejected:
		return apperror.NewInvalidRequest("use reject to move a request to REPROVADO")
	case StatusInTransit:
		if in.SubStatus != nil && !in.SubStatus.IsValid() {
			return apperror.NewInvalidRequest(fmt.Sprintf("unknown delivery sub-status %q", *in.SubStatus)).
				WithDetail("field", "subStatus")
		}
	case StatusDelivered:
		if in.SubStatus != nil {
			return apperror.NewInvalidRequest("sub-status only applies to COMPRADO_ACAMINHO").
				WithDetail("field", "subStatus")
		}
		if in.Delivery == nil || in.Delivery.DeliveryDate.IsZero() {
			return apperror.NewInvalidRequest("delivery date is required").
				WithDetail("field", "deliveryDate")
		}
	case StatusRequested:
		// Never a target; the edge check reports it.
	default:
		return apperror.NewInvalidRequest(fmt.Sprintf("unknown status %q", in.Target)).
			WithDetail("field", "target")
	}
	return nil
}

func wrapQuotation(i int, err error) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.WithDetail("quotation", i)
	}
	return fmt.Errorf("quotation %d: %w", i, err)
}
