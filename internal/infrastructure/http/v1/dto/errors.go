package dto

import "opserp/internal/core/apperror"

func invalidField(field, message string) error {
	return apperror.NewInvalidRequest(field + " " + message).WithDetail("field", field)
}
