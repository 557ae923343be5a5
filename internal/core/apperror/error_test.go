package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelpers_MatchWrappedErrors(t *testing.T) {
	base := NewInsufficientStock("item-1", 7, 6)
	wrapped := fmt.Errorf("approve: %w", base)

	assert.True(t, IsInsufficientStock(wrapped))
	assert.False(t, IsConflict(wrapped))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(wrapped))

	appErr, ok := AsAppError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, int64(6), appErr.Details["available"])
}

func TestIsInvalidRequest_CoversFamily(t *testing.T) {
	assert.True(t, IsInvalidRequest(NewInvalidRequest("x")))
	assert.True(t, IsInvalidRequest(NewInvalidQuotation("x")))
	assert.True(t, IsInvalidRequest(NewInvalidQuantity("x")))
	assert.False(t, IsInvalidRequest(NewInvalidTransition("A", "B")))
}

func TestIsConflict_IncludesConcurrentModification(t *testing.T) {
	assert.True(t, IsConflict(NewConflict("terminal")))
	assert.True(t, IsConflict(NewConcurrentModification("purchase_request", "1")))
	assert.True(t, IsConcurrentModification(NewConcurrentModification("purchase_request", "1")))
	assert.False(t, IsConcurrentModification(NewConflict("terminal")))
}

func TestGetHTTPStatus_UnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
}

func TestError_IncludesCause(t *testing.T) {
	err := NewInternal(errors.New("disk full"))
	assert.Contains(t, err.Error(), "disk full")
	assert.ErrorIs(t, err, err.Err)
}
