package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opserp/internal/core/id"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService(DefaultTokenConfig("s3cret"))
	actor := &Actor{ID: id.New(), Email: "ana@example.com"}

	token, expiresAt, err := svc.Issue(actor)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor.ID.String(), user.ActorID)
	assert.Equal(t, "ana@example.com", user.Email)
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	actor := &Actor{ID: id.New()}
	other, _, err := NewTokenService(DefaultTokenConfig("other")).Issue(actor)
	require.NoError(t, err)

	svc := NewTokenService(DefaultTokenConfig("s3cret"))
	_, err = svc.ValidateToken(other)
	assert.Error(t, err)

	cfg := DefaultTokenConfig("s3cret")
	cfg.AccessTokenTTL = -time.Minute
	expired, _, err := NewTokenService(cfg).Issue(actor)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.Error(t, err)
}
