package postgres

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_CompressRoundTrip(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	small := AuditEntry{Changes: json.RawMessage(`{"status":"PENDENTE"}`)}
	svc.compress(&small)
	assert.Equal(t, CompressionNone, small.CompressionAlgo)
	assert.Nil(t, small.ChangesCompressed)

	payload := `{"note":"` + strings.Repeat("x", 20*1024) + `"}`
	large := AuditEntry{Changes: json.RawMessage(payload)}
	svc.compress(&large)
	assert.Equal(t, CompressionZstd, large.CompressionAlgo)
	assert.Nil(t, large.Changes)
	assert.Less(t, len(large.ChangesCompressed), len(payload))

	require.NoError(t, svc.decompress(&large))
	assert.JSONEq(t, payload, string(large.Changes))
	assert.Nil(t, large.ChangesCompressed)
}
