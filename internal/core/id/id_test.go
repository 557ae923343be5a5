package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptional(t *testing.T) {
	v, err := ParseOptional("")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ParseOptional("not-a-uuid")
	assert.Error(t, err)

	want := New()
	v, err = ParseOptional(want.String())
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, want, *v)
}
