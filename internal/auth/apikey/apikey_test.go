package apikey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardDisabledAcceptsAll(t *testing.T) {
	g := NewGuard("")
	assert.False(t, g.Enabled())
	assert.True(t, g.Validate(""))
	assert.True(t, g.Validate("anything"))
}

func TestGuardValidate(t *testing.T) {
	g := NewGuard("s3cret")
	require.True(t, g.Enabled())

	assert.True(t, g.Validate("s3cret"))
	assert.False(t, g.Validate(""))
	assert.False(t, g.Validate("s3cre"))
	assert.False(t, g.Validate("S3CRET"))
}

func TestGenerateKey(t *testing.T) {
	a, err := GenerateKey()
	require.NoError(t, err)
	b, err := GenerateKey()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Len(t, HashKey(a), 64)
}
