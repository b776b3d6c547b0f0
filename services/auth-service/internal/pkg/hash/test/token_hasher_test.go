package hash_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MedSchedulePlatform/services/auth-service/internal/pkg/hash"
)

func TestTokenHasher_HashAndVerify(t *testing.T) {
	hasher := hash.NewTokenHasher()

	h := hasher.Hash("refresh-token")
	assert.Len(t, h, 64)
	assert.Equal(t, h, hasher.Hash("refresh-token"))
	assert.True(t, hasher.Verify("refresh-token", h))
	assert.False(t, hasher.Verify("other-token", h))
}

func TestTokenHasher_NewOpaqueToken(t *testing.T) {
	hasher := hash.NewTokenHasher()

	first, err := hasher.NewOpaqueToken()
	require.NoError(t, err)
	second, err := hasher.NewOpaqueToken()
	require.NoError(t, err)

	assert.Len(t, first, 43)
	assert.NotEqual(t, first, second)
	assert.NotContains(t, first, "=")
}
