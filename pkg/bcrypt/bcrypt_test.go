package bcrypt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := HashPassword("Secret123")
	require.NoError(t, err)

	assert.True(t, IsHash(hash))
	assert.NoError(t, ComparePassword(hash, "Secret123"))
	assert.ErrorIs(t, ComparePassword(hash, "secret123"), ErrMismatch)
}

func TestCompareRejectsPlaintextColumn(t *testing.T) {
	assert.False(t, IsHash("Secret123"))
	assert.ErrorIs(t, ComparePassword("Secret123", "Secret123"), ErrMalformedHash)
}
