package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_SaltedPerCall(t *testing.T) {
	h1, err := HashPassword("p1")
	require.NoError(t, err)
	h2, err := HashPassword("p1")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.NotContains(t, h1, "p1")
	assert.True(t, CheckPassword(h1, "p1"))
	assert.True(t, CheckPassword(h2, "p1"))
}

func TestCheckPassword_Mismatch(t *testing.T) {
	h, err := HashPassword("p1")
	require.NoError(t, err)

	assert.False(t, CheckPassword(h, "wrong"))
	assert.False(t, CheckPassword(h, ""))
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	assert.False(t, CheckPassword("", "p1"))
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "p1"))
	assert.False(t, CheckPassword("$2a$10$short", "p1"))
}
