package password

import (
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, Verify("s3cret", hash))
	assert.False(t, Verify("S3cret", hash))
	assert.False(t, Verify("", hash))
}

func TestHashIsSalted(t *testing.T) {
	a, err := Hash("same")
	require.NoError(t, err)

	b, err := Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerifyRejectsEmptyAndBrokenHash(t *testing.T) {
	assert.False(t, Verify("", ""))
	assert.False(t, Verify("anything", ""))
	assert.False(t, Verify("anything", "not-an-argon2-hash"))
}

func TestParamsAreUsed(t *testing.T) {
	params, _, _, err := argon2id.DecodeHash(mustHash(t, "x"))
	require.NoError(t, err)
	assert.Equal(t, Params.Memory, params.Memory)
	assert.Equal(t, Params.Iterations, params.Iterations)
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()

	hash, err := Hash(plain)
	require.NoError(t, err)

	return hash
}
