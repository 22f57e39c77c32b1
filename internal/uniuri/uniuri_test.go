package uniuri

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)

	assert.Len(t, a, StdLen)
	assert.NotEqual(t, a, b)
}

func TestPasswordUsesCharset(t *testing.T) {
	p, err := Password()
	require.NoError(t, err)
	require.Len(t, p, PasswordLen)

	for _, c := range []byte(p) {
		assert.True(t, bytes.IndexByte(PasswordChars, c) >= 0, "unexpected %q", c)
	}
}

func TestNewLenChars(t *testing.T) {
	s, err := NewLenChars(0, StdChars)
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = NewLenChars(10, []byte("a"))
	require.ErrorIs(t, err, ErrCharset)

	s, err = NewLenChars(1000, []byte("ab"))
	require.NoError(t, err)
	assert.Len(t, s, 1000)
	assert.Contains(t, s, "a")
	assert.Contains(t, s, "b")

	s, err = NewLen(3)
	require.NoError(t, err)
	assert.Len(t, s, 3)
}
