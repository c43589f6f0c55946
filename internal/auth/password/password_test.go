package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hashed, err := Hash("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hashed, "$2"))

	assert.True(t, Verify("s3cret-pass", hashed))
	assert.False(t, Verify("wrong-pass", hashed))
	assert.False(t, Verify("s3cret-pass", "not-a-hash"))
}

func TestHashRejectsOverlongPassword(t *testing.T) {
	_, err := Hash(strings.Repeat("a", 73))
	require.ErrorIs(t, err, ErrPasswordTooLong)

	assert.False(t, Verify(strings.Repeat("a", 73), ""))
}
