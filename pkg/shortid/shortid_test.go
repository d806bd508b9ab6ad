package shortid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for i := 0; i < 50; i++ {
		id, err := New()
		require.NoError(t, err)
		require.True(t, Valid(id), "generated id %q does not match pattern", id)
	}
}

func TestValid(t *testing.T) {
	require.True(t, Valid("1234-5678"))
	require.False(t, Valid("123-5678"))
	require.False(t, Valid("12345678"))
	require.False(t, Valid("abcd-efgh"))
	require.False(t, Valid(""))
}
