package secret

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	box := NewBox("passphrase")
	sealed, err := box.Seal("ghp_token")
	require.NoError(t, err)
	require.NotEqual(t, "ghp_token", sealed)

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "ghp_token", plain)
}

func TestOpenWithWrongKey(t *testing.T) {
	sealed, err := NewBox("a").Seal("ghp_token")
	require.NoError(t, err)
	_, err = NewBox("b").Open(sealed)
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestEmptyTokenStaysEmpty(t *testing.T) {
	box := NewBox("a")
	sealed, err := box.Seal("")
	require.NoError(t, err)
	require.Empty(t, sealed)
	plain, err := box.Open("")
	require.NoError(t, err)
	require.Empty(t, plain)
}
