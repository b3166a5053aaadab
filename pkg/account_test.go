package pkg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAccount(t *testing.T) {
	const checksummed = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

	t.Run("lower case is checksummed", func(t *testing.T) {
		account, err := NormalizeAccount(strings.ToLower(checksummed))
		require.NoError(t, err)
		assert.Equal(t, checksummed, account)
	})
	t.Run("without prefix", func(t *testing.T) {
		account, err := NormalizeAccount(strings.TrimPrefix(checksummed, "0x"))
		require.NoError(t, err)
		assert.Equal(t, checksummed, account)
	})
	t.Run("invalid", func(t *testing.T) {
		for _, input := range []string{"", "0x123", "bbn1qqqq", checksummed + "00"} {
			_, err := NormalizeAccount(input)
			assert.Error(t, err, input)
		}
	})
	t.Run("zero address", func(t *testing.T) {
		_, err := NormalizeAccount("0x0000000000000000000000000000000000000000")
		require.Error(t, err)
	})
}

func TestDeriveReferenceID(t *testing.T) {
	const account = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

	ref := DeriveReferenceID(account, "salt-1")
	assert.Len(t, ref, 66)
	assert.Equal(t, ref, DeriveReferenceID(strings.ToLower(account), "salt-1"))
	assert.NotEqual(t, ref, DeriveReferenceID(account, "salt-2"))
}
