package base58

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase58_RoundTrip(t *testing.T) {
	addr, err := DecodeFromString("11111111111111111111111111111111")
	require.NoError(t, err)
	assert.Equal(t, [32]byte{}, addr)
	assert.Equal(t, "11111111111111111111111111111111", Encode(addr[:]))
}

func TestBase58_WrongLength(t *testing.T) {
	_, err := DecodeFromString("abc")
	assert.Error(t, err)
	assert.Panics(t, func() { MustDecodeFromString("abc") })
}
