package cctp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressToBytes32(t *testing.T) {
	got, err := AddressToBytes32("0xd4f42C1DaA53Cf5d4E96A1514e91F45c28C2e3eD")
	require.NoError(t, err)
	require.Equal(t, "0x000000000000000000000000d4f42c1daa53cf5d4e96a1514e91f45c28c2e3ed", got)
	require.Len(t, got, 66)
}

func TestAddressToBytes32WithoutPrefix(t *testing.T) {
	got, err := AddressToBytes32("d4f42c1daa53cf5d4e96a1514e91f45c28c2e3ed")
	require.NoError(t, err)
	require.Equal(t, "0x000000000000000000000000d4f42c1daa53cf5d4e96a1514e91f45c28c2e3ed", got)
}

func TestAddressToBytes32RejectsBadInput(t *testing.T) {
	cases := []string{
		"",
		"0x1234",
		"0xZZf42c1daa53cf5d4e96a1514e91f45c28c2e3ed",
		"0xd4f42c1daa53cf5d4e96a1514e91f45c28c2e3ed00", // 21 bytes
	}
	for _, address := range cases {
		_, err := AddressToBytes32(address)
		require.Error(t, err, "address %q", address)
	}
}

func TestZeroBytes32Shape(t *testing.T) {
	require.Len(t, ZeroBytes32, 66)
	decoded, err := AddressToBytes32("0x0000000000000000000000000000000000000000")
	require.NoError(t, err)
	require.Equal(t, ZeroBytes32, decoded)
}
