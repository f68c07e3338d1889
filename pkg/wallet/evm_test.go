package wallet

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/require"
)

func TestContractABIsParse(t *testing.T) {
	for name, raw := range map[string]string{
		"usdc":               usdcABI,
		"tokenMessenger":     tokenMessengerABI,
		"messageTransmitter": messageTransmitterABI,
	} {
		parsed, err := abi.JSON(strings.NewReader(raw))
		require.NoError(t, err, "abi %s", name)
		require.NotEmpty(t, parsed.Methods, "abi %s", name)
	}
}

func TestDepositForBurnSignature(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(tokenMessengerABI))
	require.NoError(t, err)

	method, ok := parsed.Methods["depositForBurn"]
	require.True(t, ok)
	require.Len(t, method.Inputs, 7)
	require.Equal(t, "uint256", method.Inputs[0].Type.String())
	require.Equal(t, "uint32", method.Inputs[1].Type.String())
	require.Equal(t, "bytes32", method.Inputs[2].Type.String())
	require.Equal(t, "address", method.Inputs[3].Type.String())
	require.Equal(t, "bytes32", method.Inputs[4].Type.String())
	require.Equal(t, "uint256", method.Inputs[5].Type.String())
	require.Equal(t, "uint32", method.Inputs[6].Type.String())
}

func TestAddressFromKey(t *testing.T) {
	// Well-known throwaway key from the ganache defaults
	address, err := AddressFromKey("4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d")
	require.NoError(t, err)
	require.Equal(t, "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1", address)

	// A 0x prefix is tolerated
	address, err = AddressFromKey("0x4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d")
	require.NoError(t, err)
	require.Equal(t, "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1", address)
}

func TestAddressFromKeyRejectsBadInput(t *testing.T) {
	_, err := AddressFromKey("")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not configured")

	_, err = AddressFromKey("not-a-key")
	require.Error(t, err)
}

func TestBytes32FromHex(t *testing.T) {
	value := "0x000000000000000000000000d4f42c1daa53cf5d4e96a1514e91f45c28c2e3ed"
	decoded, err := bytes32FromHex(value)
	require.NoError(t, err)
	require.Equal(t, byte(0x00), decoded[0])
	require.Equal(t, byte(0xd4), decoded[12])
	require.Equal(t, byte(0xed), decoded[31])
}

func TestBytes32FromHexRejectsBadInput(t *testing.T) {
	_, err := bytes32FromHex("0x1234")
	require.Error(t, err)

	_, err = bytes32FromHex("0xzz00000000000000000000000000000000000000000000000000000000000000")
	require.Error(t, err)
}
