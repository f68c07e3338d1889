package cctp

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ZeroBytes32 is the empty destination-caller sentinel: any address may
// submit the destination-chain receive transaction.
const ZeroBytes32 = "0x0000000000000000000000000000000000000000000000000000000000000000"

// FinalityThresholdFast selects the fast transfer path: thresholds at or
// below 1000 attest before hard finality on the source chain.
const FinalityThresholdFast uint32 = 1000

// AddressToBytes32 zero-left-pads a 20-byte hex address into the bytes32
// form the bridge contract expects for mint recipients.
func AddressToBytes32(address string) (string, error) {
	hexPart := strings.TrimPrefix(strings.TrimPrefix(address, "0x"), "0X")
	if len(hexPart) != 40 {
		return "", fmt.Errorf("invalid address %q: expected 20 bytes", address)
	}
	if _, err := hex.DecodeString(hexPart); err != nil {
		return "", fmt.Errorf("invalid address %q: %w", address, err)
	}
	return "0x" + strings.Repeat("0", 24) + strings.ToLower(hexPart), nil
}
