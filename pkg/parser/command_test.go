package parser

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSettleCommand(t *testing.T) {
	tests := []struct {
		input     string
		amount    string
		token     string
		destChain string
	}{
		{"settle 1 USDC to fuji", "1", "USDC", "fuji"},
		{"1.5 USDC to sepolia", "1.5", "USDC", "sepolia"},
		{"SETTLE 100.25 usdc TO FUJI", "100.25", "USDC", "fuji"},
		{"  settle 2 USDC to fuji  ", "2", "USDC", "fuji"},
	}

	for _, tt := range tests {
		req, err := ParseSettleCommand(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		require.Equal(t, tt.amount, req.Amount)
		require.Equal(t, tt.token, req.Token)
		require.Equal(t, tt.destChain, req.DestChain)
	}
}

func TestParseSettleCommandRejectsBadInput(t *testing.T) {
	bad := []string{
		"",
		"settle",
		"settle USDC to fuji",
		"settle 1 USDC fuji",
		"settle -1 USDC to fuji",
		"settle 1 USDC to",
	}
	for _, input := range bad {
		_, err := ParseSettleCommand(input)
		require.Error(t, err, "input %q", input)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"1", 1_000_000},
		{"1.5", 1_500_000},
		{"0.000001", 1},
		{"120", 120_000_000},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.input, 6)
		require.NoError(t, err, "input %q", tt.input)
		require.Equal(t, big.NewInt(tt.want), got)
	}
}

func TestParseAmountRejectsBadInput(t *testing.T) {
	for _, input := range []string{"", "abc", "0", "-1"} {
		_, err := ParseAmount(input, 6)
		require.Error(t, err, "input %q", input)
	}
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "1.500000", FormatAmount(big.NewInt(1_500_000), 6))
	require.Equal(t, "0.000001", FormatAmount(big.NewInt(1), 6))
	require.Equal(t, "0.000000", FormatAmount(big.NewInt(0), 6))
}
