package parser

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// SettleRequest is a parsed settle command
type SettleRequest struct {
	Amount    string
	Token     string
	DestChain string
}

// ParseSettleCommand parses a natural language settle command
// Examples:
//   - "settle 1 USDC to fuji"
//   - "1.5 USDC to sepolia"
func ParseSettleCommand(command string) (*SettleRequest, error) {
	// Normalize the command
	command = strings.TrimSpace(strings.ToUpper(command))

	// Remove the word "SETTLE" if present at the beginning
	command = strings.TrimPrefix(command, "SETTLE ")

	// Pattern: <amount> <token> TO <chain>
	// Matches: "1 USDC TO FUJI", "1.5 USDC TO SEPOLIA"
	pattern := regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9]+)\s+TO\s+([A-Z0-9]+)$`)

	matches := pattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid settle command format. Expected: 'settle <amount> <token> to <chain>' (e.g., 'settle 1 USDC to fuji')")
	}

	return &SettleRequest{
		Amount:    matches[1],
		Token:     matches[2],
		DestChain: strings.ToLower(matches[3]),
	}, nil
}

// ParseAmount converts a decimal token amount to its smallest unit
func ParseAmount(amount string, decimals int) (*big.Int, error) {
	amountFloat := new(big.Float)
	if _, ok := amountFloat.SetString(amount); !ok {
		return nil, fmt.Errorf("invalid amount format: %s", amount)
	}
	if amountFloat.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be greater than 0")
	}

	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	scaled := new(big.Float).Mul(amountFloat, scale)

	result := new(big.Int)
	scaled.Int(result)
	return result, nil
}

// FormatAmount renders a smallest-unit amount as a decimal string
func FormatAmount(units *big.Int, decimals int) string {
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value := new(big.Float).Quo(new(big.Float).SetInt(units), scale)
	return value.Text('f', decimals)
}
