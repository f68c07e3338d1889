package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"split-pay/config"
)

var chainsCmd = &cobra.Command{
	Use:     "chains",
	Aliases: []string{"list-chains", "ls"},
	Short:   "List configured chains",
	Long: `List the chains the CLI can settle between, including their CCTP domain
and contract addresses.

Examples:
  split-pay chains
  split-pay chains --json`,
	Run: runChains,
}

func init() {
	rootCmd.AddCommand(chainsCmd)
}

func runChains(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	names := make([]string, 0, len(cfg.Chains))
	for name := range cfg.Chains {
		names = append(names, name)
	}
	sort.Strings(names)

	if jsonOutput {
		output := make([]map[string]interface{}, 0, len(names))
		for _, name := range names {
			chain := cfg.Chains[name]
			output = append(output, map[string]interface{}{
				"name":                name,
				"chain_id":            chain.ChainID,
				"domain":              chain.Domain,
				"usdc":                chain.USDC,
				"token_messenger":     chain.TokenMessenger,
				"message_transmitter": chain.MessageTransmitter,
				"key_configured":      chain.PrivateKey != "",
				"rpc_configured":      chain.RPCUrl != "",
			})
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                              CONFIGURED CHAINS")
	fmt.Println(strings.Repeat("=", 90))

	for _, name := range names {
		chain := cfg.Chains[name]

		label := strings.ToUpper(name)
		if name == cfg.DefaultSourceChain {
			label += " (default source)"
		}
		if name == cfg.DefaultDestChain {
			label += " (default destination)"
		}
		color.Cyan("\n%s", label)
		fmt.Println(strings.Repeat("-", 90))

		fmt.Printf("  Chain ID:             %d\n", chain.ChainID)
		fmt.Printf("  CCTP Domain:          %d\n", chain.Domain)
		fmt.Printf("  USDC:                 %s\n", color.HiBlackString(chain.USDC))
		fmt.Printf("  Token Messenger:      %s\n", color.HiBlackString(chain.TokenMessenger))
		fmt.Printf("  Message Transmitter:  %s\n", color.HiBlackString(chain.MessageTransmitter))
		fmt.Printf("  RPC:                  %s\n", readiness(chain.RPCUrl != ""))
		fmt.Printf("  Signing Key:          %s\n", readiness(chain.PrivateKey != ""))
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d chains\n\n", len(names))
}

func readiness(configured bool) string {
	if configured {
		return color.GreenString("configured")
	}
	return color.YellowString("not configured")
}
