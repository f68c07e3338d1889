package cmd

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"split-pay/config"
	"split-pay/pkg/client"
	"split-pay/pkg/types"
)

var (
	statusChain   string
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <burn-tx-hash>",
	Short: "Check the attestation status of a burn",
	Long: `Check whether Circle has attested a burn transaction. Once the attestation
is complete, the transfer can be minted on the destination chain.

Examples:
  split-pay status 0x1234...abcd
  split-pay status 0x1234...abcd --chain fuji
  split-pay status 0x1234...abcd --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusChain, "chain", "", "Chain the burn happened on (defaults to configured default)")
	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates continuously")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	txHash := args[0]
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	chainName := statusChain
	if chainName == "" {
		chainName = cfg.DefaultSourceChain
	}
	chain, err := cfg.Chain(chainName)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	logger := newLogger(verbose)
	attestations := client.NewAttestationClient(cfg.AttestationBaseURL, &logger)

	if watchStatus {
		watchAttestation(attestations, chain.Domain, txHash, jsonOutput)
	} else {
		checkAttestation(attestations, chain.Domain, txHash, jsonOutput)
	}
}

func checkAttestation(attestations *client.AttestationClient, domain uint32, txHash string, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking attestation status..."
		s.Start()
	}

	attestation, ready, err := attestations.Attestation(context.Background(), domain, txHash)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		output := map[string]interface{}{
			"tx_hash": txHash,
			"domain":  domain,
			"status":  "pending",
		}
		if ready {
			output["status"] = "complete"
			output["message"] = "0x" + hex.EncodeToString(attestation.Message)
			output["attestation"] = "0x" + hex.EncodeToString(attestation.Signature)
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayAttestation(txHash, attestation, ready)
}

func watchAttestation(attestations *client.AttestationClient, domain uint32, txHash string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching attestation status (Burn Tx: %s)\n", color.CyanString(txHash))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	// Check immediately first
	if checkAndDisplayAttestation(attestations, domain, txHash) {
		return
	}

	// Then check periodically until the attestation is complete
	for range ticker.C {
		if checkAndDisplayAttestation(attestations, domain, txHash) {
			return
		}
	}
}

func checkAndDisplayAttestation(attestations *client.AttestationClient, domain uint32, txHash string) bool {
	attestation, ready, err := attestations.Attestation(context.Background(), domain, txHash)
	if err != nil {
		color.Red("Error: %v", err)
		return false
	}

	displayAttestation(txHash, attestation, ready)
	return ready
}

func displayAttestation(txHash string, attestation *types.Attestation, ready bool) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     ATTESTATION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Burn Tx:  %s\n", color.CyanString(txHash))
	if ready {
		fmt.Printf("  Status:   %s\n", color.GreenString("COMPLETE"))
		fmt.Printf("  Message:  %s\n", color.HiBlackString(truncateHex(attestation.Message)))
		fmt.Printf("  Signature: %s\n", color.HiBlackString(truncateHex(attestation.Signature)))
		fmt.Println("\n  The transfer is ready to be minted on the destination chain.")
	} else {
		fmt.Printf("  Status:   %s\n", color.YellowString("PENDING"))
		fmt.Println("\n  Circle has not attested this burn yet. This usually takes under a minute.")
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func truncateHex(data []byte) string {
	encoded := "0x" + hex.EncodeToString(data)
	if len(encoded) > 40 {
		return encoded[:37] + "..."
	}
	return encoded
}
