package cmd

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"split-pay/pkg/history"
	"split-pay/pkg/parser"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past settlements",
	Long: `List settlements recorded on this machine, newest first.

Examples:
  split-pay history
  split-pay history --limit 5
  split-pay history --json`,
	Run: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of records to show")
}

func runHistory(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := history.NewStorage("")
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	records := store.List()
	// Newest first
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if historyLimit > 0 && len(records) > historyLimit {
		records = records[:historyLimit]
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(records) == 0 {
		fmt.Println("\nNo settlements recorded yet.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                              SETTLEMENT HISTORY")
	fmt.Println(strings.Repeat("=", 90))
	fmt.Println()

	for _, record := range records {
		status := color.GreenString("%-8s", record.Status)
		if record.Status != "complete" {
			status = color.RedString("%-8s", record.Status)
		}

		amount, ok := new(big.Int).SetString(record.Amount, 10)
		display := record.Amount
		if ok {
			display = parser.FormatAmount(amount, usdcDecimals)
		}

		fmt.Printf("  %s  %s  %10s USDC  %s -> %s  (%s)\n",
			record.Timestamp.Format("2006-01-02 15:04"),
			status,
			display,
			record.SourceChain,
			record.DestinationChain,
			record.Method)
		if record.BurnTxHash != "" {
			fmt.Printf("      burn: %s\n", color.HiBlackString(record.BurnTxHash))
		}
		if record.MintTxHash != "" {
			fmt.Printf("      mint: %s\n", color.HiBlackString(record.MintTxHash))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 90) + "\n")
}
