package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "split-pay",
	Short: "A CLI for settling shared expenses with USDC across chains",
	Long: `split-pay settles group expenses with USDC over Circle's CCTP bridge.
Funds are burned on your chain, attested by Circle, and minted on the
recipient's chain -- either directly from your wallet or through a relayer.

Examples:
  split-pay settle 1 USDC to fuji --to 0xRecipient...
  split-pay pay 42
  split-pay status 0xBurnTxHash...
  split-pay chains`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}

// newLogger builds the CLI logger; verbose enables debug output
func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
