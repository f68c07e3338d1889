package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"split-pay/config"
	"split-pay/pkg/cctp"
	"split-pay/pkg/client"
	"split-pay/pkg/history"
	"split-pay/pkg/parser"
	"split-pay/pkg/types"
	"split-pay/pkg/wallet"
)

// usdcDecimals is the smallest-unit scale of USDC on every supported chain
const usdcDecimals = 6

var (
	settleFromChain string
	settleRecipient string
	settleMaxFee    string
	settleNoConfirm bool
)

var settleCmd = &cobra.Command{
	Use:   "settle <amount> <token> to <chain>",
	Short: "Settle an amount to another chain from your own wallet",
	Long: `Settle USDC to another chain using Circle's CCTP bridge. The amount is
burned on the source chain and minted on the destination chain by your own
wallet once Circle attests the burn.

Examples:
  # Settle to your own address on the destination chain
  split-pay settle 1 USDC to fuji

  # Settle to someone else
  split-pay settle 2.5 USDC to sepolia --to 0xRecipient...

  # Skip the confirmation prompt
  split-pay settle 1 USDC to fuji --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSettle,
}

func init() {
	rootCmd.AddCommand(settleCmd)

	settleCmd.Flags().StringVar(&settleFromChain, "from-chain", "", "Source chain (defaults to configured default)")
	settleCmd.Flags().StringVar(&settleRecipient, "to", "", "Recipient address on the destination chain (defaults to your own)")
	settleCmd.Flags().StringVar(&settleMaxFee, "max-fee", "0.01", "Maximum bridge fee in USDC")
	settleCmd.Flags().BoolVarP(&settleNoConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSettle(cmd *cobra.Command, args []string) {
	commandStr := strings.Join(args, " ")
	settleReq, err := parser.ParseSettleCommand(commandStr)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if settleReq.Token != "USDC" {
		printError(fmt.Errorf("unsupported token %s: only USDC settlements are supported", settleReq.Token))
		os.Exit(1)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	sourceName := settleFromChain
	if sourceName == "" {
		sourceName = cfg.DefaultSourceChain
	}
	destName := settleReq.DestChain

	sourceChain, err := cfg.Chain(sourceName)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	destChain, err := cfg.Chain(destName)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if sourceName == destName {
		printError(fmt.Errorf("source and destination chain are both %s", sourceName))
		os.Exit(1)
	}

	amount, err := parser.ParseAmount(settleReq.Amount, usdcDecimals)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	maxFee, err := parser.ParseAmount(settleMaxFee, usdcDecimals)
	if err != nil {
		printError(fmt.Errorf("invalid max fee: %w", err))
		os.Exit(1)
	}

	logger := newLogger(verbose)

	sourceWallet, err := wallet.NewEVMWallet(sourceName, sourceChain, &logger)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	destWallet, err := wallet.NewEVMWallet(destName, destChain, &logger)
	if err != nil {
		sourceWallet.Close()
		printError(err)
		os.Exit(1)
	}
	pair := wallet.NewPair(sourceWallet, destWallet)
	defer pair.Close()

	recipient := settleRecipient
	if recipient == "" {
		recipient = sourceWallet.Address()
	}

	transfer := &types.TransferRequest{
		SourceChain:          sourceName,
		DestinationChain:     destName,
		SourceDomain:         sourceChain.Domain,
		DestinationDomain:    destChain.Domain,
		TokenContract:        sourceChain.USDC,
		BridgeContract:       sourceChain.TokenMessenger,
		MessageTransmitter:   destChain.MessageTransmitter,
		Amount:               amount,
		MaxFee:               maxFee,
		DestinationAddress:   recipient,
		MinFinalityThreshold: cctp.FinalityThresholdFast,
		Method:               types.SettleDirect,
	}

	if !jsonOutput {
		displaySettlement(transfer, settleReq.Amount)
	}
	if !settleNoConfirm && !jsonOutput {
		if !confirmSettlement() {
			fmt.Println("\nSettlement cancelled.")
			os.Exit(0)
		}
	}

	attestations := client.NewAttestationClient(cfg.AttestationBaseURL, &logger)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	onEvent, done := settlementEvents(s, jsonOutput)
	if !jsonOutput {
		s.Suffix = " Submitting settlement..."
		s.Start()
	}

	orch := cctp.NewOrchestrator(pair, attestations, nil, cctp.Options{
		ApproveMultiplier: cfg.ApproveMultiplier,
		ConfirmTimeout:    cfg.ConfirmTimeout,
		PollInterval:      cfg.PollInterval,
		PollMaxWait:       cfg.PollMaxWait,
		Logger:            &logger,
		OnEvent:           onEvent,
	})

	if err := orch.Submit(context.Background(), transfer); err != nil {
		if !jsonOutput {
			s.Stop()
		}
		printError(err)
		os.Exit(1)
	}

	final := <-done
	state := orch.State()
	if !jsonOutput {
		s.Stop()
	}

	recordSettlement(transfer, state, final.Err == nil)

	if jsonOutput {
		printSettlementJSON(transfer, state, final.Err)
	} else {
		displaySettlementResult(transfer, state, final.Err)
	}
	if final.Err != nil {
		os.Exit(1)
	}
}

// recordSettlement appends the attempt to the local history file. History is
// best-effort; a write failure never fails the settlement.
func recordSettlement(transfer *types.TransferRequest, state types.TransferState, succeeded bool) {
	store, err := history.NewStorage("")
	if err != nil {
		return
	}
	status := "complete"
	if !succeeded {
		status = "failed"
	}
	_ = store.Append(history.Record{
		SourceChain:      transfer.SourceChain,
		DestinationChain: transfer.DestinationChain,
		Amount:           transfer.Amount.String(),
		Method:           string(transfer.Method),
		BurnTxHash:       state.BurnTxHash,
		MintTxHash:       state.MintTxHash,
		GroupID:          transfer.GroupID,
		ItemIDs:          transfer.ItemIDs,
		Status:           status,
	})
}

func displaySettlement(transfer *types.TransferRequest, displayAmount string) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                      SETTLEMENT")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Amount:            %s %s\n", displayAmount, color.YellowString("USDC"))
	fmt.Printf("  From:              %s\n", transfer.SourceChain)
	fmt.Printf("  To:                %s\n", transfer.DestinationChain)
	fmt.Printf("  Recipient:         %s\n", color.CyanString(transfer.DestinationAddress))
	fmt.Printf("  Max Bridge Fee:    %s USDC\n", parser.FormatAmount(transfer.MaxFee, usdcDecimals))
	fmt.Printf("  Method:            %s\n", transfer.Method)

	fmt.Println("\n" + strings.Repeat("=", 60))
}

func displaySettlementResult(transfer *types.TransferRequest, state types.TransferState, terr *types.TransferError) {
	if terr != nil {
		color.Red("\nSettlement failed: %v", terr)
		if state.BurnTxHash != "" {
			fmt.Printf("  Burn Tx:  %s\n", color.HiBlackString(state.BurnTxHash))
			fmt.Println("  The burn confirmed; the transfer can be completed once the attestation is available:")
			color.Cyan("    split-pay status %s --watch\n", state.BurnTxHash)
		}
		return
	}

	color.Green("\nSettlement complete!")
	fmt.Printf("  Approve Tx:  %s\n", color.HiBlackString(state.ApproveTxHash))
	fmt.Printf("  Burn Tx:     %s\n", color.HiBlackString(state.BurnTxHash))
	fmt.Printf("  Mint Tx:     %s\n", color.HiBlackString(state.MintTxHash))
	fmt.Printf("\n  %s USDC settled to %s on %s\n\n",
		parser.FormatAmount(transfer.Amount, usdcDecimals),
		transfer.DestinationAddress,
		transfer.DestinationChain)
}

func printSettlementJSON(transfer *types.TransferRequest, state types.TransferState, terr *types.TransferError) {
	output := map[string]interface{}{
		"source_chain":      transfer.SourceChain,
		"destination_chain": transfer.DestinationChain,
		"amount":            transfer.Amount.String(),
		"method":            string(transfer.Method),
		"approve_tx_hash":   state.ApproveTxHash,
		"burn_tx_hash":      state.BurnTxHash,
		"mint_tx_hash":      state.MintTxHash,
		"status":            "complete",
	}
	if terr != nil {
		output["status"] = "failed"
		output["error"] = terr.Error()
		output["failure_code"] = string(terr.Code)
	}
	jsonData, _ := json.MarshalIndent(output, "", "  ")
	fmt.Println(string(jsonData))
}

func confirmSettlement() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with settlement? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
