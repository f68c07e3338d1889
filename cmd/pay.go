package cmd

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"split-pay/config"
	"split-pay/pkg/cctp"
	"split-pay/pkg/client"
	"split-pay/pkg/parser"
	"split-pay/pkg/types"
	"split-pay/pkg/wallet"
)

var (
	payFromChain string
	payToChain   string
	payAs        string
	payNoConfirm bool
)

var payCmd = &cobra.Command{
	Use:   "pay <group-id>",
	Short: "Pay your share of a group's expenses through the relayer",
	Long: `Pay every unpaid item assigned to you in an expense group. The total is
burned on your chain and handed to the relayer, which completes the mint to
the group owner on the destination chain and marks the items paid.

Examples:
  split-pay pay 42
  split-pay pay 42 --from-chain fuji --to-chain sepolia
  split-pay pay 42 --yes`,
	Args: cobra.ExactArgs(1),
	Run:  runPay,
}

func init() {
	rootCmd.AddCommand(payCmd)

	payCmd.Flags().StringVar(&payFromChain, "from-chain", "", "Source chain (defaults to configured default)")
	payCmd.Flags().StringVar(&payToChain, "to-chain", "", "Destination chain (defaults to configured default)")
	payCmd.Flags().StringVar(&payAs, "payer", "", "Payer address to settle for (defaults to your wallet)")
	payCmd.Flags().BoolVarP(&payNoConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runPay(cmd *cobra.Command, args []string) {
	groupID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		printError(fmt.Errorf("invalid group id %q", args[0]))
		os.Exit(1)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	sourceName := payFromChain
	if sourceName == "" {
		sourceName = cfg.DefaultSourceChain
	}
	destName := payToChain
	if destName == "" {
		destName = cfg.DefaultDestChain
	}

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

	logger := newLogger(verbose)

	sourceWallet, err := wallet.NewEVMWallet(sourceName, sourceChain, &logger)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	pair := wallet.NewPair(sourceWallet, nil)
	defer pair.Close()

	payer := payAs
	if payer == "" {
		payer = sourceWallet.Address()
	}

	groups := client.NewGroupsClient(cfg.BackendBaseURL, &logger)
	ctx := context.Background()

	group, err := groups.GetGroup(ctx, groupID, sourceChain.ChainID)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	items := group.UnpaidItemsFor(payer)
	if len(items) == 0 {
		printSuccess(fmt.Sprintf("Nothing to pay in %q -- all of your items are settled.", group.Name))
		return
	}

	total := types.TotalOwed(items)
	transfer := &types.TransferRequest{
		SourceChain:          sourceName,
		DestinationChain:     destName,
		SourceDomain:         sourceChain.Domain,
		DestinationDomain:    destChain.Domain,
		TokenContract:        sourceChain.USDC,
		BridgeContract:       sourceChain.TokenMessenger,
		MessageTransmitter:   destChain.MessageTransmitter,
		Amount:               total,
		MaxFee:               relayMaxFee(total),
		DestinationAddress:   group.Owner,
		MinFinalityThreshold: cctp.FinalityThresholdFast,
		Method:               types.SettleRelay,
		GroupID:              groupID,
		ItemIDs:              types.ItemIDs(items),
	}

	if !jsonOutput {
		displayBill(group, items, total, transfer)
	}
	if !payNoConfirm && !jsonOutput {
		if !confirmSettlement() {
			fmt.Println("\nPayment cancelled.")
			os.Exit(0)
		}
	}

	attestations := client.NewAttestationClient(cfg.AttestationBaseURL, &logger)
	relayer := client.NewRelayerClient(cfg.RelayerBaseURL, &logger)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	onEvent, done := settlementEvents(s, jsonOutput)
	if !jsonOutput {
		s.Suffix = " Submitting payment..."
		s.Start()
	}

	orch := cctp.NewOrchestrator(pair, attestations, relayer, cctp.Options{
		ApproveMultiplier: cfg.ApproveMultiplier,
		ConfirmTimeout:    cfg.ConfirmTimeout,
		PollInterval:      cfg.PollInterval,
		PollMaxWait:       cfg.PollMaxWait,
		Logger:            &logger,
		OnEvent:           onEvent,
	})

	if err := orch.Submit(ctx, transfer); err != nil {
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

	if final.Err != nil {
		if jsonOutput {
			printSettlementJSON(transfer, state, final.Err)
		} else {
			displaySettlementResult(transfer, state, final.Err)
		}
		os.Exit(1)
	}

	// The relayer completes the mint; mark the items paid on the backend so
	// the group reflects the settlement immediately.
	if err := markItemsPaid(ctx, groups, group, transfer.ItemIDs, payer); err != nil {
		logger.Warn().Err(err).Msg("failed to mark items paid")
	}

	if jsonOutput {
		printSettlementJSON(transfer, state, nil)
		return
	}

	color.Green("\nPayment complete!")
	fmt.Printf("  Burn Tx:  %s\n", color.HiBlackString(state.BurnTxHash))
	fmt.Printf("\n  %s USDC settled to %s for %d item(s) in %q\n\n",
		parser.FormatAmount(total, usdcDecimals),
		group.Owner,
		len(items),
		group.Name)
}

// relayMaxFee derives the bridge fee cap for relayed payments: 1% of the
// total, but always at least one smallest unit and strictly below the amount.
func relayMaxFee(amount *big.Int) *big.Int {
	fee := new(big.Int).Div(amount, big.NewInt(100))
	if fee.Sign() == 0 {
		fee.SetInt64(1)
	}
	if fee.Cmp(amount) >= 0 {
		fee = new(big.Int).Sub(amount, big.NewInt(1))
	}
	return fee
}

func markItemsPaid(ctx context.Context, groups *client.GroupsClient, group *types.Group, paidIDs []int64, payer string) error {
	paid := make(map[int64]bool, len(paidIDs))
	for _, id := range paidIDs {
		paid[id] = true
	}
	for i := range group.Items {
		if paid[group.Items[i].ID] {
			group.Items[i].HasPaid = true
			group.Items[i].Payer = payer
		}
	}
	return groups.UpdateItems(ctx, group.ID, group.Items)
}

func displayBill(group *types.Group, items []types.Item, total *big.Int, transfer *types.TransferRequest) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                      YOUR SHARE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Group:   %s (#%d)\n", group.Name, group.ID)
	fmt.Printf("  Owner:   %s\n\n", color.CyanString(group.Owner))

	for _, item := range items {
		fmt.Printf("  %-30s  %s USDC\n",
			item.Name,
			parser.FormatAmount(big.NewInt(item.Price), usdcDecimals))
	}

	fmt.Println("  " + strings.Repeat("-", 50))
	fmt.Printf("  %-30s  %s %s\n", "Total", parser.FormatAmount(total, usdcDecimals), color.YellowString("USDC"))
	fmt.Printf("\n  Route:   %s -> %s (via relayer)\n", transfer.SourceChain, transfer.DestinationChain)

	fmt.Println("\n" + strings.Repeat("=", 60))
}
