package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"split-pay/config"
	"split-pay/pkg/client"
	"split-pay/pkg/parser"
	"split-pay/pkg/types"
	"split-pay/pkg/wallet"
)

var (
	groupChain   string
	groupJoinAs  string
	groupTitle   string
	groupMembers []string
	groupItems   []string
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Inspect and manage expense groups",
}

var groupShowCmd = &cobra.Command{
	Use:   "show <group-id>",
	Short: "Show a group's items and who still owes",
	Args:  cobra.ExactArgs(1),
	Run:   runGroupShow,
}

var groupInviteCmd = &cobra.Command{
	Use:   "invite <group-id>",
	Short: "Generate an invite code for a group",
	Args:  cobra.ExactArgs(1),
	Run:   runGroupInvite,
}

var groupJoinCmd = &cobra.Command{
	Use:   "join <group-id>",
	Short: "Join an expense group as a member",
	Long: `Join an expense group, registering your address as a member. The group id
is the one carried by the invite link.

Examples:
  split-pay group join 42
  split-pay group join 42 --as 0xYourAddress...`,
	Args: cobra.ExactArgs(1),
	Run:  runGroupJoin,
}

var groupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new expense group",
	Long: `Create an expense group on the backend. Items take the form name=price,
with the price in USDC.

Example:
  split-pay group create --title "Ski trip" \
    --member 0xAlice... --member 0xBob... \
    --item "Cabin=120" --item "Lift tickets=85.50"`,
	Run: runGroupCreate,
}

func init() {
	rootCmd.AddCommand(groupCmd)
	groupCmd.AddCommand(groupShowCmd)
	groupCmd.AddCommand(groupInviteCmd)
	groupCmd.AddCommand(groupJoinCmd)
	groupCmd.AddCommand(groupCreateCmd)

	groupCmd.PersistentFlags().StringVar(&groupChain, "chain", "", "Chain context for group lookups (defaults to configured default)")
	groupJoinCmd.Flags().StringVar(&groupJoinAs, "as", "", "Member address to join with (defaults to your configured wallet)")
	groupCreateCmd.Flags().StringVar(&groupTitle, "title", "", "Group title (required)")
	groupCreateCmd.Flags().StringArrayVar(&groupMembers, "member", nil, "Member address (repeatable)")
	groupCreateCmd.Flags().StringArrayVar(&groupItems, "item", nil, "Expense item as name=price (repeatable)")
}

func groupsClient(cmd *cobra.Command) (*client.GroupsClient, *config.Config, int64) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	chainName := groupChain
	if chainName == "" {
		chainName = cfg.DefaultSourceChain
	}
	chain, err := cfg.Chain(chainName)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	logger := newLogger(verbose)
	return client.NewGroupsClient(cfg.BackendBaseURL, &logger), cfg, chain.ChainID
}

func runGroupShow(cmd *cobra.Command, args []string) {
	groupID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		printError(fmt.Errorf("invalid group id %q", args[0]))
		os.Exit(1)
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")

	groups, _, chainID := groupsClient(cmd)
	group, err := groups.GetGroup(context.Background(), groupID, chainID)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(group, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayGroup(group)
}

func runGroupInvite(cmd *cobra.Command, args []string) {
	groupID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		printError(fmt.Errorf("invalid group id %q", args[0]))
		os.Exit(1)
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")

	groups, cfg, chainID := groupsClient(cmd)
	invite, err := groups.GenerateInvite(context.Background(), groupID)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// The join link carries the group and chain ids, the way joiners consume it
	joinLink := fmt.Sprintf("%s/join/%d/%d", strings.TrimSuffix(cfg.BackendBaseURL, "/"), groupID, chainID)

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(map[string]interface{}{
			"inviteCode": invite.InviteCode,
			"expiresAt":  invite.ExpiresAt,
			"joinLink":   joinLink,
		}, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Printf("\nInvite code: %s\n", color.CyanString(invite.InviteCode))
	fmt.Printf("Join link:   %s\n", color.CyanString(joinLink))
	if !invite.ExpiresAt.IsZero() {
		fmt.Printf("Expires:     %s\n", invite.ExpiresAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Println()
}

func runGroupJoin(cmd *cobra.Command, args []string) {
	groupID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		printError(fmt.Errorf("invalid group id %q", args[0]))
		os.Exit(1)
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")

	groups, cfg, chainID := groupsClient(cmd)

	member := groupJoinAs
	if member == "" {
		chainName := groupChain
		if chainName == "" {
			chainName = cfg.DefaultSourceChain
		}
		chain, err := cfg.Chain(chainName)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		member, err = wallet.AddressFromKey(chain.PrivateKey)
		if err != nil {
			printError(fmt.Errorf("cannot determine member address (pass --as): %w", err))
			os.Exit(1)
		}
	}

	if err := groups.Join(context.Background(), groupID, member, chainID); err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(map[string]interface{}{
			"groupId": groupID,
			"member":  member,
			"joined":  true,
		}, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	printSuccess(fmt.Sprintf("Joined group %d as %s", groupID, color.CyanString(member)))
}

func runGroupCreate(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if groupTitle == "" {
		printError(fmt.Errorf("--title is required"))
		os.Exit(1)
	}

	items := make([]types.Item, 0, len(groupItems))
	for _, raw := range groupItems {
		item, err := parseItemFlag(raw)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		items = append(items, item)
	}

	groups, _, _ := groupsClient(cmd)
	id, err := groups.CreateGroup(context.Background(), types.CreateGroupRequest{
		Title:   groupTitle,
		Members: groupMembers,
		Items:   items,
	})
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(map[string]string{"id": id}, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	printSuccess(fmt.Sprintf("Group %q created with id %s", groupTitle, color.CyanString(id)))
}

// parseItemFlag parses a name=price flag value, price in USDC
func parseItemFlag(raw string) (types.Item, error) {
	name, price, found := strings.Cut(raw, "=")
	if !found || name == "" {
		return types.Item{}, fmt.Errorf("invalid item %q: expected name=price", raw)
	}
	units, err := parser.ParseAmount(price, usdcDecimals)
	if err != nil {
		return types.Item{}, fmt.Errorf("invalid price for item %q: %w", name, err)
	}
	if !units.IsInt64() {
		return types.Item{}, fmt.Errorf("price for item %q is out of range", name)
	}
	return types.Item{Name: name, Price: units.Int64()}, nil
}

func displayGroup(group *types.Group) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                           %s", strings.ToUpper(group.Name))
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  ID:      %d\n", group.ID)
	fmt.Printf("  Owner:   %s\n", color.CyanString(group.Owner))
	if len(group.Members) > 0 {
		fmt.Printf("  Members: %s\n", strings.Join(group.Members, ", "))
	}

	fmt.Println("\n  Items")
	fmt.Println("  " + strings.Repeat("-", 60))

	outstanding := new(big.Int)
	for _, item := range group.Items {
		status := color.YellowString("unpaid")
		if item.HasPaid {
			status = color.GreenString("paid")
		} else {
			outstanding.Add(outstanding, big.NewInt(item.Price))
		}
		payer := item.Payer
		if payer == "" {
			payer = "-"
		}
		fmt.Printf("  %-24s %10s USDC  %-8s %s\n",
			item.Name,
			parser.FormatAmount(big.NewInt(item.Price), usdcDecimals),
			status,
			color.HiBlackString(payer))
	}

	fmt.Println("  " + strings.Repeat("-", 60))
	fmt.Printf("  Outstanding: %s USDC\n", parser.FormatAmount(outstanding, usdcDecimals))
	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
