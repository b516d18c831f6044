package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/questify/internal/client"
	"github.com/spf13/cobra"
)

var rewardsCmd = &cobra.Command{
	Use:   "rewards",
	Short: "Pending rewards",
	RunE:  runRewardsList,
}

var rewardsClaimCmd = &cobra.Command{
	Use:   "claim [reward-id]",
	Short: "Claim one pending reward, or all of them without an id",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRewardsClaim,
}

var rewardsDiscardCmd = &cobra.Command{
	Use:   "discard [reward-id]",
	Short: "Discard a pending reward",
	Args:  cobra.ExactArgs(1),
	RunE:  runRewardsDiscard,
}

func init() {
	rewardsCmd.AddCommand(rewardsClaimCmd, rewardsDiscardCmd)
}

func runRewardsList(cmd *cobra.Command, args []string) error {
	rewards, err := newClient().ListPendingRewards(cmd.Context(), userID)
	if err != nil {
		return err
	}
	if len(rewards) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No pending rewards")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tGOLD\tXP\tSOURCE")
	for _, r := range rewards {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", truncate(r.ID, 24), truncate(r.Label, 40), r.Gold, r.XP, r.Source)
	}
	return w.Flush()
}

func runRewardsClaim(cmd *cobra.Command, args []string) error {
	c := newClient()
	var (
		out *client.ClaimOutcome
		err error
	)
	if len(args) == 1 {
		out, err = c.ClaimReward(cmd.Context(), userID, args[0])
	} else {
		out, err = c.ClaimAllRewards(cmd.Context(), userID)
	}
	if err != nil {
		return err
	}

	if !out.Claimed {
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("nothing to claim"))
		return nil
	}
	for _, r := range out.Rewards {
		fmt.Fprintf(cmd.OutOrStdout(), "Claimed %s: +%d gold\n", r.Label, r.Gold)
	}
	fmt.Fprint(cmd.OutOrStdout(), renderEconomy(out.Economy))
	return nil
}

func runRewardsDiscard(cmd *cobra.Command, args []string) error {
	if err := newClient().DiscardReward(cmd.Context(), userID, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Discarded %s\n", args[0])
	return nil
}
