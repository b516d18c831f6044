package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/questify/internal/economy"
	"github.com/spf13/cobra"
)

var economyCmd = &cobra.Command{
	Use:   "economy",
	Short: "Show the adventurer's gold, level and stats",
	RunE:  runEconomyShow,
}

var economyAdjustCmd = &cobra.Command{
	Use:   "adjust",
	Short: "Apply a manual gold/xp adjustment",
	RunE:  runEconomyAdjust,
}

var economyLedgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show recent economy changes",
	RunE:  runEconomyLedger,
}

var rolloverCmd = &cobra.Command{
	Use:   "rollover",
	Short: "Run the daily rollover now",
	RunE:  runRollover,
}

var (
	adjustDelta  economy.Delta
	adjustReason string
	adjustKey    string
	ledgerLimit  int
)

func init() {
	economyCmd.AddCommand(economyAdjustCmd, economyLedgerCmd)

	economyAdjustCmd.Flags().IntVar(&adjustDelta.Gold, "gold", 0, "Gold delta")
	economyAdjustCmd.Flags().IntVar(&adjustDelta.XP, "xp", 0, "XP delta")
	economyAdjustCmd.Flags().StringVar(&adjustReason, "reason", "manual", "Ledger reason")
	economyAdjustCmd.Flags().StringVar(&adjustKey, "key", "", "Idempotency key (random when empty)")

	economyLedgerCmd.Flags().IntVar(&ledgerLimit, "limit", 20, "Number of entries")
}

func runEconomyShow(cmd *cobra.Command, args []string) error {
	econ, err := newClient().GetEconomy(cmd.Context(), userID)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), renderEconomy(*econ))
	return nil
}

func runEconomyAdjust(cmd *cobra.Command, args []string) error {
	key := adjustKey
	if key == "" {
		key = uuid.NewString()
	}
	out, err := newClient().ApplyDelta(cmd.Context(), userID, adjustDelta, adjustReason, key)
	if err != nil {
		return err
	}
	if out.Replayed {
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("already applied (key " + key + ")"))
	}
	fmt.Fprint(cmd.OutOrStdout(), renderEconomy(out.Economy))
	return nil
}

func runEconomyLedger(cmd *cobra.Command, args []string) error {
	entries, err := newClient().Ledger(cmd.Context(), userID, ledgerLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No ledger entries")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tREASON\tGOLD\tXP\tSTATS")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%+d\t%+d\t%s\n", e.ID, e.CreatedAt, e.Reason, e.Delta.Gold, e.Delta.XP, statSummary(e.Delta))
	}
	return w.Flush()
}

func statSummary(d economy.Delta) string {
	var parts []string
	for _, s := range []struct {
		name string
		v    int
	}{
		{"STR", d.Strength}, {"DEX", d.Dexterity}, {"INT", d.Intelligence}, {"WIS", d.Wisdom}, {"CHA", d.Charisma},
	} {
		if s.v != 0 {
			parts = append(parts, fmt.Sprintf("%s%+d", s.name, s.v))
		}
	}
	return strings.Join(parts, " ")
}

func runRollover(cmd *cobra.Command, args []string) error {
	out, err := newClient().Rollover(cmd.Context(), userID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rollover %s: %s\n", out.Date, out.Outcome)
	if len(out.Penalized) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Missed dailies: %s (gold %+d, xp %+d)\n", strings.Join(out.Penalized, ", "), out.Penalty.Gold, out.Penalty.XP)
	}
	if out.Reset > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Reset %d dailies\n", out.Reset)
	}
	if out.Economy != nil {
		fmt.Fprint(cmd.OutOrStdout(), renderEconomy(*out.Economy))
	}
	return nil
}
