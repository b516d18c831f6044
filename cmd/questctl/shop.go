package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/questify/internal/client"
	"github.com/spf13/cobra"
)

var shopCmd = &cobra.Command{
	Use:   "shop",
	Short: "Browse the shop",
	RunE:  runShopList,
}

var shopBuyCmd = &cobra.Command{
	Use:   "buy [item-id]",
	Short: "Buy a catalog item, or a custom reward with --name/--cost",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShopBuy,
}

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "List owned items",
	RunE:  runInventory,
}

var (
	customName string
	customCost int
)

func init() {
	shopCmd.AddCommand(shopBuyCmd, inventoryCmd)

	shopBuyCmd.Flags().StringVar(&customName, "name", "", "Custom reward name")
	shopBuyCmd.Flags().IntVar(&customCost, "cost", 0, "Custom reward cost in gold")
}

func runShopList(cmd *cobra.Command, args []string) error {
	items, err := newClient().Shop(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCOST\tDESCRIPTION")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.ID, it.Name, goldStyle.Render(fmt.Sprintf("%d", it.Cost)), truncate(it.Description, 50))
	}
	return w.Flush()
}

func runShopBuy(cmd *cobra.Command, args []string) error {
	c := newClient()
	var (
		out *client.PurchaseOutcome
		err error
	)
	switch {
	case len(args) == 1:
		out, err = c.Buy(cmd.Context(), userID, args[0])
	case customName != "":
		out, err = c.BuyCustom(cmd.Context(), userID, customName, customCost)
	default:
		return fmt.Errorf("give an item id or --name and --cost")
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Bought %s for %d gold\n", out.Item.Name, out.Item.Cost)
	fmt.Fprint(cmd.OutOrStdout(), renderEconomy(out.Economy))
	return nil
}

func runInventory(cmd *cobra.Command, args []string) error {
	items, err := newClient().Inventory(cmd.Context(), userID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Inventory is empty")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSOURCE\tVALUE\tACQUIRED")
	for _, it := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", it.ID, truncate(it.Name, 40), it.Source, max(it.GoldValue, it.Cost), it.CreatedAt)
	}
	return w.Flush()
}
