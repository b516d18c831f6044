package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List adventurers",
	RunE:  runUsersList,
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an adventurer",
	RunE:  runUsersAdd,
}

var (
	userName  string
	userEmail string
)

func init() {
	usersCmd.AddCommand(usersAddCmd)

	usersAddCmd.Flags().StringVar(&userName, "name", "", "Display name")
	usersAddCmd.Flags().StringVar(&userEmail, "email", "", "Email (required)")
	usersAddCmd.MarkFlagRequired("email")
}

func runUsersList(cmd *cobra.Command, args []string) error {
	users, err := newClient().ListUsers(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.DisplayName, u.Email)
	}
	return w.Flush()
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	u, err := newClient().CreateUser(cmd.Context(), userName, userEmail)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created adventurer #%d (%s)\n", u.ID, u.DisplayName)
	return nil
}
