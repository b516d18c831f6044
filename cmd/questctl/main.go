package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/questify/internal/client"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "questctl",
	Short:         "questctl - Questify command line client",
	Long:          `questctl talks to a Questify server: manage tasks, watch the economy, run the daily rollover, complete quests and spend gold.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	apiAddr    string
	userID     uint
	apiTimeout time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", envOr("QUESTIFY_API", "http://127.0.0.1:8080"), "API server address")
	rootCmd.PersistentFlags().UintVar(&userID, "user", 1, "Adventurer id")
	rootCmd.PersistentFlags().DurationVar(&apiTimeout, "timeout", client.DefaultTimeout, "Request timeout")

	rootCmd.AddCommand(tasksCmd, economyCmd, rolloverCmd, questsCmd, rewardsCmd, shopCmd, usersCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newClient() *client.Client {
	return client.New(apiAddr, client.WithTimeout(apiTimeout))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}
