package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/questify/internal/client"
	"github.com/spf13/cobra"
)

var questsCmd = &cobra.Command{
	Use:   "quests",
	Short: "Quest definitions and assignments",
	RunE:  runQuestsMine,
}

var questsCatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List quest definitions",
	RunE:  runQuestsCatalog,
}

var questsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a quest definition",
	RunE:  runQuestsCreate,
}

var questsAssignCmd = &cobra.Command{
	Use:   "assign [quest-id]",
	Short: "Assign a quest to the adventurer",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuestsAssign,
}

var questsCompleteCmd = &cobra.Command{
	Use:   "complete [assignment-id]",
	Short: "Complete an assigned quest and queue its reward",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuestsComplete,
}

var questDraft client.Quest

func init() {
	questsCmd.AddCommand(questsCatalogCmd, questsCreateCmd, questsAssignCmd, questsCompleteCmd)

	questsCreateCmd.Flags().StringVar(&questDraft.Label, "label", "", "Quest label (required)")
	questsCreateCmd.Flags().StringVar(&questDraft.ID, "id", "", "Quest id (derived from the label when empty)")
	questsCreateCmd.Flags().StringVar(&questDraft.Description, "desc", "", "Markdown description")
	questsCreateCmd.Flags().IntVar(&questDraft.RewardXP, "xp", 0, "Reward xp")
	questsCreateCmd.Flags().IntVar(&questDraft.RewardGold, "gold", 0, "Reward gold")
	questsCreateCmd.Flags().StringVar(&questDraft.CompletionMessage, "message", "", "Message shown on completion")
	questsCreateCmd.MarkFlagRequired("label")
}

func runQuestsMine(cmd *cobra.Command, args []string) error {
	items, err := newClient().ListUserQuests(cmd.Context(), userID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No quests assigned")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tQUEST\tREWARD")
	for _, uq := range items {
		fmt.Fprintf(w, "%s\t%d\t%s\t%d gold / %d xp\n",
			checkbox(uq.IsDone), uq.ID, truncate(uq.Quest.Label, 40), uq.Quest.RewardGold, uq.Quest.RewardXP)
	}
	return w.Flush()
}

func runQuestsCatalog(cmd *cobra.Command, args []string) error {
	quests, err := newClient().ListQuests(cmd.Context())
	if err != nil {
		return err
	}
	if len(quests) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No quests defined")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tGOLD\tXP")
	for _, q := range quests {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", q.ID, truncate(q.Label, 40), q.RewardGold, q.RewardXP)
	}
	return w.Flush()
}

func runQuestsCreate(cmd *cobra.Command, args []string) error {
	quest, err := newClient().CreateQuest(cmd.Context(), questDraft)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created quest: %s\n", quest.ID)
	return nil
}

func runQuestsAssign(cmd *cobra.Command, args []string) error {
	uq, err := newClient().AssignQuest(cmd.Context(), userID, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s as #%d\n", uq.Quest.Label, uq.ID)
	return nil
}

func runQuestsComplete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid assignment id %q", args[0])
	}
	out, err := newClient().CompleteQuest(cmd.Context(), userID, uint(id))
	if err != nil {
		return err
	}
	if !out.Completed {
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("quest was already complete"))
		return nil
	}
	if out.Message != "" {
		fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render(out.Message))
	}
	if pr := out.PendingReward; pr != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Reward queued: %s (%s gold); claim it with `questctl rewards claim`\n",
			pr.Label, goldStyle.Render(strconv.Itoa(pr.Gold)))
	}
	return nil
}
