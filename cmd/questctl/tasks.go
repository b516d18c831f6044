package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/questify/internal/client"
	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTasksList,
}

var tasksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new task",
	RunE:  runTasksAdd,
}

var tasksToggleCmd = &cobra.Command{
	Use:   "toggle [task-id...]",
	Short: "Toggle tasks done/undone",
	Long:  "Toggle one or more tasks. The board is updated locally first and the commands are sent in order; a rejected command is rolled back.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTasksToggle,
}

var tasksPomodoroCmd = &cobra.Command{
	Use:   "pomodoro [task-id]",
	Short: "Record a finished focus session",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksPomodoro,
}

var tasksRemoveCmd = &cobra.Command{
	Use:   "rm [task-id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksRemove,
}

var (
	taskDraft    client.TaskDraft
	focusMinutes int
)

func init() {
	tasksCmd.AddCommand(tasksListCmd, tasksAddCmd, tasksToggleCmd, tasksPomodoroCmd, tasksRemoveCmd)

	tasksAddCmd.Flags().StringVar(&taskDraft.Title, "title", "", "Task title (required)")
	tasksAddCmd.Flags().StringVar(&taskDraft.ID, "id", "", "Task id (generated when empty)")
	tasksAddCmd.Flags().StringVar(&taskDraft.Type, "type", "To-Do", "Task type (Habit, Daily, To-Do)")
	tasksAddCmd.Flags().StringVar(&taskDraft.Category, "category", "STR", "Category (STR, DEX, INT, WIS, CHA)")
	tasksAddCmd.Flags().StringVar(&taskDraft.Difficulty, "difficulty", "Easy", "Difficulty (Trivial, Easy, Medium, Hard, Epic)")
	tasksAddCmd.Flags().StringVar(&taskDraft.DueAt, "due", "", "Due date (YYYY-MM-DD or RFC3339)")
	tasksAddCmd.Flags().IntVar(&taskDraft.PomsEstimate, "poms", 0, "Estimated pomodoros")
	tasksAddCmd.MarkFlagRequired("title")

	tasksPomodoroCmd.Flags().IntVar(&focusMinutes, "minutes", 25, "Focus minutes")
}

func runTasksList(cmd *cobra.Command, args []string) error {
	tasks, err := newClient().ListTasks(cmd.Context(), userID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tTITLE\tTYPE\tCAT\tDIFFICULTY\tPOMS\tDUE")
	for _, t := range tasks {
		due := ""
		if t.DueAt != nil {
			due = *t.DueAt
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			checkbox(t.Done), truncate(t.ID, 12), truncate(t.Title, 40), t.Type, t.Category, t.Difficulty,
			t.PomsDone, t.PomsEstimate, due)
	}
	return w.Flush()
}

func runTasksAdd(cmd *cobra.Command, args []string) error {
	task, err := newClient().CreateTask(cmd.Context(), userID, taskDraft)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created task: %s (%s)\n", task.ID, task.Title)
	return nil
}

func runTasksToggle(cmd *cobra.Command, args []string) error {
	board := client.NewBoard(newClient(), userID)
	if err := board.Refresh(cmd.Context()); err != nil {
		return err
	}
	for _, id := range args {
		if err := board.Toggle(id); err != nil {
			return fmt.Errorf("toggle %s: %w", id, err)
		}
	}

	failed := 0
	for _, r := range board.Flush(cmd.Context()) {
		fmt.Fprintln(cmd.OutOrStdout(), renderResult(r))
		if !r.IsOk() {
			failed++
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), renderEconomy(board.Economy()))
	if failed > 0 {
		return fmt.Errorf("%d of %d commands failed", failed, len(args))
	}
	return nil
}

func runTasksPomodoro(cmd *cobra.Command, args []string) error {
	out, err := newClient().CompletePomodoro(cmd.Context(), userID, args[0], focusMinutes)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pomodoro %d/%d on %s: +%d xp, +%d gold\n",
		out.Task.PomsDone, out.Task.PomsEstimate, out.Task.Title, out.Delta.XP, out.Delta.Gold)
	fmt.Fprint(cmd.OutOrStdout(), renderEconomy(out.Economy))
	return nil
}

func runTasksRemove(cmd *cobra.Command, args []string) error {
	if err := newClient().DeleteTask(cmd.Context(), userID, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[0])
	return nil
}
