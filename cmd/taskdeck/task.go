package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show a task and its feed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskNoteCmd = &cobra.Command{
	Use:   "note [task-id] [content]",
	Short: "Add an update to a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTaskNote,
}

var taskCloseCmd = &cobra.Command{
	Use:   "close [task-id]",
	Short: "Close a task",
	Args:  cobra.ExactArgs(1),
	RunE:  statusSetter(`{"closed":true}`),
}

var taskReopenCmd = &cobra.Command{
	Use:   "reopen [task-id]",
	Short: "Reopen a closed task",
	Args:  cobra.ExactArgs(1),
	RunE:  statusSetter(`{"closed":false}`),
}

var taskWaitCmd = &cobra.Command{
	Use:   "wait [task-id]",
	Short: "Mark a task as waiting on someone else",
	Args:  cobra.ExactArgs(1),
	RunE:  statusSetter(`{"waiting":true}`),
}

var taskResumeCmd = &cobra.Command{
	Use:   "resume [task-id]",
	Short: "Clear a task's waiting state",
	Args:  cobra.ExactArgs(1),
	RunE:  statusSetter(`{"waiting":false}`),
}

var taskRenameCmd = &cobra.Command{
	Use:   "rename [task-id] [title]",
	Short: "Rename a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTaskRename,
}

var taskOutcomeCmd = &cobra.Command{
	Use:   "outcome [task-id] [text]",
	Short: "Set a task's desired outcome (empty text clears it)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskOutcome,
}

var taskRmCmd = &cobra.Command{
	Use:   "rm [task-id]",
	Short: "Delete a task and everything attached to it",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRm,
}

var taskStatusFilter string

func init() {
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskNoteCmd,
		taskCloseCmd, taskReopenCmd, taskWaitCmd, taskResumeCmd,
		taskRenameCmd, taskOutcomeCmd, taskRmCmd)

	taskListCmd.Flags().StringVar(&taskStatusFilter, "status", "", "Filter by status (open, waiting, closed)")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	body := map[string]string{"title": strings.Join(args, " ")}

	resp, err := apiPost("/api/tasks", body)
	if err != nil {
		return err
	}

	var task models.Task
	if err := json.Unmarshal(resp, &task); err != nil {
		return err
	}

	fmt.Printf("Created task: %s\n", task.ID)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/api/tasks")
	if err != nil {
		return err
	}

	var tasks []models.Task
	if err := json.Unmarshal(resp, &tasks); err != nil {
		return err
	}

	if taskStatusFilter != "" {
		filtered := tasks[:0]
		for _, t := range tasks {
			if string(t.Status) == taskStatusFilter {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tLATEST")
	for _, t := range tasks {
		latest := ""
		if t.LatestUpdate != nil {
			latest = truncate(firstLine(*t.LatestUpdate), 50)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", truncateID(t.ID), truncate(t.Title, 40), t.Status, latest)
	}
	w.Flush()
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/api/tasks/" + args[0])
	if err != nil {
		return err
	}

	var task models.Task
	if err := json.Unmarshal(resp, &task); err != nil {
		return err
	}

	fmt.Printf("ID:      %s\n", task.ID)
	fmt.Printf("Title:   %s\n", task.Title)
	fmt.Printf("Status:  %s\n", task.Status)
	if task.DesiredOutcome != "" {
		fmt.Printf("Outcome: %s\n", task.DesiredOutcome)
	}
	if task.WaitingSince != nil {
		fmt.Printf("Waiting: since %s\n", task.WaitingSince.Local().Format("2006-01-02 15:04"))
	}
	if task.ClosedAt != nil {
		fmt.Printf("Closed:  %s\n", task.ClosedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Printf("Created: %s\n", task.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Printf("Updated: %s\n", task.UpdatedAt.Local().Format("2006-01-02 15:04"))

	feedResp, err := apiGet("/api/tasks/" + args[0] + "/updates")
	if err != nil {
		return err
	}

	var feed []models.FeedItem
	if err := json.Unmarshal(feedResp, &feed); err != nil {
		return err
	}
	if len(feed) == 0 {
		return nil
	}

	fmt.Println()
	for _, item := range feed {
		when := item.CreatedAt.Local().Format("2006-01-02 15:04")
		switch item.Type {
		case models.FeedTypeTime:
			dur := "running"
			if item.DurationSeconds != nil {
				dur = fmt.Sprintf("%dm", *item.DurationSeconds/60)
			}
			fmt.Printf("[%s] (time: %s)\n", when, dur)
		default:
			fmt.Printf("[%s] %s\n", when, item.Content)
		}
	}
	return nil
}

func runTaskNote(cmd *cobra.Command, args []string) error {
	body := map[string]string{"content": strings.Join(args[1:], " ")}

	_, err := apiPost("/api/tasks/"+args[0]+"/updates", body)
	if err != nil {
		return err
	}

	fmt.Println("Update added")
	return nil
}

// statusSetter returns a RunE that PATCHes a fixed status body.
func statusSetter(body string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		var payload map[string]interface{}
		json.Unmarshal([]byte(body), &payload)

		resp, err := apiPatch("/api/tasks/"+args[0]+"/status", payload)
		if err != nil {
			return err
		}

		var task models.Task
		if err := json.Unmarshal(resp, &task); err != nil {
			return err
		}

		fmt.Printf("Task %s is now %s\n", truncateID(task.ID), task.Status)
		return nil
	}
}

func runTaskRename(cmd *cobra.Command, args []string) error {
	body := map[string]string{"title": strings.Join(args[1:], " ")}

	_, err := apiPut("/api/tasks/"+args[0], body)
	if err != nil {
		return err
	}

	fmt.Println("Task renamed")
	return nil
}

func runTaskOutcome(cmd *cobra.Command, args []string) error {
	outcome := strings.Join(args[1:], " ")
	body := map[string]string{"desired_outcome": outcome}

	_, err := apiPatch("/api/tasks/"+args[0]+"/outcome", body)
	if err != nil {
		return err
	}

	if outcome == "" {
		fmt.Println("Outcome cleared")
	} else {
		fmt.Println("Outcome set")
	}
	return nil
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	if _, err := apiDelete("/api/tasks/" + args[0]); err != nil {
		return err
	}

	fmt.Printf("Deleted task %s\n", args[0])
	return nil
}

// --- Helpers ---

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
