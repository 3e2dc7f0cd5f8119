package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/models"
)

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Track time against tasks",
}

var timeStartCmd = &cobra.Command{
	Use:   "start [task-id]",
	Short: "Start a timer on a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTimeStart,
}

var timeStopCmd = &cobra.Command{
	Use:   "stop [task-id]",
	Short: "Stop a task's running timer",
	Args:  cobra.ExactArgs(1),
	RunE:  runTimeStop,
}

var timeTodayCmd = &cobra.Command{
	Use:   "today [task-id]",
	Short: "Show time accrued today, overall or for one task",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTimeToday,
}

func init() {
	timeCmd.AddCommand(timeStartCmd, timeStopCmd, timeTodayCmd)
}

func runTimeStart(cmd *cobra.Command, args []string) error {
	resp, err := apiPost("/api/tasks/"+args[0]+"/time/start", nil)
	if err != nil {
		return err
	}

	var entry models.FeedItem
	if err := json.Unmarshal(resp, &entry); err != nil {
		return err
	}

	fmt.Printf("Timer running since %s\n", entry.StartAt.Local().Format("15:04"))
	return nil
}

func runTimeStop(cmd *cobra.Command, args []string) error {
	resp, err := apiPost("/api/tasks/"+args[0]+"/time/stop", nil)
	if err != nil {
		return err
	}

	var entry models.FeedItem
	if err := json.Unmarshal(resp, &entry); err != nil {
		return err
	}

	var secs int64
	if entry.DurationSeconds != nil {
		secs = *entry.DurationSeconds
	}
	fmt.Printf("Timer stopped: %s\n", formatSeconds(secs))
	return nil
}

func runTimeToday(cmd *cobra.Command, args []string) error {
	path := "/api/time_entries/summary/today"
	if len(args) == 1 {
		path = "/api/tasks/" + args[0] + "/time/summary/today"
	}

	resp, err := apiGet(path)
	if err != nil {
		return err
	}

	var result struct {
		TotalSeconds int64 `json:"total_seconds"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}

	fmt.Println(formatSeconds(result.TotalSeconds))
	return nil
}

func formatSeconds(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
