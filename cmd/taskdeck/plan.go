package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/models"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Manage the daily plan",
}

var planShowCmd = &cobra.Command{
	Use:   "show [date]",
	Short: "Show a day's plan (defaults to today)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlanShow,
}

var planAddCmd = &cobra.Command{
	Use:   "add [content]",
	Short: "Add an item to a day's plan",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlanAdd,
}

var planDoneCmd = &cobra.Command{
	Use:   "done [item-id]",
	Short: "Toggle a plan item's done state",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanDone,
}

var planRmCmd = &cobra.Command{
	Use:   "rm [item-id]",
	Short: "Remove a plan item",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanRm,
}

var planDate string

func init() {
	planCmd.AddCommand(planShowCmd, planAddCmd, planDoneCmd, planRmCmd)

	planAddCmd.Flags().StringVar(&planDate, "date", "", "Plan date (YYYY-MM-DD, defaults to today)")
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func runPlanShow(cmd *cobra.Command, args []string) error {
	date := today()
	if len(args) == 1 {
		date = args[0]
	}

	resp, err := apiGet("/api/daily_plans/" + date)
	if err != nil {
		return err
	}

	var day models.PlanDay
	if err := json.Unmarshal(resp, &day); err != nil {
		return err
	}

	fmt.Printf("Plan for %s (%d/%d remaining)\n", day.Date, day.Remaining, day.Total)
	for _, item := range day.Items {
		mark := " "
		if item.Done {
			mark = "x"
		}
		fmt.Printf("  [%s] %s  %s\n", mark, truncateID(item.ID), item.Content)
	}
	return nil
}

func runPlanAdd(cmd *cobra.Command, args []string) error {
	date := planDate
	if date == "" {
		date = today()
	}
	body := map[string]string{"content": strings.Join(args, " ")}

	resp, err := apiPost("/api/daily_plans/"+date+"/items", body)
	if err != nil {
		return err
	}

	var item models.DailyPlanItem
	if err := json.Unmarshal(resp, &item); err != nil {
		return err
	}

	fmt.Printf("Added to %s at position %d\n", item.PlanDate, item.Position)
	return nil
}

func runPlanDone(cmd *cobra.Command, args []string) error {
	resp, err := apiPost("/api/daily_plan_items/"+args[0]+"/toggle", nil)
	if err != nil {
		return err
	}

	var item models.DailyPlanItem
	if err := json.Unmarshal(resp, &item); err != nil {
		return err
	}

	state := "not done"
	if item.Done {
		state = "done"
	}
	fmt.Printf("%s is now %s\n", truncateID(item.ID), state)
	return nil
}

func runPlanRm(cmd *cobra.Command, args []string) error {
	if _, err := apiDelete("/api/daily_plan_items/" + args[0]); err != nil {
		return err
	}

	fmt.Println("Plan item removed")
	return nil
}
