package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskdeck",
	Short: "TaskDeck - personal task tracker",
	Long:  `TaskDeck tracks tasks, free-text updates, time spent and a daily plan, backed by a single SQLite file and served over a local HTTP API.`,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:8321", "API server address")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(timeCmd)
	rootCmd.AddCommand(tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
