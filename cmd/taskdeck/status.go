package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server health",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	health, err := CheckHealth()
	if err != nil {
		if health != nil {
			fmt.Printf("Server unhealthy: db=%s version=%s\n", health.DB, health.Version)
		}
		return err
	}

	fmt.Printf("Server OK\n")
	fmt.Printf("  Version: %s\n", health.Version)
	fmt.Printf("  DB:      %s\n", health.DB)
	fmt.Printf("  Time:    %s\n", health.Time)
	return nil
}
