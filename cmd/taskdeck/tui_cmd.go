package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive TUI",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !isServerRunning() {
		fmt.Println("TaskDeck server not running. Starting background service...")
		if err := startServer(); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	}

	app := tui.New(apiAddr)
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func isServerRunning() bool {
	health, err := CheckHealth()
	return err == nil && health.OK
}

func startServer() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	// Start "taskdeck serve" detached so it survives TUI exit.
	cmd := exec.Command(exe, "serve")
	configureDaemonProc(cmd)

	// Keep the server's output off the TUI screen.
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return err
	}

	fmt.Print("   Waiting for server...")
	for i := 0; i < 20; i++ {
		if isServerRunning() {
			fmt.Println(" Done.")
			return nil
		}
		time.Sleep(250 * time.Millisecond)
		fmt.Print(".")
	}
	fmt.Println(" Timeout!")
	return fmt.Errorf("server started but API not reachable at %s", apiAddr)
}
