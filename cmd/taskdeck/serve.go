package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/store"
)

var (
	listenAddr   string
	dbPath       string
	timeTracking bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the TaskDeck server",
	Long:  `Starts the TaskDeck server which provides the HTTP API and the web client.`,
	RunE:  runServe,
}

func init() {
	defaults := config.FromEnv()

	serveCmd.Flags().StringVar(&listenAddr, "listen", defaults.Addr, "Listen address for the API server")
	serveCmd.Flags().StringVar(&dbPath, "db", defaults.DBPath, "Path to SQLite database")
	serveCmd.Flags().BoolVar(&timeTracking, "time-tracking", defaults.TimeTracking, "Enable time tracking endpoints")
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Println("Starting TaskDeck server...")

	s, err := store.New(dbPath)
	if err != nil {
		return err
	}

	service := api.NewService(s, timeTracking)
	server := api.NewServer(service, s, listenAddr)

	if timeTracking {
		log.Println("Time tracking enabled")
	}
	log.Printf("Listening on http://%s", listenAddr)

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-serverErr:
		if err != nil {
			log.Printf("Server error: %v", err)
			s.Close()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Closing database connection...")
	if err := s.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}
