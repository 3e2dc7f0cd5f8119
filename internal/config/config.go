// Package config loads server settings from the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Config holds the server settings.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// DBPath is the SQLite database file.
	DBPath string
	// TimeTracking enables the timer endpoints. Off unless explicitly
	// turned on.
	TimeTracking bool
}

// Default returns the built-in settings: loopback listener, database under
// the user's home directory, time tracking off.
func Default() Config {
	return Config{
		Addr:   "127.0.0.1:8321",
		DBPath: defaultDBPath(),
	}
}

// FromEnv loads configuration from environment variables, falling back to
// defaults for anything unset.
func FromEnv() Config {
	cfg := Default()

	if addr := os.Getenv("TASKDECK_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if db := os.Getenv("TASKDECK_DB"); db != "" {
		cfg.DBPath = db
	}
	cfg.TimeTracking = envBool("TASKDECK_TIME_TRACKING")

	return cfg
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "taskdeck.db"
	}
	return filepath.Join(home, ".taskdeck", "taskdeck.db")
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
