package main

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/store"
)

func TestCheckHealth(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer st.Close()

	srv := api.NewServer(api.NewService(st, false), st, "127.0.0.1:0")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	oldAddr := apiAddr
	apiAddr = ts.URL
	defer func() { apiAddr = oldAddr }()

	health, err := CheckHealth()
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.OK {
		t.Error("Expected ok true")
	}
	if health.DB != "ok" {
		t.Errorf("Expected db ok, got %q", health.DB)
	}
	if health.Version != api.Version {
		t.Errorf("Expected version %s, got %s", api.Version, health.Version)
	}
}

func TestCheckHealthUnreachable(t *testing.T) {
	oldAddr := apiAddr
	apiAddr = "http://127.0.0.1:1"
	defer func() { apiAddr = oldAddr }()

	if _, err := CheckHealth(); err == nil {
		t.Fatal("Expected an error against an unreachable server")
	}
}
