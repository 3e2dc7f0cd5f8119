package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return s
}

func boolPtr(b bool) *bool { return &b }

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	// Verify file was created, including the parent directory
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestTaskCRUD(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	// Create
	task, err := s.CreateTask("Ship the report")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.ID == "" {
		t.Error("Task ID should not be empty")
	}
	if task.Status != models.TaskStatusOpen {
		t.Errorf("Expected status open, got %s", task.Status)
	}

	// Get
	got, err := s.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetTask returned nil for existing task")
	}
	if got.Title != "Ship the report" {
		t.Errorf("Expected title 'Ship the report', got %s", got.Title)
	}
	if !got.CreatedAt.Equal(task.CreatedAt) {
		t.Errorf("CreatedAt changed across read: %v vs %v", got.CreatedAt, task.CreatedAt)
	}

	// Get missing
	missing, err := s.GetTask("no-such-id")
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for missing task")
	}

	// Rename
	renamed, err := s.RenameTask(task.ID, "Ship the Q3 report")
	if err != nil {
		t.Fatalf("RenameTask failed: %v", err)
	}
	if renamed.Title != "Ship the Q3 report" {
		t.Errorf("Expected renamed title, got %s", renamed.Title)
	}

	// Delete
	ok, err := s.DeleteTask(task.ID)
	if err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if !ok {
		t.Error("DeleteTask reported no row deleted")
	}
	ok, err = s.DeleteTask(task.ID)
	if err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if ok {
		t.Error("Second DeleteTask should report nothing deleted")
	}
}

func TestSetDesiredOutcome(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, err := s.CreateTask("Renew passport")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	updated, err := s.SetDesiredOutcome(task.ID, "New passport in hand")
	if err != nil {
		t.Fatalf("SetDesiredOutcome failed: %v", err)
	}
	if updated.DesiredOutcome != "New passport in hand" {
		t.Errorf("Expected outcome set, got %q", updated.DesiredOutcome)
	}

	// Empty clears
	cleared, err := s.SetDesiredOutcome(task.ID, "")
	if err != nil {
		t.Fatalf("SetDesiredOutcome failed: %v", err)
	}
	if cleared.DesiredOutcome != "" {
		t.Errorf("Expected outcome cleared, got %q", cleared.DesiredOutcome)
	}

	// Missing task
	none, err := s.SetDesiredOutcome("no-such-id", "x")
	if err != nil {
		t.Fatalf("SetDesiredOutcome failed: %v", err)
	}
	if none != nil {
		t.Error("Expected nil for missing task")
	}
}

func TestStatusTransitions(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, err := s.CreateTask("Chase invoice")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	// open -> closed
	got, err := s.SetTaskStatus(task.ID, boolPtr(true), nil)
	if err != nil {
		t.Fatalf("SetTaskStatus failed: %v", err)
	}
	if got.Status != models.TaskStatusClosed {
		t.Errorf("Expected closed, got %s", got.Status)
	}
	if got.ClosedAt == nil {
		t.Error("ClosedAt should be set on a closed task")
	}
	if got.WaitingSince != nil {
		t.Error("WaitingSince must be nil on a closed task")
	}

	// closed -> waiting (waiting=true overrides)
	got, err = s.SetTaskStatus(task.ID, nil, boolPtr(true))
	if err != nil {
		t.Fatalf("SetTaskStatus failed: %v", err)
	}
	if got.Status != models.TaskStatusWaiting {
		t.Errorf("Expected waiting, got %s", got.Status)
	}
	if got.ClosedAt != nil {
		t.Error("ClosedAt must be nil on a waiting task")
	}
	if got.WaitingSince == nil {
		t.Error("WaitingSince should be set on a waiting task")
	}

	// closed=false on a waiting task is a no-op for the state
	got, err = s.SetTaskStatus(task.ID, boolPtr(false), nil)
	if err != nil {
		t.Fatalf("SetTaskStatus failed: %v", err)
	}
	if got.Status != models.TaskStatusWaiting {
		t.Errorf("closed=false must not touch a waiting task, got %s", got.Status)
	}

	// waiting=false reopens
	got, err = s.SetTaskStatus(task.ID, nil, boolPtr(false))
	if err != nil {
		t.Fatalf("SetTaskStatus failed: %v", err)
	}
	if got.Status != models.TaskStatusOpen {
		t.Errorf("Expected open, got %s", got.Status)
	}
	if got.ClosedAt != nil || got.WaitingSince != nil {
		t.Error("Open task must carry neither ClosedAt nor WaitingSince")
	}
}

func TestListTasksOrderAndPreview(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	first, err := s.CreateTask("First")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	clock = clock.Add(time.Minute)
	second, err := s.CreateTask("Second")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	tasks, err := s.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != second.ID {
		t.Error("Most recently touched task should come first")
	}
	if tasks[0].LatestUpdate != nil {
		t.Error("Task without updates must have a nil preview")
	}

	// An update to the older task moves it to the top and sets its preview
	clock = clock.Add(time.Minute)
	if _, err := s.AddUpdate(first.ID, "called them, no answer"); err != nil {
		t.Fatalf("AddUpdate failed: %v", err)
	}

	tasks, err = s.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if tasks[0].ID != first.ID {
		t.Error("Task with the newest update should come first")
	}
	if tasks[0].LatestUpdate == nil || *tasks[0].LatestUpdate != "called them, no answer" {
		t.Errorf("Expected preview of latest update, got %v", tasks[0].LatestUpdate)
	}
	if tasks[0].LatestAt == nil || !tasks[0].LatestAt.Equal(clock) {
		t.Errorf("Expected LatestAt %v, got %v", clock, tasks[0].LatestAt)
	}
}

func TestUpdateLifecycle(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	task, err := s.CreateTask("Write minutes")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	u1, err := s.AddUpdate(task.ID, "drafted outline")
	if err != nil {
		t.Fatalf("AddUpdate failed: %v", err)
	}
	clock = clock.Add(time.Minute)
	u2, err := s.AddUpdate(task.ID, "sent for review")
	if err != nil {
		t.Fatalf("AddUpdate failed: %v", err)
	}

	// List newest first
	updates, err := s.ListUpdates(task.ID)
	if err != nil {
		t.Fatalf("ListUpdates failed: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("Expected 2 updates, got %d", len(updates))
	}
	if updates[0].ID != u2.ID {
		t.Error("Newest update should come first")
	}

	// Edit keeps the timestamp
	edited, err := s.EditUpdate(u1.ID, "drafted full outline")
	if err != nil {
		t.Fatalf("EditUpdate failed: %v", err)
	}
	if edited.Content != "drafted full outline" {
		t.Errorf("Expected edited content, got %q", edited.Content)
	}
	if !edited.CreatedAt.Equal(u1.CreatedAt) {
		t.Error("Editing must not move the update's created_at")
	}

	// Deleting the latest reverts the preview to the previous update
	ok, err := s.DeleteUpdate(u2.ID)
	if err != nil {
		t.Fatalf("DeleteUpdate failed: %v", err)
	}
	if !ok {
		t.Error("DeleteUpdate reported no row deleted")
	}
	latest, err := s.LatestUpdate(task.ID)
	if err != nil {
		t.Fatalf("LatestUpdate failed: %v", err)
	}
	if latest == nil || latest.ID != u1.ID {
		t.Error("Preview should fall back to the remaining update")
	}

	// Deleting the last update leaves no preview
	if _, err := s.DeleteUpdate(u1.ID); err != nil {
		t.Fatalf("DeleteUpdate failed: %v", err)
	}
	latest, err = s.LatestUpdate(task.ID)
	if err != nil {
		t.Fatalf("LatestUpdate failed: %v", err)
	}
	if latest != nil {
		t.Error("Expected no latest update after deleting everything")
	}
}

func TestDeleteTaskCascades(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, err := s.CreateTask("Throwaway")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	update, err := s.AddUpdate(task.ID, "some note")
	if err != nil {
		t.Fatalf("AddUpdate failed: %v", err)
	}
	entry, _, err := s.StartTimer(task.ID)
	if err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}

	if _, err := s.DeleteTask(task.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}

	gotUpdate, err := s.GetUpdate(update.ID)
	if err != nil {
		t.Fatalf("GetUpdate failed: %v", err)
	}
	if gotUpdate != nil {
		t.Error("Updates should cascade on task delete")
	}
	gotEntry, err := s.GetTimeEntry(entry.ID)
	if err != nil {
		t.Fatalf("GetTimeEntry failed: %v", err)
	}
	if gotEntry != nil {
		t.Error("Time entries should cascade on task delete")
	}
}

func TestAddUpdateBumpsTask(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	task, err := s.CreateTask("Stale task")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	clock = clock.Add(2 * time.Hour)
	if _, err := s.AddUpdate(task.ID, "still on it"); err != nil {
		t.Fatalf("AddUpdate failed: %v", err)
	}

	got, err := s.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if !got.UpdatedAt.Equal(clock) {
		t.Errorf("Expected updated_at bumped to %v, got %v", clock, got.UpdatedAt)
	}
}
