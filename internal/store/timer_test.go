package store

import (
	"testing"
	"time"
)

func TestStartTimerIdempotent(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, err := s.CreateTask("Deep work")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	entry, created, err := s.StartTimer(task.ID)
	if err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}
	if !created {
		t.Error("First start should create an entry")
	}
	if !entry.Running {
		t.Error("New entry should be running")
	}

	again, created, err := s.StartTimer(task.ID)
	if err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}
	if created {
		t.Error("Second start must not create another entry")
	}
	if again.ID != entry.ID {
		t.Error("Second start should return the existing entry")
	}

	entries, err := s.ListTimeEntries(task.ID)
	if err != nil {
		t.Fatalf("ListTimeEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected exactly one entry, got %d", len(entries))
	}
}

func TestStopTimer(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	task, err := s.CreateTask("Deep work")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if _, _, err := s.StartTimer(task.ID); err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}

	clock = clock.Add(25 * time.Minute)
	stopped, err := s.StopTimer(task.ID)
	if err != nil {
		t.Fatalf("StopTimer failed: %v", err)
	}
	if stopped.Running {
		t.Error("Stopped entry must not be running")
	}
	if stopped.DurationSeconds == nil || *stopped.DurationSeconds != 25*60 {
		t.Errorf("Expected duration 1500s, got %v", stopped.DurationSeconds)
	}

	// Stopping again fails: nothing is running
	if _, err := s.StopTimer(task.ID); err != ErrNoRunningEntry {
		t.Errorf("Expected ErrNoRunningEntry, got %v", err)
	}
}

func TestTrimTimeEntry(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	task, err := s.CreateTask("Deep work")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	entry, _, err := s.StartTimer(task.ID)
	if err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}

	// Running entries cannot be trimmed
	if _, err := s.TrimTimeEntry(entry.ID, 900); err != ErrEntryRunning {
		t.Errorf("Expected ErrEntryRunning, got %v", err)
	}

	clock = clock.Add(time.Hour)
	stopped, err := s.StopTimer(task.ID)
	if err != nil {
		t.Fatalf("StopTimer failed: %v", err)
	}

	// 15 minutes off a 1 hour entry leaves 45 minutes
	trimmed, err := s.TrimTimeEntry(stopped.ID, 900)
	if err != nil {
		t.Fatalf("TrimTimeEntry failed: %v", err)
	}
	if trimmed.DurationSeconds == nil || *trimmed.DurationSeconds != 45*60 {
		t.Errorf("Expected duration 2700s, got %v", trimmed.DurationSeconds)
	}

	// Over-trimming clamps to zero, never negative
	trimmed, err = s.TrimTimeEntry(stopped.ID, 7200)
	if err != nil {
		t.Fatalf("TrimTimeEntry failed: %v", err)
	}
	if trimmed.DurationSeconds == nil || *trimmed.DurationSeconds != 0 {
		t.Errorf("Expected duration clamped to 0, got %v", trimmed.DurationSeconds)
	}
	if !trimmed.EndAt.Equal(trimmed.StartAt) {
		t.Error("Fully trimmed entry should end at its start")
	}

	// Missing entry
	missing, err := s.TrimTimeEntry("no-such-id", 900)
	if err != nil {
		t.Fatalf("TrimTimeEntry failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for missing entry")
	}
}

func TestDeleteTimeEntry(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, err := s.CreateTask("Deep work")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	entry, _, err := s.StartTimer(task.ID)
	if err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}

	ok, err := s.DeleteTimeEntry(entry.ID)
	if err != nil {
		t.Fatalf("DeleteTimeEntry failed: %v", err)
	}
	if !ok {
		t.Error("DeleteTimeEntry reported no row deleted")
	}

	// A new timer can start after the running entry was deleted
	_, created, err := s.StartTimer(task.ID)
	if err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}
	if !created {
		t.Error("Start after delete should create a fresh entry")
	}
}

func TestSummarizeDay(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	clock := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	task, err := s.CreateTask("Deep work")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	// 10:00 - 11:30
	if _, _, err := s.StartTimer(task.ID); err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}
	clock = clock.Add(90 * time.Minute)
	if _, err := s.StopTimer(task.ID); err != nil {
		t.Fatalf("StopTimer failed: %v", err)
	}

	dayStart := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	total, err := s.SummarizeDay(task.ID, dayStart)
	if err != nil {
		t.Fatalf("SummarizeDay failed: %v", err)
	}
	if total != 90*60 {
		t.Errorf("Expected 5400s, got %d", total)
	}

	// Day with no overlap
	total, err = s.SummarizeDay(task.ID, dayStart.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("SummarizeDay failed: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected 0s on an empty day, got %d", total)
	}
}

func TestSummarizeDayClipsMidnight(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	// Entry from 23:00 to 01:00 the next day
	clock := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	task, err := s.CreateTask("Night shift")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if _, _, err := s.StartTimer(task.ID); err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}
	clock = clock.Add(2 * time.Hour)
	if _, err := s.StopTimer(task.ID); err != nil {
		t.Fatalf("StopTimer failed: %v", err)
	}

	march10 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	march11 := march10.AddDate(0, 0, 1)

	total, err := s.SummarizeDay(task.ID, march10)
	if err != nil {
		t.Fatalf("SummarizeDay failed: %v", err)
	}
	if total != 3600 {
		t.Errorf("Expected exactly 1h on the first day, got %ds", total)
	}

	total, err = s.SummarizeDay(task.ID, march11)
	if err != nil {
		t.Fatalf("SummarizeDay failed: %v", err)
	}
	if total != 3600 {
		t.Errorf("Expected exactly 1h on the second day, got %ds", total)
	}
}

func TestSummarizeDayRunningEntry(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	task, err := s.CreateTask("Deep work")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if _, _, err := s.StartTimer(task.ID); err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}

	// 40 minutes in, the open end counts as now
	clock = clock.Add(40 * time.Minute)
	dayStart := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	total, err := s.SummarizeDay(task.ID, dayStart)
	if err != nil {
		t.Fatalf("SummarizeDay failed: %v", err)
	}
	if total != 40*60 {
		t.Errorf("Expected 2400s from the running entry, got %d", total)
	}
}

func TestSummarizeDayAllTasks(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	a, err := s.CreateTask("Task A")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	b, err := s.CreateTask("Task B")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if _, _, err := s.StartTimer(a.ID); err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}
	clock = clock.Add(30 * time.Minute)
	if _, err := s.StopTimer(a.ID); err != nil {
		t.Fatalf("StopTimer failed: %v", err)
	}

	if _, _, err := s.StartTimer(b.ID); err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}
	clock = clock.Add(15 * time.Minute)
	if _, err := s.StopTimer(b.ID); err != nil {
		t.Fatalf("StopTimer failed: %v", err)
	}

	dayStart := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	total, err := s.SummarizeDay("", dayStart)
	if err != nil {
		t.Fatalf("SummarizeDay failed: %v", err)
	}
	if total != 45*60 {
		t.Errorf("Expected 2700s across all tasks, got %d", total)
	}
}
