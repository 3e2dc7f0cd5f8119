package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck/internal/models"
)

// ErrNoRunningEntry indicates the task has no running time entry to stop.
var ErrNoRunningEntry = fmt.Errorf("no running time entry")

// ErrEntryRunning indicates an operation that requires a completed entry
// was attempted on a running one.
var ErrEntryRunning = fmt.Errorf("time entry is still running")

func scanTimeEntry(row interface{ Scan(...interface{}) error }) (*models.TimeEntry, error) {
	var e models.TimeEntry
	var startAt string
	var endAt sql.NullString
	var duration sql.NullInt64

	if err := row.Scan(&e.ID, &e.TaskID, &startAt, &endAt, &duration); err != nil {
		return nil, err
	}

	var err error
	if e.StartAt, err = parseDBTime(startAt); err != nil {
		return nil, fmt.Errorf("parse start_at: %w", err)
	}
	if endAt.Valid {
		end, err := parseDBTime(endAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse end_at: %w", err)
		}
		e.EndAt = &end
	}
	if duration.Valid {
		d := duration.Int64
		e.DurationSeconds = &d
	}
	e.Running = e.EndAt == nil
	return &e, nil
}

const timeEntryColumns = `id, task_id, start_at, end_at, duration_seconds`

// GetTimeEntry retrieves a time entry by ID. Returns nil if absent.
func (s *Store) GetTimeEntry(id string) (*models.TimeEntry, error) {
	row := s.db.QueryRow(`SELECT `+timeEntryColumns+` FROM time_entries WHERE id = ?`, id)
	e, err := scanTimeEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query time entry: %w", err)
	}
	return e, nil
}

// RunningEntry returns the task's running time entry, or nil if none.
func (s *Store) RunningEntry(taskID string) (*models.TimeEntry, error) {
	row := s.db.QueryRow(
		`SELECT `+timeEntryColumns+` FROM time_entries WHERE task_id = ? AND end_at IS NULL`,
		taskID,
	)
	e, err := scanTimeEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query running entry: %w", err)
	}
	return e, nil
}

// StartTimer starts time tracking for a task. If an entry is already
// running the existing entry is returned unchanged and created is false.
// The partial unique index backstops the read-then-insert against a
// concurrent start: a UNIQUE violation means the other request won, so the
// winning row is returned.
func (s *Store) StartTimer(taskID string) (entry *models.TimeEntry, created bool, err error) {
	existing, err := s.RunningEntry(taskID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	now := s.now().UTC().Truncate(time.Second)
	e := &models.TimeEntry{
		ID:      uuid.New().String(),
		TaskID:  taskID,
		StartAt: now,
		Running: true,
	}
	_, err = s.db.Exec(
		`INSERT INTO time_entries (id, task_id, start_at) VALUES (?, ?, ?)`,
		e.ID, e.TaskID, formatTime(now),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") || strings.Contains(err.Error(), "unique constraint") {
			winner, rerr := s.RunningEntry(taskID)
			if rerr != nil {
				return nil, false, rerr
			}
			if winner != nil {
				return winner, false, nil
			}
		}
		return nil, false, fmt.Errorf("insert time entry: %w", err)
	}
	return e, true, nil
}

// StopTimer stops the task's running entry, freezing its duration in whole
// seconds. Fails with ErrNoRunningEntry if nothing is running.
func (s *Store) StopTimer(taskID string) (*models.TimeEntry, error) {
	running, err := s.RunningEntry(taskID)
	if err != nil {
		return nil, err
	}
	if running == nil {
		return nil, ErrNoRunningEntry
	}

	end := s.now().UTC().Truncate(time.Second)
	duration := int64(end.Sub(running.StartAt) / time.Second)
	_, err = s.db.Exec(
		`UPDATE time_entries SET end_at = ?, duration_seconds = ? WHERE id = ?`,
		formatTime(end), duration, running.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("stop time entry: %w", err)
	}
	return s.GetTimeEntry(running.ID)
}

// TrimTimeEntry shifts a completed entry's end backward by the given number
// of seconds, clamped so the end never precedes the start, and recomputes
// the duration. Fails with ErrEntryRunning on a running entry. Returns nil
// if the entry does not exist.
func (s *Store) TrimTimeEntry(id string, seconds int64) (*models.TimeEntry, error) {
	entry, err := s.GetTimeEntry(id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	if entry.EndAt == nil {
		return nil, ErrEntryRunning
	}

	newEnd := entry.EndAt.Add(-time.Duration(seconds) * time.Second)
	if newEnd.Before(entry.StartAt) {
		newEnd = entry.StartAt
	}
	duration := int64(newEnd.Sub(entry.StartAt) / time.Second)
	_, err = s.db.Exec(
		`UPDATE time_entries SET end_at = ?, duration_seconds = ? WHERE id = ?`,
		formatTime(newEnd), duration, id,
	)
	if err != nil {
		return nil, fmt.Errorf("trim time entry: %w", err)
	}
	return s.GetTimeEntry(id)
}

// DeleteTimeEntry removes a time entry. Reports whether a row was deleted.
func (s *Store) DeleteTimeEntry(id string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete time entry: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListTimeEntries returns all time entries for a task.
func (s *Store) ListTimeEntries(taskID string) ([]models.TimeEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+timeEntryColumns+` FROM time_entries WHERE task_id = ?`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("query time entries: %w", err)
	}
	defer rows.Close()

	var entries []models.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// SummarizeDay sums, in whole seconds, the overlap of every entry's
// [start, end-or-now) interval with the day [dayStart, dayStart+24h).
// Entries spanning the day boundary are clipped to it; a running entry's
// open end is treated as now. taskID filters to one task when non-empty.
func (s *Store) SummarizeDay(taskID string, dayStart time.Time) (int64, error) {
	dayEnd := dayStart.Add(24 * time.Hour)
	now := s.now().UTC().Truncate(time.Second)

	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE start_at < ? AND (end_at IS NULL OR end_at > ?)`
	args := []interface{}{formatTime(dayEnd), formatTime(dayStart)}
	if taskID != "" {
		query += ` AND task_id = ?`
		args = append(args, taskID)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return 0, fmt.Errorf("query day entries: %w", err)
	}
	defer rows.Close()

	var total time.Duration
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return 0, fmt.Errorf("scan time entry: %w", err)
		}
		end := now
		if e.EndAt != nil {
			end = *e.EndAt
		}
		segStart := e.StartAt
		if segStart.Before(dayStart) {
			segStart = dayStart
		}
		segEnd := end
		if segEnd.After(dayEnd) {
			segEnd = dayEnd
		}
		if segEnd.After(segStart) {
			total += segEnd.Sub(segStart)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return int64(total / time.Second), nil
}
