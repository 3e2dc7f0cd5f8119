// Package store provides SQLite-backed persistence for TaskDeck.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck/internal/models"
	_ "modernc.org/sqlite"
)

// Store provides access to the TaskDeck SQLite database.
type Store struct {
	db *sql.DB

	// now is swapped out by tests that need a fixed clock.
	now func() time.Time
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// WAL for better concurrency; foreign keys on so task deletes cascade
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		desired_outcome TEXT,
		status TEXT NOT NULL DEFAULT 'open',
		status_since TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS updates (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT,
		duration_seconds INTEGER,
		FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS daily_plan_items (
		id TEXT PRIMARY KEY,
		plan_date TEXT NOT NULL,
		content TEXT NOT NULL,
		done INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_updates_task_id ON updates(task_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_time_entries_task_id ON time_entries(task_id);
	CREATE INDEX IF NOT EXISTS idx_daily_plan_date_position ON daily_plan_items(plan_date, position);

	-- one running entry per task, enforced at the schema level
	CREATE UNIQUE INDEX IF NOT EXISTS idx_time_entries_running
		ON time_entries(task_id) WHERE end_at IS NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Task Operations ---

// CreateTask inserts a new open task.
func (s *Store) CreateTask(title string) (*models.Task, error) {
	now := s.now().UTC().Truncate(time.Second)
	task := &models.Task{
		ID:        uuid.New().String(),
		Title:     title,
		Status:    models.TaskStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(
		`INSERT INTO tasks (id, title, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		task.ID, task.Title, string(task.Status), formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

const taskColumns = `id, title, desired_outcome, status, status_since, created_at, updated_at`

// scanTask scans one task row and derives the closed_at/waiting_since view
// fields from the status.
func scanTask(row interface{ Scan(...interface{}) error }) (*models.Task, error) {
	var task models.Task
	var outcome, statusSince sql.NullString
	var status, createdAt, updatedAt string

	err := row.Scan(&task.ID, &task.Title, &outcome, &status, &statusSince, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	task.Status = models.TaskStatus(status)
	if outcome.Valid {
		task.DesiredOutcome = outcome.String
	}
	if task.CreatedAt, err = parseDBTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if task.UpdatedAt, err = parseDBTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if statusSince.Valid {
		since, err := parseDBTime(statusSince.String)
		if err != nil {
			return nil, fmt.Errorf("parse status_since: %w", err)
		}
		switch task.Status {
		case models.TaskStatusClosed:
			task.ClosedAt = &since
		case models.TaskStatusWaiting:
			task.WaitingSince = &since
		}
	}
	return &task, nil
}

// GetTask retrieves a task by ID. Returns nil if the task does not exist.
func (s *Store) GetTask(id string) (*models.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	return task, nil
}

// ListTasks returns all tasks, most recently touched first, each enriched
// with its latest-update preview. The preview is derived per request and
// never stored.
func (s *Store) ListTasks() ([]models.Task, error) {
	rows, err := s.db.Query(`SELECT ` + taskColumns + ` FROM tasks ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		latest, err := s.LatestUpdate(tasks[i].ID)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			tasks[i].LatestUpdate = &latest.Content
			at := latest.CreatedAt
			tasks[i].LatestAt = &at
		}
	}
	return tasks, nil
}

// RenameTask updates a task's title. Returns nil if the task does not exist.
func (s *Store) RenameTask(id, title string) (*models.Task, error) {
	result, err := s.db.Exec(
		`UPDATE tasks SET title = ?, updated_at = ? WHERE id = ?`,
		title, formatTime(s.now().UTC()), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task title: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetTask(id)
}

// SetDesiredOutcome updates a task's desired outcome. An empty outcome
// clears the field. Returns nil if the task does not exist.
func (s *Store) SetDesiredOutcome(id, outcome string) (*models.Task, error) {
	var val interface{}
	if outcome != "" {
		val = outcome
	}
	result, err := s.db.Exec(
		`UPDATE tasks SET desired_outcome = ?, updated_at = ? WHERE id = ?`,
		val, formatTime(s.now().UTC()), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update desired outcome: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetTask(id)
}

// SetTaskStatus applies a status transition. The closed/waiting flags carry
// the original wire semantics: true moves the task into that state, false
// reopens it only if it is currently in that state. Callers validate that
// at least one flag is present and that both are not true together.
// Returns nil if the task does not exist.
func (s *Store) SetTaskStatus(id string, closed, waiting *bool) (*models.Task, error) {
	task, err := s.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, nil
	}

	now := s.now().UTC().Truncate(time.Second)
	status := task.Status
	if closed != nil {
		if *closed {
			status = models.TaskStatusClosed
		} else if status == models.TaskStatusClosed {
			status = models.TaskStatusOpen
		}
	}
	if waiting != nil {
		if *waiting {
			status = models.TaskStatusWaiting
		} else if status == models.TaskStatusWaiting {
			status = models.TaskStatusOpen
		}
	}

	var since interface{}
	if status != models.TaskStatusOpen {
		since = formatTime(now)
	}
	_, err = s.db.Exec(
		`UPDATE tasks SET status = ?, status_since = ?, updated_at = ? WHERE id = ?`,
		string(status), since, formatTime(now), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}
	return s.GetTask(id)
}

// DeleteTask removes a task; its updates and time entries cascade. Reports
// whether a row was deleted.
func (s *Store) DeleteTask(id string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// bumpTaskUpdated refreshes a task's updated_at stamp.
func (s *Store) bumpTaskUpdated(id string) error {
	_, err := s.db.Exec(`UPDATE tasks SET updated_at = ? WHERE id = ?`, formatTime(s.now().UTC()), id)
	return err
}

// --- Update Operations ---

// AddUpdate appends an update to a task and bumps the task's updated_at.
func (s *Store) AddUpdate(taskID, content string) (*models.Update, error) {
	now := s.now().UTC().Truncate(time.Second)
	update := &models.Update{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		Content:   content,
		CreatedAt: now,
	}

	_, err := s.db.Exec(
		`INSERT INTO updates (id, task_id, content, created_at) VALUES (?, ?, ?, ?)`,
		update.ID, update.TaskID, update.Content, formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert update: %w", err)
	}
	if err := s.bumpTaskUpdated(taskID); err != nil {
		return nil, err
	}
	return update, nil
}

func scanUpdate(row interface{ Scan(...interface{}) error }) (*models.Update, error) {
	var u models.Update
	var createdAt string
	if err := row.Scan(&u.ID, &u.TaskID, &u.Content, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if u.CreatedAt, err = parseDBTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &u, nil
}

// GetUpdate retrieves an update by ID. Returns nil if absent.
func (s *Store) GetUpdate(id string) (*models.Update, error) {
	row := s.db.QueryRow(`SELECT id, task_id, content, created_at FROM updates WHERE id = ?`, id)
	u, err := scanUpdate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query update: %w", err)
	}
	return u, nil
}

// EditUpdate replaces an update's content in place and bumps the owning
// task. Returns nil if the update does not exist.
func (s *Store) EditUpdate(id, content string) (*models.Update, error) {
	existing, err := s.GetUpdate(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	_, err = s.db.Exec(`UPDATE updates SET content = ? WHERE id = ?`, content, id)
	if err != nil {
		return nil, fmt.Errorf("update content: %w", err)
	}
	if err := s.bumpTaskUpdated(existing.TaskID); err != nil {
		return nil, err
	}
	return s.GetUpdate(id)
}

// DeleteUpdate removes an update and bumps the owning task. Reports whether
// a row was deleted.
func (s *Store) DeleteUpdate(id string) (bool, error) {
	existing, err := s.GetUpdate(id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	if _, err := s.db.Exec(`DELETE FROM updates WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("delete update: %w", err)
	}
	if err := s.bumpTaskUpdated(existing.TaskID); err != nil {
		return false, err
	}
	return true, nil
}

// ListUpdates returns all updates for a task, newest first.
func (s *Store) ListUpdates(taskID string) ([]models.Update, error) {
	rows, err := s.db.Query(
		`SELECT id, task_id, content, created_at FROM updates WHERE task_id = ? ORDER BY created_at DESC, id DESC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("query updates: %w", err)
	}
	defer rows.Close()

	var updates []models.Update
	for rows.Next() {
		u, err := scanUpdate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan update: %w", err)
		}
		updates = append(updates, *u)
	}
	return updates, rows.Err()
}

// LatestUpdate returns the most recent update for a task, or nil if the
// task has none. Ties on created_at break by id descending.
func (s *Store) LatestUpdate(taskID string) (*models.Update, error) {
	row := s.db.QueryRow(
		`SELECT id, task_id, content, created_at FROM updates WHERE task_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		taskID,
	)
	u, err := scanUpdate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest update: %w", err)
	}
	return u, nil
}
