// Package models defines the core domain types for TaskDeck.
package models

import "time"

// TaskStatus represents the current state of a task. It is a single tagged
// value, so a task can never be closed and waiting at the same time.
type TaskStatus string

const (
	TaskStatusOpen    TaskStatus = "open"
	TaskStatusWaiting TaskStatus = "waiting"
	TaskStatusClosed  TaskStatus = "closed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusWaiting, TaskStatusClosed:
		return true
	}
	return false
}

// Task is a top-level trackable item.
//
// ClosedAt and WaitingSince are derived from the status when a task is
// loaded; they keep the two-timestamp wire shape clients expect while the
// store itself holds only the tagged status.
type Task struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	DesiredOutcome string     `json:"desired_outcome,omitempty"`
	Status         TaskStatus `json:"status"`
	ClosedAt       *time.Time `json:"closed_at"`
	WaitingSince   *time.Time `json:"waiting_since"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Preview of the most recent update, populated on list reads only.
	LatestUpdate *string    `json:"latest_update"`
	LatestAt     *time.Time `json:"latest_at"`
}

// Update is a timestamped free-text note attached to a task.
type Update struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// TimeEntry records an interval of time spent on a task. An entry with no
// end is "running".
type TimeEntry struct {
	ID              string     `json:"id"`
	TaskID          string     `json:"task_id"`
	StartAt         time.Time  `json:"start_at"`
	EndAt           *time.Time `json:"end_at"`
	DurationSeconds *int64     `json:"duration_seconds"`
	Running         bool       `json:"running"`
}

// SortTime returns the feed ordering timestamp for the entry: end time for
// completed entries, start time for running ones.
func (e *TimeEntry) SortTime() time.Time {
	if e.EndAt != nil {
		return *e.EndAt
	}
	return e.StartAt
}

// DailyPlanItem is a checklist entry scoped to a calendar date. PlanDate is
// a plain YYYY-MM-DD string, independent of tasks.
type DailyPlanItem struct {
	ID        string     `json:"id"`
	PlanDate  string     `json:"plan_date"`
	Content   string     `json:"content"`
	Done      bool       `json:"done"`
	Position  int        `json:"position"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Feed item types.
const (
	FeedTypeUpdate = "update"
	FeedTypeTime   = "time"
)

// FeedItem is one row of a task's combined update/time feed.
type FeedItem struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	TaskID  string `json:"task_id"`
	Content string `json:"content,omitempty"`

	// CreatedAt doubles as the sort key: update creation time, or the
	// end-else-start time of a time entry.
	CreatedAt time.Time `json:"created_at"`

	StartAt         *time.Time `json:"start_at,omitempty"`
	EndAt           *time.Time `json:"end_at,omitempty"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
	Running         *bool      `json:"running,omitempty"`
}

// UpdateFeedItem converts an update to its feed representation.
func UpdateFeedItem(u Update) FeedItem {
	return FeedItem{
		Type:      FeedTypeUpdate,
		ID:        u.ID,
		TaskID:    u.TaskID,
		Content:   u.Content,
		CreatedAt: u.CreatedAt,
	}
}

// TimeEntryFeedItem converts a time entry to its feed representation.
func TimeEntryFeedItem(e TimeEntry) FeedItem {
	running := e.Running
	return FeedItem{
		Type:            FeedTypeTime,
		ID:              e.ID,
		TaskID:          e.TaskID,
		CreatedAt:       e.SortTime(),
		StartAt:         &e.StartAt,
		EndAt:           e.EndAt,
		DurationSeconds: e.DurationSeconds,
		Running:         &running,
	}
}

// PlanDay is the response shape for a single date's checklist.
type PlanDay struct {
	Date      string          `json:"date"`
	Items     []DailyPlanItem `json:"items"`
	Total     int             `json:"total"`
	Remaining int             `json:"remaining"`
}

// PlanCounts holds the item counts for one plan date.
type PlanCounts struct {
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
}

// PlanSummary reports counts for the three-day window around today.
type PlanSummary struct {
	Yesterday PlanCounts `json:"yesterday"`
	Today     PlanCounts `json:"today"`
	Tomorrow  PlanCounts `json:"tomorrow"`
}
