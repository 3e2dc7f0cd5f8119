package api

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/store"
)

// Field limits, counted in characters rather than bytes; requests beyond
// these are rejected with a validation error.
const (
	maxTitleLen       = 200
	maxOutcomeLen     = 1000
	maxUpdateLen      = 65536
	maxPlanContentLen = 500
)

// defaultTrimSeconds is how much a trim request shaves off a completed
// time entry when the caller does not say.
const defaultTrimSeconds = 900

var planDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Service implements the task, update, timer and plan operations on top of
// the store. It owns validation and the time-tracking feature gate; the
// store stays policy-free.
type Service struct {
	store        *store.Store
	timeTracking bool
	now          func() time.Time
}

// NewService creates a Service. timeTracking enables the timer endpoints
// and the time half of task feeds.
func NewService(st *store.Store, timeTracking bool) *Service {
	return &Service{
		store:        st,
		timeTracking: timeTracking,
		now:          time.Now,
	}
}

// TimeTrackingEnabled reports whether timer operations are available.
func (s *Service) TimeTrackingEnabled() bool { return s.timeTracking }

// Tasks

// ListTasks returns all tasks, most recently touched first, each with its
// latest-update preview.
func (s *Service) ListTasks() ([]models.Task, error) {
	return s.store.ListTasks()
}

// GetTask retrieves one task.
func (s *Service) GetTask(id string) (*models.Task, error) {
	task, err := s.store.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, notFoundErr("Task not found")
	}
	return task, nil
}

// CreateTask validates the title and creates an open task.
func (s *Service) CreateTask(title string) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationErr("Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, validationErr(fmt.Sprintf("Title too long (max %d chars)", maxTitleLen))
	}
	return s.store.CreateTask(title)
}

// RenameTask validates and replaces a task's title.
func (s *Service) RenameTask(id, title string) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationErr("Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, validationErr(fmt.Sprintf("Title too long (max %d chars)", maxTitleLen))
	}
	task, err := s.store.RenameTask(id, title)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, notFoundErr("Task not found")
	}
	return task, nil
}

// SetStatus applies a status change. Exactly the provided flags are acted
// on: true enters the state, false leaves it (back to open) only when the
// task is currently in that state. Asking for closed and waiting at once is
// a conflict, and at least one flag must be present.
func (s *Service) SetStatus(id string, closed, waiting *bool) (*models.Task, error) {
	if closed == nil && waiting == nil {
		return nil, validationErr("No status fields provided")
	}
	if closed != nil && waiting != nil && *closed && *waiting {
		return nil, conflictErr("Task cannot be both closed and waiting")
	}
	task, err := s.store.SetTaskStatus(id, closed, waiting)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, notFoundErr("Task not found")
	}
	return task, nil
}

// SetOutcome sets or clears a task's desired outcome. An empty string
// clears it.
func (s *Service) SetOutcome(id string, outcome *string) (*models.Task, error) {
	if outcome == nil {
		return nil, validationErr("desired_outcome must be a string")
	}
	trimmed := strings.TrimSpace(*outcome)
	if utf8.RuneCountInString(trimmed) > maxOutcomeLen {
		return nil, validationErr(fmt.Sprintf("Desired outcome too long (max %d chars)", maxOutcomeLen))
	}
	task, err := s.store.SetDesiredOutcome(id, trimmed)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, notFoundErr("Task not found")
	}
	return task, nil
}

// DeleteTask removes a task and, via cascade, its updates and time entries.
func (s *Service) DeleteTask(id string) error {
	ok, err := s.store.DeleteTask(id)
	if err != nil {
		return err
	}
	if !ok {
		return notFoundErr("Task not found")
	}
	return nil
}

// TaskFeed returns a task's updates and completed-or-running time entries
// merged into one list, newest first. With time tracking off the feed is
// updates only.
func (s *Service) TaskFeed(taskID string) ([]models.FeedItem, error) {
	task, err := s.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, notFoundErr("Task not found")
	}

	updates, err := s.store.ListUpdates(taskID)
	if err != nil {
		return nil, err
	}
	feed := make([]models.FeedItem, 0, len(updates))
	for _, u := range updates {
		feed = append(feed, models.UpdateFeedItem(u))
	}

	if s.timeTracking {
		entries, err := s.store.ListTimeEntries(taskID)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			feed = append(feed, models.TimeEntryFeedItem(e))
		}
	}

	sort.SliceStable(feed, func(i, j int) bool {
		if !feed[i].CreatedAt.Equal(feed[j].CreatedAt) {
			return feed[i].CreatedAt.After(feed[j].CreatedAt)
		}
		return feed[i].ID > feed[j].ID
	})
	return feed, nil
}

// Updates

// AddUpdate appends a free-text update to a task. A missing task wins over
// bad content, so empty notes on deleted tasks report 404.
func (s *Service) AddUpdate(taskID, content string) (*models.Update, error) {
	task, err := s.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, notFoundErr("Task not found")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationErr("Content is required")
	}
	if utf8.RuneCountInString(content) > maxUpdateLen {
		return nil, validationErr(fmt.Sprintf("Content too long (max %d chars)", maxUpdateLen))
	}
	return s.store.AddUpdate(taskID, content)
}

// EditUpdate replaces an update's content.
func (s *Service) EditUpdate(id, content string) (*models.Update, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationErr("Content is required")
	}
	if utf8.RuneCountInString(content) > maxUpdateLen {
		return nil, validationErr(fmt.Sprintf("Content too long (max %d chars)", maxUpdateLen))
	}
	update, err := s.store.EditUpdate(id, content)
	if err != nil {
		return nil, err
	}
	if update == nil {
		return nil, notFoundErr("Update not found")
	}
	return update, nil
}

// DeleteUpdate removes an update.
func (s *Service) DeleteUpdate(id string) error {
	ok, err := s.store.DeleteUpdate(id)
	if err != nil {
		return err
	}
	if !ok {
		return notFoundErr("Update not found")
	}
	return nil
}

// Time tracking

func (s *Service) requireTimeTracking() error {
	if !s.timeTracking {
		return notFoundErr("Time tracking disabled")
	}
	return nil
}

// StartTimer starts a timer on a task. If one is already running the
// existing entry is returned with created == false.
func (s *Service) StartTimer(taskID string) (entry *models.TimeEntry, created bool, err error) {
	if err := s.requireTimeTracking(); err != nil {
		return nil, false, err
	}
	task, err := s.store.GetTask(taskID)
	if err != nil {
		return nil, false, err
	}
	if task == nil {
		return nil, false, notFoundErr("Task not found")
	}
	return s.store.StartTimer(taskID)
}

// StopTimer stops a task's running timer.
func (s *Service) StopTimer(taskID string) (*models.TimeEntry, error) {
	if err := s.requireTimeTracking(); err != nil {
		return nil, err
	}
	task, err := s.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, notFoundErr("Task not found")
	}
	entry, err := s.store.StopTimer(taskID)
	if err == store.ErrNoRunningEntry {
		return nil, notFoundErr("No active timer")
	}
	return entry, err
}

// TrimTimeEntry shortens a completed entry by the given number of seconds,
// clamping at zero duration. A zero count falls back to the default;
// negative counts are rejected.
func (s *Service) TrimTimeEntry(id string, seconds int64) (*models.TimeEntry, error) {
	if err := s.requireTimeTracking(); err != nil {
		return nil, err
	}
	if seconds == 0 {
		seconds = defaultTrimSeconds
	}
	if seconds < 0 {
		return nil, validationErr("seconds must be > 0")
	}
	entry, err := s.store.TrimTimeEntry(id, seconds)
	if err == store.ErrEntryRunning {
		return nil, validationErr("Cannot trim a running time entry")
	}
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, notFoundErr("Not found")
	}
	return entry, nil
}

// DeleteTimeEntry removes a time entry, running or not.
func (s *Service) DeleteTimeEntry(id string) error {
	if err := s.requireTimeTracking(); err != nil {
		return err
	}
	ok, err := s.store.DeleteTimeEntry(id)
	if err != nil {
		return err
	}
	if !ok {
		return notFoundErr("Not found")
	}
	return nil
}

// TaskTimeToday returns the seconds a task accrued during the current local
// day, clipping entries that cross midnight. Zero when tracking is off, so
// clients can render unconditionally.
func (s *Service) TaskTimeToday(taskID string) (int64, error) {
	if !s.timeTracking {
		return 0, nil
	}
	task, err := s.store.GetTask(taskID)
	if err != nil {
		return 0, err
	}
	if task == nil {
		return 0, notFoundErr("Task not found")
	}
	return s.store.SummarizeDay(taskID, s.localDayStart())
}

// TimeToday returns the seconds accrued across all tasks during the current
// local day.
func (s *Service) TimeToday() (int64, error) {
	if !s.timeTracking {
		return 0, nil
	}
	return s.store.SummarizeDay("", s.localDayStart())
}

func (s *Service) localDayStart() time.Time {
	now := s.now().Local()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// Daily plan

func validatePlanDate(date string) error {
	if !planDateRe.MatchString(date) {
		return validationErr("Invalid date")
	}
	return nil
}

// PlanDay returns a date's checklist with its counts.
func (s *Service) PlanDay(date string) (*models.PlanDay, error) {
	if err := validatePlanDate(date); err != nil {
		return nil, err
	}
	items, err := s.store.ListPlanItems(date)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.DailyPlanItem{}
	}
	day := &models.PlanDay{Date: date, Items: items, Total: len(items)}
	for _, item := range items {
		if !item.Done {
			day.Remaining++
		}
	}
	return day, nil
}

// AddPlanItem appends a checklist item to a date.
func (s *Service) AddPlanItem(date, content string) (*models.DailyPlanItem, error) {
	if err := validatePlanDate(date); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationErr("Content required")
	}
	if utf8.RuneCountInString(content) > maxPlanContentLen {
		return nil, validationErr(fmt.Sprintf("Content too long (max %d chars)", maxPlanContentLen))
	}
	return s.store.AddPlanItem(date, content)
}

// PatchPlanItem applies a partial update to a checklist item.
func (s *Service) PatchPlanItem(id string, patch store.PlanItemPatch) (*models.DailyPlanItem, error) {
	if patch.Empty() {
		return nil, validationErr("No fields to update")
	}
	if patch.Content != nil {
		trimmed := strings.TrimSpace(*patch.Content)
		if trimmed == "" {
			return nil, validationErr("Content cannot be empty")
		}
		if utf8.RuneCountInString(trimmed) > maxPlanContentLen {
			return nil, validationErr(fmt.Sprintf("Content too long (max %d chars)", maxPlanContentLen))
		}
		patch.Content = &trimmed
	}
	if patch.PlanDate != nil {
		if err := validatePlanDate(*patch.PlanDate); err != nil {
			return nil, validationErr("Invalid plan_date")
		}
	}
	item, err := s.store.UpdatePlanItem(id, patch)
	if err == store.ErrNoFields {
		return nil, validationErr("No fields to update")
	}
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFoundErr("Not found")
	}
	return item, nil
}

// TogglePlanItem flips a checklist item's done flag.
func (s *Service) TogglePlanItem(id string) (*models.DailyPlanItem, error) {
	item, err := s.store.TogglePlanItem(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFoundErr("Not found")
	}
	return item, nil
}

// DeletePlanItem removes a checklist item.
func (s *Service) DeletePlanItem(id string) error {
	ok, err := s.store.DeletePlanItem(id)
	if err != nil {
		return err
	}
	if !ok {
		return notFoundErr("Not found")
	}
	return nil
}

// PlanSummary reports item counts for yesterday, today and tomorrow in
// local time.
func (s *Service) PlanSummary() (*models.PlanSummary, error) {
	today := s.now().Local()
	const layout = "2006-01-02"
	dates := []string{
		today.AddDate(0, 0, -1).Format(layout),
		today.Format(layout),
		today.AddDate(0, 0, 1).Format(layout),
	}
	counts, err := s.store.SummarizePlans(dates...)
	if err != nil {
		return nil, err
	}
	return &models.PlanSummary{
		Yesterday: counts[dates[0]],
		Today:     counts[dates[1]],
		Tomorrow:  counts[dates[2]],
	}, nil
}
