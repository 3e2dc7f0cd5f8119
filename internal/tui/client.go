package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/taskdeck/taskdeck/internal/models"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the TaskDeck API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

func (c *Client) get(path string, out interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s", string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) send(method, path string, data interface{}, out interface{}) error {
	var payload []byte
	if data != nil {
		var err error
		if payload, err = json.Marshal(data); err != nil {
			return err
		}
	} else {
		payload = []byte("{}")
	}

	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("API error: %s", string(body))
	}
	if out != nil {
		return json.Unmarshal(body, out)
	}
	return nil
}

// ListTasks fetches all tasks.
func (c *Client) ListTasks() ([]models.Task, error) {
	var tasks []models.Task
	if err := c.get("/api/tasks", &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask fetches a single task.
func (c *Client) GetTask(id string) (*models.Task, error) {
	var task models.Task
	if err := c.get("/api/tasks/"+id, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetFeed fetches a task's combined update/time feed.
func (c *Client) GetFeed(taskID string) ([]models.FeedItem, error) {
	var feed []models.FeedItem
	if err := c.get("/api/tasks/"+taskID+"/updates", &feed); err != nil {
		return nil, err
	}
	return feed, nil
}

// CreateTask creates a new task.
func (c *Client) CreateTask(title string) (*models.Task, error) {
	var task models.Task
	err := c.send(http.MethodPost, "/api/tasks", map[string]string{"title": title}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// RenameTask replaces a task's title.
func (c *Client) RenameTask(id, title string) error {
	return c.send(http.MethodPut, "/api/tasks/"+id, map[string]string{"title": title}, nil)
}

// SetStatus PATCHes a task's status flags.
func (c *Client) SetStatus(id string, flags map[string]bool) (*models.Task, error) {
	var task models.Task
	err := c.send(http.MethodPatch, "/api/tasks/"+id+"/status", flags, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// SetOutcome sets or clears a task's desired outcome.
func (c *Client) SetOutcome(id, outcome string) error {
	body := map[string]string{"desired_outcome": outcome}
	return c.send(http.MethodPatch, "/api/tasks/"+id+"/outcome", body, nil)
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(id string) error {
	return c.send(http.MethodDelete, "/api/tasks/"+id, nil, nil)
}

// AddUpdate posts an update to a task.
func (c *Client) AddUpdate(taskID, content string) error {
	return c.send(http.MethodPost, "/api/tasks/"+taskID+"/updates", map[string]string{"content": content}, nil)
}

// StartTimer starts a timer on a task.
func (c *Client) StartTimer(taskID string) error {
	return c.send(http.MethodPost, "/api/tasks/"+taskID+"/time/start", nil, nil)
}

// StopTimer stops a task's running timer.
func (c *Client) StopTimer(taskID string) error {
	return c.send(http.MethodPost, "/api/tasks/"+taskID+"/time/stop", nil, nil)
}

// TaskTimeToday returns the seconds a task accrued today.
func (c *Client) TaskTimeToday(taskID string) (int64, error) {
	var result struct {
		TotalSeconds int64 `json:"total_seconds"`
	}
	if err := c.get("/api/tasks/"+taskID+"/time/summary/today", &result); err != nil {
		return 0, err
	}
	return result.TotalSeconds, nil
}

// GetPlan fetches a date's checklist.
func (c *Client) GetPlan(date string) (*models.PlanDay, error) {
	var day models.PlanDay
	if err := c.get("/api/daily_plans/"+date, &day); err != nil {
		return nil, err
	}
	return &day, nil
}

// AddPlanItem appends an item to a date's plan.
func (c *Client) AddPlanItem(date, content string) error {
	return c.send(http.MethodPost, "/api/daily_plans/"+date+"/items", map[string]string{"content": content}, nil)
}

// TogglePlanItem flips a plan item's done flag.
func (c *Client) TogglePlanItem(id string) error {
	return c.send(http.MethodPost, "/api/daily_plan_items/"+id+"/toggle", nil, nil)
}

// DeletePlanItem removes a plan item.
func (c *Client) DeletePlanItem(id string) error {
	return c.send(http.MethodDelete, "/api/daily_plan_items/"+id, nil, nil)
}

// TimeTrackingEnabled asks the server whether timer endpoints are on.
func (c *Client) TimeTrackingEnabled() (bool, error) {
	var cfg struct {
		TimeTracking bool `json:"time_tracking"`
	}
	if err := c.get("/api/config", &cfg); err != nil {
		return false, err
	}
	return cfg.TimeTracking, nil
}

// CheckHealth checks if the server is healthy.
func (c *Client) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var health struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false, err
	}

	return health.OK, nil
}
