// Package tui provides the interactive terminal UI for TaskDeck.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/taskdeck/taskdeck/internal/models"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#4C9AFF")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	taskItemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	onlineStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	offlineStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

// App is the main TUI application model.
type App struct {
	client       *Client
	tasks        []models.Task
	selectedIdx  int
	input        textinput.Model
	viewport     viewport.Model
	width        int
	height       int
	mode         string // "list", "detail", "plan"
	currentTask  *models.Task
	feed         []models.FeedItem
	taskSeconds  int64
	plan         *models.PlanDay
	planIdx      int
	message      string
	filter       string
	filterIdx    int
	loading      bool
	serverOnline bool
	timeTracking bool
}

var filters = []string{"", "open", "waiting", "closed"}
var filterNames = []string{"ALL", "OPEN", "WAITING", "CLOSED"}

// New creates a new TUI application.
func New(apiAddr string) *App {
	ti := textinput.New()
	ti.Placeholder = "Type: add <title> | note <text> | close | wait | plan <text>"
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 80

	vp := viewport.New(80, 20)

	return &App{
		client:   NewClient(apiAddr),
		input:    ti,
		viewport: vp,
		mode:     "list",
		filter:   "open",
		filterIdx: 1,
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.fetchTasks(),
		a.checkServer(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit

		case "esc":
			if a.mode == "detail" || a.mode == "plan" {
				a.mode = "list"
				a.currentTask = nil
				return a, a.fetchTasks()
			}

		case "up", "k":
			if a.mode == "list" && a.selectedIdx > 0 {
				a.selectedIdx--
			} else if a.mode == "plan" && a.planIdx > 0 {
				a.planIdx--
			}

		case "down", "j":
			if a.mode == "list" && a.selectedIdx < len(a.visibleTasks())-1 {
				a.selectedIdx++
			} else if a.mode == "plan" && a.plan != nil && a.planIdx < len(a.plan.Items)-1 {
				a.planIdx++
			}

		case "tab":
			if a.mode == "list" {
				a.filterIdx = (a.filterIdx + 1) % len(filters)
				a.filter = filters[a.filterIdx]
				a.selectedIdx = 0
			}

		case "enter":
			cmd := strings.TrimSpace(a.input.Value())
			if cmd != "" {
				a.input.SetValue("")
				return a, a.executeCommand(cmd)
			}
			if a.mode == "list" {
				if tasks := a.visibleTasks(); len(tasks) > 0 {
					a.mode = "detail"
					return a, a.fetchTaskDetail(tasks[a.selectedIdx].ID)
				}
			} else if a.mode == "plan" && a.plan != nil && len(a.plan.Items) > 0 {
				item := a.plan.Items[a.planIdx]
				return a, a.togglePlanItem(item.ID)
			}

		case "r":
			if a.mode == "list" {
				return a, a.fetchTasks()
			} else if a.mode == "plan" {
				return a, a.fetchPlan()
			}

		case "p":
			a.mode = "plan"
			a.planIdx = 0
			return a, a.fetchPlan()
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 10

	case tasksLoadedMsg:
		a.loading = false
		a.tasks = msg.tasks
		if n := len(a.visibleTasks()); a.selectedIdx >= n {
			a.selectedIdx = max(0, n-1)
		}

	case taskDetailLoadedMsg:
		a.currentTask = msg.task
		a.feed = msg.feed
		a.taskSeconds = msg.seconds

	case planLoadedMsg:
		a.plan = msg.day
		if a.plan != nil && a.planIdx >= len(a.plan.Items) {
			a.planIdx = max(0, len(a.plan.Items)-1)
		}

	case serverStatusMsg:
		a.serverOnline = msg.online
		a.timeTracking = msg.timeTracking

	case commandResultMsg:
		a.message = msg.message
		switch a.mode {
		case "detail":
			if a.currentTask != nil {
				return a, a.fetchTaskDetail(a.currentTask.ID)
			}
		case "plan":
			return a, a.fetchPlan()
		}
		return a, a.fetchTasks()

	case errMsg:
		a.message = "Error: " + msg.err.Error()
	}

	// Update input
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	serverStatus := onlineStyle.Render("● SERVER")
	if !a.serverOnline {
		serverStatus = offlineStyle.Render("○ SERVER")
	}

	header := titleStyle.Render("TaskDeck")
	header += "  " + serverStatus
	if a.timeTracking {
		header += "  " + lipgloss.NewStyle().Foreground(mutedColor).Render("[time tracking]")
	}

	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 1)) + "\n")

	contentHeight := a.height - 8
	if contentHeight < 5 {
		contentHeight = 5
	}

	switch a.mode {
	case "list":
		filterLabel := fmt.Sprintf(" Filter: [%s]", filterNames[a.filterIdx])
		b.WriteString(lipgloss.NewStyle().Foreground(mutedColor).Render(filterLabel) + "\n")
		b.WriteString(a.renderTaskList(contentHeight - 1))
	case "detail":
		b.WriteString(a.renderTaskDetail(contentHeight))
	case "plan":
		b.WriteString(a.renderPlan(contentHeight))
	}

	// Message bar
	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	} else {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(a.input.View()))
	b.WriteString("\n")

	var status string
	switch a.mode {
	case "list":
		status = fmt.Sprintf(" Tasks: %d | ↑↓:nav | Tab:filter | p:plan | r:refresh | Ctrl+C:quit", len(a.visibleTasks()))
	case "plan":
		total, remaining := 0, 0
		if a.plan != nil {
			total, remaining = a.plan.Total, a.plan.Remaining
		}
		status = fmt.Sprintf(" Plan: %d/%d left | ↑↓:nav | Enter:toggle | Esc:back", remaining, total)
	default:
		status = " Esc:back | Enter:command | Ctrl+C:quit"
	}
	b.WriteString(statusBarStyle.Width(a.width).Render(status))

	return b.String()
}

func (a *App) visibleTasks() []models.Task {
	if a.filter == "" {
		return a.tasks
	}
	var out []models.Task
	for _, t := range a.tasks {
		if string(t.Status) == a.filter {
			out = append(out, t)
		}
	}
	return out
}

func (a *App) renderTaskList(height int) string {
	if a.loading {
		return "\n  Loading tasks...\n"
	}
	tasks := a.visibleTasks()
	if len(tasks) == 0 {
		return "\n  No tasks found. Type: add <title> to create one.\n"
	}

	var lines []string
	for i, task := range tasks {
		preview := "no updates yet"
		if task.LatestUpdate != nil {
			preview = firstLine(*task.LatestUpdate)
			if len(preview) > 60 {
				preview = preview[:57] + "..."
			}
		}
		previewStyled := lipgloss.NewStyle().Foreground(mutedColor).Render(preview)

		if i == a.selectedIdx {
			line := selectedStyle.Render(fmt.Sprintf("▶ %s  %s", statusDotPlain(task.Status), task.Title))
			lines = append(lines, line, taskItemStyle.Render("    "+preview))
		} else {
			line := taskItemStyle.Render(fmt.Sprintf("  %s  %s  %s", statusDot(task.Status), task.Title, previewStyled))
			lines = append(lines, line)
		}
	}

	if len(lines) > height {
		start := a.selectedIdx - height/2
		if start < 0 {
			start = 0
		}
		end := start + height
		if end > len(lines) {
			end = len(lines)
			start = max(0, end-height)
		}
		lines = lines[start:end]
	}

	return strings.Join(lines, "\n")
}

func (a *App) renderTaskDetail(height int) string {
	if a.currentTask == nil {
		return "\n  Loading...\n"
	}

	var b strings.Builder
	t := a.currentTask

	b.WriteString(fmt.Sprintf("\n  %s\n", lipgloss.NewStyle().Bold(true).Render(t.Title)))
	b.WriteString(fmt.Sprintf("  ID: %s\n", t.ID[:8]))
	b.WriteString(fmt.Sprintf("  Status: %s %s\n", statusDot(t.Status), strings.ToUpper(string(t.Status))))
	if t.DesiredOutcome != "" {
		b.WriteString(fmt.Sprintf("  Outcome: %s\n", t.DesiredOutcome))
	}
	if a.timeTracking && a.taskSeconds > 0 {
		b.WriteString(fmt.Sprintf("  Today: %s\n", formatDuration(a.taskSeconds)))
	}

	if len(a.feed) > 0 {
		b.WriteString("\n")
		shown := 0
		for _, item := range a.feed {
			if shown >= height-8 {
				break
			}
			when := item.CreatedAt.Local().Format("Jan 2 15:04")
			whenStyled := lipgloss.NewStyle().Foreground(mutedColor).Render(when)
			switch item.Type {
			case models.FeedTypeTime:
				label := "running"
				if item.DurationSeconds != nil {
					label = formatDuration(*item.DurationSeconds)
				}
				b.WriteString(fmt.Sprintf("  %s  %s\n", whenStyled,
					lipgloss.NewStyle().Foreground(warningColor).Render("⏱ "+label)))
			default:
				b.WriteString(fmt.Sprintf("  %s  %s\n", whenStyled, firstLine(item.Content)))
			}
			shown++
		}
	}

	b.WriteString("\n  " + helpStyle.Render("Commands: note <text> | close | wait | resume | reopen | rename <title> | outcome <text> | rm") + "\n")
	return b.String()
}

func (a *App) renderPlan(height int) string {
	if a.plan == nil {
		return "\n  Loading plan...\n"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("\n  Plan for %s (%d/%d remaining)\n\n", a.plan.Date, a.plan.Remaining, a.plan.Total))

	if len(a.plan.Items) == 0 {
		b.WriteString("  Nothing planned. Type: plan <text> to add an item.\n")
		return b.String()
	}

	for i, item := range a.plan.Items {
		mark := "[ ]"
		content := item.Content
		if item.Done {
			mark = "[x]"
			content = lipgloss.NewStyle().Foreground(mutedColor).Strikethrough(true).Render(content)
		}
		if i == a.planIdx {
			b.WriteString(selectedStyle.Render(fmt.Sprintf("▶ %s %s", mark, item.Content)) + "\n")
		} else {
			b.WriteString(taskItemStyle.Render(fmt.Sprintf("  %s %s", mark, content)) + "\n")
		}
	}

	b.WriteString("\n  " + helpStyle.Render("Commands: plan <text> | Enter toggles the selected item") + "\n")
	return b.String()
}

func statusDot(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusOpen:
		return lipgloss.NewStyle().Foreground(successColor).Render("●")
	case models.TaskStatusWaiting:
		return lipgloss.NewStyle().Foreground(warningColor).Render("◐")
	case models.TaskStatusClosed:
		return lipgloss.NewStyle().Foreground(mutedColor).Render("○")
	default:
		return "?"
	}
}

func statusDotPlain(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusOpen:
		return "●"
	case models.TaskStatusWaiting:
		return "◐"
	case models.TaskStatusClosed:
		return "○"
	default:
		return "?"
	}
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Messages

type tasksLoadedMsg struct {
	tasks []models.Task
}

type taskDetailLoadedMsg struct {
	task    *models.Task
	feed    []models.FeedItem
	seconds int64
}

type planLoadedMsg struct {
	day *models.PlanDay
}

type serverStatusMsg struct {
	online       bool
	timeTracking bool
}

type commandResultMsg struct {
	message string
}

type errMsg struct {
	err error
}

// Commands

func (a *App) fetchTasks() tea.Cmd {
	a.loading = true
	return func() tea.Msg {
		tasks, err := a.client.ListTasks()
		if err != nil {
			return errMsg{err}
		}
		return tasksLoadedMsg{tasks}
	}
}

func (a *App) fetchTaskDetail(taskID string) tea.Cmd {
	return func() tea.Msg {
		task, err := a.client.GetTask(taskID)
		if err != nil {
			return errMsg{err}
		}
		feed, _ := a.client.GetFeed(taskID)
		var seconds int64
		if a.timeTracking {
			seconds, _ = a.client.TaskTimeToday(taskID)
		}
		return taskDetailLoadedMsg{task, feed, seconds}
	}
}

func (a *App) fetchPlan() tea.Cmd {
	return func() tea.Msg {
		day, err := a.client.GetPlan(time.Now().Format("2006-01-02"))
		if err != nil {
			return errMsg{err}
		}
		return planLoadedMsg{day}
	}
}

func (a *App) togglePlanItem(id string) tea.Cmd {
	return func() tea.Msg {
		if err := a.client.TogglePlanItem(id); err != nil {
			return errMsg{err}
		}
		return commandResultMsg{"✓ Toggled"}
	}
}

func (a *App) checkServer() tea.Cmd {
	return func() tea.Msg {
		ok, err := a.client.CheckHealth()
		tracking := false
		if err == nil && ok {
			tracking, _ = a.client.TimeTrackingEnabled()
		}
		return serverStatusMsg{online: err == nil && ok, timeTracking: tracking}
	}
}

// selectedTaskID returns the task the cursor or detail view points at.
func (a *App) selectedTaskID() string {
	if a.mode == "detail" && a.currentTask != nil {
		return a.currentTask.ID
	}
	if tasks := a.visibleTasks(); len(tasks) > 0 && a.selectedIdx < len(tasks) {
		return tasks[a.selectedIdx].ID
	}
	return ""
}

func (a *App) executeCommand(input string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := parts[0]
	args := parts[1:]
	taskID := a.selectedTaskID()

	return func() tea.Msg {
		switch cmd {
		case "add":
			if len(args) < 1 {
				return commandResultMsg{"Usage: add <title>"}
			}
			task, err := a.client.CreateTask(strings.Join(args, " "))
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{fmt.Sprintf("✓ Created task: %s", task.ID[:8])}

		case "note":
			if len(args) < 1 {
				return commandResultMsg{"Usage: note <content>"}
			}
			if taskID == "" {
				return commandResultMsg{"No task selected"}
			}
			if err := a.client.AddUpdate(taskID, strings.Join(args, " ")); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Update added"}

		case "close":
			if taskID == "" {
				return commandResultMsg{"No task selected"}
			}
			if _, err := a.client.SetStatus(taskID, map[string]bool{"closed": true}); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Task closed"}

		case "reopen":
			if taskID == "" {
				return commandResultMsg{"No task selected"}
			}
			if _, err := a.client.SetStatus(taskID, map[string]bool{"closed": false}); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Task reopened"}

		case "wait":
			if taskID == "" {
				return commandResultMsg{"No task selected"}
			}
			if _, err := a.client.SetStatus(taskID, map[string]bool{"waiting": true}); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Task waiting"}

		case "resume":
			if taskID == "" {
				return commandResultMsg{"No task selected"}
			}
			if _, err := a.client.SetStatus(taskID, map[string]bool{"waiting": false}); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Task resumed"}

		case "rename":
			if len(args) < 1 {
				return commandResultMsg{"Usage: rename <title>"}
			}
			if taskID == "" {
				return commandResultMsg{"No task selected"}
			}
			if err := a.client.RenameTask(taskID, strings.Join(args, " ")); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Task renamed"}

		case "outcome":
			if taskID == "" {
				return commandResultMsg{"No task selected"}
			}
			if err := a.client.SetOutcome(taskID, strings.Join(args, " ")); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Outcome set"}

		case "rm", "delete":
			if taskID == "" {
				return commandResultMsg{"No task selected"}
			}
			if err := a.client.DeleteTask(taskID); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Task deleted"}

		case "start":
			if taskID == "" {
				return commandResultMsg{"No task selected"}
			}
			if err := a.client.StartTimer(taskID); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Timer started"}

		case "stop":
			if taskID == "" {
				return commandResultMsg{"No task selected"}
			}
			if err := a.client.StopTimer(taskID); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Timer stopped"}

		case "plan":
			if len(args) < 1 {
				return commandResultMsg{"Usage: plan <content>"}
			}
			date := time.Now().Format("2006-01-02")
			if err := a.client.AddPlanItem(date, strings.Join(args, " ")); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Added to today's plan"}

		case "q", "quit", "exit":
			return tea.Quit()

		default:
			return commandResultMsg{fmt.Sprintf("Unknown command: %s", cmd)}
		}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
