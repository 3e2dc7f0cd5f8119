package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/store"
)

// respondErr maps a service error to its HTTP status. Anything that is not
// one of the known kinds is a 500.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrConflict):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badJSON(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
}

type titleRequest struct {
	Title string `json:"title"`
}

type statusRequest struct {
	Closed  *bool `json:"closed"`
	Waiting *bool `json:"waiting"`
}

type outcomeRequest struct {
	DesiredOutcome *string `json:"desired_outcome"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type trimRequest struct {
	Seconds int64 `json:"seconds"`
}

type planPatchRequest struct {
	Content  *string `json:"content"`
	Done     *bool   `json:"done"`
	Position *int    `json:"position"`
	PlanDate *string `json:"plan_date"`
}

// Tasks

func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.service.ListTasks()
	if err != nil {
		respondErr(c, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	task, err := s.service.CreateTask(req.Title)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.service.GetTask(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleRenameTask(c *gin.Context) {
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	task, err := s.service.RenameTask(c.Param("id"), req.Title)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleTaskStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	task, err := s.service.SetStatus(c.Param("id"), req.Closed, req.Waiting)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleTaskOutcome(c *gin.Context) {
	var req outcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	task, err := s.service.SetOutcome(c.Param("id"), req.DesiredOutcome)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.service.DeleteTask(c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Updates and feed

func (s *Server) handleTaskFeed(c *gin.Context) {
	feed, err := s.service.TaskFeed(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

func (s *Server) handleAddUpdate(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	update, err := s.service.AddUpdate(c.Param("id"), req.Content)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, update)
}

func (s *Server) handleEditUpdate(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	update, err := s.service.EditUpdate(c.Param("id"), req.Content)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, update)
}

func (s *Server) handleDeleteUpdate(c *gin.Context) {
	if err := s.service.DeleteUpdate(c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Time tracking

func (s *Server) handleStartTimer(c *gin.Context) {
	entry, created, err := s.service.StartTimer(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, models.TimeEntryFeedItem(*entry))
}

func (s *Server) handleStopTimer(c *gin.Context) {
	entry, err := s.service.StopTimer(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, models.TimeEntryFeedItem(*entry))
}

func (s *Server) handleTaskTimeToday(c *gin.Context) {
	total, err := s.service.TaskTimeToday(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_seconds": total})
}

func (s *Server) handleTimeToday(c *gin.Context) {
	total, err := s.service.TimeToday()
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_seconds": total})
}

func (s *Server) handleTrimTimeEntry(c *gin.Context) {
	// A bodyless request trims by the default amount.
	var req trimRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badJSON(c)
		return
	}
	entry, err := s.service.TrimTimeEntry(c.Param("id"), req.Seconds)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, models.TimeEntryFeedItem(*entry))
}

func (s *Server) handleDeleteTimeEntry(c *gin.Context) {
	if err := s.service.DeleteTimeEntry(c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Daily plan

func (s *Server) handlePlanSummary(c *gin.Context) {
	summary, err := s.service.PlanSummary()
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handlePlanDay(c *gin.Context) {
	day, err := s.service.PlanDay(c.Param("date"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

func (s *Server) handleAddPlanItem(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	item, err := s.service.AddPlanItem(c.Param("date"), req.Content)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) handlePatchPlanItem(c *gin.Context) {
	var req planPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	item, err := s.service.PatchPlanItem(c.Param("id"), store.PlanItemPatch{
		Content:  req.Content,
		Done:     req.Done,
		Position: req.Position,
		PlanDate: req.PlanDate,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) handleTogglePlanItem(c *gin.Context) {
	item, err := s.service.TogglePlanItem(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) handleDeletePlanItem(c *gin.Context) {
	if err := s.service.DeletePlanItem(c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
