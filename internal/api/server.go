package api

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskdeck/taskdeck/internal/store"
	"github.com/taskdeck/taskdeck/static"
)

// Version is reported by the health endpoint.
const Version = "1.2.0"

// Server is the HTTP front end. It owns the router and the listener; all
// behavior lives in the Service.
type Server struct {
	service *Service
	store   *store.Store
	engine  *gin.Engine
	httpSrv *http.Server
}

// NewServer builds the router and wires every route. addr is the listen
// address, e.g. "127.0.0.1:8321".
func NewServer(service *Service, st *store.Store, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		service: service,
		store:   st,
		engine:  engine,
		httpSrv: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api")

	api.GET("/health", s.handleHealth)
	api.GET("/config", s.handleConfig)

	api.GET("/tasks", s.handleListTasks)
	api.POST("/tasks", s.handleCreateTask)
	api.GET("/tasks/:id", s.handleGetTask)
	api.PUT("/tasks/:id", s.handleRenameTask)
	api.PATCH("/tasks/:id/status", s.handleTaskStatus)
	api.PATCH("/tasks/:id/outcome", s.handleTaskOutcome)
	api.DELETE("/tasks/:id", s.handleDeleteTask)

	api.GET("/tasks/:id/updates", s.handleTaskFeed)
	api.POST("/tasks/:id/updates", s.handleAddUpdate)
	api.PUT("/updates/:id", s.handleEditUpdate)
	api.DELETE("/updates/:id", s.handleDeleteUpdate)

	api.POST("/tasks/:id/time/start", s.handleStartTimer)
	api.POST("/tasks/:id/time/stop", s.handleStopTimer)
	api.GET("/tasks/:id/time/summary/today", s.handleTaskTimeToday)
	api.GET("/time_entries/summary/today", s.handleTimeToday)
	api.POST("/time_entries/:id/trim", s.handleTrimTimeEntry)
	api.DELETE("/time_entries/:id", s.handleDeleteTimeEntry)

	api.GET("/daily_plans/summary", s.handlePlanSummary)
	api.GET("/daily_plans/:date", s.handlePlanDay)
	api.POST("/daily_plans/:date/items", s.handleAddPlanItem)
	api.PATCH("/daily_plan_items/:id", s.handlePatchPlanItem)
	api.POST("/daily_plan_items/:id/toggle", s.handleTogglePlanItem)
	api.DELETE("/daily_plan_items/:id", s.handleDeletePlanItem)

	s.engine.NoRoute(s.handleStatic())
}

// handleStatic serves the embedded web client. Unknown non-API paths fall
// back to index.html.
func (s *Server) handleStatic() gin.HandlerFunc {
	files := static.Files()
	fileServer := http.FileServer(http.FS(files))
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		name := strings.TrimPrefix(c.Request.URL.Path, "/")
		if name == "" {
			name = "index.html"
		}
		if _, err := fs.Stat(files, name); err != nil {
			c.Request.URL.Path = "/"
		}
		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Start begins serving and blocks until the listener stops.
func (s *Server) Start() error {
	err := s.httpSrv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	dbStatus := "ok"
	if err := s.store.Ping(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      dbStatus == "ok",
		"db":      dbStatus,
		"version": Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"time_tracking": s.service.TimeTrackingEnabled(),
	})
}
