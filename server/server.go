// Package server exposes an agent's capabilities over HTTP: task and module
// introspection, learning and chat. It is a front end consuming the agent's
// bound actors; all registry semantics live below it.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DosakuNet/dosaku/agent"
	"github.com/DosakuNet/dosaku/core"
	"github.com/DosakuNet/dosaku/logging"
)

// Options configures the server.
type Options struct {
	Logger logging.Logger
}

// Server serves a single agent over HTTP.
type Server struct {
	agent  *agent.Agent
	router *gin.Engine
	logger logging.Logger
}

// New constructs a server around an agent.
func New(a *agent.Agent, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{agent: a, logger: opts.Logger}
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/tasks", s.handleTasks)
	router.GET("/tasks/:task/api", s.handleAPI)
	router.GET("/tasks/:task/doc", s.handleDoc)
	router.GET("/modules", s.handleModules)
	router.POST("/learn", s.handleLearn)
	router.POST("/chat", s.handleChat)
	s.router = router
	return s
}

// Router returns the underlying gin engine, mainly for tests and embedding.
func (s *Server) Router() *gin.Engine { return s.router }

// Run blocks serving on addr.
func (s *Server) Run(addr string) error {
	s.logger.Info("server.listen", "addr", addr)
	return s.router.Run(addr)
}

func (s *Server) handleTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"learnable": s.agent.LearnableTasks(),
		"known":     s.agent.KnownTasks(),
		"memorized": s.agent.MemorizedTasks(),
	})
}

func (s *Server) handleAPI(c *gin.Context) {
	api, err := s.agent.API(c.Param("task"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"api": api})
}

func (s *Server) handleDoc(c *gin.Context) {
	doc, err := s.agent.Doc(c.Param("task"), c.Query("action"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doc": doc})
}

func (s *Server) handleModules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"registered": s.agent.Manager().Modules(),
		"loaded":     s.agent.LoadedModules(),
	})
}

type learnRequest struct {
	Task         string         `json:"task" binding:"required"`
	Module       string         `json:"module"`
	ForceRelearn bool           `json:"force_relearn"`
	Config       map[string]any `json:"config"`
}

func (s *Server) handleLearn(c *gin.Context) {
	var req learnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var optFns []func(o *agent.LearnOptions)
	if req.Module != "" {
		optFns = append(optFns, agent.WithModule(req.Module))
	}
	if req.ForceRelearn {
		optFns = append(optFns, agent.WithForceRelearn())
	}
	if len(req.Config) > 0 {
		optFns = append(optFns, agent.WithConfig(core.Config(req.Config)))
	}

	if err := s.agent.Learn(req.Task, optFns...); err != nil {
		s.logger.Warn("server.learn_failed", "task", req.Task, "error", err.Error())
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": req.Task, "api": mustAPI(s.agent, req.Task)})
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.agent.Call(c.Request.Context(), "Chat", "message", map[string]any{"message": req.Message})
	if err != nil {
		abortWithError(c, err)
		return
	}
	text, err := core.AsText(result)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": text})
}

func mustAPI(a *agent.Agent, taskName string) []string {
	api, _ := a.API(taskName)
	return api
}

// abortWithError maps framework error kinds onto HTTP statuses: permission
// gates to 403, missing tasks/modules to 404, duplicates to 409.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var taskNotFound *core.TaskNotFoundError
	var moduleNotFound *core.ModuleForTaskNotFoundError
	var serviceRequired *core.ServicePermissionRequiredError
	var executorRequired *core.ExecutorPermissionRequiredError
	var duplicate *core.DuplicateRegistrationError

	switch {
	case errors.As(err, &taskNotFound), errors.As(err, &moduleNotFound):
		status = http.StatusNotFound
	case errors.As(err, &serviceRequired), errors.As(err, &executorRequired):
		status = http.StatusForbidden
	case errors.As(err, &duplicate):
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
