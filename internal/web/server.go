// Package web exposes the worker's read-only HTTP surface: a health
// probe and submission status lookup.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gavel/internal/model"
	"gavel/internal/queue"
	appErr "gavel/pkg/errors"
)

// Server is the status HTTP server.
type Server struct {
	submissions model.SubmissionsModel
	queue       queue.JobQueue
	httpServer  *http.Server
}

// Config holds the HTTP server settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewServer builds the server; Start must be called to serve.
func NewServer(cfg Config, submissions model.SubmissionsModel, q queue.JobQueue) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{submissions: submissions, queue: q}

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", s.healthz)
	router.GET("/api/v1/submissions/:id", s.getSubmission)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Start serves until Shutdown; it returns http.ErrServerClosed on a
// clean shutdown.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.queue.Ping(ctx); err != nil {
		fail(c, appErr.Wrapf(err, appErr.ServiceUnavailable, "queue unreachable"))
		return
	}
	success(c, gin.H{"status": "ok"})
}

func (s *Server) getSubmission(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		fail(c, appErr.ValidationError("id", "required"))
		return
	}
	sub, err := s.submissions.FindOne(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, sub)
}
