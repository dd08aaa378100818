// Package server exposes the story pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/forPelevin/reelforge/internal/logging"
	"github.com/forPelevin/reelforge/internal/ports"
	"github.com/forPelevin/reelforge/internal/usecase"
)

// Stories runs and looks up story videos.
type Stories interface {
	Generate(ctx context.Context, requestID, title, content string) (usecase.StoryResult, error)
	Lookup(ctx context.Context, requestID string) (usecase.StoryResult, error)
}

type Options struct {
	AllowOrigins []string
	Logger       *slog.Logger
	// NewID returns request ids; defaults to random UUIDs.
	NewID func() string
}

type Server struct {
	stories Stories
	log     *slog.Logger
	newID   func() string
	engine  *gin.Engine
}

type generateRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func New(stories Stories, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		stories: stories,
		log:     logging.OrDiscard(opts.Logger),
		newID:   opts.NewID,
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())
	r.Use(cors.New(corsConfig(opts.AllowOrigins)))

	r.GET("/health", s.health)
	r.POST("/generate-video", s.generate)
	r.GET("/videos/:request_id", s.video)
	s.engine = r
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}

// generate handles POST /generate-video. Rendering happens inside the
// request.
func (s *Server) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": usecase.ErrMissingStoryFields.Error()})
		return
	}

	id := s.newID()
	res, err := s.stories.Generate(c.Request.Context(), id, req.Title, req.Content)
	if err != nil {
		s.log.Error("story generation failed", "request_id", id, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrInvalidStory) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error(), "request_id": id})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) video(c *gin.Context) {
	id := c.Param("request_id")
	res, err := s.stories.Lookup(c.Request.Context(), id)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
	case err != nil:
		s.log.Error("video lookup failed", "request_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, res)
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
