// Package httpapi serves the review operations over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/lingua/internal/logger"
)

type RouterConfig struct {
	Handler *Handler
	Logger  *logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(attachTraceContext())
	r.Use(requestLogger(log))

	h := cfg.Handler
	r.GET("/healthz", h.Health)

	learners := r.Group("/v1/learners/:learner")
	{
		learners.GET("/due", h.DueItems)
		learners.POST("/sessions", h.StartSession)
		learners.GET("/stats", h.Stats)

		items := learners.Group("/items/:item")
		items.GET("", h.SchedulingState)
		items.GET("/history", h.History)
		items.POST("/reviews", h.SubmitReview)
		items.POST("/suspend", h.Suspend)
		items.POST("/unsuspend", h.Unsuspend)
	}
	return r
}

type Server struct {
	Engine *gin.Engine
	log    *logger.Logger
}

func NewServer(cfg RouterConfig) *Server {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Server{Engine: NewRouter(cfg), log: log}
}

// Run serves on address until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func (s *Server) Run(ctx context.Context, address string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
