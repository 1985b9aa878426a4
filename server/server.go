package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThomasVuNguyen/sim/engine/sandbox"
	"github.com/ThomasVuNguyen/sim/engine/sandbox/delegate"
	"github.com/ThomasVuNguyen/sim/pkg/config"
	"github.com/ThomasVuNguyen/sim/pkg/logger"
	"github.com/gin-gonic/gin"
)

// DelegateExecutor is the outbound contract to the elevated sandbox service.
type DelegateExecutor interface {
	Execute(ctx context.Context, req *sandbox.ExecutionRequest) (*sandbox.ExecutionResult, error)
}

// Server wires the execution engine into an HTTP surface. It is the
// orchestrating caller that catches delegation signals and re-routes them.
type Server struct {
	cfg      *config.Config
	log      logger.Logger
	engine   *sandbox.Service
	delegate DelegateExecutor
}

// New builds a server from service configuration. The delegate client is only
// constructed when a delegate URL is configured.
func New(cfg *config.Config, log logger.Logger) *Server {
	engine := sandbox.NewService(
		sandbox.WithDefaultTimeout(cfg.Execution.DefaultTimeout),
		sandbox.WithMaxTimeout(cfg.Execution.MaxTimeout),
	)
	s := &Server{cfg: cfg, log: log, engine: engine}
	if cfg.Delegate.URL != "" {
		s.delegate = delegate.NewClient(&delegate.Config{
			BaseURL: cfg.Delegate.URL,
			Token:   cfg.Delegate.Token,
			Timeout: cfg.Delegate.RequestTimeout,
		})
	}
	return s
}

// WithDelegate overrides the delegate executor. Intended for tests.
func (s *Server) WithDelegate(d DelegateExecutor) *Server {
	s.delegate = d
	return s
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	api := router.Group("/api/v1")
	api.POST("/execute", s.handleExecute)
	router.GET("/healthz", s.handleHealth)
	return router
}

// Start serves HTTP until the context is canceled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
