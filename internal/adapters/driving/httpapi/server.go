// Package httpapi exposes policy sessions over a JSON HTTP API built on gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/clausewise/internal/core/ports/driving"
)

// DefaultAddr is the listen address used when none is given.
const DefaultAddr = "127.0.0.1:8080"

// MaxUploadBytes caps multipart policy uploads.
const MaxUploadBytes = 50 << 20

// Server serves the policy API.
type Server struct {
	policy driving.PolicyService
	engine *gin.Engine
	mcp    http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithMCPHandler mounts an MCP streamable HTTP handler at /mcp.
func WithMCPHandler(h http.Handler) Option {
	return func(s *Server) {
		s.mcp = h
	}
}

// NewServer builds the router around policy.
func NewServer(policy driving.PolicyService, opts ...Option) (*Server, error) {
	if policy == nil {
		return nil, errors.New("httpapi: policy service is required")
	}

	s := &Server{policy: policy}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger())
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &sessionHandler{policy: s.policy}

	v1 := r.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.GET("", h.List)
			sessions.POST("", h.Create)
			sessions.GET("/:id", h.Get)
			sessions.DELETE("/:id", h.Delete)
			sessions.GET("/:id/clauses", h.Clauses)
			sessions.GET("/:id/terms", h.KeyTerms)
			sessions.POST("/:id/analysis", h.Analyze)
			sessions.POST("/:id/query", h.Query)
			sessions.GET("/:id/report", h.Report)
		}
	}

	if s.mcp != nil {
		r.Any("/mcp", gin.WrapH(s.mcp))
	}

	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
