// Package server exposes the validator over a JSON HTTP API
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"metadata-validator/internal/logger"
	"metadata-validator/internal/processor"
	"metadata-validator/internal/search"
	"metadata-validator/internal/service"
)

// DefaultMaxUploadBytes bounds the size of an uploaded file
const DefaultMaxUploadBytes = 50 << 20

// Server routes HTTP requests to the validator service
type Server struct {
	svc *service.Service
	log *logger.Logger

	// Gatherer backs /metrics; nil uses the default Prometheus registry
	Gatherer       prometheus.Gatherer
	MaxUploadBytes int64
	Version        string
}

// New creates a server for svc
func New(svc *service.Service, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		svc:            svc,
		log:            log.Component("http"),
		MaxUploadBytes: DefaultMaxUploadBytes,
		Version:        "dev",
	}
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.observe())

	metricsHandler := promhttp.Handler()
	if s.Gatherer != nil {
		metricsHandler = promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})
	}
	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(metricsHandler))

	api := router.Group("/api/v1")
	{
		// Uploads and stored datasets
		api.POST("/uploads/:kind", s.handleUpload)
		api.GET("/datasets/:kind", s.handleGetDataset)
		api.DELETE("/datasets/:kind", s.handleClearDataset)
		api.GET("/store", s.handleStore)

		// Policy
		api.GET("/policy/summary", s.handlePolicySummary)

		// Scoring and validation
		api.POST("/score", s.handleScore)
		api.POST("/validate/:kind", s.handleValidate)
		api.POST("/compare/:kind", s.handleCompare)

		api.GET("/search", s.handleSearch)
		api.POST("/export", s.handleExport)
	}
	return router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.LogServerStart(addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server error: %w", err)
	case <-ctx.Done():
	}

	s.log.LogServerShutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// observe records request metrics and logs each request at debug level
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.svc.Metrics.RecordHTTPRequest(c.Request.Method, route, status, time.Since(start))
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration_ms", time.Since(start)).
			Msg("Request served")
	}
}

// writeError maps service errors to HTTP status codes
func (s *Server) writeError(c *gin.Context, err error) {
	var decodeErr *processor.DecodeError
	switch {
	case errors.Is(err, processor.ErrUnsupportedExtension), errors.Is(err, search.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &decodeErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not parse file", "detail": err.Error()})
	case errors.Is(err, service.ErrEmptySlot):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoGenerator), errors.Is(err, service.ErrNoExporter):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusRequestTimeout, gin.H{"error": err.Error()})
	default:
		s.log.Error().Err(err).Str("route", c.FullPath()).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// kindParam parses the :kind path parameter, writing a 400 when invalid
func (s *Server) kindParam(c *gin.Context, allowed ...processor.Kind) (processor.Kind, bool) {
	kind, err := processor.ParseKind(c.Param("kind"))
	if err == nil && len(allowed) > 0 {
		err = fmt.Errorf("kind %q is not supported here", kind)
		for _, a := range allowed {
			if kind == a {
				err = nil
				break
			}
		}
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return kind, true
}

// formFile reads the "file" field of a multipart request
func (s *Server) formFile(c *gin.Context) (string, []byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return "", nil, false
	}
	if fh.Size > s.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", s.MaxUploadBytes)})
		return "", nil, false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.MaxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
		return "", nil, false
	}
	return fh.Filename, data, true
}
