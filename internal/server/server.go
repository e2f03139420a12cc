// Package server exposes the published dataset to the map frontend as a
// read-only JSON API.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ppiankov/nobelmap/internal/observability"
)

// Server runs the presentation API
type Server struct {
	provider *Provider
	origins  []string
	logger   *log.Entry
	metrics  *observability.Metrics
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a server. origins lists the allowed CORS origins;
// "*" allows any.
func NewServer(provider *Provider, origins []string, logger *log.Entry, metrics *observability.Metrics) *Server {
	if logger == nil {
		logger = observability.Logger("server")
	}
	return &Server{
		provider: provider,
		origins:  origins,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Infof("listening on %s, serving %s", addr, s.provider.Path())

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Router builds the route table
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.observe())
	r.Use(cors.New(s.corsConfig()))

	api := r.Group("/api")
	{
		api.GET("/laureates/:category", s.laureates)
		api.GET("/table", s.table)
		api.GET("/categories", s.categories)
		api.POST("/reload", s.reload)
	}

	r.GET("/healthz", s.healthz)
	r.GET("/readyz", s.readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range s.origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(s.origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = s.origins
	return cfg
}

// observe logs and counts every request by route template
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		if s.metrics != nil {
			s.metrics.APIRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		}

		entry := s.logger.WithFields(log.Fields{
			"status":  status,
			"latency": time.Since(start),
		})
		for _, err := range c.Errors {
			entry = entry.WithError(err)
		}
		if status >= http.StatusInternalServerError {
			entry.Warnf("%s %s", c.Request.Method, c.Request.URL.Path)
		} else {
			entry.Debugf("%s %s", c.Request.Method, c.Request.URL.Path)
		}
	}
}

func abortWithError(c *gin.Context, code int, message string, errs ...error) {
	for _, err := range errs {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(code, ErrorResponse{Error: message})
}
