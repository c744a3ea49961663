package api

import (
	"net/http"
	"time"

	"convtest/app"
	"convtest/internal"
	"convtest/ports"

	"github.com/gin-gonic/gin"
)

// MaxReplications bounds the work a single replication request can ask for.
const MaxReplications = 100000

// Server exposes the experiment service as a JSON API
type Server struct {
	router  *gin.Engine
	service *app.ExperimentService
	writers map[string]ports.ReportWriter
	logger  *internal.Logger
}

// NewServer creates a server. Writers add formats to
// POST /v1/experiments?format=...; JSON is always available.
func NewServer(service *app.ExperimentService, logger *internal.Logger, ginMode string, writers ...ports.ReportWriter) *Server {
	if ginMode != "" {
		gin.SetMode(ginMode)
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	s := &Server{
		router:  gin.New(),
		service: service,
		writers: make(map[string]ports.ReportWriter, len(writers)),
		logger:  logger,
	}
	for _, w := range writers {
		s.writers[w.Format()] = w
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("[API] %s %s -> %d in %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	})
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	v1 := s.router.Group("/v1")
	v1.POST("/estimate", s.handleEstimate)
	v1.POST("/ztest", s.handleZTest)
	v1.POST("/experiments", s.handleExperiment)
	v1.POST("/analyses", s.handleAnalysis)
	v1.POST("/replications", s.handleReplication)
}

// Handler returns the underlying http.Handler, for tests and custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting convtest API on http://%s", addr)
	return s.router.Run(addr)
}
