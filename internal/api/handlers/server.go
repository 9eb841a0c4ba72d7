// Package handlers serves the health and diagnostics endpoints.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rollworks.io/erp/internal/diagnostics"
	apperrors "rollworks.io/erp/internal/pkg/errors"
	"rollworks.io/erp/internal/pkg/logger"
)

// Diagnoser is satisfied by *diagnostics.Checker.
type Diagnoser interface {
	Ready(ctx context.Context) error
	Run(ctx context.Context) diagnostics.Report
}

// Server holds handler dependencies.
type Server struct {
	diag Diagnoser
}

// NewServer creates a Server.
func NewServer(diag Diagnoser) *Server {
	return &Server{diag: diag}
}

// Register mounts every route on r.
func (s *Server) Register(r gin.IRouter) {
	r.GET("/health/live", s.GetLiveness)
	r.GET("/health/ready", s.GetReadiness)
	r.GET("/diagnostics", s.GetDiagnostics)
	r.GET("/log/level", s.GetLogLevel)
	r.PUT("/log/level", s.PutLogLevel)
}

// GetLiveness handles GET /health/live.
func (s *Server) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": diagnostics.StatusOK})
}

// GetReadiness handles GET /health/ready.
func (s *Server) GetReadiness(c *gin.Context) {
	if err := s.diag.Ready(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": diagnostics.StatusDown,
			"checks": gin.H{"database": "error"},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": diagnostics.StatusOK,
		"checks": gin.H{"database": "ok"},
	})
}

// GetDiagnostics handles GET /diagnostics. A degraded report is still 200;
// only an unreachable database answers 503.
func (s *Server) GetDiagnostics(c *gin.Context) {
	report := s.diag.Run(c.Request.Context())
	status := http.StatusOK
	if report.Status == diagnostics.StatusDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

type logLevelBody struct {
	Level string `json:"level" binding:"required"`
}

// GetLogLevel handles GET /log/level.
func (s *Server) GetLogLevel(c *gin.Context) {
	c.JSON(http.StatusOK, logLevelBody{Level: logger.GetLevel().String()})
}

// PutLogLevel handles PUT /log/level.
func (s *Server) PutLogLevel(c *gin.Context) {
	var body logLevelBody
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeInvalidLogLevel, "body must be {\"level\": \"debug|info|warn|error\"}"))
		return
	}
	if err := logger.SetLevel(body.Level); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeInvalidLogLevel, "unknown log level "+body.Level))
		return
	}
	logger.Info("Log level changed", zap.String("level", body.Level))
	c.JSON(http.StatusOK, logLevelBody{Level: logger.GetLevel().String()})
}
