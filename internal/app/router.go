package app

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"rollworks.io/erp/internal/api/handlers"
	"rollworks.io/erp/internal/api/middleware"
	"rollworks.io/erp/internal/config"
)

func newRouter(cfg *config.Config, server *handlers.Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(), middleware.ErrorHandler())
	if corsCfg, ok := buildCORSConfig(cfg); ok {
		router.Use(cors.New(corsCfg))
	}
	server.Register(router)
	return router
}

// buildCORSConfig returns false when no origin is allowed, in which case no
// CORS headers are sent. "*" allows every origin without credentials.
func buildCORSConfig(cfg *config.Config) (cors.Config, bool) {
	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		return cors.Config{}, false
	}

	c := cors.Config{
		AllowMethods:  []string{"GET", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		return c, true
	}
	c.AllowOrigins = slices.Clone(origins)
	c.AllowCredentials = true
	return c, true
}
