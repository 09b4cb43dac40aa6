package webserver

import (
	"fmt"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func attachRoutes(r *gin.Engine, deps Deps) error {
	corsCfg := corsConfig(deps.Config.AllowedOrigins)
	if err := corsCfg.Validate(); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	r.Use(cors.New(corsCfg))

	msgH := NewMessages(deps.Store, deps.Notifier)

	api := r.Group("/api")
	{
		api.GET("/health", Health)
		api.POST("/contact", RateLimitMiddleware(deps.Limiter), msgH.Create)
		api.GET("/messages", AdminKeyMiddleware(deps.Config.AdminAPIKey), msgH.List)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return nil
}

// corsConfig allows any origin when none are configured. Credentials are only
// allowed with an explicit origin list.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-API-Key", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Retry-After", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
