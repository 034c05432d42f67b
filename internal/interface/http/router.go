package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moodmirror/moodmirror/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.CORS.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
	)

	limited := rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger)

	router.GET("/", handler.Root)
	router.GET("/healthz", handler.Health)
	router.POST("/recommend", limited, handler.Recommend)

	api := router.Group("/api/v1")
	{
		api.POST("/moods", limited, handler.SubmitMood)
		api.GET("/status", handler.Status)
		api.GET("/intents", handler.Intents)
		api.GET("/metrics", handler.Metrics)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
