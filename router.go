package main

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"notesync/config"
	"notesync/handler"
	"notesync/middleware"
	"notesync/usecase"
)

func setupRouter(cfg *config.Config, notesService *usecase.NotesService, health map[string]handler.HealthCheck, logger *slog.Logger) *gin.Engine {
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.RequestTracingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))
	router.Use(middleware.RateLimitMiddleware(cfg.Server.RateLimit, cfg.Server.RateBurst))
	router.Use(middleware.RequestSizeLimiter(cfg.Server.MaxBodyBytes))

	router.GET("/healthz", handler.HealthHandler(health))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected routes (authentication required)
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
	{
		notes := protected.Group("/notes")
		notes.Use(middleware.CacheControlMiddleware("no-store"))
		handler.RegisterNoteRoutes(notes, notesService)
	}

	return router
}
