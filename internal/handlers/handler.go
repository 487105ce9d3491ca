package handlers

import (
	"homenode/internal/logger"
	"homenode/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services    *service.Service
	log         *logger.Logger
	wwwDir      string
	authEnabled bool
	restart     chan<- struct{}
}

// Options tunes the optional parts of the HTTP surface.
type Options struct {
	WWWDir      string
	AuthEnabled bool
	// Restart receives one value when POST /api/restart is accepted.
	Restart chan<- struct{}
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts Options) *Handler {
	return &Handler{
		services:    services,
		log:         log,
		wwwDir:      opts.WWWDir,
		authEnabled: opts.AuthEnabled,
		restart:     opts.Restart,
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Auth endpoints
	h.registerAuthRoutes(router)

	// API endpoints (protected only when auth is enabled)
	h.registerAPIRoutes(router)

	// WebSocket state stream (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	// Everything else is the dashboard: static files with SPA fallback.
	router.NoRoute(h.serveStatic)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	var api *gin.RouterGroup
	if h.authEnabled {
		api = r.Group("/api", h.userIdMiddleware)
	} else {
		api = r.Group("/api")
	}
	{
		api.GET("/status", h.getStatus)
		api.GET("/sensors", h.getSensors)
		api.GET("/relays/config", h.getRelayConfig)
		api.POST("/relays/config", h.replaceRelayConfig)
		api.POST("/relays/control", h.controlRelay)
		api.POST("/validate-rule", h.validateRule)
		api.GET("/gpio/available", h.getAvailablePins)
		api.POST("/restart", h.postRestart)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
		logs.GET("", h.getLogs)
	}
}
