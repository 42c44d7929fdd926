package handlers

import (
	"finbridge/internal/logger"
	"finbridge/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// WebSocket entity push — same port
	router.GET("/ws", h.wsConnect)

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
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerEntityRoutes(api)
		h.registerSystemRoutes(api)
	}
}

func (h *Handler) registerEntityRoutes(api *gin.RouterGroup) {
	api.GET("/sensors", h.getSensors)
	api.GET("/sensors/:id", h.getSensor)
	api.GET("/calendar", h.getCalendar)
	api.GET("/calendar/next", h.getNextEvent)
}

func (h *Handler) registerSystemRoutes(api *gin.RouterGroup) {
	api.GET("/status", h.getStatus)
	api.GET("/history", h.getHistory)
	api.POST("/refresh", h.refresh)
	api.POST("/setup/test", h.testSetup)
}
