package handlers

import (
	"pump-control-backend/internal/logger"
	"pump-control-backend/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	hub      *Hub
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies. hub may be nil
// when no observer fan-out is wired (tests).
func NewHandler(services *service.Service, hub *Hub, log *logger.Logger) *Handler {
	return &Handler{services: services, hub: hub, log: log}
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

	// Versioned operator API (protected)
	h.registerAPIRoutes(router)

	// Device-facing endpoints (polling MCUs; no bearer tokens, rate limited)
	h.registerDeviceRoutes(router)

	// Observer WebSocket fan-out, same port
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
		h.registerMotorRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerMotorRoutes(api *gin.RouterGroup) {
	motor := api.Group("/motor")
	{
		motor.GET("/state", h.getMotorState)
		motor.GET("/states", h.getAllMotorStates)
		// Body example: {"action":"target","target_level":18,"reason":"manual top-up"}
		motor.POST("/command", h.issueCommand)
		motor.POST("/override", h.setOverride)
		motor.POST("/sensor-check", h.forceSensorCheck)
		motor.GET("/pause-status", h.getPauseStatus)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}

func (h *Handler) registerDeviceRoutes(r *gin.Engine) {
	device := r.Group("/device", deviceRateLimiter())
	{
		device.GET("/:device_id/command", h.pollCommand)
		device.POST("/:device_id/command/ack", h.ackCommand)
		device.POST("/heartbeat", h.heartbeat)
		device.POST("/:device_id/sensors", h.ingestSensors)
	}
}
