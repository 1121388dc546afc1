package routes

import (
	"example.com/guardian/services/monitor/api/handlers"
	"example.com/guardian/services/monitor/api/middleware"
	"example.com/guardian/services/monitor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRoutes sets up all the routes for the server
func SetupRoutes(r *gin.Engine, svc service.Service, log *logrus.Logger) {
	// Health check
	r.GET("/health", handlers.HealthCheck)

	// API routes
	api := r.Group("/api/v1")

	// Telemetry routes
	telemetryHandler := handlers.NewTelemetryHandler(svc, log)
	telemetry := api.Group("/telemetry")
	{
		telemetry.POST("/readings", telemetryHandler.SubmitReading)
		telemetry.POST("/readings/batch", telemetryHandler.SubmitBatchReadings)
		telemetry.GET("/stats/queue", telemetryHandler.GetQueueStats)
		telemetry.GET("/owner/:ownerId/readings", telemetryHandler.GetReadings)
		telemetry.GET("/owner/:ownerId/latest", telemetryHandler.GetLatest)
		telemetry.GET("/owner/:ownerId/connectivity", telemetryHandler.GetConnectivity)
	}

	// Device routes
	deviceHandler := handlers.NewDeviceHandler(svc, log)
	devices := api.Group("/devices")
	{
		devices.POST("", deviceHandler.RegisterDevice)
		devices.GET("/:deviceUid", deviceHandler.GetDevice)

		// Device-originated traffic
		devices.POST("/:deviceUid/readings", deviceHandler.ReceiveReading)
		devices.POST("/:deviceUid/emergency", deviceHandler.TriggerEmergency)
	}

	// Emergency lifecycle routes
	emergencyHandler := handlers.NewEmergencyHandler(svc, log)
	emergencies := api.Group("/emergencies")
	{
		emergencies.POST("", emergencyHandler.Trigger)
		emergencies.GET("/:id", emergencyHandler.GetEvent)
		emergencies.POST("/:id/resolve", middleware.RequireActor(), emergencyHandler.Resolve)
		emergencies.POST("/:id/fanout", emergencyHandler.ResumeFanout)
		emergencies.GET("/owner/:ownerId", emergencyHandler.ListForOwner)
	}

	// Owner and caregiver link routes
	ownerHandler := handlers.NewOwnerHandler(svc, log)
	owners := api.Group("/owners")
	{
		owners.GET("/:ownerId/caregivers", ownerHandler.ListCaregivers)
		owners.POST("/:ownerId/caregivers", ownerHandler.LinkCaregiver)
		owners.DELETE("/:ownerId/caregivers/:caregiverId", ownerHandler.UnlinkCaregiver)
	}
}
