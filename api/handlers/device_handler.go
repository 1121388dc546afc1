// api/handlers/device_handler.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"example.com/guardian/services/monitor/internal/models"
	"example.com/guardian/services/monitor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DeviceHandler handles device-related requests
type DeviceHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewDeviceHandler creates a new DeviceHandler instance
func NewDeviceHandler(svc service.Service, log *logrus.Logger) *DeviceHandler {
	return &DeviceHandler{
		service: svc,
		log:     log,
	}
}

// RegisterDevice handles binding a hardware UID to an owner
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	var reg models.DeviceRegistration
	if err := c.ShouldBindJSON(&reg); err != nil {
		h.log.WithError(err).Warn("Invalid registration format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid registration format",
		})
		return
	}

	if err := h.service.RegisterDevice(c, &reg); err != nil {
		h.respondError(c, err, "Failed to register device")
		return
	}

	c.JSON(http.StatusCreated, reg)
}

// GetDevice handles device registration lookup by hardware UID
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	reg, err := h.service.GetDeviceByUID(c, c.Param("deviceUid"))
	if err != nil {
		h.respondError(c, err, "Failed to get device")
		return
	}

	c.JSON(http.StatusOK, reg)
}

// deviceReadingRequest is the ingestion payload sent by the wearable itself.
// The owner is resolved from the registered device UID, never trusted from
// the body.
type deviceReadingRequest struct {
	DistanceCm      float64          `json:"distance_cm"`
	BatteryLevel    *int             `json:"battery_level"`
	Location        *models.Location `json:"location" binding:"required"`
	FirmwareVersion string           `json:"firmware_version"`
	Timestamp       time.Time        `json:"timestamp"`
}

// ReceiveReading handles telemetry ingestion from a registered device
func (h *DeviceHandler) ReceiveReading(c *gin.Context) {
	var req deviceReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithError(err).Warn("Invalid reading format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid reading format",
		})
		return
	}

	result, err := h.service.IngestDeviceReading(c, c.Param("deviceUid"), service.IngestInput{
		DistanceCm:      req.DistanceCm,
		BatteryLevel:    req.BatteryLevel,
		Location:        req.Location,
		FirmwareVersion: req.FirmwareVersion,
		Timestamp:       req.Timestamp,
	})
	if err != nil {
		h.respondError(c, err, "Failed to ingest reading")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// deviceTriggerRequest is the emergency declaration payload sent by the
// wearable's panic button
type deviceTriggerRequest struct {
	Location models.Location `json:"location" binding:"required"`
}

// TriggerEmergency handles an emergency declaration from a registered device
func (h *DeviceHandler) TriggerEmergency(c *gin.Context) {
	var req deviceTriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithError(err).Warn("Invalid trigger format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid trigger format",
		})
		return
	}

	result, err := h.service.TriggerDeviceEmergency(c, c.Param("deviceUid"), req.Location)
	if err != nil {
		h.respondError(c, err, "Failed to trigger emergency")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"event":          result.Event,
		"notified_count": result.NotifiedCount,
	})
}

func (h *DeviceHandler) respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.WithError(err).Error(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
