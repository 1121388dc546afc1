// api/handlers/telemetry_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"example.com/guardian/services/monitor/internal/models"
	"example.com/guardian/services/monitor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TelemetryHandler handles telemetry ingestion and query requests
type TelemetryHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewTelemetryHandler creates a new TelemetryHandler instance
func NewTelemetryHandler(svc service.Service, log *logrus.Logger) *TelemetryHandler {
	return &TelemetryHandler{
		service: svc,
		log:     log,
	}
}

// readingRequest is the ingestion payload for app and web clients
type readingRequest struct {
	OwnerID         uint                 `json:"owner_id" binding:"required"`
	DistanceCm      float64              `json:"distance_cm"`
	BatteryLevel    *int                 `json:"battery_level"`
	Location        *models.Location     `json:"location" binding:"required"`
	Source          models.ReadingSource `json:"source"`
	FirmwareVersion string               `json:"firmware_version"`
	Timestamp       time.Time            `json:"timestamp"`
}

// SubmitReading handles telemetry ingestion from the app or web dashboard
func (h *TelemetryHandler) SubmitReading(c *gin.Context) {
	var req readingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithError(err).Warn("Invalid reading format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid reading format",
		})
		return
	}

	result, err := h.service.IngestReading(c, service.IngestInput{
		OwnerID:         req.OwnerID,
		DistanceCm:      req.DistanceCm,
		BatteryLevel:    req.BatteryLevel,
		Location:        req.Location,
		Source:          req.Source,
		FirmwareVersion: req.FirmwareVersion,
		Timestamp:       req.Timestamp,
	})
	if err != nil {
		h.respondError(c, err, "Failed to ingest reading")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// BatchReadingsRequest represents a batch of readings to ingest
type BatchReadingsRequest struct {
	Readings []readingRequest `json:"readings" binding:"required,min=1"`
}

// SubmitBatchReadings handles bulk telemetry uploads, typically backfills
// from devices that were offline. Samples are queued and stored
// asynchronously.
func (h *TelemetryHandler) SubmitBatchReadings(c *gin.Context) {
	var batchRequest BatchReadingsRequest
	if err := c.ShouldBindJSON(&batchRequest); err != nil {
		h.log.WithError(err).Warn("Invalid batch reading format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid batch reading format",
		})
		return
	}

	h.log.Infof("Received batch of %d readings", len(batchRequest.Readings))

	accepted := 0
	for _, req := range batchRequest.Readings {
		err := h.service.EnqueueReading(service.IngestInput{
			OwnerID:         req.OwnerID,
			DistanceCm:      req.DistanceCm,
			BatteryLevel:    req.BatteryLevel,
			Location:        req.Location,
			Source:          req.Source,
			FirmwareVersion: req.FirmwareVersion,
			Timestamp:       req.Timestamp,
		})
		if err != nil {
			h.log.WithError(err).Warn("Failed to enqueue reading")
			break
		}
		accepted++
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":      "accepted",
		"count":       accepted,
		"queue_stats": h.service.QueueStats(),
	})
}

// GetQueueStats returns statistics about the ingest queue
func (h *TelemetryHandler) GetQueueStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"stats":  h.service.QueueStats(),
	})
}

// GetReadings handles the reading-history query for an owner
func (h *TelemetryHandler) GetReadings(c *gin.Context) {
	ownerID, ok := h.ownerIDParam(c)
	if !ok {
		return
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid limit",
			})
			return
		}
		limit = parsed
	}

	readings, err := h.service.ReadingsForOwner(c, ownerID, limit)
	if err != nil {
		h.respondError(c, err, "Failed to list readings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(readings),
		"data":  readings,
	})
}

// GetLatest handles the latest-snapshot query for an owner
func (h *TelemetryHandler) GetLatest(c *gin.Context) {
	ownerID, ok := h.ownerIDParam(c)
	if !ok {
		return
	}

	snapshot, err := h.service.LatestSnapshot(c, ownerID)
	if err != nil {
		h.respondError(c, err, "Failed to get latest snapshot")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetConnectivity handles the derived device liveness query for an owner
func (h *TelemetryHandler) GetConnectivity(c *gin.Context) {
	ownerID, ok := h.ownerIDParam(c)
	if !ok {
		return
	}

	status, err := h.service.ConnectivityForOwner(c, ownerID, time.Now().UTC())
	if err != nil {
		h.respondError(c, err, "Failed to derive connectivity")
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *TelemetryHandler) ownerIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("ownerId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid owner ID",
		})
		return 0, false
	}
	return uint(id), true
}

func (h *TelemetryHandler) respondError(c *gin.Context, err error, msg string) {
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
