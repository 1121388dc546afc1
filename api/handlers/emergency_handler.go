// api/handlers/emergency_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"example.com/guardian/services/monitor/api/middleware"
	"example.com/guardian/services/monitor/internal/models"
	"example.com/guardian/services/monitor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// EmergencyHandler handles emergency lifecycle requests
type EmergencyHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewEmergencyHandler creates a new EmergencyHandler instance
func NewEmergencyHandler(svc service.Service, log *logrus.Logger) *EmergencyHandler {
	return &EmergencyHandler{
		service: svc,
		log:     log,
	}
}

// triggerRequest is the manual emergency trigger payload
type triggerRequest struct {
	OwnerID  uint                 `json:"owner_id" binding:"required"`
	Location models.Location      `json:"location" binding:"required"`
	Source   models.ReadingSource `json:"source"`
}

// Trigger handles a manual emergency declaration from the app or web
func (h *EmergencyHandler) Trigger(c *gin.Context) {
	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithError(err).Warn("Invalid trigger format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid trigger format",
		})
		return
	}

	result, err := h.service.TriggerEmergency(c, req.OwnerID, req.Location, req.Source)
	if err != nil {
		h.respondError(c, err, "Failed to trigger emergency")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"event":          result.Event,
		"notified_count": result.NotifiedCount,
	})
}

// Resolve handles emergency resolution by an authorized actor
func (h *EmergencyHandler) Resolve(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Event ID is required",
		})
		return
	}

	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Actor identity required",
		})
		return
	}

	event, err := h.service.ResolveEmergency(c, eventID, actor)
	if err != nil {
		h.respondError(c, err, "Failed to resolve emergency")
		return
	}

	c.JSON(http.StatusOK, event)
}

// ResumeFanout retries notification delivery for caregivers not yet reached
func (h *EmergencyHandler) ResumeFanout(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Event ID is required",
		})
		return
	}

	event, err := h.service.ResumeFanout(c, eventID)
	if err != nil {
		h.respondError(c, err, "Failed to resume notification fan-out")
		return
	}

	c.JSON(http.StatusOK, event)
}

// GetEvent handles a single emergency event lookup
func (h *EmergencyHandler) GetEvent(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Event ID is required",
		})
		return
	}

	event, err := h.service.GetEvent(c, eventID)
	if err != nil {
		h.respondError(c, err, "Failed to get emergency event")
		return
	}

	c.JSON(http.StatusOK, event)
}

// ListForOwner handles the emergency history query for an owner
func (h *EmergencyHandler) ListForOwner(c *gin.Context) {
	ownerID, err := strconv.ParseUint(c.Param("ownerId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid owner ID",
		})
		return
	}

	var events []models.EmergencyEvent
	if c.Query("active") == "true" {
		events, err = h.service.ActiveEventsForOwner(c, uint(ownerID))
	} else {
		events, err = h.service.EventsForOwner(c, uint(ownerID))
	}
	if err != nil {
		h.respondError(c, err, "Failed to list emergency events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(events),
		"data":  events,
	})
}

func (h *EmergencyHandler) respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		h.log.WithError(err).Error(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
