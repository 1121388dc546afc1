// api/handlers/owner_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"example.com/guardian/services/monitor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// OwnerHandler handles owner and caregiver link requests
type OwnerHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewOwnerHandler creates a new OwnerHandler instance
func NewOwnerHandler(svc service.Service, log *logrus.Logger) *OwnerHandler {
	return &OwnerHandler{
		service: svc,
		log:     log,
	}
}

// ListCaregivers handles listing the caregivers linked to an owner
func (h *OwnerHandler) ListCaregivers(c *gin.Context) {
	ownerID, ok := h.ownerIDParam(c)
	if !ok {
		return
	}

	caregivers, err := h.service.LinkedCaregivers(c, ownerID)
	if err != nil {
		h.respondError(c, err, "Failed to list caregivers")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(caregivers),
		"data":  caregivers,
	})
}

// LinkCaregiver handles linking a caregiver to an owner
func (h *OwnerHandler) LinkCaregiver(c *gin.Context) {
	ownerID, ok := h.ownerIDParam(c)
	if !ok {
		return
	}

	var req struct {
		CaregiverID uint `json:"caregiver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.service.LinkCaregiver(c, ownerID, req.CaregiverID); err != nil {
		h.respondError(c, err, "Failed to link caregiver")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"owner_id":     ownerID,
		"caregiver_id": req.CaregiverID,
	})
}

// UnlinkCaregiver handles removing a caregiver link from an owner
func (h *OwnerHandler) UnlinkCaregiver(c *gin.Context) {
	ownerID, ok := h.ownerIDParam(c)
	if !ok {
		return
	}

	caregiverID, err := strconv.ParseUint(c.Param("caregiverId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid caregiver ID",
		})
		return
	}

	if err := h.service.UnlinkCaregiver(c, ownerID, uint(caregiverID)); err != nil {
		h.respondError(c, err, "Failed to unlink caregiver")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"owner_id":     ownerID,
		"caregiver_id": caregiverID,
	})
}

func (h *OwnerHandler) ownerIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("ownerId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid owner ID",
		})
		return 0, false
	}
	return uint(id), true
}

func (h *OwnerHandler) respondError(c *gin.Context, err error, msg string) {
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
