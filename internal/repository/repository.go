package repository

import (
	"context"
	"time"

	"example.com/guardian/services/monitor/internal/database"
	"example.com/guardian/services/monitor/internal/models"
)

// Repository provides data access methods
type Repository interface {
	// Owner and caregiver directory
	CreateOwner(ctx context.Context, owner *models.Owner) error
	CreateCaregiver(ctx context.Context, caregiver *models.Caregiver) error
	FindOwnerByID(ctx context.Context, id uint) (*models.Owner, error)
	LinkedCaregivers(ctx context.Context, ownerID uint) ([]models.Caregiver, error)
	FindCaregiverByID(ctx context.Context, id uint) (*models.Caregiver, error)
	LinkCaregiver(ctx context.Context, ownerID, caregiverID uint) error
	UnlinkCaregiver(ctx context.Context, ownerID, caregiverID uint) error
	UpdateOwnerSnapshot(ctx context.Context, reading *models.TelemetryReading) error

	// Device registration and liveness
	CreateDeviceRegistration(ctx context.Context, reg *models.DeviceRegistration) error
	FindDeviceByUID(ctx context.Context, deviceUID string) (*models.DeviceRegistration, error)
	DeviceStateForOwner(ctx context.Context, ownerID uint) (*models.DeviceRegistration, error)
	AdvanceHeartbeat(ctx context.Context, ownerID uint, at time.Time, firmwareVersion string) error

	// Telemetry readings (append-only)
	CreateReading(ctx context.Context, reading *models.TelemetryReading) error
	ReadingsForOwner(ctx context.Context, ownerID uint, limit int) ([]models.TelemetryReading, error)

	// Emergency events
	CreateEvent(ctx context.Context, event *models.EmergencyEvent) error
	FindEventByID(ctx context.Context, eventID string) (*models.EmergencyEvent, error)
	EventsForOwner(ctx context.Context, ownerID uint) ([]models.EmergencyEvent, error)
	ActiveEventsForOwner(ctx context.Context, ownerID uint) ([]models.EmergencyEvent, error)
	ListUnresolvedEvents(ctx context.Context, limit int) ([]models.EmergencyEvent, error)
	AppendNotification(ctx context.Context, record *models.NotificationRecord) error
	MarkEventNotified(ctx context.Context, eventID string) error
	ResolveEvent(ctx context.Context, eventID string, resolvedBy *uint, at time.Time) (bool, error)
}

// repo is an implementation of the Repository interface
type repo struct {
	db database.DB
}

// NewRepository creates a new repository instance
func NewRepository(db database.DB) Repository {
	return &repo{
		db: db,
	}
}
