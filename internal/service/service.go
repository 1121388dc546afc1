package service

import (
	"context"
	"errors"
	"time"

	"example.com/guardian/services/monitor/config"
	"example.com/guardian/services/monitor/internal/cache"
	"example.com/guardian/services/monitor/internal/models"
	"example.com/guardian/services/monitor/internal/notification"
	"example.com/guardian/services/monitor/internal/repository"

	"github.com/sirupsen/logrus"
)

// Service defines the business logic operations
type Service interface {
	// Telemetry ingestion and liveness
	IngestReading(ctx context.Context, input IngestInput) (*IngestResult, error)
	IngestDeviceReading(ctx context.Context, deviceUID string, input IngestInput) (*IngestResult, error)
	EnqueueReading(input IngestInput) error
	QueueStats() map[string]interface{}
	ReadingsForOwner(ctx context.Context, ownerID uint, limit int) ([]models.TelemetryReading, error)
	LatestSnapshot(ctx context.Context, ownerID uint) (*IngestResult, error)
	ConnectivityForOwner(ctx context.Context, ownerID uint, now time.Time) (*ConnectivityStatus, error)

	// Device registration
	RegisterDevice(ctx context.Context, reg *models.DeviceRegistration) error
	GetDeviceByUID(ctx context.Context, deviceUID string) (*models.DeviceRegistration, error)

	// Caregiver directory
	LinkedCaregivers(ctx context.Context, ownerID uint) ([]models.Caregiver, error)
	LinkCaregiver(ctx context.Context, ownerID, caregiverID uint) error
	UnlinkCaregiver(ctx context.Context, ownerID, caregiverID uint) error

	// Emergency lifecycle
	TriggerEmergency(ctx context.Context, ownerID uint, loc models.Location, source models.ReadingSource) (*TriggerResult, error)
	TriggerDeviceEmergency(ctx context.Context, deviceUID string, loc models.Location) (*TriggerResult, error)
	ResolveEmergency(ctx context.Context, eventID string, actor models.Actor) (*models.EmergencyEvent, error)
	ResumeFanout(ctx context.Context, eventID string) (*models.EmergencyEvent, error)
	GetEvent(ctx context.Context, eventID string) (*models.EmergencyEvent, error)
	EventsForOwner(ctx context.Context, ownerID uint) ([]models.EmergencyEvent, error)
	ActiveEventsForOwner(ctx context.Context, ownerID uint) ([]models.EmergencyEvent, error)

	// FollowUpSweep re-attempts fan-out for unresolved events; invoked by
	// the worker scheduler
	FollowUpSweep(ctx context.Context) error

	// Shutdown drains the ingest queue workers
	Shutdown() error
}

// service is an implementation of the Service interface
type service struct {
	repo       repository.Repository
	cache      cache.RedisClient
	log        *logrus.Logger
	thresholds config.ThresholdConfig
	fanout     *Fanout
	queue      *ingestQueue
}

// ServiceConfig holds the configuration for the service
type ServiceConfig struct {
	Repository   repository.Repository
	Cache        cache.RedisClient
	EmailChannel notification.Channel
	PushChannel  notification.Channel
	Logger       *logrus.Logger
	Thresholds   config.ThresholdConfig
	Fanout       config.FanoutConfig

	// IngestWorkers sizes the asynchronous ingest queue worker pool
	IngestWorkers int
}

// NewService creates a new service instance
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.Repository == nil {
		return nil, errors.New("repository is required")
	}
	if cfg.EmailChannel == nil {
		return nil, errors.New("email channel is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New() // Default logger
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if cfg.Fanout.MaxConcurrent <= 0 {
		cfg.Fanout.MaxConcurrent = 8
	}
	if cfg.Fanout.PerRecipientTimeout <= 0 {
		cfg.Fanout.PerRecipientTimeout = 5 * time.Second
	}
	if cfg.IngestWorkers <= 0 {
		cfg.IngestWorkers = 4
	}

	svc := &service{
		repo:       cfg.Repository,
		cache:      cfg.Cache,
		log:        cfg.Logger,
		thresholds: cfg.Thresholds,
		fanout: NewFanout(
			cfg.EmailChannel,
			cfg.PushChannel,
			cfg.Fanout.MaxConcurrent,
			cfg.Fanout.PerRecipientTimeout,
			cfg.Logger,
		),
	}
	svc.queue = newIngestQueue(svc, cfg.IngestWorkers)

	return svc, nil
}

// EnqueueReading adds a sample to the asynchronous ingest queue
func (s *service) EnqueueReading(input IngestInput) error {
	return s.queue.enqueue(input)
}

// QueueStats returns current ingest queue statistics
func (s *service) QueueStats() map[string]interface{} {
	return s.queue.stats()
}

// Shutdown drains the ingest queue workers
func (s *service) Shutdown() error {
	s.queue.stop()
	return nil
}

// RegisterDevice binds a device UID to an owner after checking the owner exists
func (s *service) RegisterDevice(ctx context.Context, reg *models.DeviceRegistration) error {
	if reg.DeviceUID == "" {
		return errInvalid("device uid is required")
	}
	if _, err := s.ownerOrNotFound(ctx, reg.OwnerID); err != nil {
		return err
	}

	if err := s.repo.CreateDeviceRegistration(ctx, reg); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return errInvalid("device uid already registered")
		}
		return err
	}

	s.log.WithFields(logrus.Fields{
		"device_uid": reg.DeviceUID,
		"owner_id":   reg.OwnerID,
	}).Info("Device registered")
	return nil
}

// GetDeviceByUID returns the registration for a device UID
func (s *service) GetDeviceByUID(ctx context.Context, deviceUID string) (*models.DeviceRegistration, error) {
	reg, err := s.repo.FindDeviceByUID(ctx, deviceUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errNotFound("device %s", deviceUID)
		}
		return nil, err
	}
	return reg, nil
}

// LinkedCaregivers returns the caregivers linked to an owner
func (s *service) LinkedCaregivers(ctx context.Context, ownerID uint) ([]models.Caregiver, error) {
	caregivers, err := s.repo.LinkedCaregivers(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errNotFound("owner %d", ownerID)
		}
		return nil, err
	}
	return caregivers, nil
}

// LinkCaregiver links a caregiver to an owner
func (s *service) LinkCaregiver(ctx context.Context, ownerID, caregiverID uint) error {
	if err := s.repo.LinkCaregiver(ctx, ownerID, caregiverID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errNotFound("owner %d or caregiver %d", ownerID, caregiverID)
		}
		return err
	}
	return nil
}

// UnlinkCaregiver removes a caregiver link from an owner
func (s *service) UnlinkCaregiver(ctx context.Context, ownerID, caregiverID uint) error {
	if err := s.repo.UnlinkCaregiver(ctx, ownerID, caregiverID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errNotFound("owner %d or caregiver %d", ownerID, caregiverID)
		}
		return err
	}
	return nil
}

// ownerOrNotFound loads an owner, converting the repository sentinel into
// the service taxonomy
func (s *service) ownerOrNotFound(ctx context.Context, ownerID uint) (*models.Owner, error) {
	owner, err := s.repo.FindOwnerByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errNotFound("owner %d", ownerID)
		}
		return nil, err
	}
	return owner, nil
}
