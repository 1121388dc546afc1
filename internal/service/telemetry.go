package service

import (
	"context"
	"errors"
	"time"

	"example.com/guardian/services/monitor/internal/cache"
	"example.com/guardian/services/monitor/internal/models"
	"example.com/guardian/services/monitor/internal/repository"
	"example.com/guardian/services/monitor/internal/utils"

	"github.com/sirupsen/logrus"
)

// defaultReadingLimit bounds the readings query when the caller gives no limit
const defaultReadingLimit = 100

// snapshotTTL bounds how long a cached telemetry snapshot is served
const snapshotTTL = 10 * time.Minute

// Severity is a threshold classification tier
type Severity string

const (
	// SeverityNone means the value is inside normal range
	SeverityNone Severity = "none"
	// SeverityWarning means the value crossed the warning threshold
	SeverityWarning Severity = "warning"
	// SeverityCritical means the value crossed the critical threshold
	SeverityCritical Severity = "critical"
)

// Classification is the derived severity of one reading. Informational only:
// it never triggers notifications by itself.
type Classification struct {
	Proximity Severity `json:"proximity"`
	Battery   Severity `json:"battery"`
}

// IngestInput is one telemetry sample submitted for an owner
type IngestInput struct {
	OwnerID         uint
	DistanceCm      float64
	BatteryLevel    *int
	Location        *models.Location
	Source          models.ReadingSource
	FirmwareVersion string
	Timestamp       time.Time
}

// IngestResult is the stored reading plus its derived classification
type IngestResult struct {
	Reading        *models.TelemetryReading `json:"reading"`
	Classification Classification           `json:"classification"`
}

// ConnectivityStatus is the derived device liveness for an owner
type ConnectivityStatus struct {
	OwnerID         uint       `json:"owner_id"`
	Connected       bool       `json:"connected"`
	LastHeartbeat   *time.Time `json:"last_heartbeat"`
	FirmwareVersion string     `json:"firmware_version,omitempty"`
}

// IngestReading validates and stores one telemetry sample, advances device
// liveness and classifies the sample against the configured thresholds
func (s *service) IngestReading(ctx context.Context, input IngestInput) (*IngestResult, error) {
	owner, err := s.ownerOrNotFound(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}

	reading, err := s.buildReading(input)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateReading(ctx, reading); err != nil {
		return nil, err
	}

	// Liveness follows the reading's own timestamp, not arrival order:
	// the repository applies the max rule so late arrivals cannot move
	// the heartbeat backwards.
	if err := s.repo.AdvanceHeartbeat(ctx, owner.ID, reading.Timestamp, input.FirmwareVersion); err != nil {
		s.log.WithError(err).WithField("owner_id", owner.ID).Warn("Failed to advance device heartbeat")
	}

	if err := s.repo.UpdateOwnerSnapshot(ctx, reading); err != nil {
		s.log.WithError(err).WithField("owner_id", owner.ID).Warn("Failed to update owner snapshot")
	}

	result := &IngestResult{
		Reading: reading,
		Classification: Classification{
			Proximity: s.classifyDistance(reading.DistanceCm),
			Battery:   s.classifyBattery(reading.BatteryLevel),
		},
	}

	s.cacheSnapshot(ctx, result)
	s.logClassification(owner.ID, result)

	return result, nil
}

// IngestDeviceReading resolves the device UID to the bound owner and ingests
// the sample as a device-originated reading
func (s *service) IngestDeviceReading(ctx context.Context, deviceUID string, input IngestInput) (*IngestResult, error) {
	reg, err := s.GetDeviceByUID(ctx, deviceUID)
	if err != nil {
		return nil, err
	}

	input.OwnerID = reg.OwnerID
	input.Source = models.SourceDevice
	input.FirmwareVersion = s.acceptedFirmware(reg, input.FirmwareVersion)
	return s.IngestReading(ctx, input)
}

// acceptedFirmware decides whether a reported firmware version should replace
// the registered one. Downgrades and unparseable versions are ignored so a
// stale or garbled report cannot corrupt the registration.
func (s *service) acceptedFirmware(reg *models.DeviceRegistration, reported string) string {
	if reported == "" || reported == reg.FirmwareVersion {
		return ""
	}
	if reg.FirmwareVersion == "" {
		return reported
	}

	upgrade, err := utils.IsValidVersionUpgrade(reg.FirmwareVersion, reported)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"device_uid": reg.DeviceUID,
			"reported":   reported,
		}).Debug("Ignoring unparseable firmware version")
		return ""
	}
	if !upgrade {
		return ""
	}
	return reported
}

// ReadingsForOwner returns the owner's reading history, newest first
func (s *service) ReadingsForOwner(ctx context.Context, ownerID uint, limit int) ([]models.TelemetryReading, error) {
	if _, err := s.ownerOrNotFound(ctx, ownerID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultReadingLimit
	}
	return s.repo.ReadingsForOwner(ctx, ownerID, limit)
}

// LatestSnapshot returns the owner's most recent reading with its
// classification, served from the cache when fresh and rebuilt from the
// reading history on a miss
func (s *service) LatestSnapshot(ctx context.Context, ownerID uint) (*IngestResult, error) {
	if _, err := s.ownerOrNotFound(ctx, ownerID); err != nil {
		return nil, err
	}

	if s.cache != nil {
		var cached IngestResult
		if err := s.cache.GetJSON(ctx, cache.SnapshotKey(ownerID), &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WithError(err).WithField("owner_id", ownerID).Debug("Telemetry snapshot cache read failed")
		}
	}

	readings, err := s.repo.ReadingsForOwner(ctx, ownerID, 1)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, errNotFound("no readings for owner %d", ownerID)
	}

	reading := readings[0]
	result := &IngestResult{
		Reading: &reading,
		Classification: Classification{
			Proximity: s.classifyDistance(reading.DistanceCm),
			Battery:   s.classifyBattery(reading.BatteryLevel),
		},
	}
	s.cacheSnapshot(ctx, result)

	return result, nil
}

// ConnectivityForOwner derives the connected flag from the stored heartbeat
// and the configured timeout. Nothing is ever written: a device that went
// silent simply stops qualifying.
func (s *service) ConnectivityForOwner(ctx context.Context, ownerID uint, now time.Time) (*ConnectivityStatus, error) {
	if _, err := s.ownerOrNotFound(ctx, ownerID); err != nil {
		return nil, err
	}

	status := &ConnectivityStatus{OwnerID: ownerID}

	reg, err := s.repo.DeviceStateForOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// No device registered: never connected, not an error
			return status, nil
		}
		return nil, err
	}

	status.LastHeartbeat = reg.LastHeartbeat
	status.FirmwareVersion = reg.FirmwareVersion
	if reg.LastHeartbeat != nil {
		status.Connected = now.Sub(*reg.LastHeartbeat) <= s.thresholds.HeartbeatTimeout
	}

	return status, nil
}

// buildReading validates the input and assembles the immutable reading row
func (s *service) buildReading(input IngestInput) (*models.TelemetryReading, error) {
	if input.DistanceCm < 0 {
		return nil, errInvalid("distance must be non-negative, got %.1f", input.DistanceCm)
	}
	if input.Location == nil {
		return nil, errInvalid("location is required")
	}

	battery := 100
	if input.BatteryLevel != nil {
		battery = *input.BatteryLevel
		if battery < 0 || battery > 100 {
			return nil, errInvalid("battery level must be within 0-100, got %d", battery)
		}
	}

	source := input.Source
	if source == "" {
		source = models.SourceApp
	}

	ts := input.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	accuracy := 10.0
	if input.Location.Accuracy != nil {
		accuracy = *input.Location.Accuracy
	}

	return &models.TelemetryReading{
		OwnerID:      input.OwnerID,
		DistanceCm:   input.DistanceCm,
		BatteryLevel: battery,
		Latitude:     input.Location.Latitude,
		Longitude:    input.Location.Longitude,
		Accuracy:     accuracy,
		Source:       source,
		Timestamp:    ts,
	}, nil
}

// classifyDistance tiers a proximity value. Critical requires strictly less
// than the alert threshold; a value exactly on the alert threshold is a
// warning.
func (s *service) classifyDistance(distanceCm float64) Severity {
	switch {
	case distanceCm < s.thresholds.ProximityAlertCm:
		return SeverityCritical
	case distanceCm < s.thresholds.ProximityWarningCm:
		return SeverityWarning
	default:
		return SeverityNone
	}
}

// classifyBattery tiers a battery level the same way
func (s *service) classifyBattery(level int) Severity {
	switch {
	case level < s.thresholds.CriticalBatteryPct:
		return SeverityCritical
	case level < s.thresholds.LowBatteryPct:
		return SeverityWarning
	default:
		return SeverityNone
	}
}

// cacheSnapshot caches the latest accepted reading per owner for dashboards.
// Best effort; the database remains the source of truth.
func (s *service) cacheSnapshot(ctx context.Context, result *IngestResult) {
	if s.cache == nil {
		return
	}
	key := cache.SnapshotKey(result.Reading.OwnerID)
	if err := s.cache.SetJSON(ctx, key, result, snapshotTTL); err != nil {
		s.log.WithError(err).WithField("owner_id", result.Reading.OwnerID).Debug("Failed to cache telemetry snapshot")
	}
}

func (s *service) logClassification(ownerID uint, result *IngestResult) {
	fields := logrus.Fields{
		"owner_id":    ownerID,
		"distance_cm": result.Reading.DistanceCm,
		"battery":     result.Reading.BatteryLevel,
	}
	switch {
	case result.Classification.Proximity == SeverityCritical:
		s.log.WithFields(fields).Warn("Obstacle critically close")
	case result.Classification.Proximity == SeverityWarning:
		s.log.WithFields(fields).Info("Obstacle within warning range")
	}
	switch {
	case result.Classification.Battery == SeverityCritical:
		s.log.WithFields(fields).Warn("Battery critically low")
	case result.Classification.Battery == SeverityWarning:
		s.log.WithFields(fields).Info("Battery low")
	}
}
