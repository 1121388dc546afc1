package repository

import (
	"context"

	"example.com/guardian/services/monitor/internal/models"
)

// CreateReading appends one telemetry reading. Readings are immutable; no
// update or delete method exists on purpose.
func (r *repo) CreateReading(ctx context.Context, reading *models.TelemetryReading) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).Create(reading).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// ReadingsForOwner returns the owner's readings newest first, bounded by limit
func (r *repo) ReadingsForOwner(ctx context.Context, ownerID uint, limit int) ([]models.TelemetryReading, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var readings []models.TelemetryReading
	if err := gormDB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&readings).Error; err != nil {
		return nil, translateError(err)
	}

	return readings, nil
}
