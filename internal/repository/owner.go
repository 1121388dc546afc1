package repository

import (
	"context"

	"example.com/guardian/services/monitor/internal/models"
)

// CreateOwner creates a new owner record
func (r *repo) CreateOwner(ctx context.Context, owner *models.Owner) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).Create(owner).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// CreateCaregiver creates a new caregiver record
func (r *repo) CreateCaregiver(ctx context.Context, caregiver *models.Caregiver) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).Create(caregiver).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// FindOwnerByID finds an owner by primary key
func (r *repo) FindOwnerByID(ctx context.Context, id uint) (*models.Owner, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var owner models.Owner
	if err := gormDB.WithContext(ctx).First(&owner, id).Error; err != nil {
		return nil, translateError(err)
	}

	return &owner, nil
}

// LinkedCaregivers returns the caregivers linked to an owner
func (r *repo) LinkedCaregivers(ctx context.Context, ownerID uint) ([]models.Caregiver, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var owner models.Owner
	if err := gormDB.WithContext(ctx).Preload("Caregivers").First(&owner, ownerID).Error; err != nil {
		return nil, translateError(err)
	}

	return owner.Caregivers, nil
}

// FindCaregiverByID finds a caregiver by primary key
func (r *repo) FindCaregiverByID(ctx context.Context, id uint) (*models.Caregiver, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var caregiver models.Caregiver
	if err := gormDB.WithContext(ctx).First(&caregiver, id).Error; err != nil {
		return nil, translateError(err)
	}

	return &caregiver, nil
}

// LinkCaregiver adds a caregiver to an owner's linked set
func (r *repo) LinkCaregiver(ctx context.Context, ownerID, caregiverID uint) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	owner, err := r.FindOwnerByID(ctx, ownerID)
	if err != nil {
		return err
	}
	caregiver, err := r.FindCaregiverByID(ctx, caregiverID)
	if err != nil {
		return err
	}

	return gormDB.WithContext(ctx).Model(owner).Association("Caregivers").Append(caregiver)
}

// UnlinkCaregiver removes a caregiver from an owner's linked set
func (r *repo) UnlinkCaregiver(ctx context.Context, ownerID, caregiverID uint) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	owner, err := r.FindOwnerByID(ctx, ownerID)
	if err != nil {
		return err
	}
	caregiver, err := r.FindCaregiverByID(ctx, caregiverID)
	if err != nil {
		return err
	}

	return gormDB.WithContext(ctx).Model(owner).Association("Caregivers").Delete(caregiver)
}

// UpdateOwnerSnapshot refreshes the owner's latest-known location, distance
// and battery from an accepted reading. Dashboard convenience only; the
// reading history stays the source of truth.
func (r *repo) UpdateOwnerSnapshot(ctx context.Context, reading *models.TelemetryReading) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"last_latitude":   reading.Latitude,
		"last_longitude":  reading.Longitude,
		"last_distance":   reading.DistanceCm,
		"battery_level":   reading.BatteryLevel,
		"last_reading_at": reading.Timestamp,
	}

	return gormDB.WithContext(ctx).
		Model(&models.Owner{}).
		Where("id = ?", reading.OwnerID).
		Updates(updates).Error
}
