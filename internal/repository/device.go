package repository

import (
	"context"
	"strings"
	"time"

	"example.com/guardian/services/monitor/internal/models"
)

// CreateDeviceRegistration binds a device UID to an owner
func (r *repo) CreateDeviceRegistration(ctx context.Context, reg *models.DeviceRegistration) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	// Normalize UID to prevent duplicates with different casing
	reg.DeviceUID = strings.ToUpper(reg.DeviceUID)

	if err := gormDB.WithContext(ctx).Create(reg).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// FindDeviceByUID finds a device registration by device UID
func (r *repo) FindDeviceByUID(ctx context.Context, deviceUID string) (*models.DeviceRegistration, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var reg models.DeviceRegistration
	if err := gormDB.WithContext(ctx).
		Where("UPPER(device_uid) = UPPER(?)", deviceUID).
		First(&reg).Error; err != nil {
		return nil, translateError(err)
	}

	return &reg, nil
}

// DeviceStateForOwner returns the registration carrying the owner's device
// liveness state
func (r *repo) DeviceStateForOwner(ctx context.Context, ownerID uint) (*models.DeviceRegistration, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var reg models.DeviceRegistration
	if err := gormDB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		First(&reg).Error; err != nil {
		return nil, translateError(err)
	}

	return &reg, nil
}

// AdvanceHeartbeat moves the owner's last heartbeat forward to the given
// timestamp. The conditional update enforces the max rule: a reading that
// arrives late with an older timestamp never moves liveness backwards.
// The firmware version is updated only when provided.
func (r *repo) AdvanceHeartbeat(ctx context.Context, ownerID uint, at time.Time, firmwareVersion string) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	updates := map[string]interface{}{"last_heartbeat": at}
	if firmwareVersion != "" {
		updates["firmware_version"] = firmwareVersion
	}

	return gormDB.WithContext(ctx).
		Model(&models.DeviceRegistration{}).
		Where("owner_id = ? AND (last_heartbeat IS NULL OR last_heartbeat < ?)", ownerID, at).
		Updates(updates).Error
}
