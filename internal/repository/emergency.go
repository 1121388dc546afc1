package repository

import (
	"context"
	"time"

	"example.com/guardian/services/monitor/internal/models"
)

// CreateEvent persists a new emergency event in its initial state
func (r *repo) CreateEvent(ctx context.Context, event *models.EmergencyEvent) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).Create(event).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// FindEventByID loads an event with its notification records
func (r *repo) FindEventByID(ctx context.Context, eventID string) (*models.EmergencyEvent, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var event models.EmergencyEvent
	if err := gormDB.WithContext(ctx).
		Preload("Notifications").
		Where("event_id = ?", eventID).
		First(&event).Error; err != nil {
		return nil, translateError(err)
	}

	return &event, nil
}

// EventsForOwner returns all of an owner's events, newest first
func (r *repo) EventsForOwner(ctx context.Context, ownerID uint) ([]models.EmergencyEvent, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var events []models.EmergencyEvent
	if err := gormDB.WithContext(ctx).
		Preload("Notifications").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&events).Error; err != nil {
		return nil, translateError(err)
	}

	return events, nil
}

// ActiveEventsForOwner returns the owner's unresolved events, newest first
func (r *repo) ActiveEventsForOwner(ctx context.Context, ownerID uint) ([]models.EmergencyEvent, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var events []models.EmergencyEvent
	if err := gormDB.WithContext(ctx).
		Preload("Notifications").
		Where("owner_id = ? AND status <> ?", ownerID, models.EmergencyResolved).
		Order("created_at DESC").
		Find(&events).Error; err != nil {
		return nil, translateError(err)
	}

	return events, nil
}

// ListUnresolvedEvents returns unresolved events across owners, oldest first,
// for the follow-up worker
func (r *repo) ListUnresolvedEvents(ctx context.Context, limit int) ([]models.EmergencyEvent, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var events []models.EmergencyEvent
	if err := gormDB.WithContext(ctx).
		Preload("Notifications").
		Where("status <> ?", models.EmergencyResolved).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, translateError(err)
	}

	return events, nil
}

// AppendNotification records one successful delivery. Records are append-only;
// concurrent appends for distinct recipients are independent inserts.
func (r *repo) AppendNotification(ctx context.Context, record *models.NotificationRecord) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).Create(record).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// MarkEventNotified advances a pending event to notified. The status guard
// keeps the transition monotonic: a resolved or already-notified event is
// left untouched.
func (r *repo) MarkEventNotified(ctx context.Context, eventID string) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return gormDB.WithContext(ctx).
		Model(&models.EmergencyEvent{}).
		Where("event_id = ? AND status = ?", eventID, models.EmergencyPending).
		Update("status", models.EmergencyNotified).Error
}

// ResolveEvent performs the compare-and-set resolution: the row is updated
// only if it is not already resolved. Returns true when this call won the
// race; false means another resolver got there first and resolved_at and
// resolved_by are already set.
func (r *repo) ResolveEvent(ctx context.Context, eventID string, resolvedBy *uint, at time.Time) (bool, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return false, err
	}

	res := gormDB.WithContext(ctx).
		Model(&models.EmergencyEvent{}).
		Where("event_id = ? AND status <> ?", eventID, models.EmergencyResolved).
		Updates(map[string]interface{}{
			"status":      models.EmergencyResolved,
			"resolved_at": at,
			"resolved_by": resolvedBy,
		})
	if res.Error != nil {
		return false, translateError(res.Error)
	}

	return res.RowsAffected > 0, nil
}
