package service

import (
	"context"
	"errors"
	"time"

	"example.com/guardian/services/monitor/internal/models"
	"example.com/guardian/services/monitor/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// followUpBatchSize bounds how many unresolved events one sweep touches
const followUpBatchSize = 100

// TriggerResult is the created event plus how many caregivers were reached
type TriggerResult struct {
	Event         *models.EmergencyEvent `json:"event"`
	NotifiedCount int                    `json:"notified_count"`
}

// TriggerEmergency creates a fresh emergency event and fans out notifications
// to every linked caregiver. Each trigger is a distinct incident: an owner
// with an open event still gets a new one. The call succeeds even when every
// delivery fails; the event then stays pending for the follow-up worker.
func (s *service) TriggerEmergency(ctx context.Context, ownerID uint, loc models.Location, source models.ReadingSource) (*TriggerResult, error) {
	owner, err := s.ownerOrNotFound(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if source == "" {
		source = models.SourceApp
	}

	accuracy := 10.0
	if loc.Accuracy != nil {
		accuracy = *loc.Accuracy
	}

	event := &models.EmergencyEvent{
		EventID:   uuid.New().String(),
		OwnerID:   owner.ID,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Accuracy:  accuracy,
		Status:    models.EmergencyPending,
		Source:    source,
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	recipients, err := s.repo.LinkedCaregivers(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	if len(recipients) == 0 {
		// A valid terminal-like state, not an error: the event stays
		// pending until caregivers are linked or the owner resolves it.
		s.log.WithFields(logrus.Fields{
			"event_id": event.EventID,
			"owner_id": owner.ID,
		}).Warn("Emergency triggered for owner with no linked caregivers")
		return &TriggerResult{Event: event}, nil
	}

	notified := s.dispatchAndRecord(ctx, event, owner, recipients)

	updated, err := s.repo.FindEventByID(ctx, event.EventID)
	if err != nil {
		return nil, err
	}

	return &TriggerResult{Event: updated, NotifiedCount: notified}, nil
}

// TriggerDeviceEmergency resolves the device UID to the bound owner and
// triggers a device-sourced emergency
func (s *service) TriggerDeviceEmergency(ctx context.Context, deviceUID string, loc models.Location) (*TriggerResult, error) {
	reg, err := s.GetDeviceByUID(ctx, deviceUID)
	if err != nil {
		return nil, err
	}
	return s.TriggerEmergency(ctx, reg.OwnerID, loc, models.SourceDevice)
}

// ResolveEmergency moves an event to its terminal state on behalf of an
// authorized actor. Resolution is idempotent: resolving an already-resolved
// event returns it unchanged, so client retries are safe. Two concurrent
// first resolutions race through a compare-and-set and exactly one wins.
func (s *service) ResolveEmergency(ctx context.Context, eventID string, actor models.Actor) (*models.EmergencyEvent, error) {
	event, err := s.eventOrNotFound(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if !actor.CanResolve(event) {
		return nil, errUnauthorized("%s %d may not resolve event %s", actor.Role, actor.ID, eventID)
	}

	if event.Status == models.EmergencyResolved {
		return event, nil
	}

	resolvedBy := actor.ID
	won, err := s.repo.ResolveEvent(ctx, eventID, &resolvedBy, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	updated, err := s.eventOrNotFound(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if won {
		s.log.WithFields(logrus.Fields{
			"event_id":    eventID,
			"resolved_by": actor.ID,
			"role":        actor.Role,
		}).Info("Emergency resolved")
	}

	return updated, nil
}

// ResumeFanout re-attempts delivery to linked caregivers that are not yet in
// the event's notification records. Already-notified caregivers are never
// contacted again through this path, so the scheduler can call it repeatedly.
func (s *service) ResumeFanout(ctx context.Context, eventID string) (*models.EmergencyEvent, error) {
	event, err := s.eventOrNotFound(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.Status == models.EmergencyResolved {
		return event, nil
	}

	owner, err := s.ownerOrNotFound(ctx, event.OwnerID)
	if err != nil {
		return nil, err
	}

	linked, err := s.repo.LinkedCaregivers(ctx, event.OwnerID)
	if err != nil {
		return nil, err
	}

	var pending []models.Caregiver
	for _, caregiver := range linked {
		if !event.WasNotified(caregiver.ID) {
			pending = append(pending, caregiver)
		}
	}

	if len(pending) > 0 {
		s.dispatchAndRecord(ctx, event, owner, pending)
	}

	return s.eventOrNotFound(ctx, eventID)
}

// GetEvent returns a single event with its notification records
func (s *service) GetEvent(ctx context.Context, eventID string) (*models.EmergencyEvent, error) {
	return s.eventOrNotFound(ctx, eventID)
}

// EventsForOwner returns all events for an owner, newest first
func (s *service) EventsForOwner(ctx context.Context, ownerID uint) ([]models.EmergencyEvent, error) {
	if _, err := s.ownerOrNotFound(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.repo.EventsForOwner(ctx, ownerID)
}

// ActiveEventsForOwner returns the owner's unresolved events, newest first
func (s *service) ActiveEventsForOwner(ctx context.Context, ownerID uint) ([]models.EmergencyEvent, error) {
	if _, err := s.ownerOrNotFound(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.repo.ActiveEventsForOwner(ctx, ownerID)
}

// FollowUpSweep re-attempts fan-out for unresolved events. One failing event
// never stops the sweep.
func (s *service) FollowUpSweep(ctx context.Context) error {
	events, err := s.repo.ListUnresolvedEvents(ctx, followUpBatchSize)
	if err != nil {
		return err
	}

	for i := range events {
		if _, err := s.ResumeFanout(ctx, events[i].EventID); err != nil {
			s.log.WithError(err).WithField("event_id", events[i].EventID).Error("Follow-up fan-out failed")
		}
	}

	if len(events) > 0 {
		s.log.WithField("count", len(events)).Info("Follow-up sweep completed")
	}
	return nil
}

// dispatchAndRecord runs the fan-out, records each success as a notification
// and advances a pending event to notified once at least one delivery landed.
// Returns the number of successful deliveries.
func (s *service) dispatchAndRecord(ctx context.Context, event *models.EmergencyEvent, owner *models.Owner, recipients []models.Caregiver) int {
	outcomes := s.fanout.Dispatch(ctx, event, owner, recipients)

	notified := 0
	for _, outcome := range outcomes {
		if !outcome.Delivered {
			continue
		}

		record := &models.NotificationRecord{
			EventID:     event.EventID,
			CaregiverID: outcome.CaregiverID,
			NotifiedAt:  outcome.NotifiedAt,
			Method:      outcome.Method,
		}
		if err := s.repo.AppendNotification(ctx, record); err != nil {
			// The caregiver was reached but the record did not stick;
			// surfaced in logs so operators can reconcile.
			s.log.WithError(err).WithFields(logrus.Fields{
				"event_id":     event.EventID,
				"caregiver_id": outcome.CaregiverID,
			}).Error("Failed to record successful notification")
			continue
		}
		notified++
	}

	if notified > 0 {
		if err := s.repo.MarkEventNotified(ctx, event.EventID); err != nil {
			s.log.WithError(err).WithField("event_id", event.EventID).Error("Failed to mark event notified")
		}
	}

	return notified
}

// eventOrNotFound loads an event, converting the repository sentinel into
// the service taxonomy
func (s *service) eventOrNotFound(ctx context.Context, eventID string) (*models.EmergencyEvent, error) {
	event, err := s.repo.FindEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errNotFound("emergency event %s", eventID)
		}
		return nil, err
	}
	return event, nil
}
