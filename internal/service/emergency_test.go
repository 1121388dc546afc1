package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"example.com/guardian/services/monitor/internal/models"
	"example.com/guardian/services/monitor/internal/notification"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTriggerEmergencyNotifiesLinkedCaregivers(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, newStubChannel(models.MethodEmail, nil), nil)

	owner := &models.Owner{Model: models.Model{ID: 1}, Name: "Alice"}
	caregivers := []models.Caregiver{
		{Model: models.Model{ID: 10}, Name: "Bob", Email: "bob@example.com"},
		{Model: models.Model{ID: 11}, Name: "Carol", Email: "carol@example.com"},
	}

	var createdID string
	mockRepo.On("FindOwnerByID", mock.Anything, uint(1)).Return(owner, nil)
	mockRepo.On("CreateEvent", mock.Anything, mock.AnythingOfType("*models.EmergencyEvent")).
		Run(func(args mock.Arguments) {
			event := args.Get(1).(*models.EmergencyEvent)
			createdID = event.EventID
		}).Return(nil)
	mockRepo.On("LinkedCaregivers", mock.Anything, uint(1)).Return(caregivers, nil)
	mockRepo.On("AppendNotification", mock.Anything, mock.AnythingOfType("*models.NotificationRecord")).Return(nil).Twice()
	mockRepo.On("MarkEventNotified", mock.Anything, mock.AnythingOfType("string")).Return(nil).Once()
	mockRepo.On("FindEventByID", mock.Anything, mock.AnythingOfType("string")).Return(&models.EmergencyEvent{
		EventID: "reloaded",
		OwnerID: 1,
		Status:  models.EmergencyNotified,
	}, nil)

	result, err := svc.TriggerEmergency(context.Background(), 1, models.Location{Latitude: -1.28, Longitude: 36.82}, models.SourceApp)

	require.NoError(t, err)
	require.NotEmpty(t, createdID)
	require.Equal(t, 2, result.NotifiedCount)
	require.Equal(t, models.EmergencyNotified, result.Event.Status)

	mockRepo.AssertExpectations(t)
}

func TestTriggerEmergencyWithoutCaregiversStaysPending(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, newStubChannel(models.MethodEmail, nil), nil)

	owner := &models.Owner{Model: models.Model{ID: 1}}
	mockRepo.On("FindOwnerByID", mock.Anything, uint(1)).Return(owner, nil)
	mockRepo.On("CreateEvent", mock.Anything, mock.AnythingOfType("*models.EmergencyEvent")).Return(nil)
	mockRepo.On("LinkedCaregivers", mock.Anything, uint(1)).Return([]models.Caregiver{}, nil)

	result, err := svc.TriggerEmergency(context.Background(), 1, models.Location{Latitude: 1, Longitude: 1}, "")

	require.NoError(t, err)
	require.Equal(t, 0, result.NotifiedCount)
	require.Equal(t, models.EmergencyPending, result.Event.Status)
	require.Empty(t, result.Event.Notifications)

	// No delivery, no record, no status advance
	mockRepo.AssertNotCalled(t, "AppendNotification", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "MarkEventNotified", mock.Anything, mock.Anything)
}

func TestTriggerEmergencyAllDeliveriesFail(t *testing.T) {
	mockRepo := new(MockRepository)
	failing := newStubChannel(models.MethodEmail, func(ctx context.Context, msg *notification.AlertMessage) error {
		return errors.New("smtp connection refused")
	})
	svc := newTestService(mockRepo, failing, nil)

	owner := &models.Owner{Model: models.Model{ID: 1}}
	caregivers := []models.Caregiver{{Model: models.Model{ID: 10}}}

	mockRepo.On("FindOwnerByID", mock.Anything, uint(1)).Return(owner, nil)
	mockRepo.On("CreateEvent", mock.Anything, mock.AnythingOfType("*models.EmergencyEvent")).Return(nil)
	mockRepo.On("LinkedCaregivers", mock.Anything, uint(1)).Return(caregivers, nil)
	mockRepo.On("FindEventByID", mock.Anything, mock.AnythingOfType("string")).Return(&models.EmergencyEvent{
		EventID: "reloaded",
		OwnerID: 1,
		Status:  models.EmergencyPending,
	}, nil)

	result, err := svc.TriggerEmergency(context.Background(), 1, models.Location{Latitude: 1, Longitude: 1}, "")

	require.NoError(t, err)
	require.Equal(t, 0, result.NotifiedCount)
	require.Equal(t, models.EmergencyPending, result.Event.Status)
	mockRepo.AssertNotCalled(t, "AppendNotification", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "MarkEventNotified", mock.Anything, mock.Anything)
}

func TestResolveEmergencyByOwner(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, newStubChannel(models.MethodEmail, nil), nil)

	pending := &models.EmergencyEvent{EventID: "evt-1", OwnerID: 1, Status: models.EmergencyNotified}
	resolvedAt := time.Now().UTC()
	resolvedBy := uint(1)
	resolved := &models.EmergencyEvent{
		EventID:    "evt-1",
		OwnerID:    1,
		Status:     models.EmergencyResolved,
		ResolvedAt: &resolvedAt,
		ResolvedBy: &resolvedBy,
	}

	mockRepo.On("FindEventByID", mock.Anything, "evt-1").Return(pending, nil).Once()
	mockRepo.On("ResolveEvent", mock.Anything, "evt-1", mock.AnythingOfType("*uint"), mock.AnythingOfType("time.Time")).Return(true, nil)
	mockRepo.On("FindEventByID", mock.Anything, "evt-1").Return(resolved, nil).Once()

	event, err := svc.ResolveEmergency(context.Background(), "evt-1", models.OwnerActor(1))

	require.NoError(t, err)
	require.Equal(t, models.EmergencyResolved, event.Status)
	require.NotNil(t, event.ResolvedAt)
	require.Equal(t, uint(1), *event.ResolvedBy)
}

func TestResolveEmergencyIsIdempotent(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, newStubChannel(models.MethodEmail, nil), nil)

	resolvedAt := time.Now().UTC().Add(-time.Hour)
	resolvedBy := uint(42)
	resolved := &models.EmergencyEvent{
		EventID:    "evt-1",
		OwnerID:    1,
		Status:     models.EmergencyResolved,
		ResolvedAt: &resolvedAt,
		ResolvedBy: &resolvedBy,
	}
	mockRepo.On("FindEventByID", mock.Anything, "evt-1").Return(resolved, nil)

	event, err := svc.ResolveEmergency(context.Background(), "evt-1", models.OwnerActor(1))

	require.NoError(t, err)
	require.Equal(t, models.EmergencyResolved, event.Status)
	// The original resolution is preserved, not rewritten
	require.Equal(t, resolvedAt, *event.ResolvedAt)
	require.Equal(t, uint(42), *event.ResolvedBy)
	mockRepo.AssertNotCalled(t, "ResolveEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveEmergencyAuthorization(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, newStubChannel(models.MethodEmail, nil), nil)

	event := &models.EmergencyEvent{
		EventID: "evt-1",
		OwnerID: 1,
		Status:  models.EmergencyNotified,
		Notifications: []models.NotificationRecord{
			{EventID: "evt-1", CaregiverID: 10},
		},
	}
	mockRepo.On("FindEventByID", mock.Anything, "evt-1").Return(event, nil)

	// A different owner may not resolve
	_, err := svc.ResolveEmergency(context.Background(), "evt-1", models.OwnerActor(2))
	require.ErrorIs(t, err, ErrUnauthorized)

	// A caregiver that was never notified may not resolve
	_, err = svc.ResolveEmergency(context.Background(), "evt-1", models.CaregiverActor(11))
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolveEmergencyByNotifiedCaregiver(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, newStubChannel(models.MethodEmail, nil), nil)

	event := &models.EmergencyEvent{
		EventID: "evt-1",
		OwnerID: 1,
		Status:  models.EmergencyNotified,
		Notifications: []models.NotificationRecord{
			{EventID: "evt-1", CaregiverID: 10},
		},
	}
	resolved := &models.EmergencyEvent{EventID: "evt-1", OwnerID: 1, Status: models.EmergencyResolved}

	mockRepo.On("FindEventByID", mock.Anything, "evt-1").Return(event, nil).Once()
	mockRepo.On("ResolveEvent", mock.Anything, "evt-1", mock.AnythingOfType("*uint"), mock.AnythingOfType("time.Time")).Return(true, nil)
	mockRepo.On("FindEventByID", mock.Anything, "evt-1").Return(resolved, nil).Once()

	out, err := svc.ResolveEmergency(context.Background(), "evt-1", models.CaregiverActor(10))

	require.NoError(t, err)
	require.Equal(t, models.EmergencyResolved, out.Status)
}

func TestResumeFanoutSkipsNotifiedCaregivers(t *testing.T) {
	mockRepo := new(MockRepository)

	var delivered []uint
	recording := newStubChannel(models.MethodEmail, func(ctx context.Context, msg *notification.AlertMessage) error {
		delivered = append(delivered, msg.CaregiverID)
		return nil
	})
	svc := newTestService(mockRepo, recording, nil)
	svc.fanout = NewFanout(recording, nil, 1, time.Second, testLogger())

	event := &models.EmergencyEvent{
		EventID: "evt-1",
		OwnerID: 1,
		Status:  models.EmergencyNotified,
		Notifications: []models.NotificationRecord{
			{EventID: "evt-1", CaregiverID: 10},
		},
	}
	owner := &models.Owner{Model: models.Model{ID: 1}}
	linked := []models.Caregiver{
		{Model: models.Model{ID: 10}},
		{Model: models.Model{ID: 11}},
	}

	mockRepo.On("FindEventByID", mock.Anything, "evt-1").Return(event, nil)
	mockRepo.On("FindOwnerByID", mock.Anything, uint(1)).Return(owner, nil)
	mockRepo.On("LinkedCaregivers", mock.Anything, uint(1)).Return(linked, nil)
	mockRepo.On("AppendNotification", mock.Anything, mock.AnythingOfType("*models.NotificationRecord")).Return(nil).Once()
	mockRepo.On("MarkEventNotified", mock.Anything, "evt-1").Return(nil)

	_, err := svc.ResumeFanout(context.Background(), "evt-1")

	require.NoError(t, err)
	require.Equal(t, []uint{11}, delivered)
}

func TestFollowUpSweepContinuesPastFailures(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, newStubChannel(models.MethodEmail, nil), nil)

	events := []models.EmergencyEvent{
		{EventID: "evt-1", OwnerID: 1, Status: models.EmergencyPending},
		{EventID: "evt-2", OwnerID: 2, Status: models.EmergencyPending},
	}

	resolvedNow := &models.EmergencyEvent{EventID: "evt-2", OwnerID: 2, Status: models.EmergencyResolved}

	mockRepo.On("ListUnresolvedEvents", mock.Anything, followUpBatchSize).Return(events, nil)
	// First event fails to load, the sweep moves on to the second
	mockRepo.On("FindEventByID", mock.Anything, "evt-1").Return(nil, errors.New("connection reset"))
	mockRepo.On("FindEventByID", mock.Anything, "evt-2").Return(resolvedNow, nil)

	err := svc.FollowUpSweep(context.Background())

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
