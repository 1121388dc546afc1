package service

import (
	"context"
	"testing"
	"time"

	"example.com/guardian/services/monitor/config"
	"example.com/guardian/services/monitor/internal/models"
	"example.com/guardian/services/monitor/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock repository for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateOwner(ctx context.Context, owner *models.Owner) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

func (m *MockRepository) CreateCaregiver(ctx context.Context, caregiver *models.Caregiver) error {
	args := m.Called(ctx, caregiver)
	return args.Error(0)
}

func (m *MockRepository) FindOwnerByID(ctx context.Context, id uint) (*models.Owner, error) {
	args := m.Called(ctx, id)
	if owner := args.Get(0); owner != nil {
		return owner.(*models.Owner), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) LinkedCaregivers(ctx context.Context, ownerID uint) ([]models.Caregiver, error) {
	args := m.Called(ctx, ownerID)
	if caregivers := args.Get(0); caregivers != nil {
		return caregivers.([]models.Caregiver), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) FindCaregiverByID(ctx context.Context, id uint) (*models.Caregiver, error) {
	args := m.Called(ctx, id)
	if caregiver := args.Get(0); caregiver != nil {
		return caregiver.(*models.Caregiver), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) LinkCaregiver(ctx context.Context, ownerID, caregiverID uint) error {
	args := m.Called(ctx, ownerID, caregiverID)
	return args.Error(0)
}

func (m *MockRepository) UnlinkCaregiver(ctx context.Context, ownerID, caregiverID uint) error {
	args := m.Called(ctx, ownerID, caregiverID)
	return args.Error(0)
}

func (m *MockRepository) UpdateOwnerSnapshot(ctx context.Context, reading *models.TelemetryReading) error {
	args := m.Called(ctx, reading)
	return args.Error(0)
}

func (m *MockRepository) CreateDeviceRegistration(ctx context.Context, reg *models.DeviceRegistration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

func (m *MockRepository) FindDeviceByUID(ctx context.Context, deviceUID string) (*models.DeviceRegistration, error) {
	args := m.Called(ctx, deviceUID)
	if reg := args.Get(0); reg != nil {
		return reg.(*models.DeviceRegistration), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) DeviceStateForOwner(ctx context.Context, ownerID uint) (*models.DeviceRegistration, error) {
	args := m.Called(ctx, ownerID)
	if reg := args.Get(0); reg != nil {
		return reg.(*models.DeviceRegistration), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) AdvanceHeartbeat(ctx context.Context, ownerID uint, at time.Time, firmwareVersion string) error {
	args := m.Called(ctx, ownerID, at, firmwareVersion)
	return args.Error(0)
}

func (m *MockRepository) CreateReading(ctx context.Context, reading *models.TelemetryReading) error {
	args := m.Called(ctx, reading)
	return args.Error(0)
}

func (m *MockRepository) ReadingsForOwner(ctx context.Context, ownerID uint, limit int) ([]models.TelemetryReading, error) {
	args := m.Called(ctx, ownerID, limit)
	if readings := args.Get(0); readings != nil {
		return readings.([]models.TelemetryReading), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) CreateEvent(ctx context.Context, event *models.EmergencyEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockRepository) FindEventByID(ctx context.Context, eventID string) (*models.EmergencyEvent, error) {
	args := m.Called(ctx, eventID)
	if event := args.Get(0); event != nil {
		return event.(*models.EmergencyEvent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) EventsForOwner(ctx context.Context, ownerID uint) ([]models.EmergencyEvent, error) {
	args := m.Called(ctx, ownerID)
	if events := args.Get(0); events != nil {
		return events.([]models.EmergencyEvent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) ActiveEventsForOwner(ctx context.Context, ownerID uint) ([]models.EmergencyEvent, error) {
	args := m.Called(ctx, ownerID)
	if events := args.Get(0); events != nil {
		return events.([]models.EmergencyEvent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) ListUnresolvedEvents(ctx context.Context, limit int) ([]models.EmergencyEvent, error) {
	args := m.Called(ctx, limit)
	if events := args.Get(0); events != nil {
		return events.([]models.EmergencyEvent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) AppendNotification(ctx context.Context, record *models.NotificationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRepository) MarkEventNotified(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockRepository) ResolveEvent(ctx context.Context, eventID string, resolvedBy *uint, at time.Time) (bool, error) {
	args := m.Called(ctx, eventID, resolvedBy, at)
	return args.Bool(0), args.Error(1)
}

// testThresholds mirrors the configuration defaults
func testThresholds() config.ThresholdConfig {
	return config.ThresholdConfig{
		ProximityWarningCm: 50,
		ProximityAlertCm:   30,
		LowBatteryPct:      20,
		CriticalBatteryPct: 10,
		HeartbeatTimeout:   5 * time.Minute,
	}
}

// newTestService builds a service around mocks without side effects
func newTestService(repo repository.Repository, email, push *stubChannel) *service {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	var emailCh, pushCh = channelOrNil(email), channelOrNil(push)
	return &service{
		repo:       repo,
		log:        log,
		thresholds: testThresholds(),
		fanout:     NewFanout(emailCh, pushCh, 4, time.Second, log),
	}
}

func TestIngestReadingAppliesDefaults(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, newStubChannel(models.MethodEmail, nil), nil)

	owner := &models.Owner{Model: models.Model{ID: 1}, Name: "Alice"}
	mockRepo.On("FindOwnerByID", mock.Anything, uint(1)).Return(owner, nil)
	mockRepo.On("CreateReading", mock.Anything, mock.AnythingOfType("*models.TelemetryReading")).Return(nil)
	mockRepo.On("AdvanceHeartbeat", mock.Anything, uint(1), mock.AnythingOfType("time.Time"), "").Return(nil)
	mockRepo.On("UpdateOwnerSnapshot", mock.Anything, mock.AnythingOfType("*models.TelemetryReading")).Return(nil)

	result, err := svc.IngestReading(context.Background(), IngestInput{
		OwnerID:    1,
		DistanceCm: 120,
		Location:   &models.Location{Latitude: -1.28, Longitude: 36.82},
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, 100, result.Reading.BatteryLevel)
	require.Equal(t, models.SourceApp, result.Reading.Source)
	require.Equal(t, 10.0, result.Reading.Accuracy)
	require.False(t, result.Reading.Timestamp.IsZero())
	require.Equal(t, SeverityNone, result.Classification.Proximity)
	require.Equal(t, SeverityNone, result.Classification.Battery)

	mockRepo.AssertExpectations(t)
}

func TestIngestReadingRejectsBadInput(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, newStubChannel(models.MethodEmail, nil), nil)

	owner := &models.Owner{Model: models.Model{ID: 1}}
	mockRepo.On("FindOwnerByID", mock.Anything, uint(1)).Return(owner, nil)

	loc := &models.Location{Latitude: 1, Longitude: 1}

	_, err := svc.IngestReading(context.Background(), IngestInput{OwnerID: 1, DistanceCm: -4, Location: loc})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.IngestReading(context.Background(), IngestInput{OwnerID: 1, DistanceCm: 10})
	require.ErrorIs(t, err, ErrInvalidInput)

	over := 150
	_, err = svc.IngestReading(context.Background(), IngestInput{OwnerID: 1, DistanceCm: 10, BatteryLevel: &over, Location: loc})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestIngestReadingUnknownOwner(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, newStubChannel(models.MethodEmail, nil), nil)

	mockRepo.On("FindOwnerByID", mock.Anything, uint(9)).Return(nil, repository.ErrNotFound)

	_, err := svc.IngestReading(context.Background(), IngestInput{
		OwnerID:    9,
		DistanceCm: 10,
		Location:   &models.Location{Latitude: 1, Longitude: 1},
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClassifyDistanceTiers(t *testing.T) {
	svc := newTestService(new(MockRepository), newStubChannel(models.MethodEmail, nil), nil)

	require.Equal(t, SeverityCritical, svc.classifyDistance(25))
	require.Equal(t, SeverityWarning, svc.classifyDistance(40))
	require.Equal(t, SeverityNone, svc.classifyDistance(60))

	// Values exactly on a threshold fall into the milder tier
	require.Equal(t, SeverityWarning, svc.classifyDistance(30))
	require.Equal(t, SeverityNone, svc.classifyDistance(50))
}

func TestClassifyBatteryTiers(t *testing.T) {
	svc := newTestService(new(MockRepository), newStubChannel(models.MethodEmail, nil), nil)

	require.Equal(t, SeverityCritical, svc.classifyBattery(5))
	require.Equal(t, SeverityWarning, svc.classifyBattery(15))
	require.Equal(t, SeverityNone, svc.classifyBattery(80))
	require.Equal(t, SeverityWarning, svc.classifyBattery(10))
	require.Equal(t, SeverityNone, svc.classifyBattery(20))
}

func TestConnectivityDerivedFromHeartbeat(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, newStubChannel(models.MethodEmail, nil), nil)

	owner := &models.Owner{Model: models.Model{ID: 1}}
	mockRepo.On("FindOwnerByID", mock.Anything, uint(1)).Return(owner, nil)

	now := time.Now().UTC()
	stale := now.Add(-6 * time.Minute)
	mockRepo.On("DeviceStateForOwner", mock.Anything, uint(1)).Return(&models.DeviceRegistration{
		OwnerID:       1,
		LastHeartbeat: &stale,
	}, nil).Once()

	status, err := svc.ConnectivityForOwner(context.Background(), 1, now)
	require.NoError(t, err)
	require.False(t, status.Connected)

	fresh := now.Add(-4 * time.Minute)
	mockRepo.On("DeviceStateForOwner", mock.Anything, uint(1)).Return(&models.DeviceRegistration{
		OwnerID:       1,
		LastHeartbeat: &fresh,
	}, nil).Once()

	status, err = svc.ConnectivityForOwner(context.Background(), 1, now)
	require.NoError(t, err)
	require.True(t, status.Connected)
}

func TestConnectivityWithoutDevice(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, newStubChannel(models.MethodEmail, nil), nil)

	owner := &models.Owner{Model: models.Model{ID: 1}}
	mockRepo.On("FindOwnerByID", mock.Anything, uint(1)).Return(owner, nil)
	mockRepo.On("DeviceStateForOwner", mock.Anything, uint(1)).Return(nil, repository.ErrNotFound)

	status, err := svc.ConnectivityForOwner(context.Background(), 1, time.Now().UTC())
	require.NoError(t, err)
	require.False(t, status.Connected)
	require.Nil(t, status.LastHeartbeat)
}

func TestLatestSnapshotFallsBackToHistory(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo, newStubChannel(models.MethodEmail, nil), nil)

	owner := &models.Owner{Model: models.Model{ID: 1}}
	mockRepo.On("FindOwnerByID", mock.Anything, uint(1)).Return(owner, nil)
	mockRepo.On("ReadingsForOwner", mock.Anything, uint(1), 1).Return([]models.TelemetryReading{
		{OwnerID: 1, DistanceCm: 25, BatteryLevel: 15},
	}, nil).Once()

	snapshot, err := svc.LatestSnapshot(context.Background(), 1)

	require.NoError(t, err)
	require.Equal(t, SeverityCritical, snapshot.Classification.Proximity)
	require.Equal(t, SeverityWarning, snapshot.Classification.Battery)

	// An owner with no readings yet is a not-found, not an internal error
	mockRepo.On("ReadingsForOwner", mock.Anything, uint(1), 1).Return([]models.TelemetryReading{}, nil).Once()
	_, err = svc.LatestSnapshot(context.Background(), 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptedFirmwareIgnoresDowngrades(t *testing.T) {
	svc := newTestService(new(MockRepository), newStubChannel(models.MethodEmail, nil), nil)

	reg := &models.DeviceRegistration{DeviceUID: "ABC123", FirmwareVersion: "1.4.0"}

	require.Equal(t, "1.5.0", svc.acceptedFirmware(reg, "1.5.0"))
	require.Equal(t, "", svc.acceptedFirmware(reg, "1.3.9"))
	require.Equal(t, "", svc.acceptedFirmware(reg, "1.4.0"))
	require.Equal(t, "", svc.acceptedFirmware(reg, "not-a-version"))

	blank := &models.DeviceRegistration{DeviceUID: "ABC123"}
	require.Equal(t, "2.0.0", svc.acceptedFirmware(blank, "2.0.0"))
}
