package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"example.com/guardian/services/monitor/internal/models"
	"example.com/guardian/services/monitor/internal/notification"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// stubChannel is a test delivery channel driven by a function
type stubChannel struct {
	method  models.NotificationMethod
	deliver func(ctx context.Context, msg *notification.AlertMessage) error
}

func newStubChannel(method models.NotificationMethod, deliver func(ctx context.Context, msg *notification.AlertMessage) error) *stubChannel {
	return &stubChannel{method: method, deliver: deliver}
}

func (c *stubChannel) Deliver(ctx context.Context, msg *notification.AlertMessage) error {
	if c.deliver == nil {
		return nil
	}
	return c.deliver(ctx, msg)
}

func (c *stubChannel) Method() models.NotificationMethod {
	return c.method
}

// channelOrNil converts a possibly-nil stub into a Channel without producing
// a non-nil interface around a nil pointer
func channelOrNil(c *stubChannel) notification.Channel {
	if c == nil {
		return nil
	}
	return c
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testEvent() *models.EmergencyEvent {
	return &models.EmergencyEvent{
		EventID:   "evt-1",
		OwnerID:   1,
		Latitude:  -1.28,
		Longitude: 36.82,
		Status:    models.EmergencyPending,
	}
}

func TestDispatchIsolatesFailures(t *testing.T) {
	email := newStubChannel(models.MethodEmail, func(ctx context.Context, msg *notification.AlertMessage) error {
		if msg.CaregiverID == 2 {
			return errors.New("smtp connection refused")
		}
		return nil
	})

	fanout := NewFanout(email, nil, 4, time.Second, testLogger())

	owner := &models.Owner{Model: models.Model{ID: 1}, Name: "Alice"}
	recipients := []models.Caregiver{
		{Model: models.Model{ID: 1}, Name: "Bob", Email: "bob@example.com"},
		{Model: models.Model{ID: 2}, Name: "Carol", Email: "carol@example.com"},
		{Model: models.Model{ID: 3}, Name: "Dan", Email: "dan@example.com"},
	}

	outcomes := fanout.Dispatch(context.Background(), testEvent(), owner, recipients)

	require.Len(t, outcomes, 3)
	require.True(t, outcomes[0].Delivered)
	require.False(t, outcomes[1].Delivered)
	require.Error(t, outcomes[1].Err)
	require.True(t, outcomes[2].Delivered)
	require.Equal(t, 2, SuccessCount(outcomes))
}

func TestDispatchTimeoutIsFailedOutcome(t *testing.T) {
	email := newStubChannel(models.MethodEmail, func(ctx context.Context, msg *notification.AlertMessage) error {
		<-ctx.Done()
		return ctx.Err()
	})

	fanout := NewFanout(email, nil, 4, 50*time.Millisecond, testLogger())

	owner := &models.Owner{Model: models.Model{ID: 1}}
	recipients := []models.Caregiver{{Model: models.Model{ID: 1}, Email: "bob@example.com"}}

	start := time.Now()
	outcomes := fanout.Dispatch(context.Background(), testEvent(), owner, recipients)

	require.Less(t, time.Since(start), time.Second)
	require.Len(t, outcomes, 1)
	require.False(t, outcomes[0].Delivered)
	require.ErrorIs(t, outcomes[0].Err, context.DeadlineExceeded)
}

func TestDispatchRoutesByPreference(t *testing.T) {
	var emails, pushes int32
	email := newStubChannel(models.MethodEmail, func(ctx context.Context, msg *notification.AlertMessage) error {
		atomic.AddInt32(&emails, 1)
		return nil
	})
	push := newStubChannel(models.MethodPush, func(ctx context.Context, msg *notification.AlertMessage) error {
		atomic.AddInt32(&pushes, 1)
		return nil
	})

	fanout := NewFanout(email, push, 4, time.Second, testLogger())

	owner := &models.Owner{Model: models.Model{ID: 1}}
	recipients := []models.Caregiver{
		{Model: models.Model{ID: 1}, NotifyByEmail: true},
		{Model: models.Model{ID: 2}, NotifyByPush: true},
	}

	outcomes := fanout.Dispatch(context.Background(), testEvent(), owner, recipients)

	require.Equal(t, int32(1), atomic.LoadInt32(&emails))
	require.Equal(t, int32(1), atomic.LoadInt32(&pushes))
	require.Equal(t, models.MethodEmail, outcomes[0].Method)
	require.Equal(t, models.MethodPush, outcomes[1].Method)
}
