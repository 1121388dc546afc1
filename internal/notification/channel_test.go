package notification

import (
	"context"
	"strings"
	"testing"

	"example.com/guardian/services/monitor/internal/models"

	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	method models.NotificationMethod
}

func (f *fakeChannel) Deliver(ctx context.Context, msg *AlertMessage) error { return nil }
func (f *fakeChannel) Method() models.NotificationMethod                    { return f.method }

func TestSelectChannel(t *testing.T) {
	email := &fakeChannel{method: models.MethodEmail}
	push := &fakeChannel{method: models.MethodPush}

	require.Equal(t, email, SelectChannel(&models.Caregiver{NotifyByEmail: true}, email, push))
	require.Equal(t, push, SelectChannel(&models.Caregiver{NotifyByPush: true}, email, push))

	// Push preference without a configured push channel falls back to email
	require.Equal(t, email, SelectChannel(&models.Caregiver{NotifyByPush: true}, email, nil))

	// No preferences at all still reach the caregiver by email
	require.Equal(t, email, SelectChannel(&models.Caregiver{}, email, push))
}

func TestBuildAlertMessage(t *testing.T) {
	event := &models.EmergencyEvent{
		EventID:   "evt-1",
		OwnerID:   1,
		Latitude:  -1.286389,
		Longitude: 36.817223,
	}
	owner := &models.Owner{Model: models.Model{ID: 1}, Name: "Alice"}
	caregiver := &models.Caregiver{Model: models.Model{ID: 10}, Name: "Bob", Email: "bob@example.com"}

	msg := BuildAlertMessage(event, owner, caregiver)

	require.Equal(t, "evt-1", msg.EventID)
	require.Equal(t, "bob@example.com", msg.CaregiverEmail)
	require.Contains(t, msg.Subject, "EMERGENCY ALERT")
	require.Contains(t, msg.MapsLink, "https://www.google.com/maps/search/?api=1&query=")
	require.Contains(t, msg.MapsLink, "-1.286389")
	require.Contains(t, msg.Text, "Alice")
	require.Contains(t, msg.HTML, msg.MapsLink)
	require.True(t, strings.Contains(msg.Text, msg.MapsLink))
}
