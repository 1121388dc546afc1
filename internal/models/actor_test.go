package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActorCanResolve(t *testing.T) {
	event := &EmergencyEvent{
		EventID: "evt-1",
		OwnerID: 1,
		Status:  EmergencyNotified,
		Notifications: []NotificationRecord{
			{EventID: "evt-1", CaregiverID: 10},
		},
	}

	require.True(t, OwnerActor(1).CanResolve(event))
	require.False(t, OwnerActor(2).CanResolve(event))

	require.True(t, CaregiverActor(10).CanResolve(event))
	require.False(t, CaregiverActor(11).CanResolve(event))

	// An unknown role never resolves anything
	require.False(t, Actor{Role: "admin", ID: 1}.CanResolve(event))
}

func TestWasNotified(t *testing.T) {
	event := &EmergencyEvent{
		Notifications: []NotificationRecord{
			{CaregiverID: 10},
			{CaregiverID: 12},
		},
	}

	require.True(t, event.WasNotified(10))
	require.True(t, event.WasNotified(12))
	require.False(t, event.WasNotified(11))

	empty := &EmergencyEvent{}
	require.False(t, empty.WasNotified(10))
}
