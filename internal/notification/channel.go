package notification

import (
	"context"
	"fmt"

	"example.com/guardian/services/monitor/internal/models"
)

// AlertMessage is one emergency notification addressed to one caregiver
type AlertMessage struct {
	EventID        string
	OwnerName      string
	CaregiverName  string
	CaregiverEmail string
	CaregiverID    uint
	Subject        string
	Text           string
	HTML           string
	MapsLink       string
}

// Channel delivers one alert message to one recipient
type Channel interface {
	Deliver(ctx context.Context, msg *AlertMessage) error
	Method() models.NotificationMethod
}

// BuildAlertMessage renders the alert content for a caregiver from the
// emergency event and the owner identity. The maps link points at the
// event's coordinates, not the owner's latest reading: the position at
// trigger time is what responders need.
func BuildAlertMessage(event *models.EmergencyEvent, owner *models.Owner, caregiver *models.Caregiver) *AlertMessage {
	mapsLink := fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%f,%f", event.Latitude, event.Longitude)

	return &AlertMessage{
		EventID:        event.EventID,
		OwnerName:      owner.Name,
		CaregiverName:  caregiver.Name,
		CaregiverEmail: caregiver.Email,
		CaregiverID:    caregiver.ID,
		Subject:        "EMERGENCY ALERT - Guardian Monitor User Needs Help",
		Text: fmt.Sprintf(
			"EMERGENCY ALERT!\n\nUser %s has triggered an emergency alert.\n\nLocation: %s\n\nPlease respond immediately!",
			owner.Name, mapsLink,
		),
		HTML: fmt.Sprintf(
			`<h1 style="color: red;">EMERGENCY ALERT!</h1>`+
				`<p><strong>User %s has triggered an emergency alert.</strong></p>`+
				`<p>Current Location: <a href="%s" target="_blank">View on Google Maps</a></p>`+
				`<p style="font-weight: bold;">Please respond immediately!</p>`,
			owner.Name, mapsLink,
		),
		MapsLink: mapsLink,
	}
}

// SelectChannel picks the delivery channel for a caregiver based on their
// notification preferences. Push wins when enabled; email is the default
// even when the email preference was never set.
func SelectChannel(caregiver *models.Caregiver, email, push Channel) Channel {
	if caregiver.NotifyByPush && push != nil {
		return push
	}
	return email
}
