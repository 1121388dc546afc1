package notification

import (
	"context"
	"fmt"
	"time"

	"example.com/guardian/services/monitor/internal/messaging"
	"example.com/guardian/services/monitor/internal/models"
)

// PushChannel publishes alerts to the caregiver-alerts queue for downstream
// push-notification consumers
type PushChannel struct {
	bus messaging.ServiceBusClient
}

// pushAlert is the queue message schema for one caregiver alert
type pushAlert struct {
	EventID      string    `json:"event_id"`
	CaregiverID  uint      `json:"caregiver_id"`
	OwnerName    string    `json:"owner_name"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	MapsLink     string    `json:"maps_link"`
	TriggeredAt  time.Time `json:"triggered_at"`
}

// NewPushChannel creates a message-queue-backed delivery channel
func NewPushChannel(bus messaging.ServiceBusClient) *PushChannel {
	return &PushChannel{bus: bus}
}

// Method returns the notification method this channel records
func (p *PushChannel) Method() models.NotificationMethod {
	return models.MethodPush
}

// Deliver publishes the alert; messages for one event share a session
func (p *PushChannel) Deliver(ctx context.Context, msg *AlertMessage) error {
	alert := pushAlert{
		EventID:     msg.EventID,
		CaregiverID: msg.CaregiverID,
		OwnerName:   msg.OwnerName,
		Title:       msg.Subject,
		Body:        msg.Text,
		MapsLink:    msg.MapsLink,
		TriggeredAt: time.Now().UTC(),
	}
	if err := p.bus.SendMessage(ctx, alert, msg.EventID); err != nil {
		return fmt.Errorf("push delivery to caregiver %d failed: %w", msg.CaregiverID, err)
	}
	return nil
}
