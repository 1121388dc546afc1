package service

import (
	"context"
	"time"

	"example.com/guardian/services/monitor/internal/models"
	"example.com/guardian/services/monitor/internal/notification"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DeliveryOutcome is the result of one delivery attempt to one caregiver
type DeliveryOutcome struct {
	CaregiverID uint
	Method      models.NotificationMethod
	Delivered   bool
	NotifiedAt  time.Time
	Err         error
}

// Fanout delivers one alert per recipient with bounded concurrency.
// Recipients are independent: one failing or slow channel never aborts or
// delays the others, and there is no retry inside a single dispatch.
type Fanout struct {
	email         notification.Channel
	push          notification.Channel
	maxConcurrent int
	perRecipient  time.Duration
	log           *logrus.Logger
}

// NewFanout creates a fan-out dispatcher
func NewFanout(email, push notification.Channel, maxConcurrent int, perRecipient time.Duration, log *logrus.Logger) *Fanout {
	return &Fanout{
		email:         email,
		push:          push,
		maxConcurrent: maxConcurrent,
		perRecipient:  perRecipient,
		log:           log,
	}
}

// Dispatch attempts delivery to every recipient and returns one outcome per
// recipient. The call returns once all attempts completed or hit their
// per-recipient timeout; a timed-out channel is a failed outcome, never a
// pending one.
func (f *Fanout) Dispatch(ctx context.Context, event *models.EmergencyEvent, owner *models.Owner, recipients []models.Caregiver) []DeliveryOutcome {
	outcomes := make([]DeliveryOutcome, len(recipients))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.maxConcurrent)

	for i := range recipients {
		i := i
		caregiver := recipients[i]
		g.Go(func() error {
			outcomes[i] = f.deliverOne(gctx, event, owner, &caregiver)
			// Delivery errors are captured in the outcome; returning them
			// here would cancel the sibling attempts.
			return nil
		})
	}

	// Goroutines never return errors, so this only waits.
	_ = g.Wait()

	return outcomes
}

// deliverOne attempts delivery to a single caregiver on their preferred channel
func (f *Fanout) deliverOne(ctx context.Context, event *models.EmergencyEvent, owner *models.Owner, caregiver *models.Caregiver) DeliveryOutcome {
	channel := notification.SelectChannel(caregiver, f.email, f.push)
	msg := notification.BuildAlertMessage(event, owner, caregiver)

	attemptCtx, cancel := context.WithTimeout(ctx, f.perRecipient)
	defer cancel()

	err := channel.Deliver(attemptCtx, msg)
	outcome := DeliveryOutcome{
		CaregiverID: caregiver.ID,
		Method:      channel.Method(),
		Delivered:   err == nil,
		NotifiedAt:  time.Now().UTC(),
		Err:         err,
	}

	entry := f.log.WithFields(logrus.Fields{
		"event_id":     event.EventID,
		"caregiver_id": caregiver.ID,
		"method":       channel.Method(),
	})
	if err != nil {
		entry.WithError(err).Error("Emergency notification delivery failed")
	} else {
		entry.Info("Emergency notification delivered")
	}

	return outcome
}

// SuccessCount counts delivered outcomes
func SuccessCount(outcomes []DeliveryOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Delivered {
			n++
		}
	}
	return n
}
