// Package notify fans activity signup and unregister events out to
// external channels (Redis pub/sub, SNS, confirmation email).
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EventType names the registry mutation that produced an Event.
type EventType string

const (
	EventSignup     EventType = "signup"
	EventUnregister EventType = "unregister"
)

// Event describes one successful registry mutation.
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	Activity       string    `json:"activity"`
	Email          string    `json:"email"`
	AvailableSpots int       `json:"availableSpots"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// NewEvent stamps a fresh id and timestamp.
func NewEvent(eventType EventType, activity, email string, availableSpots int) Event {
	return Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		Activity:       activity,
		Email:          email,
		AvailableSpots: availableSpots,
		OccurredAt:     time.Now().UTC(),
	}
}

// Notifier delivers an Event somewhere.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, event Event) error
}

// NoOp drops every event.
type NoOp struct{}

func (NoOp) Name() string { return "noop" }
func (NoOp) Notify(context.Context, Event) error { return nil }

// DeliveryError ties a failure to the notifier that produced it.
type DeliveryError struct {
	Notifier string
	Err      error
}

func (e *DeliveryError) Error() string { return e.Notifier + ": " + e.Err.Error() }

func (e *DeliveryError) Unwrap() error { return e.Err }

// Multi delivers to every notifier and joins their errors, each wrapped in
// a DeliveryError.
type Multi []Notifier

func (m Multi) Name() string { return "multi" }

func (m Multi) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, &DeliveryError{Notifier: n.Name(), Err: err})
		}
	}
	return errors.Join(errs...)
}

// FailedNotifiers names every notifier behind err. Failures that carry no
// DeliveryError are attributed to fallback.
func FailedNotifiers(err error, fallback string) []string {
	if err == nil {
		return nil
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}

	names := make([]string, 0, len(errs))
	for _, e := range errs {
		var de *DeliveryError
		if errors.As(e, &de) {
			names = append(names, de.Notifier)
			continue
		}
		names = append(names, fallback)
	}
	return names
}
