// Package notify defines the booking notifications fired after successful
// lifecycle transitions.  Delivery and formatting belong to downstream
// consumers; the engine only hands over a tagged event with a flat key/value
// payload.
package notify

//go:generate mockgen -destination=../mocks/mock_notifier.go -package=mocks github.com/iliyamo/hospitality-reservation/internal/notify Notifier

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Type tags a notification.
type Type string

const (
	BookingConfirmed Type = "booking_confirmed"
	BookingCancelled Type = "booking_cancelled"
	CheckedIn        Type = "checked_in"
	CheckedOut       Type = "checked_out"
)

// Event is one notification.
type Event struct {
	Type       Type              `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	Payload    map[string]string `json:"payload"`
}

// Notifier accepts events.  Implementations must not block the caller for
// long; failures are reported but never roll back the transition.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// LogNotifier writes events to a logger.  It is used when no broker is
// configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("notify")}
}

func (n *LogNotifier) Notify(_ context.Context, e Event) error {
	fields := make([]zap.Field, 0, len(e.Payload)+2)
	fields = append(fields, zap.String("type", string(e.Type)), zap.Time("occurred_at", e.OccurredAt))
	for k, v := range e.Payload {
		fields = append(fields, zap.String(k, v))
	}
	n.log.Info("booking event", fields...)
	return nil
}

// Fanout delivers an event to every notifier and returns the first error.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, e Event) error {
	var first error
	for _, n := range f {
		if err := n.Notify(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
