// Package queue carries booking lifecycle events over RabbitMQ.  The
// publisher implements notify.Notifier; the consumer drains the same queue
// into logs/booking.log.
package queue

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/hospitality-reservation/internal/notify"
)

// EventsQueue is the durable queue every lifecycle event is published to.
const EventsQueue = "booking.events"

// Message is the JSON body of a queued event.  Payload holds the booking
// snapshot fields (booking_id, customer_id, check_in, total_amount, ...)
// plus any event specific fields such as cancellation_fee.
type Message struct {
	Type       notify.Type       `json:"type"`
	OccurredAt string            `json:"occurred_at"` // RFC3339, UTC
	Payload    map[string]string `json:"payload"`
}

// MessageFromEvent converts a notification into its wire form.
func MessageFromEvent(e notify.Event) Message {
	return Message{
		Type:       e.Type,
		OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339),
		Payload:    e.Payload,
	}
}

// Event converts a received message back into a notification.  An
// unparseable timestamp leaves OccurredAt zero.
func (m Message) Event() notify.Event {
	t, _ := time.Parse(time.RFC3339, m.OccurredAt)
	return notify.Event{Type: m.Type, OccurredAt: t, Payload: m.Payload}
}

// lineKeys are printed first, in this order; the rest of the payload follows
// sorted by key.
var lineKeys = []string{"booking_id", "customer_id", "room_type_id", "check_in", "check_out", "rooms", "status", "total_amount", "currency"}

// Line renders the message as one human-friendly log line ending in '\n'.
func (m Message) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", m.OccurredAt, m.Type)

	seen := make(map[string]bool, len(lineKeys))
	for _, k := range lineKeys {
		if v, ok := m.Payload[k]; ok {
			fmt.Fprintf(&b, " | %s=%s", k, quoteIfSpaced(v))
			seen[k] = true
		}
	}
	rest := make([]string, 0, len(m.Payload))
	for k := range m.Payload {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		fmt.Fprintf(&b, " | %s=%s", k, quoteIfSpaced(m.Payload[k]))
	}
	b.WriteByte('\n')
	return b.String()
}

func quoteIfSpaced(v string) string {
	if strings.ContainsAny(v, " |") {
		return fmt.Sprintf("%q", v)
	}
	return v
}
