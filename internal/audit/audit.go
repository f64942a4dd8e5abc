// Package audit records mutations of bookings and coupons.  Persisting the
// trail is the job of an external collaborator; this service emits entries
// through the Auditor interface and ships a zap-backed implementation that
// writes each entry as one structured log line.
package audit

//go:generate mockgen -destination=../mocks/mock_auditor.go -package=mocks github.com/iliyamo/hospitality-reservation/internal/audit Auditor

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Entry describes one attempted mutation.  Failed attempts are recorded
// too, with Success false and Reason set.
type Entry struct {
	Action     string `json:"action"`      // e.g. "booking.confirm"
	EntityType string `json:"entity_type"` // "booking" or "coupon"
	EntityID   string `json:"entity_id"`
	ActorID    string `json:"actor_id,omitempty"`
	ActorRole  string `json:"actor_role,omitempty"`
	Old        any    `json:"old,omitempty"`
	New        any    `json:"new,omitempty"`
	Success    bool   `json:"success"`
	Reason     string `json:"reason,omitempty"`
}

// Auditor receives audit entries.
type Auditor interface {
	Record(ctx context.Context, e Entry) error
}

// ZapAuditor writes entries to a zap logger under the "audit" name.
type ZapAuditor struct {
	log *zap.Logger
}

// NewZapAuditor wraps a logger.
func NewZapAuditor(log *zap.Logger) *ZapAuditor {
	return &ZapAuditor{log: log.Named("audit")}
}

// Record logs the entry.  Snapshots are marshalled to JSON so the line
// carries the full before and after state.
func (a *ZapAuditor) Record(_ context.Context, e Entry) error {
	fields := []zap.Field{
		zap.String("action", e.Action),
		zap.String("entity_type", e.EntityType),
		zap.String("entity_id", e.EntityID),
		zap.Bool("success", e.Success),
	}
	if e.ActorID != "" {
		fields = append(fields, zap.String("actor_id", e.ActorID), zap.String("actor_role", e.ActorRole))
	}
	if e.Reason != "" {
		fields = append(fields, zap.String("reason", e.Reason))
	}
	if e.Old != nil {
		fields = append(fields, snapshot("old", e.Old))
	}
	if e.New != nil {
		fields = append(fields, snapshot("new", e.New))
	}
	if e.Success {
		a.log.Info("audit", fields...)
	} else {
		a.log.Warn("audit", fields...)
	}
	return nil
}

func snapshot(key string, v any) zap.Field {
	b, err := json.Marshal(v)
	if err != nil {
		return zap.NamedError(key+"_error", err)
	}
	return zap.ByteString(key, b)
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }
