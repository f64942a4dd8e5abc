// Package booking implements the booking lifecycle:
//
//	pending -> confirmed -> checkedIn -> completed
//	pending | confirmed -> cancelled
//
// Each transition is guarded by role, ownership, status and date rules, runs
// in one store transaction holding the booking row lock, is recorded with
// the auditor (successful or not) and, once committed, fires a notification.
// Dates are calendar dates in the property time zone given to NewService.
package booking

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iliyamo/hospitality-reservation/internal/apperr"
	"github.com/iliyamo/hospitality-reservation/internal/audit"
	"github.com/iliyamo/hospitality-reservation/internal/availability"
	"github.com/iliyamo/hospitality-reservation/internal/model"
	"github.com/iliyamo/hospitality-reservation/internal/notify"
	"github.com/iliyamo/hospitality-reservation/internal/pricing"
	"github.com/iliyamo/hospitality-reservation/internal/store"
)

const (
	lateCheckInGraceDays = 3
	checkOutGraceDays    = 1
	minCancelNoticeHours = 24
	feeWindowDays        = 7
)

// Service runs booking operations.
type Service struct {
	store    store.Store
	pricer   *pricing.Engine
	checker  *availability.Checker
	notifier notify.Notifier
	auditor  audit.Auditor
	logger   *zap.Logger
	clock    Clock
	loc      *time.Location
}

// NewService wires a service.  loc is the time zone "today" is evaluated in;
// nil means UTC.
func NewService(st store.Store, pricer *pricing.Engine, notifier notify.Notifier, auditor audit.Auditor, logger *zap.Logger, clock Clock, loc *time.Location) *Service {
	if st == nil || pricer == nil || notifier == nil || auditor == nil || logger == nil {
		panic("nil dependency passed to booking.NewService")
	}
	if clock == nil {
		clock = SystemClock
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:    st,
		pricer:   pricer,
		checker:  availability.NewChecker(clock.Now, loc),
		notifier: notifier,
		auditor:  auditor,
		logger:   logger,
		clock:    clock,
		loc:      loc,
	}
}

func (s *Service) today() time.Time { return model.DateOf(s.clock.Now(), s.loc) }

// lockBooking loads a booking under its row lock.
func lockBooking(ctx context.Context, tx store.Tx, op string, id uuid.UUID) (*model.Booking, error) {
	b, err := tx.LockBooking(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(op, "booking not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "lock booking")
	}
	return b, nil
}

// loadProperty returns the property a booking belongs to.
func loadProperty(ctx context.Context, tx store.Tx, op string, id uuid.UUID) (*model.Property, error) {
	p, err := tx.GetProperty(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(op, "property not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load property")
	}
	return p, nil
}

// requireHost allows only the host of the booking's property.
func requireHost(ctx context.Context, tx store.Tx, op string, actor model.Actor, b *model.Booking) error {
	p, err := loadProperty(ctx, tx, op, b.PropertyID)
	if err != nil {
		return err
	}
	if actor.Role != model.RoleHost || p.HostID != actor.UserID {
		return apperr.Authorization(op, "only the property host can do this")
	}
	return nil
}

func entryFor(op string, actor model.Actor, id uuid.UUID) audit.Entry {
	return audit.Entry{
		Action:     op,
		EntityType: "booking",
		EntityID:   id.String(),
		ActorID:    actor.UserID.String(),
		ActorRole:  string(actor.Role),
	}
}

// failed records a failed attempt and returns err unchanged.
func (s *Service) failed(ctx context.Context, entry audit.Entry, err error) error {
	entry.Success = false
	entry.Reason = err.Error()
	if aerr := s.auditor.Record(ctx, entry); aerr != nil {
		s.logger.Error("audit record failed", zap.String("action", entry.Action), zap.Error(aerr))
	}
	return err
}

func (s *Service) succeeded(ctx context.Context, entry audit.Entry) {
	entry.Success = true
	if err := s.auditor.Record(ctx, entry); err != nil {
		s.logger.Error("audit record failed", zap.String("action", entry.Action), zap.Error(err))
	}
}

// publish fires a notification for a committed transition.  Delivery
// failures are logged and never surface to the caller.
func (s *Service) publish(ctx context.Context, t notify.Type, b *model.Booking, extra map[string]string) {
	payload := map[string]string{
		"booking_id":   b.ID.String(),
		"customer_id":  b.CustomerID.String(),
		"property_id":  b.PropertyID.String(),
		"room_type_id": b.RoomTypeID.String(),
		"check_in":     b.CheckIn.Format(time.DateOnly),
		"check_out":    b.CheckOut.Format(time.DateOnly),
		"nights":       strconv.Itoa(b.Nights),
		"rooms":        strconv.Itoa(b.RoomsCount),
		"guests":       strconv.Itoa(b.Guests()),
		"guest_name":   b.GuestName,
		"guest_email":  b.GuestEmail,
		"status":       b.Status.String(),
		"total_amount": b.TotalAmount.StringFixed(2),
		"currency":     b.Currency,
	}
	for k, v := range extra {
		payload[k] = v
	}
	ev := notify.Event{Type: t, OccurredAt: s.clock.Now().UTC(), Payload: payload}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.logger.Warn("booking notification failed",
			zap.String("type", string(t)),
			zap.String("booking_id", b.ID.String()),
			zap.Error(err),
		)
	}
}

func stamp(t time.Time) *time.Time { return &t }
