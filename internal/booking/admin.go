package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iliyamo/hospitality-reservation/internal/apperr"
	"github.com/iliyamo/hospitality-reservation/internal/model"
	"github.com/iliyamo/hospitality-reservation/internal/notify"
	"github.com/iliyamo/hospitality-reservation/internal/store"
)

// statusEvents maps a status to the notification fired when an admin moves
// a booking into it.  Pending has no event.
var statusEvents = map[model.BookingStatus]notify.Type{
	model.BookingConfirmed: notify.BookingConfirmed,
	model.BookingCheckedIn: notify.CheckedIn,
	model.BookingCompleted: notify.CheckedOut,
	model.BookingCancelled: notify.BookingCancelled,
}

// SetStatus forces a booking into any status.  Lifecycle guards are skipped;
// only the admin role is checked.
func (s *Service) SetStatus(ctx context.Context, actor model.Actor, id uuid.UUID, status string) (*model.Booking, error) {
	const op = "booking.set_status"
	entry := entryFor(op, actor, id)

	if !actor.IsAdmin() {
		return nil, s.failed(ctx, entry, apperr.Authorization(op, "admin role required"))
	}
	next, err := model.ParseBookingStatus(status)
	if err != nil {
		return nil, s.failed(ctx, entry, apperr.Validation(op, "unknown booking status %q", status))
	}

	var (
		b       *model.Booking
		changed bool
	)
	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if b, err = lockBooking(ctx, tx, op, id); err != nil {
			return err
		}
		entry.Old = *b
		changed = b.Status != next

		now := s.clock.Now().UTC()
		b.Status = next
		switch next {
		case model.BookingConfirmed:
			if b.ConfirmedAt == nil {
				b.ConfirmedAt = stamp(now)
			}
		case model.BookingCheckedIn:
			if b.CheckedInAt == nil {
				b.CheckedInAt = stamp(now)
			}
		case model.BookingCompleted:
			if b.CheckedOutAt == nil {
				b.CheckedOutAt = stamp(now)
			}
		case model.BookingCancelled:
			if b.CancelledAt == nil {
				b.CancelledAt = stamp(now)
			}
		}
		b.UpdatedAt = now
		return errors.Wrap(tx.UpdateBooking(ctx, b), "update booking")
	})
	if err != nil {
		return nil, s.failed(ctx, entry, err)
	}

	entry.New = *b
	s.succeeded(ctx, entry)
	if t, ok := statusEvents[next]; ok && changed {
		s.publish(ctx, t, b, map[string]string{"override": "admin"})
	}
	return b, nil
}

// SetPaymentStatus records the payment state reported by the payment side.
func (s *Service) SetPaymentStatus(ctx context.Context, actor model.Actor, id uuid.UUID, status string) (*model.Booking, error) {
	const op = "booking.set_payment_status"
	entry := entryFor(op, actor, id)

	if !actor.IsAdmin() {
		return nil, s.failed(ctx, entry, apperr.Authorization(op, "admin role required"))
	}
	next, err := model.ParsePaymentStatus(status)
	if err != nil {
		return nil, s.failed(ctx, entry, apperr.Validation(op, "unknown payment status %q", status))
	}

	var b *model.Booking
	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if b, err = lockBooking(ctx, tx, op, id); err != nil {
			return err
		}
		entry.Old = *b
		b.PaymentStatus = next
		b.UpdatedAt = s.clock.Now().UTC()
		return errors.Wrap(tx.UpdateBooking(ctx, b), "update booking")
	})
	if err != nil {
		return nil, s.failed(ctx, entry, err)
	}

	entry.New = *b
	s.succeeded(ctx, entry)
	return b, nil
}
