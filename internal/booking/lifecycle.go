package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/hospitality-reservation/internal/apperr"
	"github.com/iliyamo/hospitality-reservation/internal/model"
	"github.com/iliyamo/hospitality-reservation/internal/notify"
	"github.com/iliyamo/hospitality-reservation/internal/pricing"
	"github.com/iliyamo/hospitality-reservation/internal/store"
)

// cancellationFeePercent applies when a customer cancels a confirmed
// booking less than feeWindowDays before check-in.
var cancellationFeePercent = decimal.NewFromInt(10)

// Confirm moves the customer's pending booking to confirmed after
// re-checking that its rooms are still free.  Inventory taken by another
// booking since creation is reported as a concurrency conflict.
func (s *Service) Confirm(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Booking, error) {
	const op = "booking.confirm"
	entry := entryFor(op, actor, id)

	var b *model.Booking
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if b, err = lockBooking(ctx, tx, op, id); err != nil {
			return err
		}
		entry.Old = *b
		if b.CustomerID != actor.UserID {
			return apperr.Authorization(op, "booking belongs to another customer")
		}
		if b.Status != model.BookingPending {
			return apperr.Precondition(op, "only pending bookings can be confirmed, booking is %s", b.Status)
		}
		if b.CheckIn.Before(s.today()) {
			return apperr.Precondition(op, "check-in date has passed")
		}

		rt, err := tx.LockRoomType(ctx, b.RoomTypeID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !rt.IsActive) {
			return apperr.NotFound(op, "room type not found")
		}
		if err != nil {
			return errors.Wrap(err, "lock room type")
		}
		free, err := s.checker.Free(ctx, tx, rt, b.CheckIn, b.CheckOut, b.ID)
		if err != nil {
			return err
		}
		if free < b.RoomsCount {
			return apperr.Conflict(op, "rooms are no longer available for the selected dates")
		}

		now := s.clock.Now().UTC()
		b.Status = model.BookingConfirmed
		b.ConfirmedAt = stamp(now)
		b.UpdatedAt = now
		return errors.Wrap(tx.UpdateBooking(ctx, b), "update booking")
	})
	if err != nil {
		return nil, s.failed(ctx, entry, err)
	}

	entry.New = *b
	s.succeeded(ctx, entry)
	s.publish(ctx, notify.BookingConfirmed, b, nil)
	return b, nil
}

// CheckIn marks the guest as arrived.  Only the property host may check a
// guest in, and not before the check-in date.  Arrivals more than three days
// late are logged but accepted.
func (s *Service) CheckIn(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Booking, error) {
	const op = "booking.check_in"
	entry := entryFor(op, actor, id)

	var b *model.Booking
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if b, err = lockBooking(ctx, tx, op, id); err != nil {
			return err
		}
		entry.Old = *b
		if err := requireHost(ctx, tx, op, actor, b); err != nil {
			return err
		}
		if b.Status != model.BookingConfirmed {
			return apperr.Precondition(op, "only confirmed bookings can be checked in, booking is %s", b.Status)
		}
		today := s.today()
		if today.Before(b.CheckIn) {
			return apperr.Precondition(op, "check-in is not allowed before %s", b.CheckIn.Format("2006-01-02"))
		}
		if today.After(b.CheckIn.AddDate(0, 0, lateCheckInGraceDays)) {
			s.logger.Warn("late check-in",
				zap.String("booking_id", b.ID.String()),
				zap.Int("days_late", model.NightsBetween(b.CheckIn, today)),
			)
		}

		now := s.clock.Now().UTC()
		b.Status = model.BookingCheckedIn
		b.CheckedInAt = stamp(now)
		b.UpdatedAt = now
		return errors.Wrap(tx.UpdateBooking(ctx, b), "update booking")
	})
	if err != nil {
		return nil, s.failed(ctx, entry, err)
	}

	entry.New = *b
	s.succeeded(ctx, entry)
	s.publish(ctx, notify.CheckedIn, b, nil)
	return b, nil
}

// CheckOut completes the stay.  Early and late departures are logged and
// always accepted.
func (s *Service) CheckOut(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Booking, error) {
	const op = "booking.check_out"
	entry := entryFor(op, actor, id)

	var b *model.Booking
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if b, err = lockBooking(ctx, tx, op, id); err != nil {
			return err
		}
		entry.Old = *b
		if err := requireHost(ctx, tx, op, actor, b); err != nil {
			return err
		}
		if b.Status != model.BookingCheckedIn {
			return apperr.Precondition(op, "only checked-in bookings can be checked out, booking is %s", b.Status)
		}
		today := s.today()
		switch {
		case today.Before(b.CheckOut.AddDate(0, 0, -checkOutGraceDays)):
			s.logger.Warn("early check-out",
				zap.String("booking_id", b.ID.String()),
				zap.Int("days_early", model.NightsBetween(today, b.CheckOut)),
			)
		case today.After(b.CheckOut.AddDate(0, 0, checkOutGraceDays)):
			s.logger.Warn("late check-out",
				zap.String("booking_id", b.ID.String()),
				zap.Int("days_late", model.NightsBetween(b.CheckOut, today)),
			)
		}

		now := s.clock.Now().UTC()
		b.Status = model.BookingCompleted
		b.CheckedOutAt = stamp(now)
		b.UpdatedAt = now
		return errors.Wrap(tx.UpdateBooking(ctx, b), "update booking")
	})
	if err != nil {
		return nil, s.failed(ctx, entry, err)
	}

	entry.New = *b
	s.succeeded(ctx, entry)
	s.publish(ctx, notify.CheckedOut, b, nil)
	return b, nil
}

// Canceller says who cancelled a booking.
type Canceller string

const (
	CancelledByCustomer Canceller = "customer"
	CancelledByHost     Canceller = "host"
)

// CancelResult reports a cancellation.  CancellationFee is informational:
// it is handed to the refund workflow and is not deducted from the
// booking's TotalAmount.  An applied coupon stays on the booking.
type CancelResult struct {
	Booking         *model.Booking  `json:"booking"`
	CancelledBy     Canceller       `json:"cancelled_by"`
	CancellationFee decimal.Decimal `json:"cancellation_fee"`
}

// Cancel cancels a pending or confirmed booking on behalf of its customer
// or the property host.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, id uuid.UUID, reason string) (*CancelResult, error) {
	const op = "booking.cancel"
	entry := entryFor(op, actor, id)

	res := &CancelResult{CancellationFee: decimal.Zero}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		b, err := lockBooking(ctx, tx, op, id)
		if err != nil {
			return err
		}
		entry.Old = *b

		switch {
		case actor.Role == model.RoleCustomer && b.CustomerID == actor.UserID:
			res.CancelledBy = CancelledByCustomer
		case actor.Role == model.RoleHost:
			if err := requireHost(ctx, tx, op, actor, b); err != nil {
				return err
			}
			res.CancelledBy = CancelledByHost
		default:
			return apperr.Authorization(op, "only the customer or the property host can cancel this booking")
		}

		switch b.Status {
		case model.BookingCancelled, model.BookingCompleted, model.BookingCheckedIn:
			return apperr.Precondition(op, "a %s booking cannot be cancelled", b.Status)
		}

		now := s.clock.Now()
		today := s.today()
		if res.CancelledBy == CancelledByCustomer {
			if b.PaymentStatus == model.PaymentPaid {
				return apperr.Precondition(op, "paid bookings must be cancelled through a refund request")
			}
			if b.Status == model.BookingConfirmed {
				hours := model.StartOfDay(b.CheckIn, s.loc).Sub(now).Hours()
				if hours < minCancelNoticeHours {
					return apperr.Precondition(op, "confirmed bookings cannot be cancelled less than %d hours before check-in", minCancelNoticeHours)
				}
				if model.NightsBetween(today, b.CheckIn) < feeWindowDays {
					res.CancellationFee = pricing.Round(b.TotalAmount.Mul(cancellationFeePercent).Div(decimal.NewFromInt(100)))
				}
			}
		}

		b.Status = model.BookingCancelled
		b.CancelledAt = stamp(now.UTC())
		b.CancellationReason = reason
		b.UpdatedAt = now.UTC()
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return errors.Wrap(err, "update booking")
		}
		res.Booking = b
		return nil
	})
	if err != nil {
		return nil, s.failed(ctx, entry, err)
	}

	b := res.Booking
	entry.New = *b
	entry.Reason = reason
	s.succeeded(ctx, entry)
	if res.CancellationFee.IsPositive() {
		s.logger.Info("cancellation fee assessed",
			zap.String("booking_id", b.ID.String()),
			zap.String("fee", res.CancellationFee.StringFixed(2)),
			zap.String("total", b.TotalAmount.StringFixed(2)),
		)
	}
	s.publish(ctx, notify.BookingCancelled, b, map[string]string{
		"cancelled_by":     string(res.CancelledBy),
		"cancellation_fee": res.CancellationFee.StringFixed(2),
		"reason":           reason,
	})
	return res, nil
}
