package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iliyamo/hospitality-reservation/internal/apperr"
	"github.com/iliyamo/hospitality-reservation/internal/availability"
	"github.com/iliyamo/hospitality-reservation/internal/model"
	"github.com/iliyamo/hospitality-reservation/internal/pricing"
	"github.com/iliyamo/hospitality-reservation/internal/store"
)

// CreateRequest carries the customer's booking form.
type CreateRequest struct {
	RoomTypeID      uuid.UUID
	CheckIn         time.Time
	CheckOut        time.Time
	Adults          int
	Children        int
	Rooms           int
	GuestName       string
	GuestEmail      string
	GuestPhone      string
	SpecialRequests string
}

// validateStay checks the dates and counts that need no stored data.
func (s *Service) validateStay(op string, checkIn, checkOut time.Time, rooms, adults, children int) error {
	if rooms <= 0 {
		return apperr.Validation(op, "rooms must be at least 1")
	}
	if adults < 0 || children < 0 || adults+children <= 0 {
		return apperr.Validation(op, "at least one guest is required")
	}
	if model.NightsBetween(checkIn, checkOut) <= 0 {
		return apperr.Validation(op, "check-out must be after check-in")
	}
	if checkIn.Before(s.today()) {
		return apperr.Validation(op, "check-in date cannot be in the past")
	}
	return nil
}

// Quote previews the price of a stay with the same engine Create uses.
func (s *Service) Quote(ctx context.Context, roomTypeID uuid.UUID, checkIn, checkOut time.Time, rooms int) (pricing.Quote, error) {
	const op = "booking.quote"
	checkIn, checkOut = model.DateOf(checkIn, time.UTC), model.DateOf(checkOut, time.UTC)
	if rooms <= 0 {
		return pricing.Quote{}, apperr.Validation(op, "rooms must be at least 1")
	}
	if model.NightsBetween(checkIn, checkOut) <= 0 {
		return pricing.Quote{}, apperr.Validation(op, "check-out must be after check-in")
	}
	var q pricing.Quote
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		rt, err := availability.ActiveRoomType(ctx, tx, roomTypeID)
		if err != nil {
			return err
		}
		if rooms > rt.TotalRooms {
			return apperr.Validation(op, "room type has only %d room(s)", rt.TotalRooms)
		}
		q, err = s.pricer.Quote(*rt, checkIn, checkOut, rooms)
		return err
	})
	return q, err
}

// Availability runs the detailed availability check.
func (s *Service) Availability(ctx context.Context, req availability.Request) (availability.Result, error) {
	req.CheckIn, req.CheckOut = model.DateOf(req.CheckIn, time.UTC), model.DateOf(req.CheckOut, time.UTC)
	var res availability.Result
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		res, err = s.checker.Check(ctx, tx, req)
		return err
	})
	return res, err
}

// Create reserves inventory for the actor and stores a pending, unpaid
// booking priced by the pricing engine.  The room type row stays locked from
// the availability check to the insert.
func (s *Service) Create(ctx context.Context, actor model.Actor, req CreateRequest) (*model.Booking, error) {
	const op = "booking.create"
	id := uuid.New()
	entry := entryFor(op, actor, id)

	req.CheckIn, req.CheckOut = model.DateOf(req.CheckIn, time.UTC), model.DateOf(req.CheckOut, time.UTC)
	req.GuestName = strings.TrimSpace(req.GuestName)
	req.GuestEmail = strings.TrimSpace(req.GuestEmail)
	if err := s.validateStay(op, req.CheckIn, req.CheckOut, req.Rooms, req.Adults, req.Children); err != nil {
		return nil, s.failed(ctx, entry, err)
	}

	var b *model.Booking
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		rt, err := tx.LockRoomType(ctx, req.RoomTypeID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !rt.IsActive) {
			return apperr.NotFound(op, "room type not found")
		}
		if err != nil {
			return errors.Wrap(err, "lock room type")
		}
		prop, err := loadProperty(ctx, tx, op, rt.PropertyID)
		if err != nil {
			return err
		}
		if prop.HostID == actor.UserID {
			return apperr.Authorization(op, "hosts cannot book their own property")
		}
		if reasons := availability.Occupancy(rt, req.Rooms, req.Adults, req.Children); len(reasons) > 0 {
			return apperr.Validation(op, "%s", strings.Join(reasons, "; "))
		}
		free, err := s.checker.Free(ctx, tx, rt, req.CheckIn, req.CheckOut, uuid.Nil)
		if err != nil {
			return err
		}
		if free < req.Rooms {
			return apperr.Precondition(op, "only %d room(s) available for the selected dates", max(free, 0))
		}

		q, err := s.pricer.Quote(*rt, req.CheckIn, req.CheckOut, req.Rooms)
		if err != nil {
			return apperr.Validation(op, "%s", err.Error())
		}
		now := s.clock.Now().UTC()
		b = &model.Booking{
			ID:              id,
			CustomerID:      actor.UserID,
			PropertyID:      rt.PropertyID,
			RoomTypeID:      rt.ID,
			CheckIn:         req.CheckIn,
			CheckOut:        req.CheckOut,
			Adults:          req.Adults,
			Children:        req.Children,
			RoomsCount:      req.Rooms,
			GuestName:       req.GuestName,
			GuestEmail:      req.GuestEmail,
			GuestPhone:      req.GuestPhone,
			SpecialRequests: req.SpecialRequests,
			Status:          model.BookingPending,
			PaymentStatus:   model.PaymentUnpaid,
			BookingDate:     now,
			UpdatedAt:       now,
		}
		q.ApplyTo(b)
		if err := tx.CreateBooking(ctx, b); err != nil {
			return errors.Wrap(err, "insert booking")
		}
		return nil
	})
	if err != nil {
		return nil, s.failed(ctx, entry, err)
	}

	entry.New = *b
	s.succeeded(ctx, entry)
	s.logger.Info("booking created",
		zap.String("booking_id", b.ID.String()),
		zap.String("room_type_id", b.RoomTypeID.String()),
		zap.Int("rooms", b.RoomsCount),
		zap.String("total", b.TotalAmount.StringFixed(2)),
	)
	return b, nil
}
