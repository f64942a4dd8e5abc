package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iliyamo/hospitality-reservation/internal/apperr"
	"github.com/iliyamo/hospitality-reservation/internal/model"
	"github.com/iliyamo/hospitality-reservation/internal/store"
)

// Get returns a booking visible to the actor: its customer, the host of its
// property, or an admin.
func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Booking, error) {
	const op = "booking.get"
	var b *model.Booking
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		b, err = tx.GetBooking(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(op, "booking not found")
		}
		if err != nil {
			return errors.Wrap(err, "get booking")
		}
		switch {
		case actor.IsAdmin():
			return nil
		case actor.Role == model.RoleCustomer && b.CustomerID == actor.UserID:
			return nil
		case actor.Role == model.RoleHost:
			return requireHost(ctx, tx, op, actor, b)
		}
		return apperr.Authorization(op, "booking belongs to another customer")
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListForCustomer returns the actor's own bookings, newest first.
func (s *Service) ListForCustomer(ctx context.Context, actor model.Actor) ([]model.Booking, error) {
	var out []model.Booking
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.ListBookingsByCustomer(ctx, actor.UserID)
		return errors.Wrap(err, "list bookings")
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Booking{}
	}
	return out, nil
}
