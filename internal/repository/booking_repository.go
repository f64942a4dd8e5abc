package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/hospitality-reservation/internal/model"
)

const bookingColumns = `id, customer_id, property_id, room_type_id, check_in, check_out, nights,
	adults, children, rooms_count, guest_name, guest_email, guest_phone, special_requests,
	room_price, discount_percent, discount_amount, coupon_discount_percent, coupon_discount_amount,
	tax_amount, service_fee, total_amount, currency, status, payment_status, cancellation_reason,
	booking_date, confirmed_at, checked_in_at, checked_out_at, cancelled_at, updated_at`

func scanBooking(s scanner) (*model.Booking, error) {
	var b model.Booking
	var confirmed, checkedIn, checkedOut, cancelled sql.NullTime
	err := s.Scan(
		&b.ID, &b.CustomerID, &b.PropertyID, &b.RoomTypeID, &b.CheckIn, &b.CheckOut, &b.Nights,
		&b.Adults, &b.Children, &b.RoomsCount, &b.GuestName, &b.GuestEmail, &b.GuestPhone, &b.SpecialRequests,
		&b.RoomPrice, &b.DiscountPercent, &b.DiscountAmount, &b.CouponDiscountPercent, &b.CouponDiscountAmount,
		&b.TaxAmount, &b.ServiceFee, &b.TotalAmount, &b.Currency, &b.Status, &b.PaymentStatus, &b.CancellationReason,
		&b.BookingDate, &confirmed, &checkedIn, &checkedOut, &cancelled, &b.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	// DATE columns come back at midnight in the session zone; normalise to
	// the model's UTC calendar dates.
	b.CheckIn = model.DateOf(b.CheckIn, time.UTC)
	b.CheckOut = model.DateOf(b.CheckOut, time.UTC)
	b.BookingDate = b.BookingDate.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	b.ConfirmedAt = nullTime(&confirmed)
	b.CheckedInAt = nullTime(&checkedIn)
	b.CheckedOutAt = nullTime(&checkedOut)
	b.CancelledAt = nullTime(&cancelled)
	return &b, nil
}

// CreateBooking inserts a new booking row.  The caller supplies the ID.
func (t *Tx) CreateBooking(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (` + bookingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := t.exec(ctx, q,
		b.ID, b.CustomerID, b.PropertyID, b.RoomTypeID, b.CheckIn, b.CheckOut, b.Nights,
		b.Adults, b.Children, b.RoomsCount, b.GuestName, b.GuestEmail, b.GuestPhone, b.SpecialRequests,
		b.RoomPrice, b.DiscountPercent, b.DiscountAmount, b.CouponDiscountPercent, b.CouponDiscountAmount,
		b.TaxAmount, b.ServiceFee, b.TotalAmount, b.Currency, b.Status, b.PaymentStatus, b.CancellationReason,
		b.BookingDate.UTC(), timeArg(b.ConfirmedAt), timeArg(b.CheckedInAt), timeArg(b.CheckedOutAt), timeArg(b.CancelledAt),
		b.UpdatedAt.UTC(),
	)
	return translate(err)
}

// GetBooking loads a booking without locking it.
func (t *Tx) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return scanBooking(t.queryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
}

// LockBooking loads a booking under its row lock.
func (t *Tx) LockBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return scanBooking(t.queryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ? FOR UPDATE`, id))
}

// UpdateBooking writes back every mutable column of a booking.
func (t *Tx) UpdateBooking(ctx context.Context, b *model.Booking) error {
	const q = `UPDATE bookings SET
		room_price = ?, discount_percent = ?, discount_amount = ?,
		coupon_discount_percent = ?, coupon_discount_amount = ?,
		tax_amount = ?, service_fee = ?, total_amount = ?,
		status = ?, payment_status = ?, cancellation_reason = ?,
		confirmed_at = ?, checked_in_at = ?, checked_out_at = ?, cancelled_at = ?,
		updated_at = ?
		WHERE id = ?`
	return mustAffect(t.exec(ctx, q,
		b.RoomPrice, b.DiscountPercent, b.DiscountAmount,
		b.CouponDiscountPercent, b.CouponDiscountAmount,
		b.TaxAmount, b.ServiceFee, b.TotalAmount,
		b.Status, b.PaymentStatus, b.CancellationReason,
		timeArg(b.ConfirmedAt), timeArg(b.CheckedInAt), timeArg(b.CheckedOutAt), timeArg(b.CancelledAt),
		b.UpdatedAt.UTC(),
		b.ID,
	))
}

// ListBookingsByCustomer returns a customer's bookings, newest first.
func (t *Tx) ListBookingsByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Booking, error) {
	rows, err := t.query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE customer_id = ? ORDER BY booking_date DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// ReservedRooms sums the units held by live bookings that overlap the
// half-open stay [checkIn, checkOut).
func (t *Tx) ReservedRooms(ctx context.Context, roomTypeID uuid.UUID, checkIn, checkOut time.Time, exclude uuid.UUID) (int, error) {
	const q = `SELECT COALESCE(SUM(rooms_count), 0) FROM bookings
		WHERE room_type_id = ? AND status <> ? AND check_in < ? AND check_out > ? AND id <> ?`
	var n int
	err := t.queryRow(ctx, q, roomTypeID, model.BookingCancelled, checkOut, checkIn, exclude).Scan(&n)
	return n, err
}
