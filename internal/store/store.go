// Package store declares the persistence contract the booking engine runs
// against.  Every operation executes inside Store.WithTx; the Lock* methods
// take row locks that are held until the transaction ends, which is how the
// engine serialises check-then-act sequences on a room type, a booking or a
// coupon.  Callers acquire locks in the order booking, room type, coupon.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/hospitality-reservation/internal/model"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint,
// such as a second usage row for the same booking.
var ErrDuplicate = errors.New("store: duplicate")

// Store opens transactions.
type Store interface {
	// WithTx runs fn in a read-committed transaction.  The transaction is
	// committed when fn returns nil and rolled back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// InventoryReader is the read side the availability checker needs.
type InventoryReader interface {
	GetRoomType(ctx context.Context, id uuid.UUID) (*model.RoomType, error)
	// ReservedRooms sums RoomsCount over non-cancelled bookings of the room
	// type that overlap [checkIn, checkOut).  A non-nil exclude booking is
	// left out of the sum.
	ReservedRooms(ctx context.Context, roomTypeID uuid.UUID, checkIn, checkOut time.Time, exclude uuid.UUID) (int, error)
}

// BookingTx reads and writes bookings.
type BookingTx interface {
	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	LockBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	UpdateBooking(ctx context.Context, b *model.Booking) error
	ListBookingsByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Booking, error)
}

// CouponTx reads and writes coupons and their usage rows.
type CouponTx interface {
	GetCouponByCode(ctx context.Context, code string) (*model.Coupon, error)
	LockCouponByCode(ctx context.Context, code string) (*model.Coupon, error)
	LockCoupon(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	UpdateCouponUsedCount(ctx context.Context, id uuid.UUID, usedCount int) error
	ListCouponApplications(ctx context.Context, couponID uuid.UUID) ([]model.CouponApplication, error)
	ListPublicCoupons(ctx context.Context) ([]model.Coupon, error)
	CountCustomerUsages(ctx context.Context, couponID, customerID uuid.UUID) (int, error)
	GetUsageByBooking(ctx context.Context, bookingID uuid.UUID) (*model.CouponUsage, error)
	CreateUsage(ctx context.Context, u *model.CouponUsage) error
	DeleteUsage(ctx context.Context, id uuid.UUID) error
}

// Tx is the full set of operations available inside a transaction.
type Tx interface {
	InventoryReader
	BookingTx
	CouponTx

	LockRoomType(ctx context.Context, id uuid.UUID) (*model.RoomType, error)
	GetProperty(ctx context.Context, id uuid.UUID) (*model.Property, error)
}
