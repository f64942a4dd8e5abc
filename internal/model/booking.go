package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking is the reservation aggregate.  A booking reserves RoomsCount units
// of one room type for the stay [CheckIn, CheckOut).  The monetary fields are
// written at creation by the pricing engine and afterwards only by the coupon
// engine; TotalAmount is always derived through RecalculateTotal.
//
// Fields:
//
//	ID                    – primary key.
//	CustomerID            – customer who owns the booking.
//	PropertyID            – property the room type belongs to.
//	RoomTypeID            – reserved inventory unit.
//	CheckIn, CheckOut     – stay dates, checkout exclusive.
//	Nights                – cached night count of the stay.
//	Adults, Children      – guest counts.
//	RoomsCount            – number of units reserved.
//	RoomPrice             – gross price of all nights and units.
//	DiscountPercent/Amount – stay-length discount.
//	CouponDiscount*       – coupon discount, zero when no coupon is applied.
//	TaxAmount, ServiceFee – charges computed on the discounted subtotal.
//	TotalAmount           – amount due.
type Booking struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	PropertyID uuid.UUID `json:"property_id"`
	RoomTypeID uuid.UUID `json:"room_type_id"`

	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Nights     int       `json:"nights"`
	Adults     int       `json:"adults"`
	Children   int       `json:"children"`
	RoomsCount int       `json:"rooms_count"`

	GuestName       string `json:"guest_name"`
	GuestEmail      string `json:"guest_email"`
	GuestPhone      string `json:"guest_phone,omitempty"`
	SpecialRequests string `json:"special_requests,omitempty"`

	RoomPrice             decimal.Decimal `json:"room_price"`
	DiscountPercent       decimal.Decimal `json:"discount_percent"`
	DiscountAmount        decimal.Decimal `json:"discount_amount"`
	CouponDiscountPercent decimal.Decimal `json:"coupon_discount_percent"`
	CouponDiscountAmount  decimal.Decimal `json:"coupon_discount_amount"`
	TaxAmount             decimal.Decimal `json:"tax_amount"`
	ServiceFee            decimal.Decimal `json:"service_fee"`
	TotalAmount           decimal.Decimal `json:"total_amount"`
	Currency              string          `json:"currency"`

	Status             BookingStatus `json:"status"`
	PaymentStatus      PaymentStatus `json:"payment_status"`
	CancellationReason string        `json:"cancellation_reason,omitempty"`

	BookingDate  time.Time  `json:"booking_date"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ComputeTotal returns RoomPrice − DiscountAmount + TaxAmount + ServiceFee −
// CouponDiscountAmount for the booking's current components.
func (b *Booking) ComputeTotal() decimal.Decimal {
	return b.RoomPrice.
		Sub(b.DiscountAmount).
		Add(b.TaxAmount).
		Add(b.ServiceFee).
		Sub(b.CouponDiscountAmount)
}

// RecalculateTotal rewrites TotalAmount from its components.
func (b *Booking) RecalculateTotal() {
	b.TotalAmount = b.ComputeTotal()
}

// HasCoupon reports whether a coupon discount is currently applied.
func (b *Booking) HasCoupon() bool {
	return !b.CouponDiscountAmount.IsZero() || !b.CouponDiscountPercent.IsZero()
}

// Guests is the total number of guests on the booking.
func (b *Booking) Guests() int { return b.Adults + b.Children }

// Overlaps reports whether the booking's stay intersects [checkIn, checkOut)
// under the half-open rule.
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && b.CheckOut.After(checkIn)
}
