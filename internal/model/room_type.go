package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RoomType is a bookable category of units within a property.  The booking
// engine only reads room types and treats each loaded value as an immutable
// snapshot for the duration of one operation.
type RoomType struct {
	ID         uuid.UUID `json:"id"`
	PropertyID uuid.UUID `json:"property_id"`
	Name       string    `json:"name"`

	TotalRooms  int `json:"total_rooms"`  // capacity in units
	MaxAdults   int `json:"max_adults"`   // per booking
	MaxChildren int `json:"max_children"` // per booking
	MaxGuests   int `json:"max_guests"`   // adults + children per booking

	BasePrice    decimal.Decimal  `json:"base_price"`
	WeekendPrice *decimal.Decimal `json:"weekend_price,omitempty"` // nil falls back to BasePrice
	HolidayPrice *decimal.Decimal `json:"holiday_price,omitempty"` // nil falls back to the weekend/base chain

	WeeklyDiscountPercent  decimal.Decimal `json:"weekly_discount_percent"`
	MonthlyDiscountPercent decimal.Decimal `json:"monthly_discount_percent"`

	Currency string `json:"currency"`
	IsActive bool   `json:"is_active"`
}

// Property is the slice of a property record the booking engine needs: the
// host for role checks and the attributes coupon scopes match against.
type Property struct {
	ID           uuid.UUID `json:"id"`
	HostID       uuid.UUID `json:"host_id"`
	Name         string    `json:"name"`
	PropertyType string    `json:"property_type"`
	Location     string    `json:"location"`
	IsActive     bool      `json:"is_active"`
}
