package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType selects the coupon discount formula.
type DiscountType uint8

const (
	DiscountPercentage DiscountType = iota
	DiscountFixedAmount
	DiscountFreeNight
)

var discountTypeNames = [...]string{
	DiscountPercentage:  "percentage",
	DiscountFixedAmount: "fixedAmount",
	DiscountFreeNight:   "freeNight",
}

func (t DiscountType) String() string {
	if int(t) < len(discountTypeNames) {
		return discountTypeNames[t]
	}
	return fmt.Sprintf("DiscountType(%d)", uint8(t))
}

func ParseDiscountType(s string) (DiscountType, error) {
	for i, name := range discountTypeNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return DiscountType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown discount type %q", s)
}

func (t DiscountType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *DiscountType) UnmarshalText(b []byte) error {
	v, err := ParseDiscountType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t DiscountType) Value() (driver.Value, error) { return t.String(), nil }

func (t *DiscountType) Scan(src any) error {
	s, err := scanString(src)
	if err != nil {
		return err
	}
	return t.UnmarshalText([]byte(s))
}

// CouponScope is the dimension a coupon restricts itself to.
type CouponScope uint8

const (
	ScopeAll CouponScope = iota
	ScopeProperty
	ScopePropertyType
	ScopeLocation
)

var couponScopeNames = [...]string{
	ScopeAll:          "all",
	ScopeProperty:     "property",
	ScopePropertyType: "propertyType",
	ScopeLocation:     "location",
}

func (s CouponScope) String() string {
	if int(s) < len(couponScopeNames) {
		return couponScopeNames[s]
	}
	return fmt.Sprintf("CouponScope(%d)", uint8(s))
}

func ParseCouponScope(s string) (CouponScope, error) {
	for i, name := range couponScopeNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return CouponScope(i), nil
		}
	}
	return 0, fmt.Errorf("unknown coupon scope %q", s)
}

func (s CouponScope) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *CouponScope) UnmarshalText(b []byte) error {
	v, err := ParseCouponScope(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s CouponScope) Value() (driver.Value, error) { return s.String(), nil }

func (s *CouponScope) Scan(src any) error {
	str, err := scanString(src)
	if err != nil {
		return err
	}
	return s.UnmarshalText([]byte(str))
}

// Weekdays is a set of days of the week.  The empty set means every day.
type Weekdays uint8

// AllWeekdays is the explicit "every day" set.
const AllWeekdays Weekdays = 0

// NewWeekdays builds a set from the given days.
func NewWeekdays(days ...time.Weekday) Weekdays {
	var w Weekdays
	for _, d := range days {
		w |= 1 << uint(d)
	}
	return w
}

// Contains reports whether d is in the set; an empty set contains every day.
func (w Weekdays) Contains(d time.Weekday) bool {
	return w == AllWeekdays || w&(1<<uint(d)) != 0
}

func (w Weekdays) String() string {
	if w == AllWeekdays {
		return "all"
	}
	names := make([]string, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if w&(1<<uint(d)) != 0 {
			names = append(names, strings.ToLower(d.String()))
		}
	}
	return strings.Join(names, ",")
}

// ParseWeekdays accepts "all", an empty string, or a comma separated list of
// English day names ("monday,friday").
func ParseWeekdays(s string) (Weekdays, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return AllWeekdays, nil
	}
	var w Weekdays
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.EqualFold(part, "all") {
			return AllWeekdays, nil
		}
		d, ok := weekdayByName(part)
		if !ok {
			return 0, fmt.Errorf("unknown weekday %q", part)
		}
		w |= 1 << uint(d)
	}
	return w, nil
}

func weekdayByName(s string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) || strings.EqualFold(d.String()[:3], s) {
			return d, true
		}
	}
	return 0, false
}

func (w Weekdays) MarshalJSON() ([]byte, error) {
	if w == AllWeekdays {
		return []byte(`["all"]`), nil
	}
	parts := strings.Split(w.String(), ",")
	return []byte(`["` + strings.Join(parts, `","`) + `"]`), nil
}

func (w Weekdays) Value() (driver.Value, error) { return w.String(), nil }

func (w *Weekdays) Scan(src any) error {
	if src == nil {
		*w = AllWeekdays
		return nil
	}
	s, err := scanString(src)
	if err != nil {
		return err
	}
	v, err := ParseWeekdays(s)
	if err != nil {
		return err
	}
	*w = v
	return nil
}

// Coupon is a discount rule redeemable against a booking.  The activity
// window is half-open: a coupon is usable from StartDate up to but excluding
// EndDate.
type Coupon struct {
	ID                 uuid.UUID        `json:"id"`
	Code               string           `json:"code"`
	Description        string           `json:"description,omitempty"`
	DiscountType       DiscountType     `json:"discount_type"`
	DiscountValue      decimal.Decimal  `json:"discount_value"`
	MaxDiscountAmount  *decimal.Decimal `json:"max_discount_amount,omitempty"` // percentage coupons only
	MinOrderAmount     decimal.Decimal  `json:"min_order_amount"`
	MinNights          int              `json:"min_nights"`
	ApplicableDays     Weekdays         `json:"applicable_days"`
	ApplicableTo       CouponScope      `json:"applicable_to"`
	StartDate          time.Time        `json:"start_date"`
	EndDate            time.Time        `json:"end_date"`
	MaxTotalUses       *int             `json:"max_total_uses,omitempty"` // nil is unlimited
	MaxUsesPerCustomer int              `json:"max_uses_per_customer"`
	UsedCount          int              `json:"used_count"`
	IsActive           bool             `json:"is_active"`
	IsPublic           bool             `json:"is_public"`
	IsFeatured         bool             `json:"is_featured"`
}

// InWindow reports whether t falls in [StartDate, EndDate).
func (c *Coupon) InWindow(t time.Time) bool {
	return !t.Before(c.StartDate) && t.Before(c.EndDate)
}

// CouponApplication binds a scoped coupon to one property, property type or
// location.  Exactly one of the target fields is set, matching the coupon's
// ApplicableTo.
type CouponApplication struct {
	CouponID     uuid.UUID  `json:"coupon_id"`
	PropertyID   *uuid.UUID `json:"property_id,omitempty"`
	PropertyType string     `json:"property_type,omitempty"`
	Location     string     `json:"location,omitempty"`
}

// CouponUsage records the redemption of a coupon on a booking.  A booking has
// at most one usage row; cancelling the coupon deletes it.
type CouponUsage struct {
	ID             uuid.UUID       `json:"id"`
	CouponID       uuid.UUID       `json:"coupon_id"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	BookingID      uuid.UUID       `json:"booking_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	UsedAt         time.Time       `json:"used_at"`
}
