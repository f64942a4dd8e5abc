// Package pricing turns a room type, a stay and a unit count into a money
// amount.  Quotes are pure functions of their inputs: the same room type,
// dates and units always produce the same Quote, which is what lets the
// preview shown to a customer match the price stored on the booking.
package pricing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hospitality-reservation/internal/model"
)

// MonthDay is a year-agnostic calendar day.
type MonthDay struct {
	Month time.Month
	Day   int
}

func (md MonthDay) matches(t time.Time) bool {
	return t.Month() == md.Month && t.Day() == md.Day
}

// DefaultHolidays are the fixed public holidays priced at the holiday rate.
var DefaultHolidays = []MonthDay{
	{time.January, 1},
	{time.April, 30},
	{time.May, 1},
	{time.September, 2},
}

// FeeTier charges Percent on subtotals strictly below Below.  A zero Below
// marks the open-ended last tier.
type FeeTier struct {
	Below   decimal.Decimal
	Percent decimal.Decimal
}

// DefaultFeeTiers is the service fee schedule, in base currency units.
var DefaultFeeTiers = []FeeTier{
	{Below: decimal.NewFromInt(1_000_000), Percent: decimal.NewFromInt(2)},
	{Below: decimal.NewFromInt(5_000_000), Percent: decimal.NewFromInt(3)},
	{Below: decimal.NewFromInt(10_000_000), Percent: decimal.RequireFromString("3.5")},
	{Percent: decimal.NewFromInt(4)},
}

// DefaultTaxPercent is the flat tax applied to the discounted subtotal.
var DefaultTaxPercent = decimal.NewFromInt(10)

const (
	weeklyNights  = 7
	monthlyNights = 30
	moneyPlaces   = 2
)

var hundred = decimal.NewFromInt(100)

// Tier names the price level a night was charged at.
type Tier string

const (
	TierBase    Tier = "base"
	TierWeekend Tier = "weekend"
	TierHoliday Tier = "holiday"
)

// NightPrice is one row of a quote's daily breakdown.
type NightPrice struct {
	Date  time.Time       `json:"date"`
	Tier  Tier            `json:"tier"`
	Price decimal.Decimal `json:"price"` // per unit
}

// Quote is the full price breakdown of a stay.
type Quote struct {
	Nights            int             `json:"nights"`
	Units             int             `json:"units"`
	RoomPrice         decimal.Decimal `json:"room_price"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
	DiscountAmount    decimal.Decimal `json:"discount_amount"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	ServiceFeePercent decimal.Decimal `json:"service_fee_percent"`
	ServiceFee        decimal.Decimal `json:"service_fee"`
	TaxPercent        decimal.Decimal `json:"tax_percent"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	Total             decimal.Decimal `json:"total"`
	Currency          string          `json:"currency"`
	Daily             []NightPrice    `json:"daily_breakdown"`
}

// Engine holds the calendar and fee schedule a quote is computed against.
type Engine struct {
	holidays   []MonthDay
	feeTiers   []FeeTier
	taxPercent decimal.Decimal
}

// NewEngine returns an engine using the default schedule plus any extra
// holidays.
func NewEngine(extraHolidays ...MonthDay) *Engine {
	hs := make([]MonthDay, 0, len(DefaultHolidays)+len(extraHolidays))
	hs = append(hs, DefaultHolidays...)
	hs = append(hs, extraHolidays...)
	return &Engine{holidays: hs, feeTiers: DefaultFeeTiers, taxPercent: DefaultTaxPercent}
}

// ParseMonthDays parses a comma separated "MM-DD" list such as "12-25,12-31".
func ParseMonthDays(s string) ([]MonthDay, error) {
	var out []MonthDay
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mm, dd, ok := strings.Cut(part, "-")
		if !ok {
			return nil, fmt.Errorf("invalid holiday %q, want MM-DD", part)
		}
		m, err1 := strconv.Atoi(mm)
		d, err2 := strconv.Atoi(dd)
		if err1 != nil || err2 != nil || m < 1 || m > 12 || d < 1 || d > 31 {
			return nil, fmt.Errorf("invalid holiday %q, want MM-DD", part)
		}
		out = append(out, MonthDay{Month: time.Month(m), Day: d})
	}
	return out, nil
}

// IsHoliday reports whether the date is priced at the holiday rate.
func (e *Engine) IsHoliday(d time.Time) bool {
	for _, h := range e.holidays {
		if h.matches(d) {
			return true
		}
	}
	return false
}

// IsWeekend reports whether the night of d is a Friday, Saturday or Sunday.
func IsWeekend(d time.Time) bool {
	switch d.Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		return true
	}
	return false
}

// NightlyRate resolves the per-unit price of the night starting on d.
// Holiday beats weekend beats base; an unset override falls through to the
// next level.
func (e *Engine) NightlyRate(rt model.RoomType, d time.Time) (decimal.Decimal, Tier) {
	if e.IsHoliday(d) && rt.HolidayPrice != nil {
		return *rt.HolidayPrice, TierHoliday
	}
	if IsWeekend(d) && rt.WeekendPrice != nil {
		return *rt.WeekendPrice, TierWeekend
	}
	return rt.BasePrice, TierBase
}

// StayDiscountPercent returns the stay-length discount for the given number
// of nights.
func StayDiscountPercent(rt model.RoomType, nights int) decimal.Decimal {
	switch {
	case nights >= monthlyNights:
		return rt.MonthlyDiscountPercent
	case nights >= weeklyNights:
		return rt.WeeklyDiscountPercent
	}
	return decimal.Zero
}

// ServiceFeePercent returns the fee percentage of the tier subtotal falls in.
func (e *Engine) ServiceFeePercent(subtotal decimal.Decimal) decimal.Decimal {
	for _, t := range e.feeTiers {
		if t.Below.IsZero() || subtotal.LessThan(t.Below) {
			return t.Percent
		}
	}
	return e.feeTiers[len(e.feeTiers)-1].Percent
}

// Quote prices units of rt for the stay [checkIn, checkOut).  It rejects
// empty or inverted stays and non-positive unit counts.
func (e *Engine) Quote(rt model.RoomType, checkIn, checkOut time.Time, units int) (Quote, error) {
	checkIn = model.DateOf(checkIn, time.UTC)
	checkOut = model.DateOf(checkOut, time.UTC)
	nights := model.NightsBetween(checkIn, checkOut)
	if nights <= 0 {
		return Quote{}, fmt.Errorf("check-out must be after check-in")
	}
	if units <= 0 {
		return Quote{}, fmt.Errorf("units must be positive")
	}

	q := Quote{Nights: nights, Units: units, Currency: rt.Currency, Daily: make([]NightPrice, 0, nights)}
	perUnit := decimal.Zero
	for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
		price, tier := e.NightlyRate(rt, d)
		q.Daily = append(q.Daily, NightPrice{Date: d, Tier: tier, Price: price})
		perUnit = perUnit.Add(price)
	}

	q.RoomPrice = round(perUnit.Mul(decimal.NewFromInt(int64(units))))
	q.DiscountPercent = StayDiscountPercent(rt, nights)
	q.DiscountAmount = percentOf(q.RoomPrice, q.DiscountPercent)
	q.Subtotal = q.RoomPrice.Sub(q.DiscountAmount)
	q.ServiceFeePercent = e.ServiceFeePercent(q.Subtotal)
	q.ServiceFee = percentOf(q.Subtotal, q.ServiceFeePercent)
	q.TaxPercent = e.taxPercent
	q.TaxAmount = percentOf(q.Subtotal, q.TaxPercent)
	q.Total = q.Subtotal.Add(q.ServiceFee).Add(q.TaxAmount)
	return q, nil
}

// ApplyTo writes the quote's monetary components onto a booking and derives
// its total.
func (q Quote) ApplyTo(b *model.Booking) {
	b.Nights = q.Nights
	b.RoomPrice = q.RoomPrice
	b.DiscountPercent = q.DiscountPercent
	b.DiscountAmount = q.DiscountAmount
	b.ServiceFee = q.ServiceFee
	b.TaxAmount = q.TaxAmount
	b.CouponDiscountPercent = decimal.Zero
	b.CouponDiscountAmount = decimal.Zero
	b.Currency = q.Currency
	b.RecalculateTotal()
}

func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return round(amount.Mul(percent).Div(hundred))
}

// Round rounds a money amount to the stored precision.
func Round(d decimal.Decimal) decimal.Decimal { return round(d) }

func round(d decimal.Decimal) decimal.Decimal { return d.Round(moneyPlaces) }
