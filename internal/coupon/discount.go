package coupon

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hospitality-reservation/internal/model"
	"github.com/iliyamo/hospitality-reservation/internal/pricing"
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9]{3,20}$`)

var hundred = decimal.NewFromInt(100)

// NormalizeCode trims and upper-cases a code and reports whether it has the
// 3 to 20 alphanumeric character format.
func NormalizeCode(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		return "", false
	}
	return strings.ToUpper(code), true
}

// CalculateDiscount computes the discount a coupon grants on an order.
//
//	percentage  – orderAmount × value / 100, capped at MaxDiscountAmount.
//	fixedAmount – value.
//	freeNight   – (roomPrice / nights) × free nights, where free nights is
//	              floor(value) limited so that at least one night is paid.
//
// The result never exceeds orderAmount, is never negative and is rounded
// to the stored money precision.
func CalculateDiscount(c *model.Coupon, orderAmount, roomPrice decimal.Decimal, nights int) decimal.Decimal {
	amount := decimal.Zero
	switch c.DiscountType {
	case model.DiscountPercentage:
		amount = orderAmount.Mul(c.DiscountValue).Div(hundred)
		if c.MaxDiscountAmount != nil && amount.GreaterThan(*c.MaxDiscountAmount) {
			amount = *c.MaxDiscountAmount
		}
	case model.DiscountFixedAmount:
		amount = c.DiscountValue
	case model.DiscountFreeNight:
		amount = freeNightsValue(c.DiscountValue, roomPrice, nights)
	}
	if amount.GreaterThan(orderAmount) {
		amount = orderAmount
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return pricing.Round(amount)
}

// FreeNights is the number of nights a freeNight coupon of the given value
// waives on a stay.
func FreeNights(value decimal.Decimal, nights int) int {
	if nights <= 0 || value.IsNegative() {
		return 0
	}
	free := int(value.Floor().IntPart())
	if free > nights {
		free = nights
	}
	if free >= nights {
		free = nights - 1
	}
	return free
}

func freeNightsValue(value, roomPrice decimal.Decimal, nights int) decimal.Decimal {
	free := FreeNights(value, nights)
	if free <= 0 {
		return decimal.Zero
	}
	perNight := roomPrice.Div(decimal.NewFromInt(int64(nights)))
	return perNight.Mul(decimal.NewFromInt(int64(free)))
}

// DiscountPercentOf expresses a coupon discount as a percentage of the room
// price, for display.
func DiscountPercentOf(discount, roomPrice decimal.Decimal) decimal.Decimal {
	if roomPrice.IsZero() {
		return decimal.Zero
	}
	return discount.Div(roomPrice).Mul(hundred).Round(2)
}
