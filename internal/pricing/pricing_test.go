package pricing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hospitality-reservation/internal/model"
	"github.com/iliyamo/hospitality-reservation/internal/pricing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got.String())
}

func baseRoom() model.RoomType {
	return model.RoomType{
		TotalRooms:             5,
		BasePrice:              dec("1000000"),
		WeeklyDiscountPercent:  dec("10"),
		MonthlyDiscountPercent: dec("20"),
		Currency:               "VND",
		IsActive:               true,
	}
}

func TestQuote_WeeklyDiscountBoundary(t *testing.T) {
	engine := pricing.NewEngine()
	// 2025-06-09 is a Monday; no weekend price so every night is base.
	q, err := engine.Quote(baseRoom(), model.Date(2025, 6, 9), model.Date(2025, 6, 16), 1)
	require.NoError(t, err)

	assert.Equal(t, 7, q.Nights)
	assertMoney(t, "7000000", q.RoomPrice, "room price")
	assertMoney(t, "10", q.DiscountPercent, "discount percent")
	assertMoney(t, "700000", q.DiscountAmount, "discount amount")
	assertMoney(t, "6300000", q.Subtotal, "subtotal")
	assertMoney(t, "3.5", q.ServiceFeePercent, "service fee percent")
	assertMoney(t, "220500", q.ServiceFee, "service fee")
	assertMoney(t, "630000", q.TaxAmount, "tax")
	assertMoney(t, "7150500", q.Total, "total")
	assert.Len(t, q.Daily, 7)
}

func TestQuote_NightlyRatePriority(t *testing.T) {
	rt := baseRoom()
	rt.WeekendPrice = ptr(dec("1500000"))
	rt.HolidayPrice = ptr(dec("2000000"))
	engine := pricing.NewEngine()

	// 2025-04-29 Tue (base), 04-30 Wed (holiday), 05-01 Thu (holiday),
	// 05-02 Fri (weekend), 05-03 Sat (weekend).
	q, err := engine.Quote(rt, model.Date(2025, 4, 29), model.Date(2025, 5, 4), 1)
	require.NoError(t, err)

	tiers := make([]pricing.Tier, 0, len(q.Daily))
	for _, n := range q.Daily {
		tiers = append(tiers, n.Tier)
	}
	assert.Equal(t, []pricing.Tier{
		pricing.TierBase, pricing.TierHoliday, pricing.TierHoliday, pricing.TierWeekend, pricing.TierWeekend,
	}, tiers)
	assertMoney(t, "8000000", q.RoomPrice, "room price")
}

func TestQuote_HolidayOnWeekendWithoutHolidayPriceFallsBackToWeekend(t *testing.T) {
	rt := baseRoom()
	rt.WeekendPrice = ptr(dec("1500000"))
	engine := pricing.NewEngine()

	// 2027-01-01 is a Friday.
	q, err := engine.Quote(rt, model.Date(2027, 1, 1), model.Date(2027, 1, 2), 2)
	require.NoError(t, err)

	assert.Equal(t, pricing.TierWeekend, q.Daily[0].Tier)
	assertMoney(t, "3000000", q.RoomPrice, "room price")
}

func TestQuote_MonthlyDiscountWinsOverWeekly(t *testing.T) {
	rt := baseRoom()
	rt.BasePrice = dec("100000")
	engine := pricing.NewEngine()

	q, err := engine.Quote(rt, model.Date(2025, 6, 1), model.Date(2025, 7, 1), 1)
	require.NoError(t, err)

	assert.Equal(t, 30, q.Nights)
	assertMoney(t, "20", q.DiscountPercent, "discount percent")
	assertMoney(t, "600000", q.DiscountAmount, "discount amount")
	assertMoney(t, "2400000", q.Subtotal, "subtotal")
	assertMoney(t, "72000", q.ServiceFee, "service fee")
}

func TestEngine_ServiceFeeTiers(t *testing.T) {
	engine := pricing.NewEngine()
	tests := []struct {
		subtotal string
		want     string
	}{
		{"999999.99", "2"},
		{"1000000", "3"},
		{"4999999", "3"},
		{"5000000", "3.5"},
		{"9999999.99", "3.5"},
		{"10000000", "4"},
		{"250000000", "4"},
	}
	for _, tt := range tests {
		t.Run(tt.subtotal, func(t *testing.T) {
			assertMoney(t, tt.want, engine.ServiceFeePercent(dec(tt.subtotal)), "fee percent")
		})
	}
}

func TestQuote_Deterministic(t *testing.T) {
	rt := baseRoom()
	rt.WeekendPrice = ptr(dec("1234567.89"))
	engine := pricing.NewEngine()

	for nights := 1; nights <= 40; nights += 3 {
		for units := 1; units <= 3; units++ {
			in := model.Date(2025, 12, 20)
			out := in.AddDate(0, 0, nights)
			a, errA := engine.Quote(rt, in, out, units)
			b, errB := engine.Quote(rt, in, out, units)
			require.NoError(t, errA)
			require.NoError(t, errB)
			assert.Equal(t, a, b)
			assert.True(t, a.Total.Equal(a.RoomPrice.Sub(a.DiscountAmount).Add(a.TaxAmount).Add(a.ServiceFee)))
		}
	}
}

func TestQuote_RejectsInvalidInput(t *testing.T) {
	engine := pricing.NewEngine()
	_, err := engine.Quote(baseRoom(), model.Date(2025, 6, 2), model.Date(2025, 6, 2), 1)
	assert.Error(t, err)
	_, err = engine.Quote(baseRoom(), model.Date(2025, 6, 2), model.Date(2025, 6, 3), 0)
	assert.Error(t, err)
}

func TestQuote_ApplyToBookingKeepsTotalInvariant(t *testing.T) {
	engine := pricing.NewEngine()
	q, err := engine.Quote(baseRoom(), model.Date(2025, 6, 9), model.Date(2025, 6, 16), 2)
	require.NoError(t, err)

	var b model.Booking
	q.ApplyTo(&b)
	assert.True(t, b.TotalAmount.Equal(q.Total))
	assert.True(t, b.TotalAmount.Equal(b.ComputeTotal()))
}

func TestParseMonthDays(t *testing.T) {
	days, err := pricing.ParseMonthDays("12-25, 12-31")
	require.NoError(t, err)
	assert.Equal(t, []pricing.MonthDay{{Month: time.December, Day: 25}, {Month: time.December, Day: 31}}, days)

	engine := pricing.NewEngine(days...)
	assert.True(t, engine.IsHoliday(model.Date(2030, 12, 25)))
	assert.True(t, engine.IsHoliday(model.Date(2030, 9, 2)))

	_, err = pricing.ParseMonthDays("13-01")
	assert.Error(t, err)
}
