package coupon_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/iliyamo/hospitality-reservation/internal/apperr"
	"github.com/iliyamo/hospitality-reservation/internal/audit"
	"github.com/iliyamo/hospitality-reservation/internal/coupon"
	"github.com/iliyamo/hospitality-reservation/internal/mocks"
	"github.com/iliyamo/hospitality-reservation/internal/model"
	"github.com/iliyamo/hospitality-reservation/internal/store/memory"
)

var now = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

type fixture struct {
	store    *memory.Store
	engine   *coupon.Engine
	customer uuid.UUID
	property model.Property
	booking  model.Booking
}

// newFixture seeds a pending 5 night booking checking in on Sunday
// 2025-06-01: room price 5,000,000, service fee 175,000, tax 500,000,
// total 5,675,000.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	f := &fixture{store: st, customer: uuid.New()}
	f.property = model.Property{ID: uuid.New(), HostID: uuid.New(), PropertyType: "hotel", Location: "Hanoi", IsActive: true}
	st.AddProperty(f.property)

	f.booking = model.Booking{
		ID:            uuid.New(),
		CustomerID:    f.customer,
		PropertyID:    f.property.ID,
		RoomTypeID:    uuid.New(),
		CheckIn:       model.Date(2025, 6, 1),
		CheckOut:      model.Date(2025, 6, 6),
		Nights:        5,
		Adults:        2,
		RoomsCount:    1,
		RoomPrice:     dec("5000000"),
		ServiceFee:    dec("175000"),
		TaxAmount:     dec("500000"),
		Status:        model.BookingPending,
		PaymentStatus: model.PaymentUnpaid,
	}
	f.booking.RecalculateTotal()
	st.PutBooking(f.booking)

	f.engine = coupon.NewEngine(st, audit.Nop{}, zap.NewNop(), clock)
	return f
}

func activeCoupon(code string) model.Coupon {
	return model.Coupon{
		ID:                 uuid.New(),
		Code:               code,
		DiscountType:       model.DiscountPercentage,
		DiscountValue:      dec("10"),
		StartDate:          now.AddDate(0, -1, 0),
		EndDate:            now.AddDate(0, 1, 0),
		MaxUsesPerCustomer: 1,
		IsActive:           true,
		IsPublic:           true,
	}
}

func TestEngine_ApplyThenCancelRestoresBooking(t *testing.T) {
	f := newFixture(t)
	c := activeCoupon("SUMMER10")
	c.UsedCount = 7
	f.store.AddCoupon(c)
	ctx := context.Background()

	res, err := f.engine.Apply(ctx, "summer10", f.customer, f.booking.ID)
	require.NoError(t, err)
	assert.True(t, dec("567500").Equal(res.DiscountAmount))
	assert.True(t, dec("11.35").Equal(res.DiscountPercent))
	assert.True(t, dec("5107500").Equal(res.Booking.TotalAmount))
	assert.True(t, res.Booking.TotalAmount.Equal(res.Booking.ComputeTotal()))

	stored, _ := f.store.Coupon(c.ID)
	assert.Equal(t, 8, stored.UsedCount)
	require.Len(t, f.store.Usages(c.ID), 1)

	restored, err := f.engine.Cancel(ctx, f.booking.ID, f.customer)
	require.NoError(t, err)
	assert.True(t, f.booking.TotalAmount.Equal(restored.TotalAmount))
	assert.True(t, restored.CouponDiscountAmount.IsZero())
	assert.True(t, restored.CouponDiscountPercent.IsZero())

	stored, _ = f.store.Coupon(c.ID)
	assert.Equal(t, 7, stored.UsedCount)
	assert.Empty(t, f.store.Usages(c.ID))
}

func TestEngine_ApplyKeepsStayDiscount(t *testing.T) {
	f := newFixture(t)
	b := f.booking
	b.DiscountPercent = dec("10")
	b.DiscountAmount = dec("500000")
	b.RecalculateTotal()
	f.store.PutBooking(b)
	c := activeCoupon("FLAT")
	c.DiscountType = model.DiscountFixedAmount
	c.DiscountValue = dec("100000")
	f.store.AddCoupon(c)

	res, err := f.engine.Apply(context.Background(), "FLAT", f.customer, b.ID)
	require.NoError(t, err)
	assert.True(t, dec("500000").Equal(res.Booking.DiscountAmount))
	assert.True(t, b.TotalAmount.Sub(dec("100000")).Equal(res.Booking.TotalAmount))
}

func TestEngine_NoDoubleCoupon(t *testing.T) {
	f := newFixture(t)
	first := activeCoupon("FIRST")
	second := activeCoupon("SECOND")
	second.DiscountType = model.DiscountFixedAmount
	second.DiscountValue = dec("1000")
	f.store.AddCoupon(first)
	f.store.AddCoupon(second)
	ctx := context.Background()

	_, err := f.engine.Apply(ctx, "FIRST", f.customer, f.booking.ID)
	require.NoError(t, err)

	for _, code := range []string{"FIRST", "SECOND"} {
		_, err = f.engine.Apply(ctx, code, f.customer, f.booking.ID)
		assert.ErrorIs(t, err, apperr.ErrPrecondition, code)
	}
	stored, _ := f.store.Coupon(second.ID)
	assert.Equal(t, 0, stored.UsedCount)
}

func TestEngine_FreeNightCouponKeepsOnePaidNight(t *testing.T) {
	f := newFixture(t)
	c := activeCoupon("FREESTAY")
	c.DiscountType = model.DiscountFreeNight
	c.DiscountValue = dec("10")
	f.store.AddCoupon(c)

	res, err := f.engine.Apply(context.Background(), "FREESTAY", f.customer, f.booking.ID)
	require.NoError(t, err)
	// 4 of 5 nights at 1,000,000 each.
	assert.True(t, dec("4000000").Equal(res.DiscountAmount), res.DiscountAmount.String())
}

func TestEngine_ValidateRuleChain(t *testing.T) {
	maxUses := 3
	tests := []struct {
		name   string
		mutate func(f *fixture, c *model.Coupon) []model.CouponApplication
		want   coupon.Reason
	}{
		{
			name:   "valid",
			mutate: func(*fixture, *model.Coupon) []model.CouponApplication { return nil },
		},
		{
			name:   "inactive",
			mutate: func(_ *fixture, c *model.Coupon) []model.CouponApplication { c.IsActive = false; return nil },
			want:   coupon.ReasonInactive,
		},
		{
			name: "not started",
			mutate: func(_ *fixture, c *model.Coupon) []model.CouponApplication {
				c.StartDate = now.Add(time.Hour)
				return nil
			},
			want: coupon.ReasonNotStarted,
		},
		{
			name: "end date is exclusive",
			mutate: func(_ *fixture, c *model.Coupon) []model.CouponApplication {
				c.EndDate = now
				return nil
			},
			want: coupon.ReasonExpired,
		},
		{
			name: "property scope mismatch",
			mutate: func(_ *fixture, c *model.Coupon) []model.CouponApplication {
				c.ApplicableTo = model.ScopeProperty
				other := uuid.New()
				return []model.CouponApplication{{PropertyID: &other}}
			},
			want: coupon.ReasonScope,
		},
		{
			name: "property scope match",
			mutate: func(f *fixture, c *model.Coupon) []model.CouponApplication {
				c.ApplicableTo = model.ScopeProperty
				id := f.property.ID
				return []model.CouponApplication{{PropertyID: &id}}
			},
		},
		{
			name: "property type scope match",
			mutate: func(_ *fixture, c *model.Coupon) []model.CouponApplication {
				c.ApplicableTo = model.ScopePropertyType
				return []model.CouponApplication{{PropertyType: "villa"}, {PropertyType: "hotel"}}
			},
		},
		{
			name: "location scope mismatch",
			mutate: func(_ *fixture, c *model.Coupon) []model.CouponApplication {
				c.ApplicableTo = model.ScopeLocation
				return []model.CouponApplication{{Location: "Da Nang"}}
			},
			want: coupon.ReasonScope,
		},
		{
			name:   "min nights",
			mutate: func(_ *fixture, c *model.Coupon) []model.CouponApplication { c.MinNights = 6; return nil },
			want:   coupon.ReasonMinNights,
		},
		{
			name: "min order",
			mutate: func(_ *fixture, c *model.Coupon) []model.CouponApplication {
				c.MinOrderAmount = dec("6000000")
				return nil
			},
			want: coupon.ReasonMinOrder,
		},
		{
			name: "check-in weekday not allowed",
			mutate: func(_ *fixture, c *model.Coupon) []model.CouponApplication {
				c.ApplicableDays = model.NewWeekdays(time.Monday, time.Tuesday)
				return nil
			},
			want: coupon.ReasonWeekday,
		},
		{
			name: "check-in weekday allowed",
			mutate: func(_ *fixture, c *model.Coupon) []model.CouponApplication {
				c.ApplicableDays = model.NewWeekdays(time.Sunday)
				return nil
			},
		},
		{
			name: "global usage cap",
			mutate: func(_ *fixture, c *model.Coupon) []model.CouponApplication {
				c.MaxTotalUses = &maxUses
				c.UsedCount = 3
				return nil
			},
			want: coupon.ReasonUsageLimit,
		},
		{
			name: "per-customer cap of zero",
			mutate: func(_ *fixture, c *model.Coupon) []model.CouponApplication {
				c.MaxUsesPerCustomer = 0
				return nil
			},
			want: coupon.ReasonCustomerLimit,
		},
		{
			name: "global cap checked before per-customer cap",
			mutate: func(_ *fixture, c *model.Coupon) []model.CouponApplication {
				c.MaxTotalUses = &maxUses
				c.UsedCount = 3
				c.MaxUsesPerCustomer = 0
				return nil
			},
			want: coupon.ReasonUsageLimit,
		},
		{
			name: "min nights checked before min order",
			mutate: func(_ *fixture, c *model.Coupon) []model.CouponApplication {
				c.MinNights = 10
				c.MinOrderAmount = dec("99000000")
				return nil
			},
			want: coupon.ReasonMinNights,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			c := activeCoupon("CHAIN")
			apps := tt.mutate(f, &c)
			f.store.AddCoupon(c, apps...)

			v, err := f.engine.Validate(context.Background(), "chain", f.customer, f.booking.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want == "", v.Valid)
			assert.Equal(t, tt.want, v.Reason)
			if v.Valid {
				assert.True(t, v.DiscountAmount.IsPositive())
			}
		})
	}
}

func TestEngine_ValidatePerCustomerLimit(t *testing.T) {
	f := newFixture(t)
	c := activeCoupon("ONCE")
	f.store.AddCoupon(c)
	ctx := context.Background()

	other := f.booking
	other.ID = uuid.New()
	f.store.PutBooking(other)

	_, err := f.engine.Apply(ctx, "ONCE", f.customer, f.booking.ID)
	require.NoError(t, err)

	v, err := f.engine.Validate(ctx, "ONCE", f.customer, other.ID)
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Equal(t, coupon.ReasonCustomerLimit, v.Reason)

	_, err = f.engine.Apply(ctx, "ONCE", f.customer, other.ID)
	assert.ErrorIs(t, err, apperr.ErrPrecondition)
}

func TestEngine_ValidateMissingRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.engine.Validate(ctx, "NOPE", f.customer, f.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, coupon.ReasonCouponNotFound, v.Reason)

	f.store.AddCoupon(activeCoupon("REAL"))
	v, err = f.engine.Validate(ctx, "REAL", uuid.New(), f.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, coupon.ReasonBookingNotFound, v.Reason)

	_, err = f.engine.Validate(ctx, "x!", f.customer, f.booking.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEngine_ApplyGuards(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(f *fixture) (code string, customer uuid.UUID)
		want    error
	}{
		{
			name:    "unknown booking",
			prepare: func(f *fixture) (string, uuid.UUID) { f.booking.ID = uuid.New(); return "GOOD", f.customer },
			want:    apperr.ErrNotFound,
		},
		{
			name:    "another customer's booking",
			prepare: func(*fixture) (string, uuid.UUID) { return "GOOD", uuid.New() },
			want:    apperr.ErrAuthorization,
		},
		{
			name:    "unknown coupon",
			prepare: func(f *fixture) (string, uuid.UUID) { return "MISSING", f.customer },
			want:    apperr.ErrNotFound,
		},
		{
			name: "paid booking",
			prepare: func(f *fixture) (string, uuid.UUID) {
				b := f.booking
				b.PaymentStatus = model.PaymentPaid
				f.store.PutBooking(b)
				return "GOOD", f.customer
			},
			want: apperr.ErrPrecondition,
		},
		{
			name: "cancelled booking",
			prepare: func(f *fixture) (string, uuid.UUID) {
				b := f.booking
				b.Status = model.BookingCancelled
				f.store.PutBooking(b)
				return "GOOD", f.customer
			},
			want: apperr.ErrPrecondition,
		},
		{
			name: "completed booking",
			prepare: func(f *fixture) (string, uuid.UUID) {
				b := f.booking
				b.Status = model.BookingCompleted
				f.store.PutBooking(b)
				return "GOOD", f.customer
			},
			want: apperr.ErrPrecondition,
		},
		{
			name: "booking already discounted",
			prepare: func(f *fixture) (string, uuid.UUID) {
				b := f.booking
				b.CouponDiscountAmount = dec("1000")
				b.RecalculateTotal()
				f.store.PutBooking(b)
				return "GOOD", f.customer
			},
			want: apperr.ErrPrecondition,
		},
		{
			name:    "malformed code",
			prepare: func(f *fixture) (string, uuid.UUID) { return "no", f.customer },
			want:    apperr.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.store.AddCoupon(activeCoupon("GOOD"))
			code, customer := tt.prepare(f)

			_, err := f.engine.Apply(context.Background(), code, customer, f.booking.ID)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEngine_CancelGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Cancel(ctx, f.booking.ID, f.customer)
	assert.ErrorIs(t, err, apperr.ErrPrecondition)

	_, err = f.engine.Cancel(ctx, f.booking.ID, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	_, err = f.engine.Cancel(ctx, uuid.New(), f.customer)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestEngine_CancelRefusesSettledBookings(t *testing.T) {
	tests := []struct {
		name    string
		status  model.BookingStatus
		payment model.PaymentStatus
	}{
		{name: "paid and completed", status: model.BookingCompleted, payment: model.PaymentPaid},
		{name: "paid and confirmed", status: model.BookingConfirmed, payment: model.PaymentPaid},
		{name: "checked in", status: model.BookingCheckedIn, payment: model.PaymentUnpaid},
		{name: "cancelled", status: model.BookingCancelled, payment: model.PaymentUnpaid},
		{name: "refunded", status: model.BookingPending, payment: model.PaymentRefunded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			c := activeCoupon("SETTLED")
			f.store.AddCoupon(c)
			ctx := context.Background()

			res, err := f.engine.Apply(ctx, "SETTLED", f.customer, f.booking.ID)
			require.NoError(t, err)
			b := *res.Booking
			b.Status = tt.status
			b.PaymentStatus = tt.payment
			f.store.PutBooking(b)

			_, err = f.engine.Cancel(ctx, f.booking.ID, f.customer)
			assert.ErrorIs(t, err, apperr.ErrPrecondition)

			stored, ok := f.store.Booking(f.booking.ID)
			require.True(t, ok)
			assert.True(t, dec("5107500").Equal(stored.TotalAmount), stored.TotalAmount.String())
			assert.Len(t, f.store.Usages(c.ID), 1)
			kept, _ := f.store.Coupon(c.ID)
			assert.Equal(t, 1, kept.UsedCount)
		})
	}
}

func TestEngine_ConcurrentApplyHonoursGlobalCap(t *testing.T) {
	f := newFixture(t)
	one := 1
	c := activeCoupon("LASTONE")
	c.MaxTotalUses = &one
	f.store.AddCoupon(c)

	const n = 20
	type attempt struct{ customer, booking uuid.UUID }
	attempts := make([]attempt, n)
	for i := range attempts {
		b := f.booking
		b.ID = uuid.New()
		b.CustomerID = uuid.New()
		f.store.PutBooking(b)
		attempts[i] = attempt{customer: b.CustomerID, booking: b.ID}
	}

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		errs      = make(chan error, n)
	)
	for _, a := range attempts {
		wg.Add(1)
		go func(a attempt) {
			defer wg.Done()
			if _, err := f.engine.Apply(context.Background(), "LASTONE", a.customer, a.booking); err != nil {
				errs <- err
				return
			}
			succeeded.Add(1)
		}(a)
	}
	wg.Wait()
	close(errs)

	assert.EqualValues(t, 1, succeeded.Load())
	for err := range errs {
		assert.ErrorIs(t, err, apperr.ErrPrecondition)
	}
	stored, _ := f.store.Coupon(c.ID)
	assert.Equal(t, 1, stored.UsedCount)
	assert.Len(t, f.store.Usages(c.ID), 1)
}

func TestEngine_CancelFloorsUsedCount(t *testing.T) {
	f := newFixture(t)
	c := activeCoupon("FLOOR")
	f.store.AddCoupon(c)
	ctx := context.Background()

	_, err := f.engine.Apply(ctx, "FLOOR", f.customer, f.booking.ID)
	require.NoError(t, err)
	stored, _ := f.store.Coupon(c.ID)
	stored.UsedCount = 0
	f.store.AddCoupon(stored)

	_, err = f.engine.Cancel(ctx, f.booking.ID, f.customer)
	require.NoError(t, err)
	stored, _ = f.store.Coupon(c.ID)
	assert.Equal(t, 0, stored.UsedCount)
}

func TestEngine_AuditsFailedAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	auditor := mocks.NewMockAuditor(ctrl)
	f := newFixture(t)
	engine := coupon.NewEngine(f.store, auditor, zap.NewNop(), clock)

	var got audit.Entry
	auditor.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e audit.Entry) error {
			got = e
			return nil
		}).
		Times(1)

	_, err := engine.Apply(context.Background(), "GHOST", f.customer, f.booking.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "coupon.apply", got.Action)
	assert.False(t, got.Success)
	assert.Contains(t, got.Reason, "coupon not found")
	assert.Equal(t, f.booking.ID.String(), got.EntityID)
}

func TestEngine_ListApplicable(t *testing.T) {
	f := newFixture(t)
	featured := activeCoupon("FEATURED")
	featured.IsFeatured = true
	featured.DiscountType = model.DiscountFixedAmount
	featured.DiscountValue = dec("50000")
	private := activeCoupon("PRIVATE")
	private.IsPublic = false
	tooLong := activeCoupon("LONGSTAY")
	tooLong.MinNights = 14
	f.store.AddCoupon(activeCoupon("PLAIN"))
	f.store.AddCoupon(featured)
	f.store.AddCoupon(private)
	f.store.AddCoupon(tooLong)

	offers, err := f.engine.ListApplicable(context.Background(), f.customer, f.booking.ID)
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, "FEATURED", offers[0].Coupon.Code)
	assert.Equal(t, "PLAIN", offers[1].Coupon.Code)
	assert.True(t, decimal.NewFromInt(50000).Equal(offers[0].DiscountAmount))
}
