// Package coupon validates coupon codes against bookings, computes coupon
// discounts, and applies or reverses them on a booking's total.
//
// Apply and Cancel are exact inverses: a booking's TotalAmount,
// CouponDiscountAmount and CouponDiscountPercent, and the coupon's
// UsedCount, return to their previous values after an apply/cancel pair.
// Both operations lock the booking row before the coupon row.
package coupon

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/hospitality-reservation/internal/apperr"
	"github.com/iliyamo/hospitality-reservation/internal/audit"
	"github.com/iliyamo/hospitality-reservation/internal/model"
	"github.com/iliyamo/hospitality-reservation/internal/store"
)

// Reason identifies the first validation rule a coupon failed.
type Reason string

const (
	ReasonBookingNotFound  Reason = "booking_not_found"
	ReasonCouponNotFound   Reason = "coupon_not_found"
	ReasonInactive         Reason = "coupon_inactive"
	ReasonNotStarted       Reason = "coupon_not_started"
	ReasonExpired          Reason = "coupon_expired"
	ReasonScope            Reason = "not_applicable_to_booking"
	ReasonMinNights        Reason = "min_nights_not_met"
	ReasonMinOrder         Reason = "min_order_not_met"
	ReasonWeekday          Reason = "weekday_not_applicable"
	ReasonUsageLimit       Reason = "usage_limit_reached"
	ReasonCustomerLimit    Reason = "customer_limit_reached"
	ReasonNoDiscount       Reason = "no_discount"
	ReasonAlreadyHasCoupon Reason = "booking_has_coupon"
)

var reasonMessages = map[Reason]string{
	ReasonBookingNotFound:  "booking not found",
	ReasonCouponNotFound:   "coupon not found",
	ReasonInactive:         "coupon is not active",
	ReasonNotStarted:       "coupon is not yet valid",
	ReasonExpired:          "coupon has expired",
	ReasonScope:            "coupon does not apply to this property",
	ReasonMinNights:        "stay is shorter than the coupon's minimum nights",
	ReasonMinOrder:         "order amount is below the coupon's minimum",
	ReasonWeekday:          "coupon is not valid for the check-in weekday",
	ReasonUsageLimit:       "coupon usage limit reached",
	ReasonCustomerLimit:    "you have already used this coupon the maximum number of times",
	ReasonNoDiscount:       "coupon does not reduce this booking",
	ReasonAlreadyHasCoupon: "booking already has a coupon applied",
}

// Message returns the client facing text of a reason.
func (r Reason) Message() string { return reasonMessages[r] }

// Validation is the outcome of the rule chain.
type Validation struct {
	Valid          bool            `json:"valid"`
	Reason         Reason          `json:"reason,omitempty"`
	Message        string          `json:"message,omitempty"`
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAfter     decimal.Decimal `json:"total_after_discount"`
}

func fail(code string, r Reason) *Validation {
	return &Validation{Code: code, Reason: r, Message: r.Message()}
}

// ApplyResult is returned by Apply.
type ApplyResult struct {
	Booking         *model.Booking  `json:"booking"`
	Code            string          `json:"code"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// Offer is a public coupon that validates for a booking.
type Offer struct {
	Coupon         model.Coupon    `json:"coupon"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// Engine runs coupon operations against a store.
type Engine struct {
	store   store.Store
	auditor audit.Auditor
	logger  *zap.Logger
	now     func() time.Time
}

// NewEngine builds an engine.  A nil now uses time.Now.
func NewEngine(st store.Store, auditor audit.Auditor, logger *zap.Logger, now func() time.Time) *Engine {
	if st == nil || auditor == nil || logger == nil {
		panic("nil dependency passed to coupon.NewEngine")
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{store: st, auditor: auditor, logger: logger, now: now}
}

// Validate runs the rule chain for code against the customer's booking.
// Rule failures come back as an invalid Validation; the returned error is
// reserved for a malformed code and store failures.
func (e *Engine) Validate(ctx context.Context, code string, customerID, bookingID uuid.UUID) (*Validation, error) {
	norm, ok := NormalizeCode(code)
	if !ok {
		return nil, apperr.Validation("coupon.validate", "coupon code must be 3-20 letters or digits")
	}
	var out *Validation
	err := e.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && b.CustomerID != customerID) {
			out = fail(norm, ReasonBookingNotFound)
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "load booking")
		}
		c, err := tx.GetCouponByCode(ctx, norm)
		if errors.Is(err, store.ErrNotFound) {
			out = fail(norm, ReasonCouponNotFound)
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "load coupon")
		}
		out, err = e.evaluate(ctx, tx, c, b, customerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// evaluate runs the rules that follow the existence checks, in order, and
// stops at the first failure.
func (e *Engine) evaluate(ctx context.Context, tx store.Tx, c *model.Coupon, b *model.Booking, customerID uuid.UUID) (*Validation, error) {
	now := e.now()
	switch {
	case !c.IsActive:
		return fail(c.Code, ReasonInactive), nil
	case !c.InWindow(now):
		if now.Before(c.StartDate) {
			return fail(c.Code, ReasonNotStarted), nil
		}
		return fail(c.Code, ReasonExpired), nil
	}

	inScope, err := e.matchesScope(ctx, tx, c, b)
	if err != nil {
		return nil, err
	}
	if !inScope {
		return fail(c.Code, ReasonScope), nil
	}
	if b.Nights < c.MinNights {
		return fail(c.Code, ReasonMinNights), nil
	}
	if b.TotalAmount.LessThan(c.MinOrderAmount) {
		return fail(c.Code, ReasonMinOrder), nil
	}
	if !c.ApplicableDays.Contains(b.CheckIn.Weekday()) {
		return fail(c.Code, ReasonWeekday), nil
	}
	if c.MaxTotalUses != nil && c.UsedCount >= *c.MaxTotalUses {
		return fail(c.Code, ReasonUsageLimit), nil
	}
	used, err := tx.CountCustomerUsages(ctx, c.ID, customerID)
	if err != nil {
		return nil, errors.Wrap(err, "count customer usages")
	}
	if used >= c.MaxUsesPerCustomer {
		return fail(c.Code, ReasonCustomerLimit), nil
	}

	amount := CalculateDiscount(c, b.TotalAmount, b.RoomPrice, b.Nights)
	return &Validation{
		Valid:          true,
		Code:           c.Code,
		DiscountAmount: amount,
		TotalAfter:     b.TotalAmount.Sub(amount),
	}, nil
}

func (e *Engine) matchesScope(ctx context.Context, tx store.Tx, c *model.Coupon, b *model.Booking) (bool, error) {
	if c.ApplicableTo == model.ScopeAll {
		return true, nil
	}
	apps, err := tx.ListCouponApplications(ctx, c.ID)
	if err != nil {
		return false, errors.Wrap(err, "load coupon applications")
	}
	var prop *model.Property
	if c.ApplicableTo != model.ScopeProperty {
		prop, err = tx.GetProperty(ctx, b.PropertyID)
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, errors.Wrap(err, "load property")
		}
	}
	for _, a := range apps {
		switch c.ApplicableTo {
		case model.ScopeProperty:
			if a.PropertyID != nil && *a.PropertyID == b.PropertyID {
				return true, nil
			}
		case model.ScopePropertyType:
			if a.PropertyType != "" && a.PropertyType == prop.PropertyType {
				return true, nil
			}
		case model.ScopeLocation:
			if a.Location != "" && a.Location == prop.Location {
				return true, nil
			}
		}
	}
	return false, nil
}

// Apply redeems code on the customer's booking.  The discount is computed
// against the booking's current TotalAmount.
func (e *Engine) Apply(ctx context.Context, code string, customerID, bookingID uuid.UUID) (*ApplyResult, error) {
	const op = "coupon.apply"
	entry := audit.Entry{Action: op, EntityType: "booking", EntityID: bookingID.String(), ActorID: customerID.String(), ActorRole: string(model.RoleCustomer)}

	norm, ok := NormalizeCode(code)
	if !ok {
		return nil, e.failed(ctx, entry, apperr.Validation(op, "coupon code must be 3-20 letters or digits"))
	}

	var res *ApplyResult
	err := e.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		b, err := lockOwnedBooking(ctx, tx, op, bookingID, customerID)
		if err != nil {
			return err
		}
		entry.Old = *b

		if err := editable(op, b); err != nil {
			return err
		}
		if b.HasCoupon() {
			return apperr.Precondition(op, "%s", ReasonAlreadyHasCoupon.Message())
		}
		if _, err := tx.GetUsageByBooking(ctx, b.ID); err == nil {
			return apperr.Precondition(op, "%s", ReasonAlreadyHasCoupon.Message())
		} else if !errors.Is(err, store.ErrNotFound) {
			return errors.Wrap(err, "load coupon usage")
		}

		c, err := tx.LockCouponByCode(ctx, norm)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(op, "coupon not found")
		}
		if err != nil {
			return errors.Wrap(err, "lock coupon")
		}
		v, err := e.evaluate(ctx, tx, c, b, customerID)
		if err != nil {
			return err
		}
		if !v.Valid {
			return apperr.Precondition(op, "%s", v.Message)
		}
		if !v.DiscountAmount.IsPositive() {
			return apperr.Precondition(op, "%s", ReasonNoDiscount.Message())
		}

		now := e.now().UTC()
		b.CouponDiscountAmount = v.DiscountAmount
		b.CouponDiscountPercent = DiscountPercentOf(v.DiscountAmount, b.RoomPrice)
		b.RecalculateTotal()
		b.UpdatedAt = now
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return errors.Wrap(err, "update booking")
		}
		if err := tx.UpdateCouponUsedCount(ctx, c.ID, c.UsedCount+1); err != nil {
			return errors.Wrap(err, "increment coupon usage")
		}
		usage := &model.CouponUsage{
			ID:             uuid.New(),
			CouponID:       c.ID,
			CustomerID:     customerID,
			BookingID:      b.ID,
			DiscountAmount: v.DiscountAmount,
			UsedAt:         now,
		}
		if err := tx.CreateUsage(ctx, usage); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.Precondition(op, "%s", ReasonAlreadyHasCoupon.Message())
			}
			return errors.Wrap(err, "insert coupon usage")
		}
		res = &ApplyResult{Booking: b, Code: c.Code, DiscountAmount: b.CouponDiscountAmount, DiscountPercent: b.CouponDiscountPercent}
		return nil
	})
	if err != nil {
		return nil, e.failed(ctx, entry, err)
	}

	entry.New = *res.Booking
	e.succeeded(ctx, entry)
	e.logger.Info("coupon applied",
		zap.String("booking_id", bookingID.String()),
		zap.String("code", res.Code),
		zap.String("discount", res.DiscountAmount.String()),
	)
	return res, nil
}

// Cancel removes the coupon applied to the customer's booking and restores
// the total without the coupon term.
func (e *Engine) Cancel(ctx context.Context, bookingID, customerID uuid.UUID) (*model.Booking, error) {
	const op = "coupon.cancel"
	entry := audit.Entry{Action: op, EntityType: "booking", EntityID: bookingID.String(), ActorID: customerID.String(), ActorRole: string(model.RoleCustomer)}

	var out *model.Booking
	err := e.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		b, err := lockOwnedBooking(ctx, tx, op, bookingID, customerID)
		if err != nil {
			return err
		}
		entry.Old = *b

		if err := editable(op, b); err != nil {
			return err
		}
		usage, err := tx.GetUsageByBooking(ctx, b.ID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Precondition(op, "booking has no coupon applied")
		}
		if err != nil {
			return errors.Wrap(err, "load coupon usage")
		}

		c, err := tx.LockCoupon(ctx, usage.CouponID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			c = nil
		case err != nil:
			return errors.Wrap(err, "lock coupon")
		}

		b.CouponDiscountAmount = decimal.Zero
		b.CouponDiscountPercent = decimal.Zero
		b.RecalculateTotal()
		b.UpdatedAt = e.now().UTC()
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return errors.Wrap(err, "update booking")
		}
		if c != nil {
			if err := tx.UpdateCouponUsedCount(ctx, c.ID, max(c.UsedCount-1, 0)); err != nil {
				return errors.Wrap(err, "decrement coupon usage")
			}
		}
		if err := tx.DeleteUsage(ctx, usage.ID); err != nil {
			return errors.Wrap(err, "delete coupon usage")
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, e.failed(ctx, entry, err)
	}
	entry.New = *out
	e.succeeded(ctx, entry)
	return out, nil
}

// ListApplicable returns the public coupons that currently validate for the
// customer's booking, featured coupons first.
func (e *Engine) ListApplicable(ctx context.Context, customerID, bookingID uuid.UUID) ([]Offer, error) {
	const op = "coupon.list"
	offers := []Offer{}
	err := e.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(op, "booking not found")
		}
		if err != nil {
			return errors.Wrap(err, "load booking")
		}
		if b.CustomerID != customerID {
			return apperr.Authorization(op, "booking belongs to another customer")
		}
		coupons, err := tx.ListPublicCoupons(ctx)
		if err != nil {
			return errors.Wrap(err, "list coupons")
		}
		for i := range coupons {
			v, err := e.evaluate(ctx, tx, &coupons[i], b, customerID)
			if err != nil {
				return err
			}
			if v.Valid && v.DiscountAmount.IsPositive() {
				offers = append(offers, Offer{Coupon: coupons[i], DiscountAmount: v.DiscountAmount})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return offers, nil
}

// editable rejects bookings whose amounts are settled: coupons are only
// added to or removed from unpaid pending or confirmed bookings.
func editable(op string, b *model.Booking) error {
	if b.Status != model.BookingPending && b.Status != model.BookingConfirmed {
		return apperr.Precondition(op, "coupons cannot be changed on a %s booking", b.Status)
	}
	if b.PaymentStatus != model.PaymentUnpaid {
		return apperr.Precondition(op, "coupons cannot be changed on a %s booking", b.PaymentStatus)
	}
	return nil
}

func lockOwnedBooking(ctx context.Context, tx store.Tx, op string, bookingID, customerID uuid.UUID) (*model.Booking, error) {
	b, err := tx.LockBooking(ctx, bookingID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(op, "booking not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "lock booking")
	}
	if b.CustomerID != customerID {
		return nil, apperr.Authorization(op, "booking belongs to another customer")
	}
	return b, nil
}

func (e *Engine) failed(ctx context.Context, entry audit.Entry, err error) error {
	entry.Success = false
	entry.Reason = err.Error()
	if aerr := e.auditor.Record(ctx, entry); aerr != nil {
		e.logger.Error("audit record failed", zap.String("action", entry.Action), zap.Error(aerr))
	}
	return err
}

func (e *Engine) succeeded(ctx context.Context, entry audit.Entry) {
	entry.Success = true
	if err := e.auditor.Record(ctx, entry); err != nil {
		e.logger.Error("audit record failed", zap.String("action", entry.Action), zap.Error(err))
	}
}
