package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hospitality-reservation/internal/model"
)

const couponColumns = `id, code, description, discount_type, discount_value, max_discount_amount,
	min_order_amount, min_nights, applicable_days, applicable_to, start_date, end_date,
	max_total_uses, max_uses_per_customer, used_count, is_active, is_public, is_featured`

func scanCoupon(s scanner) (*model.Coupon, error) {
	var c model.Coupon
	var maxDiscount decimal.NullDecimal
	var maxTotal sql.NullInt64
	err := s.Scan(
		&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.DiscountValue, &maxDiscount,
		&c.MinOrderAmount, &c.MinNights, &c.ApplicableDays, &c.ApplicableTo, &c.StartDate, &c.EndDate,
		&maxTotal, &c.MaxUsesPerCustomer, &c.UsedCount, &c.IsActive, &c.IsPublic, &c.IsFeatured,
	)
	if err != nil {
		return nil, translate(err)
	}
	if maxDiscount.Valid {
		c.MaxDiscountAmount = &maxDiscount.Decimal
	}
	if maxTotal.Valid {
		n := int(maxTotal.Int64)
		c.MaxTotalUses = &n
	}
	c.StartDate = c.StartDate.UTC()
	c.EndDate = c.EndDate.UTC()
	return &c, nil
}

// GetCouponByCode looks a coupon up by its upper-case code.
func (t *Tx) GetCouponByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return scanCoupon(t.queryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = ?`, strings.ToUpper(code)))
}

// LockCouponByCode is GetCouponByCode under the coupon's row lock.  UsedCount
// is only changed while this lock is held.
func (t *Tx) LockCouponByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return scanCoupon(t.queryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = ? FOR UPDATE`, strings.ToUpper(code)))
}

// LockCoupon loads a coupon by id under its row lock.
func (t *Tx) LockCoupon(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	return scanCoupon(t.queryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id = ? FOR UPDATE`, id))
}

func (t *Tx) UpdateCouponUsedCount(ctx context.Context, id uuid.UUID, usedCount int) error {
	return mustAffect(t.exec(ctx, `UPDATE coupons SET used_count = ? WHERE id = ?`, usedCount, id))
}

// ListCouponApplications returns the scope rows of a coupon.
func (t *Tx) ListCouponApplications(ctx context.Context, couponID uuid.UUID) ([]model.CouponApplication, error) {
	const q = `SELECT coupon_id, property_id, property_type, location FROM coupon_applications WHERE coupon_id = ?`
	rows, err := t.query(ctx, q, couponID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.CouponApplication
	for rows.Next() {
		var a model.CouponApplication
		var propertyID uuid.NullUUID
		var propertyType, location sql.NullString
		if err := rows.Scan(&a.CouponID, &propertyID, &propertyType, &location); err != nil {
			return nil, err
		}
		if propertyID.Valid {
			id := propertyID.UUID
			a.PropertyID = &id
		}
		a.PropertyType = propertyType.String
		a.Location = location.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListPublicCoupons returns public, active coupons with featured ones first.
func (t *Tx) ListPublicCoupons(ctx context.Context) ([]model.Coupon, error) {
	rows, err := t.query(ctx, `SELECT `+couponColumns+` FROM coupons
		WHERE is_public = ? AND is_active = ? ORDER BY is_featured DESC, code`, true, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// CountCustomerUsages counts the customer's live redemptions of a coupon.
func (t *Tx) CountCustomerUsages(ctx context.Context, couponID, customerID uuid.UUID) (int, error) {
	var n int
	err := t.queryRow(ctx, `SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = ? AND customer_id = ?`, couponID, customerID).Scan(&n)
	return n, err
}

func (t *Tx) GetUsageByBooking(ctx context.Context, bookingID uuid.UUID) (*model.CouponUsage, error) {
	const q = `SELECT id, coupon_id, customer_id, booking_id, discount_amount, used_at FROM coupon_usages WHERE booking_id = ?`
	var u model.CouponUsage
	err := t.queryRow(ctx, q, bookingID).Scan(&u.ID, &u.CouponID, &u.CustomerID, &u.BookingID, &u.DiscountAmount, &u.UsedAt)
	if err != nil {
		return nil, translate(err)
	}
	u.UsedAt = u.UsedAt.UTC()
	return &u, nil
}

// CreateUsage inserts a usage row.  booking_id is unique, so a second usage
// for the same booking fails with store.ErrDuplicate.
func (t *Tx) CreateUsage(ctx context.Context, u *model.CouponUsage) error {
	const q = `INSERT INTO coupon_usages (id, coupon_id, customer_id, booking_id, discount_amount, used_at) VALUES (?, ?, ?, ?, ?, ?)`
	usedAt := u.UsedAt
	if usedAt.IsZero() {
		usedAt = time.Now()
	}
	_, err := t.exec(ctx, q, u.ID, u.CouponID, u.CustomerID, u.BookingID, u.DiscountAmount, usedAt.UTC())
	return translate(err)
}

func (t *Tx) DeleteUsage(ctx context.Context, id uuid.UUID) error {
	return mustAffect(t.exec(ctx, `DELETE FROM coupon_usages WHERE id = ?`, id))
}
