package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hospitality-reservation/internal/model"
)

const roomTypeColumns = `id, property_id, name, total_rooms, max_adults, max_children, max_guests,
	base_price, weekend_price, holiday_price, weekly_discount_percent, monthly_discount_percent,
	currency, is_active`

func scanRoomType(s scanner) (*model.RoomType, error) {
	var (
		rt      model.RoomType
		weekend decimal.NullDecimal
		holiday decimal.NullDecimal
	)
	err := s.Scan(
		&rt.ID, &rt.PropertyID, &rt.Name, &rt.TotalRooms, &rt.MaxAdults, &rt.MaxChildren, &rt.MaxGuests,
		&rt.BasePrice, &weekend, &holiday, &rt.WeeklyDiscountPercent, &rt.MonthlyDiscountPercent,
		&rt.Currency, &rt.IsActive,
	)
	if err != nil {
		return nil, translate(err)
	}
	if weekend.Valid {
		rt.WeekendPrice = &weekend.Decimal
	}
	if holiday.Valid {
		rt.HolidayPrice = &holiday.Decimal
	}
	return &rt, nil
}

// GetRoomType loads a room type without locking it.
func (t *Tx) GetRoomType(ctx context.Context, id uuid.UUID) (*model.RoomType, error) {
	return scanRoomType(t.queryRow(ctx, `SELECT `+roomTypeColumns+` FROM room_types WHERE id = ?`, id))
}

// LockRoomType loads a room type and holds its row lock until the
// transaction ends.  Bookings of the room type are inserted only while this
// lock is held, which serialises check-then-insert on its inventory.
func (t *Tx) LockRoomType(ctx context.Context, id uuid.UUID) (*model.RoomType, error) {
	return scanRoomType(t.queryRow(ctx, `SELECT `+roomTypeColumns+` FROM room_types WHERE id = ? FOR UPDATE`, id))
}

// GetProperty loads the property fields the engine checks roles and coupon
// scopes against.
func (t *Tx) GetProperty(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	const q = `SELECT id, host_id, name, property_type, location, is_active FROM properties WHERE id = ?`
	var p model.Property
	err := t.queryRow(ctx, q, id).Scan(&p.ID, &p.HostID, &p.Name, &p.PropertyType, &p.Location, &p.IsActive)
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}
