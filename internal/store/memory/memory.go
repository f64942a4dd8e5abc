// Package memory is an in-process implementation of store.Store.  It backs
// the service tests and DB_DRIVER=memory local runs.  Transactions are
// serialised by a single mutex and work on a copy of the data that replaces
// the committed state only when the transaction function succeeds, so a
// failed operation leaves nothing behind.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/hospitality-reservation/internal/model"
	"github.com/iliyamo/hospitality-reservation/internal/store"
)

type data struct {
	roomTypes    map[uuid.UUID]model.RoomType
	properties   map[uuid.UUID]model.Property
	bookings     map[uuid.UUID]model.Booking
	coupons      map[uuid.UUID]model.Coupon
	applications []model.CouponApplication
	usages       map[uuid.UUID]model.CouponUsage
}

func newData() *data {
	return &data{
		roomTypes:  map[uuid.UUID]model.RoomType{},
		properties: map[uuid.UUID]model.Property{},
		bookings:   map[uuid.UUID]model.Booking{},
		coupons:    map[uuid.UUID]model.Coupon{},
		usages:     map[uuid.UUID]model.CouponUsage{},
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.roomTypes {
		c.roomTypes[k] = v
	}
	for k, v := range d.properties {
		c.properties[k] = v
	}
	for k, v := range d.bookings {
		c.bookings[k] = v
	}
	for k, v := range d.coupons {
		c.coupons[k] = v
	}
	for k, v := range d.usages {
		c.usages[k] = v
	}
	c.applications = append([]model.CouponApplication(nil), d.applications...)
	return c
}

// Store keeps all records in memory.
type Store struct {
	mu   sync.Mutex
	data *data
}

// New returns an empty store.
func New() *Store { return &Store{data: newData()} }

// WithTx runs fn against a private copy of the data and publishes the copy
// when fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.data.clone()
	if err := fn(ctx, &tx{d: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

// AddProperty seeds a property.
func (s *Store) AddProperty(p model.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.properties[p.ID] = p
}

// AddRoomType seeds a room type.
func (s *Store) AddRoomType(rt model.RoomType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.roomTypes[rt.ID] = rt
}

// AddCoupon seeds a coupon together with its scope rows.
func (s *Store) AddCoupon(c model.Coupon, apps ...model.CouponApplication) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Code = strings.ToUpper(c.Code)
	s.data.coupons[c.ID] = c
	for _, a := range apps {
		a.CouponID = c.ID
		s.data.applications = append(s.data.applications, a)
	}
}

// PutBooking seeds or overwrites a booking.
func (s *Store) PutBooking(b model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.bookings[b.ID] = b
}

// Booking returns the committed copy of a booking.
func (s *Store) Booking(id uuid.UUID) (model.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data.bookings[id]
	return b, ok
}

// Coupon returns the committed copy of a coupon.
func (s *Store) Coupon(id uuid.UUID) (model.Coupon, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.coupons[id]
	return c, ok
}

// Usages returns the committed usage rows of a coupon.
func (s *Store) Usages(couponID uuid.UUID) []model.CouponUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.CouponUsage
	for _, u := range s.data.usages {
		if u.CouponID == couponID {
			out = append(out, u)
		}
	}
	return out
}

type tx struct {
	d *data
}

func (t *tx) GetRoomType(_ context.Context, id uuid.UUID) (*model.RoomType, error) {
	rt, ok := t.d.roomTypes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &rt, nil
}

func (t *tx) LockRoomType(ctx context.Context, id uuid.UUID) (*model.RoomType, error) {
	return t.GetRoomType(ctx, id)
}

func (t *tx) GetProperty(_ context.Context, id uuid.UUID) (*model.Property, error) {
	p, ok := t.d.properties[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (t *tx) ReservedRooms(_ context.Context, roomTypeID uuid.UUID, checkIn, checkOut time.Time, exclude uuid.UUID) (int, error) {
	sum := 0
	for _, b := range t.d.bookings {
		if b.RoomTypeID != roomTypeID || b.Status == model.BookingCancelled {
			continue
		}
		if exclude != uuid.Nil && b.ID == exclude {
			continue
		}
		if b.Overlaps(checkIn, checkOut) {
			sum += b.RoomsCount
		}
	}
	return sum, nil
}

func (t *tx) CreateBooking(_ context.Context, b *model.Booking) error {
	if _, exists := t.d.bookings[b.ID]; exists {
		return store.ErrDuplicate
	}
	t.d.bookings[b.ID] = *b
	return nil
}

func (t *tx) GetBooking(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	b, ok := t.d.bookings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (t *tx) LockBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return t.GetBooking(ctx, id)
}

func (t *tx) UpdateBooking(_ context.Context, b *model.Booking) error {
	if _, ok := t.d.bookings[b.ID]; !ok {
		return store.ErrNotFound
	}
	t.d.bookings[b.ID] = *b
	return nil
}

func (t *tx) ListBookingsByCustomer(_ context.Context, customerID uuid.UUID) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range t.d.bookings {
		if b.CustomerID == customerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingDate.After(out[j].BookingDate) })
	return out, nil
}

func (t *tx) GetCouponByCode(_ context.Context, code string) (*model.Coupon, error) {
	code = strings.ToUpper(code)
	for _, c := range t.d.coupons {
		if c.Code == code {
			c := c
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *tx) LockCouponByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return t.GetCouponByCode(ctx, code)
}

func (t *tx) LockCoupon(_ context.Context, id uuid.UUID) (*model.Coupon, error) {
	c, ok := t.d.coupons[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (t *tx) UpdateCouponUsedCount(_ context.Context, id uuid.UUID, usedCount int) error {
	c, ok := t.d.coupons[id]
	if !ok {
		return store.ErrNotFound
	}
	c.UsedCount = usedCount
	t.d.coupons[id] = c
	return nil
}

func (t *tx) ListCouponApplications(_ context.Context, couponID uuid.UUID) ([]model.CouponApplication, error) {
	var out []model.CouponApplication
	for _, a := range t.d.applications {
		if a.CouponID == couponID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (t *tx) ListPublicCoupons(_ context.Context) ([]model.Coupon, error) {
	var out []model.Coupon
	for _, c := range t.d.coupons {
		if c.IsPublic && c.IsActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsFeatured != out[j].IsFeatured {
			return out[i].IsFeatured
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (t *tx) CountCustomerUsages(_ context.Context, couponID, customerID uuid.UUID) (int, error) {
	n := 0
	for _, u := range t.d.usages {
		if u.CouponID == couponID && u.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (t *tx) GetUsageByBooking(_ context.Context, bookingID uuid.UUID) (*model.CouponUsage, error) {
	for _, u := range t.d.usages {
		if u.BookingID == bookingID {
			u := u
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *tx) CreateUsage(_ context.Context, u *model.CouponUsage) error {
	for _, existing := range t.d.usages {
		if existing.BookingID == u.BookingID {
			return store.ErrDuplicate
		}
	}
	t.d.usages[u.ID] = *u
	return nil
}

func (t *tx) DeleteUsage(_ context.Context, id uuid.UUID) error {
	if _, ok := t.d.usages[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.d.usages, id)
	return nil
}
