package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hospitality-reservation/internal/apperr"
	"github.com/iliyamo/hospitality-reservation/internal/availability"
	"github.com/iliyamo/hospitality-reservation/internal/model"
	"github.com/iliyamo/hospitality-reservation/internal/store"
	"github.com/iliyamo/hospitality-reservation/internal/store/memory"
)

var today = time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return today }

func seed(t *testing.T, totalRooms int) (*memory.Store, model.RoomType) {
	t.Helper()
	st := memory.New()
	rt := model.RoomType{
		ID:          uuid.New(),
		PropertyID:  uuid.New(),
		TotalRooms:  totalRooms,
		MaxAdults:   4,
		MaxChildren: 2,
		MaxGuests:   5,
		BasePrice:   decimal.NewFromInt(500000),
		IsActive:    true,
	}
	st.AddRoomType(rt)
	return st, rt
}

func book(st *memory.Store, rt model.RoomType, in, out time.Time, rooms int, status model.BookingStatus) model.Booking {
	b := model.Booking{
		ID:         uuid.New(),
		RoomTypeID: rt.ID,
		PropertyID: rt.PropertyID,
		CheckIn:    in,
		CheckOut:   out,
		RoomsCount: rooms,
		Status:     status,
	}
	st.PutBooking(b)
	return b
}

func isAvailable(t *testing.T, st store.Store, c *availability.Checker, id uuid.UUID, in, out time.Time, units int) bool {
	t.Helper()
	var ok bool
	err := st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		var err error
		ok, err = c.IsAvailable(ctx, tx, id, in, out, units)
		return err
	})
	require.NoError(t, err)
	return ok
}

func TestIsAvailable_OverlapRejection(t *testing.T) {
	st, rt := seed(t, 2)
	book(st, rt, model.Date(2025, 6, 1), model.Date(2025, 6, 5), 2, model.BookingConfirmed)
	c := availability.NewChecker(fixedNow, time.UTC)

	assert.False(t, isAvailable(t, st, c, rt.ID, model.Date(2025, 6, 3), model.Date(2025, 6, 4), 1))
}

func TestIsAvailable_HalfOpenBoundaries(t *testing.T) {
	st, rt := seed(t, 1)
	book(st, rt, model.Date(2025, 6, 1), model.Date(2025, 6, 5), 1, model.BookingPending)
	c := availability.NewChecker(fixedNow, time.UTC)

	// Checkout day of one stay is the check-in day of the next.
	assert.True(t, isAvailable(t, st, c, rt.ID, model.Date(2025, 6, 5), model.Date(2025, 6, 7), 1))
	assert.True(t, isAvailable(t, st, c, rt.ID, model.Date(2025, 5, 28), model.Date(2025, 6, 1), 1))
	assert.False(t, isAvailable(t, st, c, rt.ID, model.Date(2025, 5, 28), model.Date(2025, 6, 2), 1))
}

func TestIsAvailable_IgnoresCancelledBookings(t *testing.T) {
	st, rt := seed(t, 1)
	book(st, rt, model.Date(2025, 6, 1), model.Date(2025, 6, 5), 1, model.BookingCancelled)
	c := availability.NewChecker(fixedNow, time.UTC)

	assert.True(t, isAvailable(t, st, c, rt.ID, model.Date(2025, 6, 2), model.Date(2025, 6, 3), 1))
}

func TestIsAvailable_Monotonic(t *testing.T) {
	st, rt := seed(t, 5)
	book(st, rt, model.Date(2025, 6, 1), model.Date(2025, 6, 10), 2, model.BookingConfirmed)
	book(st, rt, model.Date(2025, 6, 8), model.Date(2025, 6, 12), 1, model.BookingCheckedIn)
	c := availability.NewChecker(fixedNow, time.UTC)
	in, out := model.Date(2025, 6, 5), model.Date(2025, 6, 9)

	results := make([]bool, 0, 8)
	for k := 0; k <= 7; k++ {
		results = append(results, isAvailable(t, st, c, rt.ID, in, out, k))
	}
	// 3 reserved of 5: true up to 2 units, false after.
	assert.Equal(t, []bool{true, true, true, false, false, false, false, false}, results)
	for k := 1; k < len(results); k++ {
		if results[k] {
			assert.True(t, results[k-1], "available for %d units but not %d", k, k-1)
		}
	}
}

func TestIsAvailable_MissingOrInactiveRoomType(t *testing.T) {
	st, rt := seed(t, 1)
	inactive := rt
	inactive.ID = uuid.New()
	inactive.IsActive = false
	st.AddRoomType(inactive)
	c := availability.NewChecker(fixedNow, time.UTC)

	for _, id := range []uuid.UUID{uuid.New(), inactive.ID} {
		err := st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			_, err := c.IsAvailable(ctx, tx, id, model.Date(2025, 6, 1), model.Date(2025, 6, 2), 1)
			return err
		})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	}
}

func TestCheck_DetailedBreakdown(t *testing.T) {
	st, rt := seed(t, 3)
	existing := book(st, rt, model.Date(2025, 6, 1), model.Date(2025, 6, 5), 2, model.BookingConfirmed)
	c := availability.NewChecker(fixedNow, time.UTC)

	tests := []struct {
		name        string
		req         availability.Request
		wantOK      bool
		wantFree    int
		wantReasons int
	}{
		{
			name:     "fits",
			req:      availability.Request{CheckIn: model.Date(2025, 6, 2), CheckOut: model.Date(2025, 6, 4), Rooms: 1, Adults: 2},
			wantOK:   true,
			wantFree: 1,
		},
		{
			name:        "not enough rooms",
			req:         availability.Request{CheckIn: model.Date(2025, 6, 2), CheckOut: model.Date(2025, 6, 4), Rooms: 2, Adults: 2},
			wantFree:    1,
			wantReasons: 1,
		},
		{
			name:     "excluding the existing booking frees its rooms",
			req:      availability.Request{CheckIn: model.Date(2025, 6, 2), CheckOut: model.Date(2025, 6, 4), Rooms: 3, Adults: 2, ExcludeBookingID: existing.ID},
			wantOK:   true,
			wantFree: 3,
		},
		{
			name:        "over occupancy",
			req:         availability.Request{CheckIn: model.Date(2025, 7, 2), CheckOut: model.Date(2025, 7, 4), Rooms: 1, Adults: 5, Children: 3},
			wantFree:    3,
			wantReasons: 3,
		},
		{
			name:        "past check-in and empty stay",
			req:         availability.Request{CheckIn: model.Date(2025, 5, 19), CheckOut: model.Date(2025, 5, 19), Rooms: 1, Adults: 1},
			wantReasons: 2,
		},
		{
			name:        "more rooms than the room type has",
			req:         availability.Request{CheckIn: model.Date(2025, 7, 2), CheckOut: model.Date(2025, 7, 4), Rooms: 4, Adults: 1},
			wantFree:    3,
			wantReasons: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.RoomTypeID = rt.ID
			var res availability.Result
			err := st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
				var err error
				res, err = c.Check(ctx, tx, tt.req)
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, res.Available)
			assert.Equal(t, tt.wantFree, res.AvailableRooms)
			assert.Len(t, res.Reasons, tt.wantReasons, "%v", res.Reasons)
		})
	}
}
