// Package availability answers whether a number of units of a room type can
// be reserved for a stay.  Reserved units are the sum of RoomsCount over the
// non-cancelled bookings whose stay overlaps the requested one under the
// half-open rule existing.CheckIn < checkOut AND existing.CheckOut > checkIn.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iliyamo/hospitality-reservation/internal/apperr"
	"github.com/iliyamo/hospitality-reservation/internal/model"
	"github.com/iliyamo/hospitality-reservation/internal/store"
)

// Request describes a detailed availability query.
type Request struct {
	RoomTypeID uuid.UUID
	CheckIn    time.Time
	CheckOut   time.Time
	Rooms      int
	Adults     int
	Children   int
	// ExcludeBookingID leaves one booking out of the reserved sum, used when
	// re-checking a booking that is already counted.
	ExcludeBookingID uuid.UUID
}

// Result is the structured breakdown of a detailed query.  Available is
// true only when Reasons is empty.
type Result struct {
	Available      bool     `json:"available"`
	RoomTypeID     string   `json:"room_type_id"`
	TotalRooms     int      `json:"total_rooms"`
	ReservedRooms  int      `json:"reserved_rooms"`
	AvailableRooms int      `json:"available_rooms"`
	RequestedRooms int      `json:"requested_rooms"`
	Nights         int      `json:"nights"`
	Reasons        []string `json:"reasons,omitempty"`
}

// Checker evaluates availability against an inventory reader.  Today is
// taken from the supplied clock in loc.
type Checker struct {
	now func() time.Time
	loc *time.Location
}

// NewChecker builds a checker.  A nil now uses time.Now and a nil loc UTC.
func NewChecker(now func() time.Time, loc *time.Location) *Checker {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Checker{now: now, loc: loc}
}

// ActiveRoomType loads a room type and rejects missing or inactive ones with
// a NotFound error.
func ActiveRoomType(ctx context.Context, r store.InventoryReader, id uuid.UUID) (*model.RoomType, error) {
	rt, err := r.GetRoomType(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !rt.IsActive) {
		return nil, apperr.NotFound("availability", "room type not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load room type")
	}
	return rt, nil
}

// Free returns TotalRooms minus the units reserved over the stay.
func (c *Checker) Free(ctx context.Context, r store.InventoryReader, rt *model.RoomType, checkIn, checkOut time.Time, exclude uuid.UUID) (int, error) {
	reserved, err := r.ReservedRooms(ctx, rt.ID, checkIn, checkOut, exclude)
	if err != nil {
		return 0, errors.Wrap(err, "sum reserved rooms")
	}
	return rt.TotalRooms - reserved, nil
}

// IsAvailable reports whether units of the room type are free for the stay.
func (c *Checker) IsAvailable(ctx context.Context, r store.InventoryReader, roomTypeID uuid.UUID, checkIn, checkOut time.Time, units int) (bool, error) {
	rt, err := ActiveRoomType(ctx, r, roomTypeID)
	if err != nil {
		return false, err
	}
	free, err := c.Free(ctx, r, rt, checkIn, checkOut, uuid.Nil)
	if err != nil {
		return false, err
	}
	return free >= units, nil
}

// Check runs the detailed query: room count, occupancy caps, date sanity
// and inventory.  Rule failures are reported in Result.Reasons; only a
// missing room type or a store failure is returned as an error.
func (c *Checker) Check(ctx context.Context, r store.InventoryReader, req Request) (Result, error) {
	rt, err := ActiveRoomType(ctx, r, req.RoomTypeID)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		RoomTypeID:     rt.ID.String(),
		TotalRooms:     rt.TotalRooms,
		RequestedRooms: req.Rooms,
		Nights:         model.NightsBetween(req.CheckIn, req.CheckOut),
	}
	res.Reasons = append(res.Reasons, Occupancy(rt, req.Rooms, req.Adults, req.Children)...)

	today := model.DateOf(c.now(), c.loc)
	if req.CheckIn.Before(today) {
		res.Reasons = append(res.Reasons, "check-in date is in the past")
	}
	if res.Nights <= 0 {
		res.Reasons = append(res.Reasons, "check-out must be after check-in")
	} else {
		free, err := c.Free(ctx, r, rt, req.CheckIn, req.CheckOut, req.ExcludeBookingID)
		if err != nil {
			return Result{}, err
		}
		res.ReservedRooms = rt.TotalRooms - free
		res.AvailableRooms = max(free, 0)
		if free < req.Rooms {
			res.Reasons = append(res.Reasons, fmt.Sprintf("only %d room(s) available", res.AvailableRooms))
		}
	}
	res.Available = len(res.Reasons) == 0
	return res, nil
}

// Occupancy validates the unit and guest counts against the room type's
// caps and returns one reason per violated rule.
func Occupancy(rt *model.RoomType, rooms, adults, children int) []string {
	var reasons []string
	if rooms <= 0 {
		reasons = append(reasons, "rooms must be at least 1")
	} else if rooms > rt.TotalRooms {
		reasons = append(reasons, fmt.Sprintf("room type has only %d room(s)", rt.TotalRooms))
	}
	if adults < 0 || children < 0 || adults+children <= 0 {
		reasons = append(reasons, "at least one guest is required")
	}
	if adults > rt.MaxAdults {
		reasons = append(reasons, fmt.Sprintf("at most %d adult(s) allowed", rt.MaxAdults))
	}
	if children > rt.MaxChildren {
		reasons = append(reasons, fmt.Sprintf("at most %d child(ren) allowed", rt.MaxChildren))
	}
	if adults+children > rt.MaxGuests {
		reasons = append(reasons, fmt.Sprintf("at most %d guest(s) allowed", rt.MaxGuests))
	}
	return reasons
}
