package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// BookingStatus is the lifecycle state of a booking.  The zero value is
// BookingPending so a freshly constructed booking starts at the head of the
// lifecycle.
type BookingStatus uint8

const (
	BookingPending   BookingStatus = iota // created, awaiting customer confirmation
	BookingConfirmed                      // confirmed by the customer
	BookingCheckedIn                      // guest has arrived
	BookingCompleted                      // guest has checked out
	BookingCancelled                      // cancelled by customer, host or operator
)

var bookingStatusNames = [...]string{
	BookingPending:   "pending",
	BookingConfirmed: "confirmed",
	BookingCheckedIn: "checkedIn",
	BookingCompleted: "completed",
	BookingCancelled: "cancelled",
}

func (s BookingStatus) String() string {
	if int(s) < len(bookingStatusNames) {
		return bookingStatusNames[s]
	}
	return fmt.Sprintf("BookingStatus(%d)", uint8(s))
}

// Valid reports whether s is one of the enumerated statuses.
func (s BookingStatus) Valid() bool { return int(s) < len(bookingStatusNames) }

// ParseBookingStatus converts the wire name of a status.  Matching is case
// insensitive so "checkedin" and "checkedIn" are the same state.
func ParseBookingStatus(s string) (BookingStatus, error) {
	for i, name := range bookingStatusNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return BookingStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown booking status %q", s)
}

func (s BookingStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid booking status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *BookingStatus) UnmarshalText(b []byte) error {
	v, err := ParseBookingStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Value stores the status by name.
func (s BookingStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid booking status %d", uint8(s))
	}
	return s.String(), nil
}

// Scan reads a status stored by name.
func (s *BookingStatus) Scan(src any) error {
	str, err := scanString(src)
	if err != nil {
		return err
	}
	return s.UnmarshalText([]byte(str))
}

// PaymentStatus is the externally driven payment state of a booking.
type PaymentStatus uint8

const (
	PaymentUnpaid PaymentStatus = iota
	PaymentPaid
	PaymentRefunded
	PaymentPartialRefund
)

var paymentStatusNames = [...]string{
	PaymentUnpaid:        "unpaid",
	PaymentPaid:          "paid",
	PaymentRefunded:      "refunded",
	PaymentPartialRefund: "partial_refund",
}

func (p PaymentStatus) String() string {
	if int(p) < len(paymentStatusNames) {
		return paymentStatusNames[p]
	}
	return fmt.Sprintf("PaymentStatus(%d)", uint8(p))
}

// Valid reports whether p is one of the enumerated payment states.
func (p PaymentStatus) Valid() bool { return int(p) < len(paymentStatusNames) }

// ParsePaymentStatus converts the wire name of a payment state.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	for i, name := range paymentStatusNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return PaymentStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown payment status %q", s)
}

func (p PaymentStatus) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid payment status %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *PaymentStatus) UnmarshalText(b []byte) error {
	v, err := ParsePaymentStatus(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p PaymentStatus) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid payment status %d", uint8(p))
	}
	return p.String(), nil
}

func (p *PaymentStatus) Scan(src any) error {
	str, err := scanString(src)
	if err != nil {
		return err
	}
	return p.UnmarshalText([]byte(str))
}

// scanString accepts the textual column types returned by the mysql and
// postgres drivers.
func scanString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", fmt.Errorf("unexpected NULL")
	}
	return "", fmt.Errorf("unsupported scan type %T", src)
}
