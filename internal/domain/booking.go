package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCancelled BookingStatus = "cancelled"
	BookingExpired   BookingStatus = "expired"
)

// Terminal reports whether the status is one a booking never leaves.
// Terminal rows are not occupancy and must never block a new active row.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingExpired
}

// Booking binds one seat, one time band and one user for the full date
// range of a subscription. Dates are copied from the subscription at
// creation time and never change afterwards; only Status moves.
type Booking struct {
	ID             uuid.UUID
	SeatNumber     int
	UserID         uuid.UUID
	SubscriptionID uuid.UUID
	Band           TimeBand
	StartDate      time.Time
	EndDate        time.Time
	Status         BookingStatus
	CreatedAt      time.Time
}

// NewBooking builds an active booking spanning the subscription's entire
// validity window. Partial-duration bookings are not supported.
func NewBooking(seat int, band TimeBand, sub Subscription) Booking {
	return Booking{
		ID:             uuid.New(),
		SeatNumber:     seat,
		UserID:         sub.UserID,
		SubscriptionID: sub.ID,
		Band:           band,
		StartDate:      DateOf(sub.StartDate),
		EndDate:        DateOf(sub.EndDate),
		Status:         BookingActive,
	}
}

// Overlaps reports whether the booking's closed date range intersects
// [start, end]: existing.start <= candidate.end AND existing.end >= candidate.start.
func (b Booking) Overlaps(start, end time.Time) bool {
	return !DateOf(b.StartDate).After(DateOf(end)) && !DateOf(b.EndDate).Before(DateOf(start))
}

// ExpiredAt reports whether the booking's end date has passed.
func (b Booking) ExpiredAt(now time.Time) bool {
	return DateOf(now).After(DateOf(b.EndDate))
}
